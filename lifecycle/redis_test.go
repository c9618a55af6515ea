package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestNewRedisSource_NilClient(t *testing.T) {
	if _, err := NewRedisSource(nil); !errors.Is(err, ErrNilClient) {
		t.Errorf("NewRedisSource(nil) error = %v, want ErrNilClient", err)
	}
}

func TestRedisSource_PublishDelivers(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	src, err := NewRedisSource(client, WithChannel("test:session-end"))
	if err != nil {
		t.Fatalf("NewRedisSource() error = %v", err)
	}
	t.Cleanup(func() { _ = src.Close() })

	got := make(chan string, 1)
	src.Subscribe(func(_ context.Context, id string) { got <- id })

	if err := src.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := src.Start(ctx); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start() error = %v, want ErrAlreadyStarted", err)
	}

	if err := src.Publish(ctx, "session-42"); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case id := <-got:
		if id != "session-42" {
			t.Errorf("delivered session = %q, want session-42", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestRedisSource_IgnoresGarbage(t *testing.T) {
	mr, client := newTestClient(t)
	ctx := context.Background()

	src, err := NewRedisSource(client)
	if err != nil {
		t.Fatalf("NewRedisSource() error = %v", err)
	}
	t.Cleanup(func() { _ = src.Close() })

	got := make(chan string, 2)
	src.Subscribe(func(_ context.Context, id string) { got <- id })
	if err := src.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	mr.Publish(DefaultChannel, "not msgpack at all \xc1")
	if err := src.Publish(ctx, "after-garbage"); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case id := <-got:
		if id != "after-garbage" {
			t.Errorf("delivered session = %q, want after-garbage", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event after garbage not delivered")
	}
}

func TestRedisSource_PublishEmptySession(t *testing.T) {
	_, client := newTestClient(t)
	src, _ := NewRedisSource(client)

	if err := src.Publish(context.Background(), ""); !errors.Is(err, ErrEmptySession) {
		t.Errorf("Publish(\"\") error = %v, want ErrEmptySession", err)
	}
}

func TestRedisSource_Close(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()
	src, _ := NewRedisSource(client)

	if err := src.Close(); err != nil {
		t.Errorf("Close() before Start error = %v", err)
	}
	if err := src.Start(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("Start() after Close error = %v, want ErrClosed", err)
	}
	if err := src.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestRedisSource_StartFails(t *testing.T) {
	mr, client := newTestClient(t)
	mr.Close()

	src, _ := NewRedisSource(client)
	if err := src.Start(context.Background()); err == nil {
		t.Error("Start() error = nil, want subscribe failure")
	}
}

func TestRedisSource_OutlivesStartContext(t *testing.T) {
	_, client := newTestClient(t)

	src, err := NewRedisSource(client)
	if err != nil {
		t.Fatalf("NewRedisSource() error = %v", err)
	}
	t.Cleanup(func() { _ = src.Close() })

	got := make(chan string, 1)
	src.Subscribe(func(_ context.Context, id string) { got <- id })

	startCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	if err := src.Start(startCtx); err != nil {
		cancel()
		t.Fatalf("Start() error = %v", err)
	}
	cancel()

	if err := src.Publish(context.Background(), "session-7"); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	select {
	case id := <-got:
		if id != "session-7" {
			t.Errorf("delivered session = %q, want session-7", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered after the start context was cancelled")
	}
}
