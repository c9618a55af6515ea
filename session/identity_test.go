package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestIdentity_IsExpired(t *testing.T) {
	tests := []struct {
		name string
		exp  time.Time
		want bool
	}{
		{"zero", time.Time{}, false},
		{"future", time.Now().Add(time.Hour), false},
		{"past", time.Now().Add(-time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := &Identity{SessionID: "s", ExpiresAt: tt.exp}
			if got := id.IsExpired(); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContext(t *testing.T) {
	ctx := context.Background()

	if FromContext(ctx) != nil {
		t.Error("FromContext(empty) should be nil")
	}
	if IDFromContext(ctx) != "" {
		t.Error("IDFromContext(empty) should be empty")
	}

	if _, err := RequireID(ctx); !errors.Is(err, ErrNoIdentity) {
		t.Errorf("RequireID(empty) error = %v, want ErrNoIdentity", err)
	}

	id := &Identity{SessionID: "sess-1", Principal: "alice"}
	ctx = WithIdentity(ctx, id)

	if FromContext(ctx) != id {
		t.Error("FromContext() did not return the stored identity")
	}
	if got := IDFromContext(ctx); got != "sess-1" {
		t.Errorf("IDFromContext() = %q, want sess-1", got)
	}
	if got, err := RequireID(ctx); err != nil || got != "sess-1" {
		t.Errorf("RequireID() = %q, %v, want sess-1", got, err)
	}
}

type stubResolver struct {
	id  *Identity
	err error
}

func (s stubResolver) Resolve(context.Context, string) (*Identity, error) {
	return s.id, s.err
}

func TestBind(t *testing.T) {
	want := &Identity{SessionID: "s"}
	ctx, id, err := Bind(context.Background(), stubResolver{id: want}, "tok")
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if id != want || IDFromContext(ctx) != "s" {
		t.Errorf("Bind() = %v, ctx session %q", id, IDFromContext(ctx))
	}

	base := context.Background()
	ctx, id, err = Bind(base, stubResolver{err: ErrInvalidToken}, "tok")
	if !errors.Is(err, ErrInvalidToken) || id != nil || ctx != base {
		t.Errorf("Bind() failure = %v, %v; ctx changed: %v", id, err, ctx != base)
	}
}
