package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/jonwraymond/reportcache/observe"
)

// DefaultChannel is the pub/sub channel used by RedisSource.
const DefaultChannel = "reportcache:session-end"

// Event is the payload published for a session end.
type Event struct {
	SessionID string    `msgpack:"sid"`
	At        time.Time `msgpack:"at"`
}

// RedisSource is a Source fed by a Redis pub/sub channel. Every process
// that Starts a RedisSource on the same channel sees every Publish.
type RedisSource struct {
	client  redis.UniversalClient
	channel string
	logger  observe.Logger
	local   *Broadcaster

	mu     sync.Mutex
	pubsub *redis.PubSub
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
}

// RedisOption configures a RedisSource.
type RedisOption func(*RedisSource)

// WithChannel overrides DefaultChannel.
func WithChannel(name string) RedisOption {
	return func(s *RedisSource) { s.channel = name }
}

// WithLogger sets the logger for decode failures and handler panics.
func WithLogger(l observe.Logger) RedisOption {
	return func(s *RedisSource) { s.logger = l }
}

// NewRedisSource creates a RedisSource. Call Start to begin receiving.
func NewRedisSource(client redis.UniversalClient, opts ...RedisOption) (*RedisSource, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	s := &RedisSource{
		client:  client,
		channel: DefaultChannel,
		logger:  observe.NopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(observe.F("component", "lifecycle"), observe.F("channel", s.channel))
	s.local = NewBroadcaster(s.logger)
	return s, nil
}

// Subscribe registers h for events received on the channel.
func (s *RedisSource) Subscribe(h Handler) func() {
	return s.local.Subscribe(h)
}

// Publish announces that sessionID has ended.
func (s *RedisSource) Publish(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrEmptySession
	}
	payload, err := msgpack.Marshal(Event{SessionID: sessionID, At: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("lifecycle: failed to marshal event: %w", err)
	}
	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("lifecycle: failed to publish event: %w", err)
	}
	return nil
}

// Start subscribes to the channel and dispatches events until Close is
// called. ctx bounds the subscription handshake only; the receive loop
// outlives it. Start returns once the subscription is confirmed.
func (s *RedisSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.pubsub != nil {
		return ErrAlreadyStarted
	}

	ps := s.client.Subscribe(ctx, s.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return fmt.Errorf("lifecycle: failed to subscribe to %s: %w", s.channel, err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.pubsub = ps
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(runCtx, ps.Channel())
	return nil
}

func (s *RedisSource) run(ctx context.Context, ch <-chan *redis.Message) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			s.dispatch(ctx, msg.Payload)
		}
	}
}

func (s *RedisSource) dispatch(ctx context.Context, payload string) {
	var ev Event
	if err := msgpack.Unmarshal([]byte(payload), &ev); err != nil {
		s.logger.Warn(ctx, "dropping undecodable session end event", observe.F("error", err))
		return
	}
	if ev.SessionID == "" {
		s.logger.Warn(ctx, "dropping session end event without session")
		return
	}
	s.local.End(ctx, ev.SessionID)
}

// Close stops receiving and releases the subscription. Close is idempotent.
func (s *RedisSource) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	ps, cancel, done := s.pubsub, s.cancel, s.done
	s.mu.Unlock()

	if ps == nil {
		return nil
	}
	cancel()
	err := ps.Close()
	<-done
	return err
}

// Ensure RedisSource implements Source
var _ Source = (*RedisSource)(nil)
