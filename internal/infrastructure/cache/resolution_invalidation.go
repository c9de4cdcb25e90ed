package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultInvalidationChannel = keyPrefix + "storefront:invalidate"
	defaultCloseTimeout        = 5 * time.Second
)

// InvalidationAction names what a peer should drop
type InvalidationAction string

const (
	InvalidationDelete InvalidationAction = "delete"
	InvalidationPurge  InvalidationAction = "purge"
)

// InvalidationMessage travels over Redis pub/sub
type InvalidationMessage struct {
	Action    InvalidationAction `json:"action"`
	Slug      string             `json:"slug,omitempty"`
	Origin    string             `json:"origin"`
	Timestamp int64              `json:"timestamp"`
}

// ResolutionInvalidator fans L1 evictions out to every instance
type ResolutionInvalidator struct {
	client  *redis.Client
	channel string
	origin  string
	logger  *zap.Logger

	mu       sync.Mutex
	running  bool
	cancelFn context.CancelFunc
	doneCh   chan struct{}
	doneOnce sync.Once
}

// InvalidatorOption configures a ResolutionInvalidator
type InvalidatorOption func(*ResolutionInvalidator)

// WithInvalidatorChannel overrides the pub/sub channel
func WithInvalidatorChannel(channel string) InvalidatorOption {
	return func(i *ResolutionInvalidator) {
		i.channel = channel
	}
}

// WithInvalidatorLogger sets the logger
func WithInvalidatorLogger(logger *zap.Logger) InvalidatorOption {
	return func(i *ResolutionInvalidator) {
		i.logger = logger
	}
}

// NewResolutionInvalidator uses a shared client; Close leaves it open
func NewResolutionInvalidator(client *redis.Client, opts ...InvalidatorOption) *ResolutionInvalidator {
	i := &ResolutionInvalidator{
		client:  client,
		channel: defaultInvalidationChannel,
		origin:  uuid.NewString(),
		logger:  zap.NewNop(),
		doneCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Publish sends msg to all subscribers
func (i *ResolutionInvalidator) Publish(ctx context.Context, msg InvalidationMessage) error {
	msg.Origin = i.origin
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixNano()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal invalidation: %w", err)
	}
	if err := i.client.Publish(ctx, i.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish invalidation: %w", err)
	}
	i.logger.Debug("published resolution invalidation",
		zap.String("action", string(msg.Action)),
		zap.String("slug", msg.Slug))
	return nil
}

// PublishDelete asks peers to drop slug
func (i *ResolutionInvalidator) PublishDelete(ctx context.Context, slug string) error {
	return i.Publish(ctx, InvalidationMessage{Action: InvalidationDelete, Slug: normalizeSlug(slug)})
}

// PublishPurge asks peers to drop everything
func (i *ResolutionInvalidator) PublishPurge(ctx context.Context) error {
	return i.Publish(ctx, InvalidationMessage{Action: InvalidationPurge})
}

// Subscribe blocks until ctx is cancelled or Close is called. Messages sent
// by this instance are skipped.
func (i *ResolutionInvalidator) Subscribe(ctx context.Context, handle func(InvalidationMessage)) error {
	i.mu.Lock()
	if i.running {
		i.mu.Unlock()
		return errors.New("subscription already running")
	}
	subCtx, cancel := context.WithCancel(ctx)
	i.running = true
	i.cancelFn = cancel
	i.mu.Unlock()

	defer func() {
		i.mu.Lock()
		i.running = false
		i.mu.Unlock()
		i.doneOnce.Do(func() { close(i.doneCh) })
	}()

	pubsub := i.client.Subscribe(subCtx, i.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(subCtx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", i.channel, err)
	}
	i.logger.Info("subscribed to resolution invalidations", zap.String("channel", i.channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-subCtx.Done():
			return subCtx.Err()
		case raw, ok := <-ch:
			if !ok {
				return nil
			}
			msg, ok := i.decode(raw.Payload)
			if !ok {
				continue
			}
			handle(msg)
		}
	}
}

func (i *ResolutionInvalidator) decode(payload string) (InvalidationMessage, bool) {
	var msg InvalidationMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		i.logger.Warn("dropping malformed invalidation", zap.String("payload", payload), zap.Error(err))
		return msg, false
	}
	if msg.Origin == i.origin {
		return msg, false
	}
	return msg, true
}

// Close stops a running subscription
func (i *ResolutionInvalidator) Close() error {
	i.mu.Lock()
	cancel := i.cancelFn
	i.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-i.doneCh:
	case <-time.After(defaultCloseTimeout):
		i.logger.Warn("timeout waiting for invalidation subscription to stop")
	}
	return nil
}
