package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storehub/backend/internal/domain/shared"
)

type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Test", uuid.New(), uuid.New())}
}

type recordingHandler struct {
	types []string
	err   error
	panic bool

	mu      sync.Mutex
	handled []shared.DomainEvent
}

func (h *recordingHandler) Handle(_ context.Context, e shared.DomainEvent) error {
	h.mu.Lock()
	h.handled = append(h.handled, e)
	h.mu.Unlock()
	if h.panic {
		panic("boom")
	}
	return h.err
}

func (h *recordingHandler) EventTypes() []string { return h.types }

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	created := &recordingHandler{types: []string{"SaleCreated"}}
	all := &recordingHandler{}
	bus.Subscribe(created)
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(context.Background(),
		newTestEvent("SaleCreated"),
		newTestEvent("SaleCancelled"),
		nil,
	))

	assert.Equal(t, 1, created.count())
	assert.Equal(t, 2, all.count())
}

func TestInMemoryEventBus_FailingHandlersDoNotStopDelivery(t *testing.T) {
	var failures []string
	bus := NewInMemoryEventBus(zap.NewNop(), WithFailureHook(func(eventType string, _ shared.EventHandler, err error) {
		failures = append(failures, eventType+": "+err.Error())
	}))

	broken := &recordingHandler{err: errors.New("db down")}
	panicky := &recordingHandler{panic: true}
	ok := &recordingHandler{}
	for _, h := range []*recordingHandler{broken, panicky, ok} {
		bus.Subscribe(h, "ProductStockLow")
	}

	err := bus.Publish(context.Background(), newTestEvent("ProductStockLow"))

	require.NoError(t, err)
	assert.Equal(t, 1, ok.count())
	require.Len(t, failures, 2)
	assert.Equal(t, "ProductStockLow: db down", failures[0])
	assert.Contains(t, failures[1], "handler panicked: boom")
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	h := &recordingHandler{types: []string{"A", "B"}}
	bus.Subscribe(h)
	bus.Subscribe(h, "A")

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("A")))
	assert.Equal(t, 1, h.count(), "duplicate registration delivers once")

	bus.Unsubscribe(h)
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("A"), newTestEvent("B")))
	assert.Equal(t, 1, h.count())
	assert.Empty(t, bus.registry.EventTypes())
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	assert.False(t, bus.Running())

	require.NoError(t, bus.Start(context.Background()))
	assert.True(t, bus.Running())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bus.Stop(ctx))
	assert.False(t, bus.Running())
}

func TestHandlerRegistry_Handlers(t *testing.T) {
	r := NewHandlerRegistry()
	typed := &recordingHandler{}
	wild := &recordingHandler{}
	r.Register(typed, "X")
	r.Register(wild)

	hs := r.Handlers("X")
	require.Len(t, hs, 2)
	assert.Same(t, typed, hs[0])
	assert.Same(t, wild, hs[1])

	assert.Len(t, r.Handlers("Y"), 1)
	assert.ElementsMatch(t, []string{"X"}, r.EventTypes())
}
