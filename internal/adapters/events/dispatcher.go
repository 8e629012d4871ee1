package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/entities"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/providers"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/infrastructure/observability"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/infrastructure/workerpool"
)

// Submitter runs a task in the background.
type Submitter interface {
	Submit(ctx context.Context, name string, task workerpool.Task) error
}

// AsyncDispatcher delivers committed clinical events to in-process handlers
// on the worker pool and relays them to the shared event bus when one is
// configured. Publish never waits for a handler.
type AsyncDispatcher struct {
	pool  Submitter
	relay providers.EventBus

	mu       sync.RWMutex
	handlers map[entities.ClinicalEventType][]providers.EventHandler
}

// NewAsyncDispatcher creates a dispatcher. relay may be nil.
func NewAsyncDispatcher(pool Submitter, relay providers.EventBus) *AsyncDispatcher {
	return &AsyncDispatcher{
		pool:     pool,
		relay:    relay,
		handlers: make(map[entities.ClinicalEventType][]providers.EventHandler),
	}
}

// Subscribe registers handler for events of eventType.
func (d *AsyncDispatcher) Subscribe(eventType entities.ClinicalEventType, handler providers.EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

// Publish schedules every handler of event.Type. Each handler runs at most
// once under the tenant scope of ctx; its failure is logged by the pool and
// never reaches the publisher.
func (d *AsyncDispatcher) Publish(ctx context.Context, event *entities.ClinicalEvent) error {
	if event == nil {
		return errors.New("event is required")
	}

	d.mu.RLock()
	handlers := append([]providers.EventHandler(nil), d.handlers[event.Type]...)
	d.mu.RUnlock()

	var firstErr error
	for _, h := range handlers {
		handler := h
		name := string(event.Type)
		if err := d.pool.Submit(ctx, name, func(taskCtx context.Context) error {
			return handler.Handle(taskCtx, event)
		}); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to schedule %s handler: %w", name, err)
		}
	}

	if d.relay != nil && event.TenantID != "" {
		if err := d.relay.Publish(ctx, providers.GetTenantChannel(event.TenantID), event); err != nil {
			observability.LoggerFromContext(ctx).Warn().
				Err(err).
				Str("event_id", event.ID).
				Msg("failed to relay clinical event")
		}
	}

	return firstErr
}
