package providers

import (
	"context"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/entities"
)

// EventPublisher hands a committed clinical event to whoever processes it.
// Publish must not block on handler execution.
type EventPublisher interface {
	Publish(ctx context.Context, event *entities.ClinicalEvent) error
}

// EventHandler processes one clinical event. Returned errors are logged by
// the dispatcher and never retried.
type EventHandler interface {
	Handle(ctx context.Context, event *entities.ClinicalEvent) error
}

// EventBus fans clinical events out to other processes. Delivery is at most
// once; a subscriber that is not listening misses the event.
type EventBus interface {
	Publish(ctx context.Context, channel string, event *entities.ClinicalEvent) error

	// Subscribe returns a channel of decoded events that is closed when ctx
	// ends or the bus is closed.
	Subscribe(ctx context.Context, channel string) (<-chan *entities.ClinicalEvent, error)

	Close() error
}

// EventChannelTenantPrefix prefixes the per-tenant event channel
const EventChannelTenantPrefix = "clinical:tenant:"

// GetTenantChannel returns the channel name for a specific tenant
func GetTenantChannel(tenantID string) string {
	return EventChannelTenantPrefix + tenantID
}
