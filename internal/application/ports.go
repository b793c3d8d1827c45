package application

import (
	"context"

	"vn.io.arda/notify/internal/domain"
)

// EventConfigResolver turns an event name into its template bindings.
type EventConfigResolver interface {
	ResolveEventConfig(ctx context.Context, rc domain.RequestContext, name string) (*domain.EventConfig, error)
}

// TemplateRenderer renders a single template.
type TemplateRenderer interface {
	Render(ctx context.Context, rc domain.RequestContext, req domain.RenderRequest) (*domain.RenderResult, error)
}

// DeliverySender hands a delivery request to the delivery module.
type DeliverySender interface {
	Deliver(ctx context.Context, rc domain.RequestContext, req domain.DeliveryRequest) error
}

// UserDirectory resolves usernames to user ids.
type UserDirectory interface {
	UserIDByUsername(ctx context.Context, rc domain.RequestContext, username string) (string, error)
}

// Gateway is every remote collaborator the service talks to.
// The default implementation is infrastructure/okapi.Client.
type Gateway interface {
	EventConfigResolver
	TemplateRenderer
	DeliverySender
	UserDirectory
}

// SSEHub is the interface for broadcasting to connected SSE clients.
// Implementation lives in transport/http/sse_hub.go.
type SSEHub interface {
	Broadcast(tenant, userID string, n *domain.Notification)
}
