package domain

import (
	"context"
	"time"

	"vn.io.arda/notify/internal/query"
)

// NotificationFields are the fields a notification filter may reference.
var NotificationFields = query.Schema{
	"id":                       query.TypeUUID,
	"recipientId":              query.TypeUUID,
	"eventConfigName":          query.TypeText,
	"lang":                     query.TypeText,
	"text":                     query.TypeText,
	"link":                     query.TypeText,
	"seen":                     query.TypeBool,
	"metadata.createdDate":     query.TypeDate,
	"metadata.updatedDate":     query.TypeDate,
	"metadata.createdByUserId": query.TypeText,
	"metadata.updatedByUserId": query.TypeText,
}

// Repository defines the port for notification persistence.
// Every operation is scoped to a single tenant; implementations live in infrastructure/postgres.
type Repository interface {
	// Create stores a new notification and returns the saved entity.
	// A primary-key collision is reported as ErrDuplicateID.
	Create(ctx context.Context, tenant string, n *Notification) (*Notification, error)

	// GetByID returns the notification or a KindNotFound error.
	GetByID(ctx context.Context, tenant, id string) (*Notification, error)

	// Update replaces the stored notification with the same id and returns the rows affected.
	Update(ctx context.Context, tenant string, n *Notification) (int64, error)

	// Delete removes one notification and returns the rows affected.
	Delete(ctx context.Context, tenant, id string) (int64, error)

	// List returns one page of notifications matching filter (nil matches all) and the total count.
	List(ctx context.Context, tenant string, filter query.Expr, limit, offset int) (*NotificationPage, error)

	// DeleteWhere removes every notification matching filter and returns the rows affected.
	DeleteWhere(ctx context.Context, tenant string, filter query.Expr) (int64, error)

	// PurgeSeenBefore removes seen notifications last updated before cutoff, across all tenants.
	PurgeSeenBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
