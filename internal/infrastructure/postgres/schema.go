package postgres

import (
	"context"
	"fmt"
)

// schema is applied at startup. Statements are idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS notifications (
    id                 UUID        NOT NULL,
    tenant_key         TEXT        NOT NULL,
    recipient_id       UUID        NOT NULL,
    event_config_name  TEXT,
    lang               TEXT,
    context            JSONB,
    text               TEXT,
    link               TEXT,
    seen               BOOLEAN     NOT NULL DEFAULT FALSE,
    created_date       TIMESTAMPTZ NOT NULL DEFAULT now(),
    created_by_user_id TEXT,
    updated_date       TIMESTAMPTZ,
    updated_by_user_id TEXT,
    PRIMARY KEY (tenant_key, id)
);

CREATE INDEX IF NOT EXISTS idx_notifications_recipient
    ON notifications (tenant_key, recipient_id);

-- retention purge: seen records by last update
CREATE INDEX IF NOT EXISTS idx_notifications_seen_updated
    ON notifications (tenant_key, updated_date) WHERE seen;
`

// Migrate applies the notifications schema.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
