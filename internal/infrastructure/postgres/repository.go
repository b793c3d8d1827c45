package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"vn.io.arda/notify/internal/domain"
	"vn.io.arda/notify/internal/query"
)

const selectColumns = `id, recipient_id, COALESCE(event_config_name, ''), COALESCE(lang, ''), context,
	COALESCE(text, ''), COALESCE(link, ''), seen, created_date, COALESCE(created_by_user_id, ''),
	updated_date, COALESCE(updated_by_user_id, '')`

// uniqueViolation is the SQLSTATE for a unique/primary key violation.
const uniqueViolation = "23505"

// Repository is the PostgreSQL implementation of domain.Repository.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new postgres Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new notification record.
func (r *Repository) Create(ctx context.Context, tenant string, n *domain.Notification) (*domain.Notification, error) {
	contextJSON, err := marshalContext(n.Context)
	if err != nil {
		return nil, err
	}

	var createdBy string
	createdDate := time.Now().UTC()
	if n.Metadata != nil {
		createdBy = n.Metadata.CreatedByUserID
		if !n.Metadata.CreatedDate.IsZero() {
			createdDate = n.Metadata.CreatedDate
		}
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO notifications (id, tenant_key, recipient_id, event_config_name, lang, context,
			text, link, seen, created_date, created_by_user_id)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, NULLIF($7, ''), NULLIF($8, ''), $9, $10, NULLIF($11, ''))
		RETURNING `+selectColumns,
		n.ID, tenant, n.RecipientID, n.EventConfigName, n.Lang, contextJSON,
		n.Text, n.Link, n.Seen, createdDate, createdBy)

	saved, err := scanNotification(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ErrDuplicateID
		}
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	return saved, nil
}

// GetByID fetches a single notification.
func (r *Repository) GetByID(ctx context.Context, tenant, id string) (*domain.Notification, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM notifications WHERE tenant_key = $1 AND id = $2`,
		tenant, id)
	n, err := scanNotification(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("notification " + id + " not found")
		}
		return nil, err
	}
	return n, nil
}

// Update replaces the mutable fields of a notification.
func (r *Repository) Update(ctx context.Context, tenant string, n *domain.Notification) (int64, error) {
	contextJSON, err := marshalContext(n.Context)
	if err != nil {
		return 0, err
	}

	updatedDate := time.Now().UTC()
	var updatedBy string
	if n.Metadata != nil {
		updatedBy = n.Metadata.UpdatedByUserID
		if n.Metadata.UpdatedDate != nil {
			updatedDate = *n.Metadata.UpdatedDate
		}
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications SET
			recipient_id = $3,
			event_config_name = NULLIF($4, ''),
			lang = NULLIF($5, ''),
			context = $6,
			text = NULLIF($7, ''),
			link = NULLIF($8, ''),
			seen = $9,
			updated_date = $10,
			updated_by_user_id = NULLIF($11, '')
		WHERE tenant_key = $1 AND id = $2
	`, tenant, n.ID, n.RecipientID, n.EventConfigName, n.Lang, contextJSON,
		n.Text, n.Link, n.Seen, updatedDate, updatedBy)
	if err != nil {
		return 0, fmt.Errorf("update notification: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Delete removes a single notification.
func (r *Repository) Delete(ctx context.Context, tenant, id string) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM notifications WHERE tenant_key = $1 AND id = $2`, tenant, id)
	if err != nil {
		return 0, fmt.Errorf("delete notification: %w", err)
	}
	return tag.RowsAffected(), nil
}

// List fetches one page of notifications matching filter.
func (r *Repository) List(ctx context.Context, tenant string, filter query.Expr, limit, offset int) (*domain.NotificationPage, error) {
	p := &predicate{}
	where, err := p.where(tenant, filter)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE `+where, p.args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count notifications: %w", err)
	}

	q := `SELECT ` + selectColumns + ` FROM notifications WHERE ` + where +
		` ORDER BY created_date DESC, id LIMIT ` + p.bind(limit) + ` OFFSET ` + p.bind(offset)

	rows, err := r.pool.Query(ctx, q, p.args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	page := &domain.NotificationPage{Notifications: []*domain.Notification{}, TotalRecords: total}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		page.Notifications = append(page.Notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return page, nil
}

// DeleteWhere removes every notification of the tenant matching filter.
func (r *Repository) DeleteWhere(ctx context.Context, tenant string, filter query.Expr) (int64, error) {
	p := &predicate{}
	where, err := p.where(tenant, filter)
	if err != nil {
		return 0, err
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM notifications WHERE `+where, p.args...)
	if err != nil {
		return 0, fmt.Errorf("delete notifications: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PurgeSeenBefore deletes seen notifications last updated before cutoff, in every tenant.
func (r *Repository) PurgeSeenBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM notifications WHERE seen AND updated_date < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge notifications: %w", err)
	}
	return tag.RowsAffected(), nil
}

func marshalContext(c map[string]any) ([]byte, error) {
	if c == nil {
		return nil, nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal context: %w", err)
	}
	return b, nil
}

// scannable is satisfied by pgx.Row and pgx.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanNotification(row scannable) (*domain.Notification, error) {
	var (
		n           domain.Notification
		meta        domain.Metadata
		contextJSON []byte
	)
	err := row.Scan(
		&n.ID, &n.RecipientID, &n.EventConfigName, &n.Lang, &contextJSON,
		&n.Text, &n.Link, &n.Seen, &meta.CreatedDate, &meta.CreatedByUserID,
		&meta.UpdatedDate, &meta.UpdatedByUserID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan notification: %w", err)
	}
	if len(contextJSON) > 0 {
		_ = json.Unmarshal(contextJSON, &n.Context)
	}
	n.Metadata = &meta
	return &n, nil
}
