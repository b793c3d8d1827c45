package application

import (
	"context"
	"errors"
	"time"

	"vn.io.arda/notify/internal/domain"
	"vn.io.arda/notify/internal/messages"
	"vn.io.arda/notify/internal/query"
)

// List returns one page of the tenant's notifications matching in.Query.
func (s *Service) List(ctx context.Context, rc domain.RequestContext, in ListInput) (*domain.NotificationPage, error) {
	filter, err := query.Parse(in.Query, domain.NotificationFields)
	if err != nil {
		return nil, filterError(rc.Lang, err)
	}
	return s.list(ctx, rc, filter, in)
}

// ListSelf is List restricted to notifications addressed to the caller.
func (s *Service) ListSelf(ctx context.Context, rc domain.RequestContext, in ListInput) (*domain.NotificationPage, error) {
	if !rc.HasIdentity() {
		return nil, domain.Validation("userId", messages.Get(rc.Lang, messages.NoIdentity))
	}
	if !domain.IsValidUUID(rc.UserID) {
		return nil, domain.Validation("userId", messages.Get(rc.Lang, messages.InvalidUUID, rc.UserID))
	}
	filter, err := query.Parse(in.Query, domain.NotificationFields)
	if err != nil {
		return nil, filterError(rc.Lang, err)
	}
	return s.list(ctx, rc, query.AllOf(recipientIs(rc.UserID), filter), in)
}

func (s *Service) list(ctx context.Context, rc domain.RequestContext, filter query.Expr, in ListInput) (*domain.NotificationPage, error) {
	in = in.normalized()
	page, err := s.repo.List(ctx, rc.Tenant, filter, in.Limit, in.Offset)
	if err != nil {
		var fe *query.FieldError
		if errors.As(err, &fe) {
			return nil, filterError(rc.Lang, err)
		}
		return nil, domain.Server("list notifications", err)
	}
	return page, nil
}

// Get returns one notification.
func (s *Service) Get(ctx context.Context, rc domain.RequestContext, id string) (*domain.Notification, error) {
	if !domain.IsValidUUID(id) {
		return nil, domain.Validation("id", messages.Get(rc.Lang, messages.InvalidUUID, id))
	}
	n, err := s.repo.GetByID(ctx, rc.Tenant, id)
	if err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			return nil, domain.NotFound(messages.Get(rc.Lang, messages.NotificationAbsent, id))
		}
		return nil, domain.Server("get notification", err)
	}
	return n, nil
}

// Update replaces the notification stored under id. After a successful update the caller's
// expired seen notifications are purged; the purge outcome never changes the result.
func (s *Service) Update(ctx context.Context, rc domain.RequestContext, id string, n *domain.Notification) error {
	if !domain.IsValidUUID(id) {
		return domain.Validation("id", messages.Get(rc.Lang, messages.InvalidUUID, id))
	}
	if n.ID != "" && n.ID != id {
		return domain.Validation("id", messages.Get(rc.Lang, messages.CannotChangeID))
	}
	if n.RecipientID == "" {
		return domain.Validation("recipientId", messages.Get(rc.Lang, messages.RecipientRequired))
	}
	if !domain.IsValidUUID(n.RecipientID) {
		return domain.Validation("recipientId", messages.Get(rc.Lang, messages.InvalidUUID, n.RecipientID))
	}
	n.ID = id
	updated := s.now()
	n.Metadata = &domain.Metadata{UpdatedDate: &updated, UpdatedByUserID: rc.UserID}

	rows, err := s.repo.Update(ctx, rc.Tenant, n)
	if err != nil {
		return domain.Server("update notification", err)
	}
	if rows == 0 {
		return domain.NotFound(messages.Get(rc.Lang, messages.NotificationAbsent, id))
	}

	s.purgeOld(ctx, rc)
	return nil
}

// Delete removes one notification. Deleting an id that is already gone is NotFound.
func (s *Service) Delete(ctx context.Context, rc domain.RequestContext, id string) error {
	if !domain.IsValidUUID(id) {
		return domain.Validation("id", messages.Get(rc.Lang, messages.InvalidUUID, id))
	}
	rows, err := s.repo.Delete(ctx, rc.Tenant, id)
	if err != nil {
		return domain.Server("delete notification", err)
	}
	if rows == 0 {
		return domain.NotFound(messages.Get(rc.Lang, messages.NotificationAbsent, id))
	}
	return nil
}

// DeleteSelf removes the caller's seen notifications, optionally only those last updated
// before olderThan.
func (s *Service) DeleteSelf(ctx context.Context, rc domain.RequestContext, olderThan *time.Time) (int64, error) {
	if !rc.HasIdentity() {
		return 0, domain.BadRequest(messages.Get(rc.Lang, messages.NoUserID))
	}
	if !domain.IsValidUUID(rc.UserID) {
		return 0, domain.BadRequest(messages.Get(rc.Lang, messages.InvalidUUID, rc.UserID))
	}
	filter := query.AllOf(recipientIs(rc.UserID), seenOnly())
	if olderThan != nil {
		filter = query.AllOf(filter, updatedBefore(*olderThan))
	}
	rows, err := s.repo.DeleteWhere(ctx, rc.Tenant, filter)
	if err != nil {
		return 0, domain.Server("delete own notifications", err)
	}
	if rows == 0 {
		return 0, domain.NotFound(messages.Get(rc.Lang, messages.NothingToDelete))
	}
	return rows, nil
}

func recipientIs(userID string) query.Expr {
	return query.Cmp("recipientId", query.TypeUUID, query.OpExact, userID)
}

func seenOnly() query.Expr {
	return query.Cmp("seen", query.TypeBool, query.OpExact, "true")
}

func updatedBefore(t time.Time) query.Expr {
	return query.Cmp("metadata.updatedDate", query.TypeDate, query.OpLT, t.UTC().Format(time.RFC3339Nano))
}

// filterError maps a parse failure to a ValidationError naming the field when there is one.
func filterError(lang string, err error) error {
	var fe *query.FieldError
	if errors.As(err, &fe) {
		return domain.Validation(fe.Field, messages.Get(lang, messages.InvalidQuery, fe.Error()))
	}
	return domain.BadRequest(messages.Get(lang, messages.InvalidQuery, err.Error()))
}
