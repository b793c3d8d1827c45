package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"vn.io.arda/notify/internal/domain"
	"vn.io.arda/notify/internal/messages"
	"vn.io.arda/notify/internal/metrics"
)

// DefaultRetention is how long seen notifications are kept after their last update.
const DefaultRetention = 365 * 24 * time.Hour

// Service holds all notification use-cases.
type Service struct {
	repo      domain.Repository
	gateway   Gateway
	hub       SSEHub
	retention time.Duration
	now       func() time.Time
}

// NewService creates a new application Service. hub may be nil; a non-positive retention
// falls back to DefaultRetention.
func NewService(repo domain.Repository, gateway Gateway, hub SSEHub, retention time.Duration) *Service {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Service{
		repo:      repo,
		gateway:   gateway,
		hub:       hub,
		retention: retention,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create validates and stores n. When n names an event configuration, the configuration is
// resolved, its templates rendered and the messages dispatched to the recipient. The stored
// record is kept even if a later step fails.
func (s *Service) Create(ctx context.Context, rc domain.RequestContext, n *domain.Notification) (*domain.Notification, error) {
	if n.RecipientID == "" {
		return nil, domain.Validation("recipientId", messages.Get(rc.Lang, messages.RecipientRequired))
	}
	if !domain.IsValidUUID(n.RecipientID) {
		return nil, domain.Validation("recipientId", messages.Get(rc.Lang, messages.InvalidUUID, n.RecipientID))
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if !domain.IsValidUUID(n.ID) {
		return nil, domain.Validation("id", messages.Get(rc.Lang, messages.InvalidUUID, n.ID))
	}
	n.Metadata = &domain.Metadata{CreatedDate: s.now(), CreatedByUserID: rc.UserID}

	saved, err := s.repo.Create(ctx, rc.Tenant, n)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateID) {
			return nil, domain.Validation("id", messages.Get(rc.Lang, messages.DuplicateID))
		}
		return nil, domain.Server("store notification", err)
	}
	metrics.NotificationsCreated.WithLabelValues(rc.Tenant).Inc()

	if s.hub != nil {
		// Non-blocking SSE broadcast
		go s.hub.Broadcast(rc.Tenant, saved.RecipientID, saved)
	}

	log.Info().
		Str("id", saved.ID).
		Str("tenant", rc.Tenant).
		Str("recipient", saved.RecipientID).
		Str("event_config", saved.EventConfigName).
		Msg("notification created")

	if saved.EventConfigName == "" {
		return saved, nil
	}
	if err := s.notify(ctx, rc, saved); err != nil {
		return nil, err
	}
	return saved, nil
}

// notify runs resolve, render and dispatch in order, stopping at the first failure.
func (s *Service) notify(ctx context.Context, rc domain.RequestContext, n *domain.Notification) error {
	cfg, err := s.gateway.ResolveEventConfig(ctx, rc, n.EventConfigName)
	if err != nil {
		return remoteFailure("resolve event config", err)
	}

	lang := n.Lang
	if lang == "" {
		lang = rc.Lang
	}
	msgs, err := s.renderAll(ctx, rc, cfg.Templates, lang, n.Context)
	if err != nil {
		return remoteFailure("render templates", err)
	}

	if err := s.dispatch(ctx, rc, n.RecipientID, msgs); err != nil {
		return remoteFailure("dispatch messages", err)
	}
	return nil
}

// CreateByUsername resolves username to a recipient id and then behaves like Create.
func (s *Service) CreateByUsername(ctx context.Context, rc domain.RequestContext, username string, n *domain.Notification) (*domain.Notification, error) {
	id, err := s.gateway.UserIDByUsername(ctx, rc, username)
	if err != nil {
		return nil, remoteFailure("resolve username", err)
	}
	n.RecipientID = id
	return s.Create(ctx, rc, n)
}

// CreatePatronNotice renders one template and dispatches it without storing anything.
// A collaborator rejecting the request is reported as a validation failure.
func (s *Service) CreatePatronNotice(ctx context.Context, rc domain.RequestContext, notice domain.PatronNotice) error {
	if notice.RecipientID == "" {
		return domain.Validation("recipientId", messages.Get(rc.Lang, messages.RecipientRequired))
	}
	if notice.TemplateID == "" {
		return domain.Validation("templateId", messages.Get(rc.Lang, messages.TemplateRequired))
	}
	lang := notice.Lang
	if lang == "" {
		lang = rc.Lang
	}

	msgs, err := s.renderAll(ctx, rc, []domain.TemplateBinding{notice.Binding()}, lang, notice.Context)
	if err != nil {
		return noticeFailure("render patron notice", err)
	}
	if err := s.dispatch(ctx, rc, notice.RecipientID, msgs); err != nil {
		return noticeFailure("dispatch patron notice", err)
	}
	return nil
}

// remoteFailure keeps a collaborator's BadRequest and turns everything else into a server error.
func remoteFailure(step string, err error) error {
	if domain.KindOf(err) == domain.KindBadRequest {
		return err
	}
	return domain.Server(step, err)
}

func noticeFailure(step string, err error) error {
	if domain.KindOf(err) == domain.KindBadRequest {
		return domain.Validation("", domain.AsError(err).Message)
	}
	return domain.Server(step, err)
}
