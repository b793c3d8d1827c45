package application

import (
	"context"

	"github.com/rs/zerolog/log"
	"vn.io.arda/notify/internal/domain"
	"vn.io.arda/notify/internal/metrics"
)

// dispatch sends msgs to recipientID in a single delivery request with a fresh id.
func (s *Service) dispatch(ctx context.Context, rc domain.RequestContext, recipientID string, msgs []domain.Message) error {
	req := domain.NewDeliveryRequest(recipientID, msgs)
	err := s.gateway.Deliver(ctx, rc, req)

	outcome := metrics.OutcomeDelivered
	switch {
	case err == nil:
	case domain.KindOf(err) == domain.KindBadRequest:
		outcome = metrics.OutcomeBadRequest
	default:
		outcome = metrics.OutcomeFailed
	}
	metrics.Dispatches.WithLabelValues(outcome).Inc()
	if err != nil {
		return err
	}

	log.Debug().
		Str("tenant", rc.Tenant).
		Str("delivery_id", req.NotificationID).
		Str("recipient", recipientID).
		Int("messages", len(msgs)).
		Msg("messages dispatched")
	return nil
}
