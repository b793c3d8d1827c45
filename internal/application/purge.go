package application

import (
	"context"

	"github.com/rs/zerolog/log"
	"vn.io.arda/notify/internal/domain"
	"vn.io.arda/notify/internal/metrics"
	"vn.io.arda/notify/internal/query"
)

// purgeOld deletes the caller's seen notifications older than the retention window.
// Failures are logged and swallowed.
func (s *Service) purgeOld(ctx context.Context, rc domain.RequestContext) {
	if !rc.HasIdentity() || !domain.IsValidUUID(rc.UserID) {
		log.Debug().Str("tenant", rc.Tenant).Msg("retention purge skipped: no caller identity")
		return
	}
	cutoff := s.now().Add(-s.retention)
	filter := query.AllOf(recipientIs(rc.UserID), seenOnly(), updatedBefore(cutoff))

	count, err := s.repo.DeleteWhere(ctx, rc.Tenant, filter)
	if err != nil {
		log.Warn().Err(err).
			Str("tenant", rc.Tenant).
			Str("user", rc.UserID).
			Msg("notification retention purge failed")
		return
	}
	metrics.Purged.Add(float64(count))
	if count > 0 {
		log.Info().Int64("deleted", count).Str("tenant", rc.Tenant).Str("user", rc.UserID).
			Msg("notification retention purge completed")
	}
}

// PurgeTTL deletes expired seen notifications in every tenant. Called by a background scheduler.
func (s *Service) PurgeTTL(ctx context.Context) {
	cutoff := s.now().Add(-s.retention)
	count, err := s.repo.PurgeSeenBefore(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("notification TTL purge failed")
		return
	}
	metrics.Purged.Add(float64(count))
	log.Info().Int64("deleted", count).Time("cutoff", cutoff).Msg("notification TTL purge completed")
}
