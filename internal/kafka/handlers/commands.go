// Package handlers holds the Kafka command handlers. Importing it registers them.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"vn.io.arda/notify/internal/domain"
	"vn.io.arda/notify/internal/kafka/registry"
)

// Command types accepted on the commands topic.
const (
	CreateNotification = "CREATE_NOTIFICATION"
	PatronNotice       = "PATRON_NOTICE"
)

func init() {
	registry.Register(CreateNotification, handleCreateNotification)
	registry.Register(PatronNotice, handlePatronNotice)
}

func handleCreateNotification(ctx context.Context, svc registry.Executor, rc domain.RequestContext, payload json.RawMessage) error {
	var n domain.Notification
	if err := json.Unmarshal(payload, &n); err != nil {
		return fmt.Errorf("decode %s payload: %w", CreateNotification, err)
	}
	saved, err := svc.Create(ctx, rc, &n)
	if err != nil {
		return err
	}
	log.Info().Str("tenant", rc.Tenant).Str("id", saved.ID).Str("command_id", rc.RequestID).
		Msg("notification created from command")
	return nil
}

func handlePatronNotice(ctx context.Context, svc registry.Executor, rc domain.RequestContext, payload json.RawMessage) error {
	var notice domain.PatronNotice
	if err := json.Unmarshal(payload, &notice); err != nil {
		return fmt.Errorf("decode %s payload: %w", PatronNotice, err)
	}
	if notice.Lang != "" {
		rc.Lang = notice.Lang
	}
	return svc.CreatePatronNotice(ctx, rc, notice)
}
