// Package registry routes Kafka commands to their handlers.
// Each command handler registers itself via init(), so the consumer does not change
// when a command type is added.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"vn.io.arda/notify/internal/domain"
)

// Executor is the part of the application service commands can drive.
type Executor interface {
	Create(ctx context.Context, rc domain.RequestContext, n *domain.Notification) (*domain.Notification, error)
	CreatePatronNotice(ctx context.Context, rc domain.RequestContext, notice domain.PatronNotice) error
}

// Envelope wraps every command on the commands topic.
type Envelope struct {
	CommandType string          `json:"commandType"`
	CommandID   string          `json:"commandId"`
	Tenant      string          `json:"tenant"`
	Payload     json.RawMessage `json:"payload"`
}

// Handler runs one decoded command.
type Handler func(ctx context.Context, svc Executor, rc domain.RequestContext, payload json.RawMessage) error

var (
	// ErrUnknownCommand is returned by Dispatch when no handler is registered for the command type.
	ErrUnknownCommand = errors.New("unknown command type")
	// ErrNoTenant is returned by Dispatch for commands without a tenant.
	ErrNoTenant = errors.New("command has no tenant")
)

var handlers = map[string]Handler{}

// Register binds a handler to a command type.
// Should be called from each handler file's init() function.
// Panics on duplicate registration to catch config mistakes early.
func Register(commandType string, h Handler) {
	if _, exists := handlers[commandType]; exists {
		panic("registry: duplicate handler registered for command: " + commandType)
	}
	handlers[commandType] = h
}

// Dispatch decodes data, derives the command's request context from base and runs the
// registered handler.
func Dispatch(ctx context.Context, svc Executor, base domain.RequestContext, data []byte) error {
	env, err := ParseEnvelope(data)
	if err != nil {
		return err
	}
	if env.Tenant == "" {
		return ErrNoTenant
	}
	h, ok := handlers[env.CommandType]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, env.CommandType)
	}

	rc := base
	rc.Tenant = env.Tenant
	if env.CommandID != "" {
		rc.RequestID = env.CommandID
	}
	return h(ctx, svc, rc, env.Payload)
}

// ParseEnvelope decodes the command envelope.
func ParseEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode command envelope: %w", err)
	}
	return &env, nil
}
