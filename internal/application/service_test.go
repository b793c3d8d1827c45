package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vn.io.arda/notify/internal/domain"
)

const (
	recipient = "77777777-7777-7777-7777-777777777777"
	caller    = "11111111-1111-1111-1111-111111111111"
)

var rc = domain.RequestContext{Tenant: "diku", UserID: caller, Token: "tok", RequestID: "r1", Lang: "en"}

func newTestService(repo *fakeRepo, gw *fakeGateway) *Service {
	s := NewService(repo, gw, nil, 0)
	s.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func twoBindings() *domain.EventConfig {
	return &domain.EventConfig{Name: "X", Templates: []domain.TemplateBinding{
		{TemplateID: "t1", DeliveryChannel: "email", OutputFormat: "text/html"},
		{TemplateID: "t2", DeliveryChannel: "sms", OutputFormat: "text/plain"},
	}}
}

func TestCreate_GeneratesID(t *testing.T) {
	var stored *domain.Notification
	repo := &fakeRepo{CreateFn: func(_ context.Context, tenant string, n *domain.Notification) (*domain.Notification, error) {
		assert.Equal(t, "diku", tenant)
		stored = n
		return n, nil
	}}
	s := newTestService(repo, &fakeGateway{})

	n, err := s.Create(context.Background(), rc, &domain.Notification{RecipientID: recipient, Text: "hi"})
	require.NoError(t, err)
	assert.True(t, domain.IsValidUUID(n.ID))
	assert.Same(t, stored, n)
	require.NotNil(t, n.Metadata)
	assert.Equal(t, caller, n.Metadata.CreatedByUserID)
}

func TestCreate_KeepsGivenID(t *testing.T) {
	s := newTestService(&fakeRepo{}, &fakeGateway{})
	id := "22222222-2222-2222-2222-222222222222"
	n, err := s.Create(context.Background(), rc, &domain.Notification{ID: id, RecipientID: recipient})
	require.NoError(t, err)
	assert.Equal(t, id, n.ID)
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name  string
		in    domain.Notification
		field string
	}{
		{"missing recipient", domain.Notification{}, "recipientId"},
		{"malformed recipient", domain.Notification{RecipientID: "bob"}, "recipientId"},
		{"malformed id", domain.Notification{ID: "1234", RecipientID: recipient}, "id"},
		{"unhyphenated id", domain.Notification{ID: "22222222222222222222222222222222", RecipientID: recipient}, "id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepo{CreateFn: func(context.Context, string, *domain.Notification) (*domain.Notification, error) {
				t.Fatal("store must not be called")
				return nil, nil
			}}
			s := newTestService(repo, &fakeGateway{})
			in := tt.in
			_, err := s.Create(context.Background(), rc, &in)
			require.Error(t, err)
			de := domain.AsError(err)
			assert.Equal(t, domain.KindValidation, de.Kind)
			assert.Equal(t, tt.field, de.Field)
		})
	}
}

func TestCreate_StoreFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind domain.Kind
	}{
		{"duplicate id", fmt.Errorf("wrapped: %w", domain.ErrDuplicateID), domain.KindValidation},
		{"connection lost", errors.New("conn reset"), domain.KindServer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepo{CreateFn: func(context.Context, string, *domain.Notification) (*domain.Notification, error) {
				return nil, tt.err
			}}
			s := newTestService(repo, &fakeGateway{})
			_, err := s.Create(context.Background(), rc, &domain.Notification{RecipientID: recipient})
			assert.Equal(t, tt.kind, domain.KindOf(err))
		})
	}
}

func TestCreate_WithoutEventConfigSkipsRemoteCalls(t *testing.T) {
	gw := &fakeGateway{} // nil funcs panic if called
	s := newTestService(&fakeRepo{}, gw)
	_, err := s.Create(context.Background(), rc, &domain.Notification{RecipientID: recipient})
	require.NoError(t, err)
	assert.Empty(t, gw.deliveries())
}

func TestCreate_DispatchesMessagesInBindingOrder(t *testing.T) {
	gw := &fakeGateway{
		ResolveFn: func(_ context.Context, _ domain.RequestContext, name string) (*domain.EventConfig, error) {
			assert.Equal(t, "X", name)
			return twoBindings(), nil
		},
		RenderFn: func(_ context.Context, _ domain.RequestContext, req domain.RenderRequest) (*domain.RenderResult, error) {
			assert.Equal(t, "vi", req.Lang)
			assert.Equal(t, "Alice", req.Context["name"])
			if req.TemplateID == "t1" {
				// finish last so ordering cannot come from completion order
				time.Sleep(20 * time.Millisecond)
			}
			return &domain.RenderResult{Header: "H-" + req.TemplateID, Body: "B-" + req.TemplateID, OutputFormat: "ignored"}, nil
		},
	}
	id := "33333333-3333-3333-3333-333333333333"
	s := newTestService(&fakeRepo{}, gw)

	_, err := s.Create(context.Background(), rc, &domain.Notification{
		ID: id, RecipientID: recipient, EventConfigName: "X", Lang: "vi",
		Context: map[string]any{"name": "Alice"},
	})
	require.NoError(t, err)

	sent := gw.deliveries()
	require.Len(t, sent, 1)
	req := sent[0]
	assert.Equal(t, recipient, req.RecipientUserID)
	assert.True(t, domain.IsValidUUID(req.NotificationID))
	assert.NotEqual(t, id, req.NotificationID)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, domain.Message{DeliveryChannel: "email", Header: "H-t1", Body: "B-t1", OutputFormat: "text/html"}, req.Messages[0])
	assert.Equal(t, domain.Message{DeliveryChannel: "sms", Header: "H-t2", Body: "B-t2", OutputFormat: "text/plain"}, req.Messages[1])
}

func TestCreate_RenderFailureNeverDispatches(t *testing.T) {
	stored := false
	repo := &fakeRepo{CreateFn: func(_ context.Context, _ string, n *domain.Notification) (*domain.Notification, error) {
		stored = true
		return n, nil
	}}
	gw := &fakeGateway{
		ResolveFn: func(context.Context, domain.RequestContext, string) (*domain.EventConfig, error) {
			return twoBindings(), nil
		},
		RenderFn: func(_ context.Context, _ domain.RequestContext, req domain.RenderRequest) (*domain.RenderResult, error) {
			if req.TemplateID == "t2" {
				return nil, domain.BadRequest("Template t2 is not active")
			}
			return &domain.RenderResult{Body: "ok"}, nil
		},
	}
	s := newTestService(repo, gw)

	_, err := s.Create(context.Background(), rc, &domain.Notification{RecipientID: recipient, EventConfigName: "X"})
	require.Error(t, err)
	de := domain.AsError(err)
	assert.Equal(t, domain.KindBadRequest, de.Kind)
	assert.Equal(t, "Template t2 is not active", de.Message)
	assert.Empty(t, gw.deliveries())
	assert.True(t, stored, "record is stored before rendering and not rolled back")
}

func TestCreate_RemoteErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		resolveErr error
		renderErr  error
		deliverErr error
		kind       domain.Kind
	}{
		{"resolve bad request", domain.BadRequest("Cannot fetch event config"), nil, nil, domain.KindBadRequest},
		{"resolve ambiguous", domain.NotFound("ambiguous"), nil, nil, domain.KindServer},
		{"resolve transport", domain.Server("GET", errors.New("refused")), nil, nil, domain.KindServer},
		{"render server", nil, domain.Server("status 500", nil), nil, domain.KindServer},
		{"deliver bad request", nil, nil, domain.BadRequest("bad channel"), domain.KindBadRequest},
		{"deliver server", nil, nil, errors.New("timeout"), domain.KindServer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{
				ResolveFn: func(context.Context, domain.RequestContext, string) (*domain.EventConfig, error) {
					if tt.resolveErr != nil {
						return nil, tt.resolveErr
					}
					return twoBindings(), nil
				},
				RenderFn: func(context.Context, domain.RequestContext, domain.RenderRequest) (*domain.RenderResult, error) {
					if tt.renderErr != nil {
						return nil, tt.renderErr
					}
					return &domain.RenderResult{}, nil
				},
				DeliverFn: func(context.Context, domain.RequestContext, domain.DeliveryRequest) error {
					return tt.deliverErr
				},
			}
			s := newTestService(&fakeRepo{}, gw)
			_, err := s.Create(context.Background(), rc, &domain.Notification{RecipientID: recipient, EventConfigName: "X"})
			require.Error(t, err)
			assert.Equal(t, tt.kind, domain.KindOf(err))
		})
	}
}

func TestCreate_BroadcastsToHub(t *testing.T) {
	hub := &fakeHub{done: make(chan struct{}, 1)}
	s := NewService(&fakeRepo{}, &fakeGateway{}, hub, 0)
	_, err := s.Create(context.Background(), rc, &domain.Notification{RecipientID: recipient})
	require.NoError(t, err)
	select {
	case <-hub.done:
	case <-time.After(time.Second):
		t.Fatal("broadcast not called")
	}
}

func TestCreateByUsername(t *testing.T) {
	gw := &fakeGateway{UsernameFn: func(_ context.Context, _ domain.RequestContext, username string) (string, error) {
		assert.Equal(t, "jdoe", username)
		return recipient, nil
	}}
	s := newTestService(&fakeRepo{}, gw)
	n, err := s.CreateByUsername(context.Background(), rc, "jdoe", &domain.Notification{Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, recipient, n.RecipientID)
}

func TestCreateByUsername_NoUser(t *testing.T) {
	gw := &fakeGateway{UsernameFn: func(context.Context, domain.RequestContext, string) (string, error) {
		return "", domain.BadRequest("No user found by username jdoe")
	}}
	repo := &fakeRepo{CreateFn: func(context.Context, string, *domain.Notification) (*domain.Notification, error) {
		t.Fatal("store must not be called")
		return nil, nil
	}}
	s := newTestService(repo, gw)
	_, err := s.CreateByUsername(context.Background(), rc, "jdoe", &domain.Notification{})
	assert.Equal(t, domain.KindBadRequest, domain.KindOf(err))
}

func TestCreatePatronNotice(t *testing.T) {
	gw := &fakeGateway{RenderFn: func(_ context.Context, _ domain.RequestContext, req domain.RenderRequest) (*domain.RenderResult, error) {
		assert.Equal(t, "tpl", req.TemplateID)
		assert.Equal(t, "en", req.Lang)
		return &domain.RenderResult{Header: "h", Body: "b", Attachments: []domain.Attachment{{Name: "a"}}}, nil
	}}
	s := newTestService(&fakeRepo{CreateFn: func(context.Context, string, *domain.Notification) (*domain.Notification, error) {
		t.Fatal("patron notices are not stored")
		return nil, nil
	}}, gw)

	err := s.CreatePatronNotice(context.Background(), rc, domain.PatronNotice{
		RecipientID: recipient, TemplateID: "tpl", DeliveryChannel: "email", OutputFormat: "text/html",
	})
	require.NoError(t, err)

	sent := gw.deliveries()
	require.Len(t, sent, 1)
	require.Len(t, sent[0].Messages, 1)
	assert.Equal(t, "email", sent[0].Messages[0].DeliveryChannel)
	assert.Equal(t, "text/html", sent[0].Messages[0].OutputFormat)
	assert.Len(t, sent[0].Messages[0].Attachments, 1)
}

func TestCreatePatronNotice_Failures(t *testing.T) {
	notice := domain.PatronNotice{RecipientID: recipient, TemplateID: "tpl", DeliveryChannel: "email", OutputFormat: "text/plain"}
	tests := []struct {
		name       string
		notice     domain.PatronNotice
		renderErr  error
		deliverErr error
		kind       domain.Kind
		delivered  int
	}{
		{"missing recipient", domain.PatronNotice{TemplateID: "tpl"}, nil, nil, domain.KindValidation, 0},
		{"missing template", domain.PatronNotice{RecipientID: recipient}, nil, nil, domain.KindValidation, 0},
		{"render rejected", notice, domain.BadRequest("no such template"), nil, domain.KindValidation, 0},
		{"render failed", notice, errors.New("boom"), nil, domain.KindServer, 0},
		{"delivery rejected", notice, nil, domain.BadRequest("bad channel"), domain.KindValidation, 1},
		{"delivery failed", notice, nil, domain.Server("status 502", nil), domain.KindServer, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{
				RenderFn: func(context.Context, domain.RequestContext, domain.RenderRequest) (*domain.RenderResult, error) {
					if tt.renderErr != nil {
						return nil, tt.renderErr
					}
					return &domain.RenderResult{}, nil
				},
				DeliverFn: func(context.Context, domain.RequestContext, domain.DeliveryRequest) error { return tt.deliverErr },
			}
			s := newTestService(&fakeRepo{}, gw)
			err := s.CreatePatronNotice(context.Background(), rc, tt.notice)
			require.Error(t, err)
			assert.Equal(t, tt.kind, domain.KindOf(err))
			assert.Len(t, gw.deliveries(), tt.delivered)
		})
	}
}
