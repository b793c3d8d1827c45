package handlers_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vn.io.arda/notify/internal/domain"
	"vn.io.arda/notify/internal/kafka/handlers"
	"vn.io.arda/notify/internal/kafka/registry"
)

type recordingExecutor struct {
	created []*domain.Notification
	notices []domain.PatronNotice
	rcs     []domain.RequestContext
	err     error
}

func (r *recordingExecutor) Create(_ context.Context, rc domain.RequestContext, n *domain.Notification) (*domain.Notification, error) {
	r.created = append(r.created, n)
	r.rcs = append(r.rcs, rc)
	if r.err != nil {
		return nil, r.err
	}
	n.ID = "22222222-2222-2222-2222-222222222222"
	return n, nil
}

func (r *recordingExecutor) CreatePatronNotice(_ context.Context, rc domain.RequestContext, notice domain.PatronNotice) error {
	r.notices = append(r.notices, notice)
	r.rcs = append(r.rcs, rc)
	return r.err
}

var base = domain.RequestContext{Token: "svc", BaseURL: "http://okapi", Lang: "en"}

func TestCreateNotificationCommand(t *testing.T) {
	exec := &recordingExecutor{}
	err := registry.Dispatch(context.Background(), exec, base, []byte(`{
		"commandType":"`+handlers.CreateNotification+`","commandId":"c-1","tenant":"diku",
		"payload":{"recipientId":"77777777-7777-7777-7777-777777777777","eventConfigName":"X","context":{"k":"v"}}}`))
	require.NoError(t, err)
	require.Len(t, exec.created, 1)
	assert.Equal(t, "X", exec.created[0].EventConfigName)
	assert.Equal(t, "v", exec.created[0].Context["k"])
	assert.Equal(t, "diku", exec.rcs[0].Tenant)
	assert.Equal(t, "c-1", exec.rcs[0].RequestID)
	assert.Equal(t, "svc", exec.rcs[0].Token)
}

func TestCreateNotificationCommand_Errors(t *testing.T) {
	exec := &recordingExecutor{err: domain.Validation("recipientId", "recipientId is required")}
	err := registry.Dispatch(context.Background(), exec, base, []byte(`{
		"commandType":"CREATE_NOTIFICATION","tenant":"diku","payload":{}}`))
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	err = registry.Dispatch(context.Background(), &recordingExecutor{}, base, []byte(`{
		"commandType":"CREATE_NOTIFICATION","tenant":"diku","payload":"oops"}`))
	assert.Error(t, err)
}

func TestPatronNoticeCommand(t *testing.T) {
	exec := &recordingExecutor{}
	err := registry.Dispatch(context.Background(), exec, base, []byte(`{
		"commandType":"PATRON_NOTICE","tenant":"diku",
		"payload":{"recipientId":"77777777-7777-7777-7777-777777777777","templateId":"t",
			"deliveryChannel":"email","outputFormat":"text/html","lang":"vi"}}`))
	require.NoError(t, err)
	require.Len(t, exec.notices, 1)
	assert.Equal(t, "t", exec.notices[0].TemplateID)
	assert.Equal(t, "vi", exec.rcs[0].Lang)
}
