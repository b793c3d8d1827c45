package application

import (
	"context"
	"sync"
	"time"

	"vn.io.arda/notify/internal/domain"
	"vn.io.arda/notify/internal/query"
)

type fakeRepo struct {
	CreateFn          func(ctx context.Context, tenant string, n *domain.Notification) (*domain.Notification, error)
	GetByIDFn         func(ctx context.Context, tenant, id string) (*domain.Notification, error)
	UpdateFn          func(ctx context.Context, tenant string, n *domain.Notification) (int64, error)
	DeleteFn          func(ctx context.Context, tenant, id string) (int64, error)
	ListFn            func(ctx context.Context, tenant string, filter query.Expr, limit, offset int) (*domain.NotificationPage, error)
	DeleteWhereFn     func(ctx context.Context, tenant string, filter query.Expr) (int64, error)
	PurgeSeenBeforeFn func(ctx context.Context, cutoff time.Time) (int64, error)
}

func (f *fakeRepo) Create(ctx context.Context, tenant string, n *domain.Notification) (*domain.Notification, error) {
	if f.CreateFn == nil {
		return n, nil
	}
	return f.CreateFn(ctx, tenant, n)
}

func (f *fakeRepo) GetByID(ctx context.Context, tenant, id string) (*domain.Notification, error) {
	return f.GetByIDFn(ctx, tenant, id)
}

func (f *fakeRepo) Update(ctx context.Context, tenant string, n *domain.Notification) (int64, error) {
	return f.UpdateFn(ctx, tenant, n)
}

func (f *fakeRepo) Delete(ctx context.Context, tenant, id string) (int64, error) {
	return f.DeleteFn(ctx, tenant, id)
}

func (f *fakeRepo) List(ctx context.Context, tenant string, filter query.Expr, limit, offset int) (*domain.NotificationPage, error) {
	return f.ListFn(ctx, tenant, filter, limit, offset)
}

func (f *fakeRepo) DeleteWhere(ctx context.Context, tenant string, filter query.Expr) (int64, error) {
	if f.DeleteWhereFn == nil {
		return 0, nil
	}
	return f.DeleteWhereFn(ctx, tenant, filter)
}

func (f *fakeRepo) PurgeSeenBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return f.PurgeSeenBeforeFn(ctx, cutoff)
}

type fakeGateway struct {
	ResolveFn  func(ctx context.Context, rc domain.RequestContext, name string) (*domain.EventConfig, error)
	RenderFn   func(ctx context.Context, rc domain.RequestContext, req domain.RenderRequest) (*domain.RenderResult, error)
	DeliverFn  func(ctx context.Context, rc domain.RequestContext, req domain.DeliveryRequest) error
	UsernameFn func(ctx context.Context, rc domain.RequestContext, username string) (string, error)

	mu        sync.Mutex
	delivered []domain.DeliveryRequest
}

func (f *fakeGateway) ResolveEventConfig(ctx context.Context, rc domain.RequestContext, name string) (*domain.EventConfig, error) {
	return f.ResolveFn(ctx, rc, name)
}

func (f *fakeGateway) Render(ctx context.Context, rc domain.RequestContext, req domain.RenderRequest) (*domain.RenderResult, error) {
	return f.RenderFn(ctx, rc, req)
}

func (f *fakeGateway) Deliver(ctx context.Context, rc domain.RequestContext, req domain.DeliveryRequest) error {
	f.mu.Lock()
	f.delivered = append(f.delivered, req)
	f.mu.Unlock()
	if f.DeliverFn == nil {
		return nil
	}
	return f.DeliverFn(ctx, rc, req)
}

func (f *fakeGateway) UserIDByUsername(ctx context.Context, rc domain.RequestContext, username string) (string, error) {
	return f.UsernameFn(ctx, rc, username)
}

func (f *fakeGateway) deliveries() []domain.DeliveryRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.DeliveryRequest(nil), f.delivered...)
}

type fakeHub struct {
	mu    sync.Mutex
	calls int
	done  chan struct{}
}

func (h *fakeHub) Broadcast(_, _ string, _ *domain.Notification) {
	h.mu.Lock()
	h.calls++
	h.mu.Unlock()
	if h.done != nil {
		h.done <- struct{}{}
	}
}
