package okapi_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vn.io.arda/notify/internal/domain"
	"vn.io.arda/notify/internal/infrastructure/okapi"
)

const userID = "77777777-7777-7777-7777-777777777777"

func newServer(t *testing.T, h http.HandlerFunc) (*okapi.Client, domain.RequestContext) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	rc := domain.RequestContext{Tenant: "diku", Token: "tok", RequestID: "req-1", BaseURL: srv.URL}
	return okapi.New("http://unused.invalid", 2*time.Second), rc
}

type memCache struct {
	mu   sync.Mutex
	data map[string]*domain.EventConfig
}

func (m *memCache) Get(_ context.Context, tenant, name string) (*domain.EventConfig, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.data[tenant+":"+name]
	return cfg, ok
}

func (m *memCache) Set(_ context.Context, tenant string, cfg *domain.EventConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[tenant+":"+cfg.Name] = cfg
}

func TestResolveEventConfig(t *testing.T) {
	var gotQuery, gotTenant, gotToken string
	client, rc := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/eventConfig", r.URL.Path)
		gotQuery = r.URL.Query().Get("query")
		gotTenant = r.Header.Get(okapi.HeaderTenant)
		gotToken = r.Header.Get(okapi.HeaderToken)
		_, _ = io.WriteString(w, `{"eventEntity":[{"name":"RESET_PASSWORD","templates":[
			{"templateId":"t1","deliveryChannel":"email","outputFormat":"text/html"}]}],"totalRecords":1}`)
	})

	cfg, err := client.ResolveEventConfig(context.Background(), rc, `RESET "PASSWORD"*`)
	require.NoError(t, err)
	assert.Equal(t, `name=="RESET \"PASSWORD\"\*"`, gotQuery)
	assert.Equal(t, "diku", gotTenant)
	assert.Equal(t, "tok", gotToken)
	require.Len(t, cfg.Templates, 1)
	assert.Equal(t, "t1", cfg.Templates[0].TemplateID)
}

func TestResolveEventConfig_Cardinality(t *testing.T) {
	tests := []struct {
		name string
		body string
		kind domain.Kind
	}{
		{"empty result", `{"eventEntity":[],"totalRecords":0}`, domain.KindBadRequest},
		{"ambiguous", `{"eventEntity":[{"name":"X"},{"name":"X"}],"totalRecords":2}`, domain.KindNotFound},
		{"malformed", `{`, domain.KindServer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, rc := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := client.ResolveEventConfig(context.Background(), rc, "X")
			require.Error(t, err)
			assert.Equal(t, tt.kind, domain.KindOf(err))
		})
	}
}

func TestResolveEventConfig_ItemsShape(t *testing.T) {
	client, rc := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"items":[{"name":"X","templates":[]}],"totalRecords":1}`)
	})
	cfg, err := client.ResolveEventConfig(context.Background(), rc, "X")
	require.NoError(t, err)
	assert.Equal(t, "X", cfg.Name)
}

func TestResolveEventConfig_UsesCache(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		_, _ = io.WriteString(w, `{"eventEntity":[{"name":"X","templates":[]}],"totalRecords":1}`)
	}))
	defer srv.Close()

	cache := &memCache{data: map[string]*domain.EventConfig{}}
	client := okapi.New(srv.URL, time.Second, okapi.WithEventConfigCache(cache))
	rc := domain.RequestContext{Tenant: "diku"}

	for i := 0; i < 3; i++ {
		_, err := client.ResolveEventConfig(context.Background(), rc, "X")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, calls)
}

func TestRender(t *testing.T) {
	client, rc := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/template-request", r.URL.Path)
		var req domain.RenderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "t1", req.TemplateID)
		assert.Equal(t, "en", req.Lang)
		_, _ = io.WriteString(w, `{"result":{"header":"Hi","body":"Body","attachments":[{"name":"a.pdf"}]},
			"meta":{"outputFormat":"text/plain"}}`)
	})

	res, err := client.Render(context.Background(), rc, domain.RenderRequest{TemplateID: "t1", OutputFormat: "text/html", Lang: "en"})
	require.NoError(t, err)
	assert.Equal(t, "Hi", res.Header)
	assert.Equal(t, "Body", res.Body)
	assert.Equal(t, "text/plain", res.OutputFormat)
	require.Len(t, res.Attachments, 1)
}

func TestStatusClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    domain.Kind
		message string
	}{
		{"bad request keeps body", http.StatusBadRequest, "Template not found", domain.KindBadRequest, "Template not found"},
		{"empty 4xx body", http.StatusUnprocessableEntity, "", domain.KindBadRequest, "Unprocessable Entity"},
		{"server error", http.StatusInternalServerError, "boom", domain.KindServer, ""},
		{"redirect", http.StatusMultipleChoices, "", domain.KindServer, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, rc := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			err := client.Deliver(context.Background(), rc, domain.NewDeliveryRequest(userID, nil))
			require.Error(t, err)
			assert.Equal(t, tt.kind, domain.KindOf(err))
			if tt.message != "" {
				assert.Equal(t, tt.message, domain.AsError(err).Message)
			}
		})
	}
}

func TestDeliver_NoContent(t *testing.T) {
	var got domain.DeliveryRequest
	client, rc := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/message-delivery", r.URL.Path)
		assert.Equal(t, "text/plain", r.Header.Get("Accept"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	})

	req := domain.NewDeliveryRequest(userID, []domain.Message{{DeliveryChannel: "email", Body: "b"}})
	require.NoError(t, client.Deliver(context.Background(), rc, req))
	assert.Equal(t, req.NotificationID, got.NotificationID)
	assert.Equal(t, userID, got.RecipientUserID)
	require.Len(t, got.Messages, 1)
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := okapi.New(url, time.Second)
	_, err := client.Render(context.Background(), domain.RequestContext{Tenant: "diku"}, domain.RenderRequest{TemplateID: "t"})
	require.Error(t, err)
	assert.Equal(t, domain.KindServer, domain.KindOf(err))
}

func TestBaseURLFallback(t *testing.T) {
	hit := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
		assert.NotEmpty(t, r.Header.Get(okapi.HeaderURL))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := okapi.New(srv.URL+"/", time.Second)
	require.NoError(t, client.Deliver(context.Background(), domain.RequestContext{Tenant: "diku"}, domain.NewDeliveryRequest(userID, nil)))
	assert.True(t, hit)
}

func TestUserIDByUsername(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
		kind   domain.Kind
	}{
		{"single match", 200, `{"users":[{"id":"` + userID + `","username":"jdoe"}],"totalRecords":1}`, userID, ""},
		{"first match wins", 200, `{"users":[{"id":"` + userID + `"},{"id":"88888888-8888-8888-8888-888888888888"}],"totalRecords":2}`, userID, ""},
		{"no users", 200, `{"users":[],"totalRecords":0}`, "", domain.KindBadRequest},
		{"missing users field", 200, `{"totalRecords":0}`, "", domain.KindBadRequest},
		{"users not an array", 200, `{"users":{"id":"x"}}`, "", domain.KindBadRequest},
		{"missing id", 200, `{"users":[{"username":"jdoe"}]}`, "", domain.KindBadRequest},
		{"malformed id", 200, `{"users":[{"id":"not-a-uuid"}]}`, "", domain.KindBadRequest},
		{"forbidden", 403, `access denied`, "", domain.KindBadRequest},
		{"server error", 500, ``, "", domain.KindServer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotQuery string
			client, rc := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/users", r.URL.Path)
				gotQuery = r.URL.Query().Get("query")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			id, err := client.UserIDByUsername(context.Background(), rc, "jdoe")
			assert.Equal(t, `username=="jdoe"`, gotQuery)
			if tt.kind == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.want, id)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.kind, domain.KindOf(err))
		})
	}
}

func TestUserIDByUsername_ForbiddenMessage(t *testing.T) {
	client, rc := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	_, err := client.UserIDByUsername(context.Background(), rc, "jdoe")
	require.Error(t, err)
	assert.Contains(t, domain.AsError(err).Message, "permissions")
}
