// Package okapi is the gateway to the remote modules the notification service depends on:
// event configuration, template rendering, message delivery and the user directory.
package okapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"vn.io.arda/notify/internal/domain"
)

const (
	HeaderTenant    = "X-Okapi-Tenant"
	HeaderToken     = "X-Okapi-Token"
	HeaderUserID    = "X-Okapi-User-Id"
	HeaderRequestID = "X-Okapi-Request-Id"
	HeaderURL       = "X-Okapi-Url"
)

// maxErrorBody bounds how much of an error response is kept for the caller.
const maxErrorBody = 64 << 10

// EventConfigCache is an optional read-through cache for resolved event configurations.
type EventConfigCache interface {
	Get(ctx context.Context, tenant, name string) (*domain.EventConfig, bool)
	Set(ctx context.Context, tenant string, cfg *domain.EventConfig)
}

// Client calls remote modules on behalf of a request. It owns its connection pool;
// call Close on shutdown to release idle connections.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      EventConfigCache
}

// Option configures a Client.
type Option func(*Client)

// WithEventConfigCache enables caching of resolved event configurations.
func WithEventConfigCache(c EventConfigCache) Option {
	return func(cl *Client) { cl.cache = c }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(cl *Client) { cl.httpClient = hc }
}

// New creates a Client. baseURL is used when the request context carries no endpoint.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close releases idle pooled connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

type response struct {
	status int
	body   []byte
}

// do performs one request. Transport failures come back as KindServer errors;
// the status code is left for the caller to classify.
func (c *Client) do(ctx context.Context, rc domain.RequestContext, method, path string, params url.Values, body any, accept string) (*response, error) {
	base := rc.BaseURL
	if base == "" {
		base = c.baseURL
	}
	endpoint := strings.TrimSuffix(base, "/") + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, domain.Server("encode request", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, domain.Server("build request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", accept)
	setHeader(req, HeaderTenant, rc.Tenant)
	setHeader(req, HeaderToken, rc.Token)
	setHeader(req, HeaderRequestID, rc.RequestID)
	setHeader(req, HeaderUserID, rc.UserID)
	setHeader(req, HeaderURL, base)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.Server(fmt.Sprintf("%s %s", method, path), err)
	}
	defer resp.Body.Close()

	limit := int64(maxErrorBody)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		limit = 16 << 20
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, domain.Server(fmt.Sprintf("read %s %s", method, path), err)
	}
	return &response{status: resp.StatusCode, body: data}, nil
}

func setHeader(req *http.Request, key, value string) {
	if value != "" {
		req.Header.Set(key, value)
	}
}

// classify maps a non-2xx status to an error: 400-class answers are the caller's fault and keep the
// remote body verbatim, everything else is a server error.
func classify(call string, resp *response) error {
	if resp.status >= 200 && resp.status < 300 {
		return nil
	}
	if resp.status >= 400 && resp.status < 500 {
		msg := strings.TrimSpace(string(resp.body))
		if msg == "" {
			msg = http.StatusText(resp.status)
		}
		return domain.BadRequest(msg)
	}
	return domain.Server(fmt.Sprintf("%s: status %d", call, resp.status), nil)
}

func logFailure(rc domain.RequestContext, call string, err error) {
	log.Error().Err(err).
		Str("call", call).
		Str("tenant", rc.Tenant).
		Str("request_id", rc.RequestID).
		Msg("remote call failed")
}

func decode(call string, data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return domain.Server(call+": decode response", err)
	}
	return nil
}
