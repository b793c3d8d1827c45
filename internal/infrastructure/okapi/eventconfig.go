package okapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"
	"vn.io.arda/notify/internal/domain"
	"vn.io.arda/notify/internal/query"
)

type eventConfigCollection struct {
	EventEntity  []domain.EventConfig `json:"eventEntity"`
	Items        []domain.EventConfig `json:"items"`
	TotalRecords int                  `json:"totalRecords"`
}

func (c eventConfigCollection) configs() []domain.EventConfig {
	if len(c.EventEntity) > 0 {
		return c.EventEntity
	}
	return c.Items
}

// ResolveEventConfig looks up the event configuration with the exact given name.
// An empty result is a BadRequest naming the configuration; more than one match is NotFound.
func (c *Client) ResolveEventConfig(ctx context.Context, rc domain.RequestContext, name string) (*domain.EventConfig, error) {
	const call = "resolve event config"
	if name == "" {
		return nil, domain.Validation("eventConfigName", "event config name is required")
	}

	if c.cache != nil {
		if cfg, ok := c.cache.Get(ctx, rc.Tenant, name); ok {
			log.Debug().Str("tenant", rc.Tenant).Str("event_config", name).Msg("event config cache hit")
			return cfg, nil
		}
	}

	params := url.Values{}
	params.Set("query", "name=="+query.Quote(name))
	resp, err := c.do(ctx, rc, http.MethodGet, "/eventConfig", params, nil, "application/json")
	if err != nil {
		logFailure(rc, call, err)
		return nil, err
	}
	if err := classify(call, resp); err != nil {
		logFailure(rc, call, err)
		return nil, err
	}

	var coll eventConfigCollection
	if err := decode(call, resp.body, &coll); err != nil {
		logFailure(rc, call, err)
		return nil, err
	}

	configs := coll.configs()
	switch len(configs) {
	case 0:
		return nil, domain.BadRequest(fmt.Sprintf("Cannot fetch event config %q", name))
	case 1:
	default:
		return nil, domain.NotFound(fmt.Sprintf("event config %q is ambiguous: %d matches", name, len(configs)))
	}

	cfg := configs[0]
	if c.cache != nil {
		c.cache.Set(ctx, rc.Tenant, &cfg)
	}
	return &cfg, nil
}
