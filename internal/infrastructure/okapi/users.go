package okapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"
	"vn.io.arda/notify/internal/domain"
	"vn.io.arda/notify/internal/query"
)

type userRecord struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// UserIDByUsername returns the id of the user with the exact given username.
// When the directory returns several users the first one wins.
func (c *Client) UserIDByUsername(ctx context.Context, rc domain.RequestContext, username string) (string, error) {
	const call = "lookup user"
	params := url.Values{}
	params.Set("query", "username=="+query.Quote(username))
	params.Set("limit", "2")

	resp, err := c.do(ctx, rc, http.MethodGet, "/users", params, nil, "application/json")
	if err != nil {
		logFailure(rc, call, err)
		return "", err
	}
	if resp.status == http.StatusForbidden {
		err := domain.BadRequest("Insufficient permissions to look up user " + username)
		logFailure(rc, call, err)
		return "", err
	}
	if err := classify(call, resp); err != nil {
		logFailure(rc, call, err)
		return "", err
	}

	var body struct {
		Users json.RawMessage `json:"users"`
	}
	if err := json.Unmarshal(resp.body, &body); err != nil {
		return "", domain.BadRequest("Malformed user lookup response")
	}
	var users []userRecord
	if len(body.Users) == 0 || json.Unmarshal(body.Users, &users) != nil {
		return "", domain.BadRequest("Malformed user lookup response")
	}
	if len(users) == 0 {
		return "", domain.BadRequest(fmt.Sprintf("No user found by username %s", username))
	}
	if len(users) > 1 {
		log.Warn().Str("tenant", rc.Tenant).Str("username", username).Msg("several users share a username, using the first")
	}
	if !domain.IsValidUUID(users[0].ID) {
		return "", domain.BadRequest(fmt.Sprintf("User %s has no valid id", username))
	}
	return users[0].ID, nil
}
