package okapi

import (
	"context"
	"net/http"

	"vn.io.arda/notify/internal/domain"
)

// Deliver sends one delivery request. Any 2xx, including 204, is success.
func (c *Client) Deliver(ctx context.Context, rc domain.RequestContext, req domain.DeliveryRequest) error {
	const call = "deliver messages"
	resp, err := c.do(ctx, rc, http.MethodPost, "/message-delivery", nil, req, "text/plain")
	if err != nil {
		logFailure(rc, call, err)
		return err
	}
	if err := classify(call, resp); err != nil {
		logFailure(rc, call, err)
		return err
	}
	return nil
}
