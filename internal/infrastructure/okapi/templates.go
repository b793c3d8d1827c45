package okapi

import (
	"context"
	"net/http"

	"vn.io.arda/notify/internal/domain"
)

type templateResult struct {
	Result struct {
		Header      string              `json:"header"`
		Body        string              `json:"body"`
		Attachments []domain.Attachment `json:"attachments"`
	} `json:"result"`
	Meta struct {
		OutputFormat string `json:"outputFormat"`
	} `json:"meta"`
}

// Render asks the template engine to render one template. There is a single attempt.
func (c *Client) Render(ctx context.Context, rc domain.RequestContext, req domain.RenderRequest) (*domain.RenderResult, error) {
	const call = "render template"
	resp, err := c.do(ctx, rc, http.MethodPost, "/template-request", nil, req, "application/json")
	if err != nil {
		logFailure(rc, call, err)
		return nil, err
	}
	if err := classify(call, resp); err != nil {
		logFailure(rc, call, err)
		return nil, err
	}

	var out templateResult
	if err := decode(call, resp.body, &out); err != nil {
		logFailure(rc, call, err)
		return nil, err
	}
	return &domain.RenderResult{
		Header:       out.Result.Header,
		Body:         out.Result.Body,
		Attachments:  out.Result.Attachments,
		OutputFormat: out.Meta.OutputFormat,
	}, nil
}
