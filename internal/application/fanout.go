package application

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"vn.io.arda/notify/internal/domain"
	"vn.io.arda/notify/internal/metrics"
)

// renderAll renders every binding concurrently. The first failure fails the whole call and
// cancels the siblings' context; on success the messages are in binding order.
func (s *Service) renderAll(ctx context.Context, rc domain.RequestContext, bindings []domain.TemplateBinding, lang string, tctx map[string]any) ([]domain.Message, error) {
	start := time.Now()
	defer func() { metrics.RenderDuration.Observe(time.Since(start).Seconds()) }()

	msgs := make([]domain.Message, len(bindings))
	g, gctx := errgroup.WithContext(ctx)
	for i, b := range bindings {
		g.Go(func() error {
			res, err := s.gateway.Render(gctx, rc, domain.RenderRequest{
				TemplateID:   b.TemplateID,
				OutputFormat: b.OutputFormat,
				Lang:         lang,
				Context:      tctx,
			})
			if err != nil {
				return err
			}
			msgs[i] = toMessage(b, res)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return msgs, nil
}

// toMessage takes channel and format from the binding and content from the rendered result.
// The renderer's format is used only when the binding names none.
func toMessage(b domain.TemplateBinding, res *domain.RenderResult) domain.Message {
	format := b.OutputFormat
	if format == "" {
		format = res.OutputFormat
	}
	return domain.Message{
		DeliveryChannel: b.DeliveryChannel,
		Header:          res.Header,
		Body:            res.Body,
		OutputFormat:    format,
		Attachments:     res.Attachments,
	}
}
