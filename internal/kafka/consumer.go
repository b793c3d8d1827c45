// Package kafka consumes notification commands so other modules can create notifications
// and patron notices without going through HTTP.
package kafka

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/twmb/franz-go/pkg/kgo"
	"vn.io.arda/notify/internal/domain"
	"vn.io.arda/notify/internal/kafka/registry"

	// Blank imports trigger init() in each handler file,
	// registering all command handlers into the registry.
	_ "vn.io.arda/notify/internal/kafka/handlers"
)

// Consumer wraps the franz-go Kafka client.
type Consumer struct {
	client *kgo.Client
	svc    registry.Executor
	base   domain.RequestContext
}

// New creates a Consumer with the given brokers, group ID, and topics. base supplies the
// module token, gateway URL and language every command runs with; each command sets its
// own tenant and request id.
func New(brokers []string, groupID string, topics []string, svc registry.Executor, base domain.RequestContext) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeTopics(topics...),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, err
	}
	return &Consumer{client: client, svc: svc, base: base}, nil
}

// Start begins polling Kafka and processing records. Blocks until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) {
	log.Info().Msg("kafka consumer started")

	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			break
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			log.Error().Err(err).Str("topic", topic).Int32("partition", partition).Msg("kafka fetch error")
		})

		fetches.EachRecord(func(r *kgo.Record) {
			c.process(ctx, r)
		})

		if err := c.client.CommitUncommittedOffsets(ctx); err != nil {
			log.Error().Err(err).Msg("kafka commit error")
		}
	}

	c.client.Close()
	log.Info().Msg("kafka consumer stopped")
}

// process runs one record. Failed commands are logged and committed; a retry would
// re-run the render and delivery side effects.
func (c *Consumer) process(ctx context.Context, r *kgo.Record) {
	log.Debug().
		Str("topic", r.Topic).
		Str("key", string(r.Key)).
		Msg("processing kafka record")

	err := registry.Dispatch(ctx, c.svc, c.base, r.Value)
	if err == nil {
		return
	}
	if errors.Is(err, registry.ErrUnknownCommand) {
		log.Debug().Err(err).Str("topic", r.Topic).Msg("no handler matched, skipping")
		return
	}
	log.Error().Err(err).
		Str("topic", r.Topic).
		Str("kind", string(domain.KindOf(err))).
		Int64("offset", r.Offset).
		Msg("failed to run notification command")
}
