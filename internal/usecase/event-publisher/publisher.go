package eventpublisher

import (
	"context"

	eventv1 "github.com/999bits/wildfire/internal/domain/event/v1"
	"github.com/999bits/wildfire/pkg/config"
	"github.com/999bits/wildfire/pkg/errors"
	"github.com/999bits/wildfire/pkg/logger"
	"github.com/segmentio/kafka-go"
)

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes lifecycle events to the events topic, keyed by pair so a
// pair keeps its order on one partition.
type Publisher struct {
	kafkaWriter   kafkaWriter
	pair          string
	priceDecimals int32
	logger        logger.Interface
}

var _ eventv1.Publisher = (*Publisher)(nil)

// NewPublisher creates a Kafka publisher for the events topic.
func NewPublisher(config config.PublisherConfig, pair string, priceDecimals int32, logger logger.Interface) *Publisher {
	kafkaWriter := &kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Topic:        config.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
	return newPublisher(kafkaWriter, pair, priceDecimals, logger)
}

func newPublisher(w kafkaWriter, pair string, priceDecimals int32, logger logger.Interface) *Publisher {
	return &Publisher{
		kafkaWriter:   w,
		pair:          pair,
		priceDecimals: priceDecimals,
		logger:        logger,
	}
}

// Publish writes all events in one batch.
func (p *Publisher) Publish(ctx context.Context, events ...eventv1.Event) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		value, err := NewPayload(p.pair, p.priceDecimals, e).ToBytes()
		if err != nil {
			return errors.NewTracer(string(errors.KafkaWriteError)).Wrap(err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(p.pair),
			Value: value,
			Headers: []kafka.Header{
				{Key: "event-type", Value: []byte(e.Type)},
			},
		})
	}

	if err := p.kafkaWriter.WriteMessages(ctx, msgs...); err != nil {
		p.logger.ErrorContext(ctx, err,
			logger.Field{Key: "error", Value: err.Error()},
			logger.Field{Key: "events", Value: len(events)},
		)
		return errors.NewTracer(string(errors.KafkaWriteError)).Wrap(err)
	}
	return nil
}

// Close flushes pending writes and closes the writer.
func (p *Publisher) Close() error {
	return p.kafkaWriter.Close()
}
