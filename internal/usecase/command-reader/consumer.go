package commandreader

import (
	"context"
	"encoding/json"

	commandv1 "github.com/999bits/wildfire/internal/domain/command/v1"
	"github.com/999bits/wildfire/pkg/config"
	"github.com/999bits/wildfire/pkg/errors"
	"github.com/999bits/wildfire/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// kafkaReader is the subset of *kafka.Reader the consumer relies on.
type kafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	SetOffset(offset int64) error
	Close() error
}

// Reader consumes commands from the command topic.
type Reader struct {
	kafkaReader kafkaReader
	grouped     bool
	logger      logger.Interface
}

var _ commandv1.Reader = (*Reader)(nil)

// NewReader creates a Kafka reader for the command topic. Without a group id the
// reader is pinned to partition 0 and positioned through SetOffset.
func NewReader(config config.KafkaConfig, log logger.Interface) *Reader {
	readerConfig := kafka.ReaderConfig{
		Brokers:     config.Brokers,
		Topic:       config.Topic,
		GroupID:     config.GroupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	}

	return newReader(kafka.NewReader(readerConfig), config.GroupID != "", log)
}

func newReader(r kafkaReader, grouped bool, log logger.Interface) *Reader {
	return &Reader{
		kafkaReader: r,
		grouped:     grouped,
		logger:      log,
	}
}

func (r *Reader) logError(err error, operation string) {
	r.logger.Error(err,
		logger.Field{Key: "error", Value: err.Error()},
		logger.Field{Key: "operation", Value: operation},
	)
}

// SetOffset positions the reader. Group readers keep the committed group offset.
func (r *Reader) SetOffset(offset int64) error {
	if r.grouped {
		r.logger.Warn("SetOffset ignored for group reader", logger.NewField("offset", offset))
		return nil
	}
	if err := r.kafkaReader.SetOffset(offset); err != nil {
		r.logError(err, "SetOffset")
		return errors.NewTracer(string(errors.KafkaReadError)).Wrap(err)
	}
	return nil
}

// ReadMessage fetches the next message and decodes it as a command. A message
// that cannot be decoded is returned with a KafkaDecodeError so the caller can
// commit past it.
func (r *Reader) ReadMessage(ctx context.Context) (kafka.Message, *commandv1.Command, error) {
	msg, err := r.kafkaReader.FetchMessage(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.logError(err, "ReadMessage")
		}
		return kafka.Message{}, nil, errors.NewTracer(string(errors.KafkaReadError)).Wrap(err)
	}

	cmd, err := Decode(msg)
	if err != nil {
		r.logError(err, "DecodeCommand")
		return msg, nil, err
	}

	r.logger.Debug("ReadMessage",
		logger.NewField("offset", msg.Offset),
		logger.NewField("type", cmd.Type),
		logger.NewField("caller", cmd.Caller),
		logger.NewField("requestID", cmd.RequestID),
	)
	return msg, cmd, nil
}

// Decode parses and validates one command message.
func Decode(msg kafka.Message) (*commandv1.Command, error) {
	var cmd commandv1.Command
	if err := json.Unmarshal(msg.Value, &cmd); err != nil {
		return nil, errors.NewErrorDetails("malformed command payload: "+err.Error(), string(errors.KafkaDecodeError), "value")
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if cmd.RequestID == "" {
		cmd.RequestID = headerValue(msg, "request-id")
	}
	cmd.Offset = msg.Offset
	return &cmd, nil
}

func headerValue(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// Close properly closes the Kafka reader.
func (r *Reader) Close() error {
	if err := r.kafkaReader.Close(); err != nil {
		r.logError(err, "Close")
		return err
	}
	return nil
}

// CommitMessages commits processed messages. Readers without a group id track
// their position through snapshots only.
func (r *Reader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	if !r.grouped || len(msgs) == 0 {
		return nil
	}
	if err := r.kafkaReader.CommitMessages(ctx, msgs...); err != nil {
		r.logError(err, "CommitMessages")
		return errors.NewTracer(string(errors.KafkaReadError)).Wrap(err)
	}
	return nil
}
