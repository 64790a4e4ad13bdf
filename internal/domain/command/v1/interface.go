package commandv1

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// Reader defines the interface for reading commands from a source.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=commandv1_mock
type Reader interface {
	// ReadMessage reads a message and returns it with the decoded command
	ReadMessage(ctx context.Context) (kafka.Message, *Command, error)
	// SetOffset sets the offset for the reader
	SetOffset(offset int64) error
	// Close closes the reader
	Close() error

	// CommitMessages commits the messages to Kafka after processing
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}
