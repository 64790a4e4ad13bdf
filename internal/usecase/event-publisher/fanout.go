package eventpublisher

import (
	"context"

	eventv1 "github.com/999bits/wildfire/internal/domain/event/v1"
	"go.uber.org/multierr"
)

// FanOut delivers every batch to each publisher. A failing publisher does not
// stop delivery to the others.
type FanOut struct {
	publishers []eventv1.Publisher
}

var _ eventv1.Publisher = (*FanOut)(nil)

// NewFanOut combines publishers. Nil entries are skipped.
func NewFanOut(publishers ...eventv1.Publisher) *FanOut {
	f := &FanOut{}
	for _, p := range publishers {
		if p != nil {
			f.publishers = append(f.publishers, p)
		}
	}
	return f
}

// Publish forwards events to every publisher and combines their errors.
func (f *FanOut) Publish(ctx context.Context, events ...eventv1.Event) error {
	var err error
	for _, p := range f.publishers {
		err = multierr.Append(err, p.Publish(ctx, events...))
	}
	return err
}

// Close closes every publisher.
func (f *FanOut) Close() error {
	var err error
	for _, p := range f.publishers {
		err = multierr.Append(err, p.Close())
	}
	return err
}
