package publishers

import (
	"context"
	"errors"
	"fmt"
)

// Fanout sends each capture event to every configured publisher. A failing
// sink never stops delivery to the others.
type Fanout struct {
	publishers []Publisher
}

// NewFanout wraps pubs, skipping nil entries.
func NewFanout(pubs []Publisher) *Fanout {
	f := &Fanout{}
	for _, p := range pubs {
		if p != nil {
			f.publishers = append(f.publishers, p)
		}
	}
	return f
}

// Publish delivers evt and reports how many sinks accepted it alongside the
// joined sink errors.
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	delivered := 0
	err := f.each("publish", func(p Publisher) error {
		if err := p.Publish(ctx, evt); err != nil {
			return err
		}
		delivered++
		return nil
	})
	return delivered, err
}

// Size returns the number of active publishers.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.publishers)
}

// Close releases sinks that hold clients or connections.
func (f *Fanout) Close() error {
	return f.each("close", func(p Publisher) error {
		if c, ok := p.(closer); ok {
			return c.Close()
		}
		return nil
	})
}

func (f *Fanout) each(op string, fn func(Publisher) error) error {
	if f == nil {
		return nil
	}
	var errs []error
	for _, p := range f.publishers {
		if err := fn(p); err != nil {
			errs = append(errs, fmt.Errorf("%s %s publisher %q: %w", op, p.Type(), p.ID(), err))
		}
	}
	return errors.Join(errs...)
}
