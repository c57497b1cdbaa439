package chat

import (
	"context"
	"errors"
)

// Fanout posts every message to each log in order. Every log is attempted;
// the joined errors are returned.
type Fanout []Log

// Post implements Log
func (f Fanout) Post(ctx context.Context, msg *Message) error {
	var errs []error
	for _, l := range f {
		if l == nil {
			continue
		}
		if err := l.Post(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
