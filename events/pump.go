package events

import (
	"context"

	"github.com/ellemouton/lnscan/node"
)

// Source is a node event stream.
type Source interface {
	SubscribeEvents(ctx context.Context) (<-chan node.Event, <-chan error,
		error)
}

// Pump forwards events from src to the registry until ctx is cancelled or
// the stream fails. Cancellation is not an error.
func Pump(ctx context.Context, src Source, registry *Registry) error {
	events, errs, err := src.SubscribeEvents(ctx)
	if err != nil {
		return err
	}

	log.Infof("Event pump started")
	defer log.Infof("Event pump stopped")

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return streamErr(ctx, errs)
			}

			registry.Dispatch(ev)

		case err, ok := <-errs:
			if ok && err != nil && ctx.Err() == nil {
				return err
			}
			if !ok {
				errs = nil
			}

		case <-ctx.Done():
			return nil
		}
	}
}

// streamErr returns the error that ended the stream, if any.
func streamErr(ctx context.Context, errs <-chan error) error {
	if errs == nil || ctx.Err() != nil {
		return nil
	}

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		return nil
	}
}
