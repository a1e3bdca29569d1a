package service

import (
	"context"
	"errors"

	"inventory/internal/model"
	"inventory/pkg/logger"
)

// EventPublisher delivers committed domain events. Publishing happens after
// the transaction commits, so a failure is logged and never undoes the write.
type EventPublisher interface {
	Publish(ctx context.Context, event model.Event) error
}

type multiPublisher struct {
	publishers []EventPublisher
}

// NewMultiPublisher fans an event out to every non-nil publisher.
func NewMultiPublisher(publishers ...EventPublisher) EventPublisher {
	m := &multiPublisher{}
	for _, p := range publishers {
		if p != nil {
			m.publishers = append(m.publishers, p)
		}
	}
	return m
}

func (m *multiPublisher) Publish(ctx context.Context, event model.Event) error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func publish(ctx context.Context, publisher EventPublisher, event model.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Warn(ctx).Err(err).
			Str("event", string(event.Event)).
			Str("key", event.Key).
			Msg("failed to publish event")
	}
}
