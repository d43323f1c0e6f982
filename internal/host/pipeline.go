package host

import (
	"context"

	"github.com/aleister1102/firefoxversions/internal/common"
	"github.com/aleister1102/firefoxversions/internal/datastore"
	"github.com/aleister1102/firefoxversions/internal/snapshot"
	"github.com/rs/zerolog"
)

// EventRecorder durably stores an emitted payload.
type EventRecorder interface {
	Record(ctx context.Context, payload snapshot.Document) (datastore.Event, error)
}

// Subscriber receives every event after it has been stored.
type Subscriber interface {
	Publish(ctx context.Context, event datastore.Event) error
}

type namedSubscriber struct {
	name       string
	subscriber Subscriber
}

// EventPipeline is the agent's event sink. An emit fails only when the event
// cannot be stored; subscriber failures are logged and skipped.
type EventPipeline struct {
	recorder    EventRecorder
	subscribers []namedSubscriber
	logger      zerolog.Logger
}

// NewEventPipeline creates a pipeline storing events through recorder
func NewEventPipeline(recorder EventRecorder, logger zerolog.Logger) *EventPipeline {
	return &EventPipeline{
		recorder: recorder,
		logger:   logger.With().Str("component", "EventPipeline").Logger(),
	}
}

// Subscribe adds a subscriber; subscribers run in registration order.
func (p *EventPipeline) Subscribe(name string, subscriber Subscriber) *EventPipeline {
	p.subscribers = append(p.subscribers, namedSubscriber{name: name, subscriber: subscriber})
	return p
}

// Emit stores payload and fans the stored event out to subscribers.
func (p *EventPipeline) Emit(ctx context.Context, payload snapshot.Document) error {
	event, err := p.recorder.Record(ctx, payload)
	if err != nil {
		return common.WrapError(err, "failed to record event")
	}

	p.logger.Info().Str("event_id", event.ID).Str("agent", event.Agent).Msg("Event created")

	for _, s := range p.subscribers {
		if err := s.subscriber.Publish(ctx, event); err != nil {
			p.logger.Warn().Err(err).Str("subscriber", s.name).Str("event_id", event.ID).Msg("Subscriber failed to handle event")
		}
	}
	return nil
}
