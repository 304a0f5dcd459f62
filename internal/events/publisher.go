package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// Publisher provides typed methods for publishing events to NATS
// JetStream. A nil Publisher is valid and drops every event, so callers
// never need to branch on whether the bus is configured.
type Publisher struct {
	js jetstream.JetStream
}

// NewPublisher creates a new Publisher.
func NewPublisher(js jetstream.JetStream) *Publisher {
	return &Publisher{js: js}
}

// PublishAssembled publishes a context-assembly event.
func (p *Publisher) PublishAssembled(ctx context.Context, event AssembledEvent) error {
	return p.publish(ctx, SubjectAssembled, event)
}

// PublishHistoryCleared publishes a history deletion event.
func (p *Publisher) PublishHistoryCleared(ctx context.Context, event HistoryClearedEvent) error {
	return p.publish(ctx, SubjectHistoryCleared, event)
}

func (p *Publisher) publish(ctx context.Context, subject string, data any) error {
	if p == nil || p.js == nil {
		return nil
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling event for %s: %w", subject, err)
	}
	_, err = p.js.Publish(ctx, subject, payload)
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	return nil
}
