package ws

import (
	"context"
	"encoding/json"

	"gig-escrow/internal/event"
)

// Publisher fans committed job events out to WebSocket subscribers.
type Publisher struct {
	hub *Hub
}

var _ event.Publisher = (*Publisher)(nil)

func NewPublisher(hub *Hub) *Publisher {
	return &Publisher{hub: hub}
}

func (p *Publisher) Publish(_ context.Context, evt event.Event) error {
	if p == nil || p.hub == nil {
		return nil
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	p.hub.Broadcast(evt.JobID, b)
	return nil
}
