package service

import (
	"context"

	"github.com/Baaaki/freelance-market/internal/broker"
	"github.com/google/uuid"
)

// EventNotifier receives workflow events after their transaction commits
type EventNotifier interface {
	Notify(ctx context.Context, event broker.Event)
}

// notifyAll sends events when a notifier is configured
func notifyAll(ctx context.Context, n EventNotifier, events ...broker.Event) {
	if n == nil {
		return
	}
	for _, e := range events {
		n.Notify(ctx, e)
	}
}

func newEvent(t broker.EventType, projectID uuid.UUID, proposalID *uuid.UUID, actorID uuid.UUID, recipients ...uuid.UUID) broker.Event {
	return broker.Event{
		Type:       t,
		ProjectID:  projectID,
		ProposalID: proposalID,
		ActorID:    actorID,
		Recipients: recipients,
	}
}
