package broker

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventProposalSubmitted EventType = "proposal.submitted"
	EventProposalAccepted  EventType = "proposal.accepted"
	EventProposalRejected  EventType = "proposal.rejected"
	EventProposalWithdrawn EventType = "proposal.withdrawn"
	EventProjectAssigned   EventType = "project.assigned"
	EventProjectCompleted  EventType = "project.completed"
	EventProjectCancelled  EventType = "project.cancelled"
)

// Event is a workflow transition that the users in Recipients care about
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	ProjectID  uuid.UUID   `json:"projectId"`
	ProposalID *uuid.UUID  `json:"proposalId,omitempty"`
	ActorID    uuid.UUID   `json:"actorId"`
	Recipients []uuid.UUID `json:"recipients"`
	Timestamp  time.Time   `json:"timestamp"`
}

// IsFor reports whether the user is one of the event's recipients
func (e Event) IsFor(userID uuid.UUID) bool {
	return slices.Contains(e.Recipients, userID)
}

// EventBroker fans workflow events out to every API node
type EventBroker interface {
	Publish(ctx context.Context, event Event) error
	// Subscribe delivers events until ctx is cancelled, then closes the channel
	Subscribe(ctx context.Context) (<-chan Event, error)
	Close() error
}
