// Package outbox delivers workflow events through the journal: an event is
// written to the WAL first, published second and dropped from the WAL only
// after the broker accepted it.
package outbox

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Baaaki/freelance-market/internal/broker"
	"github.com/Baaaki/freelance-market/internal/wal"
	"github.com/Baaaki/freelance-market/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Publisher interface {
	Publish(ctx context.Context, event broker.Event) error
}

// Notifier serializes Notify and Replay so an event is never published by
// both while it sits in the journal.
type Notifier struct {
	journal   *wal.WAL
	publisher Publisher
	mu        sync.Mutex
}

func NewNotifier(journal *wal.WAL, publisher Publisher) *Notifier {
	return &Notifier{journal: journal, publisher: publisher}
}

// Notify journals and publishes the event. Delivery failures are logged and
// left in the journal for the next Replay; they never fail the caller.
func (n *Notifier) Notify(ctx context.Context, event broker.Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		logger.Log.Error("Failed to encode event", zap.String("type", string(event.Type)), zap.Error(err))
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	entry := wal.Entry{
		EventID:   event.ID,
		Type:      string(event.Type),
		Payload:   payload,
		Timestamp: event.Timestamp,
	}
	if err := n.journal.Write(entry); err != nil {
		logger.Log.Error("Failed to journal event",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
		return
	}

	// Publishing outlives the request that triggered it
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := n.publisher.Publish(pubCtx, event); err != nil {
		logger.Log.Warn("Event publish failed, kept for replay",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
		return
	}

	if err := n.journal.Cleanup([]string{event.ID}); err != nil {
		logger.Log.Warn("Failed to drop delivered event from journal",
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
	}
}

// Replay publishes every journaled event that has not been delivered yet and
// returns how many went out.
func (n *Notifier) Replay(ctx context.Context) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	entries, err := n.journal.ReadAll()
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	var delivered []string
	for _, entry := range entries {
		var event broker.Event
		if err := json.Unmarshal(entry.Payload, &event); err != nil {
			logger.Log.Warn("Discarding undecodable journal entry",
				zap.String("event_id", entry.EventID),
				zap.Error(err),
			)
			delivered = append(delivered, entry.EventID)
			continue
		}

		if err := n.publisher.Publish(ctx, event); err != nil {
			// Keep order: stop at the first failure and retry later
			logger.Log.Warn("Replay stopped, broker unavailable",
				zap.String("event_id", entry.EventID),
				zap.Error(err),
			)
			break
		}
		delivered = append(delivered, entry.EventID)
	}

	if err := n.journal.Cleanup(delivered); err != nil {
		return len(delivered), err
	}

	logger.Log.Info("Replayed journaled events",
		zap.Int("delivered", len(delivered)),
		zap.Int("pending", len(entries)-len(delivered)),
	)
	return len(delivered), nil
}

// Run replays the journal every interval until ctx is cancelled
func (n *Notifier) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := n.Replay(ctx); err != nil {
				logger.Log.Error("Journal replay failed", zap.Error(err))
			}
		}
	}
}
