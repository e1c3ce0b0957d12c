package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// maxHistory bounds the delivery history kept in memory.
const maxHistory = 100

// Record tracks one delivered notification.
type Record struct {
	Message *Message  `json:"message"`
	SentAt  time.Time `json:"sent_at"`
	Targets []string  `json:"targets"`
	Failed  []string  `json:"failed,omitempty"`
}

// Broadcaster fans a message out to every configured publisher.
type Broadcaster struct {
	publishers []Publisher
	history    []Record
	mu         sync.Mutex
	logger     *zap.Logger
}

// NewBroadcaster creates a broadcaster over the given publishers.
func NewBroadcaster(logger *zap.Logger, publishers ...Publisher) *Broadcaster {
	return &Broadcaster{publishers: publishers, logger: logger}
}

// Platforms lists the configured publisher platforms.
func (b *Broadcaster) Platforms() []string {
	out := make([]string, len(b.publishers))
	for i, p := range b.publishers {
		out[i] = p.Platform()
	}
	return out
}

// Enabled reports whether any publisher is configured.
func (b *Broadcaster) Enabled() bool { return len(b.publishers) > 0 }

// Send publishes msg to every platform and returns the delivery record.
// A failing platform does not stop the others; their errors are joined.
func (b *Broadcaster) Send(ctx context.Context, msg *Message) (Record, error) {
	if msg == nil || msg.Content == "" {
		return Record{}, fmt.Errorf("notification content is required")
	}

	b.logger.Info("sending proposal notification",
		zap.String("run", msg.RunID),
		zap.String("title", msg.Title),
		zap.Int("platforms", len(b.publishers)))

	rec := Record{Message: msg, SentAt: time.Now()}
	var errs []error
	for _, p := range b.publishers {
		if err := p.Publish(ctx, msg); err != nil {
			rec.Failed = append(rec.Failed, p.Platform())
			errs = append(errs, fmt.Errorf("%s: %w", p.Platform(), err))
			continue
		}
		rec.Targets = append(rec.Targets, p.Platform())
	}

	b.mu.Lock()
	b.history = append(b.history, rec)
	if len(b.history) > maxHistory {
		b.history = b.history[len(b.history)-maxHistory:]
	}
	b.mu.Unlock()

	return rec, errors.Join(errs...)
}

// History returns up to limit of the most recent records.
func (b *Broadcaster) History(limit int) []Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	if limit <= 0 || limit > len(b.history) {
		limit = len(b.history)
	}
	start := len(b.history) - limit
	out := make([]Record, limit)
	copy(out, b.history[start:])
	return out
}
