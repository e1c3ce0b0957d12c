package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	streamPrefix = "taskforce:run:"
	// runsStream receives one composed event per finished run.
	runsStream   = "taskforce:runs"
	streamMaxLen = 1000
)

// MessageBus publishes run events to Redis Streams: one stream per run plus
// a shared stream of completed runs.
type MessageBus struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewMessageBus creates a Redis-backed message bus.
func NewMessageBus(ctx context.Context, redisURL string, logger *zap.Logger) (*MessageBus, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &MessageBus{rdb: rdb, logger: logger}, nil
}

// RunStream returns the stream key holding a run's events.
func RunStream(runID string) string { return streamPrefix + runID }

// Publish appends ev to its run stream, and composed events to the runs stream.
func (mb *MessageBus) Publish(ctx context.Context, ev *RunEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	streams := []string{RunStream(ev.RunID)}
	if ev.Type == EventComposed {
		streams = append(streams, runsStream)
	}
	for _, stream := range streams {
		err := mb.rdb.XAdd(ctx, &redis.XAddArgs{
			Stream: stream,
			MaxLen: streamMaxLen,
			Approx: true,
			Values: map[string]interface{}{
				"data": string(data),
			},
		}).Err()
		if err != nil {
			return fmt.Errorf("publish to %s: %w", stream, err)
		}
	}

	mb.logger.Debug("published run event",
		zap.String("run", ev.RunID),
		zap.String("role", string(ev.Role)),
		zap.String("type", string(ev.Type)))
	return nil
}

// Subscribe replays and then follows the events of one run.
// Cancel the context to stop; the channel is closed on exit.
func (mb *MessageBus) Subscribe(ctx context.Context, runID string) <-chan *RunEvent {
	return mb.follow(ctx, RunStream(runID), "0")
}

// SubscribeRuns follows composed events of runs finishing after the call.
func (mb *MessageBus) SubscribeRuns(ctx context.Context) <-chan *RunEvent {
	return mb.follow(ctx, runsStream, "$")
}

func (mb *MessageBus) follow(ctx context.Context, stream, lastID string) <-chan *RunEvent {
	ch := make(chan *RunEvent, 16)

	go func() {
		defer close(ch)

		for {
			if ctx.Err() != nil {
				return
			}

			results, err := mb.rdb.XRead(ctx, &redis.XReadArgs{
				Streams: []string{stream, lastID},
				Count:   10,
				Block:   2 * time.Second,
			}).Result()

			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return
				}
				if !errors.Is(err, redis.Nil) {
					mb.logger.Warn("read run stream failed", zap.String("stream", stream), zap.Error(err))
					select {
					case <-ctx.Done():
						return
					case <-time.After(500 * time.Millisecond):
					}
				}
				continue
			}

			for _, r := range results {
				for _, msg := range r.Messages {
					lastID = msg.ID
					data, ok := msg.Values["data"].(string)
					if !ok {
						continue
					}
					var ev RunEvent
					if json.Unmarshal([]byte(data), &ev) != nil {
						continue
					}
					select {
					case ch <- &ev:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return ch
}

// Close shuts down the Redis connection.
func (mb *MessageBus) Close() error {
	return mb.rdb.Close()
}
