package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/nidhogg/taskforce/internal/agent"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"go.uber.org/zap"
)

// startRedis starts a Redis testcontainer and returns its URL.
func startRedis(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Skipf("start redis: %v", err)
	}
	t.Cleanup(func() { container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("redis endpoint: %v", err)
	}
	return "redis://" + endpoint
}

func TestMessageBusRoundTrip(t *testing.T) {
	url := startRedis(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	mb, err := NewMessageBus(ctx, url, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer mb.Close()

	runs := mb.SubscribeRuns(ctx)
	// SubscribeRuns reads from "$", so give the first XREAD time to block.
	time.Sleep(200 * time.Millisecond)

	events := []*RunEvent{
		{ID: "1", RunID: "run-a", Type: EventResult, Role: agent.RoleNewsAnalyst, Location: "Karachi", Payload: "5 findings, 0 trends"},
		{ID: "2", RunID: "run-a", Type: EventFailed, Role: agent.RoleDataAnalyst, Location: "Karachi", Payload: "no dataset supplied"},
		{ID: "3", RunID: "run-a", Type: EventComposed, Location: "Karachi", Payload: "2 sections, 1 failed"},
	}
	for _, ev := range events {
		if err := mb.Publish(ctx, ev); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	sub := mb.Subscribe(ctx, "run-a")
	for i, want := range events {
		select {
		case got := <-sub:
			if got.ID != want.ID || got.Type != want.Type || got.Role != want.Role {
				t.Errorf("event %d = %+v, want %+v", i, got, want)
			}
		case <-ctx.Done():
			t.Fatalf("timed out waiting for event %d", i)
		}
	}

	select {
	case got := <-runs:
		if got.Type != EventComposed || got.RunID != "run-a" {
			t.Errorf("runs stream got %+v", got)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for composed event")
	}
}

func TestNewMessageBusBadURL(t *testing.T) {
	if _, err := NewMessageBus(context.Background(), "://nope", zap.NewNop()); err == nil {
		t.Error("expected parse error")
	}
}
