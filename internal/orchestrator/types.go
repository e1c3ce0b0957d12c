package orchestrator

import (
	"time"

	"github.com/nidhogg/taskforce/internal/agent"
	"github.com/nidhogg/taskforce/internal/dataset"
)

// Config is the process-wide team configuration. It is passed in at
// construction; the orchestrator never mutates it.
type Config struct {
	EnabledRoles    []agent.Role `json:"enabled_roles"`
	DefaultLocation string       `json:"default_location"`
	FindingLimit    int          `json:"finding_limit"`
	NewsTopic       string       `json:"news_topic"`
	InnovationTopic string       `json:"innovation_topic"`
	// DemoFallback substitutes the built-in demo dataset when the data role
	// is enabled but no dataset was supplied.
	DemoFallback bool `json:"demo_fallback"`
	// Parallel > 1 fans agent invocations out over that many goroutines.
	Parallel int `json:"parallel"`
}

// DefaultConfig enables every role, sequentially, with the demo fallback on.
func DefaultConfig() Config {
	return Config{
		EnabledRoles:    agent.Roles(),
		DefaultLocation: "Karachi",
		FindingLimit:    5,
		DemoFallback:    true,
		Parallel:        1,
	}
}

// TeamRequest is the input to one team run.
type TeamRequest struct {
	Location string
	Dataset  *dataset.Dataset
	Roles    agent.RoleSet
	// Optional per-run topic overrides.
	NewsTopic       string
	InnovationTopic string
}

// Input is the input to a single-agent run.
type Input struct {
	Topic    string
	Location string
	Dataset  *dataset.Dataset
	Limit    int
}

// EventType classifies run events.
type EventType string

const (
	EventResult   EventType = "result"
	EventFailed   EventType = "failed"
	EventComposed EventType = "composed"
)

// RunEvent is published for every agent completion and for the final
// composition of a run.
type RunEvent struct {
	ID        string     `json:"id"`
	RunID     string     `json:"run_id"`
	Type      EventType  `json:"type"`
	Role      agent.Role `json:"role,omitempty"`
	Location  string     `json:"location"`
	Payload   string     `json:"payload"`
	Timestamp time.Time  `json:"timestamp"`
}
