// Package notify delivers finished proposals to chat platforms.
package notify

import (
	"context"
	"fmt"

	"github.com/nidhogg/taskforce/internal/proposal"
)

// Publisher posts a message to one platform.
type Publisher interface {
	Platform() string
	Publish(ctx context.Context, msg *Message) error
}

// Message is a platform-neutral notification.
type Message struct {
	RunID    string `json:"run_id"`
	Location string `json:"location"`
	Title    string `json:"title"`
	Content  string `json:"content"`
}

// FromProposal renders p as a notification carrying its Markdown.
func FromProposal(p *proposal.Proposal) *Message {
	loc := p.Location
	if loc == "" {
		loc = "Your City"
	}
	return &Message{
		RunID:    p.RunID,
		Location: p.Location,
		Title:    fmt.Sprintf("Sustainability Proposal for %s", loc),
		Content:  proposal.Markdown(p),
	}
}

// truncate shortens s to at most max runes, marking the cut.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
