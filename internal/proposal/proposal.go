// Package proposal renders agent results into the combined sustainability
// proposal.
package proposal

import (
	"time"

	"github.com/nidhogg/taskforce/internal/agent"
)

// Section is the rendered output of one role.
type Section struct {
	Role  agent.Role `json:"role"`
	Title string     `json:"title"`
	Text  string     `json:"text"`
}

// Proposal is the terminal artifact of a team run.
type Proposal struct {
	RunID           string    `json:"run_id,omitempty"`
	Location        string    `json:"location"`
	Sections        []Section `json:"sections"`
	Recommendations []string  `json:"recommendations"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// Section returns the section for role, if present.
func (p *Proposal) Section(role agent.Role) (Section, bool) {
	for _, s := range p.Sections {
		if s.Role == role {
			return s, true
		}
	}
	return Section{}, false
}
