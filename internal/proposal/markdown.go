package proposal

import (
	"fmt"
	"strings"
)

const executiveSummary = "This proposal synthesizes signals from recent news, policy updates, " +
	"environmental data, and emerging innovations to suggest actionable steps for urban sustainability."

// Markdown renders the full proposal document.
func Markdown(p *Proposal) string {
	var b strings.Builder
	location := p.Location
	if location == "" {
		location = "Your City"
	}
	fmt.Fprintf(&b, "# Sustainability Proposal for %s\n\n", location)
	fmt.Fprintf(&b, "## Executive Summary\n%s\n", executiveSummary)

	for i, s := range p.Sections {
		fmt.Fprintf(&b, "\n## %d) %s\n%s\n", i+1, s.Title, s.Text)
	}

	if len(p.Recommendations) > 0 {
		fmt.Fprintf(&b, "\n## %d) Recommended Actions (Draft)\n", len(p.Sections)+1)
		for _, r := range p.Recommendations {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}
	return b.String()
}
