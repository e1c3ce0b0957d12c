package proposal

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nidhogg/taskforce/internal/agent"
)

// baselineActions are the draft actions every non-empty proposal ends with.
var baselineActions = []string{
	"Scale rooftop solar with net metering and low-interest financing.",
	"Pilot e-buses on the highest pollution corridors informed by AQ data.",
	"Expand mangrove/coastal restoration to enhance blue carbon and flood resilience.",
	"Open AQ data and set smog-day response protocols.",
	"Explore sodium-ion batteries and solar pavement pilots in busy districts.",
}

var sectionTitles = map[agent.Role]string{
	agent.RoleNewsAnalyst:      "News Insights",
	agent.RolePolicyReviewer:   "Policy Landscape",
	agent.RoleInnovationsScout: "Innovation Opportunities",
	agent.RoleDataAnalyst:      "Environmental Data Highlights",
}

// Composer turns agent results into a Proposal. Apart from GeneratedAt its
// output depends only on its inputs.
type Composer struct {
	now func() time.Time
}

// NewComposer creates a composer stamping proposals with the wall clock.
func NewComposer() *Composer {
	return &Composer{now: time.Now}
}

// WithClock returns a composer using now for GeneratedAt.
func (c *Composer) WithClock(now func() time.Time) *Composer {
	return &Composer{now: now}
}

// Compose renders one section per result in fixed role order.
func (c *Composer) Compose(location string, results []agent.Result) *Proposal {
	ordered := make([]agent.Result, len(results))
	copy(ordered, results)
	sort.SliceStable(ordered, func(i, j int) bool {
		return rank(ordered[i].Role) < rank(ordered[j].Role)
	})

	p := &Proposal{
		Location:        location,
		Sections:        make([]Section, 0, len(ordered)),
		Recommendations: []string{},
		GeneratedAt:     c.now(),
	}
	for _, r := range ordered {
		p.Sections = append(p.Sections, Section{
			Role:  r.Role,
			Title: SectionTitle(r.Role),
			Text:  renderResult(r, location),
		})
	}
	if len(p.Sections) > 0 {
		p.Recommendations = recommend(ordered)
	}
	return p
}

// SectionTitle returns the heading used for a role's section.
func SectionTitle(r agent.Role) string {
	if t, ok := sectionTitles[r]; ok {
		return t
	}
	return r.DisplayName()
}

func rank(r agent.Role) int {
	if o := r.Order(); o >= 0 {
		return o
	}
	return len(agent.Roles())
}

func renderResult(r agent.Result, location string) string {
	if r.Err != nil {
		return fmt.Sprintf("Notice: %s unavailable (%s): %s",
			r.Role.DisplayName(), r.Err.Kind, oneLine(r.Err.Message))
	}

	var b strings.Builder
	if r.Role == agent.RoleDataAnalyst {
		b.WriteString("Pollutant averages and direction:")
		for _, t := range r.Trends {
			fmt.Fprintf(&b, "\n%s", TrendLine(t))
		}
		if len(r.Trends) == 0 {
			b.WriteString("\n- No readings.")
		}
		return b.String()
	}

	b.WriteString(intro(r.Role, location))
	findings := rankFindings(r.Findings)
	for _, f := range findings {
		fmt.Fprintf(&b, "\n- %s", oneLine(f.Text))
	}
	if len(findings) == 0 {
		b.WriteString("\n- No findings.")
	}
	return b.String()
}

// TrendLine renders a summary as "pollutant: mean, direction".
func TrendLine(t agent.TrendSummary) string {
	mean := "n/a"
	if t.Mean != nil {
		mean = fmt.Sprintf("%.2f", *t.Mean)
	}
	return fmt.Sprintf("%s: %s, %s", t.Pollutant, mean, t.Direction)
}

func intro(r agent.Role, location string) string {
	switch r {
	case agent.RoleNewsAnalyst:
		return "Recent items related to sustainability initiatives:"
	case agent.RolePolicyReviewer:
		if location == "" {
			return "Policy signals:"
		}
		return fmt.Sprintf("Policy signals for %s:", location)
	case agent.RoleInnovationsScout:
		return "Promising innovations:"
	}
	return r.DisplayName() + ":"
}

// rankFindings orders by confidence, highest first; findings without a
// confidence keep their relative order after the scored ones.
func rankFindings(fs []agent.Finding) []agent.Finding {
	out := make([]agent.Finding, len(fs))
	copy(out, fs)
	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := out[i].Confidence, out[j].Confidence
		switch {
		case ci == nil:
			return false
		case cj == nil:
			return true
		}
		return *ci > *cj
	})
	return out
}

func recommend(results []agent.Result) []string {
	var recs []string
	for _, r := range results {
		if r.Role != agent.RoleDataAnalyst || r.Err != nil {
			continue
		}
		for _, t := range r.Trends {
			if t.Direction == agent.Rising && t.Mean != nil {
				recs = append(recs, fmt.Sprintf(
					"Target %s reductions: readings are rising (mean %.2f).", t.Pollutant, *t.Mean))
			}
		}
	}
	return append(recs, baselineActions...)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
