package agent

import "context"

// SourceTag marks which kind of agent produced a finding.
type SourceTag string

const (
	TagNews       SourceTag = "news"
	TagPolicy     SourceTag = "policy"
	TagInnovation SourceTag = "innovation"
)

// Finding is one short piece of evidence returned by a finding role.
type Finding struct {
	Text       string    `json:"text"`
	SourceTag  SourceTag `json:"source_tag"`
	Confidence *float64  `json:"confidence,omitempty"`
	Link       string    `json:"link,omitempty"`
}

// Direction is the coarse movement of a pollutant series.
type Direction string

const (
	Rising  Direction = "rising"
	Falling Direction = "falling"
	Flat    Direction = "flat"
)

// TrendSummary describes one pollutant column. Pointer fields are nil
// when SampleCount is too small to define them.
type TrendSummary struct {
	Pollutant   string    `json:"pollutant"`
	Mean        *float64  `json:"mean,omitempty"`
	Direction   Direction `json:"direction"`
	SampleCount int       `json:"sample_count"`
	Median      *float64  `json:"median,omitempty"`
	Latest      *float64  `json:"latest,omitempty"`
	Change7d    *float64  `json:"change_7d,omitempty"`
}

// Result is the output of exactly one agent invocation.
type Result struct {
	Role     Role           `json:"role"`
	Title    string         `json:"title"`
	Findings []Finding      `json:"findings"`
	Trends   []TrendSummary `json:"trends"`
	Err      *Failure       `json:"error,omitempty"`
}

// Failed reports whether the invocation recorded a failure.
func (r Result) Failed() bool { return r.Err != nil }

// FindingProvider is the capability shared by the news, policy and
// innovation roles. Implementations return at most limit findings.
type FindingProvider interface {
	Fetch(ctx context.Context, topic, location string, limit int) ([]Finding, error)
}

// Title returns the report title used for a role's result.
func Title(r Role, location string) string {
	switch r {
	case RoleNewsAnalyst:
		return "News Digest"
	case RolePolicyReviewer:
		if location != "" {
			return "Policy Brief: " + location
		}
		return "Policy Brief"
	case RoleInnovationsScout:
		return "Innovation Radar"
	case RoleDataAnalyst:
		return "Air Quality Summary"
	}
	return r.DisplayName()
}

// Invoke runs a finding provider for role and folds any error into the
// returned Result. It never panics on provider failure and never returns
// more than limit findings, even if the provider misbehaves.
func Invoke(ctx context.Context, role Role, p FindingProvider, topic, location string, limit int) Result {
	res := Result{Role: role, Title: Title(role, location), Findings: []Finding{}, Trends: []TrendSummary{}}
	if p == nil {
		res.Err = NewFailure(ProviderUnavailable(role, errNoProvider))
		return res
	}
	if limit <= 0 {
		return res
	}
	findings, err := p.Fetch(ctx, topic, location, limit)
	if err != nil {
		res.Err = NewFailure(err)
		return res
	}
	if len(findings) > limit {
		findings = findings[:limit]
	}
	res.Findings = append(res.Findings, findings...)
	return res
}
