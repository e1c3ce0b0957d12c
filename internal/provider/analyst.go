package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nidhogg/taskforce/internal/agent"
	"github.com/nidhogg/taskforce/internal/search"
	"go.uber.org/zap"
)

// Default topics used when the caller leaves the topic empty.
const (
	DefaultNewsTopic       = "city-level green projects"
	DefaultInnovationTopic = "urban sustainability tech"
)

const maxFindingRunes = 280

// RetryPolicy bounds how long an Analyst keeps retrying its source.
type RetryPolicy struct {
	MaxRetries      int           `json:"max_retries"`
	InitialInterval time.Duration `json:"initial_interval"`
	MaxElapsed      time.Duration `json:"max_elapsed"`
}

// DefaultRetryPolicy returns a short budget suited to local sources.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:      2,
		InitialInterval: 100 * time.Millisecond,
		MaxElapsed:      2 * time.Second,
	}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		exp.InitialInterval = p.InitialInterval
	}
	if p.MaxElapsed > 0 {
		exp.MaxElapsedTime = p.MaxElapsed
	}
	retries := p.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)
}

// AnalystConfig configures one finding role.
type AnalystConfig struct {
	Role         agent.Role
	Source       search.Source
	DefaultTopic string
	Retry        RetryPolicy
}

// Analyst is the FindingProvider shared by the news, policy and innovation
// roles. The role only selects the query template, the source tag and the
// finding text layout.
type Analyst struct {
	role         agent.Role
	source       search.Source
	defaultTopic string
	retry        RetryPolicy
	logger       *zap.Logger
}

// NewAnalyst builds an Analyst for a finding role.
func NewAnalyst(cfg AnalystConfig, logger *zap.Logger) (*Analyst, error) {
	if cfg.Role.SourceTag() == "" {
		return nil, fmt.Errorf("role %s does not produce findings", cfg.Role)
	}
	if cfg.Source == nil {
		return nil, fmt.Errorf("analyst %s: source is required", cfg.Role)
	}
	return &Analyst{
		role:         cfg.Role,
		source:       cfg.Source,
		defaultTopic: cfg.DefaultTopic,
		retry:        cfg.Retry,
		logger:       logger,
	}, nil
}

// Role returns the role this analyst plays.
func (a *Analyst) Role() agent.Role { return a.role }

// Query builds the search query for the role.
func (a *Analyst) Query(topic, location string) string {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = a.defaultTopic
	}
	location = strings.TrimSpace(location)

	switch a.role {
	case agent.RolePolicyReviewer:
		return strings.TrimSpace(location + " sustainability policy update")
	case agent.RoleNewsAnalyst:
		return strings.TrimSpace(topic + " " + location)
	}
	return topic
}

// Fetch implements agent.FindingProvider.
func (a *Analyst) Fetch(ctx context.Context, topic, location string, limit int) ([]agent.Finding, error) {
	if limit <= 0 {
		return []agent.Finding{}, nil
	}
	query := a.Query(topic, location)

	var items []search.Item
	op := func() error {
		var err error
		items, err = a.source.Search(ctx, query, limit)
		return err
	}
	notify := func(err error, wait time.Duration) {
		a.logger.Warn("search failed, retrying",
			zap.String("role", string(a.role)),
			zap.String("source", a.source.Name()),
			zap.Duration("wait", wait),
			zap.Error(err))
	}
	if err := backoff.RetryNotify(op, a.retry.backOff(ctx), notify); err != nil {
		a.logger.Warn("provider unavailable",
			zap.String("role", string(a.role)),
			zap.String("source", a.source.Name()),
			zap.Error(err))
		return []agent.Finding{}, agent.ProviderUnavailable(a.role, err)
	}

	if len(items) > limit {
		items = items[:limit]
	}
	findings := make([]agent.Finding, 0, len(items))
	for _, it := range items {
		f := agent.Finding{
			Text:      truncateRunes(a.render(it), maxFindingRunes),
			SourceTag: a.role.SourceTag(),
			Link:      it.Link,
		}
		if it.Relevance > 0 {
			c := it.Relevance
			f.Confidence = &c
		}
		findings = append(findings, f)
	}

	a.logger.Debug("fetched findings",
		zap.String("role", string(a.role)),
		zap.String("query", query),
		zap.Int("count", len(findings)))
	return findings, nil
}

func (a *Analyst) render(it search.Item) string {
	switch a.role {
	case agent.RoleNewsAnalyst:
		if it.Snippet == "" {
			return fmt.Sprintf("[%s](%s)", it.Title, it.Link)
		}
		return fmt.Sprintf("[%s](%s): %s", it.Title, it.Link, it.Snippet)
	case agent.RolePolicyReviewer:
		if it.Snippet == "" {
			return it.Title
		}
		return fmt.Sprintf("%s: %s", it.Title, it.Snippet)
	}
	return fmt.Sprintf("[%s](%s)", it.Title, it.Link)
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
