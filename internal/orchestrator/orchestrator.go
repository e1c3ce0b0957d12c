package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nidhogg/taskforce/internal/agent"
	"github.com/nidhogg/taskforce/internal/dataset"
	"github.com/nidhogg/taskforce/internal/proposal"
	"github.com/nidhogg/taskforce/internal/provider"
	"github.com/nidhogg/taskforce/internal/trend"
	"go.uber.org/zap"
)

// EventSink receives run events. Implementations must be safe for
// concurrent use.
type EventSink interface {
	Publish(ctx context.Context, ev *RunEvent) error
}

// Orchestrator runs the task force: it invokes each enabled agent,
// collects their results and hands them to the composer.
type Orchestrator struct {
	cfg       Config
	providers *provider.Registry
	analyzer  *trend.Analyzer
	composer  *proposal.Composer
	events    EventSink
	logger    *zap.Logger
}

// New creates an orchestrator. events may be nil.
func New(cfg Config, providers *provider.Registry, analyzer *trend.Analyzer,
	composer *proposal.Composer, events EventSink, logger *zap.Logger) *Orchestrator {
	if cfg.FindingLimit <= 0 {
		cfg.FindingLimit = DefaultConfig().FindingLimit
	}
	return &Orchestrator{
		cfg:       cfg,
		providers: providers,
		analyzer:  analyzer,
		composer:  composer,
		events:    events,
		logger:    logger,
	}
}

// DefaultRoles returns the configured enabled roles as a set.
func (o *Orchestrator) DefaultRoles() agent.RoleSet {
	return agent.NewRoleSet(o.cfg.EnabledRoles...)
}

// RunTeam runs the given roles for location. It never fails: agent
// failures become notice sections of the returned Proposal.
func (o *Orchestrator) RunTeam(ctx context.Context, location string, ds *dataset.Dataset, roles agent.RoleSet) *proposal.Proposal {
	return o.Run(ctx, TeamRequest{Location: location, Dataset: ds, Roles: roles})
}

// Run is RunTeam with per-run topic overrides.
func (o *Orchestrator) Run(ctx context.Context, req TeamRequest) *proposal.Proposal {
	start := time.Now()
	runID := uuid.New().String()
	req.Location = o.location(req.Location)
	roles := req.Roles.Ordered()

	o.logger.Info("starting team run",
		zap.String("run", runID),
		zap.String("location", req.Location),
		zap.Int("roles", len(roles)),
		zap.Bool("dataset", req.Dataset != nil))

	results := o.dispatch(ctx, runID, roles, req)

	p := o.composer.Compose(req.Location, results)
	p.RunID = runID

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}
	o.publish(ctx, &RunEvent{
		RunID:    runID,
		Type:     EventComposed,
		Location: req.Location,
		Payload:  fmt.Sprintf("%d sections, %d failed", len(p.Sections), failed),
	})

	o.logger.Info("team run complete",
		zap.String("run", runID),
		zap.Int("sections", len(p.Sections)),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(start)))
	return p
}

// RunSingle runs one agent on its own. It fails only for an unknown role;
// agent failures are recorded in the Result.
func (o *Orchestrator) RunSingle(ctx context.Context, role agent.Role, in Input) (agent.Result, error) {
	if !role.Valid() {
		return agent.Result{}, fmt.Errorf("unknown agent: %s", role)
	}
	location := o.location(in.Location)
	if role == agent.RoleDataAnalyst {
		return o.analyze(in.Dataset, location), nil
	}
	limit := in.Limit
	if limit <= 0 {
		limit = o.cfg.FindingLimit
	}
	return o.fetch(ctx, role, in.Topic, location, limit), nil
}

func (o *Orchestrator) location(l string) string {
	if l = strings.TrimSpace(l); l != "" {
		return l
	}
	return o.cfg.DefaultLocation
}

// invoke runs one role and publishes its completion. A panicking provider
// is recorded as a failure rather than taking the run down.
func (o *Orchestrator) invoke(ctx context.Context, runID string, role agent.Role, req TeamRequest) (res agent.Result) {
	defer func() {
		if rec := recover(); rec != nil {
			o.logger.Error("agent panicked", zap.String("role", string(role)), zap.Any("panic", rec))
			res = agent.Result{
				Role:     role,
				Title:    agent.Title(role, req.Location),
				Findings: []agent.Finding{},
				Trends:   []agent.TrendSummary{},
				Err:      &agent.Failure{Kind: agent.KindUnknown, Message: fmt.Sprintf("agent panicked: %v", rec)},
			}
		}
		o.publishResult(ctx, runID, req.Location, res)
	}()

	switch role {
	case agent.RoleDataAnalyst:
		return o.analyze(req.Dataset, req.Location)
	case agent.RoleNewsAnalyst:
		return o.fetch(ctx, role, firstNonEmpty(req.NewsTopic, o.cfg.NewsTopic), req.Location, o.cfg.FindingLimit)
	case agent.RoleInnovationsScout:
		return o.fetch(ctx, role, firstNonEmpty(req.InnovationTopic, o.cfg.InnovationTopic), req.Location, o.cfg.FindingLimit)
	}
	return o.fetch(ctx, role, "", req.Location, o.cfg.FindingLimit)
}

func (o *Orchestrator) fetch(ctx context.Context, role agent.Role, topic, location string, limit int) agent.Result {
	var p agent.FindingProvider
	if o.providers != nil {
		if found, ok := o.providers.Get(role); ok {
			p = found
		}
	}
	res := agent.Invoke(ctx, role, p, topic, location, limit)
	if res.Err != nil {
		o.logger.Warn("agent failed",
			zap.String("role", string(role)),
			zap.String("kind", string(res.Err.Kind)),
			zap.String("error", res.Err.Message))
	}
	return res
}

func (o *Orchestrator) analyze(ds *dataset.Dataset, location string) agent.Result {
	res := agent.Result{
		Role:     agent.RoleDataAnalyst,
		Title:    agent.Title(agent.RoleDataAnalyst, location),
		Findings: []agent.Finding{},
		Trends:   []agent.TrendSummary{},
	}
	if ds == nil {
		if !o.cfg.DemoFallback {
			res.Err = agent.NewFailure(agent.ErrNoDataset)
			return res
		}
		o.logger.Debug("using demo dataset", zap.String("location", location))
		ds = dataset.Demo(location)
	}
	if o.analyzer == nil {
		res.Err = agent.NewFailure(fmt.Errorf("%w: no analyzer configured", agent.ErrNoDataset))
		return res
	}

	trends, err := o.analyzer.Analyze(ds)
	if err != nil {
		o.logger.Warn("dataset rejected", zap.String("location", location), zap.Error(err))
		res.Err = agent.NewFailure(err)
		return res
	}
	res.Trends = trends
	return res
}

func (o *Orchestrator) publishResult(ctx context.Context, runID, location string, res agent.Result) {
	ev := &RunEvent{RunID: runID, Type: EventResult, Role: res.Role, Location: location}
	if res.Err != nil {
		ev.Type = EventFailed
		ev.Payload = res.Err.Message
	} else {
		ev.Payload = fmt.Sprintf("%d findings, %d trends", len(res.Findings), len(res.Trends))
	}
	o.publish(ctx, ev)
}

func (o *Orchestrator) publish(ctx context.Context, ev *RunEvent) {
	if o.events == nil {
		return
	}
	ev.ID = uuid.New().String()
	ev.Timestamp = time.Now()
	if err := o.events.Publish(ctx, ev); err != nil {
		o.logger.Warn("publish run event failed",
			zap.String("run", ev.RunID),
			zap.String("type", string(ev.Type)),
			zap.Error(err))
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
