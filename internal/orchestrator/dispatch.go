package orchestrator

import (
	"context"

	"github.com/nidhogg/taskforce/internal/agent"
	"golang.org/x/sync/errgroup"
)

// dispatch invokes roles and returns their results in the order given.
// With Parallel > 1 the invocations run concurrently, each writing only its
// own slot of the result slice.
func (o *Orchestrator) dispatch(ctx context.Context, runID string, roles []agent.Role, req TeamRequest) []agent.Result {
	results := make([]agent.Result, len(roles))
	if o.cfg.Parallel <= 1 || len(roles) <= 1 {
		for i, role := range roles {
			results[i] = o.invoke(ctx, runID, role, req)
		}
		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Parallel)
	for i, role := range roles {
		i, role := i, role
		g.Go(func() error {
			results[i] = o.invoke(gctx, runID, role, req)
			return nil
		})
	}
	_ = g.Wait() // failures are recorded in each Result
	return results
}
