package search

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Throttled limits how often the wrapped source is queried.
type Throttled struct {
	src     Source
	limiter *rate.Limiter
}

// Throttle wraps src so that calls are spaced by limiter.
func Throttle(src Source, limiter *rate.Limiter) *Throttled {
	return &Throttled{src: src, limiter: limiter}
}

func (t *Throttled) Name() string { return t.src.Name() }

func (t *Throttled) Search(ctx context.Context, query string, limit int) ([]Item, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s rate limit: %w", t.src.Name(), err)
	}
	return t.src.Search(ctx, query, limit)
}
