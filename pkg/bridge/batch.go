package bridge

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// CallMany runs reqs concurrently, at most limit at a time (no limit when
// limit <= 0). Results are returned in request order. The first failure
// cancels the calls that have not finished and is returned.
func (b *Bridge) CallMany(ctx context.Context, reqs []Request, limit int) ([]any, error) {
	results := make([]any, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, req := range reqs {
		g.Go(func() error {
			v, err := b.Call(ctx, req)
			if err != nil {
				return fmt.Errorf("request %d (%s): %w", i, req.Function, err)
			}
			results[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Result is the outcome of one request in CallEach.
type Result struct {
	Value any
	Err   error
}

// CallEach is like CallMany but runs every request to completion and reports
// each outcome separately.
func (b *Bridge) CallEach(ctx context.Context, reqs []Request, limit int) []Result {
	results := make([]Result, len(reqs))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, req := range reqs {
		g.Go(func() error {
			v, err := b.Call(ctx, req)
			results[i] = Result{Value: v, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
