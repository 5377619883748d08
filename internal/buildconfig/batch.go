package buildconfig

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Request pairs a raw descriptor with the project root it resolves against.
type Request struct {
	Name        string
	Raw         RawConfig
	ProjectRoot string
}

// ResolveAll resolves independent requests concurrently. Results are returned
// in request order; the first failure cancels the remaining work.
func (r *Resolver) ResolveAll(ctx context.Context, requests []Request) ([]BuildConfig, error) {
	results := make([]BuildConfig, len(requests))

	g, ctx := errgroup.WithContext(ctx)
	for i, req := range requests {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			cfg, err := r.Resolve(req.Raw, req.ProjectRoot)
			if err != nil {
				return fmt.Errorf("%s: %w", cond(req.Name != "", req.Name, req.ProjectRoot), err)
			}

			results[i] = cfg
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
