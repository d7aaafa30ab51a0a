package downloader

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// runPool calls job for every index in [0, total) on at most workers
// goroutines. The first error cancels the pool context and is returned;
// jobs not yet started are skipped.
func runPool(ctx context.Context, workers, total int, job func(ctx context.Context, i int) error) error {
	if total == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(workers, total)))

	for i := 0; i < total; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return job(gctx, i)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
