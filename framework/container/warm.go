package container

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Warm builds every eager binding in the scope that declares it, concurrently.
// Bindings already cached are left alone. The first failure, or ctx being
// done, stops constructions that have not started yet and is returned.
func (t *Tree) Warm(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for _, node := range t.nodes {
		for _, key := range node.keys {
			if !node.bindings[key].Eager {
				continue
			}
			id, key := node.id, key
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				_, err := t.resolve(key, id, nil)
				return err
			})
		}
	}

	if err := g.Wait(); err != nil {
		return err
	}
	t.logger.Debug("eager bindings warmed")
	return nil
}
