package assembly

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Input is one construction request for ConstructAll.
type Input struct {
	Options Options
	Build   BuildFunc
}

// ConstructAll constructs one instance per input concurrently, bounded by
// Config.MaxConcurrency. Results keep input order. The first failure cancels
// the inputs that have not started yet and is returned with its index.
func (s *Schema[T]) ConstructAll(ctx context.Context, inputs []Input) ([]*T, error) {
	out := make([]*T, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	if s.cfg.MaxConcurrency > 0 {
		g.SetLimit(s.cfg.MaxConcurrency)
	}
	for i, in := range inputs {
		i, in := i, in
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			inst, err := s.ConstructContext(gctx, in.Options, in.Build)
			if err != nil {
				return fmt.Errorf("assembly: input %d: %w", i, err)
			}
			out[i] = inst
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
