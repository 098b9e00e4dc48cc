package diversity

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/inodb/vibe-entropy/internal/tree"
)

// AllCDS computes amino acid bars for every CDS of the genome using a pool
// of workers. Results are returned in genome model order. If workers is 0,
// runtime.NumCPU() is used. AllCDS does not touch the memoized result.
func (c *Calculator) AllCDS(ctx context.Context, mask []tree.Visibility, countsOnly bool, workers int) ([]*Bars, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	cds := c.genome.AllCDS()
	results := make([]*Bars, len(cds))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, cd := range cds {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = c.compute(mask, SingleCDS(cd), countsOnly)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
