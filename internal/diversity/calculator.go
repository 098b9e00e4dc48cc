package diversity

import (
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/inodb/vibe-entropy/internal/genome"
	"github.com/inodb/vibe-entropy/internal/tree"
)

type request struct {
	sel        Selection
	countsOnly bool
	mask       []tree.Visibility
}

func (r *request) equal(sel Selection, countsOnly bool, mask []tree.Visibility) bool {
	return r.sel == sel && r.countsOnly == countsOnly && slices.Equal(r.mask, mask)
}

// Calculator computes diversity bars for one dataset and remembers the
// last result. It is safe for concurrent use.
type Calculator struct {
	genome *genome.Genome
	nodes  []*tree.Node
	agg    *Aggregator
	logger *zap.Logger

	mu   sync.Mutex
	last *request
	bars *Bars
}

// NewCalculator creates a calculator over an immutable genome and tree.
func NewCalculator(g *genome.Genome, nodes []*tree.Node) *Calculator {
	return &Calculator{
		genome: g,
		nodes:  nodes,
		agg:    NewAggregator(),
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for the calculator and its aggregator.
func (c *Calculator) SetLogger(l *zap.Logger) {
	c.logger = l
	c.agg.SetLogger(l)
}

// Genome returns the annotation the calculator was built with.
func (c *Calculator) Genome() *genome.Genome {
	return c.genome
}

// Nodes returns the flattened tree.
func (c *Calculator) Nodes() []*tree.Node {
	return c.nodes
}

// Compute returns the bars for a selection. A request identical to the
// previous one returns the previous result.
func (c *Calculator) Compute(mask []tree.Visibility, sel Selection, countsOnly bool) *Bars {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.last != nil && c.last.equal(sel, countsOnly, mask) {
		c.logger.Debug("reusing diversity bars", zap.String("region", sel.Key()))
		return c.bars
	}

	bars := c.compute(mask, sel, countsOnly)
	c.last = &request{sel: sel, countsOnly: countsOnly, mask: slices.Clone(mask)}
	c.bars = bars
	return bars
}

func (c *Calculator) compute(mask []tree.Visibility, sel Selection, countsOnly bool) *Bars {
	res := c.agg.Aggregate(c.nodes, mask, sel, countsOnly)
	c.logger.Debug("computed diversity",
		zap.String("region", sel.Key()),
		zap.Bool("counts", countsOnly),
		zap.Int("positions", len(res.Points)),
		zap.Float64("max", res.Max))
	return BuildBars(c.genome, sel, res, countsOnly)
}
