package diversity

import (
	"slices"

	"go.uber.org/zap"

	"github.com/inodb/vibe-entropy/internal/tree"
)

// Point is the value computed for one genome position or codon.
type Point struct {
	Pos int // genome position (nucleotide) or codon number (amino acid)
	Y   float64
}

// Result holds per-position values in ascending position order.
type Result struct {
	Points []Point
	Max    float64
}

// Aggregator computes counts or entropy from branch mutations.
// It never modifies the nodes it is given.
type Aggregator struct {
	logger *zap.Logger
}

// NewAggregator creates an aggregator with a no-op logger.
func NewAggregator() *Aggregator {
	return &Aggregator{logger: zap.NewNop()}
}

// SetLogger sets the logger used for malformed mutation warnings.
func (a *Aggregator) SetLogger(l *zap.Logger) {
	a.logger = l
}

// Aggregate dispatches to Counts or Entropy.
func (a *Aggregator) Aggregate(nodes []*tree.Node, mask []tree.Visibility, sel Selection, countsOnly bool) Result {
	if countsOnly {
		return a.Counts(nodes, mask, sel)
	}
	return a.Entropy(nodes, mask, sel)
}

// branchMutations returns the parsed, informative mutations of the selected
// region on the branch leading to n.
func (a *Aggregator) branchMutations(n *tree.Node, sel Selection) []tree.Mutation {
	var raw []string
	if sel.IsGenome() {
		raw = n.NucMutations()
	} else {
		raw = n.AaMutations(sel.CDS.Name)
	}
	if len(raw) == 0 {
		return nil
	}
	muts := make([]tree.Mutation, 0, len(raw))
	for _, s := range raw {
		m, err := tree.ParseMutation(s)
		if err != nil {
			a.logger.Warn("skipping mutation",
				zap.String("node", n.Name),
				zap.String("region", sel.Key()),
				zap.Error(err))
			continue
		}
		if sel.IsGenome() && m.IsUninformativeNucleotide() {
			continue
		}
		if !sel.IsGenome() && m.IsUninformativeAminoAcid() {
			continue
		}
		muts = append(muts, m)
	}
	return muts
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
