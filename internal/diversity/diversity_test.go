package diversity

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/inodb/vibe-entropy/internal/genome"
	"github.com/inodb/vibe-entropy/internal/tree"
)

const testAnnotations = `{
	"nuc": {"start": 1, "end": 100, "strand": "+"},
	"GENE1": {"start": 1, "end": 12, "strand": "+"},
	"GENE2": {"start": 40, "end": 60, "strand": "+"}
}`

// ROOT -> tipX, tipY, internalNodeZ -> tipZ
const testTree = `{
	"name": "ROOT",
	"children": [
		{"name": "tipX", "branch_attrs": {"mutations": {"nuc": ["A5T", "A10T"], "GENE2": ["L4M"]}}},
		{"name": "tipY", "branch_attrs": {"mutations": {"nuc": ["A5G"], "GENE2": ["L4P"]}}},
		{"name": "internalNodeZ", "branch_attrs": {"mutations": {"nuc": ["A5C", "A15T"], "GENE1": ["A1B"]}},
		 "children": [
			{"name": "tipZ", "branch_attrs": {"mutations": {"nuc": ["A5G"], "GENE2": ["L4S"]}}}
		 ]}
	]
}`

type fixture struct {
	genome *genome.Genome
	nodes  []*tree.Node
	gene1  *genome.CDS
	gene2  *genome.CDS
}

func loadFixture(t *testing.T) fixture {
	t.Helper()
	g, err := genome.NewParser().Parse([]byte(testAnnotations))
	require.NoError(t, err)
	nodes, err := tree.ParseJSON([]byte(testTree))
	require.NoError(t, err)
	f := fixture{genome: g, nodes: nodes, gene1: g.CDSByName("GENE1"), gene2: g.CDSByName("GENE2")}
	require.NotNil(t, f.gene1)
	require.NotNil(t, f.gene2)
	return f
}

// entropyOf computes -Σ p ln p from raw symbol counts.
func entropyOf(counts ...int) float64 {
	total := 0
	for _, c := range counts {
		total += c
	}
	h := 0.0
	for _, c := range counts {
		p := float64(c) / float64(total)
		h -= p * math.Log(p)
	}
	return h
}

func assertPoints(t *testing.T, want []Point, got []Point) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Pos, got[i].Pos, "point %d position", i)
		assert.InDelta(t, want[i].Y, got[i].Y, 1e-12, "point %d (pos %d) value", i, want[i].Pos)
	}
}

func TestCounts_Nucleotide(t *testing.T) {
	f := loadFixture(t)
	agg := NewAggregator()

	res := agg.Counts(f.nodes, tree.AllVisible(len(f.nodes)), WholeGenome())
	assertPoints(t, []Point{{5, 4}, {10, 1}, {15, 1}}, res.Points)
	assert.Equal(t, 4.0, res.Max)

	mask := tree.Hide(f.nodes, tree.AllVisible(len(f.nodes)), "tipZ")
	res = agg.Counts(f.nodes, mask, WholeGenome())
	assertPoints(t, []Point{{5, 3}, {10, 1}, {15, 1}}, res.Points)
	assert.Equal(t, 3.0, res.Max)
}

func TestCounts_AminoAcid(t *testing.T) {
	f := loadFixture(t)
	agg := NewAggregator()
	mask := tree.AllVisible(len(f.nodes))

	res := agg.Counts(f.nodes, mask, SingleCDS(f.gene1))
	assertPoints(t, []Point{{1, 1}}, res.Points)

	res = agg.Counts(f.nodes, mask, SingleCDS(f.gene2))
	assertPoints(t, []Point{{4, 3}}, res.Points)
	assert.Equal(t, 3.0, res.Max)
}

func TestCounts_VisibleToMapOnlyExcluded(t *testing.T) {
	f := loadFixture(t)
	mask := tree.AllVisible(len(f.nodes))
	mask[tree.Find(f.nodes, "tipX").ArrayIdx] = tree.VisibleToMapOnly

	res := NewAggregator().Counts(f.nodes, mask, WholeGenome())
	assertPoints(t, []Point{{5, 3}, {15, 1}}, res.Points)
}

func TestEntropy_AllVisible(t *testing.T) {
	f := loadFixture(t)
	agg := NewAggregator()
	mask := tree.AllVisible(len(f.nodes))

	res := agg.Entropy(f.nodes, mask, WholeGenome())
	h := entropyOf(1, 2)
	assertPoints(t, []Point{{5, h}, {10, h}, {15, h}}, res.Points)
	assert.InDelta(t, h, res.Max, 1e-12)

	res = agg.Entropy(f.nodes, mask, SingleCDS(f.gene1))
	assertPoints(t, []Point{{1, entropyOf(1, 2)}}, res.Points)

	res = agg.Entropy(f.nodes, mask, SingleCDS(f.gene2))
	assertPoints(t, []Point{{4, entropyOf(1, 1, 1)}}, res.Points)
	assert.InDelta(t, math.Log(3), res.Max, 1e-12)
}

func TestEntropy_HiddenTips(t *testing.T) {
	f := loadFixture(t)
	agg := NewAggregator()
	mask := tree.Hide(f.nodes, tree.AllVisible(len(f.nodes)), "tipX", "tipY")

	res := agg.Entropy(f.nodes, mask, WholeGenome())
	assertPoints(t, []Point{{5, 0}, {15, 0}}, res.Points)
	assert.Equal(t, 0.0, res.Max)
	for _, p := range res.Points {
		assert.False(t, math.Signbit(p.Y), "entropy must not be negative zero")
	}

	res = agg.Entropy(f.nodes, mask, SingleCDS(f.gene1))
	assertPoints(t, []Point{{1, 0}}, res.Points)

	res = agg.Entropy(f.nodes, mask, SingleCDS(f.gene2))
	assertPoints(t, []Point{{4, 0}}, res.Points)
}

func TestEntropy_TwoTipsSplit(t *testing.T) {
	nodes, err := tree.ParseJSON([]byte(`{
		"name": "ROOT",
		"children": [
			{"name": "a", "branch_attrs": {"mutations": {"nuc": ["C7T"]}}},
			{"name": "b"}
		]
	}`))
	require.NoError(t, err)

	res := NewAggregator().Entropy(nodes, tree.AllVisible(len(nodes)), WholeGenome())
	assertPoints(t, []Point{{7, math.Ln2}}, res.Points)
}

func TestEntropy_AncestralStateFirstSeen(t *testing.T) {
	// The root branch sets the ancestral symbol; a later mutation at the same
	// position with a different "from" symbol does not replace it.
	nodes, err := tree.ParseJSON([]byte(`{
		"name": "ROOT",
		"children": [
			{"name": "a", "branch_attrs": {"mutations": {"nuc": ["A3G"]}}},
			{"name": "b", "branch_attrs": {"mutations": {"nuc": ["C3T"]}}},
			{"name": "c"},
			{"name": "d"}
		]
	}`))
	require.NoError(t, err)

	res := NewAggregator().Entropy(nodes, tree.AllVisible(len(nodes)), WholeGenome())
	// G:1, T:1, A (ancestral, unobserved tips):2
	assertPoints(t, []Point{{3, entropyOf(1, 1, 2)}}, res.Points)
}

func TestEntropy_SiblingsIndependent(t *testing.T) {
	nodes, err := tree.ParseJSON([]byte(`{
		"name": "ROOT",
		"children": [
			{"name": "inner", "branch_attrs": {"mutations": {"nuc": ["A1G"]}},
			 "children": [
				{"name": "a", "branch_attrs": {"mutations": {"nuc": ["G1T"]}}},
				{"name": "b"}
			 ]}
		]
	}`))
	require.NoError(t, err)

	res := NewAggregator().Entropy(nodes, tree.AllVisible(len(nodes)), WholeGenome())
	// a carries T, b inherits G from inner and must not see a's T.
	assertPoints(t, []Point{{1, math.Ln2}}, res.Points)
}

func TestAggregate_EmptyInputs(t *testing.T) {
	f := loadFixture(t)
	agg := NewAggregator()
	hidden := make([]tree.Visibility, len(f.nodes))

	for _, countsOnly := range []bool{true, false} {
		res := agg.Aggregate(f.nodes, hidden, WholeGenome(), countsOnly)
		assert.Empty(t, res.Points)
		assert.Equal(t, 0.0, res.Max)

		res = agg.Aggregate(nil, nil, WholeGenome(), countsOnly)
		assert.Empty(t, res.Points)
		assert.Equal(t, 0.0, res.Max)
	}

	// A mask shorter than the tree treats the missing nodes as not visible.
	res := agg.Counts(f.nodes, tree.AllVisible(2), WholeGenome())
	assertPoints(t, []Point{{5, 1}, {10, 1}}, res.Points)
}

func TestAggregate_UninformativeAndMalformed(t *testing.T) {
	nodes, err := tree.ParseJSON([]byte(`{
		"name": "ROOT",
		"children": [
			{"name": "a", "branch_attrs": {"mutations": {
				"nuc": ["A2N", "-3A", "garbage", "C4T"],
				"ORF": ["X1A", "L2P"]
			}}},
			{"name": "b"}
		]
	}`))
	require.NoError(t, err)

	core, logs := observer.New(zap.WarnLevel)
	agg := NewAggregator()
	agg.SetLogger(zap.New(core))
	mask := tree.AllVisible(len(nodes))

	res := agg.Counts(nodes, mask, WholeGenome())
	assertPoints(t, []Point{{4, 1}}, res.Points)
	assert.Equal(t, 1, logs.FilterMessage("skipping mutation").Len())

	orf := &genome.CDS{Name: "ORF", Length: 30, Color: "#fff"}
	res = agg.Entropy(nodes, mask, SingleCDS(orf))
	assertPoints(t, []Point{{2, math.Ln2}}, res.Points)
}

func TestBuildBars_Nucleotide(t *testing.T) {
	f := loadFixture(t)
	mask := tree.AllVisible(len(f.nodes))
	res := NewAggregator().Counts(f.nodes, mask, WholeGenome())

	bars := BuildBars(f.genome, WholeGenome(), res, true)
	assert.Equal(t, "nuc", bars.Region)
	assert.Equal(t, "counts", bars.Mode())
	assert.Equal(t, 4.0, bars.MaxY)
	assert.Equal(t, []Bar{
		{X: 5, Y: 4, Prot: "GENE1", Fill: f.gene1.Color},
		{X: 10, Y: 1, Prot: "GENE1", Fill: f.gene1.Color},
		{X: 15, Y: 1},
	}, bars.Bars)
}

func TestBuildBars_AminoAcidEntropyRounded(t *testing.T) {
	f := loadFixture(t)
	mask := tree.AllVisible(len(f.nodes))
	sel := SingleCDS(f.gene2)
	res := NewAggregator().Entropy(f.nodes, mask, sel)

	bars := BuildBars(f.genome, sel, res, false)
	assert.Equal(t, "GENE2", bars.Region)
	assert.Equal(t, "entropy", bars.Mode())
	assert.InDelta(t, math.Log(3), bars.MaxY, 1e-12)
	require.Len(t, bars.Bars, 1)
	assert.Equal(t, Bar{Codon: 4, Y: 1.099, Prot: "GENE2", Fill: f.gene2.Color}, bars.Bars[0])
}

func TestBuildBars_Empty(t *testing.T) {
	bars := BuildBars(nil, WholeGenome(), Result{}, false)
	assert.NotNil(t, bars.Bars)
	assert.Empty(t, bars.Bars)
	assert.Equal(t, 0.0, bars.MaxY)
}

func TestCombine(t *testing.T) {
	a := &Bars{Bars: []Bar{{Codon: 1, Y: 1, Prot: "A"}}, MaxY: 1, Region: "A", CountsOnly: true}
	b := &Bars{Bars: []Bar{{Codon: 2, Y: 3, Prot: "B"}}, MaxY: 3, Region: "B", CountsOnly: true}

	got := Combine([]*Bars{nil, a, b})
	assert.Equal(t, "aa", got.Region)
	assert.True(t, got.CountsOnly)
	assert.Equal(t, 3.0, got.MaxY)
	assert.Len(t, got.Bars, 2)

	assert.Equal(t, "A", Combine([]*Bars{a}).Region)
	assert.Empty(t, Combine(nil).Bars)
}

func TestSelection(t *testing.T) {
	assert.True(t, WholeGenome().IsGenome())
	assert.Equal(t, "nuc", WholeGenome().Key())

	cds := &genome.CDS{Name: "ORF1a"}
	sel := SingleCDS(cds)
	assert.False(t, sel.IsGenome())
	assert.Equal(t, "ORF1a", sel.String())

	// A CDS selection without a CDS falls back to the genome.
	assert.True(t, Selection{Kind: RegionCDS}.IsGenome())
}

func TestCalculator_Memoizes(t *testing.T) {
	f := loadFixture(t)
	calc := NewCalculator(f.genome, f.nodes)
	mask := tree.AllVisible(len(f.nodes))

	first := calc.Compute(mask, WholeGenome(), true)
	again := calc.Compute(tree.AllVisible(len(f.nodes)), WholeGenome(), true)
	assert.Same(t, first, again)

	// Changing the caller's mask in place must not leak into the memo.
	mask[tree.Find(f.nodes, "tipZ").ArrayIdx] = tree.NotVisible
	hidden := calc.Compute(mask, WholeGenome(), true)
	assert.NotSame(t, first, hidden)
	assert.Equal(t, 3.0, hidden.MaxY)

	entropy := calc.Compute(mask, WholeGenome(), false)
	assert.NotSame(t, hidden, entropy)
	assert.False(t, entropy.CountsOnly)

	aa := calc.Compute(mask, SingleCDS(f.gene2), false)
	assert.Equal(t, "GENE2", aa.Region)
}

func TestCalculator_AllCDS(t *testing.T) {
	f := loadFixture(t)
	calc := NewCalculator(f.genome, f.nodes)
	mask := tree.AllVisible(len(f.nodes))

	results, err := calc.AllCDS(context.Background(), mask, true, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "GENE1", results[0].Region)
	assert.Equal(t, "GENE2", results[1].Region)
	assert.Equal(t, []Bar{{Codon: 4, Y: 3, Prot: "GENE2", Fill: f.gene2.Color}}, results[1].Bars)

	combined := Combine(results)
	assert.Len(t, combined.Bars, 2)
	assert.Equal(t, 3.0, combined.MaxY)
}

func TestCalculator_AllCDSCancelled(t *testing.T) {
	f := loadFixture(t)
	calc := NewCalculator(f.genome, f.nodes)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := calc.AllCDS(ctx, tree.AllVisible(len(f.nodes)), false, 0)
	assert.ErrorIs(t, err, context.Canceled)
}
