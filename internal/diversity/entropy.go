package diversity

import (
	"maps"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/inodb/vibe-entropy/internal/tree"
)

// entropyState accumulates symbol counts at visible tips.
type entropyState struct {
	ancestral   map[int]string         // first-seen "from" symbol per position
	counts      map[int]map[string]int // position -> symbol -> visible tips
	visibleTips int
}

// Entropy returns the Shannon entropy (natural log) of the symbol
// distribution across visible tips at every position mutated somewhere on
// the path to a visible tip. Tips with no mutation at a position carry the
// ancestral symbol.
func (a *Aggregator) Entropy(nodes []*tree.Node, mask []tree.Visibility, sel Selection) Result {
	res := Result{Points: []Point{}}
	if len(nodes) == 0 {
		return res
	}

	st := &entropyState{
		ancestral: make(map[int]string),
		counts:    make(map[int]map[string]int),
	}
	a.walk(nodes[0], map[int]string{}, mask, sel, st)
	if st.visibleTips == 0 {
		return res
	}

	for _, pos := range sortedKeys(st.counts) {
		symbols := st.counts[pos]
		observed := 0
		for _, c := range symbols {
			observed += c
		}
		if unobserved := st.visibleTips - observed; unobserved > 0 {
			symbols[st.ancestral[pos]] += unobserved
		}

		h := shannon(symbols, st.visibleTips)
		if h > res.Max {
			res.Max = h
		}
		res.Points = append(res.Points, Point{Pos: pos, Y: h})
	}
	return res
}

// walk applies the branch mutations of n to state and recurses. Each child
// receives its own copy of the state so siblings never see each other's
// mutations.
func (a *Aggregator) walk(n *tree.Node, state map[int]string, mask []tree.Visibility, sel Selection, st *entropyState) {
	for _, m := range a.branchMutations(n, sel) {
		if _, ok := st.ancestral[m.Pos]; !ok {
			st.ancestral[m.Pos] = m.From
		}
		state[m.Pos] = m.To
	}

	if n.HasChildren() {
		for _, child := range n.Children {
			a.walk(child, maps.Clone(state), mask, sel, st)
		}
		return
	}

	if !tree.IsVisible(mask, n) {
		return
	}
	st.visibleTips++
	for pos, sym := range state {
		if st.counts[pos] == nil {
			st.counts[pos] = make(map[string]int)
		}
		st.counts[pos][sym]++
	}
}

// shannon returns -Σ p ln p over the symbol frequencies.
func shannon(symbols map[string]int, total int) float64 {
	keys := slices.Sorted(maps.Keys(symbols))
	p := make([]float64, len(keys))
	for i, k := range keys {
		p[i] = float64(symbols[k]) / float64(total)
	}
	h := stat.Entropy(p)
	if h <= 0 {
		// A single symbol gives -0.
		return 0
	}
	return h
}
