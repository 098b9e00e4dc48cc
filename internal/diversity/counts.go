package diversity

import (
	"github.com/inodb/vibe-entropy/internal/tree"
)

// Counts returns, per position, the number of visible branches carrying a
// mutation there. Internal nodes count as well as tips.
func (a *Aggregator) Counts(nodes []*tree.Node, mask []tree.Visibility, sel Selection) Result {
	sparse := make(map[int]int)
	for _, n := range nodes {
		if !tree.IsVisible(mask, n) {
			continue
		}
		for _, m := range a.branchMutations(n, sel) {
			sparse[m.Pos]++
		}
	}

	res := Result{Points: make([]Point, 0, len(sparse))}
	for _, pos := range sortedKeys(sparse) {
		y := float64(sparse[pos])
		if y > res.Max {
			res.Max = y
		}
		res.Points = append(res.Points, Point{Pos: pos, Y: y})
	}
	return res
}
