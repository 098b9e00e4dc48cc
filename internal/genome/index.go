package genome

import (
	"fmt"
	"sort"

	"github.com/biogo/store/interval"
)

// segmentInterval is one CDS segment in the index. Ranges are stored
// half-open: [RangeGenome.Start, RangeGenome.End+1).
type segmentInterval struct {
	start, end int
	uid        uintptr
	order      int // position of the CDS in gene order
	cds        *CDS
	segment    *Segment
}

func (i segmentInterval) Overlap(b interval.IntRange) bool {
	return i.end > b.Start && i.start < b.End
}

func (i segmentInterval) ID() uintptr {
	return i.uid
}

func (i segmentInterval) Range() interval.IntRange {
	return interval.IntRange{Start: i.start, End: i.end}
}

// point is a single-position query against the index.
type point int

func (p point) Overlap(b interval.IntRange) bool {
	return int(p) < b.End && int(p)+1 > b.Start
}

// Hit is a CDS segment covering a queried genome position.
type Hit struct {
	CDS     *CDS
	Segment *Segment
	order   int
}

// Index answers "which CDS segments cover this position" in O(log n + k).
type Index struct {
	tree interval.IntTree
}

// BuildIndex indexes every segment of every CDS of the first chromosome.
func BuildIndex(g *Genome) (*Index, error) {
	idx := &Index{}
	uid := uintptr(0)
	for order, c := range g.AllCDS() {
		for i := range c.Segments {
			seg := &c.Segments[i]
			iv := segmentInterval{
				start:   seg.RangeGenome.Start,
				end:     seg.RangeGenome.End + 1,
				uid:     uid,
				order:   order,
				cds:     c,
				segment: seg,
			}
			if err := idx.tree.Insert(iv, true); err != nil {
				return nil, fmt.Errorf("index segment %d of %s: %w", seg.SegmentNumber, c.Name, err)
			}
			uid++
		}
	}
	idx.tree.AdjustRanges()
	return idx, nil
}

// Lookup returns the segments covering pos, ordered as the CDSs appear in the
// genome model and then by segment number.
func (idx *Index) Lookup(pos int) []Hit {
	if idx == nil || idx.tree.Len() == 0 {
		return nil
	}
	var hits []Hit
	for _, iv := range idx.tree.Get(point(pos)) {
		si := iv.(segmentInterval)
		hits = append(hits, Hit{CDS: si.cds, Segment: si.segment, order: si.order})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].order != hits[j].order {
			return hits[i].order < hits[j].order
		}
		return hits[i].Segment.SegmentNumber < hits[j].Segment.SegmentNumber
	})
	return hits
}

// Len returns the number of indexed segments.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return idx.tree.Len()
}
