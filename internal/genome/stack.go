package genome

import "sort"

// assignStackPositions gives every CDS on the strand a 1-based row such that
// CDSs sharing a row never overlap. It returns the number of rows used.
func assignStackPositions(genes []*Gene, strand int8) int {
	var cdss []*CDS
	for _, g := range genes {
		for _, c := range g.CDS {
			if c.Strand == strand {
				cdss = append(cdss, c)
			}
		}
	}
	sort.SliceStable(cdss, func(i, j int) bool {
		return cdss[i].GenomeExtent().Start < cdss[j].GenomeExtent().Start
	})

	var stack []*CDS
	height := 0
	for _, c := range cdss {
		start := c.GenomeExtent().Start

		// Drop CDSs that ended before this one starts.
		kept := stack[:0]
		for _, s := range stack {
			if s.GenomeExtent().End >= start {
				kept = append(kept, s)
			}
		}
		stack = kept

		rows := make([]int, 0, len(stack))
		for _, s := range stack {
			rows = append(rows, s.StackPosition)
		}
		sort.Ints(rows)

		switch {
		case emptySlot(rows) > 0:
			c.StackPosition = emptySlot(rows)
		case fitBetweenSegments(stack, c) > 0:
			c.StackPosition = fitBetweenSegments(stack, c)
		case len(rows) > 0:
			c.StackPosition = rows[len(rows)-1] + 1
		default:
			c.StackPosition = 1
		}
		stack = append(stack, c)
		if c.StackPosition > height {
			height = c.StackPosition
		}
	}
	return height
}

// emptySlot returns the lowest unused row below the highest used one, or 0.
func emptySlot(rows []int) int {
	if len(rows) > 0 && rows[0] > 1 {
		return 1
	}
	for i := 1; i < len(rows); i++ {
		if rows[i]-rows[i-1] > 1 {
			return rows[i-1] + 1
		}
	}
	return 0
}

// fitBetweenSegments returns the row of a multi-segment CDS in the stack whose
// gap between two segments fully contains c, provided nothing else in that row
// occupies the gap. Returns 0 if there is no such row.
func fitBetweenSegments(stack []*CDS, c *CDS) int {
	ext := c.GenomeExtent()
	for _, other := range stack {
		if len(other.Segments) < 2 {
			continue
		}
		segs := make([]Segment, len(other.Segments))
		copy(segs, other.Segments)
		sort.Slice(segs, func(i, j int) bool {
			return segs[i].RangeGenome.Start < segs[j].RangeGenome.Start
		})
		for i := 0; i < len(segs)-1; i++ {
			if segs[i].RangeGenome.End >= ext.Start || segs[i+1].RangeGenome.Start <= ext.End {
				continue
			}
			if !rowOccupied(stack, other.StackPosition, ext) {
				return other.StackPosition
			}
		}
	}
	return 0
}

func rowOccupied(stack []*CDS, row int, r Range) bool {
	for _, s := range stack {
		if s.StackPosition != row {
			continue
		}
		for _, seg := range s.Segments {
			if seg.RangeGenome.End >= r.Start && seg.RangeGenome.Start <= r.End {
				return true
			}
		}
	}
	return false
}
