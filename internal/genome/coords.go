package genome

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrCodonOutOfRange is returned for amino acid positions outside a CDS.
var ErrCodonOutOfRange = errors.New("codon out of range")

// Codon holds the genome positions of one codon of a CDS.
type Codon struct {
	Number      int   // 1-based amino acid position
	Nucleotides []int // genome positions, translation order
	Frames      []int // frame of each segment the codon lies in
}

// FrameLabel describes the frame(s) of the codon, e.g. "frame 2" or
// "frames 2 → 1" for a codon bridging two segments.
func (c Codon) FrameLabel() string {
	if len(c.Frames) == 0 {
		return ""
	}
	if len(c.Frames) == 1 {
		return "frame " + strconv.Itoa(c.Frames[0])
	}
	parts := make([]string, len(c.Frames))
	for i, f := range c.Frames {
		parts[i] = strconv.Itoa(f)
	}
	return "frames " + strings.Join(parts, " → ")
}

// LocalToGenome converts a CDS-local nucleotide position (1-based) to a genome
// position. Returns 0 if the position is outside the CDS.
func LocalToGenome(cds *CDS, local int) int {
	seg := segmentForLocal(cds, local)
	if seg == nil {
		return 0
	}
	return localToGenome(cds, seg, local)
}

func localToGenome(cds *CDS, seg *Segment, local int) int {
	offset := local - seg.RangeLocal.Start
	if cds.IsReverseStrand() {
		return seg.RangeGenome.End - offset
	}
	return seg.RangeGenome.Start + offset
}

func genomeToLocal(cds *CDS, seg *Segment, pos int) int {
	if cds.IsReverseStrand() {
		return seg.RangeLocal.Start + seg.RangeGenome.End - pos
	}
	return seg.RangeLocal.Start + pos - seg.RangeGenome.Start
}

func segmentForLocal(cds *CDS, local int) *Segment {
	for i := range cds.Segments {
		if cds.Segments[i].RangeLocal.Contains(local) {
			return &cds.Segments[i]
		}
	}
	return nil
}

// AaPositionToNucCoordinates returns the genome positions of the codon at
// 1-based amino acid position aaPos, in translation order: ascending for
// forward-strand CDSs and descending for reverse-strand ones. Codons bridging
// segments, including across the origin, are resolved per nucleotide. A
// trailing partial codon yields fewer than three positions.
func AaPositionToNucCoordinates(cds *CDS, aaPos int) (Codon, error) {
	first := (aaPos-1)*3 + 1
	if aaPos < 1 || first > cds.Length {
		return Codon{}, fmt.Errorf("%w: %s has %d codons, requested %d",
			ErrCodonOutOfRange, cds.Name, cds.NumCodons(), aaPos)
	}

	codon := Codon{Number: aaPos}
	var last *Segment
	for local := first; local < first+3 && local <= cds.Length; local++ {
		seg := segmentForLocal(cds, local)
		if seg == nil {
			break
		}
		if seg != last {
			codon.Frames = append(codon.Frames, seg.Frame)
			last = seg
		}
		codon.Nucleotides = append(codon.Nucleotides, localToGenome(cds, seg, local))
	}
	return codon, nil
}

// GenomeRangeToCdsLocalRange maps a genome view [view.Start, view.End] onto
// the CDS-local nucleotide range it shows. The second return value is false
// when either bound lies outside the CDS's genome extent or the view covers no
// CDS nucleotide.
//
// Bounds falling between segments snap inwards to the nearest segment. When a
// bound is shared by two segments (a -1 frameshift), the first segment met
// scanning in genome order wins. The result is widened to whole codons but
// never beyond [1, cds.Length].
//
// A view that straddles the origin is not supported; callers split it at the
// origin first.
func GenomeRangeToCdsLocalRange(cds *CDS, view Range) (Range, bool) {
	if len(cds.Segments) == 0 || view.Start > view.End {
		return Range{}, false
	}
	ext := cds.GenomeExtent()
	if view.Start < ext.Start || view.End > ext.End {
		return Range{}, false
	}

	// A view covering every segment shows the whole CDS.
	covered := true
	for _, s := range cds.Segments {
		if s.RangeGenome.Start < view.Start || s.RangeGenome.End > view.End {
			covered = false
			break
		}
	}
	if covered {
		return Range{Start: 1, End: cds.Length}, true
	}

	byGenome := make([]*Segment, len(cds.Segments))
	for i := range cds.Segments {
		byGenome[i] = &cds.Segments[i]
	}
	sort.SliceStable(byGenome, func(i, j int) bool {
		return byGenome[i].RangeGenome.Start < byGenome[j].RangeGenome.Start
	})

	lowSeg, lowPos := snapLow(byGenome, view.Start)
	highSeg, highPos := snapHigh(byGenome, view.End)
	if lowSeg == nil || highSeg == nil || lowPos > highPos {
		return Range{}, false
	}

	a := genomeToLocal(cds, lowSeg, lowPos)
	b := genomeToLocal(cds, highSeg, highPos)
	if cds.IsReverseStrand() {
		a, b = b, a
	}
	if a > b {
		return Range{}, false
	}

	a = (a-1)/3*3 + 1
	b = (b + 2) / 3 * 3
	if b > cds.Length {
		b = cds.Length
	}
	return Range{Start: a, End: b}, true
}

// snapLow finds the segment containing pos, or else the first segment to its
// right, scanning in genome order.
func snapLow(segs []*Segment, pos int) (*Segment, int) {
	for _, s := range segs {
		if s.RangeGenome.Contains(pos) {
			return s, pos
		}
	}
	for _, s := range segs {
		if s.RangeGenome.Start > pos {
			return s, s.RangeGenome.Start
		}
	}
	return nil, 0
}

// snapHigh finds the segment containing pos, or else the last segment to its
// left, scanning in genome order.
func snapHigh(segs []*Segment, pos int) (*Segment, int) {
	for _, s := range segs {
		if s.RangeGenome.Contains(pos) {
			return s, pos
		}
	}
	for i := len(segs) - 1; i >= 0; i-- {
		if segs[i].RangeGenome.End < pos {
			return segs[i], segs[i].RangeGenome.End
		}
	}
	return nil, 0
}

// AaPosition is one CDS-local interpretation of a genome position.
type AaPosition struct {
	CDS      *CDS
	NucLocal int // 1-based nucleotide position within the CDS
	AaLocal  int // 1-based codon number
}

// NucleotideToAaPosition returns every CDS-local position the genome position
// maps to, ordered as the CDSs appear in the model. Overlapping CDSs each give
// a result, and a position shared by two segments of the same CDS (a -1
// frameshift) gives one result per segment.
func (g *Genome) NucleotideToAaPosition(pos int) []AaPosition {
	var result []AaPosition
	for _, h := range g.lookup(pos) {
		local := genomeToLocal(h.CDS, h.Segment, pos)
		result = append(result, AaPosition{
			CDS:      h.CDS,
			NucLocal: local,
			AaLocal:  (local-1)/3 + 1,
		})
	}
	return result
}

// lookup uses the segment index when available, else scans the model.
func (g *Genome) lookup(pos int) []Hit {
	if g.index != nil {
		return g.index.Lookup(pos)
	}
	var hits []Hit
	for order, c := range g.AllCDS() {
		for i := range c.Segments {
			if c.Segments[i].RangeGenome.Contains(pos) {
				hits = append(hits, Hit{CDS: c, Segment: &c.Segments[i], order: order})
			}
		}
	}
	return hits
}

// GeneAt returns the first gene (in model order) with a CDS covering pos,
// together with that CDS. Both are nil for intergenic positions.
func (g *Genome) GeneAt(pos int) (*Gene, *CDS) {
	hits := g.lookup(pos)
	if len(hits) == 0 {
		return nil, nil
	}
	return g.GeneOf(hits[0].CDS), hits[0].CDS
}
