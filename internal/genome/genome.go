// Package genome models a genome annotation as chromosome → gene → CDS →
// CDS segment and maps coordinates between the genome and individual CDSs.
package genome

// Strand values, matching the +1/-1 convention used for transcripts.
const (
	StrandForward int8 = 1
	StrandReverse int8 = -1
)

// StrandSymbol returns "+" or "-" for a strand value.
func StrandSymbol(strand int8) string {
	if strand == StrandReverse {
		return "-"
	}
	return "+"
}

// Range is a 1-based, closed interval.
type Range struct {
	Start int
	End   int
}

// Len returns the number of positions in the range.
func (r Range) Len() int {
	return r.End - r.Start + 1
}

// Contains returns true if pos lies within the range.
func (r Range) Contains(pos int) bool {
	return pos >= r.Start && pos <= r.End
}

// Segment is a contiguous stretch of a CDS on the genome.
type Segment struct {
	RangeGenome   Range // always Start <= End, regardless of strand
	RangeLocal    Range // 1-based position within the CDS (translation order)
	SegmentNumber int   // 1-based, translation order
	Phase         int   // nt at the 5' end completing a codon from the previous segment
	Frame         int   // reading frame relative to the genome's 5' end
}

// CDS is a coding sequence made of one or more segments.
type CDS struct {
	Name          string
	DisplayName   string
	Description   string
	Length        int  // nucleotides, normally a multiple of 3
	Strand        int8 // +1 or -1
	Color         string
	Segments      []Segment // translation order
	IsWrapping    bool      // wraps the origin of the chromosome
	StackPosition int       // 1-based display row, no overlaps within a row
}

// IsForwardStrand returns true if the CDS is on the forward strand.
func (c *CDS) IsForwardStrand() bool {
	return c.Strand == StrandForward
}

// IsReverseStrand returns true if the CDS is on the reverse strand.
func (c *CDS) IsReverseStrand() bool {
	return c.Strand == StrandReverse
}

// NumCodons returns the number of codons, counting a trailing partial codon.
func (c *CDS) NumCodons() int {
	return (c.Length + 2) / 3
}

// GenomeExtent returns the smallest genome range covering every segment.
func (c *CDS) GenomeExtent() Range {
	if len(c.Segments) == 0 {
		return Range{}
	}
	ext := c.Segments[0].RangeGenome
	for _, s := range c.Segments[1:] {
		if s.RangeGenome.Start < ext.Start {
			ext.Start = s.RangeGenome.Start
		}
		if s.RangeGenome.End > ext.End {
			ext.End = s.RangeGenome.End
		}
	}
	return ext
}

// Contains returns true if any segment of the CDS covers pos.
func (c *CDS) Contains(pos int) bool {
	for i := range c.Segments {
		if c.Segments[i].RangeGenome.Contains(pos) {
			return true
		}
	}
	return false
}

// Gene groups one or more CDSs.
type Gene struct {
	Name string
	CDS  []*CDS
}

// Metadata summarizes layout properties of a chromosome's CDSs.
type Metadata struct {
	StrandsObserved      map[int8]bool
	PosStrandStackHeight int
	NegStrandStackHeight int
}

// Chromosome is the coordinate system all annotations are relative to.
type Chromosome struct {
	Name     string
	Range    Range
	Genes    []*Gene
	Metadata Metadata
}

// Genome is the parsed annotation model. It is immutable once built.
type Genome struct {
	Chromosomes []*Chromosome
	index       *Index
}

// Chromosome returns the first (currently the only) chromosome, or nil.
func (g *Genome) Chromosome() *Chromosome {
	if g == nil || len(g.Chromosomes) == 0 {
		return nil
	}
	return g.Chromosomes[0]
}

// AllCDS returns every CDS of the first chromosome in gene order.
func (g *Genome) AllCDS() []*CDS {
	chrom := g.Chromosome()
	if chrom == nil {
		return nil
	}
	var result []*CDS
	for _, gene := range chrom.Genes {
		result = append(result, gene.CDS...)
	}
	return result
}

// CDSByName returns the named CDS, or nil if not found.
func (g *Genome) CDSByName(name string) *CDS {
	for _, c := range g.AllCDS() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// GeneOf returns the gene a CDS belongs to, or nil.
func (g *Genome) GeneOf(cds *CDS) *Gene {
	chrom := g.Chromosome()
	if chrom == nil {
		return nil
	}
	for _, gene := range chrom.Genes {
		for _, c := range gene.CDS {
			if c == cds {
				return gene
			}
		}
	}
	return nil
}
