package diversity

import (
	"math"

	"github.com/inodb/vibe-entropy/internal/genome"
)

// Bar is one chartable position. Nucleotide bars set X, amino acid bars set Codon.
type Bar struct {
	X     int     `json:"x,omitempty"`
	Codon int     `json:"codon,omitempty"`
	Y     float64 `json:"y"`
	Prot  string  `json:"prot,omitempty"`
	Fill  string  `json:"fill,omitempty"`
}

// Bars is the output of a diversity computation.
type Bars struct {
	Bars       []Bar   `json:"bars"`
	MaxY       float64 `json:"maxY"`
	Region     string  `json:"region"`
	CountsOnly bool    `json:"countsOnly"`
}

// Mode returns "counts" or "entropy".
func (b *Bars) Mode() string {
	if b.CountsOnly {
		return "counts"
	}
	return "entropy"
}

// BuildBars joins aggregated values with the genome annotation. Nucleotide
// bars are labelled with the gene covering the position (if any) and take
// that CDS's color; amino acid bars take the selected CDS's name and color.
// Entropy values are rounded to 3 decimals, MaxY is not.
func BuildBars(g *genome.Genome, sel Selection, res Result, countsOnly bool) *Bars {
	out := &Bars{
		Bars:       make([]Bar, 0, len(res.Points)),
		MaxY:       res.Max,
		Region:     sel.Key(),
		CountsOnly: countsOnly,
	}

	for _, p := range res.Points {
		y := p.Y
		if !countsOnly {
			y = math.Round(y*1000) / 1000
		}

		if !sel.IsGenome() {
			out.Bars = append(out.Bars, Bar{
				Codon: p.Pos,
				Y:     y,
				Prot:  sel.CDS.Name,
				Fill:  sel.CDS.Color,
			})
			continue
		}

		bar := Bar{X: p.Pos, Y: y}
		if g != nil {
			if gene, cds := g.GeneAt(p.Pos); gene != nil {
				bar.Prot = gene.Name
				bar.Fill = cds.Color
			}
		}
		out.Bars = append(out.Bars, bar)
	}
	return out
}

// Combine concatenates bars from several regions, keeping the overall
// maximum. The region of the result is "aa" when more than one region is
// combined.
func Combine(parts []*Bars) *Bars {
	out := &Bars{Bars: []Bar{}}
	first := true
	for _, p := range parts {
		if p == nil {
			continue
		}
		if first {
			out.Region = p.Region
			out.CountsOnly = p.CountsOnly
			first = false
		} else if out.Region != p.Region {
			out.Region = "aa"
		}
		out.Bars = append(out.Bars, p.Bars...)
		out.MaxY = math.Max(out.MaxY, p.MaxY)
	}
	return out
}
