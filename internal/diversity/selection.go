// Package diversity computes per-position mutation counts and Shannon
// entropy over the visible part of a tree, and joins the result with the
// genome annotation to produce chartable bars.
package diversity

import (
	"github.com/inodb/vibe-entropy/internal/genome"
	"github.com/inodb/vibe-entropy/internal/tree"
)

// RegionKind says what a Selection refers to.
type RegionKind int8

const (
	RegionGenome RegionKind = iota // whole genome, nucleotide mutations
	RegionCDS                      // one CDS, amino acid mutations
)

// Selection is the region diversity is computed over.
type Selection struct {
	Kind RegionKind
	CDS  *genome.CDS // set when Kind is RegionCDS
}

// WholeGenome selects nucleotide diversity along the whole genome.
func WholeGenome() Selection {
	return Selection{Kind: RegionGenome}
}

// SingleCDS selects amino acid diversity within one CDS.
func SingleCDS(cds *genome.CDS) Selection {
	return Selection{Kind: RegionCDS, CDS: cds}
}

// IsGenome returns true for a whole-genome selection.
func (s Selection) IsGenome() bool {
	return s.Kind == RegionGenome || s.CDS == nil
}

// Key returns the mutations map key for the selection: "nuc" or the CDS name.
func (s Selection) Key() string {
	if s.IsGenome() {
		return tree.NucleotideKey
	}
	return s.CDS.Name
}

// String returns the selection key.
func (s Selection) String() string {
	return s.Key()
}
