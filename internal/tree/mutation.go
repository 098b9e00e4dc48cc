package tree

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrMalformedMutation is returned for mutation strings that are not
// <from><position><to>.
var ErrMalformedMutation = errors.New("malformed mutation")

// reMutation matches "A123T", "L45P", "-10A" or multi-character symbols.
var reMutation = regexp.MustCompile(`^(\D+)(\d+)(\D+)$`)

// Mutation is a parsed branch mutation.
type Mutation struct {
	From string
	Pos  int // 1-based: genome position for nucleotides, codon for amino acids
	To   string
}

// ParseMutation parses a branch mutation string such as "A123T".
func ParseMutation(s string) (Mutation, error) {
	m := reMutation.FindStringSubmatch(s)
	if m == nil {
		return Mutation{}, fmt.Errorf("%w: %q", ErrMalformedMutation, s)
	}
	pos, err := strconv.Atoi(m[2])
	if err != nil || pos < 1 {
		return Mutation{}, fmt.Errorf("%w: %q has invalid position", ErrMalformedMutation, s)
	}
	return Mutation{From: m[1], Pos: pos, To: m[3]}, nil
}

// String formats the mutation back to its compact form.
func (m Mutation) String() string {
	return m.From + strconv.Itoa(m.Pos) + m.To
}

// IsUninformativeNucleotide reports whether either side is a gap or an
// ambiguous base; such mutations are not counted.
func (m Mutation) IsUninformativeNucleotide() bool {
	return m.From == "N" || m.From == "-" || m.To == "N" || m.To == "-"
}

// IsUninformativeAminoAcid reports whether either side is an unknown residue.
func (m Mutation) IsUninformativeAminoAcid() bool {
	return m.From == "X" || m.To == "X"
}
