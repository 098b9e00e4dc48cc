// Package tree provides the phylogeny node shape consumed by the diversity
// computations, along with branch mutation parsing and visibility masks.
package tree

// NucleotideKey is the mutations map key holding nucleotide mutations.
// Every other key names a CDS.
const NucleotideKey = "nuc"

// Node is a single node of a flattened tree.
type Node struct {
	Name         string
	ArrayIdx     int // index into the flat node slice and visibility mask
	Parent       *Node
	Children     []*Node
	Mutations    map[string][]string // branch mutations, keyed "nuc" or CDS name
	FullTipCount int                 // number of tips below (and including) this node
}

// HasChildren returns true for internal nodes.
func (n *Node) HasChildren() bool {
	return len(n.Children) > 0
}

// IsTip returns true for leaves.
func (n *Node) IsTip() bool {
	return len(n.Children) == 0
}

// NucMutations returns the nucleotide mutations on the branch leading to n.
func (n *Node) NucMutations() []string {
	return n.Mutations[NucleotideKey]
}

// AaMutations returns the amino acid mutations of one CDS on the branch leading to n.
func (n *Node) AaMutations(cds string) []string {
	if cds == NucleotideKey {
		return nil
	}
	return n.Mutations[cds]
}
