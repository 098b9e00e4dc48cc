package tree

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrEmptyTree is returned when the JSON holds no root node.
var ErrEmptyTree = errors.New("tree has no root node")

// JSONNode is the Auspice v2 tree node shape.
type JSONNode struct {
	Name        string      `json:"name"`
	BranchAttrs BranchAttrs `json:"branch_attrs"`
	Children    []*JSONNode `json:"children"`
}

// BranchAttrs holds the per-branch attributes of a JSON node.
type BranchAttrs struct {
	Mutations map[string][]string `json:"mutations"`
}

// ParseJSON decodes a single tree root and flattens it.
func ParseJSON(data []byte) ([]*Node, error) {
	var root *JSONNode
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decode tree: %w", err)
	}
	if root == nil {
		return nil, ErrEmptyTree
	}
	return Flatten(root), nil
}

// Flatten converts a JSON tree into a pre-order node slice. nodes[0] is the
// root and every node's ArrayIdx is its index in the slice.
func Flatten(root *JSONNode) []*Node {
	if root == nil {
		return nil
	}

	type item struct {
		json   *JSONNode
		parent *Node
	}

	var nodes []*Node
	stack := []item{{json: root}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := &Node{
			Name:      it.json.Name,
			ArrayIdx:  len(nodes),
			Parent:    it.parent,
			Mutations: it.json.BranchAttrs.Mutations,
		}
		if it.parent != nil {
			it.parent.Children = append(it.parent.Children, n)
		}
		nodes = append(nodes, n)

		// Push in reverse so children are visited left to right.
		for i := len(it.json.Children) - 1; i >= 0; i-- {
			if it.json.Children[i] != nil {
				stack = append(stack, item{json: it.json.Children[i], parent: n})
			}
		}
	}

	countTips(nodes[0])
	return nodes
}

func countTips(n *Node) int {
	if n.IsTip() {
		n.FullTipCount = 1
		return 1
	}
	total := 0
	for _, c := range n.Children {
		total += countTips(c)
	}
	n.FullTipCount = total
	return total
}

// Find returns the first node with the given name, or nil.
func Find(nodes []*Node, name string) *Node {
	for _, n := range nodes {
		if n.Name == name {
			return n
		}
	}
	return nil
}
