// Package confslicer implements the vendor-aware hierarchical parser and
// slicer for router/switch running-configurations (Cisco IOS, Juniper
// Junos, Arista EOS): parse raw config text into a canonical ConfigTree,
// then select subtrees from it by glob or regex.
package confslicer

// ConfigNode is one node of a parsed configuration tree. Children preserve
// source order; a node's indentation depth equals its parent's depth + 1
// (Cisco/Arista) or its explicit `{ }` nesting (Junos).
type ConfigNode struct {
	Command    string
	Children   []*ConfigNode
	SourceLine uint
}

// ConfigTree is the immutable result of a parse. Root is synthetic (empty
// Command) and holds the top-level sections as its Children; it is never
// itself a match candidate for the slicer.
type ConfigTree struct {
	Root   *ConfigNode
	Vendor Vendor
}

// Walk calls fn for every real (non-root) node in pre-order, passing the
// node and its path of child indices from the root.
func (t *ConfigTree) Walk(fn func(node *ConfigNode, path []int)) {
	var walk func(n *ConfigNode, path []int)
	walk = func(n *ConfigNode, path []int) {
		for i, child := range n.Children {
			childPath := append(append([]int{}, path...), i)
			fn(child, childPath)
			walk(child, childPath)
		}
	}
	walk(t.Root, nil)
}

// NodeAt resolves a tree-path (as produced by SliceResult.Matches) back to
// the ConfigNode it addresses. It panics on an out-of-range path, since a
// SliceResult is only ever valid for the tree that produced it.
func (t *ConfigTree) NodeAt(path []int) *ConfigNode {
	n := t.Root
	for _, idx := range path {
		n = n.Children[idx]
	}
	return n
}
