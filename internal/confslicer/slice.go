package confslicer

import (
	"regexp"
	"strings"

	"github.com/gobwas/glob"

	"github.com/netfleet/netfleet/internal/fleeterrors"
)

// TreePath is a list of child indices from the tree's root to a matched
// node. It is only valid for the ConfigTree that produced it.
type TreePath []int

// SliceResult is the ordered set of matched tree-paths, plus free-form
// metadata about how the slice was produced (pattern, vendor, ...).
type SliceResult struct {
	Matches  []TreePath
	Metadata map[string]string
}

// SliceByGlob selects nodes whose Command satisfies a glob pattern (`*`
// any run of characters, `?` a single character). Matching is depth-first
// pre-order; when a node matches, its whole subtree is reported as one
// entry and its children are not independently matched.
func SliceByGlob(tree *ConfigTree, pattern string) (SliceResult, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return SliceResult{}, fleeterrors.Wrapf(err, fleeterrors.KindInvalidPattern, "invalid glob pattern %q", pattern)
	}

	matches := sliceTree(tree, func(cmd string) bool { return g.Match(cmd) })

	return SliceResult{
		Matches:  matches,
		Metadata: map[string]string{"pattern": pattern, "kind": "glob"},
	}, nil
}

// SliceByRegex selects nodes whose Command matches a regex, anchored at
// the start and unanchored at the end unless the pattern itself ends with
// `$`.
func SliceByRegex(tree *ConfigTree, pattern string) (SliceResult, error) {
	anchored := pattern
	if !strings.HasPrefix(anchored, "^") {
		anchored = "^(?:" + anchored + ")"
	}

	re, err := regexp.Compile(anchored)
	if err != nil {
		return SliceResult{}, fleeterrors.Wrapf(err, fleeterrors.KindInvalidPattern, "invalid regex pattern %q", pattern)
	}

	matches := sliceTree(tree, re.MatchString)

	return SliceResult{
		Matches:  matches,
		Metadata: map[string]string{"pattern": pattern, "kind": "regex"},
	}, nil
}

// sliceTree performs the shared depth-first pre-order traversal: a
// matching node short-circuits descent into its own children but
// traversal continues across siblings and into non-matching subtrees.
func sliceTree(tree *ConfigTree, match func(command string) bool) []TreePath {
	var matches []TreePath

	var walk func(n *ConfigNode, path []int)
	walk = func(n *ConfigNode, path []int) {
		for i, child := range n.Children {
			childPath := append(append(TreePath{}, path...), i)
			if match(child.Command) {
				matches = append(matches, childPath)
				continue
			}
			walk(child, childPath)
		}
	}
	walk(tree.Root, nil)

	return matches
}
