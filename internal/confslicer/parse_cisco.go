package confslicer

import (
	"strings"

	"github.com/netfleet/netfleet/internal/fleeterrors"
)

type indentLine struct {
	lineNo  uint
	indent  int
	content string
}

// preprocessIndentLines strips trailing whitespace and CR, skips blank
// lines and bare `!` sentinels, and measures each remaining line's leading
// indentation. The sentinel lines are filtered here rather than tracked
// structurally: once blanks and sentinels are removed, indentation alone
// determines nesting (a line's children are the maximal run of following
// lines with strictly greater indentation).
func preprocessIndentLines(text string) []indentLine {
	rawLines := strings.Split(text, "\n")
	out := make([]indentLine, 0, len(rawLines))

	for i, raw := range rawLines {
		trimmed := strings.TrimRight(raw, " \t\r")
		content := strings.TrimLeft(trimmed, " \t")
		if content == "" {
			continue
		}
		if content == "!" {
			continue
		}
		indent := len(trimmed) - len(content)
		out = append(out, indentLine{lineNo: uint(i + 1), indent: indent, content: content})
	}
	return out
}

// parseIndentSection parses the maximal run of lines (starting at start)
// whose indentation is strictly greater than parentIndent. It returns the
// built children and the index of the first line that does not belong to
// this section (indent <= parentIndent, or end of input).
func parseIndentSection(lines []indentLine, start, parentIndent int) ([]*ConfigNode, int) {
	var children []*ConfigNode
	i := start

	for i < len(lines) && lines[i].indent > parentIndent {
		node := &ConfigNode{Command: lines[i].content, SourceLine: lines[i].lineNo}
		childIndent := lines[i].indent
		i++

		var nested []*ConfigNode
		nested, i = parseIndentSection(lines, i, childIndent)
		node.Children = nested

		children = append(children, node)
	}

	return children, i
}

// parseIndentConfig parses Cisco IOS and Arista EOS running-configs, which
// share the indentation-plus-`!`-sentinel grammar.
func parseIndentConfig(text string, vendor Vendor) (*ConfigTree, error) {
	lines := preprocessIndentLines(text)
	if len(lines) == 0 {
		return nil, fleeterrors.New(fleeterrors.KindMalformedConfig, "empty configuration")
	}

	children, _ := parseIndentSection(lines, 0, -1)
	return &ConfigTree{Root: &ConfigNode{Children: children}, Vendor: vendor}, nil
}
