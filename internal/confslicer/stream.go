package confslicer

import (
	"bufio"
	"io"
	"strings"

	"github.com/netfleet/netfleet/internal/fleeterrors"
)

// StreamChunkSize is the default read buffer for ProcessLargeConfig.
const StreamChunkSize = 64 * 1024

// ProcessLargeConfig parses a vendor config from r without materialising
// the full text, driving a vendor-appropriate state machine that holds at
// most one unfinished root-to-leaf path at a time. If sink is non-nil it
// is called once per top-level ConfigNode, in source order: for Cisco and
// Arista as soon as the next top-level line shows that subtree has closed,
// for Junos only after the whole input has been parsed. The full tree is
// always returned as well.
func ProcessLargeConfig(r io.Reader, vendor Vendor, sink func(*ConfigNode) error) (*ConfigTree, error) {
	switch vendor {
	case VendorJunos:
		return streamJunos(r, sink)
	default:
		return streamIndent(r, vendor, sink)
	}
}

func streamIndent(r io.Reader, vendor Vendor, sink func(*ConfigNode) error) (*ConfigTree, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, StreamChunkSize), StreamChunkSize)

	var roots []*ConfigNode
	var stack []*ConfigNode
	var indents []int
	lineNo := uint(0)

	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()

		trimmed := strings.TrimRight(raw, " \t\r")
		content := strings.TrimLeft(trimmed, " \t")
		if content == "" || content == "!" {
			continue
		}
		indent := len(trimmed) - len(content)

		for len(stack) > 0 && indents[len(indents)-1] >= indent {
			stack = stack[:len(stack)-1]
			indents = indents[:len(indents)-1]
		}

		node := &ConfigNode{Command: content, SourceLine: lineNo}

		if len(stack) == 0 {
			if sink != nil && len(roots) > 0 {
				if err := sink(roots[len(roots)-1]); err != nil {
					return nil, err
				}
			}
			roots = append(roots, node)
		} else {
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, node)
		}

		stack = append(stack, node)
		indents = append(indents, indent)
	}
	if err := scanner.Err(); err != nil {
		return nil, fleeterrors.Wrap(err, fleeterrors.KindMalformedConfig, "reading config stream")
	}

	if len(roots) == 0 {
		return nil, fleeterrors.New(fleeterrors.KindMalformedConfig, "empty configuration")
	}
	if sink != nil {
		if err := sink(roots[len(roots)-1]); err != nil {
			return nil, err
		}
	}

	return &ConfigTree{Root: &ConfigNode{Children: roots}, Vendor: vendor}, nil
}

func streamJunos(r io.Reader, sink func(*ConfigNode) error) (*ConfigTree, error) {
	stream := newJunosTokenStream(r)
	children, err := parseJunosStatementsStream(stream, false, 0)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, fleeterrors.New(fleeterrors.KindMalformedConfig, "empty configuration")
	}

	if sink != nil {
		for _, node := range children {
			if err := sink(node); err != nil {
				return nil, err
			}
		}
	}

	return &ConfigTree{Root: &ConfigNode{Children: children}, Vendor: VendorJunos}, nil
}
