package confslicer

import (
	"testing"

	"github.com/netfleet/netfleet/internal/fleeterrors"
)

func TestSliceByGlobNoAncestorDescendantOverlap(t *testing.T) {
	tree, err := Parse(ciscoSample, VendorCisco)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := SliceByGlob(tree, "interface*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, a := range result.Matches {
		for j, b := range result.Matches {
			if i == j {
				continue
			}
			if isPrefix(a, b) {
				t.Errorf("match %v is an ancestor of match %v", a, b)
			}
		}
	}
}

func isPrefix(a, b TreePath) bool {
	if len(a) >= len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSliceByGlobInvalidPattern(t *testing.T) {
	tree, err := Parse(ciscoSample, VendorCisco)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = SliceByGlob(tree, "[")
	if fleeterrors.GetKind(err) != fleeterrors.KindInvalidPattern {
		t.Errorf("expected KindInvalidPattern, got %v", fleeterrors.GetKind(err))
	}
}

func TestSliceByRegexAnchoredAtStart(t *testing.T) {
	tree, err := Parse(ciscoSample, VendorCisco)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := SliceByRegex(tree, "router")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Matches) != 1 {
		t.Fatalf("expected 1 match for 'router', got %d", len(result.Matches))
	}

	node := tree.NodeAt(result.Matches[0])
	if node.Command != "router ospf 1" {
		t.Errorf("expected 'router ospf 1', got %q", node.Command)
	}

	none, err := SliceByRegex(tree, "ospf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(none.Matches) != 0 {
		t.Errorf("expected no matches for unanchored substring 'ospf', got %d", len(none.Matches))
	}
}

func TestSliceByRegexInvalidPattern(t *testing.T) {
	tree, err := Parse(ciscoSample, VendorCisco)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = SliceByRegex(tree, "(unclosed")
	if fleeterrors.GetKind(err) != fleeterrors.KindInvalidPattern {
		t.Errorf("expected KindInvalidPattern, got %v", fleeterrors.GetKind(err))
	}
}

func TestSliceByGlobMatchesNestedCommands(t *testing.T) {
	tree, err := Parse(ciscoSample, VendorCisco)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := SliceByGlob(tree, "description*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(result.Matches))
	}
}
