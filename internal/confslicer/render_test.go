package confslicer

import (
	"strings"
	"testing"
)

func TestRenderCiscoRoundTrip(t *testing.T) {
	tree, err := Parse(ciscoSample, VendorCisco)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rendered := Render(tree)

	reparsed, err := Parse(rendered, VendorCisco)
	if err != nil {
		t.Fatalf("unexpected error reparsing rendered config: %v\n%s", err, rendered)
	}

	var original, roundTripped []string
	tree.Walk(func(n *ConfigNode, _ []int) { original = append(original, n.Command) })
	reparsed.Walk(func(n *ConfigNode, _ []int) { roundTripped = append(roundTripped, n.Command) })

	if len(original) != len(roundTripped) {
		t.Fatalf("command count mismatch: %d vs %d", len(original), len(roundTripped))
	}
	for i := range original {
		if original[i] != roundTripped[i] {
			t.Errorf("command[%d] = %q, want %q", i, roundTripped[i], original[i])
		}
	}
}

func TestRenderJunosBraceFormat(t *testing.T) {
	tree, err := Parse("system { host-name R1; }", VendorJunos)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rendered := Render(tree)
	if !strings.Contains(rendered, "system {") {
		t.Errorf("expected rendered output to contain 'system {', got %q", rendered)
	}
	if !strings.Contains(rendered, "host-name R1;") {
		t.Errorf("expected rendered output to contain 'host-name R1;', got %q", rendered)
	}

	reparsed, err := Parse(rendered, VendorJunos)
	if err != nil {
		t.Fatalf("unexpected error reparsing rendered config: %v\n%s", err, rendered)
	}
	if len(reparsed.Root.Children) != 1 || reparsed.Root.Children[0].Command != "system" {
		t.Fatalf("unexpected reparsed tree: %+v", reparsed.Root.Children)
	}
}
