package confslicer

import (
	"testing"

	"github.com/netfleet/netfleet/internal/fleeterrors"
)

const ciscoSample = `
interface GigabitEthernet0/1
 description Test
 ip address 192.168.1.1 255.255.255.0
!
interface GigabitEthernet0/2
 description Test2
!
router ospf 1
 router-id 1.1.1.1
!
`

func TestParseCiscoInterfaceSlice(t *testing.T) {
	tree, err := Parse(ciscoSample, VendorCisco)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := SliceByGlob(tree, "interface*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(result.Matches))
	}

	for _, path := range result.Matches {
		node := tree.NodeAt(path)
		if len(node.Children) != 2 {
			t.Errorf("expected 2 child lines under %q, got %d", node.Command, len(node.Children))
		}
	}
}

func TestParseEmptyConfigFails(t *testing.T) {
	_, err := Parse("", VendorCisco)
	if fleeterrors.GetKind(err) != fleeterrors.KindMalformedConfig {
		t.Errorf("expected KindMalformedConfig, got %v", fleeterrors.GetKind(err))
	}
}

func TestParseOnlyBangFails(t *testing.T) {
	_, err := Parse("!\n!\n", VendorCisco)
	if fleeterrors.GetKind(err) != fleeterrors.KindMalformedConfig {
		t.Errorf("expected KindMalformedConfig, got %v", fleeterrors.GetKind(err))
	}
}

func TestParseJunosSystemHostname(t *testing.T) {
	tree, err := Parse("system { host-name R1; }", VendorJunos)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Root.Children) != 1 {
		t.Fatalf("expected 1 top-level child, got %d", len(tree.Root.Children))
	}
	system := tree.Root.Children[0]
	if system.Command != "system" {
		t.Errorf("expected command 'system', got %q", system.Command)
	}
	if len(system.Children) != 1 || system.Children[0].Command != "host-name R1" {
		t.Fatalf("expected single leaf 'host-name R1', got %+v", system.Children)
	}
}

func TestParseJunosUnmatchedBrace(t *testing.T) {
	_, err := Parse("system {\n  host-name R1;\n", VendorJunos)
	if fleeterrors.GetKind(err) != fleeterrors.KindMalformedConfig {
		t.Errorf("expected KindMalformedConfig, got %v", fleeterrors.GetKind(err))
	}
	attrs := fleeterrors.GetAttributes(err)
	_ = attrs // line number is embedded in the message; see error text below.
	if err.Error() == "" {
		t.Error("expected a non-empty error message naming the opening brace's line")
	}
}

func TestParseJunosDiscardsHashComments(t *testing.T) {
	text := "# top comment\nsystem {\n  # nested comment\n  host-name R1;\n}\n"
	tree, err := Parse(text, VendorJunos)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Root.Children) != 1 || tree.Root.Children[0].Command != "system" {
		t.Fatalf("unexpected tree: %+v", tree.Root.Children)
	}
}

func TestDetectVendorJunos(t *testing.T) {
	v, err := DetectVendor("system { host-name R1; }")
	if err != nil || v != VendorJunos {
		t.Errorf("expected VendorJunos, got %v, err %v", v, err)
	}
}

func TestDetectVendorCisco(t *testing.T) {
	v, err := DetectVendor(ciscoSample)
	if err != nil || v != VendorCisco {
		t.Errorf("expected VendorCisco, got %v, err %v", v, err)
	}
}

func TestDetectVendorFailsOnUnknown(t *testing.T) {
	_, err := DetectVendor("just some text\nwith no markers\n")
	if fleeterrors.GetKind(err) != fleeterrors.KindMalformedConfig {
		t.Errorf("expected KindMalformedConfig, got %v", fleeterrors.GetKind(err))
	}
}

func TestParsePreOrderMatchesSourceOrder(t *testing.T) {
	tree, err := Parse(ciscoSample, VendorCisco)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var commands []string
	tree.Walk(func(n *ConfigNode, _ []int) {
		commands = append(commands, n.Command)
	})

	want := []string{
		"interface GigabitEthernet0/1", "description Test", "ip address 192.168.1.1 255.255.255.0",
		"interface GigabitEthernet0/2", "description Test2",
		"router ospf 1", "router-id 1.1.1.1",
	}
	if len(commands) != len(want) {
		t.Fatalf("expected %d commands, got %d: %v", len(want), len(commands), commands)
	}
	for i := range want {
		if commands[i] != want[i] {
			t.Errorf("commands[%d] = %q, want %q", i, commands[i], want[i])
		}
	}
}
