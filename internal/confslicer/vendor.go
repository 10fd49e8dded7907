package confslicer

import (
	"strings"

	"github.com/netfleet/netfleet/internal/fleeterrors"
)

// Vendor is the CLI dialect a config text is parsed with.
type Vendor string

const (
	VendorCisco  Vendor = "cisco"
	VendorJunos  Vendor = "junos"
	VendorArista Vendor = "arista"
)

// DetectVendor applies the heuristics in order: a top-level `system { ... }`
// block means Junos; `!` sentinel lines with indentation mean Cisco IOS;
// an `! device:` header or a `configure terminal` line means Arista EOS.
// If none match, detection fails.
func DetectVendor(text string) (Vendor, error) {
	lines := strings.Split(text, "\n")

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "system") && strings.Contains(trimmed, "{") {
			return VendorJunos, nil
		}
	}

	hasSentinel := false
	hasIndentation := false
	for _, line := range lines {
		trimmed := strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(trimmed) == "!" {
			hasSentinel = true
		}
		if len(trimmed) > 0 && (trimmed[0] == ' ' || trimmed[0] == '\t') {
			hasIndentation = true
		}
	}
	if hasSentinel && hasIndentation {
		return VendorCisco, nil
	}

	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[0]), "! device:") {
		return VendorArista, nil
	}
	if strings.Contains(text, "configure terminal") {
		return VendorArista, nil
	}

	return "", fleeterrors.New(fleeterrors.KindMalformedConfig, "cannot detect vendor")
}
