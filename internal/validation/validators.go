// Package validation holds small, reusable validators shared by the SNMP
// and policy layers — the same "compiled regex + allowlist" style the
// teacher uses for its own identifier/interface-name checks.
package validation

import (
	"regexp"
	"strings"

	"github.com/netfleet/netfleet/internal/fleeterrors"
)

var (
	// A numeric OID: one or more dot-separated non-negative integers,
	// optionally prefixed with a leading dot (gosnmp accepts both forms).
	oidRegex = regexp.MustCompile(`^\.?[0-9]+(\.[0-9]+)*$`)

	// A policy field path segment: ASCII letters, digits, underscore, must
	// not start with a digit. The parser's lexer also accepts non-ASCII
	// letters and digits, which this check rejects.
	fieldSegmentRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// ValidateOID checks that oid is a well-formed numeric SNMP object
// identifier.
func ValidateOID(oid string) error {
	if oid == "" {
		return fleeterrors.New(fleeterrors.KindInvalidOID, "OID cannot be empty")
	}
	if !oidRegex.MatchString(oid) {
		return fleeterrors.Errorf(fleeterrors.KindInvalidOID, "invalid OID %q: must be dot-separated non-negative integers", oid)
	}
	return nil
}

// ValidateFieldPath checks that path matches the policy grammar's
// `field := ident("."ident)*` production.
func ValidateFieldPath(path string) error {
	if path == "" {
		return fleeterrors.New(fleeterrors.KindParse, "field path cannot be empty")
	}
	for _, segment := range strings.Split(path, ".") {
		if segment == "" || !fieldSegmentRegex.MatchString(segment) {
			return fleeterrors.Errorf(fleeterrors.KindParse, "invalid field path %q: bad segment %q", path, segment)
		}
	}
	return nil
}

// ValidateTargetAddress checks a poll target's address isn't empty and
// contains no whitespace, control characters or quotes — a cheap guard
// before the address reaches gosnmp, not a full hostname or IP check.
func ValidateTargetAddress(addr string) error {
	if addr == "" {
		return fleeterrors.New(fleeterrors.KindProtocol, "target address cannot be empty")
	}
	for _, r := range addr {
		if r <= ' ' || r == '"' || r == '\'' {
			return fleeterrors.Errorf(fleeterrors.KindProtocol, "target address %q contains an invalid character", addr)
		}
	}
	return nil
}
