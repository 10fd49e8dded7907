package snmp

import (
	"testing"

	"github.com/netfleet/netfleet/internal/fleeterrors"
)

func TestNewSessionRequiresTarget(t *testing.T) {
	_, err := NewSession(SessionConfig{})
	if err == nil {
		t.Fatal("expected error for missing target")
	}
	if fleeterrors.GetKind(err) != fleeterrors.KindProtocol {
		t.Errorf("expected KindProtocol, got %v", fleeterrors.GetKind(err))
	}
}

func TestNewSessionRejectsUnsupportedVersion(t *testing.T) {
	_, err := NewSession(SessionConfig{Target: "198.51.100.1", Version: "9"})
	if fleeterrors.GetKind(err) != fleeterrors.KindProtocol {
		t.Errorf("expected KindProtocol, got %v", fleeterrors.GetKind(err))
	}
}

func TestMapAuthAndPrivProtocols(t *testing.T) {
	if mapAuthProtocol("sha256") == mapAuthProtocol("bogus") {
		t.Error("expected sha256 to map to a distinct protocol from an unrecognised name")
	}
	if mapPrivProtocol("aes256") == mapPrivProtocol("bogus") {
		t.Error("expected aes256 to map to a distinct protocol from an unrecognised name")
	}
	if mapAuthProtocol("bogus") != mapAuthProtocol("") {
		t.Error("expected unrecognised auth protocols to fall back to the same NoAuth value as empty")
	}
}
