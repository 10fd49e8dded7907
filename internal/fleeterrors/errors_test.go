package fleeterrors

import (
	"errors"
	"testing"
)

func TestNewAndKind(t *testing.T) {
	err := New(KindMalformedConfig, "bad config")
	if GetKind(err) != KindMalformedConfig {
		t.Errorf("expected KindMalformedConfig, got %v", GetKind(err))
	}
	if err.Error() != "bad config" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestWrapPreservesUnderlying(t *testing.T) {
	base := errors.New("network unreachable")
	wrapped := Wrap(base, KindTimeout, "poll failed")

	if GetKind(wrapped) != KindTimeout {
		t.Errorf("expected KindTimeout, got %v", GetKind(wrapped))
	}
	if !errors.Is(wrapped, base) {
		t.Error("expected wrapped error chain to include base")
	}
}

func TestWrapNilIsNil(t *testing.T) {
	if Wrap(nil, KindTimeout, "x") != nil {
		t.Error("Wrap(nil, ...) should return nil")
	}
	if Wrapf(nil, KindTimeout, "x") != nil {
		t.Error("Wrapf(nil, ...) should return nil")
	}
	if Attr(nil, "k", "v") != nil {
		t.Error("Attr(nil, ...) should return nil")
	}
}

func TestAttrAccumulatesAcrossChain(t *testing.T) {
	err := New(KindInvalidOID, "bad oid")
	err = Attr(err, "oid", "1.3.6.1.2.1.1.1.0")
	err = Wrap(err, KindProtocol, "session failed")
	err = Attr(err, "target", "10.0.0.1:161")

	attrs := GetAttributes(err)
	if attrs["oid"] != "1.3.6.1.2.1.1.1.0" {
		t.Errorf("expected oid attribute to survive wrapping, got %v", attrs)
	}
	if attrs["target"] != "10.0.0.1:161" {
		t.Errorf("expected target attribute, got %v", attrs)
	}
}

func TestGetKindUnknownForPlainError(t *testing.T) {
	if GetKind(errors.New("plain")) != KindUnknown {
		t.Error("expected KindUnknown for a plain error")
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindMalformedConfig: "malformed_config",
		KindPoolExhausted:   "pool_exhausted",
		KindUnknown:         "unknown",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}
