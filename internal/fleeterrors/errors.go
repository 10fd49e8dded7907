// Package fleeterrors provides the single structured error type shared by
// every core package: parser, slicer, SNMP, poller, policy, and the
// DataStore port all surface failures as a *fleeterrors.Error tagged with
// a Kind, so callers can branch on failure category without parsing
// messages.
package fleeterrors

import (
	"errors"
	"fmt"
)

// Kind categorizes an Error. The set matches the error kinds enumerated
// across the spec's component contracts rather than a generic taxonomy.
type Kind int

const (
	KindUnknown Kind = iota
	KindMalformedConfig
	KindInvalidPattern
	KindInvalidOID
	KindPoolExhausted
	KindProtocol
	KindTimeout
	KindParse
	KindEvaluation
	KindDataStoreNotFound
	KindDataStoreValidation
	KindDataStoreConstraint
	KindDataStoreConnection
	KindDataStoreTimeout
	KindDataStoreInternal
)

func (k Kind) String() string {
	switch k {
	case KindMalformedConfig:
		return "malformed_config"
	case KindInvalidPattern:
		return "invalid_pattern"
	case KindInvalidOID:
		return "invalid_oid"
	case KindPoolExhausted:
		return "pool_exhausted"
	case KindProtocol:
		return "protocol"
	case KindTimeout:
		return "timeout"
	case KindParse:
		return "parse"
	case KindEvaluation:
		return "evaluation"
	case KindDataStoreNotFound:
		return "datastore_not_found"
	case KindDataStoreValidation:
		return "datastore_validation"
	case KindDataStoreConstraint:
		return "datastore_constraint"
	case KindDataStoreConnection:
		return "datastore_connection"
	case KindDataStoreTimeout:
		return "datastore_timeout"
	case KindDataStoreInternal:
		return "datastore_internal"
	default:
		return "unknown"
	}
}

// Error is a structured, Kind-tagged error carrying optional attributes
// (oid, line, max_connections, ...) used by tests and log lines that need
// more than a free-text message.
type Error struct {
	Kind       Kind
	Message    string
	Underlying error
	Attributes map[string]any
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Underlying)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// New creates a new Error of the specified kind.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

// Errorf creates a new Error of the specified kind with a formatted message.
func Errorf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error as a new Error of the specified kind.
func Wrap(err error, kind Kind, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: msg, Underlying: err}
}

// Wrapf wraps an existing error as a new Error of the specified kind with a
// formatted message.
func Wrapf(err error, kind Kind, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Underlying: err}
}

// Attr attaches an attribute to an error. If err is not a *Error, it is
// wrapped as KindUnknown first.
func Attr(err error, key string, val any) error {
	if err == nil {
		return nil
	}

	var e *Error
	if !errors.As(err, &e) {
		e = &Error{Kind: KindUnknown, Message: err.Error(), Underlying: err}
	}

	if e.Attributes == nil {
		e.Attributes = make(map[string]any)
	}
	e.Attributes[key] = val
	return e
}

// GetKind returns the Kind of err, or KindUnknown if err is not (or does
// not wrap) a *Error.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// GetAttributes collects attributes from every *Error in err's chain,
// first occurrence of a key wins.
func GetAttributes(err error) map[string]any {
	attrs := make(map[string]any)
	var e *Error

	cur := err
	for cur != nil {
		if errors.As(cur, &e) {
			for k, v := range e.Attributes {
				if _, ok := attrs[k]; !ok {
					attrs[k] = v
				}
			}
			cur = e.Underlying
		} else {
			break
		}
	}
	return attrs
}

func Is(err, target error) bool { return errors.Is(err, target) }
func As(err error, target any) bool { return errors.As(err, target) }
func Unwrap(err error) error { return errors.Unwrap(err) }
