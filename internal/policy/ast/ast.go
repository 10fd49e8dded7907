// Package ast defines the policy rule grammar's abstract syntax tree:
// WHEN <condition> THEN <action>. Every polymorphic axis here is a Go
// tagged union dispatched with a type switch, never an interface
// hierarchy — the DataStore port is the one place in this module where
// dynamic dispatch earns its keep.
package ast

import (
	"fmt"
	"regexp"
	"strings"
)

// FieldRef is a dotted field path (`a.b.c`) resolved left-to-right through
// JSON objects at evaluation time.
type FieldRef struct {
	Path []string
}

func (f FieldRef) String() string { return strings.Join(f.Path, ".") }

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	ValueString ValueKind = iota
	ValueNumber
	ValueBoolean
	ValueNull
	ValueRegex
	ValueFieldRef
)

// Value is a comparison operand: a literal, or a reference to another
// field (for field-vs-field comparisons).
type Value struct {
	Kind  ValueKind
	Str   string
	Num   float64
	Bool  bool
	Field FieldRef
}

func (v Value) String() string {
	switch v.Kind {
	case ValueString:
		return fmt.Sprintf("%q", v.Str)
	case ValueNumber:
		return fmt.Sprintf("%g", v.Num)
	case ValueBoolean:
		return fmt.Sprintf("%t", v.Bool)
	case ValueNull:
		return "null"
	case ValueRegex:
		return "/" + v.Str + "/"
	case ValueFieldRef:
		return v.Field.String()
	default:
		return "<invalid value>"
	}
}

// Condition is the tagged union of WHEN-clause nodes.
type Condition interface {
	isCondition()
}

type TrueCond struct{}
type FalseCond struct{}

type AndCond struct{ Left, Right Condition }
type OrCond struct{ Left, Right Condition }
type NotCond struct{ Inner Condition }

// Comparison is `field op (value | field)`. For op == "MATCHES" the regex
// literal on the right is compiled once, at load time, and cached here —
// a failed compile is a load-time error, never an evaluation-time one.
type Comparison struct {
	Field FieldRef
	Op    string
	Value Value

	compiledRegex *regexp.Regexp
}

// CompileRegex compiles and caches c.Value's regex literal if Op is
// "MATCHES". It is a no-op (returning nil) for every other operator, and
// idempotent if called more than once.
func (c *Comparison) CompileRegex() error {
	if c.Op != "MATCHES" {
		return nil
	}
	if c.compiledRegex != nil {
		return nil
	}
	re, err := regexp.Compile(c.Value.Str)
	if err != nil {
		return err
	}
	c.compiledRegex = re
	return nil
}

// CompiledRegex returns the regex compiled by CompileRegex, or nil if it
// hasn't been called (or Op isn't "MATCHES").
func (c *Comparison) CompiledRegex() *regexp.Regexp {
	return c.compiledRegex
}

// Existence is `field IS NULL` (IsNull true) or `field IS NOT NULL`
// (IsNull false).
type Existence struct {
	Field  FieldRef
	IsNull bool
}

func (TrueCond) isCondition()    {}
func (FalseCond) isCondition()   {}
func (AndCond) isCondition()     {}
func (OrCond) isCondition()      {}
func (NotCond) isCondition()     {}
func (*Comparison) isCondition() {}
func (Existence) isCondition()   {}

// Action is the tagged union of THEN-clause nodes.
type Action interface {
	isAction()
}

// AssertAction compares a field's resolved value against Expected without
// writing anything.
type AssertAction struct {
	Field    FieldRef
	Expected Value
}

// SetAction stages a write of Value into field, to be flushed (or rolled
// back) by the transactional executor.
type SetAction struct {
	Field FieldRef
	Value Value
}

// ApplyTemplateAction is opaque to the core: it records which template
// path a caller should render, without rendering it itself.
type ApplyTemplateAction struct {
	Path string
}

func (AssertAction) isAction()       {}
func (SetAction) isAction()          {}
func (ApplyTemplateAction) isAction() {}

// PolicyRule is one parsed `WHEN ... THEN ...` rule.
type PolicyRule struct {
	Condition Condition
	Action    Action
	Line      int
	Source    string // the rule's original source text, for Display round-trips
}
