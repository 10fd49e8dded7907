// Package parser implements the recursive-descent parser for the WHEN/THEN
// policy rule grammar (see internal/policy/ast), scanning and parsing one
// logical line at a time the way github.com/lasseh/jink's lexer splits a
// token stream — Token{Kind, Lexeme, Line} naming here follows that shape,
// adapted to a single-line grammar instead of a whole-file one.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/netfleet/netfleet/internal/policy/ast"
)

// ParseError is one (line, message) failure. A malformed file accumulates
// every line's error rather than stopping at the first.
type ParseError struct {
	Line    int
	Message string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// ParseString parses every non-blank, non-comment logical line of src as one
// WHEN/THEN rule. It returns every successfully parsed rule and every
// per-line error; a caller should treat any non-empty error slice as the
// whole file failing to load.
func ParseString(src string) ([]ast.PolicyRule, []ParseError) {
	var rules []ast.PolicyRule
	var errs []ParseError

	lines := strings.Split(src, "\n")
	for i, raw := range lines {
		lineNo := i + 1
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		rule, err := parseLine(raw, lineNo)
		if err != nil {
			errs = append(errs, ParseError{Line: lineNo, Message: err.Error()})
			continue
		}
		rules = append(rules, *rule)
	}
	return rules, errs
}

func parseLine(raw string, lineNo int) (*ast.PolicyRule, error) {
	toks, err := newLexer(raw, lineNo).tokenize()
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, line: lineNo, source: strings.TrimSpace(raw)}
	return p.parseRule()
}

type parser struct {
	toks   []token
	pos    int
	line   int
	source string
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) atEnd() bool { return p.cur().kind == tokEOF }

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind) (token, error) {
	if p.cur().kind != kind {
		return token{}, fmt.Errorf("expected %s, got %s %q", kind, p.cur().kind, p.cur().lexeme)
	}
	return p.advance(), nil
}

func (p *parser) parseRule() (*ast.PolicyRule, error) {
	if _, err := p.expect(tokWhen); err != nil {
		return nil, err
	}
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokThen); err != nil {
		return nil, err
	}
	action, err := p.parseAction()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, fmt.Errorf("unexpected trailing token %s %q", p.cur().kind, p.cur().lexeme)
	}
	return &ast.PolicyRule{Condition: cond, Action: action, Line: p.line, Source: p.source}, nil
}

func (p *parser) parseOr() (ast.Condition, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = ast.OrCond{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (ast.Condition, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokAnd {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = ast.AndCond{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (ast.Condition, error) {
	if p.cur().kind == tokNot {
		p.advance()
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return ast.NotCond{Inner: inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (ast.Condition, error) {
	switch p.cur().kind {
	case tokLParen:
		p.advance()
		cond, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return cond, nil

	case tokTrue:
		p.advance()
		return ast.TrueCond{}, nil

	case tokFalse:
		p.advance()
		return ast.FalseCond{}, nil

	case tokIdent:
		field, err := p.parseField()
		if err != nil {
			return nil, err
		}
		return p.parseComparisonOrExistence(field)

	default:
		return nil, fmt.Errorf("unexpected token %s %q in condition", p.cur().kind, p.cur().lexeme)
	}
}

func (p *parser) parseComparisonOrExistence(field ast.FieldRef) (ast.Condition, error) {
	switch p.cur().kind {
	case tokIs:
		p.advance()
		if p.cur().kind == tokNot {
			p.advance()
			if _, err := p.expect(tokNull); err != nil {
				return nil, err
			}
			return ast.Existence{Field: field, IsNull: false}, nil
		}
		if _, err := p.expect(tokNull); err != nil {
			return nil, err
		}
		return ast.Existence{Field: field, IsNull: true}, nil

	case tokEq, tokNeq, tokLt, tokLte, tokGt, tokGte, tokContains, tokMatches:
		opTok := p.advance()
		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		cmp := &ast.Comparison{Field: field, Op: opTok.kind.String(), Value: value}
		if opTok.kind == tokMatches {
			if err := cmp.CompileRegex(); err != nil {
				return nil, fmt.Errorf("invalid MATCHES regex: %w", err)
			}
		}
		return cmp, nil

	default:
		return nil, fmt.Errorf("expected comparison operator or IS, got %s %q", p.cur().kind, p.cur().lexeme)
	}
}

func (p *parser) parseField() (ast.FieldRef, error) {
	first, err := p.expect(tokIdent)
	if err != nil {
		return ast.FieldRef{}, err
	}
	path := []string{first.lexeme}
	for p.cur().kind == tokDot {
		p.advance()
		part, err := p.expect(tokIdent)
		if err != nil {
			return ast.FieldRef{}, err
		}
		path = append(path, part.lexeme)
	}
	return ast.FieldRef{Path: path}, nil
}

func (p *parser) parseValue() (ast.Value, error) {
	switch p.cur().kind {
	case tokString:
		t := p.advance()
		return ast.Value{Kind: ast.ValueString, Str: t.lexeme}, nil

	case tokNumber:
		t := p.advance()
		n, err := strconv.ParseFloat(t.lexeme, 64)
		if err != nil {
			return ast.Value{}, fmt.Errorf("invalid number literal %q", t.lexeme)
		}
		return ast.Value{Kind: ast.ValueNumber, Num: n}, nil

	case tokTrue:
		p.advance()
		return ast.Value{Kind: ast.ValueBoolean, Bool: true}, nil

	case tokFalse:
		p.advance()
		return ast.Value{Kind: ast.ValueBoolean, Bool: false}, nil

	case tokNull:
		p.advance()
		return ast.Value{Kind: ast.ValueNull}, nil

	case tokRegex:
		t := p.advance()
		return ast.Value{Kind: ast.ValueRegex, Str: t.lexeme}, nil

	case tokIdent:
		field, err := p.parseField()
		if err != nil {
			return ast.Value{}, err
		}
		return ast.Value{Kind: ast.ValueFieldRef, Field: field}, nil

	default:
		return ast.Value{}, fmt.Errorf("expected a value, got %s %q", p.cur().kind, p.cur().lexeme)
	}
}

func (p *parser) parseAction() (ast.Action, error) {
	switch p.cur().kind {
	case tokAssert:
		p.advance()
		field, err := p.parseField()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokIs); err != nil {
			return nil, err
		}
		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		return ast.AssertAction{Field: field, Expected: value}, nil

	case tokSet:
		p.advance()
		field, err := p.parseField()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokTo); err != nil {
			return nil, err
		}
		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		return ast.SetAction{Field: field, Value: value}, nil

	case tokApply:
		p.advance()
		pathTok, err := p.expect(tokString)
		if err != nil {
			return nil, fmt.Errorf("APPLY requires a quoted template path: %w", err)
		}
		return ast.ApplyTemplateAction{Path: pathTok.lexeme}, nil

	default:
		return nil, fmt.Errorf("expected ASSERT, SET, or APPLY, got %s %q", p.cur().kind, p.cur().lexeme)
	}
}
