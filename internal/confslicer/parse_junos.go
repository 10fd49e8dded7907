package confslicer

import (
	"bufio"
	"io"
	"strings"

	"github.com/netfleet/netfleet/internal/fleeterrors"
)

type junosTokenKind int

const (
	junosTokIdent junosTokenKind = iota
	junosTokOpenBrace
	junosTokCloseBrace
	junosTokSemicolon
)

type junosToken struct {
	kind   junosTokenKind
	text   string
	lineNo uint
}

// tokenizeJunos discards `#` line comments, then splits the remainder into
// identifiers/quoted-string arguments and the structural tokens `{`, `}`,
// `;`. Whitespace is insignificant except as a token separator.
func tokenizeJunos(text string) []junosToken {
	var tokens []junosToken
	line := uint(1)

	runes := []rune(text)
	n := len(runes)
	i := 0

	for i < n {
		c := runes[i]

		switch {
		case c == '\n':
			line++
			i++
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == '#':
			for i < n && runes[i] != '\n' {
				i++
			}
		case c == '{':
			tokens = append(tokens, junosToken{kind: junosTokOpenBrace, text: "{", lineNo: line})
			i++
		case c == '}':
			tokens = append(tokens, junosToken{kind: junosTokCloseBrace, text: "}", lineNo: line})
			i++
		case c == ';':
			tokens = append(tokens, junosToken{kind: junosTokSemicolon, text: ";", lineNo: line})
			i++
		case c == '"':
			start := i
			i++
			for i < n && runes[i] != '"' {
				if runes[i] == '\n' {
					line++
				}
				i++
			}
			if i < n {
				i++ // consume closing quote
			}
			tokens = append(tokens, junosToken{kind: junosTokIdent, text: string(runes[start:i]), lineNo: line})
		default:
			start := i
			for i < n {
				r := runes[i]
				if r == ' ' || r == '\t' || r == '\r' || r == '\n' || r == '{' || r == '}' || r == ';' || r == '#' {
					break
				}
				i++
			}
			tokens = append(tokens, junosToken{kind: junosTokIdent, text: string(runes[start:i]), lineNo: line})
		}
	}

	return tokens
}

// parseJunosStatements parses statements from tokens[start:]. Inside a
// section body (insideBrace) it stops at the matching '}'; at the top level
// it runs to the end of input. It returns the built nodes and the index
// just past the consumed terminator.
func parseJunosStatements(tokens []junosToken, start int, insideBrace bool, openLine uint) ([]*ConfigNode, int, error) {
	var children []*ConfigNode
	i := start

	for {
		if i >= len(tokens) {
			if insideBrace {
				return nil, i, fleeterrors.Errorf(fleeterrors.KindMalformedConfig, "unmatched '{' at line %d", openLine)
			}
			return children, i, nil
		}

		if tokens[i].kind == junosTokCloseBrace {
			if !insideBrace {
				return nil, i, fleeterrors.Errorf(fleeterrors.KindMalformedConfig, "unmatched '}' at line %d", tokens[i].lineNo)
			}
			return children, i + 1, nil
		}

		var parts []string
		nodeLine := tokens[i].lineNo
		for i < len(tokens) && tokens[i].kind == junosTokIdent {
			parts = append(parts, tokens[i].text)
			i++
		}
		if len(parts) == 0 {
			return nil, i, fleeterrors.Errorf(fleeterrors.KindMalformedConfig, "unexpected token at line %d", tokens[i].lineNo)
		}

		node := &ConfigNode{Command: strings.Join(parts, " "), SourceLine: nodeLine}

		if i >= len(tokens) {
			return nil, i, fleeterrors.Errorf(fleeterrors.KindMalformedConfig, "statement %q missing terminator", node.Command)
		}

		switch tokens[i].kind {
		case junosTokSemicolon:
			i++
		case junosTokOpenBrace:
			braceLine := tokens[i].lineNo
			i++
			var body []*ConfigNode
			var err error
			body, i, err = parseJunosStatements(tokens, i, true, braceLine)
			if err != nil {
				return nil, i, err
			}
			node.Children = body
		default:
			return nil, i, fleeterrors.Errorf(fleeterrors.KindMalformedConfig, "expected ';' or '{' after %q at line %d", node.Command, nodeLine)
		}

		children = append(children, node)
	}
}

// junosTokenStream pulls junosTokens lazily off r, one rune at a time, so
// the Junos streaming path never holds the whole input in memory the way
// tokenizeJunos does for the one-shot Parse entry point.
type junosTokenStream struct {
	r        *bufio.Reader
	line     uint
	peeked   *junosToken
	havePeek bool
}

func newJunosTokenStream(r io.Reader) *junosTokenStream {
	return &junosTokenStream{r: bufio.NewReaderSize(r, StreamChunkSize), line: 1}
}

func (s *junosTokenStream) peek() (junosToken, bool, error) {
	if s.havePeek {
		return *s.peeked, true, nil
	}
	tok, ok, err := s.readToken()
	if err != nil || !ok {
		return junosToken{}, false, err
	}
	s.peeked = &tok
	s.havePeek = true
	return tok, true, nil
}

func (s *junosTokenStream) consume() {
	s.havePeek = false
	s.peeked = nil
}

// readToken skips whitespace and `#` comments, then reads exactly one
// token. ok is false only at a clean EOF between tokens.
func (s *junosTokenStream) readToken() (junosToken, bool, error) {
	for {
		r, _, err := s.r.ReadRune()
		if err == io.EOF {
			return junosToken{}, false, nil
		}
		if err != nil {
			return junosToken{}, false, err
		}

		switch {
		case r == '\n':
			s.line++
		case r == ' ' || r == '\t' || r == '\r':
		case r == '#':
			for {
				r2, _, err := s.r.ReadRune()
				if err != nil {
					break
				}
				if r2 == '\n' {
					s.line++
					break
				}
			}
		case r == '{':
			return junosToken{kind: junosTokOpenBrace, text: "{", lineNo: s.line}, true, nil
		case r == '}':
			return junosToken{kind: junosTokCloseBrace, text: "}", lineNo: s.line}, true, nil
		case r == ';':
			return junosToken{kind: junosTokSemicolon, text: ";", lineNo: s.line}, true, nil
		case r == '"':
			startLine := s.line
			var sb strings.Builder
			sb.WriteRune(r)
			for {
				r2, _, err := s.r.ReadRune()
				if err != nil {
					break
				}
				sb.WriteRune(r2)
				if r2 == '\n' {
					s.line++
				}
				if r2 == '"' {
					break
				}
			}
			return junosToken{kind: junosTokIdent, text: sb.String(), lineNo: startLine}, true, nil
		default:
			startLine := s.line
			var sb strings.Builder
			sb.WriteRune(r)
			for {
				r2, _, err := s.r.ReadRune()
				if err == io.EOF {
					break
				}
				if err != nil {
					return junosToken{}, false, err
				}
				if r2 == ' ' || r2 == '\t' || r2 == '\r' || r2 == '\n' || r2 == '{' || r2 == '}' || r2 == ';' || r2 == '#' {
					_ = s.r.UnreadRune()
					break
				}
				sb.WriteRune(r2)
			}
			return junosToken{kind: junosTokIdent, text: sb.String(), lineNo: startLine}, true, nil
		}
	}
}

// parseJunosStatementsStream is parseJunosStatements's streaming twin: same
// grammar, but it pulls tokens one at a time from s instead of indexing a
// fully-tokenized slice. It returns the top-level nodes only once the whole
// input has been read.
func parseJunosStatementsStream(s *junosTokenStream, insideBrace bool, openLine uint) ([]*ConfigNode, error) {
	var children []*ConfigNode

	for {
		tok, ok, err := s.peek()
		if err != nil {
			return nil, fleeterrors.Wrap(err, fleeterrors.KindMalformedConfig, "reading config stream")
		}
		if !ok {
			if insideBrace {
				return nil, fleeterrors.Errorf(fleeterrors.KindMalformedConfig, "unmatched '{' at line %d", openLine)
			}
			return children, nil
		}
		if tok.kind == junosTokCloseBrace {
			if !insideBrace {
				return nil, fleeterrors.Errorf(fleeterrors.KindMalformedConfig, "unmatched '}' at line %d", tok.lineNo)
			}
			s.consume()
			return children, nil
		}

		var parts []string
		nodeLine := tok.lineNo
		for {
			tok, ok, err = s.peek()
			if err != nil {
				return nil, fleeterrors.Wrap(err, fleeterrors.KindMalformedConfig, "reading config stream")
			}
			if !ok || tok.kind != junosTokIdent {
				break
			}
			parts = append(parts, tok.text)
			s.consume()
		}
		if len(parts) == 0 {
			return nil, fleeterrors.Errorf(fleeterrors.KindMalformedConfig, "unexpected token at line %d", tok.lineNo)
		}

		node := &ConfigNode{Command: strings.Join(parts, " "), SourceLine: nodeLine}

		tok, ok, err = s.peek()
		if err != nil {
			return nil, fleeterrors.Wrap(err, fleeterrors.KindMalformedConfig, "reading config stream")
		}
		if !ok {
			return nil, fleeterrors.Errorf(fleeterrors.KindMalformedConfig, "statement %q missing terminator", node.Command)
		}

		switch tok.kind {
		case junosTokSemicolon:
			s.consume()
		case junosTokOpenBrace:
			braceLine := tok.lineNo
			s.consume()
			body, err := parseJunosStatementsStream(s, true, braceLine)
			if err != nil {
				return nil, err
			}
			node.Children = body
		default:
			return nil, fleeterrors.Errorf(fleeterrors.KindMalformedConfig, "expected ';' or '{' after %q at line %d", node.Command, nodeLine)
		}

		children = append(children, node)
	}
}

// parseJunosConfig parses the Junos brace-structured grammar.
func parseJunosConfig(text string) (*ConfigTree, error) {
	tokens := tokenizeJunos(text)
	if len(tokens) == 0 {
		return nil, fleeterrors.New(fleeterrors.KindMalformedConfig, "empty configuration")
	}

	children, _, err := parseJunosStatements(tokens, 0, false, 0)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, fleeterrors.New(fleeterrors.KindMalformedConfig, "empty configuration")
	}

	return &ConfigTree{Root: &ConfigNode{Children: children}, Vendor: VendorJunos}, nil
}
