package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FieldError reports a clause that names an unknown field or carries a value/operator the field
// cannot accept.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// SyntaxError reports a malformed expression.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid query at position %d: %s", e.Pos, e.Msg)
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokWord
	tokString
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")", pos: i})
			i++
		case c == '"':
			start := i
			i++
			var b strings.Builder
			closed := false
			for i < len(input) {
				if input[i] == '\\' && i+1 < len(input) {
					b.WriteByte(input[i])
					b.WriteByte(input[i+1])
					i += 2
					continue
				}
				if input[i] == '"' {
					closed = true
					i++
					break
				}
				b.WriteByte(input[i])
				i++
			}
			if !closed {
				return nil, &SyntaxError{Pos: start, Msg: "unterminated quoted string"}
			}
			tokens = append(tokens, token{kind: tokString, text: b.String(), pos: start})
		case c == '=' || c == '<' || c == '>':
			start := i
			op := string(c)
			if i+1 < len(input) {
				next := input[i+1]
				if (c == '=' && next == '=') || (c == '<' && (next == '>' || next == '=')) || (c == '>' && next == '=') {
					op += string(next)
				}
			}
			i += len(op)
			tokens = append(tokens, token{kind: tokOp, text: op, pos: start})
		default:
			start := i
			for i < len(input) {
				ch := input[i]
				if ch == '\\' && i+1 < len(input) {
					i += 2
					continue
				}
				if strings.IndexByte(" \t\n\r()\"=<>", ch) >= 0 {
					break
				}
				i++
			}
			tokens = append(tokens, token{kind: tokWord, text: input[start:i], pos: start})
		}
	}
	return append(tokens, token{kind: tokEOF, pos: len(input)}), nil
}

type parser struct {
	tokens []token
	pos    int
	schema Schema
}

// Parse parses input against schema. An empty or blank input yields a nil Expr and no error.
func Parse(input string, schema Schema) (Expr, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}
	tokens, err := tokenize(input)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens, schema: schema}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %q", t.text)}
	}
	return e, nil
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) parseExpr() (Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokWord {
			return left, nil
		}
		op := BoolOp(strings.ToLower(t.text))
		if op != And && op != Or && op != Not {
			return nil, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("expected boolean operator, got %q", t.text)}
		}
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseTerm() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokLParen:
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, &SyntaxError{Pos: closing.pos, Msg: "missing closing parenthesis"}
		}
		return e, nil
	case tokWord:
		return p.parseComparison(t)
	case tokEOF:
		return nil, &SyntaxError{Pos: t.pos, Msg: "unexpected end of query"}
	default:
		return nil, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %q", t.text)}
	}
}

func (p *parser) parseComparison(field token) (Expr, error) {
	opTok := p.next()
	if opTok.kind != tokOp {
		return nil, &SyntaxError{Pos: field.pos, Msg: fmt.Sprintf("expected relation after %q", field.text)}
	}
	typ, ok := p.schema[field.text]
	if !ok {
		return nil, &FieldError{Field: field.text, Reason: "unknown field"}
	}
	val := p.next()
	if val.kind != tokWord && val.kind != tokString {
		return nil, &SyntaxError{Pos: val.pos, Msg: fmt.Sprintf("expected value after %s%s", field.text, opTok.text)}
	}
	c := &Comparison{Field: field.text, Type: typ, Op: Op(opTok.text), Value: val.text}
	if err := checkComparison(c); err != nil {
		return nil, err
	}
	return c, nil
}

func checkComparison(c *Comparison) error {
	switch c.Op {
	case OpMatch, OpExact, OpNotEq:
	case OpLT, OpLE, OpGT, OpGE:
		if c.Type != TypeDate {
			return &FieldError{Field: c.Field, Reason: fmt.Sprintf("relation %s not supported", c.Op)}
		}
	default:
		return &FieldError{Field: c.Field, Reason: fmt.Sprintf("unknown relation %s", c.Op)}
	}

	literal := Unescape(c.Value)
	switch c.Type {
	case TypeUUID:
		if len(literal) != 36 {
			return &FieldError{Field: c.Field, Reason: "invalid UUID"}
		}
		if _, err := uuid.Parse(literal); err != nil {
			return &FieldError{Field: c.Field, Reason: "invalid UUID"}
		}
	case TypeBool:
		if l := strings.ToLower(literal); l != "true" && l != "false" {
			return &FieldError{Field: c.Field, Reason: "expected true or false"}
		}
	case TypeDate:
		if _, err := ParseDate(literal); err != nil {
			return &FieldError{Field: c.Field, Reason: "invalid date"}
		}
	}
	return nil
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
