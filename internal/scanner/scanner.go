// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package scanner provides a streaming Unicode-aware lexer for quasi source.
// Quote blocks are scanned into single QUOTE tokens and the placeholders
// inside them are lowered to UNQUOTE markers.
package scanner

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/hashicorp/hcl/v2"

	"nickandperla.net/quasi/internal/token"
)

// maxUnread bounds how many runes can be pushed back.
const maxUnread = 4

// Registrar records the source of a placeholder expression and returns the
// id its marker will carry.
type Registrar interface {
	Register(src string, rng hcl.Range) token.ExprID
}

const msgUnterminatedQuote = "unterminated quote block"

// Error is a lexical error.
type Error struct {
	Range hcl.Range
	Msg   string
}

// UnterminatedQuote reports whether the input ended inside a quote block.
func (e *Error) UnterminatedQuote() bool {
	return e.Msg == msgUnterminatedQuote
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Range, e.Msg)
}

// Diagnostic converts the error for diagnostic rendering.
func (e *Error) Diagnostic() *hcl.Diagnostic {
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "Invalid token",
		Detail:   e.Msg,
		Subject:  e.Range.Ptr(),
	}
}

type pushed struct {
	r    rune
	size int
}

// Scanner tokenizes quasi input rune-by-rune.
type Scanner struct {
	reader   *bufio.Reader
	filename string
	reg      Registrar
	pos      hcl.Pos // position of the next rune
	trail    []hcl.Pos
	back     []pushed
	peeked   *token.Located
}

// New creates a new Scanner from an io.Reader. Placeholders inside quote
// blocks are registered with reg; a nil reg leaves them as plain DOLLAR
// tokens.
func New(r io.Reader, filename string, reg Registrar) *Scanner {
	return &Scanner{
		reader:   bufio.NewReader(r),
		filename: filename,
		reg:      reg,
		pos:      hcl.Pos{Line: 1, Column: 1, Byte: 0},
	}
}

// NewFromString creates a new Scanner from a string.
func NewFromString(src, filename string, reg Registrar) *Scanner {
	return New(strings.NewReader(src), filename, reg)
}

// Peek returns the next token without consuming it.
func (s *Scanner) Peek() (token.Located, error) {
	if s.peeked != nil {
		return *s.peeked, nil
	}
	tok, err := s.Next()
	if err != nil {
		return token.Located{}, err
	}
	s.peeked = &tok
	return tok, nil
}

// Next returns the next token from the input. At the end of input it
// returns an EOF token.
func (s *Scanner) Next() (token.Located, error) {
	if s.peeked != nil {
		tok := *s.peeked
		s.peeked = nil
		return tok, nil
	}
	return s.scan(false, false)
}

// All scans the remaining input. The EOF token is not included.
func (s *Scanner) All() (token.Tokens, error) {
	var out token.Tokens
	for {
		tok, err := s.Next()
		if err != nil {
			return nil, err
		}
		if tok.Token.Kind == token.EOF {
			return out, nil
		}
		out = append(out, tok)
	}
}

func (s *Scanner) read() (rune, error) {
	var p pushed
	if n := len(s.back); n > 0 {
		p = s.back[n-1]
		s.back = s.back[:n-1]
	} else {
		r, size, err := s.reader.ReadRune()
		if err != nil {
			return 0, err
		}
		p = pushed{r: r, size: size}
	}
	s.trail = append(s.trail, s.pos)
	if len(s.trail) > maxUnread {
		s.trail = s.trail[1:]
	}
	s.pos.Byte += p.size
	if p.r == '\n' {
		s.pos.Line++
		s.pos.Column = 1
	} else {
		s.pos.Column++
	}
	return p.r, nil
}

func (s *Scanner) unread(r rune) {
	n := len(s.trail)
	prev := s.trail[n-1]
	s.trail = s.trail[:n-1]
	s.back = append(s.back, pushed{r: r, size: s.pos.Byte - prev.Byte})
	s.pos = prev
}

// peekRune returns the next rune without consuming it. Returns 0 on EOF.
func (s *Scanner) peekRune() (rune, error) {
	r, err := s.read()
	if err == io.EOF {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	s.unread(r)
	return r, nil
}

func (s *Scanner) rangeFrom(start hcl.Pos) hcl.Range {
	return hcl.Range{Filename: s.filename, Start: start, End: s.pos}
}

func (s *Scanner) errorf(start hcl.Pos, format string, args ...any) error {
	return &Error{Range: s.rangeFrom(start), Msg: fmt.Sprintf(format, args...)}
}

// skipSpace consumes whitespace and // line comments.
func (s *Scanner) skipSpace() error {
	for {
		r, err := s.read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if unicode.IsSpace(r) {
			continue
		}
		if r == '/' {
			next, err := s.peekRune()
			if err != nil {
				return err
			}
			if next == '/' {
				if err := s.skipLine(); err != nil {
					return err
				}
				continue
			}
		}
		s.unread(r)
		return nil
	}
}

func (s *Scanner) skipLine() error {
	for {
		r, err := s.read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if r == '\n' {
			return nil
		}
	}
}

// scan returns the next token. inQuote enables placeholder lowering;
// escaped is set when the previous token was the escape sigil, which keeps
// a following $ literal.
func (s *Scanner) scan(inQuote, escaped bool) (token.Located, error) {
	if err := s.skipSpace(); err != nil {
		return token.Located{}, err
	}
	start := s.pos
	r, err := s.read()
	if err == io.EOF {
		return token.At(token.Token{Kind: token.EOF}, s.rangeFrom(start)), nil
	}
	if err != nil {
		return token.Located{}, err
	}

	switch {
	case token.IsIdentStart(r):
		name, err := s.scanIdent(r)
		if err != nil {
			return token.Located{}, err
		}
		rng := s.rangeFrom(start)
		switch name {
		case token.KeywordQuote:
			if err := s.skipSpace(); err != nil {
				return token.Located{}, err
			}
			next, err := s.peekRune()
			if err != nil {
				return token.Located{}, err
			}
			if next == '{' {
				s.read()
				return s.scanQuote(start)
			}
		case "true":
			return token.At(token.Bool(true), rng), nil
		case "false":
			return token.At(token.Bool(false), rng), nil
		}
		return token.At(token.Ident(name), rng), nil

	case isDigit(r):
		return s.scanNumber(start, r)

	case r == '"':
		return s.scanString(start)

	case r == token.RuneDollar:
		if inQuote && !escaped && s.reg != nil {
			return s.scanUnquote(start)
		}
		return token.At(token.Dollar(), s.rangeFrom(start)), nil

	case r == token.RuneBackslash:
		return token.At(token.Backslash(), s.rangeFrom(start)), nil

	case strings.ContainsRune(punctuation, r):
		return s.scanPunct(start, r)
	}

	return token.Located{}, s.errorf(start, "unexpected character %q", r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func (s *Scanner) scanIdent(first rune) (string, error) {
	var name strings.Builder
	name.WriteRune(first)
	for {
		r, err := s.read()
		if err == io.EOF {
			return name.String(), nil
		}
		if err != nil {
			return "", err
		}
		if !token.IsIdentChar(r) {
			s.unread(r)
			return name.String(), nil
		}
		name.WriteRune(r)
	}
}

func (s *Scanner) scanDigits(sb *strings.Builder) error {
	for {
		r, err := s.read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if !isDigit(r) {
			s.unread(r)
			return nil
		}
		sb.WriteRune(r)
	}
}

func (s *Scanner) scanNumber(start hcl.Pos, first rune) (token.Located, error) {
	var num strings.Builder
	num.WriteRune(first)
	if err := s.scanDigits(&num); err != nil {
		return token.Located{}, err
	}
	kind := token.INT

	// fraction: a dot only belongs to the number when a digit follows
	r, err := s.read()
	if err != nil && err != io.EOF {
		return token.Located{}, err
	}
	if err == nil {
		if r == '.' {
			next, err := s.peekRune()
			if err != nil {
				return token.Located{}, err
			}
			if isDigit(next) {
				num.WriteRune(r)
				kind = token.FLOAT
				if err := s.scanDigits(&num); err != nil {
					return token.Located{}, err
				}
			} else {
				s.unread(r)
			}
		} else {
			s.unread(r)
		}
	}

	// exponent
	r, err = s.read()
	if err != nil && err != io.EOF {
		return token.Located{}, err
	}
	if err == nil {
		if r == 'e' || r == 'E' {
			num.WriteRune(r)
			sign, err := s.read()
			if err != nil && err != io.EOF {
				return token.Located{}, err
			}
			if err == nil && (sign == '+' || sign == '-') {
				num.WriteRune(sign)
			} else if err == nil {
				s.unread(sign)
			}
			before := num.Len()
			if err := s.scanDigits(&num); err != nil {
				return token.Located{}, err
			}
			if num.Len() == before {
				return token.Located{}, s.errorf(start, "malformed exponent in %q", num.String())
			}
			kind = token.FLOAT
		} else {
			s.unread(r)
		}
	}

	return token.At(token.Token{Kind: kind, Value: num.String()}, s.rangeFrom(start)), nil
}

func (s *Scanner) scanString(start hcl.Pos) (token.Located, error) {
	var sb strings.Builder
	for {
		r, err := s.read()
		if err == io.EOF || r == '\n' {
			return token.Located{}, s.errorf(start, "unterminated string literal")
		}
		if err != nil {
			return token.Located{}, err
		}
		switch r {
		case '"':
			return token.At(token.String(sb.String()), s.rangeFrom(start)), nil
		case '\\':
			esc, err := s.read()
			if err == io.EOF {
				return token.Located{}, s.errorf(start, "unterminated string literal")
			}
			if err != nil {
				return token.Located{}, err
			}
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '"', '\\':
				sb.WriteRune(esc)
			default:
				return token.Located{}, s.errorf(start, "invalid escape sequence \\%c", esc)
			}
		case '$', '%':
			// $${ and %%{ are the literal forms of ${ and %{
			next, err := s.peekRune()
			if err != nil {
				return token.Located{}, err
			}
			if next == r {
				s.read()
				after, err := s.peekRune()
				if err != nil {
					return token.Located{}, err
				}
				if after != '{' {
					sb.WriteRune(r)
				}
			}
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
}

// scanQuote scans the body of a quote block after its opening brace.
// Braces inside the body must balance; the block's range runs from the
// quote keyword to the closing brace.
func (s *Scanner) scanQuote(start hcl.Pos) (token.Located, error) {
	var body token.Tokens
	depth := 0
	escaped := false
	for {
		tok, err := s.scan(true, escaped)
		if err != nil {
			return token.Located{}, err
		}
		switch {
		case tok.Token.Kind == token.EOF:
			return token.Located{}, s.errorf(start, msgUnterminatedQuote)
		case tok.Token.Kind == token.PUNCT && tok.Token.Value == "{":
			depth++
		case tok.Token.Kind == token.PUNCT && tok.Token.Value == "}":
			if depth == 0 {
				return token.At(token.Quote(body), s.rangeFrom(start)), nil
			}
			depth--
		}
		escaped = tok.Token.Kind == token.BACKSLASH
		body = append(body, tok)
	}
}

// scanUnquote lowers $name or $( expr ) into an UNQUOTE marker. A $ that
// introduces neither stays a DOLLAR token.
func (s *Scanner) scanUnquote(start hcl.Pos) (token.Located, error) {
	next, err := s.peekRune()
	if err != nil {
		return token.Located{}, err
	}

	switch {
	case token.IsIdentStart(next):
		identStart := s.pos
		first, _ := s.read()
		name, err := s.scanIdent(first)
		if err != nil {
			return token.Located{}, err
		}
		id := s.reg.Register(name, s.rangeFrom(identStart))
		return token.At(token.Unquote(id), s.rangeFrom(start)), nil

	case next == '(':
		s.read()
		src, inner, err := s.scanBalanced(start)
		if err != nil {
			return token.Located{}, err
		}
		if strings.TrimSpace(src) == "" {
			return token.Located{}, s.errorf(start, "empty unquote expression")
		}
		id := s.reg.Register(src, inner)
		return token.At(token.Unquote(id), s.rangeFrom(start)), nil
	}

	return token.At(token.Dollar(), s.rangeFrom(start)), nil
}

// scanBalanced reads up to the parenthesis closing an already consumed
// opening one and returns the text in between with its range. Parentheses
// inside string literals do not count.
func (s *Scanner) scanBalanced(start hcl.Pos) (string, hcl.Range, error) {
	var src strings.Builder
	innerStart := s.pos
	depth := 1
	inString := false
	for {
		before := s.pos
		r, err := s.read()
		if err == io.EOF {
			return "", hcl.Range{}, s.errorf(start, "unterminated unquote expression")
		}
		if err != nil {
			return "", hcl.Range{}, err
		}

		switch {
		case inString && r == '\\':
			src.WriteRune(r)
			esc, err := s.read()
			if err == io.EOF {
				return "", hcl.Range{}, s.errorf(start, "unterminated unquote expression")
			}
			if err != nil {
				return "", hcl.Range{}, err
			}
			r = esc
		case r == '"':
			inString = !inString
		case !inString && r == '(':
			depth++
		case !inString && r == ')':
			depth--
			if depth == 0 {
				inner := hcl.Range{Filename: s.filename, Start: innerStart, End: before}
				return src.String(), inner, nil
			}
		}
		src.WriteRune(r)
	}
}

const punctuation = "{}()[],;.:+-*/%=<>!?&|@^~#"

var twoCharOps = map[string]bool{
	"==": true, "!=": true, "<=": true, ">=": true,
	"&&": true, "||": true, "->": true, "=>": true, "::": true,
}

func (s *Scanner) scanPunct(start hcl.Pos, r rune) (token.Located, error) {
	next, err := s.read()
	if err != nil && err != io.EOF {
		return token.Located{}, err
	}
	if err == nil {
		if op := string([]rune{r, next}); twoCharOps[op] {
			return token.At(token.Punct(op), s.rangeFrom(start)), nil
		}
		s.unread(next)
	}
	return token.At(token.Punct(string(r)), s.rangeFrom(start)), nil
}

