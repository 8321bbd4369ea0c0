// Package scanner turns Lox source text into a stream of tokens consumed by
// the compiler. It scans lazily, one token at a time, and never builds a
// full token slice unless a caller explicitly asks for one.
package scanner

import (
	"bytes"
	"fmt"
	"go/scanner"
	"go/token"
	"strconv"
	"unicode"
	"unicode/utf8"

	langtok "github.com/mna/glox/lang/token"
)

type (
	// Error and ErrorList are the diagnostic types produced by this package,
	// reused directly from the standard library's go/scanner package instead
	// of hand-rolling an equivalent.
	Error     = scanner.Error
	ErrorList = scanner.ErrorList
)

// PrintError is a utility function that prints a list of errors to w, one
// error per line, if the err parameter is an ErrorList. Otherwise it prints
// the err string.
var PrintError = scanner.PrintError

// Scanner tokenizes a single source file on demand.
type Scanner struct {
	file *token.File // source file handle, for position/line tracking
	src  []byte
	err  func(pos token.Position, msg string)

	cur  rune // current character, -1 at EOF
	off  int  // byte offset of cur
	roff int  // byte offset immediately after cur
}

// Init prepares s to scan src, which must have exactly file.Size() bytes.
// Scan errors are reported through errHandler.
func (s *Scanner) Init(file *token.File, src []byte, errHandler func(token.Position, string)) {
	if file.Size() != len(src) {
		panic(fmt.Sprintf("file size (%d) does not match src len (%d)", file.Size(), len(src)))
	}
	s.file = file
	s.src = src
	s.err = errHandler
	s.cur = ' '
	s.off = 0
	s.roff = 0
	s.advance()
}

func (s *Scanner) advance() {
	if s.roff >= len(s.src) {
		s.off = len(s.src)
		if s.cur == '\n' {
			s.file.AddLine(s.off)
		}
		s.cur = -1
		return
	}
	s.off = s.roff
	if s.cur == '\n' {
		s.file.AddLine(s.off)
	}
	r, w := rune(s.src[s.roff]), 1
	if r >= utf8.RuneSelf {
		r, w = utf8.DecodeRune(s.src[s.roff:])
		if r == utf8.RuneError && w == 1 {
			s.errorf(s.off, "illegal UTF-8 encoding")
		}
	}
	s.roff += w
	s.cur = r
}

func (s *Scanner) peek() byte {
	if s.roff < len(s.src) {
		return s.src[s.roff]
	}
	return 0
}

func (s *Scanner) error(off int, msg string) {
	if s.err != nil {
		s.err(s.file.Position(s.file.Pos(off)), msg)
	}
}

func (s *Scanner) errorf(off int, format string, args ...any) {
	s.error(off, fmt.Sprintf(format, args...))
}

// match advances past cur and returns true if it equals want, leaving the
// scanner untouched otherwise.
func (s *Scanner) match(want byte) bool {
	if byte(s.cur) == want && s.cur != -1 {
		s.advance()
		return true
	}
	return false
}

// Scan returns the next token and, for tokens that carry a literal value,
// populates tokVal accordingly.
func (s *Scanner) Scan(tokVal *langtok.Value) langtok.Token {
	s.skipWhitespaceAndComments()

	pos := s.file.Pos(s.off)
	start := s.off

	switch cur := s.cur; {
	case cur == -1:
		*tokVal = langtok.Value{Raw: "", Pos: pos}
		return langtok.EOF

	case isAlpha(cur):
		lit := s.ident()
		*tokVal = langtok.Value{Raw: lit, Pos: pos}
		return langtok.LookupIdent(lit)

	case isDigit(cur):
		lit := s.number()
		n, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			s.errorf(start, "invalid number literal %q", lit)
		}
		*tokVal = langtok.Value{Raw: lit, Pos: pos, Number: n}
		return langtok.NUMBER

	case cur == '"':
		lit, val, ok := s.string()
		*tokVal = langtok.Value{Raw: lit, Pos: pos, String: val}
		if !ok {
			return langtok.ILLEGAL
		}
		return langtok.STRING
	}

	cur := s.cur
	s.advance()
	tok := langtok.ILLEGAL
	switch cur {
	case '(':
		tok = langtok.LPAREN
	case ')':
		tok = langtok.RPAREN
	case '{':
		tok = langtok.LBRACE
	case '}':
		tok = langtok.RBRACE
	case ',':
		tok = langtok.COMMA
	case '.':
		tok = langtok.DOT
	case '-':
		tok = langtok.MINUS
	case '+':
		tok = langtok.PLUS
	case ';':
		tok = langtok.SEMI
	case '*':
		tok = langtok.STAR
	case '/':
		tok = langtok.SLASH
	case '!':
		tok = langtok.BANG
		if s.match('=') {
			tok = langtok.BANG_EQ
		}
	case '=':
		tok = langtok.EQ
		if s.match('=') {
			tok = langtok.EQ_EQ
		}
	case '<':
		tok = langtok.LT
		if s.match('=') {
			tok = langtok.LE
		}
	case '>':
		tok = langtok.GT
		if s.match('=') {
			tok = langtok.GT_EQ
		}
	default:
		s.errorf(start, "unexpected character %#U", cur)
	}
	*tokVal = langtok.Value{Raw: string(s.src[start:s.off]), Pos: pos}
	return tok
}

func (s *Scanner) skipWhitespaceAndComments() {
	for {
		switch {
		case s.cur == ' ' || s.cur == '\t' || s.cur == '\r' || s.cur == '\n':
			s.advance()
		case s.cur == '/' && s.peek() == '/':
			for s.cur != '\n' && s.cur != -1 {
				s.advance()
			}
		default:
			return
		}
	}
}

func (s *Scanner) ident() string {
	start := s.off
	for isAlpha(s.cur) || isDigit(s.cur) {
		s.advance()
	}
	return string(s.src[start:s.off])
}

// number scans digit+ ('.' digit+)? per spec.md §4.1. The decimal point must
// be followed by at least one digit to be consumed as part of the number,
// otherwise it is left for the caller (method calls on number literals are
// not legal Lox, but "1." is deliberately not a valid number token).
func (s *Scanner) number() string {
	start := s.off
	for isDigit(s.cur) {
		s.advance()
	}
	if s.cur == '.' && isDigit(rune(s.peek())) {
		s.advance()
		for isDigit(s.cur) {
			s.advance()
		}
	}
	return string(s.src[start:s.off])
}

// string scans a "..." literal with no escape sequences, per spec.md §4.1.
// An unterminated string is reported through the error handler and returns
// ok == false; raw then holds the source text scanned up to the end of file.
func (s *Scanner) string() (raw, val string, ok bool) {
	start := s.off
	s.advance() // opening quote
	var sb bytes.Buffer
	for s.cur != '"' {
		if s.cur == -1 {
			s.errorf(start, "unterminated string")
			return string(s.src[start:s.off]), sb.String(), false
		}
		sb.WriteRune(s.cur)
		s.advance()
	}
	s.advance() // closing quote
	return string(s.src[start:s.off]), sb.String(), true
}

func isAlpha(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}
