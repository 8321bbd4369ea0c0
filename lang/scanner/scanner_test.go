package scanner_test

import (
	"go/token"
	"testing"

	"github.com/mna/glox/lang/scanner"
	langtok "github.com/mna/glox/lang/token"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, src string) ([]langtok.Token, []langtok.Value) {
	t.Helper()
	fset := token.NewFileSet()
	f := fset.AddFile("test.lox", -1, len(src))

	var s scanner.Scanner
	var errs scanner.ErrorList
	s.Init(f, []byte(src), errs.Add)

	var toks []langtok.Token
	var vals []langtok.Value
	var v langtok.Value
	for {
		tok := s.Scan(&v)
		toks = append(toks, tok)
		vals = append(vals, v)
		if tok == langtok.EOF {
			break
		}
	}
	require.NoError(t, errs.Err())
	return toks, vals
}

func TestScanPunctuationAndOperators(t *testing.T) {
	toks, _ := scanAll(t, "(){};,.+-*/!!====<<=>>=")
	want := []langtok.Token{
		langtok.LPAREN, langtok.RPAREN, langtok.LBRACE, langtok.RBRACE,
		langtok.SEMI, langtok.COMMA, langtok.DOT, langtok.PLUS, langtok.MINUS,
		langtok.STAR, langtok.SLASH, langtok.BANG, langtok.BANG_EQ, langtok.EQ_EQ,
		langtok.EQ, langtok.LT, langtok.LE, langtok.GT, langtok.GT_EQ, langtok.EOF,
	}
	require.Equal(t, want, toks)
}

func TestScanKeywordsAndIdents(t *testing.T) {
	toks, _ := scanAll(t, "var x = orchid and true or nil")
	want := []langtok.Token{
		langtok.VAR, langtok.IDENT, langtok.EQ, langtok.IDENT, langtok.AND,
		langtok.TRUE, langtok.OR, langtok.NIL, langtok.EOF,
	}
	require.Equal(t, want, toks)
}

func TestScanNumber(t *testing.T) {
	toks, vals := scanAll(t, "123 1.5")
	require.Equal(t, []langtok.Token{langtok.NUMBER, langtok.NUMBER, langtok.EOF}, toks)
	require.Equal(t, 123.0, vals[0].Number)
	require.Equal(t, 1.5, vals[1].Number)
}

func TestScanNumberTrailingDotIsNotConsumed(t *testing.T) {
	toks, _ := scanAll(t, "1.")
	require.Equal(t, []langtok.Token{langtok.NUMBER, langtok.DOT, langtok.EOF}, toks)
}

func TestScanString(t *testing.T) {
	toks, vals := scanAll(t, `"foo bar"`)
	require.Equal(t, []langtok.Token{langtok.STRING, langtok.EOF}, toks)
	require.Equal(t, "foo bar", vals[0].String)
}

func TestScanUnterminatedString(t *testing.T) {
	fset := token.NewFileSet()
	src := `"foo`
	f := fset.AddFile("test.lox", -1, len(src))

	var s scanner.Scanner
	var errs scanner.ErrorList
	s.Init(f, []byte(src), errs.Add)

	var v langtok.Value
	tok := s.Scan(&v)
	require.Equal(t, langtok.ILLEGAL, tok)
	require.Error(t, errs.Err())
}

func TestScanLineComment(t *testing.T) {
	toks, _ := scanAll(t, "// a comment\nvar")
	require.Equal(t, []langtok.Token{langtok.VAR, langtok.EOF}, toks)
}

func TestScanIsIdempotentAtEOF(t *testing.T) {
	fset := token.NewFileSet()
	f := fset.AddFile("test.lox", -1, 0)
	var s scanner.Scanner
	var errs scanner.ErrorList
	s.Init(f, nil, errs.Add)

	var v langtok.Value
	require.Equal(t, langtok.EOF, s.Scan(&v))
	require.Equal(t, langtok.EOF, s.Scan(&v))
}
