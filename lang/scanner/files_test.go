package scanner_test

import (
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/mna/glox/lang/scanner"
	langtok "github.com/mna/glox/lang/token"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestScanFilesTokenizesEachFileInOrder(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.lox", "var a = 1;")
	b := writeFile(t, dir, "b.lox", "print a;")

	fset := token.NewFileSet()
	out, err := scanner.ScanFiles(fset, a, b)
	require.NoError(t, err)
	require.Len(t, out, 2)

	firstKinds := make([]langtok.Token, len(out[0]))
	for i, tv := range out[0] {
		firstKinds[i] = tv.Token
	}
	require.Equal(t, []langtok.Token{
		langtok.VAR, langtok.IDENT, langtok.EQ, langtok.NUMBER, langtok.SEMI, langtok.EOF,
	}, firstKinds)

	secondKinds := make([]langtok.Token, len(out[1]))
	for i, tv := range out[1] {
		secondKinds[i] = tv.Token
	}
	require.Equal(t, []langtok.Token{
		langtok.PRINT, langtok.IDENT, langtok.SEMI, langtok.EOF,
	}, secondKinds)
}

func TestScanFilesCollectsErrorsAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	ok := writeFile(t, dir, "ok.lox", "1;")
	missing := filepath.Join(dir, "missing.lox")

	fset := token.NewFileSet()
	_, err := scanner.ScanFiles(fset, ok, missing)
	require.Error(t, err)

	var el scanner.ErrorList
	require.ErrorAs(t, err, &el)
	require.NotEmpty(t, el)
}

func TestScanFilesWithNoFilesReturnsNil(t *testing.T) {
	fset := token.NewFileSet()
	out, err := scanner.ScanFiles(fset)
	require.NoError(t, err)
	require.Nil(t, out)
}
