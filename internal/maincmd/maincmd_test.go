package maincmd_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mna/glox/internal/maincmd"
	"github.com/mna/mainer"
	"github.com/stretchr/testify/require"
)

func newStdio(stdin string) (mainer.Stdio, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return mainer.Stdio{
		Stdin:  strings.NewReader(stdin),
		Stdout: &stdout,
		Stderr: &stderr,
	}, &stdout, &stderr
}

func TestHelpExitsSuccess(t *testing.T) {
	c := maincmd.Cmd{}
	stdio, stdout, _ := newStdio("")
	code := c.Main([]string{"glox", "--help"}, stdio)
	require.EqualValues(t, mainer.Success, code)
	require.Contains(t, stdout.String(), "usage: glox")
}

func TestVersionExitsSuccess(t *testing.T) {
	c := maincmd.Cmd{BuildVersion: "1.2.3", BuildDate: "2026-01-01"}
	stdio, stdout, _ := newStdio("")
	code := c.Main([]string{"glox", "--version"}, stdio)
	require.EqualValues(t, mainer.Success, code)
	require.Contains(t, stdout.String(), "1.2.3")
}

func TestTooManyArgsIsUsageError(t *testing.T) {
	c := maincmd.Cmd{}
	stdio, _, stderr := newStdio("")
	code := c.Main([]string{"glox", "a.lox", "b.lox"}, stdio)
	require.NotEqualValues(t, mainer.Success, code)
	require.Contains(t, stderr.String(), "invalid arguments")
}

func TestRunFileExecutesScriptAndExitsSuccess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.lox")
	require.NoError(t, os.WriteFile(path, []byte(`print 1 + 2;`), 0o644))

	c := maincmd.Cmd{}
	stdio, stdout, _ := newStdio("")
	code := c.Main([]string{"glox", path}, stdio)
	require.EqualValues(t, mainer.Success, code)
	require.Equal(t, "3\n", stdout.String())
}

func TestRunFileCompileErrorExitsWithCompileErrorCode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.lox")
	require.NoError(t, os.WriteFile(path, []byte(`var = ;`), 0o644))

	c := maincmd.Cmd{}
	stdio, _, stderr := newStdio("")
	code := c.Main([]string{"glox", path}, stdio)
	require.EqualValues(t, 65, code)
	require.NotEmpty(t, stderr.String())
}

func TestRunFileRuntimeErrorExitsWithRuntimeErrorCode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runtime.lox")
	require.NoError(t, os.WriteFile(path, []byte(`x = 1;`), 0o644))

	c := maincmd.Cmd{}
	stdio, _, stderr := newStdio("")
	code := c.Main([]string{"glox", path}, stdio)
	require.EqualValues(t, 70, code)
	require.NotEmpty(t, stderr.String())
}

func TestRunFileMissingPathExitsWithIOErrorCode(t *testing.T) {
	c := maincmd.Cmd{}
	stdio, _, stderr := newStdio("")
	code := c.Main([]string{"glox", filepath.Join(t.TempDir(), "missing.lox")}, stdio)
	require.EqualValues(t, 74, code)
	require.NotEmpty(t, stderr.String())
}

func TestReplEchoesPrintStatementsAndStopsAtEOF(t *testing.T) {
	c := maincmd.Cmd{}
	stdio, stdout, _ := newStdio("print 1 + 1;\nprint \"hi\";\n")
	code := c.Main([]string{"glox"}, stdio)
	require.EqualValues(t, mainer.Success, code)
	require.Contains(t, stdout.String(), "2\n")
	require.Contains(t, stdout.String(), "hi\n")
}

func TestReplContinuesAfterRuntimeError(t *testing.T) {
	c := maincmd.Cmd{}
	stdio, stdout, _ := newStdio("x = 1;\nprint 2 + 2;\n")
	code := c.Main([]string{"glox"}, stdio)
	require.EqualValues(t, mainer.Success, code)
	require.Contains(t, stdout.String(), "4\n")
}
