// Package maincmd wires command-line argument parsing to the REPL and
// run-file entry points of spec.md §6.
package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mna/mainer"
)

const binName = "glox"

// Exit codes per spec.md §6, following the BSD sysexits.h convention the
// spec borrows its numbers from.
const (
	exitUsage        = 64
	exitCompileError = 65
	exitRuntimeError = 70
	exitIOError      = 74
)

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] [<path>]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] [<path>]
       %[1]s -h|--help
       %[1]s -v|--version

Compiler and bytecode virtual machine for the Lox programming language.

With no <path>, %[1]s starts an interactive REPL: each line is compiled and
run as it is entered, and a runtime error does not end the session. With a
<path>, %[1]s compiles and runs that file as a script and exits.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --gc-stress               Run a full garbage collection cycle before
                                 every allocation, to shake out GC bugs.
       --config <path>           Load VM settings from a YAML config file
                                 instead of from GLOX_* environment
                                 variables.

More information on the %[1]s repository:
       https://github.com/mna/glox
`, binName)
)

// Cmd holds the parsed command-line flags and positional arguments. It
// implements the interface mainer.Parser.Parse expects: SetArgs, SetFlags,
// Validate.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	GCStress   bool   `flag:"gc-stress"`
	ConfigFile string `flag:"config"`

	args  []string
	flags map[string]bool
}

func (c *Cmd) SetArgs(args []string)          { c.args = args }
func (c *Cmd) SetFlags(flags map[string]bool) { c.flags = flags }

// Validate enforces spec.md §6's usage shape: zero or one positional
// argument (the script path). Anything else is a usage error, exit 64.
func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) > 1 {
		return errors.New("at most one script path may be given")
	}
	return nil
}

// Main parses args, dispatches to the REPL or to running a single script,
// and returns the process exit code per spec.md §6.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false, // flag values only; the VM's own Config carries its env vars
		EnvPrefix: binName + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.ExitCode(exitUsage)
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)

	if len(c.args) == 1 {
		return c.runFile(ctx, stdio, c.args[0])
	}
	return c.repl(ctx, stdio)
}
