package maincmd

import (
	"bufio"
	"context"
	"fmt"
	"go/token"

	"github.com/mna/glox/lang/vm"
	"github.com/mna/mainer"
)

const replPrompt = "> "

// repl runs the line-buffered read-eval-print loop of spec.md §6: each
// line is compiled and run against the same VM instance, a runtime error
// is printed but does not end the session (the VM resets its stack on
// every runtime error precisely so the next line can still run), and EOF
// on stdin ends the loop.
func (c *Cmd) repl(_ context.Context, stdio mainer.Stdio) mainer.ExitCode {
	cfg, err := c.vmConfig()
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		return mainer.ExitCode(exitIOError)
	}
	machine := vm.New(cfg, stdio.Stdout)
	defer machine.Close()

	fset := token.NewFileSet()
	scan := bufio.NewScanner(stdio.Stdin)
	for {
		fmt.Fprint(stdio.Stdout, replPrompt)
		if !scan.Scan() {
			fmt.Fprintln(stdio.Stdout)
			return mainer.Success
		}
		line := scan.Text()
		if line == "" {
			continue
		}
		if err := machine.Interpret(fset, "<repl>", []byte(line)); err != nil {
			c.reportError(stdio, err)
		}
	}
}
