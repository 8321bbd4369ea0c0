package maincmd

import (
	"context"
	"errors"
	"fmt"
	"go/scanner"
	"go/token"
	"os"

	"github.com/mna/glox/lang/vm"
	"github.com/mna/mainer"
)

// runFile compiles and runs a single script, per spec.md §6. It reports
// unreadable files as exit 74, compile errors as exit 65, and runtime
// errors as exit 70.
func (c *Cmd) runFile(_ context.Context, stdio mainer.Stdio, path string) mainer.ExitCode {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		return mainer.ExitCode(exitIOError)
	}

	cfg, err := c.vmConfig()
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		return mainer.ExitCode(exitIOError)
	}
	machine := vm.New(cfg, stdio.Stdout)
	defer machine.Close()

	fset := token.NewFileSet()
	if err := machine.Interpret(fset, path, src); err != nil {
		return c.reportError(stdio, err)
	}
	return mainer.Success
}

// vmConfig builds the VM configuration: a --config YAML file if one was
// given, otherwise GLOX_* environment variables over the defaults -- the
// two sources are not layered, since caarlos0/env's envDefault tags would
// otherwise silently stomp file-loaded values for every var left unset.
// --gc-stress always wins last, regardless of source.
func (c *Cmd) vmConfig() (vm.Config, error) {
	var cfg vm.Config
	if c.ConfigFile != "" {
		cfg = vm.DefaultConfig()
		if err := vm.LoadConfigFile(c.ConfigFile, &cfg); err != nil {
			return vm.Config{}, err
		}
	} else {
		loaded, err := vm.LoadConfigEnv()
		if err != nil {
			return vm.Config{}, err
		}
		cfg = loaded
	}
	if c.GCStress {
		cfg.GCStress = true
	}
	return cfg, nil
}

// reportError prints err to stderr and maps it to the exit code spec.md §6
// assigns to its kind: a scanner.ErrorList is a compile error, printed one
// "[line:column] message" line per error, a *vm.RuntimeError is a runtime
// error, and any other error is also reported with the compile-error code.
func (c *Cmd) reportError(stdio mainer.Stdio, err error) mainer.ExitCode {
	var errList scanner.ErrorList
	var runtimeErr *vm.RuntimeError
	switch {
	case errors.As(err, &errList):
		for _, e := range errList {
			fmt.Fprintf(stdio.Stderr, "[%d:%d] %s\n", e.Pos.Line, e.Pos.Column, e.Msg)
		}
		return mainer.ExitCode(exitCompileError)
	case errors.As(err, &runtimeErr):
		fmt.Fprintf(stdio.Stderr, "%s\n", runtimeErr)
		return mainer.ExitCode(exitRuntimeError)
	default:
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		return mainer.ExitCode(exitCompileError)
	}
}
