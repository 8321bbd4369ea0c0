package value

import "fmt"

// NativeFn is the signature of a native (Go-implemented) function callable
// from Lox code: it receives the argument slice and returns a result or an
// error.
type NativeFn func(args []Value) (Value, error)

// Native wraps a Go function so it can be called like any other Lox
// callable, per spec.md §4.4.
type Native struct {
	Header
	Name     string
	Callback NativeFn
}

var _ Obj = (*Native)(nil)

func NewNative(name string, fn NativeFn) *Native {
	return &Native{Header: Header{Kind: ObjNative}, Name: name, Callback: fn}
}

func (n *Native) Head() *Header { return &n.Header }
func (n *Native) String() string { return fmt.Sprintf("<native fn %s>", n.Name) }
