package vm

import (
	"fmt"

	"github.com/mna/glox/lang/table"
	"github.com/mna/glox/lang/value"
)

// Class, Instance and BoundMethod live here rather than in lang/value
// because both Class and Instance need a *table.Table, and lang/table
// already imports lang/value for Value/String -- lang/value importing
// lang/table back would cycle. lang/vm imports both anyway to drive the
// dispatch loop, so it is the natural home.

// Class is a runtime class object: a name and its method table, keyed by
// interned method name, per spec.md §3.
type Class struct {
	value.Header
	Name    *value.String
	Methods *table.Table
}

var (
	_ value.Obj    = (*Class)(nil)
	_ value.Tracer = (*Class)(nil)
)

// NewClass allocates a class with an empty method table.
func NewClass(name *value.String) *Class {
	return &Class{Header: value.Header{Kind: value.ObjClass}, Name: name, Methods: table.New()}
}

func (c *Class) Head() *value.Header { return &c.Header }
func (c *Class) String() string      { return c.Name.String() }

func (c *Class) TraceRefs(mark func(value.Obj)) {
	mark(c.Name)
	c.Methods.Each(func(key *value.String, v value.Value) {
		mark(key)
		value.MarkValue(v, mark)
	})
}

// Instance is a runtime instance of a Class, with its own field table.
type Instance struct {
	value.Header
	Class  *Class
	Fields *table.Table
}

var (
	_ value.Obj    = (*Instance)(nil)
	_ value.Tracer = (*Instance)(nil)
)

// NewInstance allocates an instance of class with an empty field table.
func NewInstance(class *Class) *Instance {
	return &Instance{Header: value.Header{Kind: value.ObjInstance}, Class: class, Fields: table.New()}
}

func (i *Instance) Head() *value.Header { return &i.Header }
func (i *Instance) String() string      { return fmt.Sprintf("%s instance", i.Class.Name.String()) }

func (i *Instance) TraceRefs(mark func(value.Obj)) {
	mark(i.Class)
	i.Fields.Each(func(key *value.String, v value.Value) {
		mark(key)
		value.MarkValue(v, mark)
	})
}

// BoundMethod pairs a receiver with the method closure it was looked up
// through, produced by OP_GET_PROPERTY's fallback to method binding.
type BoundMethod struct {
	value.Header
	Receiver value.Value
	Method   *value.Closure
}

var (
	_ value.Obj    = (*BoundMethod)(nil)
	_ value.Tracer = (*BoundMethod)(nil)
)

// NewBoundMethod allocates a bound method pairing receiver with method.
func NewBoundMethod(receiver value.Value, method *value.Closure) *BoundMethod {
	return &BoundMethod{Header: value.Header{Kind: value.ObjBoundMethod}, Receiver: receiver, Method: method}
}

func (b *BoundMethod) Head() *value.Header { return &b.Header }
func (b *BoundMethod) String() string      { return b.Method.String() }

func (b *BoundMethod) TraceRefs(mark func(value.Obj)) {
	value.MarkValue(b.Receiver, mark)
	mark(b.Method)
}
