// Package value implements the runtime representation of every value the
// glox virtual machine manipulates: the tagged Value union of §3, the
// common Object header, and the heap object kinds that need no table
// (strings, functions, natives, closures, upvalues), all threaded onto the
// VM's single intrusive object list. Classes, instances and bound methods
// live in lang/vm.
//
// Chunk and Function live in this package rather than a separate lang/chunk
// package: Function holds its Chunk and Closure points to a *Function, so
// splitting them across packages would
// require an import cycle (or an awkward interface indirection) that the
// reference implementation's single translation unit never has to deal
// with.
package value

// Kind identifies which variant of the tagged Value union is populated.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindObject
)

// Value is the tagged sum type manipulated by the compiler and VM: a bool, a
// nil, an IEEE-754 double, or a reference to a heap Object. It is cheap to
// copy and is always passed by value, mirroring the reference
// implementation's packed union.
type Value struct {
	kind Kind
	b    bool
	n    float64
	o    Obj
}

// Nil is the canonical nil value.
var Nil = Value{kind: KindNil}

// True and False are the canonical boolean values.
var (
	True  = Value{kind: KindBool, b: true}
	False = Value{kind: KindBool, b: false}
)

// Bool returns the canonical Value for b.
func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

// Number returns a Value wrapping the float64 n.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// FromObject returns a Value referencing the heap object o.
func FromObject(o Obj) Value { return Value{kind: KindObject, o: o} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNil() bool    { return v.kind == KindNil }
func (v Value) IsBool() bool   { return v.kind == KindBool }
func (v Value) IsNumber() bool { return v.kind == KindNumber }
func (v Value) IsObject() bool { return v.kind == KindObject }

// AsBool returns the boolean payload. The caller must have checked IsBool.
func (v Value) AsBool() bool { return v.b }

// AsNumber returns the float64 payload. The caller must have checked
// IsNumber.
func (v Value) AsNumber() float64 { return v.n }

// AsObject returns the Obj payload. The caller must have checked IsObject.
func (v Value) AsObject() Obj { return v.o }

// Truth reports whether v is truthy: nil and false are the only falsey
// values, per spec.md §6.
func (v Value) Truth() bool {
	switch v.kind {
	case KindNil:
		return false
	case KindBool:
		return v.b
	default:
		return true
	}
}

// Equal implements the by-variant equality of spec.md §3: numbers by IEEE
// equality, booleans by value, nil equal to nil, and objects by identity.
// Equality across differing kinds is always false.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNil:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n
	case KindObject:
		return a.o == b.o
	default:
		return false
	}
}

// String renders v the way the print statement does: "g"-style numbers,
// true/false, <nil> for nil, and each object's own String method.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "<nil>"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatNumber(v.n)
	case KindObject:
		return v.o.String()
	default:
		return "<invalid value>"
	}
}

// TypeName returns a short description of v's dynamic type, used in runtime
// error messages.
func (v Value) TypeName() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindObject:
		return v.o.Head().Kind.String()
	default:
		return "invalid"
	}
}
