// Package vm implements the stack-based bytecode interpreter of spec.md
// §4.4: call frames, closures with shared upvalues, classes with bound
// methods, native functions, and the tracing mark-sweep garbage collector of
// §4.5 wired directly into every allocation path.
package vm

import (
	"fmt"
	gotoken "go/token"
	"io"
	"time"

	"github.com/mna/glox/lang/compiler"
	"github.com/mna/glox/lang/table"
	"github.com/mna/glox/lang/value"
)

// CallFrame records one active call: which closure, where in its bytecode,
// and where on the value stack its slots begin, per spec.md §4.4.
type CallFrame struct {
	closure *value.Closure
	ip      int
	slots   int // index into vm.stack of slot 0 for this call
}

// VM is the runtime: value stack, call frames, globals/intern tables, the
// open-upvalue list, the GC's object list and gray stack, and the knobs in
// Config. The zero value is not ready to use; call New.
type VM struct {
	cfg    Config
	stdout io.Writer
	start  time.Time

	stack    []value.Value
	stackTop int

	frames     []CallFrame
	frameCount int

	globals *table.Table
	strings *table.Table

	openUpvalues []*value.Upvalue // sorted descending by StackSlot

	objects value.Obj // head of the intrusive GC object list
	gray    []value.Obj

	bytesAllocated int
	nextGC         int

	initString *value.String

	// roots holds values that must survive GC even though they are not yet
	// reachable from the stack or globals: temporaries mid-construction
	// (string interning, native registration) and functions in the
	// compiler chain still being built, per spec.md §4.5's safety contract.
	roots []value.Value
}

var _ compiler.Allocator = (*VM)(nil)

// New creates a VM ready to run programs, with clock() registered as the
// sole native function per spec.md §6.
func New(cfg Config, stdout io.Writer) *VM {
	vm := &VM{
		cfg:     cfg,
		stdout:  stdout,
		start:   time.Now(),
		globals: table.New(),
		strings: table.New(),
		nextGC:  1 << 20,
	}
	vm.stack = make([]value.Value, cfg.MaxFrames*slotsPerFrame)
	vm.frames = make([]CallFrame, cfg.MaxFrames)
	vm.initString = vm.InternString([]byte("init"))
	vm.defineNative("clock", vm.clockNative)
	return vm
}

// Interpret compiles and runs src as a top-level script, per spec.md §1's
// data flow: compile to a Function, wrap it in a Closure, call it, run the
// dispatch loop. A compile error is returned as-is (a scanner.ErrorList);
// a runtime error is returned as a *RuntimeError.
func (vm *VM) Interpret(fset *gotoken.FileSet, filename string, src []byte) error {
	fn, err := compiler.Compile(vm, fset, filename, src)
	if err != nil {
		return err
	}

	vm.resetStack()
	closure := value.NewClosure(fn)
	vm.track(closure)
	vm.push(value.FromObject(closure))
	if err := vm.callValue(value.FromObject(closure), 0); err != nil {
		return err
	}
	return vm.run()
}

// Close releases the VM's resources, walking the whole object list and
// unlinking every object from it unconditionally so none stays reachable
// through the VM -- fixing spec.md §9's noted bug where the reference leaks
// individual objects at shutdown.
func (vm *VM) Close() {
	for o := vm.objects; o != nil; {
		next := o.Head().Next
		o.Head().Next = nil
		o = next
	}
	vm.objects = nil
	vm.openUpvalues = nil
	vm.globals = table.New()
	vm.strings = table.New()
	vm.gray = nil
	vm.roots = nil
}

func (vm *VM) resetStack() {
	vm.stackTop = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
}

func (vm *VM) push(v value.Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() value.Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[vm.stackTop-1-distance]
}

// --- compiler.Allocator -----------------------------------------------

// InternString returns the canonical *value.String for b, per spec.md §3's
// intern invariant: two Strings with identical bytes are never allocated.
func (vm *VM) InternString(b []byte) *value.String {
	hash := value.FNV1a(b)
	if s := vm.strings.FindString(b, hash); s != nil {
		return s
	}
	s := value.NewString(append([]byte(nil), b...))
	vm.track(s)
	// protect s across the table's own allocations while inserting, per
	// spec.md §4.5's safety contract.
	vm.PushRoot(value.FromObject(s))
	vm.strings.Set(s, value.Nil)
	vm.PopRoot()
	return s
}

// NewFunction allocates a fresh, empty Function and links it onto the
// object list.
func (vm *VM) NewFunction() *value.Function {
	fn := &value.Function{Header: value.Header{Kind: value.ObjFunction}}
	vm.track(fn)
	return fn
}

// PushRoot protects v from collection across further allocations by
// treating it as an extra GC root.
func (vm *VM) PushRoot(v value.Value) { vm.roots = append(vm.roots, v) }

// PopRoot releases the most recently pushed root.
func (vm *VM) PopRoot() { vm.roots = vm.roots[:len(vm.roots)-1] }

// track runs the allocation-driven GC trigger check of spec.md §4.5 and
// then links o onto the object list. The check happens before linking, not
// after, so a collection triggered by allocating o can never sweep o
// itself: it isn't part of the object list yet.
func (vm *VM) track(o value.Obj) {
	vm.bytesAllocated += approxSize(o)
	if vm.cfg.GCStress || vm.bytesAllocated > vm.nextGC {
		vm.collectGarbage()
	}
	o.Head().Next = vm.objects
	vm.objects = o
}

// approxSize is a coarse per-kind allocation unit for the heap_size
// accounting of spec.md §4.5. Go's own allocator and GC manage the real
// memory; this tally only drives the collection heuristic, the same role
// the reference's exact byte counts play.
func approxSize(o value.Obj) int {
	switch o.(type) {
	case *value.String:
		return 64
	case *value.Upvalue:
		return 48
	case *value.Closure:
		return 64
	case *value.Function:
		return 128
	case *value.Native:
		return 48
	case *Class, *Instance, *BoundMethod:
		return 96
	default:
		return 32
	}
}

func (vm *VM) defineNative(name string, fn value.NativeFn) {
	nameStr := vm.InternString([]byte(name))
	vm.PushRoot(value.FromObject(nameStr))
	native := value.NewNative(name, fn)
	vm.track(native)
	vm.PushRoot(value.FromObject(native))
	vm.globals.Set(nameStr, value.FromObject(native))
	vm.PopRoot()
	vm.PopRoot()
}

func (vm *VM) clockNative(args []value.Value) (value.Value, error) {
	if len(args) != 0 {
		return value.Nil, fmt.Errorf("expected 0 arguments but got %d", len(args))
	}
	return value.Number(time.Since(vm.start).Seconds()), nil
}
