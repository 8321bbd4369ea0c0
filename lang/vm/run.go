package vm

import (
	"fmt"

	"github.com/mna/glox/lang/compiler"
	"github.com/mna/glox/lang/value"
	"golang.org/x/exp/slices"
)

func (vm *VM) currentFrame() *CallFrame { return &vm.frames[vm.frameCount-1] }

func (vm *VM) readByte(frame *CallFrame) byte {
	b := frame.closure.Function.Chunk.Code[frame.ip]
	frame.ip++
	return b
}

func (vm *VM) readShort(frame *CallFrame) uint16 {
	hi := vm.readByte(frame)
	lo := vm.readByte(frame)
	return uint16(hi)<<8 | uint16(lo)
}

func (vm *VM) readConstant(frame *CallFrame) value.Value {
	return frame.closure.Function.Chunk.Constants[vm.readByte(frame)]
}

func (vm *VM) readString(frame *CallFrame) *value.String {
	return vm.readConstant(frame).AsObject().(*value.String)
}

// run is the dispatch loop of spec.md §4.4: a flat switch over the current
// frame's bytecode, advancing its own program counter.
func (vm *VM) run() error {
	frame := vm.currentFrame()

	for {
		op := compiler.Opcode(frame.closure.Function.Chunk.Code[frame.ip])
		frame.ip++

		switch op {
		case compiler.CONSTANT:
			vm.push(vm.readConstant(frame))

		case compiler.NIL:
			vm.push(value.Nil)
		case compiler.TRUE:
			vm.push(value.True)
		case compiler.FALSE:
			vm.push(value.False)
		case compiler.POP:
			vm.pop()

		case compiler.GET_LOCAL:
			slot := vm.readByte(frame)
			vm.push(vm.stack[frame.slots+int(slot)])
		case compiler.SET_LOCAL:
			slot := vm.readByte(frame)
			vm.stack[frame.slots+int(slot)] = vm.peek(0)

		case compiler.GET_GLOBAL:
			name := vm.readString(frame)
			v, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError("reference to undefined variable '%s'", name.String())
			}
			vm.push(v)
		case compiler.DEFINE_GLOBAL:
			name := vm.readString(frame)
			vm.globals.Set(name, vm.peek(0))
			vm.pop()
		case compiler.SET_GLOBAL:
			name := vm.readString(frame)
			if vm.globals.Set(name, vm.peek(0)) {
				vm.globals.Delete(name)
				return vm.runtimeError("reference to undefined variable '%s'", name.String())
			}

		case compiler.GET_UPVALUE:
			slot := vm.readByte(frame)
			vm.push(*frame.closure.Upvalues[slot].Location)
		case compiler.SET_UPVALUE:
			slot := vm.readByte(frame)
			*frame.closure.Upvalues[slot].Location = vm.peek(0)

		case compiler.GET_PROPERTY:
			inst, ok := vm.peek(0).AsObject().(*Instance)
			if !ok {
				return vm.runtimeError("only classes have properties")
			}
			name := vm.readString(frame)
			if v, ok := inst.Fields.Get(name); ok {
				vm.pop()
				vm.push(v)
				break
			}
			if !vm.bindMethod(inst.Class, name) {
				return vm.runtimeError("undefined property '%s'", name.String())
			}
		case compiler.SET_PROPERTY:
			inst, ok := vm.peek(1).AsObject().(*Instance)
			if !ok {
				return vm.runtimeError("only instances have fields")
			}
			name := vm.readString(frame)
			inst.Fields.Set(name, vm.peek(0))
			v := vm.pop()
			vm.pop()
			vm.push(v)

		case compiler.EQUAL:
			b, a := vm.pop(), vm.pop()
			vm.push(value.Bool(value.Equal(a, b)))
		case compiler.GREATER, compiler.LESS:
			if err := vm.binaryCompare(op); err != nil {
				return err
			}
		case compiler.ADD:
			if err := vm.add(); err != nil {
				return err
			}
		case compiler.SUBTRACT, compiler.MULTIPLY, compiler.DIVIDE:
			if err := vm.binaryArith(op); err != nil {
				return err
			}
		case compiler.NOT:
			vm.push(value.Bool(!vm.pop().Truth()))
		case compiler.NEGATE:
			if !vm.peek(0).IsNumber() {
				return vm.runtimeError("operand must be a number")
			}
			vm.push(value.Number(-vm.pop().AsNumber()))

		case compiler.PRINT:
			fmt.Fprintln(vm.stdout, vm.pop().String())

		case compiler.JUMP_IF_FALSE:
			offset := vm.readShort(frame)
			if !vm.peek(0).Truth() {
				frame.ip += int(offset)
			}
		case compiler.JUMP:
			offset := vm.readShort(frame)
			frame.ip += int(offset)
		case compiler.LOOP:
			offset := vm.readShort(frame)
			frame.ip -= int(offset)

		case compiler.CALL:
			argc := int(vm.readByte(frame))
			if err := vm.callValue(vm.peek(argc), argc); err != nil {
				return err
			}
			frame = vm.currentFrame()

		case compiler.CLOSURE:
			fn := vm.readConstant(frame).AsObject().(*value.Function)
			closure := value.NewClosure(fn)
			vm.track(closure)
			vm.push(value.FromObject(closure))
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := vm.readByte(frame)
				index := vm.readByte(frame)
				if isLocal == 1 {
					closure.Upvalues[i] = vm.captureUpvalue(frame.slots + int(index))
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}
		case compiler.CLOSE_UPVALUE:
			vm.closeUpvalues(vm.stackTop - 1)
			vm.pop()

		case compiler.RETURN:
			result := vm.pop()
			vm.closeUpvalues(frame.slots)
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop()
				return nil
			}
			vm.stackTop = frame.slots
			vm.push(result)
			frame = vm.currentFrame()

		case compiler.CLASS:
			class := NewClass(vm.readString(frame))
			vm.track(class)
			vm.push(value.FromObject(class))
		case compiler.METHOD:
			vm.defineMethod(vm.readString(frame))

		default:
			return vm.runtimeError("illegal opcode %v", op)
		}
	}
}

// callValue implements spec.md §4.4's call protocol for every callable
// kind: closures, classes (construction + optional init), bound methods,
// and natives.
func (vm *VM) callValue(callee value.Value, argc int) error {
	if callee.IsObject() {
		switch o := callee.AsObject().(type) {
		case *value.Closure:
			return vm.call(o, argc)
		case *Class:
			inst := NewInstance(o)
			vm.track(inst)
			vm.stack[vm.stackTop-argc-1] = value.FromObject(inst)
			if initializer, ok := o.Methods.Get(vm.initString); ok {
				return vm.call(initializer.AsObject().(*value.Closure), argc)
			}
			if argc != 0 {
				return vm.runtimeError("expected 0 arguments but got %d", argc)
			}
			return nil
		case *BoundMethod:
			vm.stack[vm.stackTop-argc-1] = o.Receiver
			return vm.call(o.Method, argc)
		case *value.Native:
			args := vm.stack[vm.stackTop-argc : vm.stackTop]
			result, err := o.Callback(args)
			if err != nil {
				return vm.runtimeError("%v", err)
			}
			vm.stackTop -= argc + 1
			vm.push(result)
			return nil
		}
	}
	return vm.runtimeError("can only call functions and classes")
}

// call pushes a new frame for closure, per spec.md §4.4's corrected slots
// formula (stack_top - argc - 1, per spec.md §9 -- NOT the reference's
// buggy stack_top - argc).
func (vm *VM) call(closure *value.Closure, argc int) error {
	if argc != closure.Function.Arity {
		return vm.runtimeError("expected %d arguments but got %d", closure.Function.Arity, argc)
	}
	if vm.frameCount == len(vm.frames) {
		return vm.runtimeError("stack overflow")
	}
	frame := &vm.frames[vm.frameCount]
	vm.frameCount++
	frame.closure = closure
	frame.ip = 0
	frame.slots = vm.stackTop - argc - 1
	return nil
}

// bindMethod looks up name in class's method table and, on a hit, replaces
// the receiver on top of the stack with a BoundMethod, per spec.md §4.4 --
// fixing spec.md §9's noted bug where the reference reports an error even
// after a successful bind.
func (vm *VM) bindMethod(class *Class, name *value.String) bool {
	methodVal, ok := class.Methods.Get(name)
	if !ok {
		return false
	}
	bound := NewBoundMethod(vm.peek(0), methodVal.AsObject().(*value.Closure))
	vm.track(bound)
	vm.pop()
	vm.push(value.FromObject(bound))
	return true
}

func (vm *VM) defineMethod(name *value.String) {
	method := vm.peek(0)
	class := vm.peek(1).AsObject().(*Class)
	class.Methods.Set(name, method)
	vm.pop()
}

// captureUpvalue returns the existing open upvalue for slot, or creates one,
// keeping vm.openUpvalues sorted descending by StackSlot per spec.md §3's
// invariant.
func (vm *VM) captureUpvalue(slot int) *value.Upvalue {
	i, found := slices.BinarySearchFunc(vm.openUpvalues, slot, func(uv *value.Upvalue, slot int) int {
		return slot - uv.StackSlot // descending order: larger slots precede the target
	})
	if found {
		return vm.openUpvalues[i]
	}
	created := value.NewOpenUpvalue(slot, &vm.stack[slot])
	vm.track(created)
	vm.openUpvalues = slices.Insert(vm.openUpvalues, i, created)
	return created
}

// closeUpvalues closes and evicts every open upvalue at or above stack
// index from, per spec.md §4.4. Since the list is sorted descending, these
// are always a prefix.
func (vm *VM) closeUpvalues(from int) {
	n := 0
	for n < len(vm.openUpvalues) && vm.openUpvalues[n].StackSlot >= from {
		vm.openUpvalues[n].Close()
		n++
	}
	vm.openUpvalues = slices.Delete(vm.openUpvalues, 0, n)
}

func (vm *VM) binaryCompare(op compiler.Opcode) error {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		return vm.runtimeError("operands must be numbers")
	}
	b, a := vm.pop().AsNumber(), vm.pop().AsNumber()
	switch op {
	case compiler.GREATER:
		vm.push(value.Bool(a > b))
	case compiler.LESS:
		vm.push(value.Bool(a < b))
	}
	return nil
}

func (vm *VM) binaryArith(op compiler.Opcode) error {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		return vm.runtimeError("operands must be numbers")
	}
	b, a := vm.pop().AsNumber(), vm.pop().AsNumber()
	switch op {
	case compiler.SUBTRACT:
		vm.push(value.Number(a - b))
	case compiler.MULTIPLY:
		vm.push(value.Number(a * b))
	case compiler.DIVIDE:
		vm.push(value.Number(a / b))
	}
	return nil
}

// add implements OP_ADD's dual behavior: numeric addition or string
// concatenation into a freshly interned string, per spec.md §4.3.
func (vm *VM) add() error {
	bIsStr := isString(vm.peek(0))
	aIsStr := isString(vm.peek(1))
	switch {
	case aIsStr && bIsStr:
		// Keep both operands on the stack as GC roots across InternString's
		// allocation (which can trigger a collection), per spec.md §4.5's
		// safety contract, and only pop them once the result is interned.
		b := vm.peek(0).AsObject().(*value.String)
		a := vm.peek(1).AsObject().(*value.String)
		concatenated := append(append([]byte(nil), a.Bytes...), b.Bytes...)
		result := value.FromObject(vm.InternString(concatenated))
		vm.pop()
		vm.pop()
		vm.push(result)
		return nil
	case vm.peek(0).IsNumber() && vm.peek(1).IsNumber():
		b, a := vm.pop().AsNumber(), vm.pop().AsNumber()
		vm.push(value.Number(a + b))
		return nil
	default:
		return vm.runtimeError("operands must be two numbers or two strings")
	}
}

func isString(v value.Value) bool {
	if !v.IsObject() {
		return false
	}
	_, ok := v.AsObject().(*value.String)
	return ok
}
