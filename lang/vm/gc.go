package vm

import (
	"github.com/mna/glox/lang/table"
	"github.com/mna/glox/lang/value"
)

// collectGarbage runs one full tracing mark-sweep cycle, per spec.md §4.5's
// five phases.
func (vm *VM) collectGarbage() {
	vm.markRoots()
	vm.traceReferences()
	vm.strings.RemoveWhite()
	vm.sweep()
	vm.nextGC = vm.bytesAllocated * vm.cfg.GCHeapGrowthFactor
}

// markRoots marks every root enumerated in spec.md §4.5 phase 1: the value
// stack, every call frame's closure, every open upvalue, the globals table,
// the init string, and any extra root pushed via PushRoot (temporaries and
// in-progress compiler-chain functions).
func (vm *VM) markRoots() {
	for i := 0; i < vm.stackTop; i++ {
		value.MarkValue(vm.stack[i], vm.markObject)
	}
	for i := 0; i < vm.frameCount; i++ {
		vm.markObject(vm.frames[i].closure)
	}
	for _, uv := range vm.openUpvalues {
		vm.markObject(uv)
	}
	vm.markTable(vm.globals)
	if vm.initString != nil {
		vm.markObject(vm.initString)
	}
	for _, v := range vm.roots {
		value.MarkValue(v, vm.markObject)
	}
}

func (vm *VM) markTable(t *table.Table) {
	t.Each(func(key *value.String, v value.Value) {
		vm.markObject(key)
		value.MarkValue(v, vm.markObject)
	})
}

// markObject blackens-adjacent o: sets its mark bit and pushes it onto the
// gray stack for traceReferences to scan. It is the mark func threaded
// through value.MarkValue and every Tracer.TraceRefs implementation.
func (vm *VM) markObject(o value.Obj) {
	if o == nil {
		return
	}
	h := o.Head()
	if h.Marked {
		return
	}
	h.Marked = true
	vm.gray = append(vm.gray, o)
}

// traceReferences drains the gray stack, per spec.md §4.5 phase 2.
func (vm *VM) traceReferences() {
	for len(vm.gray) > 0 {
		o := vm.gray[len(vm.gray)-1]
		vm.gray = vm.gray[:len(vm.gray)-1]
		if tracer, ok := o.(value.Tracer); ok {
			tracer.TraceRefs(vm.markObject)
		}
	}
}

// sweep walks the intrusive object list, unlinking and dropping every
// unmarked object and clearing the mark bit on survivors, per spec.md §4.5
// phase 4. heap_size is a running signed tally across both allocations and
// frees (spec.md §4.5), so every freed object's approxSize comes back out
// of bytesAllocated here -- otherwise nextGC only ever ratchets upward.
func (vm *VM) sweep() {
	var previous value.Obj
	object := vm.objects
	for object != nil {
		h := object.Head()
		if h.Marked {
			h.Marked = false
			previous = object
			object = h.Next
			continue
		}
		unreached := object
		object = h.Next
		if previous != nil {
			previous.Head().Next = object
		} else {
			vm.objects = object
		}
		unreached.Head().Next = nil
		vm.bytesAllocated -= approxSize(unreached)
	}
}
