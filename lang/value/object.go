package value

// ObjKind identifies the dynamic type of a heap Object.
type ObjKind uint8

const (
	ObjString ObjKind = iota
	ObjFunction
	ObjNative
	ObjUpvalue
	ObjClosure
	ObjClass
	ObjInstance
	ObjBoundMethod
)

func (k ObjKind) String() string {
	switch k {
	case ObjString:
		return "string"
	case ObjFunction:
		return "function"
	case ObjNative:
		return "native function"
	case ObjUpvalue:
		return "upvalue"
	case ObjClosure:
		return "function"
	case ObjClass:
		return "class"
	case ObjInstance:
		return "instance"
	case ObjBoundMethod:
		return "bound method"
	default:
		return "unknown"
	}
}

// Header is the common header every heap Object embeds, per spec.md §3:
// {kind, marked, next}. Next threads every live object into the VM's single
// intrusive object list; Marked is the GC's tri-color bit (false once swept
// clean, flipped true as soon as the object is discovered reachable).
type Header struct {
	Kind   ObjKind
	Marked bool
	Next   Obj
}

// Obj is implemented by every heap object kind. A Value with Kind() ==
// KindObject always holds an Obj.
type Obj interface {
	// Head returns the object's common GC header.
	Head() *Header
	// String renders the object the way the print statement does.
	String() string
}

// Tracer is implemented by Object kinds that hold references to other
// objects. The GC's trace phase calls TraceRefs to blacken an object,
// per the edges enumerated in spec.md §4.5. String and Native implement no
// edges and so do not implement Tracer.
type Tracer interface {
	TraceRefs(mark func(Obj))
}

// MarkValue invokes mark on v's underlying Obj if v holds one; it is a no-op
// for non-object values. Tracer implementations use it to blacken Value
// fields without repeating the IsObject check everywhere.
func MarkValue(v Value, mark func(Obj)) {
	if v.IsObject() {
		mark(v.AsObject())
	}
}
