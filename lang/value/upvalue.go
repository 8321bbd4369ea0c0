package value

// Upvalue is an indirection cell shared by every closure that captured the
// same local. Location points either at a live stack slot (open) or at the
// cell's own Closed field (closed), per spec.md §3/§4.4. StackSlot records
// the absolute stack index Location refers to while open; it is what the
// VM's open-upvalue list (a slice kept sorted descending by StackSlot, see
// lang/vm) orders by, and it is ignored once the upvalue is closed.
type Upvalue struct {
	Header
	Location  *Value
	Closed    Value
	StackSlot int
}

var (
	_ Obj    = (*Upvalue)(nil)
	_ Tracer = (*Upvalue)(nil)
)

// NewOpenUpvalue creates an upvalue pointing at the given live stack slot.
func NewOpenUpvalue(slot int, loc *Value) *Upvalue {
	return &Upvalue{Header: Header{Kind: ObjUpvalue}, Location: loc, StackSlot: slot}
}

func (u *Upvalue) Head() *Header  { return &u.Header }
func (u *Upvalue) String() string { return "<upvalue>" }

// Close retargets Location at the cell's own storage, copying the current
// referent first. Called when the stack slot it pointed into is about to be
// popped.
func (u *Upvalue) Close() {
	u.Closed = *u.Location
	u.Location = &u.Closed
}

// TraceRefs marks Closed, which is sufficient even for an open upvalue:
// while open, the stack slot it points into is already a root, per spec.md
// §4.5.
func (u *Upvalue) TraceRefs(mark func(Obj)) {
	MarkValue(u.Closed, mark)
}
