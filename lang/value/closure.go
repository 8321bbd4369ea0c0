package value

// Closure binds a compiled Function with the upvalue handles it captured at
// creation time. Multiple closures may share the same Upvalue object, which
// is how mutation through a captured variable becomes visible across all of
// them, per spec.md §3/GLOSSARY.
type Closure struct {
	Header
	Function *Function
	Upvalues []*Upvalue
}

var (
	_ Obj    = (*Closure)(nil)
	_ Tracer = (*Closure)(nil)
)

func NewClosure(fn *Function) *Closure {
	return &Closure{
		Header:   Header{Kind: ObjClosure},
		Function: fn,
		Upvalues: make([]*Upvalue, fn.UpvalueCount),
	}
}

func (c *Closure) Head() *Header  { return &c.Header }
func (c *Closure) String() string { return c.Function.String() }

func (c *Closure) TraceRefs(mark func(Obj)) {
	mark(c.Function)
	for _, uv := range c.Upvalues {
		if uv != nil {
			mark(uv)
		}
	}
}
