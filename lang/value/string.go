package value

// String is an interned, immutable byte sequence. Interning (performed by
// the VM's intern table, not by this package) guarantees that two String
// objects with identical bytes are never allocated: string equality is
// therefore pointer equality, per spec.md §3.
type String struct {
	Header
	Bytes []byte
	Hash  uint32
}

var _ Obj = (*String)(nil)

// NewString builds a String object wrapping b. It does not intern: callers
// that want the intern invariant must go through the VM's InternString.
func NewString(b []byte) *String {
	return &String{
		Header: Header{Kind: ObjString},
		Bytes:  b,
		Hash:   FNV1a(b),
	}
}

func (s *String) Head() *Header   { return &s.Header }
func (s *String) String() string { return string(s.Bytes) }

// FNV1a computes the 32-bit Fowler-Noll-Vo hash spec.md §3 mandates for
// String, hand-rolled rather than reused from hash/fnv to match the exact
// algorithm (offset basis 2166136261, prime 16777619) without the overhead
// of going through the hash.Hash32 interface for what is always a one-shot
// hash of a byte slice already in hand.
func FNV1a(b []byte) uint32 {
	var h uint32 = 2166136261
	for _, c := range b {
		h ^= uint32(c)
		h *= 16777619
	}
	return h
}
