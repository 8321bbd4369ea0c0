// Package compiler implements the single-pass, Pratt-precedence-climbing
// compiler of spec.md §4.2: a recursive-descent parser that emits bytecode
// directly into a Function's Chunk as it parses, with no intervening AST.
package compiler

import "fmt"

// Opcode is a single bytecode instruction. Operand layouts are documented in
// spec.md §4.3; each "stack picture" comment below follows the reference's
// convention of "before OP<args> after".
type Opcode byte

//nolint:revive
const (
	CONSTANT Opcode = iota //             - CONSTANT<u8 idx>       value
	NIL                    //             - NIL                    nil
	TRUE                   //             - TRUE                   true
	FALSE                  //             - FALSE                  false
	POP                    //             x POP                    -

	GET_LOCAL  //          - GET_LOCAL<u8 slot>  value
	SET_LOCAL  //      value SET_LOCAL<u8 slot>  value
	GET_GLOBAL //          - GET_GLOBAL<u8 name>  value
	SET_GLOBAL //      value SET_GLOBAL<u8 name>  value
	DEFINE_GLOBAL //   value DEFINE_GLOBAL<u8 name> -
	GET_UPVALUE   //       - GET_UPVALUE<u8 slot> value
	SET_UPVALUE   //   value SET_UPVALUE<u8 slot> value
	GET_PROPERTY  //  inst. GET_PROPERTY<u8 name> value
	SET_PROPERTY  // inst v SET_PROPERTY<u8 name> v

	EQUAL   // a b EQUAL   bool
	GREATER // a b GREATER bool
	LESS    // a b LESS    bool

	ADD      // a b ADD      a+b
	SUBTRACT // a b SUBTRACT a-b
	MULTIPLY // a b MULTIPLY a*b
	DIVIDE   // a b DIVIDE   a/b
	NOT      //   x NOT      !truthy(x)
	NEGATE   //   x NEGATE   -x

	PRINT //  x PRINT -

	JUMP_IF_FALSE // cond JUMP_IF_FALSE<u16 off> cond  (does not pop)
	JUMP          //    - JUMP<u16 off>          -
	LOOP          //    - LOOP<u16 off>          -

	CALL //       fn a1..aN CALL<u8 argc>       result

	CLOSURE       //        - CLOSURE<u8 fnconst> (uv descriptors follow) closure
	CLOSE_UPVALUE //        x CLOSE_UPVALUE        -
	RETURN        //    value RETURN               -  (or ends the run loop)

	CLASS  //      - CLASS<u8 name>  class
	METHOD // class closure METHOD<u8 name> class

	opcodeMax
)

var opcodeNames = [...]string{
	CONSTANT:      "OP_CONSTANT",
	NIL:           "OP_NIL",
	TRUE:          "OP_TRUE",
	FALSE:         "OP_FALSE",
	POP:           "OP_POP",
	GET_LOCAL:     "OP_GET_LOCAL",
	SET_LOCAL:     "OP_SET_LOCAL",
	GET_GLOBAL:    "OP_GET_GLOBAL",
	SET_GLOBAL:    "OP_SET_GLOBAL",
	DEFINE_GLOBAL: "OP_DEFINE_GLOBAL",
	GET_UPVALUE:   "OP_GET_UPVALUE",
	SET_UPVALUE:   "OP_SET_UPVALUE",
	GET_PROPERTY:  "OP_GET_PROPERTY",
	SET_PROPERTY:  "OP_SET_PROPERTY",
	EQUAL:         "OP_EQUAL",
	GREATER:       "OP_GREATER",
	LESS:          "OP_LESS",
	ADD:           "OP_ADD",
	SUBTRACT:      "OP_SUBTRACT",
	MULTIPLY:      "OP_MULTIPLY",
	DIVIDE:        "OP_DIVIDE",
	NOT:           "OP_NOT",
	NEGATE:        "OP_NEGATE",
	PRINT:         "OP_PRINT",
	JUMP_IF_FALSE: "OP_JUMP_IF_FALSE",
	JUMP:          "OP_JUMP",
	LOOP:          "OP_LOOP",
	CALL:          "OP_CALL",
	CLOSURE:       "OP_CLOSURE",
	CLOSE_UPVALUE: "OP_CLOSE_UPVALUE",
	RETURN:        "OP_RETURN",
	CLASS:         "OP_CLASS",
	METHOD:        "OP_METHOD",
}

func (op Opcode) String() string {
	if op < opcodeMax {
		return opcodeNames[op]
	}
	return fmt.Sprintf("illegal opcode (%d)", byte(op))
}
