package compiler

import (
	"fmt"
	gotoken "go/token"

	langscanner "github.com/mna/glox/lang/scanner"
	langtok "github.com/mna/glox/lang/token"
	"github.com/mna/glox/lang/value"
)

// MaxLocals and MaxUpvalues mirror spec.md §8's boundary properties: 256
// locals per function, 256 upvalues per closure. The call frame limit
// belongs to the VM and is not defined here; see lang/vm's Config.MaxFrames.
const (
	MaxLocals   = 256
	MaxUpvalues = 256
)

// Allocator is implemented by the VM. The compiler never allocates heap
// objects on its own: it always goes through the same allocator the VM uses
// at runtime, so that every object -- including ones built while compiling,
// such as string constants and nested function objects -- lives on one
// object list and is visible to one GC.
type Allocator interface {
	// InternString returns the canonical *value.String for b, allocating and
	// interning a new one on a miss.
	InternString(b []byte) *value.String
	// NewFunction allocates a fresh, empty Function object and links it onto
	// the object list.
	NewFunction() *value.Function
	// PushRoot protects v across further allocations by keeping it reachable
	// from a GC root (the reference implementation's stack; see spec.md
	// §4.5's safety contract). PopRoot releases the most recently pushed
	// root.
	PushRoot(v value.Value)
	PopRoot()
}

type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

type parseFn func(p *parser, c *compiler, canAssign bool)

type parseRule struct {
	prefix, infix parseFn
	prec          precedence
}

type local struct {
	name       string
	depth      int // -1: declared but not yet initialized
	isCaptured bool
}

type upvalueRef struct {
	index   uint8
	isLocal bool
}

// compiler holds the per-compilation-unit state of spec.md §4.2: one exists
// per nested function/method/initializer being compiled, chained through
// enclosing.
type compiler struct {
	enclosing *compiler
	fn        *value.Function
	fnType    value.FunctionType

	locals     []local
	scopeDepth int
	upvalues   []upvalueRef
}

func newCompiler(alloc Allocator, enclosing *compiler, fnType value.FunctionType, name string) *compiler {
	fn := alloc.NewFunction()
	fn.Type = fnType
	if name != "" {
		fn.Name = alloc.InternString([]byte(name))
	}
	c := &compiler{enclosing: enclosing, fn: fn, fnType: fnType}

	// Slot 0 is reserved: "this" for methods/initializers, inaccessible
	// empty-named slot for plain functions, per spec.md §4.2.
	slotName := ""
	if fnType == value.TypeMethod || fnType == value.TypeInitializer {
		slotName = "this"
	}
	c.locals = append(c.locals, local{name: slotName, depth: 0})
	return c
}

// classCompiler tracks the class currently being compiled, so that `this`
// used outside of any class body is rejected.
type classCompiler struct {
	enclosing *classCompiler
}

// parser drives the Pratt precedence-climbing loop over the token stream,
// emitting bytecode directly into the active compiler's chunk as it goes.
type parser struct {
	alloc Allocator
	file  *gotoken.File
	lex   langscanner.Scanner

	current  langtok.Token
	curVal   langtok.Value
	previous langtok.Token
	prevVal  langtok.Value

	errs      langscanner.ErrorList
	panicMode bool
	hadError  bool

	cur   *compiler
	class *classCompiler
}

// Compile compiles src as the top-level script compilation unit and returns
// its Function, ready to be wrapped in a closure and run. On any compile
// error it returns a nil Function and a non-nil error (always a
// langscanner.ErrorList), per spec.md §4.2 and §7.
func Compile(alloc Allocator, fset *gotoken.FileSet, filename string, src []byte) (*value.Function, error) {
	f := fset.AddFile(filename, -1, len(src))
	p := &parser{alloc: alloc, file: f}
	p.lex.Init(f, src, p.errs.Add)

	p.cur = newCompiler(alloc, nil, value.TypeScript, "")
	alloc.PushRoot(value.FromObject(p.cur.fn))

	p.advance()
	for !p.match(langtok.EOF) {
		p.declaration()
	}
	fn := p.endCompiler()
	alloc.PopRoot()

	p.errs.Sort()
	if err := p.errs.Err(); err != nil || p.hadError {
		if err == nil {
			err = p.errs.Err()
		}
		if err == nil {
			err = fmt.Errorf("compile error")
		}
		return nil, err
	}
	return fn, nil
}

// --- token stream ---------------------------------------------------------

func (p *parser) advance() {
	p.previous, p.prevVal = p.current, p.curVal
	for {
		p.current = p.lex.Scan(&p.curVal)
		if p.current != langtok.ILLEGAL {
			break
		}
		// the scanner already reported the error; keep scanning for the next
		// good token so the rest of the file can still be parsed.
	}
}

func (p *parser) check(tok langtok.Token) bool { return p.current == tok }

func (p *parser) match(tok langtok.Token) bool {
	if !p.check(tok) {
		return false
	}
	p.advance()
	return true
}

func (p *parser) consume(tok langtok.Token, msg string) {
	if p.current == tok {
		p.advance()
		return
	}
	p.errorAtCurrent(msg)
}

func (p *parser) errorAtCurrent(msg string) { p.errorAt(p.current, p.curVal, msg) }
func (p *parser) error(msg string)          { p.errorAt(p.previous, p.prevVal, msg) }

func (p *parser) errorAt(tok langtok.Token, val langtok.Value, msg string) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	p.hadError = true

	where := "end"
	if tok != langtok.EOF {
		where = "'" + val.Raw + "'"
	}
	p.errs.Add(p.file.Position(val.Pos), fmt.Sprintf("Error at %s: %s", where, msg))
}

// synchronize implements panic-mode recovery per spec.md §4.2: skip tokens
// until a statement boundary (after a ';' or before a keyword that starts a
// new statement).
func (p *parser) synchronize() {
	p.panicMode = false
	for p.current != langtok.EOF {
		if p.previous == langtok.SEMI {
			return
		}
		switch p.current {
		case langtok.CLASS, langtok.FUN, langtok.VAR, langtok.FOR,
			langtok.IF, langtok.WHILE, langtok.PRINT, langtok.RETURN:
			return
		}
		p.advance()
	}
}

// --- emission --------------------------------------------------------------

func (p *parser) chunk() *value.Chunk { return &p.cur.fn.Chunk }

func (p *parser) line() int { return p.file.Position(p.prevVal.Pos).Line }

func (p *parser) emit(b byte) { p.chunk().Write(b, p.line()) }

func (p *parser) emitOp(op Opcode) { p.emit(byte(op)) }

func (p *parser) emitOps(op1, op2 Opcode) {
	p.emitOp(op1)
	p.emitOp(op2)
}

func (p *parser) emitByte(b byte) { p.emit(b) }

func (p *parser) emitConstant(v value.Value) {
	idx := p.makeConstant(v)
	p.emitOp(CONSTANT)
	p.emitByte(byte(idx))
}

func (p *parser) makeConstant(v value.Value) int {
	if len(p.chunk().Constants) >= value.MaxConstants {
		p.error("too many constants in one chunk")
		return 0
	}
	return p.chunk().AddConstant(v)
}

// emitJump emits a jump opcode with a placeholder 16-bit operand and returns
// the offset of the first placeholder byte, to be patched later.
func (p *parser) emitJump(op Opcode) int {
	p.emitOp(op)
	p.emitByte(0xff)
	p.emitByte(0xff)
	return len(p.chunk().Code) - 2
}

// patchJump backfills the jump at offset with the distance from just after
// the jump's operand to the current bytecode position, per spec.md §4.2.
func (p *parser) patchJump(offset int) {
	jump := len(p.chunk().Code) - offset - 2
	if jump > 0xffff {
		p.error("too much code to jump over")
	}
	p.chunk().Code[offset] = byte(jump >> 8)
	p.chunk().Code[offset+1] = byte(jump)
}

func (p *parser) emitLoop(loopStart int) {
	p.emitOp(LOOP)
	offset := len(p.chunk().Code) - loopStart + 2
	if offset > 0xffff {
		p.error("loop body too large")
	}
	p.emitByte(byte(offset >> 8))
	p.emitByte(byte(offset))
}

func (p *parser) emitReturn() {
	if p.cur.fnType == value.TypeInitializer {
		// implicit `return this;`
		p.emitOp(GET_LOCAL)
		p.emitByte(0)
	} else {
		p.emitOp(NIL)
	}
	p.emitOp(RETURN)
}

func (p *parser) endCompiler() *value.Function {
	p.emitReturn()
	fn := p.cur.fn
	p.cur = p.cur.enclosing
	return fn
}

// --- scopes and locals -----------------------------------------------------

func (p *parser) beginScope() { p.cur.scopeDepth++ }

func (p *parser) endScope() {
	p.cur.scopeDepth--
	for len(p.cur.locals) > 0 && p.cur.locals[len(p.cur.locals)-1].depth > p.cur.scopeDepth {
		if p.cur.locals[len(p.cur.locals)-1].isCaptured {
			p.emitOp(CLOSE_UPVALUE)
		} else {
			p.emitOp(POP)
		}
		p.cur.locals = p.cur.locals[:len(p.cur.locals)-1]
	}
}

func (p *parser) identifierConstant(name string) int {
	return p.makeConstant(value.FromObject(p.alloc.InternString([]byte(name))))
}

func identifiersEqual(a, b string) bool { return a == b }

func (p *parser) resolveLocal(c *compiler, name string) int {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if identifiersEqual(c.locals[i].name, name) {
			if c.locals[i].depth == -1 {
				p.error("can't use self-referencing local variable in its own initializer")
			}
			return i
		}
	}
	return -1
}

func (p *parser) addUpvalue(c *compiler, index uint8, isLocal bool) int {
	for i, uv := range c.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	if len(c.upvalues) >= MaxUpvalues {
		p.error("too many closure variables in function")
		return 0
	}
	c.upvalues = append(c.upvalues, upvalueRef{index: index, isLocal: isLocal})
	c.fn.UpvalueCount = len(c.upvalues)
	return len(c.upvalues) - 1
}

func (p *parser) resolveUpvalue(c *compiler, name string) int {
	if c.enclosing == nil {
		return -1
	}
	if local := p.resolveLocal(c.enclosing, name); local != -1 {
		c.enclosing.locals[local].isCaptured = true
		return p.addUpvalue(c, uint8(local), true)
	}
	if uv := p.resolveUpvalue(c.enclosing, name); uv != -1 {
		return p.addUpvalue(c, uint8(uv), false)
	}
	return -1
}

func (p *parser) addLocal(name string) {
	if len(p.cur.locals) >= MaxLocals {
		p.error("too many local variables in function")
		return
	}
	p.cur.locals = append(p.cur.locals, local{name: name, depth: -1})
}

func (p *parser) declareVariable(name string) {
	if p.cur.scopeDepth == 0 {
		return
	}
	for i := len(p.cur.locals) - 1; i >= 0; i-- {
		l := p.cur.locals[i]
		if l.depth != -1 && l.depth < p.cur.scopeDepth {
			break
		}
		if identifiersEqual(l.name, name) {
			p.error("already a variable with this name in this scope")
		}
	}
	p.addLocal(name)
}

func (p *parser) parseVariable(errMsg string) int {
	p.consume(langtok.IDENT, errMsg)
	name := p.prevVal.Raw
	p.declareVariable(name)
	if p.cur.scopeDepth > 0 {
		return 0
	}
	return p.identifierConstant(name)
}

func (p *parser) markInitialized() {
	if p.cur.scopeDepth == 0 {
		return
	}
	p.cur.locals[len(p.cur.locals)-1].depth = p.cur.scopeDepth
}

func (p *parser) defineVariable(global int) {
	if p.cur.scopeDepth > 0 {
		p.markInitialized()
		return
	}
	p.emitOp(DEFINE_GLOBAL)
	p.emitByte(byte(global))
}

func (p *parser) argumentList() int {
	argc := 0
	if !p.check(langtok.RPAREN) {
		for {
			p.expression()
			if argc == 255 {
				p.error("can't have more than 255 arguments")
			}
			argc++
			if !p.match(langtok.COMMA) {
				break
			}
		}
	}
	p.consume(langtok.RPAREN, "expect ')' after arguments")
	return argc
}

// --- Pratt parsing -----------------------------------------------------

func (p *parser) parsePrecedence(prec precedence) {
	p.advance()
	rule := rules[p.previous]
	if rule.prefix == nil {
		p.error("expect expression")
		return
	}
	canAssign := prec <= precAssignment
	rule.prefix(p, p.cur, canAssign)

	for prec <= rules[p.current].prec {
		p.advance()
		infix := rules[p.previous].infix
		infix(p, p.cur, canAssign)
	}

	if canAssign && p.match(langtok.EQ) {
		p.error("invalid assignment target")
	}
}

func (p *parser) expression() { p.parsePrecedence(precAssignment) }

func getRule(tok langtok.Token) parseRule { return rules[tok] }
