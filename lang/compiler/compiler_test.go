package compiler_test

import (
	"go/token"
	"testing"

	"github.com/mna/glox/lang/compiler"
	"github.com/mna/glox/lang/value"
	"github.com/stretchr/testify/require"
)

// fakeAllocator is a minimal compiler.Allocator for tests: it interns
// strings in a plain map and tracks pushed roots only to catch
// push/pop mismatches, with no actual garbage collection.
type fakeAllocator struct {
	strings map[string]*value.String
	roots   []value.Value
}

func newFakeAllocator() *fakeAllocator {
	return &fakeAllocator{strings: map[string]*value.String{}}
}

func (a *fakeAllocator) InternString(b []byte) *value.String {
	if s, ok := a.strings[string(b)]; ok {
		return s
	}
	s := value.NewString(b)
	a.strings[string(b)] = s
	return s
}

func (a *fakeAllocator) NewFunction() *value.Function { return &value.Function{} }

func (a *fakeAllocator) PushRoot(v value.Value) { a.roots = append(a.roots, v) }

func (a *fakeAllocator) PopRoot() { a.roots = a.roots[:len(a.roots)-1] }

func compile(t *testing.T, src string) *value.Function {
	t.Helper()
	fn, err := compiler.Compile(newFakeAllocator(), token.NewFileSet(), "test.lox", []byte(src))
	require.NoError(t, err)
	require.NotNil(t, fn)
	return fn
}

func TestCompileArithmeticIsDeterministic(t *testing.T) {
	const src = `print 1 + 2 * 3;`
	fn1 := compile(t, src)
	fn2 := compile(t, src)
	require.Equal(t, fn1.Chunk.Code, fn2.Chunk.Code)
	require.Equal(t, len(fn1.Chunk.Constants), len(fn2.Chunk.Constants))
}

func TestCompileEmitsExpectedOpcodes(t *testing.T) {
	fn := compile(t, `print 1 + 2;`)
	ops := opcodesOf(fn)
	require.Contains(t, ops, compiler.CONSTANT)
	require.Contains(t, ops, compiler.ADD)
	require.Contains(t, ops, compiler.PRINT)
	require.Contains(t, ops, compiler.RETURN)
}

func TestCompileVarDeclarationAndGlobalAccess(t *testing.T) {
	fn := compile(t, `var a = 1; print a;`)
	ops := opcodesOf(fn)
	require.Contains(t, ops, compiler.DEFINE_GLOBAL)
	require.Contains(t, ops, compiler.GET_GLOBAL)
}

func TestCompileLocalScopeUsesLocalSlots(t *testing.T) {
	fn := compile(t, `{ var a = 1; print a; }`)
	ops := opcodesOf(fn)
	require.Contains(t, ops, compiler.GET_LOCAL)
	require.NotContains(t, ops, compiler.DEFINE_GLOBAL)
}

func TestCompileClosureCapturesUpvalue(t *testing.T) {
	fn := compile(t, `
fun outer() {
  var x = 1;
  fun inner() { return x; }
  return inner;
}
`)
	ops := opcodesOf(fn)
	require.Contains(t, ops, compiler.CLOSURE)

	outer := functionConstant(t, fn)
	inner := functionConstant(t, outer)
	require.Equal(t, 1, inner.UpvalueCount)
	require.Contains(t, opcodesOf(inner), compiler.GET_UPVALUE)
}

// functionConstant returns the first Function in fn's constant pool.
func functionConstant(t *testing.T, fn *value.Function) *value.Function {
	t.Helper()
	for _, c := range fn.Chunk.Constants {
		if f, ok := c.AsObject().(*value.Function); ok {
			return f
		}
	}
	require.FailNow(t, "no function constant")
	return nil
}

func TestCompileClassWithInitAndMethod(t *testing.T) {
	fn := compile(t, `
class Greeter {
  init(name) { this.name = name; }
  greet() { print this.name; }
}
`)
	ops := opcodesOf(fn)
	require.Contains(t, ops, compiler.CLASS)
	require.Contains(t, ops, compiler.METHOD)
}

func TestCompileErrorOnReturnFromTopLevel(t *testing.T) {
	_, err := compiler.Compile(newFakeAllocator(), token.NewFileSet(), "test.lox", []byte(`return 1;`))
	require.Error(t, err)
}

func TestCompileErrorOnUndefinedThis(t *testing.T) {
	_, err := compiler.Compile(newFakeAllocator(), token.NewFileSet(), "test.lox", []byte(`print this;`))
	require.Error(t, err)
}

func TestCompileErrorOnSelfReferencingInitializer(t *testing.T) {
	_, err := compiler.Compile(newFakeAllocator(), token.NewFileSet(), "test.lox", []byte(`{ var a = a; }`))
	require.Error(t, err)
}

// opcodesOf walks fn's bytecode, decoding CLOSURE's variable-length operand
// (one fnconst byte plus two bytes per upvalue, per spec.md §4.3) by looking
// up the referenced function's UpvalueCount in the constant pool.
func opcodesOf(fn *value.Function) []compiler.Opcode {
	code := fn.Chunk.Code
	var out []compiler.Opcode
	i := 0
	for i < len(code) {
		op := compiler.Opcode(code[i])
		out = append(out, op)
		i++
		if op == compiler.CLOSURE {
			constIdx := code[i]
			i++
			if inner, ok := fn.Chunk.Constants[constIdx].AsObject().(*value.Function); ok {
				i += 2 * inner.UpvalueCount
			}
			continue
		}
		i += operandWidth(op)
	}
	return out
}

// operandWidth returns the number of operand bytes following op, enough to
// walk the bytecode stream for test assertions without decoding operands.
func operandWidth(op compiler.Opcode) int {
	switch op {
	case compiler.CONSTANT, compiler.GET_LOCAL, compiler.SET_LOCAL, compiler.GET_GLOBAL,
		compiler.SET_GLOBAL, compiler.DEFINE_GLOBAL, compiler.GET_UPVALUE, compiler.SET_UPVALUE,
		compiler.GET_PROPERTY, compiler.SET_PROPERTY, compiler.CALL, compiler.CLASS, compiler.METHOD:
		return 1
	case compiler.JUMP_IF_FALSE, compiler.JUMP, compiler.LOOP:
		return 2
	default:
		return 0
	}
}
