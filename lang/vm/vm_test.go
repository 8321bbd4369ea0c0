package vm_test

import (
	"bytes"
	"go/token"
	"testing"

	"github.com/mna/glox/lang/vm"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, src string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	machine := vm.New(vm.DefaultConfig(), &out)
	err := machine.Interpret(token.NewFileSet(), "test.lox", []byte(src))
	return out.String(), err
}

func TestArithmeticPrint(t *testing.T) {
	out, err := run(t, `print 1 + 2;`)
	require.NoError(t, err)
	require.Equal(t, "3\n", out)
}

func TestStringConcatenation(t *testing.T) {
	out, err := run(t, `print "foo" + "bar";`)
	require.NoError(t, err)
	require.Equal(t, "foobar\n", out)
}

func TestBlockScoping(t *testing.T) {
	out, err := run(t, `var a = 1; { var a = 2; print a; } print a;`)
	require.NoError(t, err)
	require.Equal(t, "2\n1\n", out)
}

func TestClosureCapture(t *testing.T) {
	out, err := run(t, `
fun mk(){ var x = 10; fun g(){ return x; } return g; }
print mk()();
`)
	require.NoError(t, err)
	require.Equal(t, "10\n", out)
}

func TestClassInitAndMethod(t *testing.T) {
	out, err := run(t, `
class Pair{ init(a,b){ this.a=a; this.b=b; } sum(){ return this.a+this.b; } }
print Pair(3,4).sum();
`)
	require.NoError(t, err)
	require.Equal(t, "7\n", out)
}

func TestSharedUpvalueAcrossClosures(t *testing.T) {
	out, err := run(t, `
fun pair(){
  var x = 0;
  fun get(){ return x; }
  fun set(v){ x = v; }
  set(5);
  return get;
}
print pair()();
`)
	require.NoError(t, err)
	require.Equal(t, "5\n", out)
}

func TestFalsyValues(t *testing.T) {
	out, err := run(t, `print !nil; print !false; print !0;`)
	require.NoError(t, err)
	require.Equal(t, "true\ntrue\nfalse\n", out)
}

func TestWhileAndForLoops(t *testing.T) {
	out, err := run(t, `
var i = 0;
while (i < 3) { print i; i = i + 1; }
for (var j = 0; j < 2; j = j + 1) { print j; }
`)
	require.NoError(t, err)
	require.Equal(t, "0\n1\n2\n0\n1\n", out)
}

func TestSelfReferencingLocalIsCompileError(t *testing.T) {
	_, err := run(t, `{ var a = a; }`)
	require.Error(t, err)
}

func TestUndefinedVariableAssignmentIsRuntimeError(t *testing.T) {
	_, err := run(t, `x = 1;`)
	require.Error(t, err)
	require.IsType(t, &vm.RuntimeError{}, err)
}

func TestPropertyAccessOnNonInstanceIsRuntimeError(t *testing.T) {
	_, err := run(t, `print (1).x;`)
	require.Error(t, err)
	require.IsType(t, &vm.RuntimeError{}, err)
}

func TestArityMismatchIsRuntimeError(t *testing.T) {
	_, err := run(t, `fun f(){} f(1);`)
	require.Error(t, err)
	var rerr *vm.RuntimeError
	require.ErrorAs(t, err, &rerr)
	require.Contains(t, rerr.Message, "expected 0 arguments but got 1")
}

func TestClockNativeReturnsNumber(t *testing.T) {
	out, err := run(t, `print clock() >= 0;`)
	require.NoError(t, err)
	require.Equal(t, "true\n", out)
}

func TestRuntimeErrorResetsStackForReplReuse(t *testing.T) {
	var out bytes.Buffer
	machine := vm.New(vm.DefaultConfig(), &out)
	fset := token.NewFileSet()

	err := machine.Interpret(fset, "a.lox", []byte(`x = 1;`))
	require.Error(t, err)

	out.Reset()
	err2 := machine.Interpret(fset, "b.lox", []byte(`print 1 + 1;`))
	require.NoError(t, err2)
	require.Equal(t, "2\n", out.String())
}
