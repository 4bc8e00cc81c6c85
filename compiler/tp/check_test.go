package tp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/churchlang/church/compiler/ast"
)

func got(t *testing.T, err error) Type {
	t.Helper()

	var m *MismatchError
	require.ErrorAs(t, err, &m)

	return m.Got
}

func TestCheckI32(t *testing.T) {
	for _, k := range []int32{0, 1, -1, 42, -1 << 31, 1<<31 - 1} {
		assert.NoError(t, Check(ast.I32(k), Env{}, I32{}), "k %d", k)

		err := Check(ast.I32(k), Env{}, Func{Param: I32{}, Result: I32{}})
		assert.Equal(t, I32{}, got(t, err))
	}

	assert.Equal(t, I32{}, got(t, Check(ast.I32(0), Env{}, Unknown{})))
}

func TestCheckName(t *testing.T) {
	assert.NoError(t, Check(ast.Name("a"), Env{"a": I32{}}, I32{}))

	assert.Equal(t, Unknown{}, got(t, Check(ast.Name("a"), Env{}, I32{})))
	assert.Equal(t, Unknown{}, got(t, Check(ast.Name("a"), Env{"a": Unknown{}}, I32{})))

	// Unknown matches only Unknown
	assert.NoError(t, Check(ast.Name("a"), Env{}, Unknown{}))

	fn := Func{Param: I32{}, Result: I32{}}
	assert.NoError(t, Check(ast.Name("f"), Env{"f": fn}, Func{Param: I32{}, Result: I32{}}))
	assert.Equal(t, fn, got(t, Check(ast.Name("f"), Env{"f": fn}, I32{})))
}

func TestCheckFunc(t *testing.T) {
	// a -> 0
	assert.NoError(t, Check(ast.Func{Param: "a", Body: ast.I32(0)}, Env{}, Func{Param: Unknown{}, Result: I32{}}))

	// a -> a
	assert.NoError(t, Check(ast.Func{Param: "a", Body: ast.Name("a")}, Env{}, Func{Param: I32{}, Result: I32{}}))

	// a -> b
	err := Check(ast.Func{Param: "a", Body: ast.Name("b")}, Env{"a": I32{}}, Func{Param: I32{}, Result: I32{}})
	assert.Equal(t, Func{Param: I32{}, Result: Unknown{}}, got(t, err))

	err = Check(ast.Func{Param: "a", Body: ast.I32(0)}, Env{}, I32{})
	assert.Equal(t, Func{Param: Unknown{}, Result: Unknown{}}, got(t, err))

	// a -> b -> a
	curried := ast.Func{Param: "a", Body: ast.Func{Param: "b", Body: ast.Name("a")}}
	want := Func{Param: I32{}, Result: Func{Param: Unknown{}, Result: I32{}}}
	assert.NoError(t, Check(curried, Env{}, want))

	// a -> b -> b, the inner parameter type leaks into the error
	curried = ast.Func{Param: "a", Body: ast.Func{Param: "b", Body: ast.Name("b")}}
	err = Check(curried, Env{}, want)
	assert.Equal(t, Func{Param: I32{}, Result: Func{Param: Unknown{}, Result: Unknown{}}}, got(t, err))
}

func TestEnvWith(t *testing.T) {
	env := Env{"a": I32{}}

	ext := env.With("b", Unknown{})
	ext = ext.With("a", Func{Param: I32{}, Result: I32{}})

	assert.Equal(t, Env{"a": I32{}}, env)
	assert.Equal(t, Unknown{}, ext.Lookup("b"))
	assert.Equal(t, Func{Param: I32{}, Result: I32{}}, ext.Lookup("a"))

	// parameter binding doesn't leak out of the abstraction
	assert.NoError(t, Check(ast.Func{Param: "x", Body: ast.Name("x")}, env, Func{Param: I32{}, Result: I32{}}))
	assert.Equal(t, Unknown{}, env.Lookup("x"))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(Unknown{}, Unknown{}))
	assert.True(t, Equal(I32{}, I32{}))
	assert.False(t, Equal(I32{}, Unknown{}))
	assert.False(t, Equal(Unknown{}, I32{}))
	assert.True(t, Equal(Func{Param: I32{}, Result: Unknown{}}, Func{Param: I32{}, Result: Unknown{}}))
	assert.False(t, Equal(Func{Param: I32{}, Result: Unknown{}}, Func{Param: I32{}, Result: I32{}}))
	assert.False(t, Equal(Func{Param: I32{}, Result: I32{}}, I32{}))

	assert.Equal(t, "(i32 -> i32) -> ?", Func{Param: Func{Param: I32{}, Result: I32{}}, Result: Unknown{}}.String())
	assert.Equal(t, "i32 -> i32 -> i32", Func{Param: I32{}, Result: Func{Param: I32{}, Result: I32{}}}.String())
}

func TestCheckUnsupported(t *testing.T) {
	err := Check(nil, nil, I32{})
	require.IsType(t, &UnsupportedExprError{}, err)
	assert.EqualError(t, err, "unsupported expression: <nil>")

	_, isMismatch := err.(*MismatchError)
	assert.False(t, isMismatch)
}
