package compiler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tlog.app/go/errors"

	"github.com/churchlang/church/compiler/ast"
	"github.com/churchlang/church/compiler/parse"
	"github.com/churchlang/church/compiler/wasm"
)

func compile(t *testing.T, src string) *wasm.Module {
	t.Helper()

	obj, err := Compile(context.Background(), "test.ch", []byte(src), DefaultOptions())
	require.NoError(t, err)

	require.Equal(t, wasm.Magic[:], obj[:4])
	require.Equal(t, wasm.Version[:], obj[4:8])

	m, err := wasm.Decode(obj)
	require.NoError(t, err)

	return m
}

func body(t *testing.T, m *wasm.Module, i int) []wasm.Instr {
	t.Helper()

	ins, err := wasm.Instructions(m.Codes[i].Body)
	require.NoError(t, err)

	return ins
}

func TestCompileConsts(t *testing.T) {
	m := compile(t, "minus5 = -5; zero = 0; meaning = 42;")

	assert.Equal(t, []wasm.FuncType{{Results: []wasm.ValType{wasm.I32}}}, m.Types)
	assert.Equal(t, []uint32{0, 0, 0}, m.Funcs)
	assert.Empty(t, m.Exports)
	require.Len(t, m.Codes, 3)

	for i, v := range []int64{-5, 0, 42} {
		assert.Equal(t, []wasm.Instr{
			{Op: wasm.OpI32Const, Arg: v},
			{Op: wasm.OpReturn},
			{Op: wasm.OpEnd},
		}, body(t, m, i))
	}
}

func TestCompileExports(t *testing.T) {
	m := compile(t, "module Numbers (meaning); minus5 = -5; meaning = 42;")

	assert.Len(t, m.Funcs, 2)
	assert.Equal(t, []wasm.Export{{Name: "meaning", Kind: wasm.ExtFunc, Index: 1}}, m.Exports)
}

func TestCompileCalls(t *testing.T) {
	m := compile(t, "module M (magic, o, minus1); o = 0; magic = 42; minus1 = -1; zero = o; answer = magic;")

	assert.Len(t, m.Funcs, 5)
	assert.Equal(t, []wasm.Export{
		{Name: "o", Kind: wasm.ExtFunc, Index: 0},
		{Name: "magic", Kind: wasm.ExtFunc, Index: 1},
		{Name: "minus1", Kind: wasm.ExtFunc, Index: 2},
	}, m.Exports)

	assert.Equal(t, []wasm.Instr{{Op: wasm.OpCall, Arg: 0}, {Op: wasm.OpReturn}, {Op: wasm.OpEnd}}, body(t, m, 3))
	assert.Equal(t, []wasm.Instr{{Op: wasm.OpCall, Arg: 1}, {Op: wasm.OpReturn}, {Op: wasm.OpEnd}}, body(t, m, 4))
}

// Section sizes and indices follow the AST for any well formed input.
func TestRoundTrip(t *testing.T) {
	ctx := context.Background()

	for _, src := range []string{
		"",
		"module Empty ();",
		"a = 1;",
		"module M (c, a); a = 1; b = a; c = b; d = -2147483648;",
		"module Big (x9); x0 = 0; x1 = 1; x2 = 2; x3 = 3; x4 = 4; x5 = 5; x6 = 6; x7 = 7; x8 = 8; x9 = x0;",
	} {
		a, err := Build(ctx, "", []byte(src))
		require.NoError(t, err, "src %q", src)

		m := compile(t, src)

		assert.Len(t, m.Funcs, len(a.Decls), "src %q", src)
		assert.Len(t, m.Codes, len(a.Decls), "src %q", src)
		assert.Len(t, m.Exports, len(a.Module.Exports), "src %q", src)

		for _, e := range m.Exports {
			d, ok := a.Decls[e.Name]
			if assert.True(t, ok, "src %q: export %v", src, e.Name) {
				assert.Equal(t, uint32(d.Index), e.Index, "src %q: export %v", src, e.Name)
			}
		}

		for _, d := range a.Sorted() {
			ins := body(t, m, d.Index)
			require.Len(t, ins, 3)

			switch v := d.Value.(type) {
			case ast.I32:
				assert.Equal(t, wasm.Instr{Op: wasm.OpI32Const, Arg: int64(v)}, ins[0])
			case ast.Name:
				assert.Equal(t, wasm.Instr{Op: wasm.OpCall, Arg: int64(a.Decls[string(v)].Index)}, ins[0])
			}
		}
	}
}

func TestErrorKinds(t *testing.T) {
	ctx := context.Background()

	_, err := Compile(ctx, "bad.ch", []byte("a = ;"), DefaultOptions())
	assert.True(t, IsSyntax(err), "err: %v", err)
	assert.False(t, IsSemantic(err), "err: %v", err)

	var se *parse.SyntaxError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "bad.ch", se.File)
	assert.Equal(t, "bad.ch:1:5: expected integer or identifier", se.Error())

	for _, src := range []string{
		"module M (foo);",
		"module M (foo); bar = 1;",
		"a = 1; a = 2;",
		"a = b;",
		"a = a;",
	} {
		_, err = Compile(ctx, "", []byte(src), DefaultOptions())
		assert.True(t, IsSemantic(err), "src %q: %v", src, err)
		assert.False(t, IsSyntax(err), "src %q: %v", src, err)
	}

	var ue *ast.UndeclaredExportError
	_, err = Compile(ctx, "", []byte("module Numbers (meaning, nope); meaning = 42;"), DefaultOptions())
	require.True(t, errors.As(err, &ue), "err: %v", err)
	assert.Equal(t, "Numbers", ue.Module)
	assert.Equal(t, []string{"nope"}, ue.Names)
}

func TestCompileFile(t *testing.T) {
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "i32.ch")
	err := os.WriteFile(path, []byte("module I32 (magic);\nmagic = 42;\n"), 0o644)
	require.NoError(t, err)

	obj, err := CompileFile(ctx, path, DefaultOptions())
	require.NoError(t, err)

	m, err := wasm.Decode(obj)
	require.NoError(t, err)
	assert.Equal(t, []wasm.Export{{Name: "magic", Kind: wasm.ExtFunc, Index: 0}}, m.Exports)

	_, err = CompileFile(ctx, filepath.Join(t.TempDir(), "missing.ch"), DefaultOptions())
	assert.Error(t, err)
	assert.False(t, IsSyntax(err))
	assert.False(t, IsSemantic(err))
}

func TestBuildFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	good := filepath.Join(dir, "good.ch")
	err := os.WriteFile(good, []byte("module M (b);\na = 1;\nb = a;\n"), 0o644)
	require.NoError(t, err)

	a, err := BuildFile(ctx, good)
	require.NoError(t, err)
	assert.Equal(t, "M", a.Module.Name)
	assert.Len(t, a.Decls, 2)

	bad := filepath.Join(dir, "bad.ch")
	err = os.WriteFile(bad, []byte("a = 1;\nb = ;\n"), 0o644)
	require.NoError(t, err)

	_, err = BuildFile(ctx, bad)
	assert.True(t, IsSyntax(err), "err: %v", err)

	var se *parse.SyntaxError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, bad, se.File)
	assert.Equal(t, 2, se.Line)
	assert.Equal(t, 5, se.Col)

	_, err = BuildFile(ctx, filepath.Join(dir, "missing.ch"))
	assert.Error(t, err)
	assert.False(t, IsSyntax(err))
}
