package back

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tlog.app/go/errors"

	"github.com/churchlang/church/compiler/analyze"
	"github.com/churchlang/church/compiler/ast"
	"github.com/churchlang/church/compiler/wasm"
)

func TestSmoke(t *testing.T) {
	ctx := context.Background()

	a := ast.New()
	a.Module.Name = "Numbers"
	a.Module.Exports["meaning"] = struct{}{}
	a.Decls["minus5"] = &ast.Declaration{Index: 0, Name: "minus5", Value: ast.I32(-5)}
	a.Decls["meaning"] = &ast.Declaration{Index: 1, Name: "meaning", Value: ast.I32(42)}

	obj, err := New().Generate(ctx, a, nil)
	require.NoError(t, err)

	exp := []byte{
		0x00, 0x61, 0x73, 0x6d,
		0x01, 0x00, 0x00, 0x00,
		0x01, 0x05, 0x01, 0x60, 0x00, 0x01, 0x7f,
		0x03, 0x03, 0x02, 0x00, 0x00,
		0x07, 0x0b, 0x01, 0x07, 'm', 'e', 'a', 'n', 'i', 'n', 'g', 0x00, 0x01,
		0x0a, 0x0d, 0x02,
		0x05, 0x00, 0x41, 0x7b, 0x0f, 0x0b,
		0x05, 0x00, 0x41, 0x2a, 0x0f, 0x0b,
	}

	assert.Equal(t, exp, obj)
}

func TestCallsByIndex(t *testing.T) {
	ctx := context.Background()

	a := ast.New()
	a.Module.Exports["c"] = struct{}{}
	a.Module.Exports["a"] = struct{}{}
	a.Decls["c"] = &ast.Declaration{Index: 2, Name: "c", Value: ast.Name("a")}
	a.Decls["a"] = &ast.Declaration{Index: 0, Name: "a", Value: ast.I32(7)}
	a.Decls["b"] = &ast.Declaration{Index: 1, Name: "b", Value: ast.Name("c")}

	syms, err := analyze.Analyze(ctx, a, analyze.DefaultOptions())
	require.NoError(t, err)

	m, err := New().Module(ctx, a, syms)
	require.NoError(t, err)

	assert.Equal(t, []uint32{0, 0, 0}, m.Funcs)
	assert.Equal(t, []wasm.Export{
		{Name: "a", Kind: wasm.ExtFunc, Index: 0},
		{Name: "c", Kind: wasm.ExtFunc, Index: 2},
	}, m.Exports)

	for i, exp := range [][]wasm.Instr{
		{{Op: wasm.OpI32Const, Arg: 7}, {Op: wasm.OpReturn}, {Op: wasm.OpEnd}},
		{{Op: wasm.OpCall, Arg: 2}, {Op: wasm.OpReturn}, {Op: wasm.OpEnd}},
		{{Op: wasm.OpCall, Arg: 0}, {Op: wasm.OpReturn}, {Op: wasm.OpEnd}},
	} {
		ins, err := wasm.Instructions(m.Codes[i].Body)
		require.NoError(t, err)
		assert.Equal(t, exp, ins, "func %d", i)
	}
}

func TestEmpty(t *testing.T) {
	ctx := context.Background()

	obj, err := New().Generate(ctx, ast.New(), nil)
	require.NoError(t, err)

	m, err := wasm.Decode(obj)
	require.NoError(t, err)

	assert.Len(t, m.Types, 1)
	assert.Empty(t, m.Funcs)
	assert.Empty(t, m.Exports)
	assert.Empty(t, m.Codes)
}

func TestInternalErrors(t *testing.T) {
	ctx := context.Background()

	a := ast.New()
	a.Decls["a"] = &ast.Declaration{Index: 0, Name: "a", Value: ast.Name("nope")}

	_, err := New().Generate(ctx, a, nil)

	var ie InternalError
	require.True(t, errors.As(err, &ie), "err: %v", err)
	assert.Equal(t, "a", ie.Decl)

	a.Decls["a"].Value = ast.Func{Param: "x", Body: ast.I32(1)}

	_, err = New().Generate(ctx, a, nil)
	require.True(t, errors.As(err, &ie), "err: %v", err)
}
