package back

import (
	"context"
	"fmt"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/churchlang/church/compiler/analyze"
	"github.com/churchlang/church/compiler/ast"
	"github.com/churchlang/church/compiler/wasm"
)

type (
	Compiler struct{}

	// InternalError means the AST was not checked before code generation.
	InternalError struct {
		Decl string
		Err  error
	}
)

func New() *Compiler { return &Compiler{} }

// Generate emits the binary module. Every declaration becomes a function () -> i32
// with the declaration index as its function index.
// syms may be nil, then names are resolved by scanning the declarations.
func (c *Compiler) Generate(ctx context.Context, a *ast.AST, syms *analyze.Symbols) (_ []byte, err error) {
	m, err := c.Module(ctx, a, syms)
	if err != nil {
		return nil, err
	}

	return m.AppendBinary(nil), nil
}

// Module builds the in-memory module Generate encodes.
func (c *Compiler) Module(ctx context.Context, a *ast.AST, syms *analyze.Symbols) (m *wasm.Module, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "back: generate", "module", a.Module.Name, "decls", len(a.Decls))
	defer tr.Finish("err", &err)

	if syms == nil {
		syms, err = analyze.NewSymbols(a)
		if err != nil {
			return nil, InternalError{Err: err}
		}
	}

	m = &wasm.Module{}

	typ := m.AddType(wasm.FuncType{
		Results: []wasm.ValType{wasm.I32},
	})

	for _, d := range a.Sorted() {
		code, err := c.compileDecl(ctx, syms, d)
		if err != nil {
			return nil, InternalError{Decl: d.Name, Err: err}
		}

		idx := m.AddFunc(typ, code)
		if int(idx) != d.Index {
			return nil, InternalError{Decl: d.Name, Err: errors.New("function index %d, want %d", idx, d.Index)}
		}

		if tr.If("dump_func") {
			tr.Printw("func", "index", idx, "name", d.Name, "body", code.Body)
		}
	}

	for _, d := range a.Exported() {
		m.AddExport(d.Name, wasm.ExtFunc, uint32(d.Index))
	}

	if len(m.Exports) != len(a.Module.Exports) {
		return nil, InternalError{Err: errors.New("exports: %d of %d declared", len(m.Exports), len(a.Module.Exports))}
	}

	tr.Printw("module", "funcs", len(m.Funcs), "exports", len(m.Exports))

	return m, nil
}

func (c *Compiler) compileDecl(ctx context.Context, syms *analyze.Symbols, d *ast.Declaration) (code wasm.Code, err error) {
	var b []byte

	switch x := d.Value.(type) {
	case ast.I32:
		b = wasm.AppendI32Const(b, int32(x))
	case ast.Name:
		idx, ok := syms.Index[string(x)]
		if !ok {
			return code, errors.New("unresolved name: %q", string(x))
		}

		b = wasm.AppendCall(b, uint32(idx))
	default:
		return code, errors.New("unsupported expression: %T", x)
	}

	b = wasm.AppendOp(b, wasm.OpReturn)
	b = wasm.AppendOp(b, wasm.OpEnd)

	code.Body = b

	return code, nil
}

func (e InternalError) Error() string {
	if e.Decl == "" {
		return fmt.Sprintf("internal error: %v", e.Err)
	}

	return fmt.Sprintf("internal error: %v: %v", e.Decl, e.Err)
}

func (e InternalError) Unwrap() error { return e.Err }
