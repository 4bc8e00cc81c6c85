package format

import (
	"context"
	"math"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/churchlang/church/compiler/ast"
	"github.com/churchlang/church/compiler/wasm"
)

// Format appends canonical source text of x.
func Format(ctx context.Context, b []byte, x any) ([]byte, error) {
	return format(ctx, b, x, 0)
}

func format(ctx context.Context, b []byte, x any, d int) ([]byte, error) {
	switch x := x.(type) {
	case *ast.AST:
		return formatFile(ctx, b, x, d)
	case *wasm.Module:
		return Dump(ctx, b, x)
	default:
		return nil, errors.New("unsupported type: %T", x)
	}
}

func formatFile(ctx context.Context, b []byte, x *ast.AST, d int) (_ []byte, err error) {
	decls := x.Sorted()
	cs := x.Comments

	// comments before end go on their own lines
	leading := func(b []byte, end int) []byte {
		for len(cs) != 0 && cs[0].Pos < end {
			b = app(b, d, "%s\n", cs[0].Text)
			cs = cs[1:]
		}

		return b
	}

	// trailing comment stays on the line it followed
	eol := func(b []byte, next int) []byte {
		if len(cs) != 0 && cs[0].Trailing && cs[0].Pos < next {
			b = append(b, ' ')
			b = append(b, cs[0].Text...)
			cs = cs[1:]
		}

		return append(b, '\n')
	}

	next := func(i int) int {
		if i < len(decls) {
			return decls[i].Pos
		}

		return math.MaxInt
	}

	if x.Module.Name != "" || len(x.Module.Exports) != 0 {
		b = leading(b, x.Module.End)
		b = app(b, d, "module %s (", x.Module.Name)

		for i, e := range x.Exported() {
			if i != 0 {
				b = append(b, ", "...)
			}

			b = append(b, e.Name...)
		}

		b = append(b, ");"...)
		b = eol(b, next(0))

		if len(decls) != 0 || len(cs) != 0 {
			b = append(b, '\n')
		}
	}

	for i, decl := range decls {
		b = leading(b, decl.End)
		b = app(b, d, "%s = ", decl.Name)

		b, err = formatExpr(ctx, b, decl.Value, d)
		if err != nil {
			return nil, errors.Wrap(err, "declaration %v", decl.Name)
		}

		b = append(b, ';')
		b = eol(b, next(i+1))
	}

	b = leading(b, math.MaxInt)

	return b, nil
}

func formatExpr(ctx context.Context, b []byte, x ast.Expr, d int) (_ []byte, err error) {
	switch x := x.(type) {
	case ast.I32:
		b = hfmt.Appendf(b, "%d", int32(x))
	case ast.Name:
		b = append(b, string(x)...)
	default:
		return nil, errors.New("unsupported expr: %T", x)
	}

	return b, nil
}

// Dump appends text form of the module.
func Dump(ctx context.Context, b []byte, m *wasm.Module) (_ []byte, err error) {
	b = append(b, "(module\n"...)

	for i, t := range m.Types {
		b = app(b, 1, "(type %d (func", i)

		if len(t.Params) != 0 {
			b = append(b, " (param"...)
			for _, p := range t.Params {
				b = hfmt.Appendf(b, " %v", p)
			}
			b = append(b, ')')
		}

		if len(t.Results) != 0 {
			b = append(b, " (result"...)
			for _, r := range t.Results {
				b = hfmt.Appendf(b, " %v", r)
			}
			b = append(b, ')')
		}

		b = append(b, "))\n"...)
	}

	for i, typ := range m.Funcs {
		b = app(b, 1, "(func %d (type %d)", i, typ)

		for _, l := range m.Codes[i].Locals {
			b = hfmt.Appendf(b, " (local %v x%d)", l.Type, l.Count)
		}

		ins, err := wasm.Instructions(m.Codes[i].Body)
		if err != nil {
			return nil, errors.Wrap(err, "func %d", i)
		}

		for _, in := range ins {
			switch in.Op {
			case wasm.OpEnd:
				continue
			case wasm.OpCall, wasm.OpI32Const:
				b = append(b, '\n')
				b = app(b, 2, "%v %d", in.Op, in.Arg)
			default:
				b = append(b, '\n')
				b = app(b, 2, "%v", in.Op)
			}
		}

		b = append(b, ")\n"...)
	}

	for _, e := range m.Exports {
		kind := "func"
		if e.Kind != wasm.ExtFunc {
			kind = "extern"
		}

		b = app(b, 1, "(export %q (%s %d))\n", e.Name, kind, e.Index)
	}

	b = append(b, ")\n"...)

	return b, nil
}

func app(b []byte, d int, f string, args ...any) []byte {
	const tabs = "\t\t\t\t\t\t\t\t\t\t\t\t\t\t\t"
	b = append(b, tabs[:d]...)
	b = hfmt.Appendf(b, f, args...)
	return b
}
