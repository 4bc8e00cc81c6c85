package analyze

import (
	"context"
	"fmt"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/churchlang/church/compiler/ast"
	"github.com/churchlang/church/compiler/set"
	"github.com/churchlang/church/compiler/tp"
)

type (
	Options struct {
		Typecheck bool

		// Abstractions lets declaration bodies be functions.
		// The code generator can't compile them yet.
		Abstractions bool
	}

	// Symbols is a frozen name to function index table.
	Symbols struct {
		Index map[string]int
		Names []string // by index

		// Reachable holds indices reachable from exports.
		Reachable set.Bitmap
	}

	UndefinedNameError struct {
		Decl string
		Name string
	}

	UnsupportedError struct {
		Decl string
		Expr ast.Expr
	}

	CycleError struct {
		Names []string
	}

	TypeError struct {
		Decl string
		Err  error
	}
)

func DefaultOptions() Options {
	return Options{
		Typecheck: true,
	}
}

// Analyze checks the AST is well formed and can be compiled.
// All the problems found are returned together as ast.Errors.
func Analyze(ctx context.Context, a *ast.AST, opts Options) (syms *Symbols, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "analyze", "decls", len(a.Decls), "opts", opts)
	defer tr.Finish("err", &err)

	decls := a.Sorted()

	syms, err = NewSymbols(a)
	if err != nil {
		return nil, errors.Wrap(err, "symbols")
	}

	var errs ast.Errors
	bad := set.MakeBitmap(len(decls))

	for _, d := range decls {
		n := len(errs)
		errs = resolve(errs, syms, opts, d, d.Value, nil)

		if len(errs) != n {
			bad.Set(d.Index)
		}
	}

	errs = cycles(errs, syms, decls)

	if opts.Typecheck {
		env := Env(decls)

		for _, d := range decls {
			if bad.IsSet(d.Index) {
				continue
			}

			err := tp.Check(d.Value, env, declType(d))
			if err != nil {
				errs = append(errs, &TypeError{Decl: d.Name, Err: err})
			}
		}
	}

	syms.Reachable = reachable(syms, a, decls)
	tr.V("reachable").Printw("reachable from exports", "funcs", syms.Reachable)

	if len(a.Module.Exports) != 0 {
		for _, i := range syms.Reachable.Missing(len(decls)) {
			tr.Printw("declaration is not reachable from exports", "name", syms.Names[i], "index", i)
		}
	}

	if err = errs.Err(); err != nil {
		return nil, err
	}

	return syms, nil
}

// NewSymbols builds the name to index table by scanning all the declarations.
func NewSymbols(a *ast.AST) (*Symbols, error) {
	s := &Symbols{
		Index: make(map[string]int, len(a.Decls)),
		Names: make([]string, len(a.Decls)),
	}

	for name, d := range a.Decls {
		if d.Index < 0 || d.Index >= len(s.Names) || s.Names[d.Index] != "" {
			return nil, errors.New("bad declaration index: %v %d (of %d)", name, d.Index, len(a.Decls))
		}

		s.Index[name] = d.Index
		s.Names[d.Index] = name
	}

	return s, nil
}

// Env binds every declared name to its declared type.
func Env(decls []*ast.Declaration) tp.Env {
	env := make(tp.Env, len(decls))

	for _, d := range decls {
		env[d.Name] = declType(d)
	}

	return env
}

func declType(d *ast.Declaration) tp.Type {
	if _, ok := d.Value.(ast.Func); ok {
		return tp.Func{Param: tp.Unknown{}, Result: tp.I32{}}
	}

	return tp.I32{}
}

func resolve(errs ast.Errors, syms *Symbols, opts Options, d *ast.Declaration, x ast.Expr, params []string) ast.Errors {
	switch x := x.(type) {
	case ast.I32:
	case ast.Name:
		for _, p := range params {
			if p == string(x) {
				return errs
			}
		}

		if _, ok := syms.Index[string(x)]; !ok {
			errs = append(errs, &UndefinedNameError{Decl: d.Name, Name: string(x)})
		}
	case ast.Func:
		if !opts.Abstractions {
			return append(errs, &UnsupportedError{Decl: d.Name, Expr: x})
		}

		errs = resolve(errs, syms, opts, d, x.Body, append(params, x.Param))
	default:
		errs = append(errs, &UnsupportedError{Decl: d.Name, Expr: x})
	}

	return errs
}

// cycles finds declarations referring to themselves through a chain of names.
func cycles(errs ast.Errors, syms *Symbols, decls []*ast.Declaration) ast.Errors {
	visiting := set.MakeBitmap(len(decls))
	done := set.MakeBitmap(len(decls))

	for _, d := range decls {
		var path []int

		for i := d.Index; !done.IsSet(i); {
			if visiting.IsSet(i) {
				errs = append(errs, cycleError(syms, path, i))
				break
			}

			visiting.Set(i)
			path = append(path, i)

			next, ok := ref(syms, decls[i])
			if !ok {
				break
			}

			i = next
		}

		done.Or(visiting)
	}

	return errs
}

func cycleError(syms *Symbols, path []int, start int) *CycleError {
	e := &CycleError{}

	for j, i := range path {
		if i != start {
			continue
		}

		for _, i := range path[j:] {
			e.Names = append(e.Names, syms.Names[i])
		}

		break
	}

	return e
}

// ref returns index of the declaration d refers to by name.
func ref(syms *Symbols, d *ast.Declaration) (int, bool) {
	n, ok := d.Value.(ast.Name)
	if !ok {
		return 0, false
	}

	i, ok := syms.Index[string(n)]

	return i, ok
}

func reachable(syms *Symbols, a *ast.AST, decls []*ast.Declaration) (r set.Bitmap) {
	r = set.MakeBitmap(len(decls))

	for name := range a.Module.Exports {
		i, ok := syms.Index[name]

		for ok && !r.IsSet(i) {
			r.Set(i)

			i, ok = ref(syms, decls[i])
		}
	}

	return r
}

func (e *UndefinedNameError) Error() string {
	return fmt.Sprintf("%v: undefined name %q", e.Decl, e.Name)
}

func (e *UnsupportedError) Error() string {
	switch e.Expr.(type) {
	case ast.Func:
		return fmt.Sprintf("%v: function values are not supported", e.Decl)
	default:
		return fmt.Sprintf("%v: unsupported expression %T", e.Decl, e.Expr)
	}
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("reference cycle: %s -> %s", strings.Join(e.Names, " -> "), e.Names[0])
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%v: %v", e.Decl, e.Err)
}

func (e *TypeError) Unwrap() error { return e.Err }
