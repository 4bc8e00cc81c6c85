package compiler

import (
	"context"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/churchlang/church/compiler/analyze"
	"github.com/churchlang/church/compiler/ast"
	"github.com/churchlang/church/compiler/back"
	"github.com/churchlang/church/compiler/parse"
)

type Options = analyze.Options

func DefaultOptions() Options { return analyze.DefaultOptions() }

func CompileFile(ctx context.Context, name string, opts Options) (obj []byte, err error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return Compile(ctx, name, text, opts)
}

// Compile translates source text to a binary module.
// Use IsSyntax and IsSemantic to tell failures apart.
func Compile(ctx context.Context, name string, text []byte, opts Options) (obj []byte, err error) {
	a, err := Build(ctx, name, text)
	if err != nil {
		return nil, err
	}

	syms, err := analyze.Analyze(ctx, a, opts)
	if err != nil {
		return nil, errors.Wrap(err, "analyze")
	}

	obj, err = back.New().Generate(ctx, a, syms)
	if err != nil {
		return nil, errors.Wrap(err, "generate")
	}

	tlog.SpanFromContext(ctx).Printw("compiled", "name", name, "module", a.Module.Name, "funcs", len(a.Decls), "exports", len(a.Module.Exports), "size", len(obj))

	return obj, nil
}

// Build parses text and builds the AST with exports validated.
func Build(ctx context.Context, name string, text []byte) (*ast.AST, error) {
	st := parse.New()

	st.AddFile(name, text)

	pairs, err := st.Parse(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "parse text")
	}

	return build(ctx, st, pairs)
}

func BuildFile(ctx context.Context, name string) (*ast.AST, error) {
	st, pairs, err := parse.ParseFile(ctx, name)
	if err != nil {
		return nil, errors.Wrap(err, "parse file")
	}

	return build(ctx, st, pairs)
}

func build(ctx context.Context, st *parse.State, pairs []parse.Pair) (*ast.AST, error) {
	a, err := ast.Build(ctx, st, pairs)
	if err != nil {
		return nil, errors.Wrap(err, "build ast")
	}

	return a, nil
}

// IsSyntax reports whether the input doesn't match the grammar.
func IsSyntax(err error) bool {
	var se *parse.SyntaxError

	return errors.As(err, &se)
}

// IsSemantic reports whether the input is well formed but names are misused.
func IsSemantic(err error) bool {
	var errs ast.Errors

	return errors.As(err, &errs)
}
