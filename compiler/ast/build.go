package ast

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/churchlang/church/compiler/parse"
)

type (
	UndeclaredExportError struct {
		Module string
		Names  []string
	}

	DuplicateDeclarationError struct {
		Name  string
		Index int // index of the duplicate
		First int // index of the declaration kept
	}

	UnexpectedPairError struct {
		Pair parse.Pair
	}
)

// Build assembles the AST from the top-level pairs and checks
// that every exported name is declared.
func Build(ctx context.Context, st *parse.State, pairs []parse.Pair) (a *AST, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "ast: build", "pairs", len(pairs))
	defer tr.Finish("err", &err)

	a = New()

	var errs Errors
	idx := 0

	for i, p := range pairs {
		switch p.Rule {
		case parse.RuleEOI:
			continue
		case parse.RuleModule:
			if i != 0 {
				return nil, errors.Wrap(UnexpectedPairError{Pair: p}, "module header must come first")
			}

			a.Module = header(st, p)

			tr.Printw("module", "name", a.Module.Name, "exports", len(a.Module.Exports))
		case parse.RuleDeclaration:
			d, err := declaration(st, p, idx)
			if err != nil {
				return nil, errors.Wrap(err, "declaration %d", idx)
			}

			idx++

			if prev, ok := a.Decls[d.Name]; ok {
				errs = append(errs, &DuplicateDeclarationError{Name: d.Name, Index: d.Index, First: prev.Index})
				continue
			}

			a.Decls[d.Name] = d

			if tr.If("ast_decl") {
				tr.Printw("declaration", "index", d.Index, "name", d.Name, "value", d.Value)
			}
		default:
			return nil, UnexpectedPairError{Pair: p}
		}
	}

	a.Comments = comments(st)

	if err := a.validateExports(); err != nil {
		errs = append(errs, err)
	}

	if err = errs.Err(); err != nil {
		return nil, err
	}

	return a, nil
}

func header(st *parse.State, p parse.Pair) (h ModuleHeader) {
	h.Base = Base{Pos: p.Pos, End: p.End}
	h.Exports = map[string]struct{}{}

	if name, ok := p.Find(parse.RuleIdent); ok {
		h.Name = Ident(st, name)
	}

	if exp, ok := p.Find(parse.RuleExports); ok {
		h.Exports = Exports(st, exp)
	}

	return h
}

func comments(st *parse.State) (l []Comment) {
	for _, c := range st.Comments() {
		l = append(l, Comment{
			Base:     Base{Pos: c.Pos, End: c.End},
			Text:     strings.TrimRight(string(st.Text(c.Pos, c.End)), " \t\r"),
			Trailing: afterCode(st.Text(0, c.Pos)),
		})
	}

	return l
}

// afterCode reports whether the last line of b has anything but spaces.
func afterCode(b []byte) bool {
	for i := len(b) - 1; i >= 0; i-- {
		switch b[i] {
		case ' ', '\t', '\r':
		case '\n':
			return false
		default:
			return true
		}
	}

	return false
}

func declaration(st *parse.State, p parse.Pair, idx int) (*Declaration, error) {
	if len(p.Inner) != 2 || p.Inner[0].Rule != parse.RuleIdent {
		return nil, UnexpectedPairError{Pair: p}
	}

	d := &Declaration{
		Base:  Base{Pos: p.Pos, End: p.End},
		Index: idx,
		Name:  Ident(st, p.Inner[0]),
	}

	switch v := p.Inner[1]; v.Rule {
	case parse.RuleInt:
		d.Value = I32(Int(st, v))
	case parse.RuleIdent:
		d.Value = Name(Ident(st, v))
	default:
		return nil, UnexpectedPairError{Pair: v}
	}

	return d, nil
}

func (a *AST) validateExports() error {
	var missing []string

	for name := range a.Module.Exports {
		if _, ok := a.Decls[name]; !ok {
			missing = append(missing, name)
		}
	}

	if len(missing) == 0 {
		return nil
	}

	slices.Sort(missing)

	return &UndeclaredExportError{
		Module: a.Module.Name,
		Names:  missing,
	}
}

func (e *UndeclaredExportError) Error() string {
	return fmt.Sprintf("module %q exports undeclared %s: %s", e.Module, plural(len(e.Names), "name", "names"), strings.Join(e.Names, ", "))
}

func (e *DuplicateDeclarationError) Error() string {
	return fmt.Sprintf("%q declared twice (declarations %d and %d)", e.Name, e.First, e.Index)
}

func (e UnexpectedPairError) Error() string {
	return fmt.Sprintf("unexpected syntax node: %v at %d", e.Pair.Rule, e.Pair.Pos)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}

	return many
}
