package ast

import (
	"slices"
	"strings"
)

type (
	Base struct {
		Pos int
		End int
	}

	AST struct {
		Module ModuleHeader
		Decls  map[string]*Declaration

		// Comments in source order.
		Comments []Comment
	}

	Comment struct {
		Base `tlog:",embed"`

		Text string // including leading //

		// Trailing comment follows code on the same line.
		Trailing bool
	}

	ModuleHeader struct {
		Base `tlog:",embed"`

		Name    string
		Exports map[string]struct{}
	}

	Declaration struct {
		Base `tlog:",embed"`

		Index int
		Name  string
		Value Expr
	}

	Expr interface {
		expr()
	}

	I32 int32

	Name string

	// Func is an abstraction. The grammar doesn't produce it yet.
	Func struct {
		Param string
		Body  Expr
	}

	// Errors is a list of problems found in one pass.
	Errors []error
)

func (I32) expr()  {}
func (Name) expr() {}
func (Func) expr() {}

func New() *AST {
	return &AST{
		Module: ModuleHeader{
			Exports: map[string]struct{}{},
		},
		Decls: map[string]*Declaration{},
	}
}

// Sorted returns declarations ordered by index.
func (a *AST) Sorted() []*Declaration {
	l := make([]*Declaration, 0, len(a.Decls))

	for _, d := range a.Decls {
		l = append(l, d)
	}

	slices.SortFunc(l, func(x, y *Declaration) int {
		return x.Index - y.Index
	})

	return l
}

// Exported returns exported declarations ordered by index.
func (a *AST) Exported() []*Declaration {
	l := make([]*Declaration, 0, len(a.Module.Exports))

	for name := range a.Module.Exports {
		if d, ok := a.Decls[name]; ok {
			l = append(l, d)
		}
	}

	slices.SortFunc(l, func(x, y *Declaration) int {
		return x.Index - y.Index
	})

	return l
}

func (e Errors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}

	var b strings.Builder

	for i, err := range e {
		if i != 0 {
			b.WriteString("; ")
		}

		b.WriteString(err.Error())
	}

	return b.String()
}

func (e Errors) Unwrap() []error { return e }

// Err returns nil if there are no errors.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}

	return e
}
