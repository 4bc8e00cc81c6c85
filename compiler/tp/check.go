package tp

import (
	"fmt"

	"github.com/churchlang/church/compiler/ast"
)

type (
	Env map[string]Type

	// MismatchError reports the actual type found where Want was expected.
	MismatchError struct {
		Want Type
		Got  Type
	}

	UnsupportedExprError struct {
		Expr ast.Expr
	}
)

// Check decides if x conforms to want in env.
// The returned error is *MismatchError holding the actual type.
// There is no inference: a missing binding is Unknown,
// and Unknown only matches Unknown.
func Check(x ast.Expr, env Env, want Type) error {
	switch x := x.(type) {
	case ast.I32:
		if _, ok := want.(I32); ok {
			return nil
		}

		return &MismatchError{Want: want, Got: I32{}}
	case ast.Name:
		got := env.Lookup(string(x))

		if Equal(got, want) {
			return nil
		}

		return &MismatchError{Want: want, Got: got}
	case ast.Func:
		fw, ok := want.(Func)
		if !ok {
			return &MismatchError{Want: want, Got: Func{Param: Unknown{}, Result: Unknown{}}}
		}

		err := Check(x.Body, env.With(x.Param, fw.Param), fw.Result)
		if err == nil {
			return nil
		}

		m, ok := err.(*MismatchError)
		if !ok {
			return err
		}

		return &MismatchError{Want: want, Got: Func{Param: fw.Param, Result: m.Got}}
	default:
		return &UnsupportedExprError{Expr: x}
	}
}

// Lookup returns the type bound to name or Unknown.
func (e Env) Lookup(name string) Type {
	if t, ok := e[name]; ok && t != nil {
		return t
	}

	return Unknown{}
}

// With returns a copy of e with name bound to t. e is not modified.
func (e Env) With(name string, t Type) Env {
	c := make(Env, len(e)+1)

	for k, v := range e {
		c[k] = v
	}

	c[name] = t

	return c
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("type mismatch: want %v, got %v", e.Want, e.Got)
}

func (e *UnsupportedExprError) Error() string {
	return fmt.Sprintf("unsupported expression: %T", e.Expr)
}
