package tp

import "fmt"

type (
	Type interface {
		fmt.Stringer

		typ()
	}

	// Unknown is absence of information. It is not a wildcard.
	Unknown struct{}

	I32 struct{}

	Func struct {
		Param  Type
		Result Type
	}
)

func (Unknown) typ() {}
func (I32) typ()     {}
func (Func) typ()    {}

// Equal reports structural equality.
func Equal(x, y Type) bool {
	switch x := x.(type) {
	case Unknown:
		_, ok := y.(Unknown)
		return ok
	case I32:
		_, ok := y.(I32)
		return ok
	case Func:
		y, ok := y.(Func)
		return ok && Equal(x.Param, y.Param) && Equal(x.Result, y.Result)
	default:
		return false
	}
}

func (Unknown) String() string { return "?" }

func (I32) String() string { return "i32" }

func (x Func) String() string {
	if _, ok := x.Param.(Func); ok {
		return fmt.Sprintf("(%v) -> %v", x.Param, x.Result)
	}

	return fmt.Sprintf("%v -> %v", x.Param, x.Result)
}
