package ast

import (
	"fmt"
	"strconv"

	"github.com/churchlang/church/compiler/parse"
)

// Ident returns identifier text of the pair.
func Ident(st *parse.State, p parse.Pair) string {
	return string(st.Text(p.Pos, p.End))
}

// Int returns the value of an integer literal.
// The grammar only accepts literals fitting in 32 bits so failure here is a bug.
func Int(st *parse.State, p parse.Pair) int32 {
	v, err := strconv.ParseInt(string(st.Text(p.Pos, p.End)), 10, 32)
	if err != nil {
		panic(fmt.Sprintf("internal error: int literal at %d: %v", p.Pos, err))
	}

	return int32(v)
}

// Exports returns the set of names of an export list.
func Exports(st *parse.State, p parse.Pair) map[string]struct{} {
	s := make(map[string]struct{}, len(p.Inner))

	for _, x := range p.Inner {
		if x.Rule != parse.RuleIdent {
			continue
		}

		s[Ident(st, x)] = struct{}{}
	}

	return s
}
