package parse

import (
	"context"

	"tlog.app/go/errors"
)

type (
	// Spaces is a set of ascii control and space characters.
	Spaces uint64

	// Spacer skips leading spaces and optionally line comments before Of.
	Spacer struct {
		Spaces   Spaces
		Comments bool
		Of       Parser
	}
)

// Whitespace is everything insignificant between tokens.
var Whitespace = NewSpaces(' ', '\t', '\r', '\n')

func NewSpaces(skip ...byte) (ss Spaces) {
	for _, q := range skip {
		if q >= 64 {
			panic("too high char code")
		}

		ss |= 1 << q
	}

	return
}

func (s Spaces) Skip(b []byte, st int) (i int) {
	i = st

	for i < len(b) && b[i] < 64 && s&(1<<b[i]) != 0 {
		i++
	}

	return
}

// SkipComments skips spaces and // comments up to the end of line.
func (s Spaces) SkipComments(b []byte, st int) int {
	return s.skipComments(b, st, nil)
}

func (s Spaces) skipComments(b []byte, st int, found func(pos, end int)) (i int) {
	for i = s.Skip(b, st); i+1 < len(b) && b[i] == '/' && b[i+1] == '/'; i = s.Skip(b, i) {
		pos := i

		for i < len(b) && b[i] != '\n' {
			i++
		}

		if found != nil {
			found(pos, i)
		}
	}

	return
}

// Tok makes p a token: whitespace and comments before it are skipped.
func Tok(p Parser) Spacer {
	return Spacer{
		Spaces:   Whitespace,
		Comments: true,
		Of:       p,
	}
}

func (p Spacer) Parse(ctx context.Context, b []byte, st int) (x Node, i int, err error) {
	vst := p.Spaces.Skip(b, st)
	if p.Comments {
		var found func(pos, end int)
		if s := StateFromContext(ctx); s != nil {
			found = s.addComment
		}

		vst = p.Spaces.skipComments(b, st, found)
	}

	x, i, err = p.Of.Parse(ctx, b, vst)
	if err != nil {
		if i == vst {
			i = st
		}

		err = errors.Wrap(err, "%T", p.Of)
	}

	return
}
