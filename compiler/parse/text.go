package parse

import (
	"bytes"
	"context"
	"strconv"
	"unicode/utf8"

	"tlog.app/go/errors"
)

type (
	Const []byte

	// Keyword is a Const which can't be followed by an identifier character.
	Keyword []byte

	Ident []byte

	EOI struct{}
)

func (p Const) Parse(ctx context.Context, b []byte, st int) (x Node, i int, err error) {
	if bytes.HasPrefix(b[st:], p) {
		return Const(b[st : st+len(p)]), st + len(p), nil
	}

	Fail(ctx, st, quote(p))

	return nil, st, errors.New("%q expected", []byte(p))
}

func (p Keyword) Parse(ctx context.Context, b []byte, st int) (x Node, i int, err error) {
	i = st + len(p)

	if !bytes.HasPrefix(b[st:], p) || i < len(b) && isIdentChar(b[i]) {
		Fail(ctx, st, quote(p))

		return nil, st, errors.New("%q expected", []byte(p))
	}

	return Keyword(b[st:i]), i, nil
}

func (p Ident) Parse(ctx context.Context, b []byte, st int) (x Node, i int, err error) {
	if st == len(b) {
		Fail(ctx, st, "identifier")

		return nil, st, errors.New("Ident expected")
	}

	i = st

	c := b[i]

	switch {
	case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_':
		i++
	default:
		Fail(ctx, st, "identifier")

		return nil, st, errors.New("Ident expected")
	}

	for i < len(b) && isIdentChar(b[i]) {
		i++
	}

	if i < len(b) && b[i] >= utf8.RuneSelf {
		return nil, i, FatalError{Pos: i, Err: errors.New("non-ascii character in identifier")}
	}

	return Ident(b[st:i]), i, nil
}

func (EOI) Parse(ctx context.Context, b []byte, st int) (x Node, i int, err error) {
	if st != len(b) {
		Fail(ctx, st, "end of input")

		return nil, st, errors.New("EOI expected")
	}

	return Pair{Rule: RuleEOI, Pos: st, End: st}, st, nil
}

func isIdentChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}

func quote(p []byte) string {
	return strconv.Quote(string(p))
}
