package parse

import (
	"context"

	"tlog.app/go/errors"
)

type (
	None struct{}

	Optional struct {
		Parser
	}

	// Repeat matches Of zero or more times.
	Repeat struct {
		Of Parser
	}

	// List matches Of (Sep Of)*.
	List struct {
		Of  Parser
		Sep Parser
	}

	Rule struct {
		Rule RuleID
		Of   Parser
	}

	AllOf []Parser

	AnyOf []Parser
)

func (None) Parse(ctx context.Context, b []byte, st int) (_ Node, i int, err error) {
	return None{}, st, nil
}

func (p Optional) Parse(ctx context.Context, b []byte, st int) (x Node, i int, err error) {
	x, i, err = p.Parser.Parse(ctx, b, st)
	if err != nil && !isFatal(err) {
		return None{}, st, nil
	}

	return
}

func (p Repeat) Parse(ctx context.Context, b []byte, st int) (x Node, i int, err error) {
	var res []Node

	i = st

	for i < len(b) {
		y, j, err := p.Of.Parse(ctx, b, i)
		if isFatal(err) {
			return nil, j, err
		}
		if err != nil || j == i {
			break
		}

		res = append(res, y)
		i = j
	}

	return res, i, nil
}

func (p List) Parse(ctx context.Context, b []byte, st int) (x Node, i int, err error) {
	x, i, err = p.Of.Parse(ctx, b, st)
	if err != nil {
		return nil, i, errors.Wrap(err, "first")
	}

	res := []Node{x}

	for {
		_, j, err := p.Sep.Parse(ctx, b, i)
		if isFatal(err) {
			return nil, j, err
		}
		if err != nil {
			break
		}

		y, j, err := p.Of.Parse(ctx, b, j)
		if isFatal(err) {
			return nil, j, err
		}
		if err != nil {
			// separator without element: leave the separator unconsumed
			break
		}

		res = append(res, y)
		i = j
	}

	return res, i, nil
}

func (p Rule) Parse(ctx context.Context, b []byte, st int) (x Node, i int, err error) {
	x, i, err = p.Of.Parse(ctx, b, st)
	if err != nil {
		return nil, i, errors.Wrap(err, "%v", p.Rule)
	}

	return Pair{
		Rule:  p.Rule,
		Pos:   st,
		End:   i,
		Inner: Collect(nil, x),
	}, i, nil
}

func (p AllOf) Parse(ctx context.Context, b []byte, st int) (x Node, i int, err error) {
	i = st

	res := make([]Node, len(p))

	for j, r := range p {
		x, i, err = r.Parse(ctx, b, i)
		if err != nil {
			if !isFatal(err) {
				i = st
			}

			return nil, i, errors.Wrap(err, "%T (%d)", r, j)
		}

		res[j] = x
	}

	return res, i, nil
}

func (p AnyOf) Parse(ctx context.Context, b []byte, st int) (_ Node, i int, err error) {
	for _, r := range p {
		x, j, e := r.Parse(ctx, b, st)
		if e == nil {
			return x, j, nil
		}
		if isFatal(e) {
			return nil, j, e
		}
	}

	return nil, st, errors.New("expected %v", joinTypes(p))
}

func isFatal(err error) bool {
	var f FatalError

	return err != nil && errors.As(err, &f)
}

func joinTypes(l []Parser) string {
	names := make([]string, len(l))

	for i, r := range l {
		names[i] = describe(r)
	}

	return joinHuman(names)
}

func describe(p Parser) string {
	switch p := p.(type) {
	case Spacer:
		return describe(p.Of)
	case Rule:
		return p.Rule.String()
	case Const:
		return quote(p)
	case Keyword:
		return quote(p)
	case Ident:
		return "identifier"
	case Int:
		return "integer"
	default:
		return "syntax"
	}
}
