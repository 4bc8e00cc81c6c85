package parse

import (
	"context"
	"strconv"

	"tlog.app/go/errors"
)

type (
	// Int is a signed decimal integer fitting in 32 bits.
	Int struct{}
)

func (p Int) Parse(ctx context.Context, b []byte, st int) (x Node, i int, err error) {
	i = st

	if i < len(b) && b[i] == '-' {
		i++
	}

	dst := i

	for i < len(b) && b[i] >= '0' && b[i] <= '9' {
		i++
	}

	if i == dst {
		Fail(ctx, st, "integer")

		return nil, st, errors.New("Int expected")
	}

	_, err = strconv.ParseInt(string(b[st:i]), 10, 32)
	if err != nil {
		return nil, i, FatalError{Pos: st, Err: errors.New("integer out of 32-bit range: %s", b[st:i])}
	}

	return Int{}, i, nil
}
