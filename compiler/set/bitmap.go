package set

import (
	"math/bits"

	"tlog.app/go/tlog/tlwire"
)

type (
	// Bitmap is a set of function indices.
	// Zero value is an empty set ready to use.
	// Copies share the underlying words, use Or on a zero Bitmap to clone.
	Bitmap struct {
		w []uint64
	}
)

// MakeBitmap returns a set preallocated for indices below n.
func MakeBitmap(n int) Bitmap {
	return Bitmap{w: make([]uint64, (n+63)/64)}
}

func (s *Bitmap) Set(i int) {
	w, bit := i/64, uint(i%64)

	for w >= len(s.w) {
		s.w = append(s.w, 0)
	}

	s.w[w] |= 1 << bit
}

func (s *Bitmap) IsSet(i int) bool {
	w, bit := i/64, uint(i%64)

	return w < len(s.w) && s.w[w]&(1<<bit) != 0
}

// Or adds all the members of x to s.
func (s *Bitmap) Or(x Bitmap) {
	for len(s.w) < len(x.w) {
		s.w = append(s.w, 0)
	}

	for i, v := range x.w {
		s.w[i] |= v
	}
}

// Missing returns indices in [0, n) not in the set.
func (s *Bitmap) Missing(n int) (r []int) {
	for i := 0; i < n; i++ {
		if !s.IsSet(i) {
			r = append(r, i)
		}
	}

	return r
}

// Range calls f for each member in increasing order until f returns false.
func (s *Bitmap) Range(f func(i int) bool) {
	for w, v := range s.w {
		for v != 0 {
			bit := bits.TrailingZeros64(v)
			v &= v - 1

			if !f(w*64 + bit) {
				return
			}
		}
	}
}

// TlogAppend encodes the set as an array of indices.
func (s Bitmap) TlogAppend(b []byte) []byte {
	var e tlwire.LowEncoder

	if s.w == nil {
		return e.AppendNil(b)
	}

	b = e.AppendTag(b, tlwire.Array, -1)

	s.Range(func(i int) bool {
		b = e.AppendInt(b, i)
		return true
	})

	return e.AppendBreak(b)
}
