package hwprove

import (
	"fmt"
	"math/big"
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
)

// giniBV is a bit-blasted bit-vector, least significant bit first.
type giniBV []z.Lit

// giniBackend bit-blasts every operator into an and-inverter circuit and
// decides assertions with the gini SAT solver. The circuit lives as long as
// the backend, so terms built for one check are reused by the next; each
// check loads the circuit into a fresh solver and assumes the assertion.
type giniBackend struct {
	c      *logic.C
	inputs []z.Lit
	model  *gini.Gini
}

func newGiniBackend() *giniBackend {
	return &giniBackend{c: logic.NewC()}
}

func (s *giniBackend) name() string {
	return BACKEND_GINI
}

func (s *giniBackend) constant(c *BVConst) term {
	res := make(giniBV, c.Size)
	for i := range res {
		if c.Bit(uint(i)) == 1 {
			res[i] = s.c.T
		} else {
			res[i] = s.c.F
		}
	}
	return res
}

func (s *giniBackend) variable(name string, width uint) term {
	res := make(giniBV, width)
	for i := range res {
		res[i] = s.c.Lit()
	}
	s.inputs = append(s.inputs, res...)
	return res
}

func (s *giniBackend) width(t term) uint {
	return uint(len(t.(giniBV)))
}

func (s *giniBackend) zeros(n int) giniBV {
	res := make(giniBV, n)
	for i := range res {
		res[i] = s.c.F
	}
	return res
}

func (s *giniBackend) mux(sel, t, f z.Lit) z.Lit {
	return s.c.Or(s.c.And(sel, t), s.c.And(sel.Not(), f))
}

func (s *giniBackend) muxBV(sel z.Lit, t, f giniBV) giniBV {
	res := make(giniBV, len(t))
	for i := range res {
		res[i] = s.mux(sel, t[i], f[i])
	}
	return res
}

func (s *giniBackend) bitwise(a, b term, f func(x, y z.Lit) z.Lit) term {
	x, y := a.(giniBV), b.(giniBV)
	res := make(giniBV, len(x))
	for i := range res {
		res[i] = f(x[i], y[i])
	}
	return res
}

func (s *giniBackend) not(a term) term {
	x := a.(giniBV)
	res := make(giniBV, len(x))
	for i := range res {
		res[i] = x[i].Not()
	}
	return res
}

func (s *giniBackend) and(a, b term) term { return s.bitwise(a, b, s.c.And) }
func (s *giniBackend) or(a, b term) term  { return s.bitwise(a, b, s.c.Or) }
func (s *giniBackend) xor(a, b term) term { return s.bitwise(a, b, s.c.Xor) }

// adder returns x + y + cin and the carry out.
func (s *giniBackend) adder(x, y giniBV, cin z.Lit) (giniBV, z.Lit) {
	res := make(giniBV, len(x))
	carry := cin
	for i := range res {
		p := s.c.Xor(x[i], y[i])
		res[i] = s.c.Xor(p, carry)
		carry = s.c.Or(s.c.And(x[i], y[i]), s.c.And(p, carry))
	}
	return res, carry
}

func (s *giniBackend) add(a, b term) term {
	res, _ := s.adder(a.(giniBV), b.(giniBV), s.c.F)
	return res
}

func (s *giniBackend) sub(a, b term) term {
	res, _ := s.adder(a.(giniBV), s.not(b).(giniBV), s.c.T)
	return res
}

func (s *giniBackend) neg(a term) term {
	x := a.(giniBV)
	res, _ := s.adder(s.zeros(len(x)), s.not(x).(giniBV), s.c.T)
	return res
}

func (s *giniBackend) mul(a, b term) term {
	x, y := a.(giniBV), b.(giniBV)
	n := len(x)
	acc := s.zeros(n)
	for i := 0; i < n; i++ {
		partial := s.zeros(n)
		for j := 0; j+i < n; j++ {
			partial[j+i] = s.c.And(x[j], y[i])
		}
		acc, _ = s.adder(acc, partial, s.c.F)
	}
	return acc
}

// ultBits is x < y as unsigned: the subtraction x - y borrows.
func (s *giniBackend) ultBits(x, y giniBV) z.Lit {
	_, carry := s.adder(x, s.not(y).(giniBV), s.c.T)
	return carry.Not()
}

// divmod is restoring division. A zero divisor yields an all-ones quotient.
func (s *giniBackend) divmod(x, y giniBV) giniBV {
	n := len(x)
	q := make(giniBV, n)
	r := s.zeros(n)
	yExt := append(append(giniBV{}, y...), s.c.F)
	for i := n - 1; i >= 0; i-- {
		shifted := append(giniBV{x[i]}, r...)
		ge := s.ultBits(shifted, yExt).Not()
		diff, _ := s.adder(shifted, s.not(yExt).(giniBV), s.c.T)
		q[i] = ge
		r = s.muxBV(ge, diff, shifted)[:n]
	}
	return q
}

func (s *giniBackend) udiv(a, b term) term {
	return s.divmod(a.(giniBV), b.(giniBV))
}

func (s *giniBackend) sdiv(a, b term) term {
	x, y := a.(giniBV), b.(giniBV)
	sx, sy := x[len(x)-1], y[len(y)-1]
	absX := s.muxBV(sx, s.neg(x).(giniBV), x)
	absY := s.muxBV(sy, s.neg(y).(giniBV), y)
	q := s.divmod(absX, absY)
	return s.muxBV(s.c.Xor(sx, sy), s.neg(q).(giniBV), q)
}

// shift is a barrel shifter. left selects the direction; vacated bits are
// filled with fill, as are all bits once the amount reaches the width.
func (s *giniBackend) shift(a, b term, left bool, fill z.Lit) term {
	x, amount := a.(giniBV), b.(giniBV)
	n := len(x)
	res := append(giniBV{}, x...)
	over := s.c.F

	for i, bit := range amount {
		if i >= 62 || 1<<uint(i) >= n {
			over = s.c.Or(over, bit)
			continue
		}
		k := 1 << uint(i)
		shifted := make(giniBV, n)
		for j := 0; j < n; j++ {
			src := j + k
			if left {
				src = j - k
			}
			if src < 0 || src >= n {
				shifted[j] = fill
			} else {
				shifted[j] = res[src]
			}
		}
		res = s.muxBV(bit, shifted, res)
	}

	fillAll := make(giniBV, n)
	for i := range fillAll {
		fillAll[i] = fill
	}
	return s.muxBV(over, fillAll, res)
}

func (s *giniBackend) shl(a, b term) term  { return s.shift(a, b, true, s.c.F) }
func (s *giniBackend) lshr(a, b term) term { return s.shift(a, b, false, s.c.F) }

func (s *giniBackend) ashr(a, b term) term {
	x := a.(giniBV)
	return s.shift(a, b, false, x[len(x)-1])
}

func (s *giniBackend) eq(a, b term) term {
	x, y := a.(giniBV), b.(giniBV)
	res := s.c.T
	for i := range x {
		res = s.c.And(res, s.c.Xor(x[i], y[i]).Not())
	}
	return giniBV{res}
}

func (s *giniBackend) ult(a, b term) term {
	return giniBV{s.ultBits(a.(giniBV), b.(giniBV))}
}

func (s *giniBackend) slt(a, b term) term {
	x := append(giniBV{}, a.(giniBV)...)
	y := append(giniBV{}, b.(giniBV)...)
	x[len(x)-1] = x[len(x)-1].Not()
	y[len(y)-1] = y[len(y)-1].Not()
	return giniBV{s.ultBits(x, y)}
}

func (s *giniBackend) ite(c, a, b term) term {
	return s.muxBV(c.(giniBV)[0], a.(giniBV), b.(giniBV))
}

func (s *giniBackend) concat(hi, lo term) term {
	return append(append(giniBV{}, lo.(giniBV)...), hi.(giniBV)...)
}

func (s *giniBackend) extract(a term, high, low uint) term {
	return append(giniBV{}, a.(giniBV)[low:high+1]...)
}

func (s *giniBackend) zext(a term, n uint) term {
	return append(append(giniBV{}, a.(giniBV)...), s.zeros(int(n))...)
}

func (s *giniBackend) sext(a term, n uint) term {
	x := a.(giniBV)
	res := append(giniBV{}, x...)
	for i := uint(0); i < n; i++ {
		res = append(res, x[len(x)-1])
	}
	return res
}

func (s *giniBackend) check(assertion term, timeout time.Duration) (int, string) {
	s.model = nil
	start := time.Now()

	g := gini.New()
	s.c.ToCnf(g)
	// inputs the circuit never reads still need a variable in the model
	for _, m := range s.inputs {
		g.Add(m)
		g.Add(m.Not())
		g.Add(z.LitNull)
	}
	g.Assume(assertion.(giniBV)[0])

	var r int
	if timeout > 0 {
		left := timeout - time.Since(start)
		if left <= 0 {
			return RESULT_UNKNOWN, fmt.Sprintf("timeout after %s loading the circuit", timeout)
		}
		r = g.GoSolve().Try(left)
	} else {
		r = g.Solve()
	}

	switch r {
	case 1:
		s.model = g
		return RESULT_SAT, ""
	case -1:
		return RESULT_UNSAT, ""
	}
	return RESULT_UNKNOWN, fmt.Sprintf("timeout after %s", timeout)
}

func (s *giniBackend) value(v term) (*BVConst, error) {
	if s.model == nil {
		return nil, fmt.Errorf("gini: no model available")
	}

	x := v.(giniBV)
	res := new(big.Int)
	for i, m := range x {
		if s.model.Value(m) {
			res.SetBit(res, i, 1)
		}
	}
	return MakeBVConstFromBigint(res, uint(len(x))), nil
}

func (s *giniBackend) close() {
	s.model = nil
	s.inputs = nil
	s.c = nil
}
