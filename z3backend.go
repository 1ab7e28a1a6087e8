package hwprove

import (
	"fmt"
	"math/big"
	"time"

	"github.com/aclements/go-z3/z3"
)

type z3backend struct {
	ctx    *z3.Context
	cfg    *z3.Config
	solver *z3.Solver
	model  *z3.Model

	bit0 z3.BV
	bit1 z3.BV
}

func newZ3Backend(opts Options) *z3backend {
	cfg := z3.NewContextConfig()
	if opts.SolverTimeout > 0 {
		cfg.SetUint("timeout", uint(opts.SolverTimeout.Milliseconds()))
	}
	ctx := z3.NewContext(cfg)
	return &z3backend{
		ctx:    ctx,
		cfg:    cfg,
		solver: z3.NewSolver(ctx),
		bit0:   ctx.FromBigInt(big.NewInt(0), ctx.BVSort(1)).(z3.BV),
		bit1:   ctx.FromBigInt(big.NewInt(1), ctx.BVSort(1)).(z3.BV),
	}
}

func (s *z3backend) name() string {
	return BACKEND_Z3
}

func (s *z3backend) constant(c *BVConst) term {
	return s.ctx.FromBigInt(c.Big(), s.ctx.BVSort(int(c.Size))).(z3.BV)
}

func (s *z3backend) variable(name string, width uint) term {
	return s.ctx.BVConst(name, int(width))
}

func (s *z3backend) width(t term) uint {
	return uint(t.(z3.BV).Sort().BVSize())
}

func (s *z3backend) fromBool(b z3.Bool) term {
	return b.IfThenElse(s.bit1, s.bit0).(z3.BV)
}

func (s *z3backend) toBool(t term) z3.Bool {
	return t.(z3.BV).Eq(s.bit1)
}

func (s *z3backend) not(a term) term { return a.(z3.BV).Not() }
func (s *z3backend) neg(a term) term { return a.(z3.BV).Neg() }

func (s *z3backend) and(a, b term) term  { return a.(z3.BV).And(b.(z3.BV)) }
func (s *z3backend) or(a, b term) term   { return a.(z3.BV).Or(b.(z3.BV)) }
func (s *z3backend) xor(a, b term) term  { return a.(z3.BV).Xor(b.(z3.BV)) }
func (s *z3backend) add(a, b term) term  { return a.(z3.BV).Add(b.(z3.BV)) }
func (s *z3backend) sub(a, b term) term  { return a.(z3.BV).Sub(b.(z3.BV)) }
func (s *z3backend) mul(a, b term) term  { return a.(z3.BV).Mul(b.(z3.BV)) }
func (s *z3backend) udiv(a, b term) term { return a.(z3.BV).UDiv(b.(z3.BV)) }
func (s *z3backend) sdiv(a, b term) term { return a.(z3.BV).SDiv(b.(z3.BV)) }
func (s *z3backend) shl(a, b term) term  { return a.(z3.BV).Lsh(b.(z3.BV)) }
func (s *z3backend) lshr(a, b term) term { return a.(z3.BV).URsh(b.(z3.BV)) }
func (s *z3backend) ashr(a, b term) term { return a.(z3.BV).SRsh(b.(z3.BV)) }

func (s *z3backend) eq(a, b term) term  { return s.fromBool(a.(z3.BV).Eq(b.(z3.BV))) }
func (s *z3backend) ult(a, b term) term { return s.fromBool(a.(z3.BV).ULT(b.(z3.BV))) }
func (s *z3backend) slt(a, b term) term { return s.fromBool(a.(z3.BV).SLT(b.(z3.BV))) }

func (s *z3backend) ite(c, a, b term) term {
	return s.toBool(c).IfThenElse(a.(z3.BV), b.(z3.BV)).(z3.BV)
}

func (s *z3backend) concat(hi, lo term) term {
	return hi.(z3.BV).Concat(lo.(z3.BV))
}

func (s *z3backend) extract(a term, high, low uint) term {
	return a.(z3.BV).Extract(int(high), int(low))
}

func (s *z3backend) zext(a term, n uint) term { return a.(z3.BV).ZeroExtend(int(n)) }
func (s *z3backend) sext(a term, n uint) term { return a.(z3.BV).SignExtend(int(n)) }

func (s *z3backend) check(assertion term, timeout time.Duration) (int, string) {
	s.solver.Reset()
	s.model = nil
	s.solver.Assert(s.toBool(assertion))

	done := make(chan struct{})
	if timeout > 0 {
		go interruptAfter(s.ctx, timeout, done)
	}
	r, err := s.solver.Check()
	close(done)

	if err != nil {
		return RESULT_UNKNOWN, err.Error()
	}
	if !r {
		return RESULT_UNSAT, ""
	}
	s.model = s.solver.Model()
	return RESULT_SAT, ""
}

// interruptAfter interrupts the context once the deadline passes, and keeps
// doing so until done is closed: an interrupt issued before the search has
// started is ignored by Z3.
func interruptAfter(ctx *z3.Context, timeout time.Duration, done <-chan struct{}) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return
	case <-timer.C:
	}

	tick := time.NewTicker(time.Millisecond)
	defer tick.Stop()
	for {
		ctx.Interrupt()
		select {
		case <-done:
			return
		case <-tick.C:
		}
	}
}

func convertZ3Const(c z3.BV) (*BVConst, error) {
	str := c.String()
	size := uint(c.Sort().BVSize())
	if len(str) < 3 || str[0] != '#' {
		return nil, fmt.Errorf("not a constant: %s", str)
	}

	base := 16
	if str[1] == 'b' {
		base = 2
	}
	v, ok := new(big.Int).SetString(str[2:], base)
	if !ok {
		return nil, fmt.Errorf("not a constant: %s", str)
	}
	return MakeBVConstFromBigint(v, size), nil
}

func (s *z3backend) value(v term) (*BVConst, error) {
	if s.model == nil {
		return nil, fmt.Errorf("z3: no model available")
	}
	return convertZ3Const(s.model.Eval(v.(z3.BV), true).(z3.BV))
}

// close drops the native objects; go-z3 finalizers free them.
func (s *z3backend) close() {
	s.model = nil
	s.solver = nil
	s.ctx = nil
	s.cfg = nil
}
