package hwprove

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func proveWith(t *testing.T, opts Options, g *Graph, pred NodeID, negate bool) *Outcome {
	t.Helper()
	out, err := TryProveWithOptions(g, pred, negate, time.Second, opts)
	require.NoError(t, err)
	return out
}

func requireWitness(t *testing.T, out *Outcome, name string, want uint64) {
	t.Helper()
	require.Equal(t, Disproved, out.Verdict, "outcome: %s", out)
	require.NotNil(t, out.Witness)
	v, ok := out.Witness.Get(name)
	require.True(t, ok, "no %s in witness %s", name, out.Witness)
	require.Equal(t, want, v.AsULong(), "witness %s", out.Witness)
}

func TestProveTautology(t *testing.T) {
	forEachBackend(t, func(t *testing.T, opts Options) {
		g := NewGraph()
		x := g.Param("x", 32)
		p := must(t)(g.Eq(x, x))

		out := proveWith(t, opts, g, p, true)
		require.Equal(t, Proved, out.Verdict)
		require.Nil(t, out.Witness)
		require.Equal(t, "proved", out.String())
	})
}

func TestProveContradiction(t *testing.T) {
	forEachBackend(t, func(t *testing.T, opts Options) {
		g := NewGraph()
		x := g.Param("x", 8)
		p := must(t)(g.ULt(x, x))

		out := proveWith(t, opts, g, p, false)
		require.Equal(t, Proved, out.Verdict)
	})
}

func TestProveCounterexample(t *testing.T) {
	forEachBackend(t, func(t *testing.T, opts Options) {
		g := NewGraph()
		m := must(t)
		x := g.Param("x", 8)
		xp1 := m(g.Add(x, g.Literal(1, 8)))

		// x < x + 1 fails only where the increment wraps
		p := m(g.ULt(x, xp1))
		out := proveWith(t, opts, g, p, true)
		requireWitness(t, out, "x", 0xff)
		require.Equal(t, 1, out.Witness.Len())
		require.Equal(t, "disproved\nx: bits[8]:0xff", out.String())

		q := m(g.And(m(g.Eq(x, g.Literal(0xff, 8))), m(g.Ne(x, xp1))))
		out = proveWith(t, opts, g, q, false)
		requireWitness(t, out, "x", 0xff)
	})
}

func TestProveIncrementDiffers(t *testing.T) {
	forEachBackend(t, func(t *testing.T, opts Options) {
		g := NewGraph()
		m := must(t)
		x := g.Param("x", 8)
		p := m(g.Ne(x, m(g.Add(x, g.Literal(1, 8)))))

		// satisfiable for every x, so any assignment may come back
		out := proveWith(t, opts, g, p, false)
		require.Equal(t, Disproved, out.Verdict)
		require.NotNil(t, out.Witness)
		require.Equal(t, 1, out.Witness.Len())

		out = proveWith(t, opts, g, p, true)
		require.Equal(t, Proved, out.Verdict)
	})
}

func TestProveWitnessContents(t *testing.T) {
	forEachBackend(t, func(t *testing.T, opts Options) {
		g := NewGraph()
		m := must(t)
		b := g.Param("b", 4)
		a := g.Param("a", 4)
		g.Param("unrelated", 4)

		// a + b == 3 with a == 1
		p := m(g.And(
			m(g.Eq(m(g.Add(a, b)), g.Literal(3, 4))),
			m(g.Eq(a, g.Literal(1, 4))),
		))
		out := proveWith(t, opts, g, p, false)
		requireWitness(t, out, "a", 1)
		requireWitness(t, out, "b", 2)

		entries := out.Witness.Entries()
		require.Len(t, entries, 2)
		require.Equal(t, "a", entries[0].Name)
		require.Equal(t, a, entries[0].Param)
		require.Equal(t, "b", entries[1].Name)

		_, ok := out.Witness.Get("unrelated")
		require.False(t, ok)
		v, ok := out.Witness.GetParam(b)
		require.True(t, ok)
		require.Equal(t, uint64(2), v.AsULong())
	})
}

func TestProveConstantPredicate(t *testing.T) {
	forEachBackend(t, func(t *testing.T, opts Options) {
		g := NewGraph()
		p := must(t)(g.Eq(g.Literal(1, 8), g.Literal(2, 8)))

		out := proveWith(t, opts, g, p, true)
		require.Equal(t, Disproved, out.Verdict)
		require.Equal(t, 0, out.Witness.Len())
	})
}

func TestProveConcat(t *testing.T) {
	forEachBackend(t, func(t *testing.T, opts Options) {
		g := NewGraph()
		m := must(t)
		a := g.Param("a", 8)
		b := g.Param("b", 4)
		c := m(g.Concat(a, b))
		require.Equal(t, uint(12), g.MustNode(c).Width())

		top := m(g.Slice(c, 4, 8))
		low := m(g.Slice(c, 0, 4))
		p := m(g.And(m(g.Eq(top, a)), m(g.Eq(low, b))))

		tr, err := CreateAndTranslateWithOptions(g, p, opts)
		require.NoError(t, err)
		defer tr.Close()
		require.Equal(t, uint(12), tr.GetTranslation(c).Width())

		out, err := tr.TryProve(p, true, 0)
		require.NoError(t, err)
		require.Equal(t, Proved, out.Verdict)
	})
}

func TestProveShifts(t *testing.T) {
	forEachBackend(t, func(t *testing.T, opts Options) {
		g := NewGraph()
		m := must(t)
		v := g.Literal(0x80, 8)
		one := g.Literal(1, 3)

		// 0x80 >>s 1 == 0xc0, 0x80 >> 1 == 0x40
		p := m(g.And(
			m(g.Eq(m(g.Shra(v, one)), g.Literal(0xc0, 8))),
			m(g.Eq(m(g.Shrl(v, one)), g.Literal(0x40, 8))),
		))
		require.Equal(t, Proved, proveWith(t, opts, g, p, true).Verdict)

		amount := g.Param("amount", 3)
		differ := m(g.Ne(m(g.Shra(v, amount)), m(g.Shrl(v, amount))))
		out := proveWith(t, opts, g, differ, true)
		requireWitness(t, out, "amount", 0)
	})
}

func TestProveOverShift(t *testing.T) {
	forEachBackend(t, func(t *testing.T, opts Options) {
		g := NewGraph()
		m := must(t)
		x := g.Param("x", 8)
		zero := g.Literal(0, 8)
		nine := g.Literal(9, 4)
		wide := g.Literal(256, 16)

		sign := m(g.Slice(x, 7, 1))
		fill := m(g.Sel(sign, g.Literal(0xff, 8), zero))

		p := m(g.And(
			m(g.Eq(m(g.Shll(x, nine)), zero)),
			m(g.Eq(m(g.Shrl(x, wide)), zero)),
			m(g.Eq(m(g.Shra(x, nine)), fill)),
			m(g.Eq(m(g.Shra(x, wide)), fill)),
		))
		require.Equal(t, Proved, proveWith(t, opts, g, p, true).Verdict)
	})
}

func TestProveDivision(t *testing.T) {
	forEachBackend(t, func(t *testing.T, opts Options) {
		g := NewGraph()
		m := must(t)
		x := g.Param("x", 8)
		zero := g.Literal(0, 8)

		udiv := m(g.Eq(m(g.UDiv(x, zero)), g.Literal(0xff, 8)))
		require.Equal(t, Proved, proveWith(t, opts, g, udiv, true).Verdict)

		expected := m(g.Sel(m(g.SLt(x, zero)), g.Literal(0x80, 8), g.Literal(0x7f, 8)))
		sdiv := m(g.Eq(m(g.SDiv(x, zero)), expected))
		require.Equal(t, Proved, proveWith(t, opts, g, sdiv, true).Verdict)

		// -7 / 2 truncates toward zero
		q := m(g.SDiv(g.Literal(-7, 8), g.Literal(2, 8)))
		trunc := m(g.Eq(q, g.Literal(-3, 8)))
		require.Equal(t, Proved, proveWith(t, opts, g, trunc, true).Verdict)

		// a 16-bit dividend keeps its high bits in an 8-bit quotient
		wide := m(g.Op(TY_DIV, 8, false, g.Literal(0x200, 16), g.Literal(4, 8)))
		widep := m(g.Eq(wide, g.Literal(0x80, 8)))
		require.Equal(t, Proved, proveWith(t, opts, g, widep, true).Verdict)
	})
}

func TestProveMixedWidthArithmetic(t *testing.T) {
	forEachBackend(t, func(t *testing.T, opts Options) {
		g := NewGraph()
		m := must(t)
		x := g.Literal(0x10, 8)
		y := g.Literal(0xf, 4)

		unsigned := m(g.Op(TY_ADD, 8, false, x, y))
		signed := m(g.Op(TY_ADD, 8, true, x, y))
		p := m(g.And(
			m(g.Eq(unsigned, g.Literal(0x1f, 8))),
			m(g.Eq(signed, g.Literal(0x0f, 8))),
		))
		require.Equal(t, Proved, proveWith(t, opts, g, p, true).Verdict)
	})
}

func TestProveSignedComparisons(t *testing.T) {
	forEachBackend(t, func(t *testing.T, opts Options) {
		g := NewGraph()
		m := must(t)
		minusOne := g.Literal(-1, 8)
		one := g.Literal(1, 8)

		p := m(g.And(
			m(g.SLt(minusOne, one)),
			m(g.UGt(minusOne, one)),
			m(g.SLe(minusOne, minusOne)),
			m(g.UGe(one, one)),
			m(g.SGe(one, minusOne)),
			m(g.ULe(one, minusOne)),
		))
		require.Equal(t, Proved, proveWith(t, opts, g, p, true).Verdict)
	})
}

// hardFactoring asserts that a 62-bit semiprime has a non-trivial
// factorization into two 32-bit numbers.
func hardFactoring(t *testing.T) (*Graph, NodeID) {
	g := NewGraph()
	m := must(t)
	a := g.Param("a", 32)
	b := g.Param("b", 32)
	prod := m(g.Mul(m(g.ZExt(a, 64)), m(g.ZExt(b, 64))))
	one := g.Literal(1, 32)

	// 2147483647 * 2147483629
	p := m(g.And(
		m(g.Eq(prod, g.Literal(4611685975477714963, 64))),
		m(g.UGt(a, one)),
		m(g.UGt(b, one)),
	))
	return g, p
}

func TestProveTimeout(t *testing.T) {
	forEachBackend(t, func(t *testing.T, opts Options) {
		g, p := hardFactoring(t)

		out, err := TryProveWithOptions(g, p, false, time.Millisecond, opts)
		require.NoError(t, err)
		require.Equal(t, Unknown, out.Verdict)
		require.NotEmpty(t, out.Reason)
		require.Nil(t, out.Witness)
		require.True(t, strings.HasPrefix(out.String(), "unknown ("), out.String())
	})
}

func TestProveTimeoutCoversLoading(t *testing.T) {
	g, p := hardFactoring(t)

	out, err := TryProveWithOptions(g, p, false, time.Nanosecond, testOptions(BACKEND_GINI))
	require.NoError(t, err)
	require.Equal(t, Unknown, out.Verdict)
	require.Contains(t, out.Reason, "loading the circuit")
}

func TestProveDefaultTimeout(t *testing.T) {
	g, p := hardFactoring(t)
	opts := testOptions(BACKEND_GINI)
	opts.DefaultTimeout = time.Millisecond

	out, err := TryProveWithOptions(g, p, false, 0, opts)
	require.NoError(t, err)
	require.Equal(t, Unknown, out.Verdict)
}

func TestProveDeterminism(t *testing.T) {
	forEachBackend(t, func(t *testing.T, opts Options) {
		build := func() (*Graph, NodeID) {
			g := NewGraph()
			m := must(t)
			x := g.Param("x", 8)
			y := g.Param("y", 8)
			s := m(g.Add(x, y))
			return g, m(g.UGe(s, x))
		}

		var first *Outcome
		for i := 0; i < 3; i++ {
			g, p := build()
			out := proveWith(t, opts, g, p, true)
			require.Equal(t, Disproved, out.Verdict)
			if first == nil {
				first = out
				continue
			}
			require.Equal(t, first.Verdict, out.Verdict)
			require.Equal(t, first.Witness.Len(), out.Witness.Len())
		}
	})
}

func TestProveReusesTranslations(t *testing.T) {
	forEachBackend(t, func(t *testing.T, opts Options) {
		g := NewGraph()
		m := must(t)
		x := g.Param("x", 16)
		sq := m(g.Mul(x, x))

		p1 := m(g.Eq(sq, sq))
		tr, err := CreateAndTranslateWithOptions(g, p1, opts)
		require.NoError(t, err)
		defer tr.Close()

		p2 := m(g.ULe(sq, g.Literal(0xffff, 16)))
		for _, p := range []NodeID{p1, p2, p1} {
			out, err := tr.TryProve(p, true, 0)
			require.NoError(t, err)
			require.Equal(t, Proved, out.Verdict)
		}
		require.Equal(t, 1, tr.HandlerInvocations(sq))
		require.Equal(t, 1, tr.HandlerInvocations(x))
		require.Equal(t, uint(3), tr.Stats.Proofs)
	})
}

func TestValidateWitness(t *testing.T) {
	g := NewGraph()
	x := g.Param("x", 8)
	p := must(t)(g.Eq(x, g.Literal(5, 8)))

	tr, err := CreateAndTranslateWithOptions(g, p, testOptions(BACKEND_GINI))
	require.NoError(t, err)
	defer tr.Close()

	w := newWitness()
	w.set(x, "x", MakeBVConst(5, 8))
	require.NoError(t, tr.validate(p, false, w))
	require.ErrorIs(t, tr.validate(p, true, w), ErrWitnessMismatch)
}

func TestPackageTryProve(t *testing.T) {
	g := NewGraph()
	m := must(t)
	x := g.Param("x", 4)
	p := m(g.Eq(m(g.Not(m(g.Not(x)))), x))

	out, err := TryProve(g, p, true, 0)
	require.NoError(t, err)
	require.Equal(t, Proved, out.Verdict)
}
