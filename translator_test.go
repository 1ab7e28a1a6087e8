package hwprove

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

var testBackends = []string{BACKEND_Z3, BACKEND_GINI}

func testOptions(backend string) Options {
	opts := DefaultOptions()
	opts.Backend = backend
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return opts
}

func forEachBackend(t *testing.T, f func(t *testing.T, opts Options)) {
	for _, b := range testBackends {
		t.Run(b, func(t *testing.T) {
			f(t, testOptions(b))
		})
	}
}

func must(t *testing.T) func(NodeID, error) NodeID {
	return func(id NodeID, err error) NodeID {
		t.Helper()
		require.NoError(t, err)
		return id
	}
}

func requireTranslationError(t *testing.T, err error, node NodeID) {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrTranslation), "unexpected error %v", err)

	var te *TranslationError
	require.True(t, errors.As(err, &te))
	require.Equal(t, node, te.Node, "error blames the wrong node: %v", err)
}

func TestTranslateSharing(t *testing.T) {
	forEachBackend(t, func(t *testing.T, opts Options) {
		g := NewGraph()
		m := must(t)

		x := g.Param("x", 8)
		one := g.Literal(1, 8)
		d := m(g.Add(x, one))
		e1 := m(g.Not(d))
		e2 := m(g.Neg(d))
		root := m(g.Xor(e1, e2))

		tr, err := CreateAndTranslateWithOptions(g, root, opts)
		require.NoError(t, err)
		defer tr.Close()

		require.Equal(t, 6, tr.CacheLen())
		for _, id := range []NodeID{x, one, d, e1, e2, root} {
			require.Equal(t, 1, tr.HandlerInvocations(id), "node %d", id)
		}
		require.Equal(t, uint(6), tr.Stats.HandlerInvocations)
		require.Equal(t, uint(1), tr.Stats.CacheHits)

		require.Equal(t, uint(8), tr.GetTranslation(d).Width())
		require.Equal(t, uint(8), tr.GetTranslation(root).Width())
	})
}

func TestTranslateSameOperandTwice(t *testing.T) {
	g := NewGraph()
	x := g.Param("x", 32)
	p := must(t)(g.Eq(x, x))

	tr, err := CreateAndTranslateWithOptions(g, p, testOptions(BACKEND_GINI))
	require.NoError(t, err)
	defer tr.Close()

	require.Equal(t, 2, tr.CacheLen())
	require.Equal(t, 1, tr.HandlerInvocations(x))
	require.Equal(t, uint(1), tr.GetTranslation(p).Width())
}

func TestTranslateMalformed(t *testing.T) {
	forEachBackend(t, func(t *testing.T, opts Options) {
		t.Run("self reference", func(t *testing.T) {
			g := NewGraph()
			n := g.NewNode(TY_NOT, 8, false, 0)
			g.SetOperand(n.ID(), 0, n.ID())

			tr, err := CreateAndTranslateWithOptions(g, n.ID(), opts)
			require.Nil(t, tr)
			requireTranslationError(t, err, n.ID())
		})

		t.Run("indirect cycle", func(t *testing.T) {
			g := NewGraph()
			x := g.Param("x", 8)
			a := g.NewNode(TY_AND, 8, false, x, x)
			b := g.NewNode(TY_NEG, 8, false, a.ID())
			g.SetOperand(a.ID(), 1, b.ID())

			_, err := CreateAndTranslateWithOptions(g, a.ID(), opts)
			requireTranslationError(t, err, b.ID())
		})

		t.Run("dangling operand", func(t *testing.T) {
			g := NewGraph()
			n := g.NewNode(TY_NOT, 8, false, 42)

			_, err := CreateAndTranslateWithOptions(g, n.ID(), opts)
			requireTranslationError(t, err, n.ID())
			require.Contains(t, err.Error(), "unknown node %42")
		})

		t.Run("dangling root", func(t *testing.T) {
			_, err := CreateAndTranslateWithOptions(NewGraph(), 3, opts)
			requireTranslationError(t, err, 3)
		})

		t.Run("unknown kind", func(t *testing.T) {
			g := NewGraph()
			n := g.NewNode(77, 8, false)

			_, err := CreateAndTranslateWithOptions(g, n.ID(), opts)
			requireTranslationError(t, err, n.ID())
			require.Contains(t, err.Error(), "kind(77)")
		})

		t.Run("width violation", func(t *testing.T) {
			g := NewGraph()
			x := g.Param("x", 16)
			n := g.NewNode(TY_AND, 8, false, x, x)

			_, err := CreateAndTranslateWithOptions(g, n.ID(), opts)
			requireTranslationError(t, err, n.ID())
			require.Contains(t, err.Error(), "bits[16]")
		})

		t.Run("slice start overflow", func(t *testing.T) {
			g := NewGraph()
			x := g.Param("x", 8)
			n := g.NewNode(TY_SLICE, 2, false, x)
			n.start = ^uint(0)

			_, err := CreateAndTranslateWithOptions(g, n.ID(), opts)
			requireTranslationError(t, err, n.ID())
			require.Contains(t, err.Error(), "out of bounds of bits[8]")

			_, err = Eval(g, n.ID(), map[string]*BVConst{"x": MakeBVConst(1, 8)})
			requireTranslationError(t, err, n.ID())
		})

		t.Run("duplicate parameter name", func(t *testing.T) {
			g := NewGraph()
			m := must(t)
			x8 := g.Param("x", 8)
			x16 := g.Param("x", 16)
			p := m(g.Eq(m(g.ZExt(x8, 16)), x16))

			_, err := CreateAndTranslateWithOptions(g, p, opts)
			require.ErrorIs(t, err, ErrTranslation)
			require.Contains(t, err.Error(), "duplicate parameter name")
		})
	})
}

func TestGetTranslation(t *testing.T) {
	g := NewGraph()
	x := g.Param("x", 8)
	y := g.Param("y", 8)

	tr, err := CreateAndTranslateWithOptions(g, x, testOptions(BACKEND_GINI))
	require.NoError(t, err)

	require.Equal(t, uint(8), tr.GetTranslation(x).Width())
	require.Panics(t, func() { tr.GetTranslation(y) })

	_, err = tr.LookupTranslation(y)
	require.ErrorIs(t, err, ErrNotTranslated)

	tr.Close()
	tr.Close()
	require.Panics(t, func() { tr.GetTranslation(x) })
	require.Panics(t, func() { tr.TryProve(x, false, 0) })
}

func TestTranslateRollback(t *testing.T) {
	forEachBackend(t, func(t *testing.T, opts Options) {
		g := NewGraph()
		m := must(t)

		x := g.Param("x", 8)
		px := m(g.Eq(x, x))
		tr, err := CreateAndTranslateWithOptions(g, px, opts)
		require.NoError(t, err)
		defer tr.Close()
		before := tr.CacheLen()

		y := g.Param("y", 8)
		ny := m(g.Not(y))
		w := g.Param("w", 16)
		bad := g.NewNode(TY_AND, 8, false, ny, w)

		_, err = tr.TryProve(bad.ID(), false, 0)
		requireTranslationError(t, err, bad.ID())
		require.Equal(t, before, tr.CacheLen())
		_, err = tr.LookupTranslation(ny)
		require.ErrorIs(t, err, ErrNotTranslated)

		// y can be declared again after the failed attempt
		py := m(g.Eq(ny, ny))
		out, err := tr.TryProve(py, true, 0)
		require.NoError(t, err)
		require.Equal(t, Proved, out.Verdict)
		require.Equal(t, 1, tr.HandlerInvocations(x))
	})
}

func TestTranslatePredicateWidth(t *testing.T) {
	forEachBackend(t, func(t *testing.T, opts Options) {
		g := NewGraph()
		x := g.Param("x", 8)

		tr, err := CreateAndTranslateWithOptions(g, x, opts)
		require.NoError(t, err)
		defer tr.Close()

		_, err = tr.TryProve(x, false, 0)
		requireTranslationError(t, err, x)
	})
}

func TestUnknownBackend(t *testing.T) {
	opts := testOptions("cvc5")
	_, err := CreateAndTranslateWithOptions(NewGraph(), 0, opts)
	require.ErrorIs(t, err, ErrUnknownBackend)
}
