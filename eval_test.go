package hwprove_test

import (
	"errors"
	"testing"

	"github.com/borzacchiello/hwprove"
)

func evalOrFail(t *testing.T, g *hwprove.Graph, id hwprove.NodeID, interpr map[string]*hwprove.BVConst) *hwprove.BVConst {
	t.Helper()
	v, err := hwprove.Eval(g, id, interpr)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestEvalArithmetic(t *testing.T) {
	g := hwprove.NewGraph()
	x := g.Param("x", 8)
	y := g.Param("y", 8)

	sum, _ := g.Add(x, y)
	diff, _ := g.Sub(x, y)
	prod, _ := g.Mul(x, y)
	quo, _ := g.UDiv(x, y)
	squo, _ := g.SDiv(x, y)

	interpr := map[string]*hwprove.BVConst{
		"x": hwprove.MakeBVConst(-7, 8),
		"y": hwprove.MakeBVConst(2, 8),
	}

	cases := []struct {
		name string
		id   hwprove.NodeID
		want uint64
	}{
		{"add", sum, 0xfb},
		{"sub", diff, 0xf7},
		{"mul", prod, 0xf2},
		{"udiv", quo, 0x7c},
		{"sdiv", squo, 0xfd},
	}
	for _, c := range cases {
		if v := evalOrFail(t, g, c.id, interpr); v.AsULong() != c.want {
			t.Errorf("%s: got %s, want 0x%x", c.name, v, c.want)
		}
	}
}

func TestEvalSharedSubexpression(t *testing.T) {
	g := hwprove.NewGraph()
	x := g.Param("x", 16)
	sq, _ := g.Mul(x, x)
	s, _ := g.Add(sq, sq)

	v := evalOrFail(t, g, s, map[string]*hwprove.BVConst{"x": hwprove.MakeBVConst(3, 16)})
	if v.AsULong() != 18 {
		t.Errorf("got %s", v)
	}
}

func TestEvalShiftsAndConcat(t *testing.T) {
	g := hwprove.NewGraph()
	x := g.Param("x", 8)
	wide := g.Literal(300, 16)
	one := g.Literal(1, 1)

	shra, _ := g.Shra(x, one)
	shrl, _ := g.Shrl(x, one)
	over, _ := g.Shra(x, wide)
	cat, _ := g.Concat(x, g.Literal(0xa, 4))
	top, _ := g.Slice(cat, 4, 8)

	interpr := map[string]*hwprove.BVConst{"x": hwprove.MakeBVConst(0x80, 8)}
	if v := evalOrFail(t, g, shra, interpr); v.AsULong() != 0xc0 {
		t.Errorf("shra: got %s", v)
	}
	if v := evalOrFail(t, g, shrl, interpr); v.AsULong() != 0x40 {
		t.Errorf("shrl: got %s", v)
	}
	if v := evalOrFail(t, g, over, interpr); v.AsULong() != 0xff {
		t.Errorf("over-shift: got %s", v)
	}
	if v := evalOrFail(t, g, cat, interpr); v.Size != 12 || v.AsULong() != 0x80a {
		t.Errorf("concat: got %s", v)
	}
	if v := evalOrFail(t, g, top, interpr); v.AsULong() != 0x80 {
		t.Errorf("slice: got %s", v)
	}
}

func TestEvalCompareAndSelect(t *testing.T) {
	g := hwprove.NewGraph()
	x := g.Param("x", 8)
	zero := g.Literal(0, 8)

	neg, _ := g.SLt(x, zero)
	big, _ := g.UGt(x, zero)
	sel, _ := g.Sel(neg, g.Literal(1, 8), g.Literal(2, 8))

	interpr := map[string]*hwprove.BVConst{"x": hwprove.MakeBVConst(-1, 8)}
	if v := evalOrFail(t, g, neg, interpr); !v.IsOne() {
		t.Errorf("-1 s< 0 should hold")
	}
	if v := evalOrFail(t, g, big, interpr); !v.IsOne() {
		t.Errorf("0xff u> 0 should hold")
	}
	if v := evalOrFail(t, g, sel, interpr); v.AsULong() != 1 {
		t.Errorf("sel: got %s", v)
	}
}

func TestEvalErrors(t *testing.T) {
	g := hwprove.NewGraph()
	x := g.Param("x", 8)
	n, _ := g.Not(x)

	if _, err := hwprove.Eval(g, n, map[string]*hwprove.BVConst{}); err == nil {
		t.Error("missing parameter should fail")
	}
	if _, err := hwprove.Eval(g, n, map[string]*hwprove.BVConst{"x": hwprove.MakeBVConst(1, 4)}); err == nil {
		t.Error("mis-sized parameter should fail")
	}

	loop := g.NewNode(hwprove.TY_NEG, 8, false, 0)
	g.SetOperand(loop.ID(), 0, loop.ID())
	_, err := hwprove.Eval(g, loop.ID(), nil)
	if !errors.Is(err, hwprove.ErrTranslation) {
		t.Errorf("cycle should be a translation error, got %v", err)
	}
}
