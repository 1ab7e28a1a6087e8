package hwprove

import (
	"fmt"
	"math/big"
)

type evaluator struct {
	g       *Graph
	interpr map[string]*BVConst
	cache   map[NodeID]*BVConst
	onPath  map[NodeID]bool
}

// Eval computes the concrete value of root under an assignment of parameter
// names to values, with the same semantics as the translation. Every
// parameter reachable from root must be assigned.
func Eval(g *Graph, root NodeID, assignment map[string]*BVConst) (*BVConst, error) {
	ev := &evaluator{
		g:       g,
		interpr: assignment,
		cache:   map[NodeID]*BVConst{},
		onPath:  map[NodeID]bool{},
	}
	r, err := ev.eval(root)
	if err != nil {
		return nil, err
	}
	return r.Copy(), nil
}

func (ev *evaluator) eval(id NodeID) (*BVConst, error) {
	if r, ok := ev.cache[id]; ok {
		return r, nil
	}
	n, ok := ev.g.Node(id)
	if !ok {
		return nil, &TranslationError{Node: id, Reason: "unknown node"}
	}
	if ev.onPath[id] {
		return nil, translationErrorf(n, "cyclic reference")
	}
	ev.onPath[id] = true
	defer delete(ev.onPath, id)

	opNodes := make([]*Node, len(n.operands))
	ops := make([]*BVConst, len(n.operands))
	for i, opID := range n.operands {
		op, err := ev.eval(opID)
		if err != nil {
			return nil, err
		}
		ops[i] = op
		opNodes[i] = ev.g.MustNode(opID)
	}
	if err := checkWidths(n, opNodes); err != nil {
		return nil, translationErrorf(n, "%s", err.Error())
	}

	r, err := ev.apply(n, ops)
	if err != nil {
		return nil, err
	}
	ev.cache[id] = r
	return r, nil
}

func resized(c *BVConst, size uint, signed bool) *BVConst {
	r := c.Copy()
	r.Resize(size, signed)
	return r
}

func boolConst(b bool) *BVConst {
	if b {
		return MakeBVConst(1, 1)
	}
	return MakeBVConst(0, 1)
}

// shiftAmount clamps a shift amount to something a uint can hold; anything
// at least as large as the value width shifts everything out.
func shiftAmount(c *BVConst, width uint) uint {
	if c.Big().Cmp(new(big.Int).SetUint64(uint64(width))) >= 0 {
		return width
	}
	return uint(c.AsULong())
}

func (ev *evaluator) apply(n *Node, ops []*BVConst) (*BVConst, error) {
	w := n.width

	switch n.kind {
	case TY_LITERAL:
		return n.value.Copy(), nil
	case TY_PARAM:
		v, ok := ev.interpr[n.name]
		if !ok {
			return nil, fmt.Errorf("no value for parameter %q", n.name)
		}
		if v.Size != w {
			return nil, fmt.Errorf("parameter %q is bits[%d], value is bits[%d]", n.name, w, v.Size)
		}
		return v.Copy(), nil
	case TY_NOT:
		r := ops[0].Copy()
		r.Not()
		return r, nil
	case TY_NEG:
		r := ops[0].Copy()
		r.Neg()
		return r, nil
	case TY_ZEXT:
		return resized(ops[0], w, false), nil
	case TY_SEXT:
		return resized(ops[0], w, true), nil
	case TY_SLICE:
		return ops[0].Slice(n.start+w-1, n.start), nil

	case TY_ADD, TY_SUB, TY_MUL:
		r := resized(ops[0], w, n.signed)
		o := resized(ops[1], w, n.signed)
		var err error
		switch n.kind {
		case TY_ADD:
			err = r.Add(o)
		case TY_SUB:
			err = r.Sub(o)
		default:
			err = r.Mul(o)
		}
		return r, err

	case TY_DIV:
		W := maxWidth(ops[0].Size, ops[1].Size, w)
		r := resized(ops[0], W, n.signed)
		o := resized(ops[1], W, n.signed)
		var err error
		if n.signed {
			err = r.SDiv(o)
		} else {
			err = r.UDiv(o)
		}
		if err != nil {
			return nil, err
		}
		r.Resize(w, n.signed)
		return r, nil

	case TY_AND, TY_OR, TY_XOR:
		r := ops[0].Copy()
		for _, o := range ops[1:] {
			var err error
			switch n.kind {
			case TY_AND:
				err = r.And(o)
			case TY_OR:
				err = r.Or(o)
			default:
				err = r.Xor(o)
			}
			if err != nil {
				return nil, err
			}
		}
		return r, nil

	case TY_SEL:
		if ops[0].IsOne() {
			return ops[1].Copy(), nil
		}
		return ops[2].Copy(), nil

	case TY_EQ, TY_NE, TY_LT, TY_LE, TY_GT, TY_GE:
		return ev.compare(n, ops[0], ops[1])

	case TY_SHLL, TY_SHRL, TY_SHRA:
		r := ops[0].Copy()
		amount := shiftAmount(ops[1], w)
		switch n.kind {
		case TY_SHLL:
			r.Shl(amount)
		case TY_SHRL:
			r.LShr(amount)
		default:
			r.AShr(amount)
		}
		return r, nil

	case TY_CONCAT:
		r := ops[0].Copy()
		for _, o := range ops[1:] {
			r.Concat(o)
		}
		return r, nil
	}
	return nil, translationErrorf(n, "unsupported operator")
}

func (ev *evaluator) compare(n *Node, x, y *BVConst) (*BVConst, error) {
	lt := x.ULt
	gt := y.ULt
	if n.signed {
		lt = x.SLt
		gt = y.SLt
	}

	var res bool
	var err error
	switch n.kind {
	case TY_EQ:
		res, err = x.Eq(y)
	case TY_NE:
		res, err = x.Eq(y)
		res = !res
	case TY_LT:
		res, err = lt(y)
	case TY_LE:
		res, err = gt(x)
		res = !res
	case TY_GT:
		res, err = gt(x)
	default:
		res, err = lt(y)
		res = !res
	}
	if err != nil {
		return nil, err
	}
	return boolConst(res), nil
}
