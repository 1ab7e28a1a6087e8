package hwprove

import "math/big"

// resize brings x from width `from` to width `to`, truncating or extending.
func (t *Translator) resize(x term, from, to uint, signed bool) term {
	switch {
	case to == from:
		return x
	case to < from:
		return t.backend.extract(x, to-1, 0)
	case signed:
		return t.backend.sext(x, to-from)
	}
	return t.backend.zext(x, to-from)
}

func (t *Translator) constBig(v *big.Int, width uint) term {
	return t.backend.constant(MakeBVConstFromBigint(v, width))
}

func maxWidth(widths ...uint) uint {
	res := uint(0)
	for _, w := range widths {
		if w > res {
			res = w
		}
	}
	return res
}

// handle translates a single node whose operands are already translated.
// Widths have been checked by checkWidths.
func (t *Translator) handle(n *Node, opNodes []*Node, ops []term) (term, error) {
	b := t.backend
	w := n.width

	switch n.kind {
	case TY_LITERAL:
		return b.constant(n.value), nil

	case TY_PARAM:
		if other, ok := t.params[n.name]; ok && other != n.id {
			return nil, translationErrorf(n, "duplicate parameter name %q (also %%%d)", n.name, other)
		}
		t.params[n.name] = n.id
		t.pjournal = append(t.pjournal, n.name)
		return b.variable(n.name, w), nil

	case TY_NOT:
		return b.not(ops[0]), nil
	case TY_NEG:
		return b.neg(ops[0]), nil
	case TY_ZEXT:
		return t.resize(ops[0], opNodes[0].width, w, false), nil
	case TY_SEXT:
		return t.resize(ops[0], opNodes[0].width, w, true), nil
	case TY_SLICE:
		return b.extract(ops[0], n.start+w-1, n.start), nil

	case TY_ADD, TY_SUB, TY_MUL:
		x := t.resize(ops[0], opNodes[0].width, w, n.signed)
		y := t.resize(ops[1], opNodes[1].width, w, n.signed)
		switch n.kind {
		case TY_ADD:
			return b.add(x, y), nil
		case TY_SUB:
			return b.sub(x, y), nil
		}
		return b.mul(x, y), nil

	case TY_DIV:
		return t.handleDiv(n, opNodes, ops), nil

	case TY_AND, TY_OR, TY_XOR:
		res := ops[0]
		for _, op := range ops[1:] {
			switch n.kind {
			case TY_AND:
				res = b.and(res, op)
			case TY_OR:
				res = b.or(res, op)
			default:
				res = b.xor(res, op)
			}
		}
		return res, nil

	case TY_SEL:
		return b.ite(ops[0], ops[1], ops[2]), nil

	case TY_EQ, TY_NE, TY_LT, TY_LE, TY_GT, TY_GE:
		return t.handleCompare(n, ops[0], ops[1]), nil

	case TY_SHLL, TY_SHRL, TY_SHRA:
		return t.handleShift(n, opNodes, ops), nil

	case TY_CONCAT:
		res := ops[0]
		for _, op := range ops[1:] {
			res = b.concat(res, op)
		}
		return res, nil
	}
	return nil, translationErrorf(n, "unsupported operator")
}

// handleDiv divides at the widest of the operand and result widths. A zero
// divisor gives all ones when unsigned; when signed it gives the largest
// positive value for a non-negative dividend and the most negative value
// otherwise.
func (t *Translator) handleDiv(n *Node, opNodes []*Node, ops []term) term {
	b := t.backend
	W := maxWidth(opNodes[0].width, opNodes[1].width, n.width)
	x := t.resize(ops[0], opNodes[0].width, W, n.signed)
	y := t.resize(ops[1], opNodes[1].width, W, n.signed)

	zero := t.constBig(big.NewInt(0), W)
	byZero := b.eq(y, zero)

	var q term
	if n.signed {
		maxPos := makeMask(W - 1)
		minNeg := new(big.Int).Add(maxPos, big.NewInt(1))
		onZero := b.ite(b.slt(x, zero), t.constBig(minNeg, W), t.constBig(maxPos, W))
		q = b.ite(byZero, onZero, b.sdiv(x, y))
	} else {
		q = b.ite(byZero, t.constBig(makeMask(W), W), b.udiv(x, y))
	}
	return t.resize(q, W, n.width, n.signed)
}

func (t *Translator) handleCompare(n *Node, x, y term) term {
	b := t.backend
	lt := b.ult
	if n.signed {
		lt = b.slt
	}

	switch n.kind {
	case TY_EQ:
		return b.eq(x, y)
	case TY_NE:
		return b.not(b.eq(x, y))
	case TY_LT:
		return lt(x, y)
	case TY_LE:
		return b.not(lt(y, x))
	case TY_GT:
		return lt(y, x)
	}
	return b.not(lt(x, y))
}

// handleShift shifts at max(w, amount width) so that an amount wider than
// the value is not truncated, then keeps the low w bits. Over-shifting
// yields zero, or the sign fill for TY_SHRA.
func (t *Translator) handleShift(n *Node, opNodes []*Node, ops []term) term {
	b := t.backend
	w, wa := n.width, opNodes[1].width
	W := maxWidth(w, wa)

	x := t.resize(ops[0], w, W, n.kind == TY_SHRA)
	amount := t.resize(ops[1], wa, W, false)

	var res term
	switch n.kind {
	case TY_SHLL:
		res = b.shl(x, amount)
	case TY_SHRL:
		res = b.lshr(x, amount)
	default:
		res = b.ashr(x, amount)
	}
	return t.resize(res, W, w, false)
}
