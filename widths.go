package hwprove

import "fmt"

// checkWidths enforces the operand count and width rules of n's operator.
// ops are n's operands, already resolved.
func checkWidths(n *Node, ops []*Node) error {
	if n.width == 0 {
		return fmt.Errorf("zero-width result")
	}

	arity := func(want int) error {
		if len(ops) != want {
			return fmt.Errorf("expected %d operands, got %d", want, len(ops))
		}
		return nil
	}
	sameAsResult := func() error {
		for i, op := range ops {
			if op.width != n.width {
				return fmt.Errorf("operand %d is bits[%d], result is bits[%d]", i, op.width, n.width)
			}
		}
		return nil
	}

	switch n.kind {
	case TY_LITERAL:
		if err := arity(0); err != nil {
			return err
		}
		if n.value == nil {
			return fmt.Errorf("literal without value")
		}
		if n.value.Size != n.width {
			return fmt.Errorf("literal value is bits[%d], node is bits[%d]", n.value.Size, n.width)
		}
	case TY_PARAM:
		if err := arity(0); err != nil {
			return err
		}
		if n.name == "" {
			return fmt.Errorf("unnamed parameter")
		}
	case TY_NOT, TY_NEG:
		if err := arity(1); err != nil {
			return err
		}
		return sameAsResult()
	case TY_ZEXT, TY_SEXT:
		if err := arity(1); err != nil {
			return err
		}
		if n.width < ops[0].width {
			return fmt.Errorf("cannot extend bits[%d] to bits[%d]", ops[0].width, n.width)
		}
	case TY_SLICE:
		if err := arity(1); err != nil {
			return err
		}
		if n.start >= ops[0].width || n.width > ops[0].width-n.start {
			return fmt.Errorf("slice of %d bits at %d out of bounds of bits[%d]", n.width, n.start, ops[0].width)
		}
	case TY_ADD, TY_SUB, TY_MUL, TY_DIV:
		return arity(2)
	case TY_AND, TY_OR, TY_XOR:
		if len(ops) < 2 {
			return fmt.Errorf("expected at least 2 operands, got %d", len(ops))
		}
		return sameAsResult()
	case TY_SEL:
		if err := arity(3); err != nil {
			return err
		}
		if ops[0].width != 1 {
			return fmt.Errorf("selector is bits[%d], expected bits[1]", ops[0].width)
		}
		if ops[1].width != n.width || ops[2].width != n.width {
			return fmt.Errorf("cases are bits[%d] and bits[%d], result is bits[%d]", ops[1].width, ops[2].width, n.width)
		}
	case TY_EQ, TY_NE, TY_LT, TY_LE, TY_GT, TY_GE:
		if err := arity(2); err != nil {
			return err
		}
		if n.width != 1 {
			return fmt.Errorf("comparison result is bits[%d], expected bits[1]", n.width)
		}
		if ops[0].width != ops[1].width {
			return fmt.Errorf("comparing bits[%d] with bits[%d]", ops[0].width, ops[1].width)
		}
	case TY_SHLL, TY_SHRL, TY_SHRA:
		if err := arity(2); err != nil {
			return err
		}
		if ops[0].width != n.width {
			return fmt.Errorf("shifted value is bits[%d], result is bits[%d]", ops[0].width, n.width)
		}
	case TY_CONCAT:
		if len(ops) == 0 {
			return fmt.Errorf("concat without operands")
		}
		var sum uint
		for _, op := range ops {
			sum += op.width
		}
		if sum != n.width {
			return fmt.Errorf("operand widths sum to %d, result is bits[%d]", sum, n.width)
		}
	default:
		return fmt.Errorf("unsupported operator")
	}
	return nil
}
