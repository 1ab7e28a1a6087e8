package hwprove

import "fmt"

const (
	TY_LITERAL = 1
	TY_PARAM   = 2

	TY_NOT   = 3
	TY_NEG   = 4
	TY_ZEXT  = 5
	TY_SEXT  = 6
	TY_SLICE = 7

	TY_ADD = 8
	TY_SUB = 9
	TY_MUL = 10
	TY_DIV = 11
	TY_AND = 12
	TY_OR  = 13
	TY_XOR = 14
	TY_SEL = 15

	TY_EQ = 16
	TY_NE = 17
	TY_LT = 18
	TY_LE = 19
	TY_GT = 20
	TY_GE = 21

	TY_SHLL = 22
	TY_SHRL = 23
	TY_SHRA = 24

	TY_CONCAT = 25
)

// Operator families of the expression graph.
const (
	FAMILY_UNKNOWN = iota
	FAMILY_LITERAL
	FAMILY_PARAM
	FAMILY_UNARY
	FAMILY_BINARY
	FAMILY_SHIFT
	FAMILY_CONCAT
)

var kindNames = map[int]string{
	TY_LITERAL: "literal",
	TY_PARAM:   "param",
	TY_NOT:     "not",
	TY_NEG:     "neg",
	TY_ZEXT:    "zext",
	TY_SEXT:    "sext",
	TY_SLICE:   "slice",
	TY_ADD:     "add",
	TY_SUB:     "sub",
	TY_MUL:     "mul",
	TY_DIV:     "div",
	TY_AND:     "and",
	TY_OR:      "or",
	TY_XOR:     "xor",
	TY_SEL:     "sel",
	TY_EQ:      "eq",
	TY_NE:      "ne",
	TY_LT:      "lt",
	TY_LE:      "le",
	TY_GT:      "gt",
	TY_GE:      "ge",
	TY_SHLL:    "shll",
	TY_SHRL:    "shrl",
	TY_SHRA:    "shra",
	TY_CONCAT:  "concat",
}

// KindName returns the mnemonic of an operator kind, as used in graph files.
func KindName(kind int) string {
	if n, ok := kindNames[kind]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", kind)
}

// KindFromName is the inverse of KindName.
func KindFromName(name string) (int, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

var familyNames = map[int]string{
	FAMILY_LITERAL: "literal",
	FAMILY_PARAM:   "param",
	FAMILY_UNARY:   "unary",
	FAMILY_BINARY:  "binary",
	FAMILY_SHIFT:   "shift",
	FAMILY_CONCAT:  "concat",
}

// FamilyName returns the name of an operator family.
func FamilyName(family int) string {
	if n, ok := familyNames[family]; ok {
		return n
	}
	return "unknown"
}

// Family groups an operator kind by its operand shape.
func Family(kind int) int {
	switch kind {
	case TY_LITERAL:
		return FAMILY_LITERAL
	case TY_PARAM:
		return FAMILY_PARAM
	case TY_NOT, TY_NEG, TY_ZEXT, TY_SEXT, TY_SLICE:
		return FAMILY_UNARY
	case TY_ADD, TY_SUB, TY_MUL, TY_DIV, TY_AND, TY_OR, TY_XOR, TY_SEL,
		TY_EQ, TY_NE, TY_LT, TY_LE, TY_GT, TY_GE:
		return FAMILY_BINARY
	case TY_SHLL, TY_SHRL, TY_SHRA:
		return FAMILY_SHIFT
	case TY_CONCAT:
		return FAMILY_CONCAT
	}
	return FAMILY_UNKNOWN
}

// NodeID is the stable identity of a node inside its Graph.
type NodeID int

// Node is a vertex of the expression graph. Nodes are owned by a Graph and are
// read-only for everything else.
type Node struct {
	id       NodeID
	kind     int
	width    uint
	signed   bool
	name     string
	value    *BVConst
	start    uint
	operands []NodeID
}

func (n *Node) ID() NodeID {
	return n.id
}

func (n *Node) Kind() int {
	return n.kind
}

func (n *Node) Width() uint {
	return n.width
}

func (n *Node) Signed() bool {
	return n.signed
}

// Name is the parameter name; empty for every other kind.
func (n *Node) Name() string {
	return n.name
}

// Value returns a copy of the literal value, or nil for non-literals.
func (n *Node) Value() *BVConst {
	if n.value == nil {
		return nil
	}
	return n.value.Copy()
}

// Start is the lowest bit selected by a TY_SLICE node.
func (n *Node) Start() uint {
	return n.start
}

func (n *Node) Operands() []NodeID {
	res := make([]NodeID, len(n.operands))
	copy(res, n.operands)
	return res
}

func (n *Node) String() string {
	switch Family(n.kind) {
	case FAMILY_LITERAL:
		if n.value == nil {
			return fmt.Sprintf("%%%d = literal(<nil>)", n.id)
		}
		return fmt.Sprintf("%%%d = literal(%s)", n.id, n.value.Format())
	case FAMILY_PARAM:
		return fmt.Sprintf("%%%d = param(%s, bits[%d])", n.id, n.name, n.width)
	}

	s := fmt.Sprintf("%%%d = %s", n.id, KindName(n.kind))
	if n.signed {
		s += ".s"
	}
	s += "("
	for i, op := range n.operands {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%%%d", op)
	}
	if n.kind == TY_SLICE {
		s += fmt.Sprintf(", start=%d", n.start)
	}
	return s + fmt.Sprintf(") bits[%d]", n.width)
}
