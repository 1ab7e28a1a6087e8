package hwprove

import (
	"encoding/binary"
	"fmt"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
)

type GraphStats struct {
	CacheHits    uint
	CacheLookups uint
	Nodes        uint
}

// Graph is a symbolic expression DAG. Nodes get a stable NodeID (their index)
// when they are added and are never removed.
//
// The typed constructors hash-cons: asking twice for the same operator over
// the same operands returns the same node. NewNode bypasses both hash-consing
// and validation, for builders that manage node identity themselves.
type Graph struct {
	lock  sync.RWMutex
	nodes []*Node
	cache map[uint64][]NodeID

	Stats GraphStats
}

func NewGraph() *Graph {
	return &Graph{
		cache: map[uint64][]NodeID{},
	}
}

func (g *Graph) Len() int {
	g.lock.RLock()
	defer g.lock.RUnlock()
	return len(g.nodes)
}

// Node resolves an id. The second result is false for dangling ids.
func (g *Graph) Node(id NodeID) (*Node, bool) {
	g.lock.RLock()
	defer g.lock.RUnlock()
	if id < 0 || int(id) >= len(g.nodes) {
		return nil, false
	}
	return g.nodes[id], true
}

func (g *Graph) MustNode(id NodeID) *Node {
	n, ok := g.Node(id)
	assert(ok, "node %%%d is not in the graph", id)
	return n
}

func nodeHash(n *Node) uint64 {
	h := xxhash.New()
	var buf [8]byte

	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	put(uint64(n.kind))
	put(uint64(n.width))
	if n.signed {
		put(1)
	} else {
		put(0)
	}
	put(uint64(n.start))
	h.WriteString(n.name)
	if n.value != nil {
		h.Write(n.value.value.Bytes())
	}
	for _, op := range n.operands {
		put(uint64(op))
	}
	return h.Sum64()
}

func sameNode(a, b *Node) bool {
	if a.kind != b.kind || a.width != b.width || a.signed != b.signed ||
		a.start != b.start || a.name != b.name || len(a.operands) != len(b.operands) {
		return false
	}
	if (a.value == nil) != (b.value == nil) {
		return false
	}
	if a.value != nil {
		if eq, err := a.value.Eq(b.value); err != nil || !eq {
			return false
		}
	}
	for i := range a.operands {
		if a.operands[i] != b.operands[i] {
			return false
		}
	}
	return true
}

func (g *Graph) appendLocked(n *Node) NodeID {
	n.id = NodeID(len(g.nodes))
	g.nodes = append(g.nodes, n)
	g.Stats.Nodes += 1
	return n.id
}

func (g *Graph) getOrCreate(n *Node) NodeID {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.Stats.CacheLookups += 1

	h := nodeHash(n)
	bucket := g.cache[h]
	for _, id := range bucket {
		if sameNode(g.nodes[id], n) {
			g.Stats.CacheHits += 1
			return id
		}
	}

	id := g.appendLocked(n)
	g.cache[h] = append(bucket, id)
	return id
}

// build validates n against its operands and interns it.
func (g *Graph) build(n *Node) (NodeID, error) {
	ops := make([]*Node, len(n.operands))
	for i, id := range n.operands {
		op, ok := g.Node(id)
		if !ok {
			return -1, fmt.Errorf("%s: operand %d refers to unknown node %%%d", KindName(n.kind), i, id)
		}
		ops[i] = op
	}
	if err := checkWidths(n, ops); err != nil {
		return -1, fmt.Errorf("%s: %w", KindName(n.kind), err)
	}
	return g.getOrCreate(n), nil
}

// NewNode appends a node without validating or interning it. Operands may
// refer to nodes that do not exist yet.
func (g *Graph) NewNode(kind int, width uint, signed bool, operands ...NodeID) *Node {
	g.lock.Lock()
	defer g.lock.Unlock()

	n := &Node{kind: kind, width: width, signed: signed, operands: append([]NodeID(nil), operands...)}
	g.appendLocked(n)
	return n
}

// SetOperand rewires operand i of a node created with NewNode.
func (g *Graph) SetOperand(id NodeID, i int, operand NodeID) {
	g.lock.Lock()
	defer g.lock.Unlock()
	assert(int(id) < len(g.nodes) && i < len(g.nodes[id].operands), "no operand %d on node %%%d", i, id)
	g.nodes[id].operands[i] = operand
}

/*
 *  Leaves
 */

func (g *Graph) Literal(value int64, width uint) NodeID {
	return g.LiteralConst(MakeBVConst(value, width))
}

func (g *Graph) LiteralConst(c *BVConst) NodeID {
	assert(c != nil, "zero-width literal")
	return g.getOrCreate(&Node{kind: TY_LITERAL, width: c.Size, value: c.Copy()})
}

// Param returns the parameter called name. Asking again for the same name
// and width returns the same node.
func (g *Graph) Param(name string, width uint) NodeID {
	return g.getOrCreate(&Node{kind: TY_PARAM, width: width, name: name})
}

/*
 *  Operators
 */

// Op builds an arbitrary operator node with an explicit result width.
func (g *Graph) Op(kind int, width uint, signed bool, operands ...NodeID) (NodeID, error) {
	return g.build(&Node{kind: kind, width: width, signed: signed, operands: operands})
}

func (g *Graph) widthOf(id NodeID) uint {
	if n, ok := g.Node(id); ok {
		return n.width
	}
	return 0
}

func (g *Graph) arith(kind int, signed bool, a, b NodeID) (NodeID, error) {
	return g.Op(kind, g.widthOf(a), signed, a, b)
}

func (g *Graph) Add(a, b NodeID) (NodeID, error) { return g.arith(TY_ADD, false, a, b) }
func (g *Graph) Sub(a, b NodeID) (NodeID, error) { return g.arith(TY_SUB, false, a, b) }
func (g *Graph) Mul(a, b NodeID) (NodeID, error) { return g.arith(TY_MUL, false, a, b) }
func (g *Graph) SMul(a, b NodeID) (NodeID, error) { return g.arith(TY_MUL, true, a, b) }
func (g *Graph) UDiv(a, b NodeID) (NodeID, error) { return g.arith(TY_DIV, false, a, b) }
func (g *Graph) SDiv(a, b NodeID) (NodeID, error) { return g.arith(TY_DIV, true, a, b) }

func (g *Graph) bitwise(kind int, operands []NodeID) (NodeID, error) {
	if len(operands) == 0 {
		return -1, fmt.Errorf("%s: no operands", KindName(kind))
	}
	return g.Op(kind, g.widthOf(operands[0]), false, operands...)
}

func (g *Graph) And(operands ...NodeID) (NodeID, error) { return g.bitwise(TY_AND, operands) }
func (g *Graph) Or(operands ...NodeID) (NodeID, error)  { return g.bitwise(TY_OR, operands) }
func (g *Graph) Xor(operands ...NodeID) (NodeID, error) { return g.bitwise(TY_XOR, operands) }

func (g *Graph) Not(x NodeID) (NodeID, error) { return g.Op(TY_NOT, g.widthOf(x), false, x) }
func (g *Graph) Neg(x NodeID) (NodeID, error) { return g.Op(TY_NEG, g.widthOf(x), false, x) }

func (g *Graph) ZExt(x NodeID, width uint) (NodeID, error) { return g.Op(TY_ZEXT, width, false, x) }
func (g *Graph) SExt(x NodeID, width uint) (NodeID, error) { return g.Op(TY_SEXT, width, true, x) }

// Slice selects width bits of x starting at bit start (0 = least significant).
func (g *Graph) Slice(x NodeID, start, width uint) (NodeID, error) {
	return g.build(&Node{kind: TY_SLICE, width: width, start: start, operands: []NodeID{x}})
}

func (g *Graph) Sel(cond, onTrue, onFalse NodeID) (NodeID, error) {
	return g.Op(TY_SEL, g.widthOf(onTrue), false, cond, onTrue, onFalse)
}

func (g *Graph) cmp(kind int, signed bool, a, b NodeID) (NodeID, error) {
	return g.Op(kind, 1, signed, a, b)
}

func (g *Graph) Eq(a, b NodeID) (NodeID, error)  { return g.cmp(TY_EQ, false, a, b) }
func (g *Graph) Ne(a, b NodeID) (NodeID, error)  { return g.cmp(TY_NE, false, a, b) }
func (g *Graph) ULt(a, b NodeID) (NodeID, error) { return g.cmp(TY_LT, false, a, b) }
func (g *Graph) ULe(a, b NodeID) (NodeID, error) { return g.cmp(TY_LE, false, a, b) }
func (g *Graph) UGt(a, b NodeID) (NodeID, error) { return g.cmp(TY_GT, false, a, b) }
func (g *Graph) UGe(a, b NodeID) (NodeID, error) { return g.cmp(TY_GE, false, a, b) }
func (g *Graph) SLt(a, b NodeID) (NodeID, error) { return g.cmp(TY_LT, true, a, b) }
func (g *Graph) SLe(a, b NodeID) (NodeID, error) { return g.cmp(TY_LE, true, a, b) }
func (g *Graph) SGt(a, b NodeID) (NodeID, error) { return g.cmp(TY_GT, true, a, b) }
func (g *Graph) SGe(a, b NodeID) (NodeID, error) { return g.cmp(TY_GE, true, a, b) }

func (g *Graph) Shll(x, amount NodeID) (NodeID, error) {
	return g.Op(TY_SHLL, g.widthOf(x), false, x, amount)
}

func (g *Graph) Shrl(x, amount NodeID) (NodeID, error) {
	return g.Op(TY_SHRL, g.widthOf(x), false, x, amount)
}

func (g *Graph) Shra(x, amount NodeID) (NodeID, error) {
	return g.Op(TY_SHRA, g.widthOf(x), true, x, amount)
}

// Concat places operands[0] in the most significant bits.
func (g *Graph) Concat(operands ...NodeID) (NodeID, error) {
	var width uint
	for _, op := range operands {
		width += g.widthOf(op)
	}
	return g.Op(TY_CONCAT, width, false, operands...)
}

/*
 *  Queries
 */

// Params returns the parameters in root's transitive operand set, sorted by
// name. Dangling operands and cycles are skipped.
func (g *Graph) Params(root NodeID) []NodeID {
	stack := []NodeID{root}
	visited := make(map[NodeID]bool)
	params := make([]*Node, 0)

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true

		n, ok := g.Node(id)
		if !ok {
			continue
		}
		if n.kind == TY_PARAM {
			params = append(params, n)
			continue
		}
		stack = append(stack, n.operands...)
	}

	sort.Slice(params, func(i, j int) bool {
		if params[i].name != params[j].name {
			return params[i].name < params[j].name
		}
		return params[i].id < params[j].id
	})
	res := make([]NodeID, len(params))
	for i, p := range params {
		res[i] = p.id
	}
	return res
}

// Fingerprint hashes the structure reachable from root, independently of
// node ids. Two graphs describing the same computation share a fingerprint.
func (g *Graph) Fingerprint(root NodeID) uint64 {
	memo := make(map[NodeID]uint64)
	var visit func(id NodeID) uint64
	visit = func(id NodeID) uint64 {
		if h, ok := memo[id]; ok {
			return h
		}
		n, ok := g.Node(id)
		if !ok {
			return 0
		}
		memo[id] = 0 // breaks cycles
		shape := &Node{kind: n.kind, width: n.width, signed: n.signed, name: n.name, value: n.value, start: n.start}
		for _, op := range n.operands {
			shape.operands = append(shape.operands, NodeID(visit(op)))
		}
		h := nodeHash(shape)
		memo[id] = h
		return h
	}
	return visit(root)
}
