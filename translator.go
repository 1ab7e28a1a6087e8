package hwprove

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Value is the translation of a node. It is only meaningful while the
// Translator that produced it is open.
type Value struct {
	t     term
	width uint
}

func (v Value) Width() uint {
	return v.width
}

type TranslatorStats struct {
	HandlerInvocations uint
	CacheHits          uint
	Proofs             uint
}

// Translator owns a solver context and the translations of the graph nodes
// it has visited. A Translator is not safe for concurrent use.
type Translator struct {
	graph   *Graph
	backend solverBackend
	cache   translationCache

	params   map[string]NodeID
	pjournal []string
	calls    map[NodeID]int

	opts    Options
	logger  *slog.Logger
	session string
	tel     *telemetry
	closed  bool

	Stats TranslatorStats
}

// CreateAndTranslate opens a session with DefaultOptions and translates
// every node reachable from root.
func CreateAndTranslate(g *Graph, root NodeID) (*Translator, error) {
	return CreateAndTranslateWithOptions(g, root, DefaultOptions())
}

func CreateAndTranslateWithOptions(g *Graph, root NodeID, opts Options) (*Translator, error) {
	t, err := newTranslator(g, opts)
	if err != nil {
		return nil, err
	}

	ctx, span := t.tel.tracer.Start(context.Background(), "hwprove.CreateAndTranslate",
		trace.WithAttributes(
			attribute.String("session", t.session),
			attribute.String("backend", t.backend.name()),
			attribute.Int("root", int(root)),
		))
	defer span.End()

	if _, err := t.translate(ctx, root); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		t.logger.Debug("translation failed", "root", root, "error", err)
		t.Close()
		return nil, err
	}
	t.logger.Debug("translated", "root", root, "nodes", t.cache.len())
	return t, nil
}

func newTranslator(g *Graph, opts Options) (*Translator, error) {
	if opts.Backend == "" {
		opts.Backend = BACKEND_Z3
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	backend, err := newBackend(opts)
	if err != nil {
		return nil, err
	}

	session := uuid.NewString()
	return &Translator{
		graph:   g,
		backend: backend,
		params:  map[string]NodeID{},
		calls:   map[NodeID]int{},
		opts:    opts,
		logger:  opts.logger().With("session", session, "backend", backend.name()),
		session: session,
		tel:     newTelemetry(opts),
	}, nil
}

func (t *Translator) checkOpen() {
	assert(!t.closed, "translator %s used after Close", t.session)
}

// Session is the unique id attached to this translator's logs and spans.
func (t *Translator) Session() string {
	return t.session
}

func (t *Translator) Backend() string {
	return t.backend.name()
}

// GetTranslation returns the translation of a node. Asking for a node that
// has not been translated is a programming error and panics.
func (t *Translator) GetTranslation(id NodeID) Value {
	v, err := t.LookupTranslation(id)
	assert(err == nil, "node %%%d has not been translated", id)
	return v
}

// LookupTranslation is GetTranslation returning ErrNotTranslated instead of
// panicking.
func (t *Translator) LookupTranslation(id NodeID) (Value, error) {
	t.checkOpen()
	r, ok := t.cache.get(id)
	if !ok {
		return Value{}, fmt.Errorf("%%%d: %w", id, ErrNotTranslated)
	}
	return Value{t: r, width: t.backend.width(r)}, nil
}

// HandlerInvocations reports how many times the handler of a node ran.
func (t *Translator) HandlerInvocations(id NodeID) int {
	return t.calls[id]
}

// CacheLen is the number of translated nodes.
func (t *Translator) CacheLen() int {
	return t.cache.len()
}

// Close releases the solver context. Closing twice is a no-op.
func (t *Translator) Close() {
	if t.closed {
		return
	}
	t.closed = true
	t.backend.close()
	t.logger.Debug("session closed", "handlers", t.Stats.HandlerInvocations, "cache_hits", t.Stats.CacheHits)
}

type frame struct {
	id       NodeID
	expanded bool
}

func (t *Translator) cacheHit(ctx context.Context) {
	t.Stats.CacheHits += 1
	t.tel.recordCacheHit(ctx)
}

// translate visits the nodes reachable from root in post-order and
// translates each one not yet cached. When it fails, every cache entry it
// added is discarded.
func (t *Translator) translate(ctx context.Context, root NodeID) (term, error) {
	t.checkOpen()

	if r, ok := t.cache.get(root); ok {
		t.cacheHit(ctx)
		return r, nil
	}

	cacheMark := t.cache.mark()
	paramsMark := len(t.pjournal)
	r, err := t.visit(ctx, root)
	if err != nil {
		t.cache.rollback(cacheMark)
		for _, name := range t.pjournal[paramsMark:] {
			delete(t.params, name)
		}
		t.pjournal = t.pjournal[:paramsMark]
		return nil, err
	}
	return r, nil
}

func (t *Translator) visit(ctx context.Context, root NodeID) (term, error) {
	if _, ok := t.graph.Node(root); !ok {
		return nil, &TranslationError{Node: root, Reason: "unknown node"}
	}

	stack := []frame{{id: root}}
	onPath := map[NodeID]bool{}

	for len(stack) > 0 {
		f := &stack[len(stack)-1]
		if t.cache.has(f.id) {
			stack = stack[:len(stack)-1]
			continue
		}

		n := t.graph.MustNode(f.id)
		if !f.expanded {
			f.expanded = true
			onPath[n.id] = true

			for i := len(n.operands) - 1; i >= 0; i-- {
				opID := n.operands[i]
				if _, ok := t.graph.Node(opID); !ok {
					return nil, translationErrorf(n, "operand %d refers to unknown node %%%d", i, opID)
				}
				if onPath[opID] {
					return nil, translationErrorf(n, "cyclic reference through operand %d (%%%d)", i, opID)
				}
				if t.cache.has(opID) {
					t.cacheHit(ctx)
					continue
				}
				stack = append(stack, frame{id: opID})
			}
			continue
		}

		stack = stack[:len(stack)-1]
		delete(onPath, n.id)

		r, err := t.translateNode(ctx, n)
		if err != nil {
			return nil, err
		}
		t.cache.put(n.id, r)
	}

	r, _ := t.cache.get(root)
	return r, nil
}

func (t *Translator) translateNode(ctx context.Context, n *Node) (term, error) {
	opNodes := make([]*Node, len(n.operands))
	ops := make([]term, len(n.operands))
	for i, id := range n.operands {
		opNodes[i] = t.graph.MustNode(id)
		r, ok := t.cache.get(id)
		assert(ok, "operand %%%d of %%%d translated out of order", id, n.id)
		ops[i] = r
	}

	if err := checkWidths(n, opNodes); err != nil {
		return nil, translationErrorf(n, "%s", err.Error())
	}

	t.calls[n.id] += 1
	t.Stats.HandlerInvocations += 1
	t.tel.recordHandler(ctx, n.kind)

	return t.handle(n, opNodes, ops)
}
