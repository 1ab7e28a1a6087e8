package hwprove

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Verdict int

const (
	Unknown Verdict = iota
	Proved
	Disproved
)

func (v Verdict) String() string {
	switch v {
	case Proved:
		return "proved"
	case Disproved:
		return "disproved"
	}
	return "unknown"
}

// Outcome is the result of a proof attempt. Witness is set only when the
// verdict is Disproved, Reason only when it is Unknown.
type Outcome struct {
	Verdict Verdict
	Witness *Witness
	Reason  string
	Elapsed time.Duration
}

func (o *Outcome) String() string {
	switch o.Verdict {
	case Proved:
		return "proved"
	case Disproved:
		var b strings.Builder
		b.WriteString("disproved\n")
		if o.Witness != nil {
			b.WriteString(o.Witness.String())
		}
		return strings.TrimSuffix(b.String(), "\n")
	}
	return fmt.Sprintf("unknown (%s)", o.Reason)
}

// TryProve checks whether the 1-bit predicate pred can be 1, or 0 when
// negate is set, within timeout. A zero timeout uses
// Options.DefaultTimeout; if that is zero too the search is unbounded.
//
// No satisfying assignment means Proved: with negate set, pred holds for
// every parameter assignment. Otherwise the verdict is Disproved and the
// witness is an assignment satisfying the asserted formula. Running out of
// time is Unknown, not an error.
func (t *Translator) TryProve(pred NodeID, negate bool, timeout time.Duration) (*Outcome, error) {
	t.checkOpen()

	ctx, span := t.tel.tracer.Start(context.Background(), "hwprove.TryProve",
		trace.WithAttributes(
			attribute.String("session", t.session),
			attribute.String("backend", t.backend.name()),
			attribute.Int("predicate", int(pred)),
			attribute.Bool("negate", negate),
		))
	defer span.End()

	out, err := t.tryProve(ctx, pred, negate, timeout)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("verdict", out.Verdict.String()))
	return out, nil
}

func (t *Translator) tryProve(ctx context.Context, pred NodeID, negate bool, timeout time.Duration) (*Outcome, error) {
	p, err := t.translate(ctx, pred)
	if err != nil {
		return nil, err
	}
	if w := t.backend.width(p); w != 1 {
		n := t.graph.MustNode(pred)
		return nil, translationErrorf(n, "predicate is bits[%d], expected bits[1]", w)
	}

	assertion := p
	if negate {
		assertion = t.backend.not(p)
	}
	if timeout <= 0 {
		timeout = t.opts.DefaultTimeout
	}

	start := time.Now()
	r, reason := t.backend.check(assertion, timeout)
	out := &Outcome{Elapsed: time.Since(start)}

	switch r {
	case RESULT_UNSAT:
		out.Verdict = Proved
	case RESULT_SAT:
		out.Verdict = Disproved
		out.Witness, err = t.witness(pred)
		if err != nil {
			return nil, err
		}
		if t.opts.ValidateWitness {
			if err := t.validate(pred, negate, out.Witness); err != nil {
				return nil, err
			}
		}
	default:
		out.Verdict = Unknown
		out.Reason = reason
		if out.Reason == "" {
			out.Reason = "solver returned unknown"
		}
	}

	t.Stats.Proofs += 1
	t.tel.recordProof(ctx, t.backend.name(), out.Verdict, out.Elapsed.Seconds())
	if out.Verdict == Unknown {
		t.logger.Warn("proof inconclusive", "predicate", pred, "negate", negate, "timeout", timeout, "reason", out.Reason)
	} else {
		t.logger.Debug("proof finished", "predicate", pred, "negate", negate, "verdict", out.Verdict.String(), "elapsed", out.Elapsed)
	}
	return out, nil
}

// witness reads the model value of every parameter pred depends on.
func (t *Translator) witness(pred NodeID) (*Witness, error) {
	w := newWitness()
	for _, id := range t.graph.Params(pred) {
		r, ok := t.cache.get(id)
		assert(ok, "parameter %%%d of %%%d is not translated", id, pred)

		v, err := t.backend.value(r)
		if err != nil {
			return nil, fmt.Errorf("reading witness for %%%d: %w", id, err)
		}
		w.set(id, t.graph.MustNode(id).name, v)
	}
	return w, nil
}

func (t *Translator) validate(pred NodeID, negate bool, w *Witness) error {
	v, err := Eval(t.graph, pred, w.Assignment())
	if err != nil {
		return fmt.Errorf("validating witness: %w", err)
	}
	want := uint(1)
	if negate {
		want = 0
	}
	if v.Bit(0) != want {
		return fmt.Errorf("%w: %%%d evaluates to %s", ErrWitnessMismatch, pred, v.Format())
	}
	return nil
}

// TryProve runs a single proof attempt in a fresh session with
// DefaultOptions.
func TryProve(g *Graph, pred NodeID, negate bool, timeout time.Duration) (*Outcome, error) {
	return TryProveWithOptions(g, pred, negate, timeout, DefaultOptions())
}

func TryProveWithOptions(g *Graph, pred NodeID, negate bool, timeout time.Duration, opts Options) (*Outcome, error) {
	t, err := CreateAndTranslateWithOptions(g, pred, opts)
	if err != nil {
		return nil, err
	}
	defer t.Close()
	return t.TryProve(pred, negate, timeout)
}
