package hwprove

import (
	"fmt"
	"time"
)

const (
	RESULT_ERROR   = 0
	RESULT_SAT     = 1
	RESULT_UNSAT   = 2
	RESULT_UNKNOWN = 3
)

const (
	BACKEND_Z3   = "z3"
	BACKEND_GINI = "gini"
)

// term is a backend bit-vector handle. Every term is a bit-vector; boolean
// results are 1-bit vectors.
type term interface{}

// solverBackend is the boundary to a decision procedure. All primitive
// operators follow SMT-LIB bit-vector semantics and require equal operand
// widths, except concat, extract and the extensions. Hardware-level rules
// (mixed widths, division by zero, shift amounts) are encoded on top of these
// primitives by the translator.
type solverBackend interface {
	name() string

	constant(c *BVConst) term
	variable(name string, width uint) term
	width(t term) uint

	not(a term) term
	neg(a term) term
	and(a, b term) term
	or(a, b term) term
	xor(a, b term) term
	add(a, b term) term
	sub(a, b term) term
	mul(a, b term) term
	udiv(a, b term) term
	sdiv(a, b term) term
	shl(a, b term) term
	lshr(a, b term) term
	ashr(a, b term) term
	eq(a, b term) term
	ult(a, b term) term
	slt(a, b term) term
	ite(c, a, b term) term
	concat(hi, lo term) term
	extract(a term, high, low uint) term
	zext(a term, n uint) term
	sext(a term, n uint) term

	// check decides whether the 1-bit assertion can be 1. The timeout covers
	// loading the query into the solver as well as the search; a non-positive
	// timeout means no deadline. On RESULT_UNKNOWN the string is the reason.
	check(assertion term, timeout time.Duration) (int, string)
	// value reads a variable from the model of the last satisfiable check.
	value(v term) (*BVConst, error)
	close()
}

func newBackend(opts Options) (solverBackend, error) {
	switch opts.Backend {
	case BACKEND_Z3, "":
		return newZ3Backend(opts), nil
	case BACKEND_GINI:
		return newGiniBackend(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
}
