package hwprove

import (
	"errors"
	"fmt"
)

var (
	// ErrTranslation matches every *TranslationError with errors.Is.
	ErrTranslation = errors.New("translation error")

	ErrNotTranslated   = errors.New("node has not been translated")
	ErrWitnessMismatch = errors.New("witness does not satisfy the asserted predicate")
	ErrUnknownBackend  = errors.New("unknown solver backend")
)

// TranslationError reports a node that cannot be encoded: an unsupported
// operator, a width rule violation or a malformed graph reference.
type TranslationError struct {
	Node   NodeID
	Kind   int
	Width  uint
	Reason string
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("cannot translate %%%d (%s, bits[%d]): %s", e.Node, KindName(e.Kind), e.Width, e.Reason)
}

func (e *TranslationError) Is(target error) bool {
	return target == ErrTranslation
}

func translationErrorf(n *Node, format string, args ...interface{}) *TranslationError {
	return &TranslationError{
		Node:   n.id,
		Kind:   n.kind,
		Width:  n.width,
		Reason: fmt.Sprintf(format, args...),
	}
}

// assert panics if condition is false. It guards invariants whose violation
// is a caller bug, never a recoverable error.
func assert(condition bool, format string, args ...interface{}) {
	if !condition {
		panic(fmt.Sprintf("assert: "+format, args...))
	}
}
