package potential

import (
	"errors"
	"fmt"
)

// ErrEmptyEnsemble is returned when constructing an ensemble with no members.
var ErrEmptyEnsemble = errors.New("ensemble needs at least one member")

// ErrTypeMapMismatch indicates a committee member whose species type map
// differs from the rest of the ensemble.
type ErrTypeMapMismatch struct {
	Model string
	Want  TypeMap
	Got   TypeMap
}

func (e *ErrTypeMapMismatch) Error() string {
	return fmt.Sprintf("type map mismatch for model %s: want %s, got %s", e.Model, e.Want, e.Got)
}

// EvalError indicates that one (configuration, model) evaluation failed.
// It is recoverable: callers skip the configuration and continue.
//
// The underlying cause can be accessed via errors.Unwrap.
type EvalError struct {
	Index int    // stream index of the configuration
	Model string // name of the failing committee member
	cause error
}

// NewEvalError wraps cause as an evaluation failure scoped to one
// (configuration, model) pair.
func NewEvalError(index int, model string, cause error) *EvalError {
	return &EvalError{Index: index, Model: model, cause: cause}
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluate configuration %d with model %s: %v", e.Index, e.Model, e.cause)
}

func (e *EvalError) Unwrap() error { return e.cause }
