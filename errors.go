package epsel

import (
	"errors"

	"github.com/quenbyak/epsel/deviation"
	"github.com/quenbyak/epsel/potential"
	"github.com/quenbyak/epsel/registry"
	"github.com/quenbyak/epsel/selection"
)

// Error taxonomy. The concrete types live in the packages where the
// failures arise; the aliases keep the whole surface reachable from the
// facade, so callers rarely import the subpackages just to match errors.
type (
	// EvalError indicates one (configuration, model) evaluation failed.
	// Recoverable: the pipeline skips the configuration and continues.
	EvalError = potential.EvalError

	// ErrUnknownLabel indicates a registry lookup of an unset label.
	ErrUnknownLabel = registry.ErrUnknownLabel

	// ErrTypeMapMismatch indicates committee members trained with
	// different species type maps.
	ErrTypeMapMismatch = potential.ErrTypeMapMismatch

	// ErrInsufficientEnsemble indicates a committee too small to measure
	// disagreement.
	ErrInsufficientEnsemble = deviation.ErrInsufficientEnsemble
)

// ErrInvalidParameter is returned for out-of-range selection parameters
// (negative cap, inverted band).
var ErrInvalidParameter = selection.ErrInvalidParameter

// ErrAlreadyRun is returned when Run is called on a sampler whose run has
// already started; results of a finished run are immutable.
var ErrAlreadyRun = errors.New("sampler already run")
