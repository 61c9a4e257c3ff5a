// Package errors is the error toolkit used across taxgraph.
//
// It re-exports github.com/cockroachdb/errors so every package gets stack
// traces, hints and details from a single import:
//
//	if err := store.Save(ctx, g); err != nil {
//	    return errors.Wrap(err, "failed to save normalized checklist")
//	}
//
//	return errors.WithHint(err, "run `taxgraph db stats` to inspect the store")
//
// The sentinels below classify failures by kind. Wrap them to add context
// and test with errors.Is.
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing context
var (
	WithHint           = crdb.WithHint
	WithHintf          = crdb.WithHintf
	WithDetail         = crdb.WithDetail
	WithDetailf        = crdb.WithDetailf
	WithSecondaryError = crdb.WithSecondaryError
	CombineErrors      = crdb.CombineErrors
)

// Inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// AssertionFailedf marks a broken internal invariant.
var AssertionFailedf = crdb.AssertionFailedf

var (
	// ErrNotFound indicates a node, run or record does not exist
	ErrNotFound = New("not found")

	// ErrInvalidInput indicates malformed checklist data or arguments
	ErrInvalidInput = New("invalid input")

	// ErrConflict indicates a duplicate key, e.g. a taxonID loaded twice
	ErrConflict = New("conflict")

	// ErrCancelled indicates a normalization run stopped on context cancellation
	ErrCancelled = New("normalization cancelled")

	// ErrNormalizationFailed indicates the graph could not be brought into a consistent state
	ErrNormalizationFailed = New("normalization failed")

	// ErrIncompatibleStore indicates the import store schema version is not supported
	ErrIncompatibleStore = New("incompatible import store")
)

// IsNotFoundError reports whether err is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsCancelled reports whether err is or wraps ErrCancelled.
func IsCancelled(err error) bool {
	return err != nil && Is(err, ErrCancelled)
}

// NewInvalidInputError creates an invalid-input error with a formatted message
func NewInvalidInputError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidInput, Newf(format, args...).Error())
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}
