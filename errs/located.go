package errs

import (
	"fmt"
	"strings"
)

// LocatedError wraps a sentinel error (or any error) with an ordered
// list of location breadcrumbs. Combinators that traverse compound
// structures (a CSV grid, a delay table's rows, a block sequence)
// prepend a Location as the error propagates outward, so the final
// message points at the first offending element:
// "<reason> (at row=7 > col=3): <wrapped error>".
type LocatedError struct {
	Reason  string
	Path    []Location
	Wrapped error
}

// NewLocatedError creates a LocatedError wrapping err with no location
// breadcrumbs yet. Use WithLocation to add breadcrumbs as the error
// propagates through nested structures.
func NewLocatedError(reason string, wrapped error) *LocatedError {
	return &LocatedError{Reason: reason, Wrapped: wrapped}
}

// WithLocation returns a copy of e with loc prepended to the path, i.e.
// the most-recently-added (outermost) breadcrumb ends up first so the
// rendered message reads outermost-to-innermost.
func (e *LocatedError) WithLocation(loc Location) *LocatedError {
	path := make([]Location, 0, len(e.Path)+1)
	path = append(path, loc)
	path = append(path, e.Path...)

	return &LocatedError{Reason: e.Reason, Path: path, Wrapped: e.Wrapped}
}

func (e *LocatedError) Error() string {
	if len(e.Path) == 0 {
		return e.Reason
	}

	parts := make([]string, 0, len(e.Path))
	for _, loc := range e.Path {
		parts = append(parts, loc.String())
	}

	return fmt.Sprintf("%s (at %s): %s", e.Reason, strings.Join(parts, " > "), e.errMsg())
}

func (e *LocatedError) errMsg() string {
	if e.Wrapped == nil {
		return e.Reason
	}

	return e.Wrapped.Error()
}

// Unwrap returns the wrapped sentinel error, so errors.Is/errors.As work
// through a LocatedError exactly as through fmt.Errorf("...: %w", ...).
func (e *LocatedError) Unwrap() error {
	return e.Wrapped
}

// Locate wraps err in a LocatedError (or, if it already is one, prepends
// loc to its existing path) and returns the result. Passing a nil err
// returns nil, so callers can write `return errs.Locate(err, loc)`
// unconditionally after a fallible call.
func Locate(err error, loc Location) error {
	if err == nil {
		return nil
	}

	if le, ok := err.(*LocatedError); ok {
		return le.WithLocation(loc)
	}

	return (&LocatedError{Reason: err.Error(), Wrapped: err}).WithLocation(loc)
}
