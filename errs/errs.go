// Package errs provides the sentinel error taxonomy and the Result[T]
// outcome carrier used throughout subtool's core packages.
//
// Every fallible core operation returns an error that is either one of
// the sentinels below (checkable with errors.Is) or a wrap of one of
// them carrying a location breadcrumb, so a front-end can both match on
// error class and print "where" a failure happened (e.g. "row 7, col
// 3" for a CSV parse failure).
package errs

import "errors"

// Sentinel errors, grouped by the taxonomy in the error handling design:
// IoFailure, InvalidFormat, VersionMismatch, OutOfRange, MissingResource,
// InvalidArgument. Each is fatal for the operation it occurs in.
var (
	// ErrIoFailure covers short reads, open failures, and write failures.
	ErrIoFailure = errors.New("io failure")

	// ErrInvalidFormat covers header parse failures, malformed CSV, and
	// binary delay-table data whose structure cannot be inferred.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrVersionMismatch covers a caller-specified version or frac-delay
	// count that disagrees with the detected value.
	ErrVersionMismatch = errors.New("version mismatch")

	// ErrOutOfRange covers a block index, source index, or argument
	// outside its declared bounds.
	ErrOutOfRange = errors.New("out of range")

	// ErrMissingResource covers a referenced source id not present in a
	// delay table, or a section not present in metadata.
	ErrMissingResource = errors.New("missing resource")

	// ErrInvalidArgument covers a bad option value supplied by a caller,
	// detected before any I/O is attempted.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Location is one breadcrumb element in a location chain: a row index,
// column index, field name, block index, or similar positional marker.
// Location elements are accumulated outermost-last as an error
// propagates up through compound structures (e.g. CSV row -> column),
// so the first element in a formatted path is the outermost context.
type Location struct {
	Name  string // e.g. "row", "column", "block", "source"
	Index int    // 0 if not applicable
}

func (l Location) String() string {
	if l.Name == "" {
		return ""
	}

	return l.Name + "=" + itoa(l.Index)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}

	neg := n < 0
	if neg {
		n = -n
	}

	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}

	if neg {
		i--
		buf[i] = '-'
	}

	return string(buf[i:])
}
