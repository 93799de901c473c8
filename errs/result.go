package errs

// Result is a discriminated success/failure outcome carrying either a
// value of type T or a failure error (typically a *LocatedError wrapping
// one of the sentinels in errs.go). It exists so internal combinators
// that traverse compound structures (CSV grids, delay-table rows, block
// sequences) have one uniform shape to propagate through, rather than
// the reference implementation's mix of ad-hoc {status, table} and
// {status, value} shapes.
type Result[T any] struct {
	value T
	err   error
}

// Ok wraps a successful value.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Fail wraps a failure. Panics if err is nil, since a failing Result
// must carry a reason.
func Fail[T any](err error) Result[T] {
	if err == nil {
		panic("errs.Fail: nil error")
	}

	return Result[T]{err: err}
}

// IsOk reports whether r holds a success value.
func (r Result[T]) IsOk() bool {
	return r.err == nil
}

// Err returns the failure error, or nil if r is a success.
func (r Result[T]) Err() error {
	return r.err
}

// Value returns the success value and true, or the zero value and
// false if r is a failure.
func (r Result[T]) Value() (T, bool) {
	return r.value, r.err == nil
}

// Unwrap returns the success value, or panics if r is a failure. Use
// only where failure has already been checked or is a programming
// error.
func (r Result[T]) Unwrap() T {
	if r.err != nil {
		panic("errs.Result.Unwrap: called on a failed result: " + r.err.Error())
	}

	return r.value
}

// Get is the conventional two-value accessor: (value, error), matching
// the shape every other fallible function in this codebase returns, so
// a Result[T] can be unpacked with the same `v, err := ...` idiom.
func (r Result[T]) Get() (T, error) {
	return r.value, r.err
}

// Located returns a copy of r with loc prepended to the failure's
// location path. A success Result is returned unchanged.
func (r Result[T]) Located(loc Location) Result[T] {
	if r.err == nil {
		return r
	}

	return Result[T]{err: Locate(r.err, loc)}
}

// All collects a slice of Results into a single Result of a slice: the
// first failure (with its index recorded as a "index" Location
// breadcrumb) short-circuits the rest; if every Result is a success,
// All returns Ok of the collected values.
func All[T any](results []Result[T]) Result[[]T] {
	values := make([]T, 0, len(results))
	for i, r := range results {
		v, err := r.Get()
		if err != nil {
			return Fail[[]T](Locate(err, Location{Name: "index", Index: i}))
		}

		values = append(values, v)
	}

	return Ok(values)
}
