// Package options implements the generic functional-options plumbing
// command.Config is built on: every command.With* constructor (WithFormatIn,
// WithDumpCompress, WithReplaceMap, ...) returns an Option[*command.Config]
// built from New or NoError, and command.NewConfig applies them with Apply.
package options

// Option configures a target of type T, failing closed: a bad option
// value (e.g. a bake FFT size that is not a power of two) surfaces as an
// error from Apply rather than a panic deep in command construction.
type Option[T any] interface {
	apply(T) error
}

// Func is the concrete Option[T] every With* constructor returns.
type Func[T any] struct {
	applyFunc func(T) error
}

// apply implements the Option interface.
func (f *Func[T]) apply(target T) error {
	return f.applyFunc(target)
}

// New wraps a fallible option function, for With* constructors that must
// validate their argument (see command.WithBakeFFTSize).
func New[T any](fn func(T) error) *Func[T] {
	return &Func[T]{applyFunc: fn}
}

// Apply runs opts against target in order, stopping at the first error.
func Apply[T any](target T, opts ...Option[T]) error {
	for _, opt := range opts {
		if err := opt.apply(target); err != nil {
			return err
		}
	}

	return nil
}

// NoError wraps a plain field-setter as an Option[T]; this is what most of
// command's With* constructors use, since most just assign a struct field.
func NoError[T any](fn func(T)) *Func[T] {
	return &Func[T]{
		applyFunc: func(target T) error {
			fn(target)
			return nil
		},
	}
}
