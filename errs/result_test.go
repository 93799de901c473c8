package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultOk(t *testing.T) {
	r := Ok(42)
	assert.True(t, r.IsOk())
	assert.NoError(t, r.Err())

	v, ok := r.Value()
	assert.True(t, ok)
	assert.Equal(t, 42, v)
	assert.Equal(t, 42, r.Unwrap())
}

func TestResultFail(t *testing.T) {
	r := Fail[int](ErrOutOfRange)
	assert.False(t, r.IsOk())
	require.Error(t, r.Err())
	assert.ErrorIs(t, r.Err(), ErrOutOfRange)

	_, ok := r.Value()
	assert.False(t, ok)
	assert.Panics(t, func() { r.Unwrap() })
}

func TestResultLocated(t *testing.T) {
	r := Fail[int](ErrInvalidFormat).Located(Location{Name: "col", Index: 3})
	r = r.Located(Location{Name: "row", Index: 7})

	var le *LocatedError
	require.True(t, errors.As(r.Err(), &le))
	assert.ErrorIs(t, r.Err(), ErrInvalidFormat)
	assert.Equal(t, "row", le.Path[0].Name)
	assert.Equal(t, "col", le.Path[1].Name)
}

func TestAllShortCircuitsOnFirstFailure(t *testing.T) {
	results := []Result[int]{Ok(1), Ok(2), Fail[int](ErrMissingResource), Ok(4)}

	all := All(results)
	require.False(t, all.IsOk())
	assert.ErrorIs(t, all.Err(), ErrMissingResource)

	var le *LocatedError
	require.True(t, errors.As(all.Err(), &le))
	assert.Equal(t, Location{Name: "index", Index: 2}, le.Path[0])
}

func TestAllSuccess(t *testing.T) {
	results := []Result[int]{Ok(1), Ok(2), Ok(3)}

	all := All(results)
	require.True(t, all.IsOk())
	v, err := all.Get()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, v)
}

func TestLocateNilIsNil(t *testing.T) {
	assert.NoError(t, Locate(nil, Location{Name: "row", Index: 1}))
}
