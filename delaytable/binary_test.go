package delaytable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icrar/subtool/format"
)

func v1Table(numFracs int) *Table {
	t := &Table{Version: format.SubVersionV1, Entries: []Entry{
		{RFInput: 0, WSDelay: 3, InitialDelay: 100, DeltaDelay: 2, DeltaDeltaDelay: 0, NumPointings: 1, FracDelay: make([]float64, numFracs)},
		{RFInput: 1, WSDelay: -3, InitialDelay: -100, DeltaDelay: -2, DeltaDeltaDelay: 0, NumPointings: 1, FracDelay: make([]float64, numFracs)},
	}}
	for i := 0; i < numFracs; i++ {
		t.Entries[0].FracDelay[i] = 1.0
		t.Entries[1].FracDelay[i] = -1.5
	}

	return t
}

func v2Table(numFracs int) *Table {
	t := &Table{Version: format.SubVersionV2, Entries: []Entry{
		{RFInput: 0, WSDelay: 3, InitialDelay: 1.25, DeltaDelay: 0.5, DeltaDeltaDelay: 0.1, StartTotalDelay: 1.25, MiddleTotalDelay: 1.3, EndTotalDelay: 1.35, NumPointings: 1, FracDelay: make([]float64, numFracs)},
		{RFInput: 1, WSDelay: -3, InitialDelay: -1.25, DeltaDelay: -0.5, DeltaDeltaDelay: -0.1, StartTotalDelay: -1.25, MiddleTotalDelay: -1.3, EndTotalDelay: -1.35, NumPointings: 1, FracDelay: make([]float64, numFracs)},
	}}
	for i := 0; i < numFracs; i++ {
		t.Entries[0].FracDelay[i] = 0.75
		t.Entries[1].FracDelay[i] = -0.75
	}

	return t
}

// TestV2BinaryRoundTrip implements testable property 3.
func TestV2BinaryRoundTrip(t *testing.T) {
	tbl := v2Table(4)

	buf, err := tbl.Bytes()
	require.NoError(t, err)

	got, err := ParseBinary(buf, format.SubVersionV2, len(tbl.Entries), 4)
	require.NoError(t, err)
	assert.Equal(t, tbl.Entries, got.Entries)
}

// TestV1BinaryRoundTripModuloScaling implements testable property 4:
// the v1 round trip holds on the integer millisample representation,
// since the in-memory form is float samples.
func TestV1BinaryRoundTripModuloScaling(t *testing.T) {
	tbl := v1Table(3)

	buf, err := tbl.Bytes()
	require.NoError(t, err)

	got, err := ParseBinary(buf, format.SubVersionV1, len(tbl.Entries), 3)
	require.NoError(t, err)

	for i := range tbl.Entries {
		assert.InDelta(t, tbl.Entries[i].InitialDelay, got.Entries[i].InitialDelay, 0.001)
		for j := range tbl.Entries[i].FracDelay {
			assert.InDelta(t, tbl.Entries[i].FracDelay[j], got.Entries[i].FracDelay[j], 0.001)
		}
	}
}

func TestDetectVersionV2(t *testing.T) {
	tbl := v2Table(2)
	// The v2 heuristic requires the first row's initial_delay,
	// start_total_delay and first frac_delay to agree.
	tbl.Entries[0].FracDelay[0] = tbl.Entries[0].InitialDelay
	buf, err := tbl.Bytes()
	require.NoError(t, err)

	version, err := DetectVersion(buf)
	require.NoError(t, err)
	assert.Equal(t, format.SubVersionV2, version)
}

func TestDetectVersionV1(t *testing.T) {
	tbl := v1Table(2)
	// The v1 heuristic compares the first row's initial_delay with the
	// i16 at offset 18, which a serialised v1 row always writes as 0.
	tbl.Entries[0].InitialDelay = 0
	buf, err := tbl.Bytes()
	require.NoError(t, err)

	version, err := DetectVersion(buf)
	require.NoError(t, err)
	assert.Equal(t, format.SubVersionV1, version)
}

// TestDetectStructureRecoversShape implements part of testable property
// 10: once a version is fixed, the full (row_count, frac_count) is
// recoverable from the buffer alone.
func TestDetectStructureRecoversShape(t *testing.T) {
	tbl := v2Table(5)
	buf, err := tbl.Bytes()
	require.NoError(t, err)

	rowCount, fracCount, err := DetectStructure(buf, format.SubVersionV2)
	require.NoError(t, err)
	assert.Equal(t, 2, rowCount)
	assert.Equal(t, 5, fracCount)
}

// TestFormatDetectionNeverAmbiguousForConformantInput is testable
// property 10's first half: valid v1 data never also looks like valid
// v2 data.
func TestFormatDetectionNeverAmbiguousForConformantInput(t *testing.T) {
	v1buf, err := v1Table(2).Bytes()
	require.NoError(t, err)
	assert.False(t, plausiblyV2(v1buf))

	v2buf, err := v2Table(2).Bytes()
	require.NoError(t, err)
	assert.False(t, plausiblyV1(v2buf))
}

func TestDetectVersionAmbiguousZeroInputFails(t *testing.T) {
	buf := make([]byte, 60)
	_, err := DetectVersion(buf)
	assert.Error(t, err)
}
