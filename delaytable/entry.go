// Package delaytable implements the delay-table codec: binary (v1/v2)
// and CSV encodings of the per-source delay polynomial table, including
// the auto-detection heuristics that recover version and row shape from
// a bare buffer.
//
// In memory every numeric field is kept as float64 regardless of
// on-disk width, so v1 and v2 tables can be compared, diffed and
// upgraded without a parallel set of integer-typed accessors. v1's
// frac_delay is stored in samples (not milli-samples) for the same
// reason: the ×1000/÷1000 scaling happens only at the binary/CSV
// encoding boundary.
package delaytable

import "github.com/icrar/subtool/format"

// Entry is one source's delay-table row. StartTotalDelay,
// MiddleTotalDelay, EndTotalDelay and Reserved only carry meaning for
// v2 tables; they are zero for entries decoded from a v1 table.
type Entry struct {
	RFInput         uint16
	WSDelay         int16
	InitialDelay    float64
	DeltaDelay      float64
	DeltaDeltaDelay float64
	NumPointings    uint16

	StartTotalDelay  float64
	MiddleTotalDelay float64
	EndTotalDelay    float64
	Reserved         uint16

	// FracDelay holds one fractional-delay sample per FFT-per-block
	// slot, in samples.
	FracDelay []float64
}

// Table is an ordered set of delay-table entries, one per source, tied
// to the binary version that determines its on-disk row layout.
type Table struct {
	Version format.SubVersion
	Entries []Entry
}

// NumFracDelays returns the frac_delay length shared by every entry, or
// 0 for an empty table.
func (t *Table) NumFracDelays() int {
	if len(t.Entries) == 0 {
		return 0
	}

	return len(t.Entries[0].FracDelay)
}
