package delaytable

import "github.com/icrar/subtool/format"

// Upgrade converts t to a v2 table in place semantics (a new Table
// value is returned; t is not mutated). Numeric fields are already
// stored uniformly as float64/samples in memory, so upgrading a v1
// table only changes its declared version and zeroes the v2-only
// total-delay fields a v1 table never carried.
func Upgrade(t *Table) *Table {
	if t.Version == format.SubVersionV2 {
		return t
	}

	entries := make([]Entry, len(t.Entries))
	for i, e := range t.Entries {
		e.StartTotalDelay = 0
		e.MiddleTotalDelay = 0
		e.EndTotalDelay = 0
		e.NumPointings = 1
		e.Reserved = 0

		frac := make([]float64, len(e.FracDelay))
		copy(frac, e.FracDelay)
		e.FracDelay = frac

		entries[i] = e
	}

	return &Table{Version: format.SubVersionV2, Entries: entries}
}
