package command

import "github.com/icrar/subtool/delaytable"

// sourceList returns the ordered block-line -> source_id list implied
// by t's row order, the convention repoint/remap/resample all key
// their per-source state off.
func sourceList(t *delaytable.Table) []uint16 {
	ids := make([]uint16, len(t.Entries))
	for i, e := range t.Entries {
		ids[i] = e.RFInput
	}

	return ids
}
