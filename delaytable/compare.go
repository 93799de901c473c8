package delaytable

import (
	"fmt"

	"github.com/icrar/subtool/errs"
)

// Compare produces the element-wise to-from difference table: same
// version and rf_input ordering as both inputs, num_pointings forced to
// 1 on every result row (matching the reference's format-detector
// compatibility requirement).
func Compare(from, to *Table) (*Table, error) {
	if from.Version != to.Version {
		return nil, fmt.Errorf("%w: cannot compare a v%d table against a v%d table", errs.ErrVersionMismatch, from.Version, to.Version)
	}

	if len(from.Entries) != len(to.Entries) {
		return nil, fmt.Errorf("%w: tables have %d and %d entries", errs.ErrInvalidFormat, len(from.Entries), len(to.Entries))
	}

	result := make([]Entry, len(from.Entries))
	for i := range from.Entries {
		f, t := from.Entries[i], to.Entries[i]

		if f.RFInput != t.RFInput {
			return nil, errs.Locate(
				fmt.Errorf("%w: rf_input mismatch: %d vs %d", errs.ErrInvalidFormat, f.RFInput, t.RFInput),
				errs.Location{Name: "row", Index: i})
		}

		if len(f.FracDelay) != len(t.FracDelay) {
			return nil, errs.Locate(
				fmt.Errorf("%w: frac_delay length mismatch: %d vs %d", errs.ErrInvalidFormat, len(f.FracDelay), len(t.FracDelay)),
				errs.Location{Name: "row", Index: i})
		}

		diff := Entry{
			RFInput:          f.RFInput,
			WSDelay:          t.WSDelay - f.WSDelay,
			InitialDelay:     t.InitialDelay - f.InitialDelay,
			DeltaDelay:       t.DeltaDelay - f.DeltaDelay,
			DeltaDeltaDelay:  t.DeltaDeltaDelay - f.DeltaDeltaDelay,
			NumPointings:     1,
			StartTotalDelay:  t.StartTotalDelay - f.StartTotalDelay,
			MiddleTotalDelay: t.MiddleTotalDelay - f.MiddleTotalDelay,
			EndTotalDelay:    t.EndTotalDelay - f.EndTotalDelay,
			FracDelay:        make([]float64, len(f.FracDelay)),
		}

		for j := range f.FracDelay {
			diff.FracDelay[j] = t.FracDelay[j] - f.FracDelay[j]
		}

		result[i] = diff
	}

	return &Table{Version: from.Version, Entries: result}, nil
}
