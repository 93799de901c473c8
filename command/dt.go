package command

import (
	"fmt"
	"io"

	"github.com/icrar/subtool/delaytable"
	"github.com/icrar/subtool/errs"
	"github.com/icrar/subtool/format"
	"github.com/icrar/subtool/loader"
)

// DT writes s's delay table to w in cfg.FormatOut form (pretty/csv/bin):
// the `dt` command.
func DT(s *loader.Subfile, cfg *Config, w io.Writer) error {
	switch cfg.FormatOut {
	case format.FormatCSV:
		return delaytable.WriteCSV(w, s.Table)

	case format.FormatBin:
		buf, err := s.Table.Bytes()
		if err != nil {
			return err
		}

		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("%w: %v", errs.ErrIoFailure, err)
		}

		return nil

	default:
		return prettyPrintTable(w, s.Table)
	}
}

func prettyPrintTable(w io.Writer, t *delaytable.Table) error {
	for _, e := range t.Entries {
		if _, err := fmt.Fprintf(w, "rf_input=%d ws_delay=%d initial=%g delta=%g delta_delta=%g num_pointings=%d\n",
			e.RFInput, e.WSDelay, e.InitialDelay, e.DeltaDelay, e.DeltaDeltaDelay, e.NumPointings); err != nil {
			return fmt.Errorf("%w: %v", errs.ErrIoFailure, err)
		}
	}

	return nil
}

// loadReplacementTable reads a delay table from cfg.DelayTableFilename
// in cfg.FormatIn, for the repoint command when it takes its new table
// from a file.
func loadReplacementTable(r io.Reader, cfg *Config) (*delaytable.Table, error) {
	if cfg.DelayTableFilename == "" {
		return nil, fmt.Errorf("%w: delay_table_filename is required", errs.ErrInvalidArgument)
	}

	return delaytable.Load(r, cfg.FormatIn)
}
