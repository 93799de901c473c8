package delaytable

import (
	"bytes"
	"fmt"
	"io"

	"github.com/icrar/subtool/errs"
	"github.com/icrar/subtool/format"
)

// Load reads a delay table from r in the given format. FormatBin
// detects version and row structure via Detect before decoding;
// FormatCSV parses as CSV; FormatAuto first tries the binary detector
// (a genuine binary table reliably satisfies its plausibility checks)
// and falls back to CSV if that fails.
func Load(r io.Reader, formatIn format.TableFormat) (*Table, error) {
	switch formatIn {
	case format.FormatCSV:
		return ParseCSV(r)

	case format.FormatBin:
		buf, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrIoFailure, err)
		}

		version, rowCount, fracCount, err := Detect(buf)
		if err != nil {
			return nil, err
		}

		return ParseBinary(buf, version, rowCount, fracCount)

	case format.FormatAuto:
		buf, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrIoFailure, err)
		}

		if version, rowCount, fracCount, err := Detect(buf); err == nil {
			return ParseBinary(buf, version, rowCount, fracCount)
		}

		return ParseCSV(bytes.NewReader(buf))

	default:
		return nil, fmt.Errorf("%w: unsupported delay table input format %v", errs.ErrInvalidArgument, formatIn)
	}
}
