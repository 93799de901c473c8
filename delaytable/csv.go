package delaytable

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/icrar/subtool/errs"
	"github.com/icrar/subtool/format"
)

const (
	v1FixedColumns = 6
	v2FixedColumns = 10
)

// detectCSVVersion implements S5: v1 iff column 5 is "1" on every row
// and column 8 is not; v2 iff the reverse; ambiguous (both, or
// neither) fails.
func detectCSVVersion(records [][]string) (format.SubVersion, error) {
	col5Always1, col8Always1 := true, true

	for _, row := range records {
		if len(row) <= 5 || strings.TrimSpace(row[5]) != "1" {
			col5Always1 = false
		}

		if len(row) <= 8 || strings.TrimSpace(row[8]) != "1" {
			col8Always1 = false
		}
	}

	switch {
	case col5Always1 && !col8Always1:
		return format.SubVersionV1, nil
	case col8Always1 && !col5Always1:
		return format.SubVersionV2, nil
	default:
		return format.SubVersionUnknown, fmt.Errorf("%w: csv delay table version is ambiguous or undetectable", errs.ErrInvalidFormat)
	}
}

// ParseCSV reads a delay table in CSV form, auto-detecting v1 vs v2 by
// the rule in S5.
func ParseCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrInvalidFormat, err)
	}

	version, err := detectCSVVersion(records)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, len(records))
	for i, row := range records {
		e, err := parseCSVRow(row, version)
		if err != nil {
			return nil, errs.Locate(err, errs.Location{Name: "row", Index: i + 1})
		}

		entries[i] = e
	}

	return &Table{Version: version, Entries: entries}, nil
}

func parseCSVField(row []string, col int) (string, error) {
	if col >= len(row) {
		return "", errs.Locate(
			fmt.Errorf("%w: missing column", errs.ErrInvalidFormat),
			errs.Location{Name: "col", Index: col})
	}

	return strings.TrimSpace(row[col]), nil
}

func parseCSVInt(row []string, col int, bits int) (int64, error) {
	s, err := parseCSVField(row, col)
	if err != nil {
		return 0, err
	}

	n, err := strconv.ParseInt(s, 10, bits)
	if err != nil {
		return 0, errs.Locate(
			fmt.Errorf("%w: failed to parse int: %q", errs.ErrInvalidFormat, s),
			errs.Location{Name: "col", Index: col})
	}

	return n, nil
}

func parseCSVFloat(row []string, col int) (float64, error) {
	s, err := parseCSVField(row, col)
	if err != nil {
		return 0, err
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errs.Locate(
			fmt.Errorf("%w: failed to parse float: %q", errs.ErrInvalidFormat, s),
			errs.Location{Name: "col", Index: col})
	}

	return f, nil
}

func parseCSVRow(row []string, version format.SubVersion) (Entry, error) {
	rfInput, err := parseCSVInt(row, 0, 16)
	if err != nil {
		return Entry{}, err
	}

	wsDelay, err := parseCSVInt(row, 1, 16)
	if err != nil {
		return Entry{}, err
	}

	e := Entry{RFInput: uint16(rfInput), WSDelay: int16(wsDelay)}

	fixedColumns := v1FixedColumns
	if version == format.SubVersionV2 {
		fixedColumns = v2FixedColumns
	}

	if version == format.SubVersionV1 {
		initial, err := parseCSVInt(row, 2, 32)
		if err != nil {
			return Entry{}, err
		}

		delta, err := parseCSVInt(row, 3, 32)
		if err != nil {
			return Entry{}, err
		}

		deltaDelta, err := parseCSVInt(row, 4, 32)
		if err != nil {
			return Entry{}, err
		}

		e.InitialDelay, e.DeltaDelay, e.DeltaDeltaDelay = float64(initial), float64(delta), float64(deltaDelta)
		e.NumPointings = 1
	} else {
		initial, err := parseCSVFloat(row, 2)
		if err != nil {
			return Entry{}, err
		}

		delta, err := parseCSVFloat(row, 3)
		if err != nil {
			return Entry{}, err
		}

		deltaDelta, err := parseCSVFloat(row, 4)
		if err != nil {
			return Entry{}, err
		}

		start, err := parseCSVFloat(row, 5)
		if err != nil {
			return Entry{}, err
		}

		middle, err := parseCSVFloat(row, 6)
		if err != nil {
			return Entry{}, err
		}

		end, err := parseCSVFloat(row, 7)
		if err != nil {
			return Entry{}, err
		}

		e.InitialDelay, e.DeltaDelay, e.DeltaDeltaDelay = initial, delta, deltaDelta
		e.StartTotalDelay, e.MiddleTotalDelay, e.EndTotalDelay = start, middle, end
		e.NumPointings = 1
	}

	numFracs := len(row) - fixedColumns
	if numFracs < 0 {
		return Entry{}, fmt.Errorf("%w: row has fewer than %d fixed columns", errs.ErrInvalidFormat, fixedColumns)
	}

	e.FracDelay = make([]float64, numFracs)
	for i := 0; i < numFracs; i++ {
		col := fixedColumns + i
		v, err := parseCSVFloat(row, col)
		if err != nil {
			return Entry{}, err
		}

		if version == format.SubVersionV1 {
			v /= 1000.0
		}

		e.FracDelay[i] = v
	}

	return e, nil
}

// WriteCSV encodes t in CSV form: v1's frac_delay samples are floored
// to integer milli-samples and scaled by 1000 on the way out; v2's
// numeric columns are printed at full precision.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)

	for _, e := range t.Entries {
		var record []string

		if t.Version == format.SubVersionV1 {
			record = []string{
				strconv.FormatUint(uint64(e.RFInput), 10),
				strconv.FormatInt(int64(e.WSDelay), 10),
				strconv.FormatFloat(e.InitialDelay, 'f', 0, 64),
				strconv.FormatFloat(e.DeltaDelay, 'f', 0, 64),
				strconv.FormatFloat(e.DeltaDeltaDelay, 'f', 0, 64),
				"1",
			}
		} else {
			record = []string{
				strconv.FormatUint(uint64(e.RFInput), 10),
				strconv.FormatInt(int64(e.WSDelay), 10),
				strconv.FormatFloat(e.InitialDelay, 'g', -1, 64),
				strconv.FormatFloat(e.DeltaDelay, 'g', -1, 64),
				strconv.FormatFloat(e.DeltaDeltaDelay, 'g', -1, 64),
				strconv.FormatFloat(e.StartTotalDelay, 'g', -1, 64),
				strconv.FormatFloat(e.MiddleTotalDelay, 'g', -1, 64),
				strconv.FormatFloat(e.EndTotalDelay, 'g', -1, 64),
				"1",
				"0",
			}
		}

		for _, f := range e.FracDelay {
			if t.Version == format.SubVersionV1 {
				record = append(record, strconv.FormatInt(int64(math.Floor(f*1000.0)), 10))
			} else {
				record = append(record, strconv.FormatFloat(f, 'g', -1, 64))
			}
		}

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("%w: %v", errs.ErrIoFailure, err)
		}
	}

	cw.Flush()

	return cw.Error()
}
