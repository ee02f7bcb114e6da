package delaytable

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/MWATelescope/subtool/errs"
	"github.com/MWATelescope/subtool/format"
)

// Fixed CSV column counts before the frac_delay columns begin (spec §6).
const (
	csvV1FixedCols = 6
	csvV2FixedCols = 10

	// Column indices the version detector examines (spec §4.5 S5): v1's
	// 6th column (index 5) is num_pointings; v2's 9th column (index 8) is
	// num_pointings.
	csvV1NumPointingsCol = 5
	csvV2NumPointingsCol = 8
)

// splitCSVLines splits CSV text on LF or CRLF, dropping a trailing blank
// line, and splits each line on commas.
func splitCSVLines(data string) [][]string {
	data = strings.ReplaceAll(data, "\r\n", "\n")
	lines := strings.Split(data, "\n")
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	rows := make([][]string, len(lines))
	for i, line := range lines {
		cells := strings.Split(line, ",")
		for j, c := range cells {
			cells[j] = strings.TrimSpace(c)
		}
		rows[i] = cells
	}

	return rows
}

// DetectCSVVersion applies spec §4.5's CSV version heuristic: if every row's
// column-index 5 equals "1", version is 1; else if column-index 8 equals
// "1", version is 2; if both or neither hold, detection fails.
func DetectCSVVersion(rows [][]string) (format.SubVersion, error) {
	allOne := func(col int) bool {
		if len(rows) == 0 {
			return false
		}
		for _, row := range rows {
			if col >= len(row) || row[col] != "1" {
				return false
			}
		}

		return true
	}

	v1Marker := allOne(csvV1NumPointingsCol)
	v2Marker := allOne(csvV2NumPointingsCol)

	switch {
	case v1Marker && v2Marker:
		return 0, errs.New(errs.InvalidFormat, "CSV delay table is ambiguous: column 5 and column 8 are both always \"1\"")
	case v1Marker:
		return format.V1, nil
	case v2Marker:
		return format.V2, nil
	default:
		return 0, errs.New(errs.InvalidFormat, "CSV delay table does not match v1 or v2 column layout")
	}
}

// ParseCSV parses CSV text as a delay table of the given version. The
// fractional-delay count is inferred from each row's column count.
func ParseCSV(data string, version format.SubVersion) (Table, error) {
	rows := splitCSVLines(data)
	if len(rows) == 0 {
		return Table{}, errs.New(errs.InvalidFormat, "CSV delay table has no rows")
	}

	fixedCols := csvV1FixedCols
	if version == format.V2 {
		fixedCols = csvV2FixedCols
	}

	fracCount := len(rows[0]) - fixedCols
	if fracCount < 0 {
		return Table{}, errs.New(errs.InvalidFormat, "CSV row has %d columns, need at least %d", len(rows[0]), fixedCols)
	}

	t := Table{Version: version, NumFracDelays: fracCount, Entries: make([]Entry, len(rows))}

	for i, row := range rows {
		e, err := parseCSVRow(row, version, fixedCols, fracCount)
		if err != nil {
			var fieldErr *errs.Error
			if errors.As(err, &fieldErr) {
				return Table{}, fieldErr.At(i)
			}

			return Table{}, err
		}

		t.Entries[i] = e
	}

	return t, nil
}

func parseCSVCell(row []string, col int) (float64, error) {
	if col >= len(row) {
		return 0, errs.New(errs.InvalidFormat, "missing column %d", col).At(col)
	}

	v, err := strconv.ParseFloat(row[col], 64)
	if err != nil {
		return 0, errs.New(errs.InvalidFormat, "failed to parse float: %q", row[col]).At(col)
	}

	return v, nil
}

func parseCSVRow(row []string, version format.SubVersion, fixedCols, fracCount int) (Entry, error) {
	if len(row) != fixedCols+fracCount {
		return Entry{}, errs.New(errs.InvalidFormat,
			"row has %d columns, expected %d (non-rectangular CSV)", len(row), fixedCols+fracCount)
	}

	rfInput, err := parseCSVCell(row, 0)
	if err != nil {
		return Entry{}, err
	}
	wsDelay, err := parseCSVCell(row, 1)
	if err != nil {
		return Entry{}, err
	}
	initialDelay, err := parseCSVCell(row, 2)
	if err != nil {
		return Entry{}, err
	}
	deltaDelay, err := parseCSVCell(row, 3)
	if err != nil {
		return Entry{}, err
	}
	deltaDeltaDelay, err := parseCSVCell(row, 4)
	if err != nil {
		return Entry{}, err
	}

	e := Entry{
		RfInput:         uint16(rfInput),
		WsDelay:         int16(wsDelay),
		InitialDelay:    initialDelay,
		DeltaDelay:      deltaDelay,
		DeltaDeltaDelay: deltaDeltaDelay,
		NumPointings:    1,
	}

	fracStart := 6
	if version == format.V2 {
		startTotal, err := parseCSVCell(row, 5)
		if err != nil {
			return Entry{}, err
		}
		middleTotal, err := parseCSVCell(row, 6)
		if err != nil {
			return Entry{}, err
		}
		endTotal, err := parseCSVCell(row, 7)
		if err != nil {
			return Entry{}, err
		}

		e.StartTotalDelay = startTotal
		e.MiddleTotalDelay = middleTotal
		e.EndTotalDelay = endTotal
		fracStart = 10
	}

	e.FracDelay = make([]float64, fracCount)
	for i := 0; i < fracCount; i++ {
		v, err := parseCSVCell(row, fracStart+i)
		if err != nil {
			return Entry{}, err
		}

		if version == format.V1 {
			// v1 CSV frac_delay columns hold whole millisamples (mirroring
			// writeCSVRow's frac*1000 encoding); invert that scaling and
			// floor to guard against any non-integer noise from formatFloat.
			v = math.Floor(v) / 1000.0
		}

		e.FracDelay[i] = v
	}

	return e, nil
}

// SerialiseCSV renders t as CSV text, one row per entry, trailing newline
// included.
func SerialiseCSV(t Table) string {
	var b strings.Builder

	for _, e := range t.Entries {
		writeCSVRow(&b, e, t.Version)
	}

	return b.String()
}

func writeCSVRow(b *strings.Builder, e Entry, version format.SubVersion) {
	b.WriteString(strconv.FormatUint(uint64(e.RfInput), 10))
	b.WriteByte(',')
	b.WriteString(strconv.FormatInt(int64(e.WsDelay), 10))
	b.WriteByte(',')
	b.WriteString(formatFloat(e.InitialDelay))
	b.WriteByte(',')
	b.WriteString(formatFloat(e.DeltaDelay))
	b.WriteByte(',')
	b.WriteString(formatFloat(e.DeltaDeltaDelay))
	b.WriteByte(',')

	if version == format.V2 {
		b.WriteString(formatFloat(e.StartTotalDelay))
		b.WriteByte(',')
		b.WriteString(formatFloat(e.MiddleTotalDelay))
		b.WriteByte(',')
		b.WriteString(formatFloat(e.EndTotalDelay))
		b.WriteByte(',')
	}

	b.WriteString(strconv.FormatUint(uint64(e.NumPointings), 10))
	if version == format.V2 {
		b.WriteByte(',')
		b.WriteString("0") // _reserved
	}

	for _, frac := range e.FracDelay {
		b.WriteByte(',')
		if version == format.V1 {
			b.WriteString(formatFloat(frac * 1000.0))
		} else {
			b.WriteString(formatFloat(frac))
		}
	}

	b.WriteByte('\n')
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
