package delaytable

import "github.com/MWATelescope/subtool/errs"

// Compare produces the element-wise "to - from" difference table. from and
// to must have equal length and identical rf_input ordering. The result's
// NumPointings is forced to 1 on every row so the difference table itself
// remains detectable by the binary/CSV format auto-detector.
func Compare(from, to Table) (Table, error) {
	if len(from.Entries) != len(to.Entries) {
		return Table{}, errs.New(errs.InvalidArgument,
			"cannot compare tables of different length: %d vs %d", len(from.Entries), len(to.Entries))
	}

	out := Table{Version: to.Version, NumFracDelays: to.NumFracDelays, Entries: make([]Entry, len(to.Entries))}

	for i := range to.Entries { //nolint:varnamelen
		f, t := from.Entries[i], to.Entries[i]
		if f.RfInput != t.RfInput {
			return Table{}, errs.New(errs.InvalidArgument,
				"row %d: rf_input mismatch (%d vs %d)", i, f.RfInput, t.RfInput).At(i)
		}

		if len(f.FracDelay) != len(t.FracDelay) {
			return Table{}, errs.New(errs.InvalidArgument, "row %d: frac_delay length mismatch", i).At(i)
		}

		d := Entry{
			RfInput:          t.RfInput,
			WsDelay:          t.WsDelay - f.WsDelay,
			InitialDelay:     t.InitialDelay - f.InitialDelay,
			DeltaDelay:       t.DeltaDelay - f.DeltaDelay,
			DeltaDeltaDelay:  t.DeltaDeltaDelay - f.DeltaDeltaDelay,
			StartTotalDelay:  t.StartTotalDelay - f.StartTotalDelay,
			MiddleTotalDelay: t.MiddleTotalDelay - f.MiddleTotalDelay,
			EndTotalDelay:    t.EndTotalDelay - f.EndTotalDelay,
			NumPointings:     1,
			FracDelay:        make([]float64, len(t.FracDelay)),
		}

		for k := range t.FracDelay {
			d.FracDelay[k] = t.FracDelay[k] - f.FracDelay[k]
		}

		out.Entries[i] = d
	}

	return out, nil
}
