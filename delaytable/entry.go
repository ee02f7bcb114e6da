// Package delaytable implements the subfile delay-table codec: the two
// on-disk row layouts (v1 int16-millisample, v2 float64/float32), binary and
// CSV (de)serialisation, heuristic version/shape auto-detection, and
// table-to-table comparison.
//
// In-memory, every entry uses the wider float representation for its
// polynomial coefficients and fractional-delay trajectory regardless of
// on-disk version, per spec §3: v1 load scales frac_delay by 1/1000, v1 save
// scales by 1000.
package delaytable

import "github.com/MWATelescope/subtool/format"

// Entry is one source's delay-tracking row.
type Entry struct {
	RfInput uint16
	WsDelay int16

	InitialDelay    float64
	DeltaDelay      float64
	DeltaDeltaDelay float64

	// v2-only fields; zero when the table was parsed from a v1 source.
	StartTotalDelay  float64
	MiddleTotalDelay float64
	EndTotalDelay    float64

	// NumPointings is a constant (1) used as an integrity marker by the
	// binary-structure auto-detector.
	NumPointings uint16
	// Reserved must be 0; v1 stores it as two pad bytes, v2 as a real field.
	Reserved uint16

	// FracDelay is the length-NumFracDelays fractional-delay trajectory, in
	// samples (already unscaled from v1's millisample on-disk encoding).
	FracDelay []float64
}

// Table is an ordered set of per-source delay entries, together with the
// version and fractional-delay count they were parsed with (or will be
// serialised with).
type Table struct {
	Version       format.SubVersion
	NumFracDelays int
	Entries       []Entry
}

// Clone returns a deep copy of t.
func (t Table) Clone() Table {
	out := Table{Version: t.Version, NumFracDelays: t.NumFracDelays, Entries: make([]Entry, len(t.Entries))}
	for i, e := range t.Entries {
		ec := e
		ec.FracDelay = append([]float64(nil), e.FracDelay...)
		out.Entries[i] = ec
	}

	return out
}

// RfInputs returns the ordered list of source (RF input) identifiers, in
// on-disk row order. This is the "sources" list spec §4.7's remap engine
// indexes into.
func (t Table) RfInputs() []uint16 {
	out := make([]uint16, len(t.Entries))
	for i, e := range t.Entries {
		out[i] = e.RfInput
	}

	return out
}

// IndexOf returns the row index of rfInput, or -1 if absent.
func (t Table) IndexOf(rfInput uint16) int {
	for i, e := range t.Entries {
		if e.RfInput == rfInput {
			return i
		}
	}

	return -1
}
