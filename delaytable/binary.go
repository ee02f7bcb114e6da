package delaytable

import (
	"math"

	"github.com/MWATelescope/subtool/endian"
	"github.com/MWATelescope/subtool/errs"
	"github.com/MWATelescope/subtool/format"
)

// Row layout offsets (spec §4.5 table), all little-endian.
const (
	offRfInput = 0
	offWsDelay = 2

	v1OffInitialDelay    = 4
	v1OffDeltaDelay      = 8
	v1OffDeltaDeltaDelay = 12
	v1OffNumPointings    = 16
	v1OffReserved        = 18
	v1OffFracDelay       = 20

	v2OffInitialDelay     = 4
	v2OffDeltaDelay       = 12
	v2OffDeltaDeltaDelay  = 20
	v2OffStartTotalDelay  = 28
	v2OffMiddleTotalDelay = 36
	v2OffEndTotalDelay    = 44
	v2OffNumPointings     = 52
	v2OffReserved         = 54
	v2OffFracDelay        = 56
)

// rowLength returns the on-disk size of one row for version v with
// fracCount fractional-delay samples.
func rowLength(v format.SubVersion, fracCount int) int {
	return v.EntryMinSize() + fracCount*v.FracDelaySize()
}

// ParseBinary parses buf as a binary delay table of the given version,
// row count, and fractional-delay count (as determined by InferStructure or
// supplied by the caller).
func ParseBinary(buf []byte, version format.SubVersion, rowCount, fracCount int) (Table, error) {
	rl := rowLength(version, fracCount)
	want := rl * rowCount
	if len(buf) != want {
		return Table{}, errs.New(errs.InvalidFormat,
			"binary delay table: expected %d bytes (%d rows x %d bytes), got %d", want, rowCount, rl, len(buf))
	}

	t := Table{Version: version, NumFracDelays: fracCount, Entries: make([]Entry, rowCount)}

	for i := 0; i < rowCount; i++ {
		row := buf[i*rl : (i+1)*rl]
		t.Entries[i] = parseRow(row, version, fracCount)
	}

	return t, nil
}

func parseRow(row []byte, version format.SubVersion, fracCount int) Entry {
	e := Entry{
		RfInput: endian.LE.Uint16(row[offRfInput : offRfInput+2]),
		WsDelay: int16(endian.LE.Uint16(row[offWsDelay : offWsDelay+2])),
	}

	if version == format.V1 {
		e.InitialDelay = float64(int32(endian.LE.Uint32(row[v1OffInitialDelay : v1OffInitialDelay+4])))
		e.DeltaDelay = float64(int32(endian.LE.Uint32(row[v1OffDeltaDelay : v1OffDeltaDelay+4])))
		e.DeltaDeltaDelay = float64(int32(endian.LE.Uint32(row[v1OffDeltaDeltaDelay : v1OffDeltaDeltaDelay+4])))
		e.NumPointings = endian.LE.Uint16(row[v1OffNumPointings : v1OffNumPointings+2])
		e.Reserved = endian.LE.Uint16(row[v1OffReserved : v1OffReserved+2])

		e.FracDelay = make([]float64, fracCount)
		for i := 0; i < fracCount; i++ {
			off := v1OffFracDelay + 2*i
			milli := int16(endian.LE.Uint16(row[off : off+2]))
			e.FracDelay[i] = float64(milli) / 1000.0
		}
	} else {
		e.InitialDelay = math.Float64frombits(endian.LE.Uint64(row[v2OffInitialDelay : v2OffInitialDelay+8]))
		e.DeltaDelay = math.Float64frombits(endian.LE.Uint64(row[v2OffDeltaDelay : v2OffDeltaDelay+8]))
		e.DeltaDeltaDelay = math.Float64frombits(endian.LE.Uint64(row[v2OffDeltaDeltaDelay : v2OffDeltaDeltaDelay+8]))
		e.StartTotalDelay = math.Float64frombits(endian.LE.Uint64(row[v2OffStartTotalDelay : v2OffStartTotalDelay+8]))
		e.MiddleTotalDelay = math.Float64frombits(endian.LE.Uint64(row[v2OffMiddleTotalDelay : v2OffMiddleTotalDelay+8]))
		e.EndTotalDelay = math.Float64frombits(endian.LE.Uint64(row[v2OffEndTotalDelay : v2OffEndTotalDelay+8]))
		e.NumPointings = endian.LE.Uint16(row[v2OffNumPointings : v2OffNumPointings+2])
		e.Reserved = endian.LE.Uint16(row[v2OffReserved : v2OffReserved+2])

		e.FracDelay = make([]float64, fracCount)
		for i := 0; i < fracCount; i++ {
			off := v2OffFracDelay + 4*i
			e.FracDelay[i] = float64(math.Float32frombits(endian.LE.Uint32(row[off : off+4])))
		}
	}

	return e
}

// SerialiseBinary writes t as a binary delay table in t.Version's layout.
func SerialiseBinary(t Table) ([]byte, error) {
	rl := rowLength(t.Version, t.NumFracDelays)
	buf := make([]byte, rl*len(t.Entries))

	for i, e := range t.Entries {
		if len(e.FracDelay) != t.NumFracDelays {
			return nil, errs.New(errs.InvalidFormat,
				"row %d: frac_delay has %d entries, table declares %d", i, len(e.FracDelay), t.NumFracDelays).At(i)
		}

		row := buf[i*rl : (i+1)*rl]
		writeRow(row, e, t.Version)
	}

	return buf, nil
}

func writeRow(row []byte, e Entry, version format.SubVersion) {
	endian.LE.PutUint16(row[offRfInput:offRfInput+2], e.RfInput)
	endian.LE.PutUint16(row[offWsDelay:offWsDelay+2], uint16(e.WsDelay))

	if version == format.V1 {
		endian.LE.PutUint32(row[v1OffInitialDelay:v1OffInitialDelay+4], uint32(int32(e.InitialDelay)))
		endian.LE.PutUint32(row[v1OffDeltaDelay:v1OffDeltaDelay+4], uint32(int32(e.DeltaDelay)))
		endian.LE.PutUint32(row[v1OffDeltaDeltaDelay:v1OffDeltaDeltaDelay+4], uint32(int32(e.DeltaDeltaDelay)))
		endian.LE.PutUint16(row[v1OffNumPointings:v1OffNumPointings+2], e.NumPointings)
		endian.LE.PutUint16(row[v1OffReserved:v1OffReserved+2], 0)

		for i, frac := range e.FracDelay {
			off := v1OffFracDelay + 2*i
			milli := int16(math.Round(frac * 1000.0))
			endian.LE.PutUint16(row[off:off+2], uint16(milli))
		}
	} else {
		endian.LE.PutUint64(row[v2OffInitialDelay:v2OffInitialDelay+8], math.Float64bits(e.InitialDelay))
		endian.LE.PutUint64(row[v2OffDeltaDelay:v2OffDeltaDelay+8], math.Float64bits(e.DeltaDelay))
		endian.LE.PutUint64(row[v2OffDeltaDeltaDelay:v2OffDeltaDeltaDelay+8], math.Float64bits(e.DeltaDeltaDelay))
		endian.LE.PutUint64(row[v2OffStartTotalDelay:v2OffStartTotalDelay+8], math.Float64bits(e.StartTotalDelay))
		endian.LE.PutUint64(row[v2OffMiddleTotalDelay:v2OffMiddleTotalDelay+8], math.Float64bits(e.MiddleTotalDelay))
		endian.LE.PutUint64(row[v2OffEndTotalDelay:v2OffEndTotalDelay+8], math.Float64bits(e.EndTotalDelay))
		endian.LE.PutUint16(row[v2OffNumPointings:v2OffNumPointings+2], e.NumPointings)
		endian.LE.PutUint16(row[v2OffReserved:v2OffReserved+2], 0)

		for i, frac := range e.FracDelay {
			off := v2OffFracDelay + 4*i
			endian.LE.PutUint32(row[off:off+4], math.Float32bits(float32(frac)))
		}
	}
}
