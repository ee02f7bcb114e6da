package delaytable

import (
	"math"

	"github.com/MWATelescope/subtool/endian"
	"github.com/MWATelescope/subtool/errs"
	"github.com/MWATelescope/subtool/format"
)

// fracTolerance is the agreement tolerance the plausibility heuristics use
// when comparing a delay's integer and fractional representations.
const fracTolerance = 0.0001

// plausiblyV1 applies spec §4.5's v1 plausibility heuristic to the first
// row of buf. Deliberately reads first_frac from v1OffFracDelay (offset 20)
// rather than the spec's literal offset 18: offset 18 is the reserved pad
// field, which writeRow always zeroes, so reading it here would force
// initial_delay≈0 for any v1 match. See DESIGN.md.
func plausiblyV1(buf []byte) bool {
	if len(buf) < 20 {
		return false
	}

	numPointings := endian.LE.Uint16(buf[16:18])
	if numPointings != 1 {
		return false
	}

	initialDelay := int32(endian.LE.Uint32(buf[4:8]))
	firstFrac := int16(endian.LE.Uint16(buf[v1OffFracDelay : v1OffFracDelay+2]))

	if math.Abs(float64(initialDelay)-float64(firstFrac)) > fracTolerance {
		return false
	}
	if math.Abs(float64(firstFrac)) > 2000 {
		return false
	}

	return (initialDelay == 0) == (firstFrac == 0)
}

// plausiblyV2 applies spec §4.5's v2 plausibility heuristic to the first
// row of buf.
func plausiblyV2(buf []byte) bool {
	if len(buf) < 60 {
		return false
	}

	numPointings := endian.LE.Uint16(buf[52:54])
	if numPointings != 1 {
		return false
	}

	reserved := endian.LE.Uint16(buf[54:56])
	if reserved != 0 {
		return false
	}

	initialDelay := math.Float64frombits(endian.LE.Uint64(buf[4:12]))
	startTotalDelay := math.Float64frombits(endian.LE.Uint64(buf[28:36]))
	if math.Abs(initialDelay-startTotalDelay) > fracTolerance {
		return false
	}

	firstFrac := float64(math.Float32frombits(endian.LE.Uint32(buf[56:60])))
	if math.Abs(initialDelay-firstFrac) > fracTolerance {
		return false
	}

	return true
}

// DetectVersion applies the binary plausibility heuristic to the table's
// first row, failing if both or neither version is plausible.
func DetectVersion(buf []byte) (format.SubVersion, error) {
	v1 := plausiblyV1(buf)
	v2 := plausiblyV2(buf)

	switch {
	case v1 && v2:
		return 0, errs.New(errs.InvalidFormat, "binary delay table is ambiguous: plausible as both v1 and v2")
	case v1:
		return format.V1, nil
	case v2:
		return format.V2, nil
	default:
		return 0, errs.New(errs.InvalidFormat, "binary delay table does not match v1 or v2 layout")
	}
}

// Structure is the outcome of binary structure inference.
type Structure struct {
	Version   format.SubVersion
	RowCount  int
	FracCount int
}

// InferStructure infers (version, row_count, frac_count) for a binary
// buffer of unknown shape, per spec §4.5: for every candidate row_count
// that evenly divides len(buf), derive the implied row length and frac
// count, then validate every row against the version-specific invariants.
// The first (version, row_count, frac_count) that validates is returned.
func InferStructure(buf []byte) (Structure, error) {
	n := len(buf)
	if n == 0 {
		return Structure{}, errs.New(errs.InvalidFormat, "binary delay table is empty")
	}

	for rowCount := 1; rowCount <= n; rowCount++ {
		if n%rowCount != 0 {
			continue
		}

		rowLen := n / rowCount

		for _, version := range []format.SubVersion{format.V1, format.V2} {
			fracOffset := version.EntryMinSize()
			fracSize := version.FracDelaySize()

			fracBytes := rowLen - fracOffset
			if fracBytes < 0 || fracBytes%fracSize != 0 {
				continue
			}

			fracCount := fracBytes / fracSize
			if validateStructure(buf, version, rowCount, rowLen, fracCount) {
				return Structure{Version: version, RowCount: rowCount, FracCount: fracCount}, nil
			}
		}
	}

	return Structure{}, errs.New(errs.InvalidFormat, "could not infer binary delay-table structure: no (version, row_count, frac_count) fits %d bytes", n)
}

// validateStructure checks every row against the version's structural
// invariants: num_pointings == 1, reserved bytes are 0, and every
// fractional-delay sample lies in the version's valid range.
func validateStructure(buf []byte, version format.SubVersion, rowCount, rowLen, fracCount int) bool {
	numPointingsOff, reservedOff, fracOff, fracSize := layoutOffsets(version)

	for i := 0; i < rowCount; i++ {
		row := buf[i*rowLen : (i+1)*rowLen]

		if endian.LE.Uint16(row[numPointingsOff:numPointingsOff+2]) != 1 {
			return false
		}

		if version == format.V1 {
			// v1's reserved bytes are the two pad bytes at offset 18.
			if endian.LE.Uint16(row[reservedOff:reservedOff+2]) != 0 {
				return false
			}
		} else if endian.LE.Uint16(row[reservedOff:reservedOff+2]) != 0 {
			return false
		}

		for k := 0; k < fracCount; k++ {
			off := fracOff + k*fracSize
			if !fracInRange(row[off:off+fracSize], version) {
				return false
			}
		}
	}

	return true
}

func layoutOffsets(version format.SubVersion) (numPointingsOff, reservedOff, fracOff, fracSize int) {
	if version == format.V1 {
		return v1OffNumPointings, v1OffReserved, v1OffFracDelay, 2
	}

	return v2OffNumPointings, v2OffReserved, v2OffFracDelay, 4
}

func fracInRange(b []byte, version format.SubVersion) bool {
	if version == format.V1 {
		v := int16(endian.LE.Uint16(b))

		return v >= -2000 && v <= 2000
	}

	v := math.Float32frombits(endian.LE.Uint32(b))

	return v >= -2 && v <= 2
}
