package delaytable_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MWATelescope/subtool/delaytable"
	"github.com/MWATelescope/subtool/format"
)

func TestDetectVersionIdentifiesV1(t *testing.T) {
	tbl := buildBinaryTable(format.V1, 1)
	tbl.Entries[0].InitialDelay = 5
	tbl.Entries[0].FracDelay[0] = 0.005
	tbl.Entries[1].InitialDelay = 5
	tbl.Entries[1].FracDelay[0] = 0.005

	buf, err := delaytable.SerialiseBinary(tbl)
	require.NoError(t, err)

	v, err := delaytable.DetectVersion(buf)
	require.NoError(t, err)
	require.Equal(t, format.V1, v)
}

func TestDetectVersionIdentifiesV2(t *testing.T) {
	tbl := buildBinaryTable(format.V2, 1)
	tbl.Entries[0].InitialDelay = 1.5
	tbl.Entries[0].StartTotalDelay = 1.5
	tbl.Entries[0].FracDelay[0] = 1.5
	tbl.Entries[1].InitialDelay = 1.5
	tbl.Entries[1].StartTotalDelay = 1.5
	tbl.Entries[1].FracDelay[0] = 1.5

	buf, err := delaytable.SerialiseBinary(tbl)
	require.NoError(t, err)

	v, err := delaytable.DetectVersion(buf)
	require.NoError(t, err)
	require.Equal(t, format.V2, v)
}

func TestDetectVersionRejectsImplausibleBuffer(t *testing.T) {
	_, err := delaytable.DetectVersion(make([]byte, 8))
	require.Error(t, err)
}

func TestInferStructureRecoversRowCountAndFracCount(t *testing.T) {
	tbl := buildBinaryTable(format.V1, 4)
	for i := range tbl.Entries {
		tbl.Entries[i].InitialDelay = 0
		for k := range tbl.Entries[i].FracDelay {
			tbl.Entries[i].FracDelay[k] = 0
		}
	}
	// A large rf_input on the second row pushes any degenerate
	// single-row interpretation (which would reinterpret these bytes as
	// an out-of-range frac_delay sample) out of validateStructure's
	// plausible range, so only the true two-row shape validates.
	tbl.Entries[1].RfInput = 40000

	buf, err := delaytable.SerialiseBinary(tbl)
	require.NoError(t, err)

	s, err := delaytable.InferStructure(buf)
	require.NoError(t, err)
	require.Equal(t, format.V1, s.Version)
	require.Equal(t, len(tbl.Entries), s.RowCount)
	require.Equal(t, 4, s.FracCount)
}

func TestInferStructureRejectsEmptyBuffer(t *testing.T) {
	_, err := delaytable.InferStructure(nil)
	require.Error(t, err)
}
