package cli_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MWATelescope/subtool/format"
	"github.com/MWATelescope/subtool/internal/cli"
	"github.com/MWATelescope/subtool/transform/resample"
)

func TestNewAppliesDefaults(t *testing.T) {
	o, err := cli.New()
	require.NoError(t, err)

	require.Equal(t, format.TableAuto, o.FormatIn)
	require.Equal(t, format.TablePretty, o.FormatOut)
	require.Nil(t, o.SelectedSources)
	require.Equal(t, 0, o.NumFracDelays)
}

func TestWithOptionsOverrideDefaults(t *testing.T) {
	one := uint16(1)

	o, err := cli.New(
		cli.WithFormatIn(format.TableCSV),
		cli.WithFormatOut(format.TableCSV),
		cli.WithSelectedSources([]uint16{1, 2, 3}),
		cli.WithReplaceMapAll(7),
		cli.WithReplaceMap(1, 2),
		cli.WithResampleRule(one, resample.Scale(2.0)),
		cli.WithHexOffsets(true),
	)
	require.NoError(t, err)

	require.Equal(t, format.TableCSV, o.FormatIn)
	require.Equal(t, format.TableCSV, o.FormatOut)
	require.Equal(t, []uint16{1, 2, 3}, o.SelectedSources)
	require.NotNil(t, o.ReplaceMapAll)
	require.Equal(t, uint16(7), *o.ReplaceMapAll)
	require.Len(t, o.ReplaceMap, 1)
	require.Equal(t, cli.ReplaceEntry{Slot: 1, To: 2}, o.ReplaceMap[0])
	require.Len(t, o.ResampleRules, 1)
	require.True(t, o.HexOffsets)
}

func TestWithNumFracDelaysRejectsNegative(t *testing.T) {
	_, err := cli.New(cli.WithNumFracDelays(-1))
	require.Error(t, err)
}

func TestWithBakeFFTSizeRejectsNonPowerOfTwo(t *testing.T) {
	_, err := cli.New(cli.WithBakeFFTSize(100))
	require.Error(t, err)

	o, err := cli.New(cli.WithBakeFFTSize(128))
	require.NoError(t, err)
	require.Equal(t, 128, o.BakeFFTSize)
}

func TestFormatOffsetRendersHexWhenSet(t *testing.T) {
	o, err := cli.New(cli.WithHexOffsets(true))
	require.NoError(t, err)
	require.Equal(t, "0xff", o.FormatOffset(255))

	o2, err := cli.New()
	require.NoError(t, err)
	require.Equal(t, "255", o2.FormatOffset(255))
}
