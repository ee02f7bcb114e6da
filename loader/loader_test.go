package loader_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MWATelescope/subtool/delaytable"
	"github.com/MWATelescope/subtool/format"
	"github.com/MWATelescope/subtool/header"
	"github.com/MWATelescope/subtool/loader"
	"github.com/MWATelescope/subtool/metadata"
)

// buildV1Subfile assembles a complete, geometry-valid v1 subfile in memory:
// 8 sources, one block, real (if tiny) margin and udpmap sections. The
// sample-rate/line-size combination is chosen so the preamble (dt + udpmap
// + margin) fits within one block, as spec §3 requires.
func buildV1Subfile(t *testing.T) ([]byte, *metadata.Metadata) {
	t.Helper()

	h := header.New()
	require.NoError(t, h.Set("OBS_ID", int64(1234567890), true))
	require.NoError(t, h.Set("SUBOBS_ID", int64(1234567890), true))
	require.NoError(t, h.Set("SAMPLE_RATE", int64(10240), true))
	require.NoError(t, h.Set("SECS_PER_SUBOBS", int64(1), true))
	require.NoError(t, h.Set("NTIMESAMPLES", int64(10240), true))
	require.NoError(t, h.Set("NINPUTS", int64(8), true))
	require.NoError(t, h.Set("MWAX_SUB_VER", int64(1), true))
	require.NoError(t, h.Set("FRAC_DELAY_SIZE", int64(2), true))

	meta, err := metadata.New(h)
	require.NoError(t, err)
	require.Equal(t, int64(1), meta.BlocksPerSub)

	table := delaytable.Table{Version: format.V1, NumFracDelays: int(meta.NumFracDelays), Entries: make([]delaytable.Entry, 8)}
	for i := range table.Entries {
		table.Entries[i] = delaytable.Entry{
			RfInput:      uint16(100 + i),
			WsDelay:      int16(i),
			NumPointings: 1,
			FracDelay:    make([]float64, meta.NumFracDelays),
		}
	}

	dtBytes, err := delaytable.SerialiseBinary(table)
	require.NoError(t, err)
	require.Equal(t, int(meta.DtLength), len(dtBytes))

	hdrBytes, err := h.Bytes()
	require.NoError(t, err)

	total := int(meta.DataOffset) + int(meta.BlocksPerSub*meta.BlockLength)
	buf := make([]byte, total)

	copy(buf[meta.HeaderOffset:], hdrBytes)
	copy(buf[meta.DtOffset:], dtBytes)
	// udpmap and margin left zeroed; block 1's data filled with a
	// recognisable pattern so Sources()/Reader() round-trip is checkable.
	block := buf[meta.DataOffset:]
	for i := range block {
		block[i] = byte(i)
	}

	return buf, meta
}

func TestOpenParsesHeaderMetadataAndTable(t *testing.T) {
	buf, meta := buildV1Subfile(t)

	l, err := loader.New(bytes.NewReader(buf), nil)
	require.NoError(t, err)
	defer l.Close()

	require.Equal(t, meta.NumSources, l.Metadata().NumSources)
	require.Equal(t, format.V1, l.DelayTable().Version)
	require.Len(t, l.DelayTable().Entries, 8)

	sources := l.Sources()
	require.Equal(t, []uint16{100, 101, 102, 103, 104, 105, 106, 107}, sources)

	block, err := l.Reader().ReadBlock(1)
	require.NoError(t, err)
	require.Equal(t, byte(0), block[0])
	require.Equal(t, byte(1), block[1])
}

func TestUpgradeRewritesHeaderAndTableToV2(t *testing.T) {
	buf, _ := buildV1Subfile(t)

	l, err := loader.New(bytes.NewReader(buf), nil)
	require.NoError(t, err)
	defer l.Close()

	up, err := l.Upgrade()
	require.NoError(t, err)

	require.Equal(t, format.V2, up.Table.Version)
	require.Equal(t, format.V2, up.Metadata.MwaxSubVersion)

	subVer, ok := up.Header.GetInt("MWAX_SUB_VER")
	require.True(t, ok)
	require.Equal(t, int64(2), subVer)

	fracSize, ok := up.Header.GetInt("FRAC_DELAY_SIZE")
	require.True(t, ok)
	require.Equal(t, int64(4), fracSize)

	// v2's entry layout is wider, so dt_length must grow even though
	// num_frac_delays is unchanged.
	require.Greater(t, up.Metadata.DtLength, l.Metadata().DtLength)
	require.Equal(t, l.Metadata().NumFracDelays, up.Metadata.NumFracDelays)

	// Source ordering and per-source ws_delay survive the upgrade.
	require.Equal(t, l.Sources(), up.Table.RfInputs())
	for i, e := range up.Table.Entries {
		require.Equal(t, l.DelayTable().Entries[i].WsDelay, e.WsDelay)
	}
}

func TestUpgradeIsNoOpOnV2Subfile(t *testing.T) {
	buf, _ := buildV1Subfile(t)

	l, err := loader.New(bytes.NewReader(buf), nil)
	require.NoError(t, err)
	defer l.Close()

	up1, err := l.Upgrade()
	require.NoError(t, err)

	l2, err := loader.New(upgradedReader(t, up1, l), nil)
	require.NoError(t, err)
	defer l2.Close()

	up2, err := l2.Upgrade()
	require.NoError(t, err)
	require.Equal(t, format.V2, up2.Metadata.MwaxSubVersion)
	require.Equal(t, up1.Metadata.DtLength, up2.Metadata.DtLength)
}

// upgradedReader assembles a standalone in-memory v2 subfile from an
// Upgraded result plus the original loader's data block, so the no-op path
// of Upgrade can be exercised on genuinely-v2 input.
func upgradedReader(t *testing.T, up *loader.Upgraded, orig *loader.Loader) *bytes.Reader {
	t.Helper()

	hdrBytes, err := up.Header.Bytes()
	require.NoError(t, err)

	dtBytes, err := delaytable.SerialiseBinary(up.Table)
	require.NoError(t, err)

	total := int(up.Metadata.DataOffset) + int(up.Metadata.BlocksPerSub*up.Metadata.BlockLength)
	buf := make([]byte, total)

	copy(buf[up.Metadata.HeaderOffset:], hdrBytes)
	copy(buf[up.Metadata.DtOffset:], dtBytes)
	copy(buf[up.Metadata.UDPMapOffset:], up.UDPMap)
	copy(buf[up.Metadata.MarginOffset:], up.Margin)

	origBlock, err := orig.Reader().ReadBlock(1)
	require.NoError(t, err)
	copy(buf[up.Metadata.DataOffset:], origBlock)

	return bytes.NewReader(buf)
}
