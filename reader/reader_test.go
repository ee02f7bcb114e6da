package reader_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MWATelescope/subtool/format"
	"github.com/MWATelescope/subtool/header"
	"github.com/MWATelescope/subtool/metadata"
	"github.com/MWATelescope/subtool/reader"
)

// buildSubfile assembles a minimal, fully-laid-out v1 subfile in memory:
// header, delay table, UDP map, and margin sized per meta, block 0 (the
// preamble block, sharing space with those sections) and m.BlocksPerSub data
// blocks, each filled with a byte pattern identifying its block index.
func buildSubfile(t *testing.T) (*metadata.Metadata, []byte) {
	t.Helper()

	h := header.New()
	require.NoError(t, h.Set("OBS_ID", 1, true))
	require.NoError(t, h.Set("SUBOBS_ID", 1, true))
	require.NoError(t, h.Set("SAMPLE_RATE", 16384, true))
	require.NoError(t, h.Set("SECS_PER_SUBOBS", 1, true))
	require.NoError(t, h.Set("NTIMESAMPLES", 16384, true))
	require.NoError(t, h.Set("NINPUTS", 2, true))
	require.NoError(t, h.Set("MWAX_SUB_VER", 1, true))

	m, err := metadata.New(h)
	require.NoError(t, err)

	headerBytes, err := h.Bytes()
	require.NoError(t, err)

	total := metadata.HeaderLength + (m.BlocksPerSub+1)*m.BlockLength
	buf := make([]byte, total)
	copy(buf, headerBytes)

	for block := int64(0); block <= m.BlocksPerSub; block++ {
		off := m.BlockOffset(block)
		for i := int64(0); i < m.BlockLength; i++ {
			buf[off+i] = byte(block)
		}
	}

	return m, buf
}

func TestReadSectionReadsHeader(t *testing.T) {
	m, buf := buildSubfile(t)
	r := reader.New(bytes.NewReader(buf), m)

	section, err := r.ReadSection(format.SectionHeader)
	require.NoError(t, err)
	require.Len(t, section, header.Length)
}

func TestReadSectionCachesOnSecondCall(t *testing.T) {
	m, buf := buildSubfile(t)
	r := reader.New(bytes.NewReader(buf), m)

	first, err := r.ReadSection(format.SectionMargin)
	require.NoError(t, err)

	second, err := r.ReadSection(format.SectionMargin)
	require.NoError(t, err)
	require.Equal(t, first, second)

	stats := r.Cache().Stats()
	require.GreaterOrEqual(t, stats.Hits, int64(1))
}

func TestReadBlockReturnsBlockPattern(t *testing.T) {
	m, buf := buildSubfile(t)
	r := reader.New(bytes.NewReader(buf), m)

	block, err := r.ReadBlock(1)
	require.NoError(t, err)
	require.Len(t, block, int(m.BlockLength))
	for _, b := range block {
		require.Equal(t, byte(1), b)
	}
}

func TestReadBlockRejectsOutOfRangeIndex(t *testing.T) {
	m, buf := buildSubfile(t)
	r := reader.New(bytes.NewReader(buf), m)

	_, err := r.ReadBlock(m.BlocksPerSub + 1)
	require.Error(t, err)
}

func TestReadBlockOrNullReturnsNilOutsideRange(t *testing.T) {
	m, buf := buildSubfile(t)
	r := reader.New(bytes.NewReader(buf), m)

	block, err := r.ReadBlockOrNull(0)
	require.NoError(t, err)
	require.Nil(t, block)

	block, err = r.ReadBlockOrNull(m.BlocksPerSub + 1)
	require.NoError(t, err)
	require.Nil(t, block)

	block, err = r.ReadBlockOrNull(1)
	require.NoError(t, err)
	require.NotNil(t, block)
}

func TestReadLineSlicesCorrectSource(t *testing.T) {
	m, buf := buildSubfile(t)
	r := reader.New(bytes.NewReader(buf), m)

	line, err := r.ReadLine(1, 1)
	require.NoError(t, err)
	require.Len(t, line, int(m.SubLineSize))
	for _, b := range line {
		require.Equal(t, byte(1), b)
	}
}

func TestReadLineRejectsOutOfRangeSource(t *testing.T) {
	m, buf := buildSubfile(t)
	r := reader.New(bytes.NewReader(buf), m)

	_, err := r.ReadLine(m.NumSources, 1)
	require.Error(t, err)
}

func TestReadMarginLineSplitsHeadAndTail(t *testing.T) {
	m, buf := buildSubfile(t)
	r := reader.New(bytes.NewReader(buf), m)

	head, err := r.ReadMarginLine(0, true)
	require.NoError(t, err)
	require.Len(t, head, int(m.MarginSamples*metadata.BytesPerSample))

	tail, err := r.ReadMarginLine(0, false)
	require.NoError(t, err)
	require.Len(t, tail, int(m.MarginSamples*metadata.BytesPerSample))
}
