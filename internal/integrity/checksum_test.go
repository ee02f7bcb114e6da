package integrity_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MWATelescope/subtool/format"
	"github.com/MWATelescope/subtool/header"
	"github.com/MWATelescope/subtool/internal/integrity"
	"github.com/MWATelescope/subtool/metadata"
	"github.com/MWATelescope/subtool/reader"
)

func buildReader(t *testing.T) *reader.Reader {
	t.Helper()

	h := header.New()
	require.NoError(t, h.Set("SAMPLE_RATE", int64(10240), true))
	require.NoError(t, h.Set("SECS_PER_SUBOBS", int64(1), true))
	require.NoError(t, h.Set("NTIMESAMPLES", int64(10240), true))
	require.NoError(t, h.Set("NINPUTS", int64(8), true))
	require.NoError(t, h.Set("MWAX_SUB_VER", int64(1), true))

	meta, err := metadata.New(h)
	require.NoError(t, err)

	buf := make([]byte, int(meta.DataOffset)+int(meta.BlocksPerSub*meta.BlockLength))
	for i := range buf {
		buf[i] = byte(i)
	}

	return reader.New(bytes.NewReader(buf), meta)
}

func TestSectionChecksumsCoversEveryPresentSection(t *testing.T) {
	r := buildReader(t)

	sums, err := integrity.SectionChecksums(r, false)
	require.NoError(t, err)
	require.Len(t, sums, 4)

	seen := map[format.Section]bool{}
	for _, s := range sums {
		seen[s.Section] = true
		require.NotZero(t, s.Sum)
	}
	require.True(t, seen[format.SectionHeader])
	require.True(t, seen[format.SectionDelayTable])
	require.True(t, seen[format.SectionUDPMap])
	require.True(t, seen[format.SectionMargin])
}

func TestSectionChecksumsWithDataAddsDataEntry(t *testing.T) {
	r := buildReader(t)

	sums, err := integrity.SectionChecksums(r, true)
	require.NoError(t, err)

	var foundData bool
	for _, s := range sums {
		if s.Section == format.SectionData {
			foundData = true
			require.NotZero(t, s.Sum)
		}
	}
	require.True(t, foundData)
}

func TestSumHashesStream(t *testing.T) {
	sum1, err := integrity.Sum(bytes.NewReader([]byte("hello")))
	require.NoError(t, err)

	sum2, err := integrity.Sum(bytes.NewReader([]byte("hello")))
	require.NoError(t, err)

	sum3, err := integrity.Sum(bytes.NewReader([]byte("world")))
	require.NoError(t, err)

	require.Equal(t, sum1, sum2)
	require.NotEqual(t, sum1, sum3)
}
