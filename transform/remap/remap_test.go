package remap_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MWATelescope/subtool/metadata"
	"github.com/MWATelescope/subtool/reader"
	"github.com/MWATelescope/subtool/transform/remap"
)

func buildFixture(t *testing.T) (*reader.Reader, []uint16) {
	t.Helper()

	meta := &metadata.Metadata{
		NumSources:     3,
		BlocksPerSub:   1,
		SamplesPerLine: 2,
		SubLineSize:    2 * metadata.BytesPerSample,
		BlockLength:    3 * 2 * metadata.BytesPerSample,
		DataOffset:     metadata.HeaderLength + 3*2*metadata.BytesPerSample, // block 1 follows block 0
	}

	buf := make([]byte, meta.DataOffset+meta.BlockLength)
	block := buf[meta.DataOffset:]
	for src := 0; src < 3; src++ {
		line := block[int64(src)*meta.SubLineSize : (int64(src)+1)*meta.SubLineSize]
		line[0] = byte(10 + src) // first sample's re byte identifies the source
	}

	r := reader.New(bytes.NewReader(buf), meta)
	sources := []uint16{100, 200, 300} // rf_input order: slot 0=100, 1=200, 2=300

	return r, sources
}

func TestIdentityMappingPassesThrough(t *testing.T) {
	r, sources := buildFixture(t)

	eng := remap.New(r, remap.Identity(sources))

	var out bytes.Buffer
	require.NoError(t, eng.Run(&out))

	got := out.Bytes()
	require.Equal(t, byte(10), got[0])
	require.Equal(t, byte(11), got[int(r.Metadata().SubLineSize)])
	require.Equal(t, byte(12), got[2*int(r.Metadata().SubLineSize)])
}

func TestMapAllDuplicatesOneSource(t *testing.T) {
	r, sources := buildFixture(t)

	mapping, err := remap.MapAll(sources, 200)
	require.NoError(t, err)

	eng := remap.New(r, mapping)

	var out bytes.Buffer
	require.NoError(t, eng.Run(&out))

	got := out.Bytes()
	lineSize := int(r.Metadata().SubLineSize)
	for slot := 0; slot < 3; slot++ {
		require.Equal(t, byte(11), got[slot*lineSize], "slot %d should carry source 200's data", slot)
	}
}

func TestSetOverridesPointwise(t *testing.T) {
	r, sources := buildFixture(t)

	mapping := remap.Identity(sources)
	mapping, err := mapping.Set(100, 300)
	require.NoError(t, err)

	eng := remap.New(r, mapping)

	var out bytes.Buffer
	require.NoError(t, eng.Run(&out))

	got := out.Bytes()
	lineSize := int(r.Metadata().SubLineSize)
	require.Equal(t, byte(12), got[0], "slot 0 (was source 100) now carries source 300")
	require.Equal(t, byte(11), got[lineSize], "slot 1 unchanged")
	require.Equal(t, byte(12), got[2*lineSize], "slot 2 unchanged")
}

func TestMapAllRejectsUnknownSource(t *testing.T) {
	_, sources := buildFixture(t)

	_, err := remap.MapAll(sources, 999)
	require.Error(t, err)
}
