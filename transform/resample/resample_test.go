package resample_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MWATelescope/subtool/metadata"
	"github.com/MWATelescope/subtool/reader"
	"github.com/MWATelescope/subtool/transform/resample"
)

func TestScaleMultipliesSample(t *testing.T) {
	fn := resample.Scale(2.0)
	cur := resample.Sample{Re: 10, Im: -5}

	got := fn(nil, cur, nil, 0)

	require.Equal(t, resample.Sample{Re: 20, Im: -10}, got)
}

func TestScaleClampsToI8Range(t *testing.T) {
	fn := resample.Scale(100.0)
	cur := resample.Sample{Re: 10, Im: 10}

	got := fn(nil, cur, nil, 0)

	require.Equal(t, int8(127), got.Re)
	require.Equal(t, int8(127), got.Im)
}

func TestLinearZeroShiftReturnsCurrentSample(t *testing.T) {
	fn := resample.Linear(0, 0)
	cur := resample.Sample{Re: 42, Im: -7}

	got := fn([]resample.Sample{{Re: 1, Im: 1}}, cur, []resample.Sample{{Re: 2, Im: 2}}, 123.0)

	require.Equal(t, cur, got)
}

func TestLinearInterpolatesForwardFraction(t *testing.T) {
	fn := resample.Linear(0, 0.5) // constant half-sample forward shift
	cur := resample.Sample{Re: 0, Im: 0}
	next := []resample.Sample{{Re: 10, Im: 0}}

	got := fn(nil, cur, next, 0)

	// amount=0.5, ws=floor(0.5)=0, frac=0.5: interpolate between
	// neighbour(0)=cur and neighbour(1)=next[0].
	require.Equal(t, int8(5), got.Re)
}

func TestEnginePassesThroughUnconfiguredSources(t *testing.T) {
	meta := &metadata.Metadata{
		NumSources:     2,
		BlocksPerSub:   1,
		SampleRate:     8,
		SamplesPerLine: 4,
		SubLineSize:    4 * metadata.BytesPerSample,
		BlockLength:    2 * 4 * metadata.BytesPerSample,
		DataOffset:     metadata.HeaderLength + 2*4*metadata.BytesPerSample, // block 1 follows block 0
	}

	buf := make([]byte, meta.DataOffset+meta.BlockLength)
	block := buf[meta.DataOffset:]
	for i := range block {
		block[i] = byte(i + 1)
	}

	r := reader.New(bytes.NewReader(buf), meta)
	sources := []uint16{1, 2}

	eng := resample.New(r, sources, map[uint16]resample.Func{}, 2)

	var out bytes.Buffer
	require.NoError(t, eng.Run(&out))

	require.Equal(t, block, out.Bytes())
}

func TestBakeZeroDelayIsIdentity(t *testing.T) {
	stream := []resample.Sample{
		{Re: 10, Im: -5}, {Re: 3, Im: 7}, {Re: -20, Im: 0}, {Re: 0, Im: 0},
		{Re: 1, Im: 1}, {Re: -1, Im: -1}, {Re: 50, Im: -50}, {Re: -128, Im: 127},
	}
	opts := resample.BakeOptions{FFTSize: 8, SampleRate: 1_000_000, CentreFrequency: 1_000_000}

	baked, err := resample.Bake(stream, []float64{0}, opts)
	require.NoError(t, err)
	require.Equal(t, stream, baked)
}

func TestBakeAppliesPhaseRotation(t *testing.T) {
	// A constant stream's DFT is a single spike at bin 0; bake's phase
	// correction rotates that spike (and nothing else, since every other
	// bin is already zero) by -(centre_frequency * delay_seconds * 2*pi).
	// Choosing these constants makes that rotation exactly -90 degrees, so
	// (10+0i) maps to a predictable -10i.
	stream := make([]resample.Sample, 8)
	for i := range stream {
		stream[i] = resample.Sample{Re: 10, Im: 0}
	}
	opts := resample.BakeOptions{FFTSize: 8, SampleRate: 1_000_000, CentreFrequency: 1_000_000}

	baked, err := resample.Bake(stream, []float64{250000}, opts)
	require.NoError(t, err)
	require.Len(t, baked, 8)

	for _, s := range baked {
		require.Equal(t, resample.Sample{Re: 0, Im: -10}, s)
	}
}

func TestEngineAppliesConfiguredTransform(t *testing.T) {
	meta := &metadata.Metadata{
		NumSources:     1,
		BlocksPerSub:   1,
		SampleRate:     8,
		SamplesPerLine: 4,
		SubLineSize:    4 * metadata.BytesPerSample,
		BlockLength:    4 * metadata.BytesPerSample,
		DataOffset:     metadata.HeaderLength + 4*metadata.BytesPerSample, // block 1 follows block 0
	}

	buf := make([]byte, meta.DataOffset+meta.BlockLength)
	block := buf[meta.DataOffset:]
	for i := 0; i < 4; i++ {
		block[i*2] = byte(10 + i)
	}

	r := reader.New(bytes.NewReader(buf), meta)
	sources := []uint16{7}

	eng := resample.New(r, sources, map[uint16]resample.Func{7: resample.Scale(2.0)}, 2)

	var out bytes.Buffer
	require.NoError(t, eng.Run(&out))

	got := out.Bytes()
	for i := 0; i < 4; i++ {
		require.Equal(t, byte(2*(10+i)), got[i*2])
	}
}
