// Package resample implements the per-sample complex-valued transform:
// sources with a configured transform function are rewritten sample by
// sample from a sliding time window; every other source passes through
// byte-identically.
package resample

import (
	"io"
	"math"

	"github.com/MWATelescope/subtool/errs"
	"github.com/MWATelescope/subtool/metadata"
	"github.com/MWATelescope/subtool/reader"
)

// Sample is one complex 8-bit sample, (re, im) each in [-128, 127].
type Sample struct {
	Re, Im int8
}

// Complex returns s as a complex128, for transform arithmetic.
func (s Sample) Complex() complex128 { return complex(float64(s.Re), float64(s.Im)) }

// FromComplex rounds and clamps c's real/imaginary parts to i8 range.
func FromComplex(c complex128) Sample {
	return Sample{Re: clampI8(math.Round(real(c))), Im: clampI8(math.Round(imag(c)))}
}

func clampI8(v float64) int8 {
	if v > 127 {
		return 127
	}

	if v < -128 {
		return -128
	}

	return int8(v)
}

func sampleAt(line []byte, idx int64) Sample {
	off := idx * 2

	return Sample{Re: int8(line[off]), Im: int8(line[off+1])}
}

func putSample(line []byte, idx int64, s Sample) {
	off := idx * 2
	line[off] = byte(s.Re)
	line[off+1] = byte(s.Im)
}

// Func is a per-sample transform: given up to `region` samples immediately
// before and after cur (in time order, oldest first) and cur's absolute
// time in seconds, it returns the replacement sample.
type Func func(prev []Sample, cur Sample, next []Sample, timeSeconds float64) Sample

// Scale returns a transform that multiplies every sample by a real factor.
func Scale(factor float64) Func {
	return func(_ []Sample, cur Sample, _ []Sample, _ float64) Sample {
		return FromComplex(cur.Complex() * complex(factor, 0))
	}
}

// Linear returns the phase-gradient transform: at time t the fractional
// shift amount = initial + rate*t is split into an integer part ws (via
// floor, so the fractional remainder frac always lies in [0, 1)) and that
// remainder is used to linearly interpolate between the samples ws and
// ws+1 positions away from cur. At amount == 0, ws == 0 and frac == 0, so
// the result is exactly cur, matching the zero-shift case.
func Linear(rate, initial float64) Func {
	return func(prev []Sample, cur Sample, next []Sample, t float64) Sample {
		amount := initial + rate*t
		ws := math.Floor(amount)
		frac := amount - ws

		s1 := neighbour(prev, cur, next, int64(ws))
		s2 := neighbour(prev, cur, next, int64(ws)+1)

		c1, c2 := s1.Complex(), s2.Complex()
		result := c1 + (c2-c1)*complex(frac, 0)

		return FromComplex(result)
	}
}

// neighbour resolves the sample k positions away from cur: k == 0 is cur,
// k > 0 indexes into next (next[0] is one sample after cur), k < 0 indexes
// into prev from its end (prev[len(prev)-1] is one sample before cur). Out
// of range k clamps to the nearest available sample, since Linear's rate
// and initial are operator-supplied CLI arguments that may momentarily
// exceed a conservatively-sized window at a stream's very edge.
func neighbour(prev []Sample, cur Sample, next []Sample, k int64) Sample {
	switch {
	case k == 0:
		return cur
	case k > 0:
		idx := k - 1
		if idx >= int64(len(next)) {
			idx = int64(len(next)) - 1
		}

		if idx < 0 {
			return cur
		}

		return next[idx]
	default:
		idx := int64(len(prev)) + k
		if idx < 0 {
			idx = 0
		}

		if idx >= int64(len(prev)) {
			return cur
		}

		return prev[idx]
	}
}

// Engine streams resampled data blocks from a Reader's source subfile.
type Engine struct {
	r          *reader.Reader
	sources    []uint16 // ordered rf_input list; position i is block line i
	transforms map[uint16]Func
	region     int64
}

// New builds a resample Engine. sources must be the subfile's ordered
// rf_input list (loader.Loader.Sources()); transforms maps a subset of
// those sources to the function that rewrites their stream. region bounds
// how many neighbouring samples a transform's window may examine.
func New(r *reader.Reader, sources []uint16, transforms map[uint16]Func, region int64) *Engine {
	return &Engine{r: r, sources: sources, transforms: transforms, region: region}
}

// Run streams the resampled data blocks (1..BlocksPerSub, in order) to out.
func (e *Engine) Run(out io.Writer) error {
	meta := e.r.Metadata()
	blocksPerSec := float64(meta.SampleRate) / float64(meta.SamplesPerLine)

	var prev, cur, next []byte

	next, err := e.r.ReadBlockOrNull(1)
	if err != nil {
		return err
	}

	for block := int64(1); block <= meta.BlocksPerSub; block++ {
		prev, cur = cur, next

		if block < meta.BlocksPerSub {
			next, err = e.r.ReadBlockOrNull(block + 1)
			if err != nil {
				return err
			}
		} else {
			next = nil
		}

		outBlock := make([]byte, meta.BlockLength)
		time0 := float64(block-1) / blocksPerSec

		for srcIdx, srcID := range e.sources {
			dstLine := outBlock[int64(srcIdx)*meta.SubLineSize : int64(srcIdx+1)*meta.SubLineSize]
			curLine := cur[int64(srcIdx)*meta.SubLineSize : int64(srcIdx+1)*meta.SubLineSize]

			fn, ok := e.transforms[srcID]
			if !ok {
				copy(dstLine, curLine)

				continue
			}

			if err := e.processSourceLine(dstLine, curLine, prev, next, block, int64(srcIdx), fn, time0); err != nil {
				return err
			}
		}

		if _, err := out.Write(outBlock); err != nil {
			return errs.New(errs.IoFailure, "resample: write block %d: %v", block, err)
		}
	}

	return nil
}

// processSourceLine rewrites one source's line sample by sample, assembling
// each sample's window from the current line and, near its edges, the
// adjacent block or margin.
func (e *Engine) processSourceLine(dstLine, curLine, prevBlock, nextBlock []byte, block, srcIdx int64, fn Func, time0 float64) error {
	meta := e.r.Metadata()

	beforeLine, err := e.boundaryLine(prevBlock, block, srcIdx, true)
	if err != nil {
		return err
	}

	afterLine, err := e.boundaryLine(nextBlock, block, srcIdx, false)
	if err != nil {
		return err
	}

	for s := int64(0); s < meta.SamplesPerLine; s++ {
		cur := sampleAt(curLine, s)
		prevWindow := prevSamples(curLine, beforeLine, s, e.region)
		nextWindow := nextSamples(curLine, afterLine, s, e.region, meta.SamplesPerLine)
		t := time0 + float64(s)/float64(meta.SampleRate)

		putSample(dstLine, s, fn(prevWindow, cur, nextWindow, t))
	}

	return nil
}

// boundaryLine resolves the line adjacent to srcIdx's current line in the
// requested direction: the neighbouring block's line when one exists, or
// the source's margin region at a subfile edge. The margin half that
// overlaps the data is left out: "before" yields the first MarginSamples/2
// samples of the head margin (those preceding the subfile's start) and
// "after" the last MarginSamples/2 samples of the tail margin (those
// following its end).
func (e *Engine) boundaryLine(adjacentBlock []byte, block, srcIdx int64, before bool) ([]byte, error) {
	meta := e.r.Metadata()

	if before && block > 1 || !before && block < meta.BlocksPerSub {
		return adjacentBlock[srcIdx*meta.SubLineSize : (srcIdx+1)*meta.SubLineSize], nil
	}

	margin, err := e.r.ReadMarginLine(srcIdx, before)
	if err != nil {
		return nil, err
	}

	half := (meta.MarginSamples / 2) * metadata.BytesPerSample
	if before {
		return margin[:half], nil
	}

	return margin[half:], nil
}

// prevSamples returns the `region` complex samples immediately before
// sample index s of curLine, drawing from beforeLine when s < region.
func prevSamples(curLine, beforeLine []byte, s, region int64) []Sample {
	out := make([]Sample, 0, region)

	if s >= region {
		for i := s - region; i < s; i++ {
			out = append(out, sampleAt(curLine, i))
		}

		return out
	}

	needed := region - s
	beforeCount := int64(len(beforeLine)) / 2

	start := beforeCount - needed
	if start < 0 {
		start = 0
	}

	for i := start; i < beforeCount; i++ {
		out = append(out, sampleAt(beforeLine, i))
	}

	for i := int64(0); i < s; i++ {
		out = append(out, sampleAt(curLine, i))
	}

	return out
}

// nextSamples returns the `region` complex samples immediately after sample
// index s of curLine, drawing from afterLine when the line runs out.
func nextSamples(curLine, afterLine []byte, s, region, samplesPerLine int64) []Sample {
	out := make([]Sample, 0, region)

	avail := samplesPerLine - s - 1
	if avail >= region {
		for i := s + 1; i <= s+region; i++ {
			out = append(out, sampleAt(curLine, i))
		}

		return out
	}

	for i := s + 1; i < samplesPerLine; i++ {
		out = append(out, sampleAt(curLine, i))
	}

	needed := region - avail
	afterCount := int64(len(afterLine)) / 2
	if needed > afterCount {
		needed = afterCount
	}

	for i := int64(0); i < needed; i++ {
		out = append(out, sampleAt(afterLine, i))
	}

	return out
}
