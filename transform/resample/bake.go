package resample

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/MWATelescope/subtool/errs"
)

// BakeOptions parameterises the FFT-based fractional-delay correction
// transform used by the `bake` command.
type BakeOptions struct {
	FFTSize         int
	SampleRate      int64
	CentreFrequency float64 // Hz; defaults to 157000000 at the CLI boundary.
}

// Bake applies per-block fractional-delay phase-gradient correction to a
// single source's full sample stream, in FFTSize-sample chunks. delays
// holds the source's fractional-delay trajectory in microsamples, spread
// evenly over the stream (a delay table's frac_delay array has FFTPerBlock
// values per data block); the delay applied to a chunk is looked up by the
// chunk's midpoint sample position, scaled into delays' index space.
//
// The caller is responsible for zeroing that source's frac_delay array
// afterward: baking consumes the fractional-delay correction by folding it
// into the sample stream itself.
func Bake(stream []Sample, delays []float64, opts BakeOptions) ([]Sample, error) {
	if opts.FFTSize <= 0 {
		return nil, errs.New(errs.InvalidArgument, "bake: fft_size must be positive, got %d", opts.FFTSize)
	}

	if len(delays) == 0 {
		return nil, errs.New(errs.InvalidArgument, "bake: delays is empty")
	}

	streamLen := len(stream)
	out := make([]Sample, streamLen)

	fft := fourier.NewCmplxFFT(opts.FFTSize)
	fftLenSeconds := float64(opts.FFTSize) / float64(opts.SampleRate)

	chunk := make([]complex128, opts.FFTSize)
	scratch := make([]complex128, opts.FFTSize)

	for start := 0; start < streamLen; start += opts.FFTSize {
		end := start + opts.FFTSize
		if end > streamLen {
			end = streamLen
		}

		n := end - start
		for i := 0; i < opts.FFTSize; i++ {
			if i < n {
				chunk[i] = stream[start+i].Complex()
			} else {
				chunk[i] = 0
			}
		}

		midSample := start + opts.FFTSize/2
		delayIdx := int(float64(len(delays)) * float64(midSample) / float64(streamLen))
		if delayIdx >= len(delays) {
			delayIdx = len(delays) - 1
		}
		if delayIdx < 0 {
			delayIdx = 0
		}

		delaySeconds := delays[delayIdx] / 1e6 / float64(opts.SampleRate)
		dcOffset := opts.CentreFrequency * delaySeconds * 2 * math.Pi

		coeff := fft.Coefficients(scratch, chunk)

		for k := 0; k < opts.FFTSize; k++ {
			fineOffset := (float64(k) / (float64(opts.FFTSize) * fftLenSeconds)) * delaySeconds * 2 * math.Pi
			rotation := -(dcOffset - fineOffset)
			coeff[k] *= complex(math.Cos(rotation), math.Sin(rotation))
		}

		baked := fft.Sequence(chunk, coeff)

		// gonum's CmplxFFT is unnormalized: Sequence(Coefficients(x)) == x
		// scaled by FFTSize. Divide it back out before rounding to i8.
		scale := 1.0 / float64(opts.FFTSize)
		for i := 0; i < n; i++ {
			out[start+i] = FromComplex(baked[i] * complex(scale, 0))
		}
	}

	return out, nil
}
