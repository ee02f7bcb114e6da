// Package cli holds the per-invocation configuration record shared across
// subtool's subcommands, and the offset rendering (FormatOffset) that the
// info command uses.
//
// The reference tool threads a single ad-hoc "opts" object through nearly
// every function; spec §9 mandates replacing it with one explicit record
// with enumerated fields. Options is that record, built with the same
// functional-option pattern the teacher uses for its blob encoders
// (internal/options), generalised beyond any one concrete type.
package cli

import (
	"github.com/MWATelescope/subtool/errs"
	"github.com/MWATelescope/subtool/format"
	"github.com/MWATelescope/subtool/internal/options"
	"github.com/MWATelescope/subtool/transform/resample"
)

// ResampleRule pairs a source with the per-sample transform a resample
// invocation applies to it.
type ResampleRule struct {
	Source    uint16
	Transform resample.Func
}

// Options is the single configuration record a subtool invocation builds
// and passes to its core-package calls.
type Options struct {
	FormatIn  format.TableFormat
	FormatOut format.TableFormat

	// SelectedSources is nil for "all sources".
	SelectedSources []uint16

	// NumFracDelays is 0 for "infer from input".
	NumFracDelays int
	NumSamples    int64
	ShowBlock     int64

	DelayTableFilename string

	RepointZero bool
	ForceDelays bool

	ReplaceMap []ReplaceEntry
	// ReplaceMapAll is nil unless every slot was set to carry one source's
	// data.
	ReplaceMapAll *uint16

	ResampleRules  []ResampleRule
	ResampleRegion int64

	DumpSection    format.Section
	DumpBlock      *int64
	DumpSource     *uint16
	DumpWithMargin bool

	BakeFFTSize int
	// BakeSource is nil for "all sources".
	BakeSource []uint16

	PatchSection format.Section

	HexOffsets bool
}

// ReplaceEntry is one (slot, destination) pair of a partial remap.
type ReplaceEntry struct {
	Slot uint16
	To   uint16
}

// defaults returns the baseline Options every command starts from.
func defaults() *Options {
	return &Options{
		FormatIn:       format.TableAuto,
		FormatOut:      format.TablePretty,
		NumFracDelays:  0,
		ResampleRegion: 0,
		DumpSection:    format.SectionData,
		PatchSection:   format.SectionData,
		BakeFFTSize:    0,
	}
}

// New builds an Options from defaults, applying opts in order.
func New(opts ...options.Option[*Options]) (*Options, error) {
	o := defaults()
	if err := options.Apply(o, opts...); err != nil {
		return nil, err
	}

	return o, nil
}

// WithFormatIn sets the delay-table input format.
func WithFormatIn(f format.TableFormat) options.Option[*Options] {
	return options.NoError[*Options](func(o *Options) { o.FormatIn = f })
}

// WithFormatOut sets the output print format.
func WithFormatOut(f format.TableFormat) options.Option[*Options] {
	return options.NoError[*Options](func(o *Options) { o.FormatOut = f })
}

// WithSelectedSources restricts an operation to the given rf_input set.
func WithSelectedSources(sources []uint16) options.Option[*Options] {
	return options.NoError[*Options](func(o *Options) { o.SelectedSources = sources })
}

// WithNumFracDelays overrides auto-detection of the fractional-delay count.
func WithNumFracDelays(n int) options.Option[*Options] {
	return options.New[*Options](func(o *Options) error {
		if n < 0 {
			return errs.New(errs.InvalidArgument, "num_frac_delays must be >= 0, got %d", n)
		}

		o.NumFracDelays = n

		return nil
	})
}

// WithDelayTableFile sets the path a dt/repoint command reads its table
// from.
func WithDelayTableFile(path string) options.Option[*Options] {
	return options.NoError[*Options](func(o *Options) { o.DelayTableFilename = path })
}

// WithRepointZero requests repointing to a zero-valued target table.
func WithRepointZero(zero bool) options.Option[*Options] {
	return options.NoError[*Options](func(o *Options) { o.RepointZero = zero })
}

// WithForceDelays sets ForceDelays. No code in this module reads that
// field, so it changes no delay-table handling.
func WithForceDelays(force bool) options.Option[*Options] {
	return options.NoError[*Options](func(o *Options) { o.ForceDelays = force })
}

// WithReplaceMapAll makes every slot carry source to's data.
func WithReplaceMapAll(to uint16) options.Option[*Options] {
	return options.NoError[*Options](func(o *Options) { o.ReplaceMapAll = &to })
}

// WithReplaceMap appends one (slot, to) override.
func WithReplaceMap(slot, to uint16) options.Option[*Options] {
	return options.NoError[*Options](func(o *Options) {
		o.ReplaceMap = append(o.ReplaceMap, ReplaceEntry{Slot: slot, To: to})
	})
}

// WithResampleRule appends one per-source resample transform.
func WithResampleRule(source uint16, fn resample.Func) options.Option[*Options] {
	return options.NoError[*Options](func(o *Options) {
		o.ResampleRules = append(o.ResampleRules, ResampleRule{Source: source, Transform: fn})
	})
}

// WithResampleRegion sets how many neighbouring samples on either side of
// each sample a resample transform's window may examine.
func WithResampleRegion(region int64) options.Option[*Options] {
	return options.NoError[*Options](func(o *Options) { o.ResampleRegion = region })
}

// WithDumpTarget selects which section, block, and source a dump command
// extracts. block and source are nil for "whole section".
func WithDumpTarget(section format.Section, block, source *int64) options.Option[*Options] {
	return options.NoError[*Options](func(o *Options) {
		o.DumpSection = section
		o.DumpBlock = block

		if source != nil {
			s := uint16(*source)
			o.DumpSource = &s
		}
	})
}

// WithDumpWithMargin includes the margin section's neighbouring samples in
// a data dump.
func WithDumpWithMargin(with bool) options.Option[*Options] {
	return options.NoError[*Options](func(o *Options) { o.DumpWithMargin = with })
}

// WithBakeFFTSize sets the chunk size an FFT bake transform operates over.
func WithBakeFFTSize(n int) options.Option[*Options] {
	return options.New[*Options](func(o *Options) error {
		if n <= 0 || n&(n-1) != 0 {
			return errs.New(errs.InvalidArgument, "bake_fft_size must be a positive power of two, got %d", n)
		}

		o.BakeFFTSize = n

		return nil
	})
}

// WithBakeSources restricts an FFT bake to the given rf_input set.
func WithBakeSources(sources []uint16) options.Option[*Options] {
	return options.NoError[*Options](func(o *Options) { o.BakeSource = sources })
}

// WithPatchSection selects which preamble section a patch command
// overwrites.
func WithPatchSection(section format.Section) options.Option[*Options] {
	return options.NoError[*Options](func(o *Options) { o.PatchSection = section })
}

// WithHexOffsets renders section/block offsets in hexadecimal instead of
// decimal.
func WithHexOffsets(hex bool) options.Option[*Options] {
	return options.NoError[*Options](func(o *Options) { o.HexOffsets = hex })
}
