// Package remap implements the source-slot permutation transform: each
// output block's line i is copied verbatim from the input block's line for
// whatever source the mapping says should appear at slot i.
package remap

import (
	"io"

	"github.com/MWATelescope/subtool/errs"
	"github.com/MWATelescope/subtool/reader"
)

// Mapping is a dense source_id -> source_id permutation. A Mapping built by
// Identity or MapAll always has exactly one entry per element of sources.
type Mapping struct {
	sources []uint16
	target  []uint16 // target[i] = the source_id whose data slot i should carry
}

// Identity returns the no-op mapping over sources (slot i carries sources[i]
// unchanged).
func Identity(sources []uint16) Mapping {
	target := append([]uint16(nil), sources...)

	return Mapping{sources: sources, target: target}
}

// MapAll returns a mapping where every slot carries source src's data.
func MapAll(sources []uint16, src uint16) (Mapping, error) {
	if indexOf(sources, src) < 0 {
		return Mapping{}, errs.New(errs.InvalidArgument, "map-all: source %d is not present in this subfile", src)
	}

	target := make([]uint16, len(sources))
	for i := range target {
		target[i] = src
	}

	return Mapping{sources: sources, target: target}, nil
}

// Set overrides the entry for slot holding source `slot` so that it instead
// carries source `to`'s data ("--map=slot:to"). Both must be present sources.
func (m Mapping) Set(slot, to uint16) (Mapping, error) {
	si := indexOf(m.sources, slot)
	if si < 0 {
		return m, errs.New(errs.InvalidArgument, "map: slot source %d is not present in this subfile", slot)
	}

	if indexOf(m.sources, to) < 0 {
		return m, errs.New(errs.InvalidArgument, "map: target source %d is not present in this subfile", to)
	}

	out := Mapping{sources: m.sources, target: append([]uint16(nil), m.target...)}
	out.target[si] = to

	return out, nil
}

func indexOf(sources []uint16, src uint16) int {
	for i, s := range sources {
		if s == src {
			return i
		}
	}

	return -1
}

// Engine streams remapped data blocks from a Reader's source subfile.
type Engine struct {
	r       *reader.Reader
	mapping Mapping
}

// New builds a remap Engine.
func New(r *reader.Reader, mapping Mapping) *Engine {
	return &Engine{r: r, mapping: mapping}
}

// Run streams the remapped data blocks (1..BlocksPerSub, in order) to out.
func (e *Engine) Run(out io.Writer) error {
	meta := e.r.Metadata()

	// Resolve each output slot's source line index once, up front.
	lineIdx := make([]int64, len(e.mapping.target))
	for slot, src := range e.mapping.target {
		idx := indexOf(e.mapping.sources, src)
		if idx < 0 {
			return errs.New(errs.InvalidArgument, "remap: slot %d maps to source %d, which is not present", slot, src)
		}

		lineIdx[slot] = int64(idx)
	}

	for block := int64(1); block <= meta.BlocksPerSub; block++ {
		data, err := e.r.ReadBlock(block)
		if err != nil {
			return err
		}

		outBlock := make([]byte, meta.BlockLength)

		for slot := int64(0); slot < meta.NumSources; slot++ {
			srcIdx := lineIdx[slot]
			srcLine := data[srcIdx*meta.SubLineSize : (srcIdx+1)*meta.SubLineSize]
			dstLine := outBlock[slot*meta.SubLineSize : (slot+1)*meta.SubLineSize]
			copy(dstLine, srcLine)
		}

		if _, err := out.Write(outBlock); err != nil {
			return errs.New(errs.IoFailure, "remap: write block %d: %v", block, err)
		}
	}

	return nil
}
