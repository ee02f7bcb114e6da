// Package writer assembles and streams a subfile to an io.Writer: a
// zero-initialised preamble carrying the header/delay-table/udpmap/margin
// sections, followed by the data blocks produced by whichever transform
// (or none) the OutputDescriptor selects.
package writer

import (
	"io"

	"github.com/MWATelescope/subtool/delaytable"
	"github.com/MWATelescope/subtool/errs"
	"github.com/MWATelescope/subtool/format"
	"github.com/MWATelescope/subtool/metadata"
	"github.com/MWATelescope/subtool/reader"
	"github.com/MWATelescope/subtool/transform/remap"
	"github.com/MWATelescope/subtool/transform/repoint"
	"github.com/MWATelescope/subtool/transform/resample"
)

// RepointParams carries a repoint transform's from/to delay tables.
type RepointParams struct {
	From, To delaytable.Table
}

// RemapParams carries a remap transform's source permutation.
type RemapParams struct {
	Mapping remap.Mapping
}

// ResampleParams carries a resample transform's per-source functions.
type ResampleParams struct {
	Sources    []uint16
	Transforms map[uint16]resample.Func
	Region     int64
}

// OutputDescriptor describes one subfile write: its target geometry, the
// content of each preamble section, and — if WriteData is set — which data
// transform to apply while streaming blocks from Source.
type OutputDescriptor struct {
	Meta *metadata.Metadata

	Header SectionContent
	DT     SectionContent
	UDPMap SectionContent
	Margin SectionContent

	WriteData bool
	Mode      format.TransformKind
	Source    *reader.Reader

	Repoint  *RepointParams
	Remap    *RemapParams
	Resample *ResampleParams
}

// Write executes the protocol: assemble and write the preamble, then (if
// requested) stream the data blocks through the selected transform.
func Write(desc *OutputDescriptor, out io.Writer) error {
	preamble := make([]byte, metadata.HeaderLength+desc.Meta.BlockLength)

	if err := place(preamble, desc.Header, desc.Meta.HeaderOffset); err != nil {
		return err
	}
	if err := place(preamble, desc.DT, desc.Meta.DtOffset); err != nil {
		return err
	}
	if err := place(preamble, desc.UDPMap, desc.Meta.UDPMapOffset); err != nil {
		return err
	}
	if err := place(preamble, desc.Margin, desc.Meta.MarginOffset); err != nil {
		return err
	}

	if _, err := out.Write(preamble); err != nil {
		return errs.New(errs.IoFailure, "writer: write preamble: %v", err)
	}

	if !desc.WriteData {
		return nil
	}

	switch desc.Mode {
	case format.TransformRepoint:
		if desc.Repoint == nil {
			return errs.New(errs.InvalidArgument, "writer: repoint mode selected without RepointParams")
		}

		eng, err := repoint.New(desc.Source, desc.Repoint.From, desc.Repoint.To)
		if err != nil {
			return err
		}

		return eng.Run(out)

	case format.TransformRemap:
		if desc.Remap == nil {
			return errs.New(errs.InvalidArgument, "writer: remap mode selected without RemapParams")
		}

		return remap.New(desc.Source, desc.Remap.Mapping).Run(out)

	case format.TransformResample:
		if desc.Resample == nil {
			return errs.New(errs.InvalidArgument, "writer: resample mode selected without ResampleParams")
		}

		eng := resample.New(desc.Source, desc.Resample.Sources, desc.Resample.Transforms, desc.Resample.Region)

		return eng.Run(out)

	default:
		return passthrough(desc.Source, out)
	}
}

// passthrough copies every data block verbatim.
func passthrough(r *reader.Reader, out io.Writer) error {
	meta := r.Metadata()

	for block := int64(1); block <= meta.BlocksPerSub; block++ {
		data, err := r.ReadBlock(block)
		if err != nil {
			return err
		}

		if _, err := out.Write(data); err != nil {
			return errs.New(errs.IoFailure, "passthrough: write block %d: %v", block, err)
		}
	}

	return nil
}

func place(buf []byte, content SectionContent, offset int64) error {
	if content == nil {
		return nil
	}

	b, err := content.bytes()
	if err != nil {
		return err
	}

	if offset < 0 || offset+int64(len(b)) > int64(len(buf)) {
		return errs.New(errs.OutOfRange,
			"writer: section content (%d bytes at offset %d) does not fit in the %d-byte preamble", len(b), offset, len(buf))
	}

	copy(buf[offset:], b)

	return nil
}
