// Package format defines the small closed enumerations shared across
// subtool's core packages: subfile version, section names, and the CLI's
// input/output format selectors. Grouping them here (rather than in the
// packages that consume them) keeps the wire-format vocabulary in one place,
// the way the teacher's format package centralizes its encoding/compression
// enums.
package format

// SubVersion identifies the on-disk delay-table layout: v1 (int16 millisample
// fractional delays) or v2 (float32 sample fractional delays, wider entry).
type SubVersion uint8

const (
	V1 SubVersion = 1
	V2 SubVersion = 2
)

func (v SubVersion) String() string {
	switch v {
	case V1:
		return "v1"
	case V2:
		return "v2"
	default:
		return "unknown"
	}
}

// FracDelaySize returns the on-disk size in bytes of one fractional-delay
// sample for this version (2 for v1 int16 millisamples, 4 for v2 float32
// samples).
func (v SubVersion) FracDelaySize() int {
	if v == V1 {
		return 2
	}

	return 4
}

// EntryMinSize returns the fixed (non-fractional-delay) portion size of one
// delay-table row for this version.
func (v SubVersion) EntryMinSize() int {
	if v == V1 {
		return 20
	}

	return 56
}

// Section names a region of the subfile preamble.
type Section uint8

const (
	SectionHeader Section = iota + 1
	SectionDelayTable
	SectionUDPMap
	SectionMargin
	SectionData
)

func (s Section) String() string {
	switch s {
	case SectionHeader:
		return "header"
	case SectionDelayTable:
		return "dt"
	case SectionUDPMap:
		return "udpmap"
	case SectionMargin:
		return "margin"
	case SectionData:
		return "data"
	default:
		return "unknown"
	}
}

// TableFormat selects the encoding used to read or write a delay table on
// the CLI boundary.
type TableFormat uint8

const (
	// TableAuto means "detect from content"; valid only as an input format.
	TableAuto TableFormat = iota + 1
	TableCSV
	TableBinary
	// TablePretty is an output-only format (human-readable listing).
	TablePretty
)

func (f TableFormat) String() string {
	switch f {
	case TableAuto:
		return "auto"
	case TableCSV:
		return "csv"
	case TableBinary:
		return "bin"
	case TablePretty:
		return "pretty"
	default:
		return "unknown"
	}
}

// TransformKind selects the subfile writer's data-block transform mode.
type TransformKind uint8

const (
	TransformPassthrough TransformKind = iota
	TransformRepoint
	TransformRemap
	TransformResample
)

func (k TransformKind) String() string {
	switch k {
	case TransformPassthrough:
		return "passthrough"
	case TransformRepoint:
		return "repoint"
	case TransformRemap:
		return "remap"
	case TransformResample:
		return "resample"
	default:
		return "unknown"
	}
}
