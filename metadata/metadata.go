// Package metadata derives a subfile's geometry (offsets, lengths, counts)
// from its parsed header. A Metadata value is immutable after creation; the
// upgrade operation (§4.10) derives a new value with New from the upgraded
// header rather than mutating the old one.
package metadata

import (
	"github.com/MWATelescope/subtool/errs"
	"github.com/MWATelescope/subtool/format"
	"github.com/MWATelescope/subtool/header"
)

// Program-wide constants; these are not read from the header.
const (
	SamplesPerPacket = 2048
	MarginPackets    = 2
	FFTPerBlock      = 10
	HeaderLength     = 4096
	BytesPerSample   = 2 // one complex 8-bit sample = 2 bytes
)

// Metadata is the derived geometry of one open subfile. See spec §3 for the
// field definitions and invariants.
type Metadata struct {
	ObservationID    int64
	SubobservationID int64

	SampleRate     int64
	SecsPerSubobs  int64
	SamplesPerLine int64
	NumSources     int64
	MwaxSubVersion format.SubVersion

	// Derived.
	BlocksPerSub   int64
	SubLineSize    int64
	BlockLength    int64
	NumFracDelays  int64
	MarginSamples  int64
	FracDelaySize  int64
	DtEntryMinSize int64
	DtLength       int64
	UDPMapLength   int64
	MarginLength   int64

	// Offsets.
	HeaderOffset int64
	DtOffset     int64
	UDPMapOffset int64
	MarginOffset int64
	DataOffset   int64
}

// requireExactDiv performs an integer division that spec mandates must be
// exact, failing loudly (this is a file-parsing boundary, not an internal
// invariant) if the header describes a subfile whose geometry doesn't divide
// evenly.
func requireExactDiv(field string, num, den int64) (int64, error) {
	if den == 0 {
		return 0, errs.New(errs.InvalidFormat, "%s: division by zero (denominator 0)", field)
	}
	if num%den != 0 {
		return 0, errs.New(errs.InvalidFormat, "%s: %d does not divide evenly by %d", field, num, den)
	}

	return num / den, nil
}

// New derives a Metadata from a parsed header.
func New(h *header.Header) (*Metadata, error) {
	obsID, _ := h.GetInt("OBS_ID")
	subobsID, _ := h.GetInt("SUBOBS_ID")

	sampleRate, ok := h.GetInt("SAMPLE_RATE")
	if !ok {
		return nil, errs.New(errs.MissingResource, "header missing required field SAMPLE_RATE")
	}

	secsPerSubobs, ok := h.GetInt("SECS_PER_SUBOBS")
	if !ok {
		return nil, errs.New(errs.MissingResource, "header missing required field SECS_PER_SUBOBS")
	}

	samplesPerLine, ok := h.GetInt("NTIMESAMPLES")
	if !ok {
		return nil, errs.New(errs.MissingResource, "header missing required field NTIMESAMPLES")
	}

	numSources, ok := h.GetInt("NINPUTS")
	if !ok {
		return nil, errs.New(errs.MissingResource, "header missing required field NINPUTS")
	}

	subVerRaw, ok := h.GetInt("MWAX_SUB_VER")
	if !ok {
		return nil, errs.New(errs.MissingResource, "header missing required field MWAX_SUB_VER")
	}

	var subVer format.SubVersion
	switch subVerRaw {
	case 1:
		subVer = format.V1
	case 2:
		subVer = format.V2
	default:
		return nil, errs.New(errs.InvalidFormat, "MWAX_SUB_VER must be 1 or 2, got %d", subVerRaw)
	}

	m := &Metadata{
		ObservationID:    obsID,
		SubobservationID: subobsID,
		SampleRate:       sampleRate,
		SecsPerSubobs:    secsPerSubobs,
		SamplesPerLine:   samplesPerLine,
		NumSources:       numSources,
		MwaxSubVersion:   subVer,
		HeaderOffset:     0,
	}

	if err := m.recompute(); err != nil {
		return nil, err
	}

	return m, nil
}

// recompute derives every geometry field from the base fields. It is called
// from New.
func (m *Metadata) recompute() error {
	blocksPerSub, err := requireExactDiv("blocks_per_sub", m.SampleRate*m.SecsPerSubobs, m.SamplesPerLine)
	if err != nil {
		return err
	}

	m.BlocksPerSub = blocksPerSub
	m.SubLineSize = m.SamplesPerLine * BytesPerSample
	m.BlockLength = m.SubLineSize * m.NumSources
	m.NumFracDelays = m.BlocksPerSub * FFTPerBlock
	m.MarginSamples = MarginPackets * SamplesPerPacket
	m.FracDelaySize = int64(m.MwaxSubVersion.FracDelaySize())
	m.DtEntryMinSize = int64(m.MwaxSubVersion.EntryMinSize())
	m.DtLength = m.NumSources * (m.DtEntryMinSize + m.NumFracDelays*m.FracDelaySize)

	udpmapDiv, err := requireExactDiv("udpmap_length", m.SampleRate*m.SecsPerSubobs, SamplesPerPacket)
	if err != nil {
		return err
	}

	udpmapLen, err := requireExactDiv("udpmap_length", m.NumSources*udpmapDiv, 8)
	if err != nil {
		return err
	}

	m.UDPMapLength = udpmapLen
	m.MarginLength = m.NumSources * m.MarginSamples * BytesPerSample * 2

	m.DtOffset = HeaderLength
	m.UDPMapOffset = m.DtOffset + m.DtLength
	m.MarginOffset = m.UDPMapOffset + m.UDPMapLength
	m.DataOffset = HeaderLength + m.BlockLength

	preambleUsed := m.DtLength + m.UDPMapLength + m.MarginLength
	if preambleUsed > m.BlockLength {
		return errs.New(errs.InvalidFormat,
			"preamble sections (dt+udpmap+margin = %d bytes) do not fit in one block (%d bytes)",
			preambleUsed, m.BlockLength)
	}

	return nil
}

// SectionPresent reports whether a named section exists in this subfile's
// layout. All declared sections are always present; the method exists so
// reader.Reader can express its "requires name_present" precondition as a
// metadata query rather than a hardcoded assumption.
func (m *Metadata) SectionPresent(s format.Section) bool {
	switch s {
	case format.SectionHeader, format.SectionDelayTable, format.SectionUDPMap, format.SectionMargin, format.SectionData:
		return true
	default:
		return false
	}
}

// SectionOffsetLength returns the byte offset and length of a named section.
// SectionData's length is the full data region (BlocksPerSub * BlockLength);
// block 0 (the preamble) is addressed separately via read_block(0).
func (m *Metadata) SectionOffsetLength(s format.Section) (offset, length int64, err error) {
	switch s {
	case format.SectionHeader:
		return m.HeaderOffset, HeaderLength, nil
	case format.SectionDelayTable:
		return m.DtOffset, m.DtLength, nil
	case format.SectionUDPMap:
		return m.UDPMapOffset, m.UDPMapLength, nil
	case format.SectionMargin:
		return m.MarginOffset, m.MarginLength, nil
	case format.SectionData:
		return m.DataOffset, m.BlocksPerSub * m.BlockLength, nil
	default:
		return 0, 0, errs.New(errs.MissingResource, "section %v not present in metadata", s)
	}
}

// BlockOffset returns the byte offset of block idx (idx == 0 is the
// preamble block; idx >= 1 is a data block).
func (m *Metadata) BlockOffset(idx int64) int64 {
	return HeaderLength + idx*m.BlockLength
}
