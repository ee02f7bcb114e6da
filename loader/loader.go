// Package loader ties together the header, metadata, and delay-table codecs
// to open a subfile and expose a ready-to-use Reader plus the subfile's
// ordered source list and v1->v2 upgrade path.
package loader

import (
	"io"
	"os"

	"github.com/MWATelescope/subtool/delaytable"
	"github.com/MWATelescope/subtool/errs"
	"github.com/MWATelescope/subtool/format"
	"github.com/MWATelescope/subtool/header"
	"github.com/MWATelescope/subtool/metadata"
	"github.com/MWATelescope/subtool/reader"
)

// Loader holds a subfile's parsed header, derived geometry, delay table, and
// a cached Reader over its data blocks.
type Loader struct {
	closer io.Closer
	header *header.Header
	meta   *metadata.Metadata
	table  delaytable.Table
	reader *reader.Reader
}

// Open opens path and parses its header and delay table.
func Open(path string) (*Loader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.IoFailure, err, "open %s", path)
	}

	l, err := New(f, f)
	if err != nil {
		f.Close()

		return nil, err
	}

	return l, nil
}

// New builds a Loader over an already-open io.ReaderAt (e.g. a bytes.Reader
// in tests). closer, if non-nil, is closed by (*Loader).Close.
func New(ra io.ReaderAt, closer io.Closer) (*Loader, error) {
	hdrBuf := make([]byte, header.Length)
	if _, err := ra.ReadAt(hdrBuf, 0); err != nil && err != io.EOF {
		return nil, errs.Wrap(errs.IoFailure, err, "read header")
	}

	h, err := header.Parse(hdrBuf)
	if err != nil {
		return nil, err
	}

	meta, err := metadata.New(h)
	if err != nil {
		return nil, err
	}

	r := reader.New(ra, meta)

	dtBuf, err := r.ReadSection(format.SectionDelayTable)
	if err != nil {
		return nil, err
	}

	table, err := delaytable.ParseBinary(dtBuf, meta.MwaxSubVersion, int(meta.NumSources), int(meta.NumFracDelays))
	if err != nil {
		return nil, err
	}

	return &Loader{closer: closer, header: h, meta: meta, table: table, reader: r}, nil
}

// Close releases the underlying file, if one was opened.
func (l *Loader) Close() error {
	if l.closer == nil {
		return nil
	}

	return l.closer.Close()
}

// Header returns the parsed header.
func (l *Loader) Header() *header.Header { return l.header }

// Metadata returns the derived geometry.
func (l *Loader) Metadata() *metadata.Metadata { return l.meta }

// DelayTable returns the parsed delay table.
func (l *Loader) DelayTable() delaytable.Table { return l.table }

// Reader returns the cached block reader.
func (l *Loader) Reader() *reader.Reader { return l.reader }

// Sources returns the ordered rf_input list: block line i carries the
// stream for Sources()[i]. This is derived from the delay table's row
// order, the only field in the subfile layout that records it.
func (l *Loader) Sources() []uint16 { return l.table.RfInputs() }

// Upgraded is the set of components an Upgrade produces: the header and
// delay table are rewritten for v2's wider layout; data blocks are
// untouched and still read through the original Loader's Reader.
type Upgraded struct {
	Header   *header.Header
	Metadata *metadata.Metadata
	Table    delaytable.Table
	UDPMap   []byte
	Margin   []byte
}

// Upgrade computes the v2 header/metadata/delay-table this subfile would
// have after an in-place v1->v2 upgrade (spec §4.10). If the subfile is
// already v2, it returns the unchanged components. The caller writes the
// result out via the writer package; Upgrade itself performs no I/O beyond
// reading the udpmap and margin sections (which move within the preamble
// block and so must be captured before the metadata changes under them).
func (l *Loader) Upgrade() (*Upgraded, error) {
	udpmap, err := l.reader.ReadSection(format.SectionUDPMap)
	if err != nil {
		return nil, err
	}

	margin, err := l.reader.ReadSection(format.SectionMargin)
	if err != nil {
		return nil, err
	}

	if l.meta.MwaxSubVersion == format.V2 {
		return &Upgraded{Header: l.header, Metadata: l.meta, Table: l.table, UDPMap: udpmap, Margin: margin}, nil
	}

	newHeader := cloneHeader(l.header)
	if err := newHeader.Set("FRAC_DELAY_SIZE", int64(4), true); err != nil {
		return nil, err
	}
	if err := newHeader.Set("MWAX_SUB_VER", int64(2), true); err != nil {
		return nil, err
	}

	newMeta, err := metadata.New(newHeader)
	if err != nil {
		return nil, err
	}

	newTable := l.table.Clone()
	newTable.Version = format.V2

	return &Upgraded{Header: newHeader, Metadata: newMeta, Table: newTable, UDPMap: udpmap, Margin: margin}, nil
}

// cloneHeader rebuilds a Header from key's current string representation,
// since header.Header exposes no direct copy constructor.
func cloneHeader(h *header.Header) *header.Header {
	out := header.New()
	for _, key := range h.Keys() {
		v, _ := h.GetString(key)
		_ = out.Set(key, v, true)
	}

	return out
}
