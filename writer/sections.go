package writer

import (
	"github.com/MWATelescope/subtool/delaytable"
	"github.com/MWATelescope/subtool/header"
)

// SectionContent is a closed set of ways a preamble section's bytes can be
// supplied to Write: a raw buffer, a header object, or a delay table
// object (each serialised on demand). Implemented as an interface with an
// unexported method rather than a single tagged struct because the
// variants carry genuinely heterogeneous payloads.
type SectionContent interface {
	bytes() ([]byte, error)
}

// BufferContent supplies a section's bytes directly, already serialised.
type BufferContent []byte

func (b BufferContent) bytes() ([]byte, error) { return b, nil }

// HeaderContent serialises a Header on demand.
type HeaderContent struct{ Header *header.Header }

func (h HeaderContent) bytes() ([]byte, error) { return h.Header.Bytes() }

// DelayTableContent serialises a delay table on demand, in its own
// Version's binary layout.
type DelayTableContent struct{ Table delaytable.Table }

func (d DelayTableContent) bytes() ([]byte, error) { return delaytable.SerialiseBinary(d.Table) }
