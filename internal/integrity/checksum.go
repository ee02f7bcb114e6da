// Package integrity computes the section checksums subtool's info/verify
// path reports, grounded on the teacher's use of xxHash64 for its own
// content-addressed IDs (internal/hash).
package integrity

import (
	"io"

	"github.com/cespare/xxhash/v2"

	"github.com/MWATelescope/subtool/errs"
	"github.com/MWATelescope/subtool/format"
	"github.com/MWATelescope/subtool/reader"
)

// Checksum is the xxHash64 digest of one subfile section.
type Checksum struct {
	Section format.Section
	Sum     uint64
}

// SectionChecksums computes the checksum of every present section plus, if
// withData is set, the concatenation of all data blocks.
func SectionChecksums(r *reader.Reader, withData bool) ([]Checksum, error) {
	meta := r.Metadata()

	var out []Checksum

	for _, sec := range []format.Section{format.SectionHeader, format.SectionDelayTable, format.SectionUDPMap, format.SectionMargin} {
		if !meta.SectionPresent(sec) {
			continue
		}

		buf, err := r.ReadSection(sec)
		if err != nil {
			return nil, err
		}

		out = append(out, Checksum{Section: sec, Sum: xxhash.Sum64(buf)})
	}

	if !withData {
		return out, nil
	}

	h := xxhash.New()
	for block := int64(1); block <= meta.BlocksPerSub; block++ {
		data, err := r.ReadBlock(block)
		if err != nil {
			return nil, err
		}

		if _, err := h.Write(data); err != nil {
			return nil, errs.Wrap(errs.IoFailure, err, "hash block %d", block)
		}
	}

	out = append(out, Checksum{Section: format.SectionData, Sum: h.Sum64()})

	return out, nil
}

// Sum hashes everything r yields, for content that wasn't read through a
// Reader.
func Sum(r io.Reader) (uint64, error) {
	h := xxhash.New()
	if _, err := io.Copy(h, r); err != nil {
		return 0, errs.Wrap(errs.IoFailure, err, "hash stream")
	}

	return h.Sum64(), nil
}
