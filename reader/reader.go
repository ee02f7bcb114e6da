// Package reader implements subtool's cached, validated positional reads:
// sections, blocks, lines within a block, and margin lines. Every read goes
// through the block cache (package cache) so that repoint/resample's
// sliding three-block window doesn't re-read the same block from disk
// twice.
package reader

import (
	"io"

	"github.com/MWATelescope/subtool/cache"
	"github.com/MWATelescope/subtool/errs"
	"github.com/MWATelescope/subtool/format"
	"github.com/MWATelescope/subtool/metadata"
)

// DefaultCacheBytes is the default cache capacity (spec §5): sized to hold
// several blocks at once.
const DefaultCacheBytes = 1 << 30 // 1 GiB

// BakeCacheBytes is the cache capacity the bake command uses: large enough
// to hold an entire subfile's blocks, since bake reads them in source-major
// order across the whole file and would otherwise thrash the cache.
const BakeCacheBytes = 6 << 30 // 6 GiB

// Reader provides cached, validated reads over an open subfile.
type Reader struct {
	file  io.ReaderAt
	meta  *metadata.Metadata
	cache *cache.Cache
}

// New creates a Reader over file using meta's geometry, with a
// DefaultCacheBytes-capacity cache.
func New(file io.ReaderAt, meta *metadata.Metadata) *Reader {
	return NewWithCache(file, meta, cache.New(DefaultCacheBytes))
}

// NewWithCache creates a Reader using an explicit cache (e.g. one sized via
// BakeCacheBytes for the bake command).
func NewWithCache(file io.ReaderAt, meta *metadata.Metadata, c *cache.Cache) *Reader {
	return &Reader{file: file, meta: meta, cache: c}
}

// WithCache returns a Reader over the same file and geometry but backed by
// c instead of r's current cache. Used by commands like bake that scan
// every block source-major and need a cache sized to hold the whole
// subfile (see BakeCacheBytes) rather than the default block-window size.
func (r *Reader) WithCache(c *cache.Cache) *Reader {
	return NewWithCache(r.file, r.meta, c)
}

// Metadata returns the subfile's derived geometry.
func (r *Reader) Metadata() *metadata.Metadata { return r.meta }

// Cache returns the underlying block cache, for diagnostics.
func (r *Reader) Cache() *cache.Cache { return r.cache }

// read performs the fundamental cached positional read: a cache lookup on
// miss followed by an exact-length read at position.
func (r *Reader) read(key cache.Key, position, length int64) ([]byte, error) {
	if buf, ok := r.cache.Get(key); ok {
		return buf, nil
	}

	buf := make([]byte, length)
	n, err := r.file.ReadAt(buf, position)
	if err != nil && err != io.EOF {
		return nil, errs.New(errs.IoFailure, "read at offset %d: %v", position, err)
	}
	if int64(n) != length {
		return nil, errs.New(errs.IoFailure, "short read at offset %d: wanted %d bytes, got %d", position, length, n)
	}

	r.cache.Add(key, buf)

	return buf, nil
}

// ReadSection reads a named section in full.
func (r *Reader) ReadSection(name format.Section) ([]byte, error) {
	if !r.meta.SectionPresent(name) {
		return nil, errs.New(errs.MissingResource, "section %v not present", name)
	}

	offset, length, err := r.meta.SectionOffsetLength(name)
	if err != nil {
		return nil, err
	}

	return r.read(cache.SectionKey(name.String()), offset, length)
}

// ReadBlock reads block idx (0 is the preamble block; 1..BlocksPerSub are
// data blocks).
func (r *Reader) ReadBlock(idx int64) ([]byte, error) {
	if idx < 0 || idx > r.meta.BlocksPerSub {
		return nil, errs.New(errs.OutOfRange, "block index %d out of range [0, %d]", idx, r.meta.BlocksPerSub)
	}

	return r.read(cache.BlockKey(idx), r.meta.BlockOffset(idx), r.meta.BlockLength)
}

// ReadBlockOrNull reads block idx, returning (nil, nil) instead of an error
// when idx falls outside [1, BlocksPerSub] — used by the repoint/resample
// sliding window at subfile edges, where there is no previous/next block.
func (r *Reader) ReadBlockOrNull(idx int64) ([]byte, error) {
	if idx <= 0 || idx > r.meta.BlocksPerSub {
		return nil, nil
	}

	return r.ReadBlock(idx)
}

// ReadLine returns the byte slice for source srcIdx within block blockIdx.
func (r *Reader) ReadLine(srcIdx int64, blockIdx int64) ([]byte, error) {
	block, err := r.ReadBlock(blockIdx)
	if err != nil {
		return nil, err
	}

	return r.sliceLine(block, srcIdx)
}

func (r *Reader) sliceLine(block []byte, srcIdx int64) ([]byte, error) {
	if srcIdx < 0 || srcIdx >= r.meta.NumSources {
		return nil, errs.New(errs.OutOfRange, "source index %d out of range [0, %d)", srcIdx, r.meta.NumSources)
	}

	start := srcIdx * r.meta.SubLineSize
	end := start + r.meta.SubLineSize

	return block[start:end], nil
}

// ReadMarginLine returns the head (first MarginSamples*2 bytes) or tail
// (next MarginSamples*2 bytes) margin region for source srcIdx.
func (r *Reader) ReadMarginLine(srcIdx int64, head bool) ([]byte, error) {
	if srcIdx < 0 || srcIdx >= r.meta.NumSources {
		return nil, errs.New(errs.OutOfRange, "source index %d out of range [0, %d)", srcIdx, r.meta.NumSources)
	}

	margin, err := r.ReadSection(format.SectionMargin)
	if err != nil {
		return nil, err
	}

	regionLen := r.meta.MarginSamples * metadata.BytesPerSample
	srcRegion := 2 * regionLen // head + tail per source
	base := srcIdx * srcRegion

	if head {
		return margin[base : base+regionLen], nil
	}

	return margin[base+regionLen : base+2*regionLen], nil
}
