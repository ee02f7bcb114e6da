// Package archive provides optional zstd compression for subtool's dump
// command, grounded on the teacher's pooled-encoder pattern
// (compress/zstd_pure.go) but simplified to one-shot use: dump output is a
// single buffer per invocation, not a pool of reused streams.
//
// pierrec/lz4 and valyala/gozstd, the teacher pack's other two compression
// libraries, have no home in subtool: dump's compressed output has no
// streaming or cgo constraint that would favour either over klauspost's
// pure-Go zstd, so the extra dependency isn't justified.
package archive

import (
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/MWATelescope/subtool/errs"
)

// Compress zstd-compresses data at the default speed/ratio tradeoff.
func Compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, errs.Wrap(errs.IoFailure, err, "open zstd encoder")
	}
	defer enc.Close()

	return enc.EncodeAll(data, nil), nil
}

// Decompress reverses Compress.
func Decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errs.Wrap(errs.IoFailure, err, "open zstd decoder")
	}
	defer dec.Close()

	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidFormat, err, "zstd decompress")
	}

	return out, nil
}

// CopyCompressed streams src through a zstd encoder into dst, for callers
// that hold an io.Reader rather than a materialised buffer.
func CopyCompressed(dst io.Writer, src io.Reader) error {
	enc, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return errs.Wrap(errs.IoFailure, err, "open zstd encoder")
	}

	if _, err := io.Copy(enc, src); err != nil {
		enc.Close()

		return errs.Wrap(errs.IoFailure, err, "compress stream")
	}

	return enc.Close()
}
