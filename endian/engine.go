// Package endian provides byte-order utilities for the little-endian binary
// layout subfiles use throughout (headers, delay tables, margins, and data
// blocks are all little-endian, per spec).
//
// Every multi-byte field in a subfile is little-endian, so subtool does not
// need the teacher's pluggable big/little engine selection; what's kept from
// that idiom is the host-endianness check (HostLittleEndian). No other
// package in this module reads it.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// LE is the byte order used for every subfile field.
var LE = binary.LittleEndian

// hostIsLittleEndian uses a fixed integer value to determine the host's
// native byte order.
func hostIsLittleEndian() bool {
	var i uint16 = 0x0100
	b := (*[2]byte)(unsafe.Pointer(&i))

	return b[0] != 0x01
}

// HostLittleEndian reports whether the running process's native byte order
// is little-endian. Since subfile data is always little-endian, this tells
// callers whether raw byte slices can be treated as native-order sample
// arrays without a swap.
var HostLittleEndian = hostIsLittleEndian()
