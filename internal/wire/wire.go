// Package wire implements the fixed-width binary primitives of the
// STAR layout. Every multi-byte integer in the format is a
// little-endian unsigned value of a fixed width; no other package
// touches byte order directly.
package wire

import "encoding/binary"

const (
	// U64Size is the width of every fixed integer field in the format.
	U64Size = 8

	// MagicSize is the width of the magic tag.
	MagicSize = 4

	// HeaderSize is the on-wire size of the archive header: the magic
	// tag followed by the u64 entry count.
	HeaderSize = MagicSize + U64Size

	// EntryFixedSize is the on-wire size of the fixed portion of one
	// entry header: size, offset and path_len, each a u64. The
	// variable-length path bytes follow immediately.
	EntryFixedSize = 3 * U64Size
)

// AppendU64 appends v to b in little-endian order.
func AppendU64(b []byte, v uint64) []byte {
	return binary.LittleEndian.AppendUint64(b, v)
}

// U64 decodes a little-endian u64 from the first 8 bytes of b.
func U64(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b)
}
