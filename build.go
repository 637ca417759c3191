package star

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/siiky/star/internal/wire"
)

// AddFile fills slot idx with path and exactly size bytes read from
// src, overwriting whatever the slot held. The path is copied into an
// owned buffer with the terminator appended; the data buffer and the
// path are installed together, so a failure — index out of range,
// unusable path, short source read — leaves the slot untouched.
//
// A path that is empty or contains a zero byte cannot be stored in
// the format and is rejected.
func (a *Archive) AddFile(idx uint64, path string, size uint64, src io.Reader) error {
	if idx >= uint64(len(a.entries)) {
		return fmt.Errorf("%w: index %d out of range [0, %d)", ErrInvalidArgument, idx, len(a.entries))
	}
	if path == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidArgument)
	}
	if strings.IndexByte(path, 0) >= 0 {
		return fmt.Errorf("%w: terminator byte inside path %q", ErrInvalidArgument, path)
	}
	if size > uint64(math.MaxInt) {
		return fmt.Errorf("%w: size %d", ErrInvalidArgument, size)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(src, data); err != nil {
		return fmt.Errorf("star: add %q: read %d bytes: %w", path, size, err)
	}

	stored := make([]byte, 0, len(path)+1)
	stored = append(stored, path...)
	stored = append(stored, 0)

	a.entries[idx] = Entry{Size: size, Path: stored}
	a.data[idx] = data
	return nil
}

// ComputeOffsets derives every entry's data offset from the current
// metadata, assuming the layout WriteTo produces: all metadata is one
// contiguous block before any data, so the first entry's data starts
// at HeaderSize + FileCount*EntryFixedSize + the sum of all stored
// path lengths, and each later entry's data follows the previous
// entry's by its size.
//
// Call it after every slot's Size and Path are final and before
// relying on Offset for anything.
func (a *Archive) ComputeOffsets() error {
	if len(a.entries) == 0 {
		return fmt.Errorf("%w: archive has no entry slots", ErrInvalidArgument)
	}

	offset := uint64(wire.HeaderSize)
	offset += a.header.FileCount * wire.EntryFixedSize
	for i := range a.entries {
		offset += a.entries[i].PathLen()
	}

	a.entries[0].Offset = offset
	for i := 1; i < len(a.entries); i++ {
		a.entries[i].Offset = a.entries[i-1].Offset + a.entries[i-1].Size
	}
	return nil
}
