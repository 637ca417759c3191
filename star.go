package star

import (
	"errors"
	"fmt"
	"iter"
	"math"

	"github.com/siiky/star/internal/wire"
)

// Magic is the 4-byte tag at the start of every STAR archive.
var Magic = [4]byte{0x53, 0x54, 0x41, 0x52} // "STAR"

// On-wire sizes of the format's fixed regions.
const (
	// HeaderSize is the size of the archive header: the magic tag
	// followed by the u64 entry count.
	HeaderSize = wire.HeaderSize

	// EntryFixedSize is the size of the fixed portion of one entry's
	// metadata record (size, offset, path_len). The stored path bytes
	// follow immediately.
	EntryFixedSize = wire.EntryFixedSize
)

// Sentinel errors.
var (
	// ErrBadMagic is returned when a stream's magic tag does not match Magic.
	ErrBadMagic = errors.New("star: bad magic")

	// ErrTruncated is returned by Read when the stream ends before the
	// declared metadata table or data block is complete.
	ErrTruncated = errors.New("star: truncated archive")

	// ErrIncomplete is returned by WriteTo when the archive has empty
	// slots or inconsistent metadata.
	ErrIncomplete = errors.New("star: incomplete archive")

	// ErrInvalidArgument is returned for out-of-range or otherwise
	// unusable arguments.
	ErrInvalidArgument = errors.New("star: invalid argument")

	// ErrTooManyFiles is returned by Read when a stream declares more
	// entries than the configured limit.
	ErrTooManyFiles = errors.New("star: too many files")
)

// Header is the fixed archive header.
type Header struct {
	Magic     [4]byte
	FileCount uint64
}

// Valid reports whether the header's magic tag matches Magic.
func (h Header) Valid() bool {
	return h.Magic == Magic
}

// Entry is the metadata of one archived file.
type Entry struct {
	// Size is the byte length of the entry's data.
	Size uint64

	// Offset is the byte offset, from the start of the archive stream,
	// to the entry's data. ComputeOffsets derives it on the build path;
	// Read keeps whatever the stream carried.
	Offset uint64

	// Path is the stored path buffer, trailing terminator byte
	// included. AddFile stores the terminator as the only zero byte;
	// an archive read from an arbitrary stream carries whatever bytes
	// were stored, which WriteTo re-validates.
	Path []byte
}

// PathLen returns the wire path_len field: the stored path length,
// terminator included.
func (e Entry) PathLen() uint64 {
	return uint64(len(e.Path))
}

// Name returns the logical name: the stored path without its trailing
// terminator.
func (e Entry) Name() string {
	return string(logicalName(e))
}

// filled reports whether the slot's metadata has been populated.
func (e Entry) filled() bool {
	return e.Path != nil
}

// Archive is the in-memory form of one STAR container: the header and
// the parallel metadata and data tables, index i of both referring to
// the same logical file.
//
// An Archive is built slot by slot (New then AddFile) or reconstructed
// whole from a stream (Read); it is not safe for concurrent mutation.
type Archive struct {
	header  Header
	entries []Entry
	data    [][]byte
}

// New returns an Archive with fileCount reserved, unfilled slots,
// ready for AddFile. The file count is fixed for the archive's
// lifetime; a zero count is rejected.
func New(fileCount uint64) (*Archive, error) {
	if fileCount == 0 {
		return nil, fmt.Errorf("%w: zero file count", ErrInvalidArgument)
	}
	if fileCount > uint64(math.MaxInt) {
		return nil, fmt.Errorf("%w: file count %d", ErrInvalidArgument, fileCount)
	}

	return &Archive{
		header:  Header{Magic: Magic, FileCount: fileCount},
		entries: make([]Entry, fileCount),
		data:    make([][]byte, fileCount),
	}, nil
}

// Header returns a copy of the archive header.
func (a *Archive) Header() Header {
	return a.header
}

// CheckHeader reports whether the archive's magic tag matches Magic.
// It is checked on every read and before every write; an archive that
// fails it is never valid input.
func (a *Archive) CheckHeader() bool {
	return a.header.Valid()
}

// Len returns the number of entry slots, filled or not.
func (a *Archive) Len() int {
	return len(a.entries)
}

// Entry returns a copy of the metadata in slot i. ok is false when i
// is out of range or the slot is unfilled. The Path field aliases the
// stored buffer and must be treated as read-only.
func (a *Archive) Entry(i int) (Entry, bool) {
	if i < 0 || i >= len(a.entries) || !a.entries[i].filled() {
		return Entry{}, false
	}
	return a.entries[i], true
}

// Data returns the raw data bytes of slot i. ok is false when i is
// out of range or the slot has no data. The returned slice aliases
// the archive's buffer and must be treated as read-only.
func (a *Archive) Data(i int) ([]byte, bool) {
	if i < 0 || i >= len(a.data) || a.data[i] == nil {
		return nil, false
	}
	return a.data[i], true
}

// Entries returns an iterator over the filled entries in slot order.
// The yielded Path fields alias the archive's buffers.
func (a *Archive) Entries() iter.Seq2[int, Entry] {
	return func(yield func(int, Entry) bool) {
		for i := range a.entries {
			if !a.entries[i].filled() {
				continue
			}
			if !yield(i, a.entries[i]) {
				return
			}
		}
	}
}

// logicalName returns the stored path without its terminator, or nil
// for an unfilled slot.
func logicalName(e Entry) []byte {
	if len(e.Path) == 0 {
		return nil
	}
	return e.Path[:len(e.Path)-1]
}
