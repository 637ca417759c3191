package star

import (
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/siiky/star/internal/wire"
)

// DefaultMaxFiles caps the entry count Read accepts when no
// WithMaxFiles option is given.
const DefaultMaxFiles = 1 << 20

// ReadOption configures Read.
type ReadOption func(*readConfig)

type readConfig struct {
	maxFiles uint64
	logger   *slog.Logger
}

// WithMaxFiles limits the declared entry count Read accepts before
// allocating the metadata and data tables. Set limit to 0 to disable
// the limit.
func WithMaxFiles(limit uint64) ReadOption {
	return func(c *readConfig) {
		c.maxFiles = limit
	}
}

// WithLogger attaches a logger for debug-level read events.
func WithLogger(logger *slog.Logger) ReadOption {
	return func(c *readConfig) {
		c.logger = logger
	}
}

// log returns the logger, falling back to a discard logger if nil.
func (c *readConfig) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// ReadHeader consumes exactly the fixed header layout from r.
//
// It returns ErrBadMagic when the magic tag does not match and wraps
// the underlying read error when fewer than HeaderSize bytes are
// available.
func ReadHeader(r io.Reader) (Header, error) {
	var buf [wire.HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, fmt.Errorf("star: read header: %w", err)
	}

	var h Header
	copy(h.Magic[:], buf[:wire.MagicSize])
	h.FileCount = wire.U64(buf[wire.MagicSize:])

	if !h.Valid() {
		return h, ErrBadMagic
	}
	return h, nil
}

// ReadEntries reads the entry-metadata table from r into the archive's
// metadata slots, one entry at a time: the three fixed u64 fields,
// then exactly path_len path bytes. The header's file count must
// already be known; the table is allocated here when absent.
//
// Truncation is not an error at this level: ReadEntries returns the
// number of entries fully read, and a partially-read entry is
// discarded rather than installed. Callers detect truncation by
// comparing the result against Header().FileCount. A table that
// cannot be allocated counts as zero entries read.
func (a *Archive) ReadEntries(r io.Reader) uint64 {
	if a.entries == nil {
		if a.header.FileCount > uint64(math.MaxInt) {
			return 0
		}
		a.entries = make([]Entry, a.header.FileCount)
	}

	var fixed [wire.EntryFixedSize]byte
	var n uint64
	for n = 0; n < a.header.FileCount; n++ {
		if n >= uint64(len(a.entries)) {
			break
		}
		if _, err := io.ReadFull(r, fixed[:]); err != nil {
			break
		}

		e := Entry{
			Size:   wire.U64(fixed[0:]),
			Offset: wire.U64(fixed[8:]),
		}
		pathLen := wire.U64(fixed[16:])
		if pathLen > uint64(math.MaxInt) {
			break
		}

		path := make([]byte, pathLen)
		if _, err := io.ReadFull(r, path); err != nil {
			break
		}
		e.Path = path

		a.entries[n] = e
	}
	return n
}

// ReadData reads the entry-data table from r: exactly Size bytes per
// entry, in entry order. The metadata table must already be populated
// with correct sizes; the data table is allocated here when absent.
//
// The short-count contract matches ReadEntries: entries whose buffer
// cannot be read in full are discarded and not counted.
func (a *Archive) ReadData(r io.Reader) uint64 {
	if a.data == nil {
		if a.header.FileCount > uint64(math.MaxInt) {
			return 0
		}
		a.data = make([][]byte, a.header.FileCount)
	}

	var n uint64
	for n = 0; n < a.header.FileCount; n++ {
		if n >= uint64(len(a.entries)) || n >= uint64(len(a.data)) {
			break
		}
		size := a.entries[n].Size
		if size > uint64(math.MaxInt) {
			break
		}

		buf := make([]byte, size)
		if _, err := io.ReadFull(r, buf); err != nil {
			break
		}

		a.data[n] = buf
	}
	return n
}

// Read reconstructs a complete Archive from r.
//
// It composes ReadHeader, ReadEntries and ReadData, and returns an
// archive only when every declared entry was read in full: a short
// metadata table or data block discards everything read so far and
// reports ErrTruncated, so a partially-usable archive never escapes.
// A magic mismatch reports ErrBadMagic and a declared entry count
// above the WithMaxFiles limit reports ErrTooManyFiles.
func Read(r io.Reader, opts ...ReadOption) (*Archive, error) {
	cfg := readConfig{maxFiles: DefaultMaxFiles}
	for _, opt := range opts {
		opt(&cfg)
	}

	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	cfg.log().Debug("header read", "file_count", h.FileCount)

	if cfg.maxFiles > 0 && h.FileCount > cfg.maxFiles {
		return nil, fmt.Errorf("%w: stream declares %d entries, limit %d", ErrTooManyFiles, h.FileCount, cfg.maxFiles)
	}

	a := &Archive{header: h}

	if n := a.ReadEntries(r); n != h.FileCount {
		cfg.log().Debug("metadata table short", "read", n, "want", h.FileCount)
		return nil, fmt.Errorf("%w: metadata table ends after entry %d of %d", ErrTruncated, n, h.FileCount)
	}
	if n := a.ReadData(r); n != h.FileCount {
		cfg.log().Debug("data block short", "read", n, "want", h.FileCount)
		return nil, fmt.Errorf("%w: data block ends after entry %d of %d", ErrTruncated, n, h.FileCount)
	}

	cfg.log().Debug("archive read", "file_count", h.FileCount)
	return a, nil
}
