package star

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/siiky/star/internal/wire"
)

// WriteTo serializes the archive to w in the STAR binary layout: the
// header, one pass of entry metadata (the fixed fields followed by
// the raw path bytes), then one pass of raw entry data.
//
// Every slot is validated before the first byte is emitted: the magic
// tag must match, both tables must be allocated at the declared file
// count, and every slot must hold a data buffer and a path whose
// final byte is its sole terminator. A violation reports
// ErrIncomplete and writes nothing. An underlying write failure is
// reported immediately and leaves w truncated; WriteTo guarantees
// atomicity of its input validation, not of the output stream.
func (a *Archive) WriteTo(w io.Writer) (int64, error) {
	if err := a.checkComplete(); err != nil {
		return 0, err
	}

	var written int64

	buf := make([]byte, 0, wire.HeaderSize)
	buf = append(buf, a.header.Magic[:]...)
	buf = wire.AppendU64(buf, a.header.FileCount)
	n, err := w.Write(buf)
	written += int64(n)
	if err != nil {
		return written, fmt.Errorf("star: write header: %w", err)
	}

	for i := range a.entries {
		e := &a.entries[i]
		buf = buf[:0]
		buf = wire.AppendU64(buf, e.Size)
		buf = wire.AppendU64(buf, e.Offset)
		buf = wire.AppendU64(buf, e.PathLen())
		buf = append(buf, e.Path...)
		n, err = w.Write(buf)
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("star: write entry %d metadata: %w", i, err)
		}
	}

	for i := range a.data {
		n, err = w.Write(a.data[i])
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("star: write entry %d data: %w", i, err)
		}
	}

	return written, nil
}

// checkComplete validates every invariant WriteTo relies on.
func (a *Archive) checkComplete() error {
	if !a.CheckHeader() {
		return fmt.Errorf("%w: header magic mismatch", ErrIncomplete)
	}
	if a.entries == nil || a.data == nil {
		return fmt.Errorf("%w: missing entry tables", ErrIncomplete)
	}
	if uint64(len(a.entries)) != a.header.FileCount || uint64(len(a.data)) != a.header.FileCount {
		return fmt.Errorf("%w: table length does not match file count %d", ErrIncomplete, a.header.FileCount)
	}
	for i := range a.entries {
		if a.data[i] == nil {
			return fmt.Errorf("%w: entry %d has no data", ErrIncomplete, i)
		}
		if err := checkPath(a.entries[i].Path); err != nil {
			return fmt.Errorf("%w: entry %d: %w", ErrIncomplete, i, err)
		}
	}
	return nil
}

// checkPath enforces the stored-path shape the format relies on: a
// non-empty buffer whose final byte is the terminator, with no
// terminator inside the logical name. AddFile satisfies this by
// construction; an archive assembled from an arbitrary stream may
// not, so it is re-checked here.
func checkPath(path []byte) error {
	if len(path) == 0 {
		return errors.New("no path")
	}
	if path[len(path)-1] != 0 {
		return errors.New("path not terminated")
	}
	if bytes.IndexByte(path[:len(path)-1], 0) >= 0 {
		return errors.New("terminator inside path")
	}
	return nil
}
