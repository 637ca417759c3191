package star

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingWriter accepts limit bytes, then fails every write.
type failingWriter struct {
	limit int
	n     int
	err   error
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.n+len(p) > w.limit {
		k := w.limit - w.n
		w.n = w.limit
		return k, w.err
	}
	w.n += len(p)
	return len(p), nil
}

func TestWriteToLayout(t *testing.T) {
	t.Parallel()

	a := buildArchive(t, []testFile{{path: "a", data: []byte("xyz")}})

	var buf bytes.Buffer
	n, err := a.WriteTo(&buf)
	require.NoError(t, err)

	want := []byte("STAR")
	want = append(want, 1, 0, 0, 0, 0, 0, 0, 0) // file_count
	want = append(want, 3, 0, 0, 0, 0, 0, 0, 0) // size
	// offset = header (12) + metadata (24 + 2) = 38
	want = append(want, 38, 0, 0, 0, 0, 0, 0, 0)
	want = append(want, 2, 0, 0, 0, 0, 0, 0, 0) // path_len
	want = append(want, 'a', 0)
	want = append(want, "xyz"...)

	assert.Equal(t, want, buf.Bytes())
	assert.Equal(t, int64(len(want)), n)
}

func TestWriteToIncomplete(t *testing.T) {
	t.Parallel()

	// readBack parses a hand-encoded stream; Read accepts shapes that
	// WriteTo must still refuse.
	readBack := func(tb testing.TB, stream []byte) *Archive {
		tb.Helper()
		a, err := Read(bytes.NewReader(stream))
		require.NoError(tb, err)
		return a
	}

	t.Run("unfilled slots", func(t *testing.T) {
		t.Parallel()
		a, err := New(1)
		require.NoError(t, err)

		var buf bytes.Buffer
		_, err = a.WriteTo(&buf)
		assert.ErrorIs(t, err, ErrIncomplete)
		assert.Zero(t, buf.Len(), "nothing may be written")
	})

	t.Run("partially filled", func(t *testing.T) {
		t.Parallel()
		a, err := New(2)
		require.NoError(t, err)
		require.NoError(t, a.AddFile(0, "a", 1, bytes.NewReader([]byte("x"))))

		var buf bytes.Buffer
		_, err = a.WriteTo(&buf)
		assert.ErrorIs(t, err, ErrIncomplete)
		assert.Zero(t, buf.Len())
	})

	t.Run("header magic mismatch", func(t *testing.T) {
		t.Parallel()
		a := buildArchive(t, []testFile{{path: "a", data: []byte("x")}})
		a.header.Magic[0] = 'X'

		var buf bytes.Buffer
		_, err := a.WriteTo(&buf)
		assert.ErrorIs(t, err, ErrIncomplete)
		assert.Zero(t, buf.Len())
	})

	t.Run("path without terminator", func(t *testing.T) {
		t.Parallel()
		// path_len 2, stored bytes "ab": structurally readable, but the
		// final byte is not the terminator.
		stream := []byte("STAR")
		stream = append(stream, 1, 0, 0, 0, 0, 0, 0, 0)
		stream = append(stream, 1, 0, 0, 0, 0, 0, 0, 0)
		stream = append(stream, 0, 0, 0, 0, 0, 0, 0, 0)
		stream = append(stream, 2, 0, 0, 0, 0, 0, 0, 0)
		stream = append(stream, 'a', 'b')
		stream = append(stream, 'x')

		a := readBack(t, stream)
		var buf bytes.Buffer
		_, err := a.WriteTo(&buf)
		assert.ErrorIs(t, err, ErrIncomplete)
		assert.Zero(t, buf.Len())
	})

	t.Run("terminator inside path", func(t *testing.T) {
		t.Parallel()
		stream := []byte("STAR")
		stream = append(stream, 1, 0, 0, 0, 0, 0, 0, 0)
		stream = append(stream, 1, 0, 0, 0, 0, 0, 0, 0)
		stream = append(stream, 0, 0, 0, 0, 0, 0, 0, 0)
		stream = append(stream, 3, 0, 0, 0, 0, 0, 0, 0)
		stream = append(stream, 0, 'a', 0)
		stream = append(stream, 'x')

		a := readBack(t, stream)
		var buf bytes.Buffer
		_, err := a.WriteTo(&buf)
		assert.ErrorIs(t, err, ErrIncomplete)
		assert.Zero(t, buf.Len())
	})
}

func TestWriteToWriterError(t *testing.T) {
	t.Parallel()

	a := buildArchive(t, []testFile{
		{path: "a.txt", data: []byte("alpha")},
		{path: "bb.bin", data: []byte("beta!")},
	})
	errBroken := errors.New("broken pipe")

	t.Run("header write fails", func(t *testing.T) {
		t.Parallel()
		w := &failingWriter{limit: 0, err: errBroken}
		_, err := a.WriteTo(w)
		assert.ErrorIs(t, err, errBroken)
	})

	t.Run("data write fails", func(t *testing.T) {
		t.Parallel()
		w := &failingWriter{limit: HeaderSize + 2*EntryFixedSize + 6 + 7 + 2, err: errBroken}
		n, err := a.WriteTo(w)
		assert.ErrorIs(t, err, errBroken)
		assert.Equal(t, int64(w.limit), n)
	})
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	files := []testFile{
		{path: "file2", data: []byte("two")},
		{path: "file10", data: bytes.Repeat([]byte{0xab}, 1000)},
		{path: "empty", data: nil},
		{path: "dir/nested.bin", data: []byte{0, 1, 2, 3, 255}},
	}
	a := buildArchive(t, files)

	var buf bytes.Buffer
	_, err := a.WriteTo(&buf)
	require.NoError(t, err)

	got, err := Read(&buf)
	require.NoError(t, err)

	assert.Equal(t, a.Header(), got.Header())
	require.Equal(t, a.Len(), got.Len())
	for i := range files {
		wantEntry, ok := a.Entry(i)
		require.True(t, ok)
		gotEntry, ok := got.Entry(i)
		require.True(t, ok)
		assert.Equal(t, wantEntry, gotEntry, "entry %d", i)

		wantData, ok := a.Data(i)
		require.True(t, ok)
		gotData, ok := got.Data(i)
		require.True(t, ok)
		assert.Equal(t, string(wantData), string(gotData), "data %d", i)
	}

	t.Run("rewrite is byte-identical", func(t *testing.T) {
		var first, second bytes.Buffer
		_, err := a.WriteTo(&first)
		require.NoError(t, err)
		_, err = got.WriteTo(&second)
		require.NoError(t, err)
		assert.Equal(t, first.Bytes(), second.Bytes())
	})
}
