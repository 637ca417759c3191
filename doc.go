// Package star implements the STAR archive container format: an
// ordered collection of named byte blobs packed into one linear
// binary stream, recoverable in full or one entry at a time by name.
//
// An archive is a 12-byte header (the "STAR" magic tag and a u64
// entry count), a metadata table of (size, offset, path_len, path)
// records, and a data block holding every entry's raw bytes in entry
// order. All integers are fixed-width little-endian; stored paths
// carry a single trailing terminator byte.
//
// # Quick start
//
// Build and serialize an archive:
//
//	a, err := star.New(2)
//	if err != nil {
//	    return err
//	}
//	a.AddFile(0, "a.txt", uint64(len(txt)), bytes.NewReader(txt))
//	a.AddFile(1, "bb.bin", uint64(len(bin)), bytes.NewReader(bin))
//	a.ComputeOffsets()
//	_, err = a.WriteTo(f)
//
// Read one back and look up an entry:
//
//	a, err := star.Read(f)
//	if err != nil {
//	    return err
//	}
//	if i, ok := a.Search("a.txt"); ok {
//	    data, _ := a.Data(i)
//	    ...
//	}
//
// # Ordering
//
// Entries live at whatever slots the caller chose; the package never
// reorders them. For archives the caller has ordered by ComparePaths,
// AssumeSorted offers a binary-search lookup instead of the linear
// Search.
package star
