package difftar

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"strings"
)

// packagePrefix is the conventional single top-level directory of npm-style
// tarballs; it is stripped from every entry name.
const packagePrefix = "package/"

// ExtractOptions customises Extract.
type ExtractOptions struct {
	// KeepPrefix disables stripping of the leading "package/" segment.
	KeepPrefix bool

	// Filter, if set, is called with each entry's path (after prefix
	// stripping) and header; entries for which it returns false are skipped.
	Filter func(path string, hdr *tar.Header) bool
}

// Extract parses a tar stream into a FileMap in entry order.
//
// Directory entries are skipped. Symlink and hard-link entries abort the
// extraction with phase TAR. Entry names are stripped of a single leading
// "package/" segment; entries whose name becomes empty are dropped. A stream
// that ends cleanly between entries, including a zero-length stream, yields
// whatever entries were complete rather than an error.
func Extract(r io.Reader, optFns ...func(*ExtractOptions)) (*FileMap, error) {
	if err := AssertDiff(r != nil, PhaseTar, "Input must be a readable stream"); err != nil {
		return nil, err
	}

	opts := &ExtractOptions{}
	for _, fn := range optFns {
		fn(opts)
	}

	files := NewFileMap()
	tr := tar.NewReader(r)

	for {
		hdr, err := tr.Next()
		if err != nil {
			if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
				return files, nil
			}
			if isContextError(err) {
				return nil, err
			}
			return nil, Wrap(PhaseTar, err, "Invalid tar data")
		}

		switch hdr.Typeflag {
		case tar.TypeSymlink, tar.TypeLink:
			linkname := hdr.Linkname
			if linkname == "" {
				linkname = "(unknown)"
			}
			return nil, NewDiffError(PhaseTar, fmt.Sprintf("Symlinks are not supported: %s -> %s", hdr.Name, linkname))
		case tar.TypeDir, tar.TypeXGlobalHeader:
			continue
		}

		// Non-regular kinds without content (fifo, char/block devices) are
		// skipped; tar.Reader discards any stray body on the next call.
		if !hdr.FileInfo().Mode().IsRegular() {
			continue
		}

		path := hdr.Name
		if !opts.KeepPrefix {
			path = strings.TrimPrefix(path, packagePrefix)
		}
		if path == "" {
			continue
		}
		if opts.Filter != nil && !opts.Filter(path, hdr) {
			continue
		}

		data, err := readEntry(tr, hdr.Size)
		if err != nil {
			if isContextError(err) {
				return nil, err
			}
			return nil, Wrap(PhaseTar, err, fmt.Sprintf("Read tar entry %s", path))
		}

		files.Set(path, data)
	}
}

// readEntry reads an entry body into a single buffer, sized up front when the
// header declares the size.
func readEntry(r io.Reader, size int64) ([]byte, error) {
	if size <= 0 {
		return io.ReadAll(r)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}
