package difftar

import (
	"compress/gzip"
	"io"
)

// Decompress returns a streaming reader of the uncompressed tar bytes behind
// the gzip stream r. The compressed input is never buffered in full.
//
// An invalid gzip header fails immediately; corruption encountered later
// surfaces from Read with phase DECOMPRESS. An empty gzip member (header and
// trailer only) decompresses to zero bytes without error.
func Decompress(r io.Reader) (io.ReadCloser, error) {
	if r == nil {
		return nil, NewDiffError(PhaseDecompress, "Input must be a readable stream")
	}

	zr, err := gzip.NewReader(r)
	if err != nil {
		if isContextError(err) {
			return nil, err
		}
		return nil, Wrap(PhaseDecompress, err, "Invalid gzip data")
	}

	return &gzipStream{zr: zr}, nil
}

type gzipStream struct {
	zr *gzip.Reader
}

func (g *gzipStream) Read(p []byte) (int, error) {
	n, err := g.zr.Read(p)
	if err == nil || err == io.EOF || isContextError(err) {
		return n, err
	}
	// Wrap keeps errors that already carry a phase (e.g. a SIZE overrun from
	// the underlying acquired stream) intact.
	return n, Wrap(PhaseDecompress, err, "Invalid gzip data")
}

func (g *gzipStream) Close() error {
	return g.zr.Close()
}
