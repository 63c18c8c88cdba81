package difftar

import (
	"bytes"
	"compress/gzip"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecompress_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte("hello streaming world"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	r, err := Decompress(&buf)
	require.NoError(t, err)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello streaming world", string(data))
}

func TestDecompress_EmptyMember(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	require.NoError(t, zw.Close())

	r, err := Decompress(&buf)
	require.NoError(t, err)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestDecompress_InvalidHeader(t *testing.T) {
	_, err := Decompress(strings.NewReader("this is not gzip"))
	assertPhase(t, err, PhaseDecompress, 422)

	var de *DiffError
	require.ErrorAs(t, err, &de)
	assert.Contains(t, de.Message, "Invalid gzip data")
}

func TestDecompress_CorruptedMidStream(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(bytes.Repeat([]byte("payload "), 4096))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	// flip bytes well past the 10-byte member header.
	data := buf.Bytes()
	for i := len(data) / 2; i < len(data)/2+8; i++ {
		data[i] ^= 0xff
	}

	r, err := Decompress(bytes.NewReader(data))
	require.NoError(t, err)
	defer r.Close()

	_, err = io.ReadAll(r)
	assertPhase(t, err, PhaseDecompress, 422)
}

func TestDecompress_NilInput(t *testing.T) {
	_, err := Decompress(nil)
	assertPhase(t, err, PhaseDecompress, 422)
}

type failingReader struct {
	err error
}

func (f failingReader) Read([]byte) (int, error) {
	return 0, f.err
}

func TestDecompress_KeepsUnderlyingPhase(t *testing.T) {
	// a SIZE overrun raised by the acquired stream must not be re-tagged as a
	// gzip problem.
	_, err := Decompress(failingReader{err: sizeExceededError(MaxTarballSize + 1)})
	assertPhase(t, err, PhaseSize, 413)
}
