package difftar

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"

	"github.com/dustin/go-humanize"
)

// MaxTarballSize is the per-archive byte budget. No archive whose declared or
// actual byte count exceeds it is ever consumed past the bound.
const MaxTarballSize = 20 * 1024 * 1024

// Source describes how to obtain one archive. It is a closed sum over the
// four transports: URLSource, S3Source, InlineSource / InlineBase64Source,
// and FileSource.
type Source interface {
	sourceKind() string
}

// AuthType selects the Authorization scheme of a URLSource.
type AuthType string

const (
	AuthNone   AuthType = "none"
	AuthBasic  AuthType = "basic"
	AuthBearer AuthType = "bearer"
)

// URLSource fetches the archive with an HTTP(S) GET, following redirects.
type URLSource struct {
	URL  string
	Auth AuthType

	// Credential is the bearer token, or for basic auth the pre-encoded
	// base64 "user:pass" value.
	Credential string
}

func (URLSource) sourceKind() string { return "url" }

// S3Source fetches the archive from S3 with an AWS Signature V4 signed GET.
//
// Source is either an "s3://bucket/key" URI or an http(s) URL used as-is.
// With Endpoint set the object URL is path-style "<endpoint>/<bucket>/<key>";
// otherwise the virtual-hosted "https://<bucket>.s3.<region>.amazonaws.com/<key>".
type S3Source struct {
	Source          string
	AccessKeyID     string
	SecretAccessKey string
	Region          string // defaults to "us-east-1"
	Endpoint        string
	SessionToken    string
}

func (S3Source) sourceKind() string { return "s3" }

// InlineSource wraps raw archive bytes already in memory.
type InlineSource struct {
	Data []byte
}

func (InlineSource) sourceKind() string { return "inline" }

// InlineBase64Source wraps a base64-encoded archive.
type InlineBase64Source struct {
	Data string
}

func (InlineBase64Source) sourceKind() string { return "inline" }

// FileSource reads the archive from the local filesystem.
type FileSource struct {
	Path string
}

func (FileSource) sourceKind() string { return "file" }

// AcquiredStream is an acquired archive byte stream. DeclaredSize is the
// source's advertised byte count, or -1 when unknown; Body is consumed at
// most once and always counts actual bytes against MaxTarballSize.
type AcquiredStream struct {
	Body         io.ReadCloser
	DeclaredSize int64
}

// Acquire resolves a source to a byte stream. Failures carry phase FETCH,
// AUTH, or SIZE.
func Acquire(ctx context.Context, src Source) (*AcquiredStream, error) {
	switch s := src.(type) {
	case URLSource:
		return acquireURL(ctx, s)
	case S3Source:
		return acquireS3(ctx, s)
	case InlineSource:
		return acquireInline(s.Data)
	case InlineBase64Source:
		data, err := base64.StdEncoding.DecodeString(s.Data)
		if err != nil {
			return nil, Wrap(PhaseFetch, err, "Invalid base64 data")
		}
		return acquireInline(data)
	case FileSource:
		return acquireFile(s)
	default:
		return nil, NewDiffError(PhaseFetch, fmt.Sprintf("Unknown source type: %T", src))
	}
}

// httpClient is shared by the URL and S3 transports; the zero client follows
// redirects and imposes no timeout (callers bound the whole diff via ctx).
var httpClient = &http.Client{}

func acquireURL(ctx context.Context, s URLSource) (*AcquiredStream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, Wrap(PhaseFetch, err, fmt.Sprintf("Invalid URL %s", s.URL))
	}

	if err = applyAuth(req.Header, s.Auth, s.Credential); err != nil {
		return nil, err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		if isContextError(err) {
			return nil, err
		}
		return nil, Wrap(PhaseFetch, err, fmt.Sprintf("Network error fetching %s", s.URL))
	}

	return checkResponse(resp, s.URL, false)
}

// applyAuth materializes the auth scheme onto a headers container. Transport
// and auth stay orthogonal: every transport that speaks HTTP reuses this.
func applyAuth(h http.Header, auth AuthType, credential string) error {
	switch auth {
	case AuthNone, "":
		return nil
	case AuthBearer:
		if credential == "" {
			return NewDiffError(PhaseAuth, "Missing credential for bearer auth")
		}
		h.Set("Authorization", "Bearer "+credential)
	case AuthBasic:
		if credential == "" {
			return NewDiffError(PhaseAuth, "Missing credential for basic auth")
		}
		h.Set("Authorization", "Basic "+credential)
	default:
		return NewDiffError(PhaseAuth, fmt.Sprintf("Unknown auth type: %s", auth))
	}
	return nil
}

// checkResponse validates an HTTP response and turns it into an
// AcquiredStream. The declared size is gated before any of the body is
// consumed.
func checkResponse(resp *http.Response, url string, isS3 bool) (*AcquiredStream, error) {
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		discard(resp.Body)
		return nil, NewDiffError(PhaseAuth, fmt.Sprintf("Authentication failed: %s", resp.Status))
	case isS3 && resp.StatusCode == http.StatusNotFound:
		discard(resp.Body)
		return nil, NewDiffError(PhaseFetch, "S3 object not found")
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		discard(resp.Body)
		return nil, NewDiffError(PhaseFetch, fmt.Sprintf("HTTP %s for %s", resp.Status, url))
	}

	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, NewDiffError(PhaseFetch, "Response has no body")
	}

	if resp.ContentLength > MaxTarballSize {
		_ = resp.Body.Close()
		return nil, sizeExceededError(resp.ContentLength)
	}

	return &AcquiredStream{
		Body:         newSizeLimitedReader(resp.Body),
		DeclaredSize: resp.ContentLength,
	}, nil
}

func acquireInline(data []byte) (*AcquiredStream, error) {
	if int64(len(data)) > MaxTarballSize {
		return nil, sizeExceededError(int64(len(data)))
	}

	return &AcquiredStream{
		Body:         io.NopCloser(bytes.NewReader(data)),
		DeclaredSize: int64(len(data)),
	}, nil
}

// fileChunkSize is the read granularity of the file transport.
const fileChunkSize = 64 * 1024

func acquireFile(s FileSource) (*AcquiredStream, error) {
	fi, err := os.Stat(s.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, NewDiffError(PhaseFetch, fmt.Sprintf("File not found: %s", s.Path))
	case errors.Is(err, fs.ErrPermission):
		return nil, NewDiffError(PhaseFetch, fmt.Sprintf("Permission denied: %s", s.Path))
	case err != nil:
		return nil, Wrap(PhaseFetch, err, fmt.Sprintf("Cannot read %s", s.Path))
	}

	if fi.IsDir() {
		return nil, NewDiffError(PhaseFetch, fmt.Sprintf("Path is a directory, not a file: %s", s.Path))
	}
	if !fi.Mode().IsRegular() {
		return nil, NewDiffError(PhaseFetch, fmt.Sprintf("Not a regular file: %s", s.Path))
	}
	if fi.Size() > MaxTarballSize {
		return nil, sizeExceededError(fi.Size())
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, Wrap(PhaseFetch, err, fmt.Sprintf("Cannot read %s", s.Path))
	}

	return &AcquiredStream{
		Body:         newSizeLimitedReader(&bufferedFile{Reader: bufio.NewReaderSize(f, fileChunkSize), f: f}),
		DeclaredSize: fi.Size(),
	}, nil
}

type bufferedFile struct {
	*bufio.Reader
	f *os.File
}

func (b *bufferedFile) Close() error {
	return b.f.Close()
}

func sizeExceededError(size int64) *DiffError {
	return NewDiffError(PhaseSize, fmt.Sprintf("Archive size %d (%s) exceeds limit of %d (%s)",
		size, humanize.IBytes(uint64(size)), int64(MaxTarballSize), humanize.IBytes(MaxTarballSize)))
}

// newSizeLimitedReader guards against sources that lie about (or omit) their
// size: consumption fails with phase SIZE the moment actual bytes pass
// MaxTarballSize.
func newSizeLimitedReader(rc io.ReadCloser) io.ReadCloser {
	return &sizeLimitedReader{rc: rc}
}

type sizeLimitedReader struct {
	rc io.ReadCloser
	n  int64
}

func (r *sizeLimitedReader) Read(p []byte) (int, error) {
	n, err := r.rc.Read(p)
	r.n += int64(n)
	if r.n > MaxTarballSize {
		return n, sizeExceededError(r.n)
	}
	return n, err
}

func (r *sizeLimitedReader) Close() error {
	return r.rc.Close()
}

func discard(rc io.ReadCloser) {
	if rc != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(rc, 4096))
		_ = rc.Close()
	}
}
