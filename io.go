package difftar

import (
	"context"
	"io"
)

// contextReader aborts reads once ctx is done. HTTP bodies already honor
// their request context; this covers sources that do not (files, inline
// buffers) so that a cancelled pipeline stops between chunk reads.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	select {
	case <-c.ctx.Done():
		return 0, c.ctx.Err()
	default:
		return c.r.Read(p)
	}
}
