// Package difftar computes git-compatible unified diffs between two packaged
// software archives (gzip-compressed tars with a single top-level "package/"
// directory). It operates entirely on in-memory buffers and streams, making
// it usable in sandboxed runtimes without a writable filesystem.
package difftar

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Diff acquires, extracts, and diffs the two archives, returning the unified
// diff text. Both sides are processed concurrently; the first failure cancels
// the other side.
func Diff(ctx context.Context, left, right Source, optFns ...func(*DiffOptions)) (string, error) {
	res, err := DiffWithStats(ctx, left, right, optFns...)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

// DiffWithStats is Diff plus the aggregate change counters.
func DiffWithStats(ctx context.Context, left, right Source, optFns ...func(*DiffOptions)) (*FormatResult, error) {
	var leftFiles, rightFiles *FileMap

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		leftFiles, err = ExtractPackage(ctx, left)
		return
	})
	g.Go(func() (err error) {
		rightFiles, err = ExtractPackage(ctx, right)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return FormatDiff(leftFiles, rightFiles, optFns...), nil
}

// ExtractPackage runs one side of the pipeline: acquire, decompress, and
// extract into a FileMap.
func ExtractPackage(ctx context.Context, src Source) (*FileMap, error) {
	acquired, err := Acquire(ctx, src)
	if err != nil {
		return nil, err
	}
	defer acquired.Body.Close()

	dec, err := Decompress(&contextReader{ctx: ctx, r: acquired.Body})
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	return Extract(dec)
}
