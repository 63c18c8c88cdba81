package difftar

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// DiffOptions customises diff computation and formatting.
type DiffOptions struct {
	// NameOnly emits newline-separated changed paths instead of patches.
	NameOnly bool

	// Context is the number of unchanged lines shown around each hunk.
	Context int

	// IgnoreAllSpace and IgnoreSpaceChange match lines with whitespace
	// removed. Both flags behave identically (accepted for CLI parity);
	// the underlying matcher has a single whitespace-insensitive mode.
	IgnoreAllSpace    bool
	IgnoreSpaceChange bool

	// NoPrefix drops the source/destination prefixes from path headers.
	NoPrefix bool

	// SrcPrefix and DstPrefix label the two sides in path headers.
	SrcPrefix string
	DstPrefix string

	// Text forces text treatment of paths classified as binary.
	Text bool
}

// newDiffOptions applies the defaults (3 context lines, "a/" and "b/"
// prefixes) before the given functions mutate them.
func newDiffOptions(optFns ...func(*DiffOptions)) *DiffOptions {
	opts := &DiffOptions{Context: 3, SrcPrefix: "a/", DstPrefix: "b/"}
	for _, fn := range optFns {
		fn(opts)
	}
	if opts.Context < 0 {
		opts.Context = 0
	}
	return opts
}

func resolveDiffOptions(opts *DiffOptions) *DiffOptions {
	if opts == nil {
		return newDiffOptions()
	}
	return opts
}

func (o *DiffOptions) srcName(path string) string {
	if o.NoPrefix {
		return path
	}
	return o.SrcPrefix + path
}

func (o *DiffOptions) dstName(path string) string {
	if o.NoPrefix {
		return path
	}
	return o.DstPrefix + path
}

func (o *DiffOptions) ignoreSpace() bool {
	return o.IgnoreAllSpace || o.IgnoreSpaceChange
}

// FileStatus classifies a path's change between the two sides.
type FileStatus string

const (
	StatusModified  FileStatus = "modified"
	StatusAdded     FileStatus = "added"
	StatusDeleted   FileStatus = "deleted"
	StatusUnchanged FileStatus = "unchanged"
)

// FileDiff is the per-path change record produced by the differ. Patch is
// empty when no textual patch applies (unchanged or binary content, or a
// change the whitespace options erase).
type FileDiff struct {
	Path     string
	Status   FileStatus
	IsBinary bool
	Patch    string
}

// DecodeBytes decodes b as UTF-8 leniently: malformed sequences become the
// Unicode replacement character, never an error.
func DecodeBytes(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), "�")
}

// ComputeDiff computes a unified diff between two texts using the Myers O(ND)
// algorithm, with "--- oldPath" and "+++ newPath" headers. Line endings are
// normalized (CRLF to LF, lone CR to LF) before matching. The headers are
// always present; callers decide significance by checking for hunks.
func ComputeDiff(oldPath, newPath, oldText, newText string, opts *DiffOptions) string {
	opts = resolveDiffOptions(opts)

	oldLines := splitLines(normalizeEOL(oldText))
	newLines := splitLines(normalizeEOL(newText))
	ops := diffLineOps(oldLines, newLines, opts.ignoreSpace())
	body := unifiedBody(oldLines, newLines, ops, opts.Context)

	return "--- " + oldPath + "\n+++ " + newPath + "\n" + body
}

// hasHunks reports whether a patch produced by ComputeDiff contains at least
// one hunk.
func hasHunks(patch string) bool {
	return strings.Contains(patch, "\n@@ -")
}

// ComputeFileDiff classifies and diffs a single path across the two maps.
func ComputeFileDiff(path string, left, right *FileMap, opts *DiffOptions) FileDiff {
	opts = resolveDiffOptions(opts)

	leftData, inLeft := left.Get(path)
	rightData, inRight := right.Get(path)

	fd := FileDiff{Path: path, IsBinary: IsBinaryPath(path)}

	switch {
	case inLeft && inRight:
		if bytes.Equal(leftData, rightData) {
			fd.Status = StatusUnchanged
			return fd
		}
		fd.Status = StatusModified
		if !ShouldPrintPatch(path, opts) {
			return fd
		}
		patch := ComputeDiff(opts.srcName(path), opts.dstName(path), DecodeBytes(leftData), DecodeBytes(rightData), opts)
		if !hasHunks(patch) {
			// all differences erased by normalization; unchanged for output.
			fd.Status = StatusUnchanged
			return fd
		}
		fd.Patch = patch

	case inRight:
		fd.Status = StatusAdded
		if ShouldPrintPatch(path, opts) {
			if patch := ComputeDiff("/dev/null", opts.dstName(path), "", DecodeBytes(rightData), opts); hasHunks(patch) {
				fd.Patch = patch
			}
		}

	case inLeft:
		fd.Status = StatusDeleted
		if ShouldPrintPatch(path, opts) {
			if patch := ComputeDiff(opts.srcName(path), "/dev/null", DecodeBytes(leftData), "", opts); hasHunks(patch) {
				fd.Patch = patch
			}
		}

	default:
		fd.Status = StatusUnchanged
	}

	return fd
}

// ComputeTreeDiff diffs every path in the sorted union of both maps' keys.
func ComputeTreeDiff(left, right *FileMap, opts *DiffOptions) []FileDiff {
	opts = resolveDiffOptions(opts)

	paths := sortedUnion(left, right)
	diffs := make([]FileDiff, 0, len(paths))
	for _, path := range paths {
		diffs = append(diffs, ComputeFileDiff(path, left, right, opts))
	}
	return diffs
}
