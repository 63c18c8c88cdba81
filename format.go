package difftar

import "strings"

// FormatResult is the output of FormatDiff: the assembled diff text plus
// aggregate statistics.
type FormatResult struct {
	Output       string
	FilesChanged int
	FilesAdded   int
	FilesDeleted int
}

// FormatDiff emits a git-style unified diff over the union of both file maps
// in ascending path order.
//
// Binary paths produce a "Binary files ... differ" block unless text
// treatment is forced. With NameOnly set the output is the newline-joined
// list of changed paths (with one trailing newline), or the empty string when
// nothing changed. Otherwise the output is the per-file blocks joined by a
// single newline, which leaves one blank line between blocks.
func FormatDiff(left, right *FileMap, optFns ...func(*DiffOptions)) *FormatResult {
	opts := newDiffOptions(optFns...)
	res := &FormatResult{}

	// Both modes share one status determination: a path counts as changed
	// only if it would produce a block, so the name-only list honors the
	// line-ending and whitespace equivalences the same way full output does.
	var changed []string
	var blocks []string
	for _, fd := range ComputeTreeDiff(left, right, opts) {
		if fd.Status == StatusUnchanged || !emitsBlock(fd, opts) {
			continue
		}

		if opts.NameOnly {
			changed = append(changed, fd.Path)
		} else {
			blocks = append(blocks, formatBlock(fd, opts))
		}

		res.FilesChanged++
		switch fd.Status {
		case StatusAdded:
			res.FilesAdded++
		case StatusDeleted:
			res.FilesDeleted++
		}
	}

	if opts.NameOnly {
		if len(changed) > 0 {
			res.Output = strings.Join(changed, "\n") + "\n"
		}
		return res
	}

	res.Output = strings.Join(blocks, "\n")
	return res
}

// emitsBlock reports whether a per-file record produces output: binary
// records always do, text records only when the patch has hunks (an added
// empty file, for example, does not).
func emitsBlock(fd FileDiff, opts *DiffOptions) bool {
	if fd.IsBinary && !opts.Text {
		return true
	}
	return fd.Patch != ""
}

// formatBlock renders one per-file block terminated by a single newline.
func formatBlock(fd FileDiff, opts *DiffOptions) string {
	src, dst := opts.srcName(fd.Path), opts.dstName(fd.Path)

	var b strings.Builder
	b.WriteString("diff --git " + src + " " + dst + "\n")

	if fd.IsBinary && !opts.Text {
		switch fd.Status {
		case StatusModified:
			b.WriteString("index 0000000..0000000 100644\n")
			b.WriteString("Binary files " + src + " and " + dst + " differ\n")
		case StatusAdded:
			b.WriteString("new file mode 100644\n")
			b.WriteString("index 0000000..0000000\n")
			b.WriteString("Binary files /dev/null and " + dst + " differ\n")
		case StatusDeleted:
			b.WriteString("deleted file mode 100644\n")
			b.WriteString("index 0000000..0000000\n")
			b.WriteString("Binary files " + src + " and /dev/null differ\n")
		}
		return b.String()
	}

	switch fd.Status {
	case StatusModified:
		b.WriteString("index 0000000..0000000 100644\n")
	case StatusAdded:
		b.WriteString("new file mode 100644\n")
		b.WriteString("index 0000000..0000000\n")
	case StatusDeleted:
		b.WriteString("deleted file mode 100644\n")
		b.WriteString("index 0000000..0000000\n")
	}

	b.WriteString(strings.TrimSuffix(fd.Patch, "\n"))
	b.WriteByte('\n')
	return b.String()
}
