package difftar

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// The line differ maps every distinct line to a rune and runs diffmatchpatch's
// Myers O(ND) engine over the two rune sequences, then walks the edit script
// positionally to recover per-side line indices. Lines keep their trailing
// newline so a final line without one never compares equal to a terminated
// copy of itself.

type lineOpKind int8

const (
	opEqual lineOpKind = iota
	opDelete
	opInsert
)

type lineOp struct {
	kind lineOpKind
	// oldPos and newPos are the current line indices on each side when the op
	// was produced; an insert does not consume an old line but still records
	// where in the old file it lands, and vice versa.
	oldPos, newPos int
}

// splitLines splits s into lines that keep their "\n" terminator. The final
// line may lack one.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}

	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// normalizeEOL rewrites CRLF to LF, then any remaining lone CR to LF.
func normalizeEOL(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// diffLineOps computes the line-level edit script between the two sides.
// With ignoreSpace set, lines are matched with every whitespace character
// removed; emitted text is always the original.
func diffLineOps(oldLines, newLines []string, ignoreSpace bool) []lineOp {
	keys := make(map[string]rune, len(oldLines)+len(newLines))
	next := rune(1)
	keyOf := func(line string) rune {
		if ignoreSpace {
			line = stripSpace(line)
		}
		r, ok := keys[line]
		if !ok {
			r = next
			next++
			if next == 0xD800 {
				// surrogate halves do not round-trip through strings.
				next = 0xE000
			}
			keys[line] = r
		}
		return r
	}

	r1 := make([]rune, len(oldLines))
	for i, line := range oldLines {
		r1[i] = keyOf(line)
	}
	r2 := make([]rune, len(newLines))
	for i, line := range newLines {
		r2[i] = keyOf(line)
	}

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	diffs := dmp.DiffMainRunes(r1, r2, false)

	ops := make([]lineOp, 0, len(oldLines)+len(newLines))
	i, j := 0, 0
	for _, d := range diffs {
		n := utf8.RuneCountInString(d.Text)
		for range n {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				ops = append(ops, lineOp{opEqual, i, j})
				i++
				j++
			case diffmatchpatch.DiffDelete:
				ops = append(ops, lineOp{opDelete, i, j})
				i++
			case diffmatchpatch.DiffInsert:
				ops = append(ops, lineOp{opInsert, i, j})
				j++
			}
		}
	}
	return ops
}

const noNewlineMarker = "\\ No newline at end of file\n"

// unifiedBody renders the hunks of the edit script with the requested context
// width. Returns "" when the script contains no changes.
func unifiedBody(oldLines, newLines []string, ops []lineOp, context int) string {
	if context < 0 {
		context = 0
	}

	var sb strings.Builder
	n := len(ops)
	for idx := 0; idx < n; {
		for idx < n && ops[idx].kind == opEqual {
			idx++
		}
		if idx == n {
			break
		}

		start := idx - context
		if start < 0 {
			start = 0
		}

		// Extend over subsequent changes whose gap of equal lines is small
		// enough that the hunks would overlap or touch.
		end, run := idx, 0
		for k := idx; k < n; k++ {
			if ops[k].kind == opEqual {
				if run++; run > 2*context {
					break
				}
			} else {
				run = 0
				end = k
			}
		}

		stop := end + 1 + context
		if stop > n {
			stop = n
		}

		writeHunk(&sb, oldLines, newLines, ops[start:stop])
		idx = stop
	}

	return sb.String()
}

func writeHunk(sb *strings.Builder, oldLines, newLines []string, ops []lineOp) {
	var oldCount, newCount int
	for _, op := range ops {
		if op.kind != opInsert {
			oldCount++
		}
		if op.kind != opDelete {
			newCount++
		}
	}

	oldStart := ops[0].oldPos
	if oldCount > 0 {
		oldStart++
	}
	newStart := ops[0].newPos
	if newCount > 0 {
		newStart++
	}

	fmt.Fprintf(sb, "@@ -%d,%d +%d,%d @@\n", oldStart, oldCount, newStart, newCount)

	for _, op := range ops {
		var prefix byte
		var line string
		switch op.kind {
		case opEqual:
			prefix, line = ' ', oldLines[op.oldPos]
		case opDelete:
			prefix, line = '-', oldLines[op.oldPos]
		case opInsert:
			prefix, line = '+', newLines[op.newPos]
		}

		sb.WriteByte(prefix)
		if strings.HasSuffix(line, "\n") {
			sb.WriteString(line)
		} else {
			sb.WriteString(line)
			sb.WriteByte('\n')
			sb.WriteString(noNewlineMarker)
		}
	}
}
