package text

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffKind classifies a single diff line.
type DiffKind int

const (
	DiffSame DiffKind = iota
	DiffAdded
	DiffRemoved
)

// String returns the string representation of a DiffKind.
func (k DiffKind) String() string {
	switch k {
	case DiffSame:
		return "same"
	case DiffAdded:
		return "added"
	case DiffRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// DiffLine is one line of a line-level diff. The sequence order of a diff
// corresponds to a left-to-right scan of both inputs.
type DiffLine struct {
	Kind DiffKind
	Text string
}

// splitLines splits text by newline and removes the trailing empty element
// if present
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// JoinLines joins a slice of strings with newlines. Each line gets a
// trailing \n, which is the line terminator format diffmatchpatch expects:
//   - ["a", "b"] → "a\nb\n" (2 lines)
//   - ["a", ""] → "a\n\n" (2 lines, second is empty)
func JoinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// Diff computes a line-level diff between two text blocks. Concatenating
// the Same+Removed lines reconstructs original, and Same+Added lines
// reconstruct revised. Equally-minimal diffs are tie-broken the standard
// Myers way, which keeps contiguous changes grouped.
func Diff(original, revised string) []DiffLine {
	dmp := diffmatchpatch.New()
	chars1, chars2, lineArray := dmp.DiffLinesToChars(original+"\n", revised+"\n")
	diffs := dmp.DiffMain(chars1, chars2, false)
	lineDiffs := dmp.DiffCharsToLines(diffs, lineArray)

	var out []DiffLine
	for _, d := range lineDiffs {
		kind := diffKindOf(d.Type)
		for _, line := range splitLines(d.Text) {
			out = append(out, DiffLine{Kind: kind, Text: line})
		}
	}
	return out
}

// DiffChars computes a character-level diff sharing the DiffLine shape,
// with each element holding a text segment instead of a full line. Used
// for fine-grained highlighting, not for the apply logic.
func DiffChars(original, revised string) []DiffLine {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(original, revised, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	out := make([]DiffLine, 0, len(diffs))
	for _, d := range diffs {
		out = append(out, DiffLine{Kind: diffKindOf(d.Type), Text: d.Text})
	}
	return out
}

func diffKindOf(op diffmatchpatch.Operation) DiffKind {
	switch op {
	case diffmatchpatch.DiffInsert:
		return DiffAdded
	case diffmatchpatch.DiffDelete:
		return DiffRemoved
	default:
		return DiffSame
	}
}

// Reconstruct rebuilds one side of a diff: pass DiffRemoved for the
// original input or DiffAdded for the revised input.
func Reconstruct(diff []DiffLine, side DiffKind) string {
	var lines []string
	for _, d := range diff {
		if d.Kind == DiffSame || d.Kind == side {
			lines = append(lines, d.Text)
		}
	}
	return strings.Join(lines, "\n")
}

// LineSimilarity computes a similarity score between two lines (0.0 to 1.0)
// using Levenshtein ratio: 1 - (levenshtein_distance / max_length).
// Empty lines have 0 similarity with non-empty lines.
func LineSimilarity(line1, line2 string) float64 {
	if line1 == "" && line2 == "" {
		return 1.0
	}
	if line1 == "" || line2 == "" {
		return 0.0
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(line1, line2, false)
	levenshteinDist := dmp.DiffLevenshtein(diffs)

	maxLen := max(len(line1), len(line2))
	return 1.0 - float64(levenshteinDist)/float64(maxLen)
}
