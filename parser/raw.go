package parser

import (
	"strings"

	"editstream/text"
)

// DefaultStopMarkers terminate a raw completion. Everything before the
// earliest marker is the completion; the marker and anything after it
// are discarded.
var DefaultStopMarkers = []string{
	"<|endoftext|>",
	"<|editable_region_end|>",
	"\n```",
}

// rawAccumulator collects a raw completion across chunks, watching for
// stop markers. A marker may arrive split across chunks, so the tail of
// the buffer is re-checked on every feed.
type rawAccumulator struct {
	markers []string
	buf     strings.Builder
	out     string
	done    bool
}

func newRawAccumulator(markers []string) *rawAccumulator {
	return &rawAccumulator{markers: markers}
}

// feed appends chunk and reports whether a stop marker completed the
// stream.
func (r *rawAccumulator) feed(chunk string) bool {
	if r.done {
		return false
	}
	r.buf.WriteString(chunk)
	buf := r.buf.String()
	cut := len(buf)
	for _, m := range r.markers {
		if i := strings.Index(buf, m); i >= 0 && i < cut {
			cut = i
		}
	}
	if cut < len(buf) {
		r.out = buf[:cut]
		r.done = true
		return true
	}
	return false
}

// finish closes the stream without a marker; the whole buffer is the
// completion.
func (r *rawAccumulator) finish() {
	if r.done {
		return
	}
	r.out = r.buf.String()
	r.done = true
}

// buildRawResult converts the completed raw text into operations at the
// cursor. A single-line completion replaces the current line inline; a
// multi-line completion is inserted below the current line, with the
// first inserted line re-indented to match it.
func (p *Parser) buildRawResult() Result {
	completion := p.raw.out
	if completion == "" {
		return Result{}
	}

	docLines := p.ctx.DocumentLines()
	line := p.ctx.CursorLine()
	if line < 1 || line > len(docLines) {
		return Result{}
	}
	current := docLines[line-1]

	if !strings.Contains(completion, "\n") {
		prefix, suffix := current, ""
		if ic, ok := p.ctx.(*InlineContext); ok {
			prefix, suffix = ic.Prefix, ic.Suffix
		}
		revised := prefix + completion + suffix
		if revised == current {
			return Result{}
		}
		d := text.Diff(current, revised)
		p.ops = text.BuildOperations(d, line)
		return p.currentResult()
	}

	lines := strings.Split(strings.TrimSuffix(completion, "\n"), "\n")
	lines[0] = indentOf(current) + strings.TrimLeft(lines[0], " \t")
	for i, l := range lines {
		p.ops = append(p.ops, text.EditOperation{
			Kind:         text.OpInsert,
			Line:         line + 1,
			Content:      l,
			OriginalLine: line + 1,
			ResultLine:   line + 1 + i,
		})
	}
	return p.currentResult()
}

// indentOf returns the leading whitespace of a line.
func indentOf(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] != ' ' && s[i] != '\t' {
			return s[:i]
		}
	}
	return s
}
