// Package document defines the read and mutate surfaces the engine needs
// from a host editor. The core never talks to a concrete editor directly;
// it consumes snapshots through Document and issues ranged line edits
// through Mutator.
package document

// Position is a location in a document. Line is 1-indexed, Col is a
// 0-indexed byte offset within the line.
type Position struct {
	Line int
	Col  int
}

// Document is a read-only snapshot of a text document.
type Document interface {
	// LineCount returns the number of lines in the document.
	LineCount() int
	// Line returns the 1-indexed line without its trailing newline.
	// ok is false when n is out of range.
	Line(n int) (text string, ok bool)
	// Text returns the full document text.
	Text() string
	// OffsetAt converts a position to a byte offset into Text().
	OffsetAt(pos Position) int
	// PositionAt converts a byte offset into Text() to a position.
	PositionAt(offset int) Position
}

// Mutator applies ranged line edits to a live document. Implementations
// are responsible for batching the edits issued during a single apply
// call into one atomic change on the host side.
type Mutator interface {
	// DeleteLineRange removes lines [start, endExclusive). Both are
	// 1-indexed.
	DeleteLineRange(start, endExclusive int) error
	// InsertLines places lines before the 1-indexed line at. Passing
	// at == LineCount()+1 appends at the end of the document.
	InsertLines(at int, lines []string) error
}
