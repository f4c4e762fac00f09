// Package parser turns streamed model output into suggestion sets. It
// recognizes complete edit descriptors out of arbitrarily segmented text
// chunks, locates their targets in the document, and hands line ranges to
// the diff pipeline in the text package.
package parser

// Context describes why a completion was requested and carries the
// document state the parser matches against. It is a closed union: the
// three concrete types below are the only implementations.
type Context interface {
	// DocumentLines returns the document snapshot the completion was
	// generated against, one entry per line, without trailing newlines.
	DocumentLines() []string
	// CursorLine returns the 1-indexed line the cursor was on.
	CursorLine() int

	parseContext()
}

// InlineContext is an unprompted completion at the cursor.
type InlineContext struct {
	Lines  []string
	Line   int
	Col    int
	Prefix string // current line text before the cursor
	Suffix string // current line text after the cursor
}

func (c *InlineContext) DocumentLines() []string { return c.Lines }
func (c *InlineContext) CursorLine() int         { return c.Line }
func (c *InlineContext) parseContext()           {}

// EditRequestContext is a user-directed edit over an explicit range.
type EditRequestContext struct {
	Lines       []string
	Line        int
	Instruction string
	RangeStart  int // 1-indexed, inclusive
	RangeEnd    int // 1-indexed, inclusive
}

func (c *EditRequestContext) DocumentLines() []string { return c.Lines }
func (c *EditRequestContext) CursorLine() int         { return c.Line }
func (c *EditRequestContext) parseContext()           {}

// DiagnosticFixContext is a completion prompted by a diagnostic on a
// specific line.
type DiagnosticFixContext struct {
	Lines   []string
	Line    int
	Message string
	Source  string
}

func (c *DiagnosticFixContext) DocumentLines() []string { return c.Lines }
func (c *DiagnosticFixContext) CursorLine() int         { return c.Line }
func (c *DiagnosticFixContext) parseContext()           {}
