package document

import (
	"fmt"
	"strings"
)

// Memory is an in-memory document used by the engine's simulations and by
// tests. It implements both Document and Mutator.
type Memory struct {
	lines []string
}

// NewMemory creates a Memory document from full text. Lines are separated
// by "\n"; the empty string is a single empty line.
func NewMemory(text string) *Memory {
	return &Memory{lines: strings.Split(text, "\n")}
}

// NewMemoryFromLines creates a Memory document from a line slice. The
// slice is copied.
func NewMemoryFromLines(lines []string) *Memory {
	m := &Memory{lines: make([]string, len(lines))}
	copy(m.lines, lines)
	return m
}

func (m *Memory) LineCount() int {
	return len(m.lines)
}

func (m *Memory) Line(n int) (string, bool) {
	if n < 1 || n > len(m.lines) {
		return "", false
	}
	return m.lines[n-1], true
}

func (m *Memory) Text() string {
	return strings.Join(m.lines, "\n")
}

// Lines returns a copy of the document's lines.
func (m *Memory) Lines() []string {
	out := make([]string, len(m.lines))
	copy(out, m.lines)
	return out
}

func (m *Memory) OffsetAt(pos Position) int {
	offset := 0
	for i := 1; i < pos.Line && i <= len(m.lines); i++ {
		offset += len(m.lines[i-1]) + 1
	}
	return offset + pos.Col
}

func (m *Memory) PositionAt(offset int) Position {
	remaining := offset
	for i, line := range m.lines {
		if remaining <= len(line) {
			return Position{Line: i + 1, Col: remaining}
		}
		remaining -= len(line) + 1
	}
	return Position{Line: len(m.lines), Col: len(m.lines[len(m.lines)-1])}
}

func (m *Memory) DeleteLineRange(start, endExclusive int) error {
	if start < 1 || endExclusive > len(m.lines)+1 || start > endExclusive {
		return fmt.Errorf("delete range [%d, %d) out of bounds (%d lines)", start, endExclusive, len(m.lines))
	}
	m.lines = append(m.lines[:start-1], m.lines[endExclusive-1:]...)
	if len(m.lines) == 0 {
		m.lines = []string{""}
	}
	return nil
}

func (m *Memory) InsertLines(at int, lines []string) error {
	if at < 1 || at > len(m.lines)+1 {
		return fmt.Errorf("insert at %d out of bounds (%d lines)", at, len(m.lines))
	}
	out := make([]string, 0, len(m.lines)+len(lines))
	out = append(out, m.lines[:at-1]...)
	out = append(out, lines...)
	out = append(out, m.lines[at-1:]...)
	m.lines = out
	return nil
}
