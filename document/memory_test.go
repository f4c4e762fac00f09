package document

import (
	"testing"

	"editstream/assert"
)

func TestMemory_LineAccess(t *testing.T) {
	m := NewMemory("a\nb\nc")
	assert.Equal(t, 3, m.LineCount(), "line count")

	line, ok := m.Line(2)
	assert.True(t, ok, "line 2 exists")
	assert.Equal(t, "b", line, "line 2 content")

	_, ok = m.Line(0)
	assert.False(t, ok, "line 0 out of range")
	_, ok = m.Line(4)
	assert.False(t, ok, "line 4 out of range")
}

func TestMemory_EmptyText(t *testing.T) {
	m := NewMemory("")
	assert.Equal(t, 1, m.LineCount(), "empty text is one empty line")
	assert.Equal(t, "", m.Text(), "round trip")
}

func TestMemory_DeleteLineRange(t *testing.T) {
	m := NewMemory("a\nb\nc\nd")
	assert.NoError(t, m.DeleteLineRange(2, 4), "delete middle")
	assert.Equal(t, "a\nd", m.Text(), "remaining lines")

	assert.Error(t, m.DeleteLineRange(0, 1), "start below range")
	assert.Error(t, m.DeleteLineRange(1, 99), "end past range")
}

func TestMemory_DeleteAllKeepsOneEmptyLine(t *testing.T) {
	m := NewMemory("a\nb")
	assert.NoError(t, m.DeleteLineRange(1, 3), "delete everything")
	assert.Equal(t, 1, m.LineCount(), "one line remains")
	assert.Equal(t, "", m.Text(), "empty document")
}

func TestMemory_InsertLines(t *testing.T) {
	m := NewMemory("a\nc")
	assert.NoError(t, m.InsertLines(2, []string{"b"}), "insert middle")
	assert.Equal(t, "a\nb\nc", m.Text(), "after insert")

	assert.NoError(t, m.InsertLines(4, []string{"d"}), "append via count+1")
	assert.Equal(t, "a\nb\nc\nd", m.Text(), "after append")

	assert.Error(t, m.InsertLines(99, []string{"x"}), "anchor out of range")
}

func TestMemory_OffsetConversions(t *testing.T) {
	m := NewMemory("ab\ncd")

	assert.Equal(t, 0, m.OffsetAt(Position{Line: 1, Col: 0}), "start")
	assert.Equal(t, 3, m.OffsetAt(Position{Line: 2, Col: 0}), "second line start")

	assert.Equal(t, Position{Line: 1, Col: 1}, m.PositionAt(1), "inside first line")
	assert.Equal(t, Position{Line: 2, Col: 1}, m.PositionAt(4), "inside second line")
}
