package text

import (
	"testing"

	"editstream/assert"
)

func TestDiff_RoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		original string
		revised  string
	}{
		{"identical", "a\nb\nc", "a\nb\nc"},
		{"insertion", "a\nc", "a\nb\nc"},
		{"deletion", "a\nb\nc", "a\nc"},
		{"replacement", "a\nold\nc", "a\nnew\nc"},
		{"empty to content", "", "a\nb"},
		{"content to empty", "a\nb", ""},
		{"blank line replaced", "function f(){\n\n}", "function f(){\n  return 1;\n}"},
		{"multi line replace", "a\nb\nc\nd", "a\nx\ny\nz\nd"},
		{"trailing blank", "a\n", "a\nb\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Diff(tt.original, tt.revised)
			assert.Equal(t, tt.original, Reconstruct(d, DiffRemoved), "original reconstruction")
			assert.Equal(t, tt.revised, Reconstruct(d, DiffAdded), "revised reconstruction")
		})
	}
}

func TestDiff_NoChangeIsAllSame(t *testing.T) {
	d := Diff("a\nb", "a\nb")
	assert.Len(t, 2, d, "diff lines")
	for _, line := range d {
		assert.Equal(t, DiffSame, line.Kind, "diff line kind")
	}
}

func TestDiff_ContiguousChangesStayGrouped(t *testing.T) {
	d := Diff("a\nold1\nold2\nb", "a\nnew1\nnew2\nb")

	// expect same, removed, removed, added, added, same
	kinds := make([]DiffKind, len(d))
	for i, line := range d {
		kinds[i] = line.Kind
	}
	assert.Equal(t,
		[]DiffKind{DiffSame, DiffRemoved, DiffRemoved, DiffAdded, DiffAdded, DiffSame},
		kinds, "diff shape")
}

func TestDiffChars_SharesShape(t *testing.T) {
	d := DiffChars("hello world", "hello there")

	var original, revised string
	for _, seg := range d {
		if seg.Kind == DiffSame || seg.Kind == DiffRemoved {
			original += seg.Text
		}
		if seg.Kind == DiffSame || seg.Kind == DiffAdded {
			revised += seg.Text
		}
	}
	assert.Equal(t, "hello world", original, "char diff original")
	assert.Equal(t, "hello there", revised, "char diff revised")
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitLines("a\nb\n"), "trailing newline dropped")
	assert.Equal(t, []string{"a", "b"}, splitLines("a\nb"), "no trailing newline")
	assert.Equal(t, []string{"a", ""}, splitLines("a\n\n"), "embedded blank kept")
}

func TestJoinLines(t *testing.T) {
	assert.Equal(t, "a\nb\n", JoinLines([]string{"a", "b"}), "two lines")
	assert.Equal(t, "a\n\n", JoinLines([]string{"a", ""}), "blank second line")
	assert.Equal(t, "", JoinLines(nil), "empty input")
}

func TestLineSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, LineSimilarity("", ""), "both empty")
	assert.Equal(t, 0.0, LineSimilarity("", "abc"), "one empty")
	assert.Equal(t, 1.0, LineSimilarity("same", "same"), "identical")

	sim := LineSimilarity("const x = 1;", "const x = 2;")
	assert.True(t, sim > SimilarityThreshold, "near-identical lines above threshold")

	sim = LineSimilarity("const x = 1;", "zzzzzzzzzzzz")
	assert.True(t, sim < SimilarityThreshold, "unrelated lines below threshold")
}
