package parser

import (
	"testing"

	"editstream/assert"
)

func TestFindMatch_Exact(t *testing.T) {
	doc := []string{"func main() {", "\tx := 1", "}"}

	m, ok := FindMatch(doc, []string{"\tx := 1"})
	assert.True(t, ok, "found")
	assert.Equal(t, 2, m.StartLine, "start line")
	assert.Equal(t, 2, m.EndLine, "end line")
	assert.Equal(t, TierExact, m.Tier, "tier")
}

func TestFindMatch_MultiLine(t *testing.T) {
	doc := []string{"a", "b", "c", "d"}

	m, ok := FindMatch(doc, []string{"b", "c"})
	assert.True(t, ok, "found")
	assert.Equal(t, 2, m.StartLine, "start line")
	assert.Equal(t, 3, m.EndLine, "end line")
}

func TestFindMatch_EarliestOccurrenceWins(t *testing.T) {
	doc := []string{"x", "dup", "y", "dup"}

	m, ok := FindMatch(doc, []string{"dup"})
	assert.True(t, ok, "found")
	assert.Equal(t, 2, m.StartLine, "first occurrence")
}

func TestFindMatch_NormalizedWhitespace(t *testing.T) {
	doc := []string{"if  x   ==  1 {"}

	m, ok := FindMatch(doc, []string{"if x == 1 {"})
	assert.True(t, ok, "found")
	assert.Equal(t, TierNormalized, m.Tier, "tier")
}

func TestFindMatch_Trimmed(t *testing.T) {
	doc := []string{"    return nil"}

	m, ok := FindMatch(doc, []string{"return nil"})
	assert.True(t, ok, "found")
	// normalized comparison also trims, so the earlier tier claims it
	assert.Equal(t, TierNormalized, m.Tier, "tier")
}

func TestFindMatch_FlexibleWhitespace(t *testing.T) {
	doc := []string{"\tkey :=\t\tvalue"}

	m, ok := FindMatch(doc, []string{"key := value"})
	assert.True(t, ok, "found")
	assert.True(t, m.Tier <= TierFlexible, "matched at or before flexible tier")
}

func TestFindMatch_WordPrefixFallback(t *testing.T) {
	doc := []string{"func process(items []string) error {"}

	m, ok := FindMatch(doc, []string{"func process(items []string) int {"})
	assert.True(t, ok, "found via word prefix")
	assert.Equal(t, TierWordPrefix, m.Tier, "tier")
}

func TestFindMatch_WordPrefixRequiresSimilarLine(t *testing.T) {
	// shared leading words but a wildly different tail is no match
	doc := []string{"foo bar baz 0000000000000000000000000000000000000000"}
	_, ok := FindMatch(doc, []string{"foo bar baz qux"})
	assert.False(t, ok, "prefix agreement alone rejected")

	doc = []string{"foo bar baz quux"}
	m, ok := FindMatch(doc, []string{"foo bar baz qux"})
	assert.True(t, ok, "similar line accepted")
	assert.Equal(t, TierWordPrefix, m.Tier, "word-prefix tier")
}

func TestFindMatch_NotFound(t *testing.T) {
	doc := []string{"a", "b"}

	_, ok := FindMatch(doc, []string{"missing"})
	assert.False(t, ok, "no match")

	_, ok = FindMatch(doc, []string{"a", "b", "c"})
	assert.False(t, ok, "search longer than document")

	_, ok = FindMatch(doc, nil)
	assert.False(t, ok, "empty search")
}

func TestFindMatch_BlankLine(t *testing.T) {
	doc := []string{"function f(){", "", "}"}

	m, ok := FindMatch(doc, []string{""})
	assert.True(t, ok, "blank line found")
	assert.Equal(t, 2, m.StartLine, "blank line position")
	assert.Equal(t, TierExact, m.Tier, "tier")
}

func TestBalanced(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"func f() { return b[0] }", true},
		{"", true},
		{"no delimiters at all", true},
		{"func f() {", false},
		{"}", false},
		{"(]", false},
		{"a[b(c]d)", false},
		{"nested {ok (fine [deep])}", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Balanced(tt.input), tt.input)
	}
}
