package text

import (
	"strings"
	"unicode/utf8"
)

// WordBoundaryChars are the characters that terminate a word for
// word-granular acceptance. Spaces, tabs, and common punctuation.
const WordBoundaryChars = " \t.,;:!?()[]{}\"'`<>/"

// FindNextWordBoundary returns the byte length of the next word in text,
// including the boundary character that ends it. Returns len(text) when
// no boundary occurs.
func FindNextWordBoundary(text string) int {
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if strings.ContainsRune(WordBoundaryChars, r) {
			return i + size
		}
		i += size
	}
	return len(text)
}

// SplitNextWord splits text into the next acceptable word (boundary
// included) and the remainder. Leading boundary characters are consumed
// together with the word that follows them, so repeated calls walk the
// text word by word without stalling on runs of punctuation.
func SplitNextWord(text string) (word, rest string) {
	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !strings.ContainsRune(WordBoundaryChars, r) {
			break
		}
		i += size
	}
	n := i + FindNextWordBoundary(text[i:])
	return text[:n], text[n:]
}

// NextWordAcceptance computes the partial edit that accepts one more
// word of group's suggestion. It applies only to a single-line replace
// whose inserted text extends the deleted text, the inline-completion
// shape. line is the group's anchor, newText the line content after
// accepting the next word, and done reports whether that word was the
// last one. ok is false when the group has a different shape.
func NextWordAcceptance(group *EditGroup) (line int, newText string, done, ok bool) {
	if group == nil || len(group.Operations) != 2 {
		return 0, "", false, false
	}
	del, ins := group.Operations[0], group.Operations[1]
	if del.Kind != OpDelete || ins.Kind != OpInsert || del.Line != ins.Line {
		return 0, "", false, false
	}
	if !strings.HasPrefix(ins.Content, del.Content) || len(ins.Content) == len(del.Content) {
		return 0, "", false, false
	}
	word, rest := SplitNextWord(ins.Content[len(del.Content):])
	return del.Line, del.Content + word, rest == "", true
}
