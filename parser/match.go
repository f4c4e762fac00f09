package parser

import (
	"regexp"
	"strings"

	"editstream/text"
)

// MatchTier identifies which matching strategy located a search target.
// Tiers are tried strictest first; the tier that succeeded is reported
// for logging.
type MatchTier int

const (
	TierExact MatchTier = iota
	TierNormalized
	TierTrimmed
	TierFlexible
	TierWordPrefix
)

func (t MatchTier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierNormalized:
		return "normalized"
	case TierTrimmed:
		return "trimmed"
	case TierFlexible:
		return "flexible"
	case TierWordPrefix:
		return "word-prefix"
	default:
		return "unknown"
	}
}

// matchPrefixWords is how many leading words the last-resort tier
// compares per line.
const matchPrefixWords = 3

// Match is a located search target, a contiguous run of document lines.
type Match struct {
	StartLine int // 1-indexed, inclusive
	EndLine   int // 1-indexed, inclusive
	Tier      MatchTier
}

// lineMatcher reports whether a document line satisfies a search line
// under one tier's comparison. Each tier is a pure function of its two
// inputs.
type lineMatcher func(docLine, searchLine string) bool

var matchTiers = []struct {
	tier MatchTier
	eq   lineMatcher
}{
	{TierExact, func(d, s string) bool { return d == s }},
	{TierNormalized, func(d, s string) bool { return normalizeSpace(d) == normalizeSpace(s) }},
	{TierTrimmed, func(d, s string) bool { return strings.TrimSpace(d) == strings.TrimSpace(s) }},
	{TierFlexible, flexibleEqual},
	{TierWordPrefix, wordPrefixEqual},
}

// FindMatch locates searchLines as a contiguous run in docLines, trying
// each tier in order and returning the first hit. Scanning within a tier
// is top to bottom, so the earliest occurrence wins.
func FindMatch(docLines, searchLines []string) (Match, bool) {
	if len(searchLines) == 0 || len(searchLines) > len(docLines) {
		return Match{}, false
	}
	for _, t := range matchTiers {
		for start := 0; start+len(searchLines) <= len(docLines); start++ {
			if !linesEqualAt(docLines, searchLines, start, t.eq) {
				continue
			}
			if t.tier == TierWordPrefix && !similarEnough(docLines, searchLines, start) {
				continue
			}
			return Match{
				StartLine: start + 1,
				EndLine:   start + len(searchLines),
				Tier:      t.tier,
			}, true
		}
	}
	return Match{}, false
}

// similarEnough guards the word-prefix tier: agreeing on a few leading
// words says little about the rest of a line, so every line of the
// candidate run must also clear the similarity threshold.
func similarEnough(docLines, searchLines []string, start int) bool {
	for i, s := range searchLines {
		if text.LineSimilarity(docLines[start+i], s) < text.SimilarityThreshold {
			return false
		}
	}
	return true
}

func linesEqualAt(docLines, searchLines []string, start int, eq lineMatcher) bool {
	for i, s := range searchLines {
		if !eq(docLines[start+i], s) {
			return false
		}
	}
	return true
}

var spaceRun = regexp.MustCompile(`\s+`)

// normalizeSpace collapses every whitespace run to a single space and
// trims the ends.
func normalizeSpace(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

// flexibleEqual matches a search line as an anchored regex where each
// whitespace gap accepts any whitespace run.
func flexibleEqual(docLine, searchLine string) bool {
	fields := strings.Fields(searchLine)
	if len(fields) == 0 {
		return strings.TrimSpace(docLine) == ""
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = regexp.QuoteMeta(f)
	}
	re, err := regexp.Compile(`^\s*` + strings.Join(parts, `\s+`) + `\s*$`)
	if err != nil {
		return false
	}
	return re.MatchString(docLine)
}

// wordPrefixEqual compares the first few words of each line. Blank
// search lines only match blank document lines.
func wordPrefixEqual(docLine, searchLine string) bool {
	sw := strings.Fields(searchLine)
	dw := strings.Fields(docLine)
	if len(sw) == 0 {
		return len(dw) == 0
	}
	n := matchPrefixWords
	if len(sw) < n {
		n = len(sw)
	}
	if len(dw) < n {
		return false
	}
	for i := 0; i < n; i++ {
		if sw[i] != dw[i] {
			return false
		}
	}
	return true
}

// Balanced reports whether the braces, parentheses, and brackets in s
// pair up. A search target with unbalanced delimiters is a fragment of a
// larger construct and matching it would splice a suggestion into the
// middle of that construct, so such targets are rejected outright.
func Balanced(s string) bool {
	var stack []rune
	for _, r := range s {
		switch r {
		case '{', '(', '[':
			stack = append(stack, r)
		case '}', ')', ']':
			if len(stack) == 0 {
				return false
			}
			open := stack[len(stack)-1]
			if (r == '}' && open != '{') ||
				(r == ')' && open != '(') ||
				(r == ']' && open != '[') {
				return false
			}
			stack = stack[:len(stack)-1]
		}
	}
	return len(stack) == 0
}
