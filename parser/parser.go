package parser

import (
	"strings"

	"editstream/logger"
	"editstream/text"
)

// Format selects how model output is recognized.
type Format int

const (
	// FormatSearchReplace expects zero or more
	// "change{ search: ..., replace: ... }" blocks.
	FormatSearchReplace Format = iota
	// FormatRaw expects plain completion text bounded by stop markers.
	FormatRaw
)

// State is the parser's position in its lifecycle. It only moves
// forward; Initialize returns it to StateIdle.
type State int

const (
	StateIdle State = iota
	StateAccumulating
	StateFinished
)

// Result is what one ProcessChunk or Finish call produced. When no
// complete descriptor was recognized HasNewSuggestions is false and
// Suggestions is nil.
type Result struct {
	HasNewSuggestions bool
	Suggestions       *text.SuggestionSet
}

// Parser incrementally recognizes edit descriptors from streamed model
// output. Chunks may split descriptors anywhere, including inside a
// delimiter token; the parser buffers across calls and emits a fresh
// suggestion set each time one or more descriptors complete.
//
// Not safe for concurrent use. One parser serves one completion stream.
type Parser struct {
	format Format
	state  State
	ctx    Context

	buf strings.Builder

	raw *rawAccumulator

	// accepted descriptor state
	ops     []text.EditOperation
	matched []Match
}

// New creates a parser for the given format. Initialize must be called
// before the first chunk.
func New(format Format) *Parser {
	return &Parser{format: format}
}

// Initialize resets the parser for a new stream against ctx.
func (p *Parser) Initialize(ctx Context) {
	p.state = StateIdle
	p.ctx = ctx
	p.buf.Reset()
	p.ops = nil
	p.matched = nil
	p.raw = nil
	if p.format == FormatRaw {
		p.raw = newRawAccumulator(DefaultStopMarkers)
	}
}

// State returns the current lifecycle state.
func (p *Parser) State() State {
	return p.state
}

// ProcessChunk appends chunk to the internal buffer and recognizes any
// descriptors that completed. Never blocks; cost is proportional to the
// buffered length.
func (p *Parser) ProcessChunk(chunk string) Result {
	if p.state == StateFinished {
		return Result{}
	}
	p.state = StateAccumulating

	switch p.format {
	case FormatRaw:
		if p.raw.feed(chunk) {
			p.state = StateFinished
			return p.buildRawResult()
		}
		return Result{}
	default:
		p.buf.WriteString(chunk)
		return p.scanBlocks()
	}
}

// Finish flushes whatever is still buffered, salvaging an unterminated
// trailing descriptor when its pieces are all present, and returns the
// final result.
func (p *Parser) Finish() Result {
	if p.state == StateFinished {
		return Result{}
	}
	p.state = StateFinished

	if p.format == FormatRaw {
		p.raw.finish()
		return p.buildRawResult()
	}

	res := p.scanBlocks()
	if p.salvageTail() || res.HasNewSuggestions {
		return p.currentResult()
	}
	if len(p.ops) > 0 {
		return p.currentResult()
	}
	return Result{}
}

const blockOpen = "change{"

// scanBlocks consumes every complete change block currently in the
// buffer. Text outside blocks is prose and is discarded.
func (p *Parser) scanBlocks() Result {
	accepted := false
	for {
		buf := p.buf.String()
		start := strings.Index(buf, blockOpen)
		if start < 0 {
			// keep a tail that could be a split "change{" token
			p.retainTail(buf, partialTokenTail(buf, blockOpen))
			break
		}
		bodyStart := start + len(blockOpen)
		end, ok := findBlockEnd(buf, bodyStart)
		if !ok {
			p.retainTail(buf, len(buf)-start)
			break
		}
		if p.acceptBlock(buf[bodyStart:end]) {
			accepted = true
		}
		p.retainTail(buf, len(buf)-(end+1))
	}
	if !accepted {
		return Result{}
	}
	return p.currentResult()
}

// retainTail replaces the buffer with the last n bytes of buf.
func (p *Parser) retainTail(buf string, n int) {
	p.buf.Reset()
	if n > 0 {
		p.buf.WriteString(buf[len(buf)-n:])
	}
}

// partialTokenTail returns the length of the longest suffix of buf that
// is a proper prefix of token.
func partialTokenTail(buf, token string) int {
	max := len(token) - 1
	if max > len(buf) {
		max = len(buf)
	}
	for n := max; n > 0; n-- {
		if strings.HasSuffix(buf, token[:n]) {
			return n
		}
	}
	return 0
}

// findBlockEnd scans from bodyStart for the closing brace of a block
// opened just before it, tracking nested braces so that code inside the
// search and replace values does not terminate the block early. Returns
// the index of the closing brace.
func findBlockEnd(buf string, bodyStart int) (int, bool) {
	depth := 1
	for i := bodyStart; i < len(buf); i++ {
		switch buf[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// acceptBlock parses one block body and, if it holds a usable change,
// appends its operations. Malformed or unmatched blocks are dropped.
func (p *Parser) acceptBlock(body string) bool {
	search, replace, ok := splitBlock(body)
	if !ok {
		logger.Warn("malformed change block, dropping")
		return false
	}
	return p.acceptChange(search, replace)
}

// splitBlock separates a block body into its search and replace values.
// The separator is a ", replace:" occurring outside any delimiter pair
// opened by the search text itself.
func splitBlock(body string) (search, replace string, ok bool) {
	const searchKey = "search:"
	const replaceKey = "replace:"

	i := strings.Index(body, searchKey)
	if i < 0 {
		return "", "", false
	}
	rest := body[i+len(searchKey):]

	depth := 0
	for j := 0; j < len(rest); j++ {
		switch rest[j] {
		case '{', '(', '[':
			depth++
		case '}', ')', ']':
			depth--
		case ',':
			if depth != 0 {
				continue
			}
			after := strings.TrimLeft(rest[j+1:], " \t\n")
			if strings.HasPrefix(after, replaceKey) {
				k := strings.Index(rest[j+1:], replaceKey)
				search = trimValue(rest[:j])
				replace = trimValue(rest[j+1+k+len(replaceKey):])
				return search, replace, true
			}
		}
	}

	// Unbalanced search text throws off the depth scan. Fall back to a
	// plain split so the change reaches the balance check and is
	// rejected with the right diagnosis.
	if j := strings.Index(rest, ","); j >= 0 {
		if k := strings.Index(rest[j:], replaceKey); k >= 0 {
			search = trimValue(rest[:j])
			replace = trimValue(rest[j+k+len(replaceKey):])
			return search, replace, true
		}
	}
	return "", "", false
}

// trimValue strips the serialization padding around a value: the single
// space after the key, and the closing delimiter's own line when the
// value ends with a newline followed only by whitespace.
func trimValue(v string) string {
	v = strings.TrimPrefix(v, " ")
	if i := strings.LastIndexByte(v, '\n'); i >= 0 && strings.TrimSpace(v[i+1:]) == "" {
		return v[:i]
	}
	return strings.TrimSuffix(v, " ")
}

// acceptChange validates one search/replace pair, locates the target,
// and appends the resulting operations. Returns false when the change
// was rejected or skipped.
func (p *Parser) acceptChange(search, replace string) bool {
	if !Balanced(search) {
		logger.Warn("search target has unbalanced delimiters, rejecting")
		return false
	}

	docLines := p.ctx.DocumentLines()
	searchLines := strings.Split(search, "\n")
	m, ok := FindMatch(docLines, searchLines)
	if !ok {
		logger.Warn("search target not found after %d match tiers, skipping change", len(matchTiers))
		return false
	}
	if p.overlapsAccepted(m) {
		logger.Warn("change at lines %d-%d overlaps an earlier change, dropping", m.StartLine, m.EndLine)
		return false
	}
	if m.Tier != TierExact {
		logger.Debug("search target matched at lines %d-%d via %s tier", m.StartLine, m.EndLine, m.Tier)
	}
	p.matched = append(p.matched, m)

	original := strings.Join(docLines[m.StartLine-1:m.EndLine], "\n")
	if original == replace {
		return false
	}
	d := text.Diff(original, replace)
	p.ops = append(p.ops, text.BuildOperations(d, m.StartLine)...)
	return true
}

func (p *Parser) overlapsAccepted(m Match) bool {
	for _, prev := range p.matched {
		if m.StartLine <= prev.EndLine && prev.StartLine <= m.EndLine {
			return true
		}
	}
	return false
}

// salvageTail treats an unterminated trailing block as if it were
// terminated, provided both its values are present. Reports whether a
// change was recovered.
func (p *Parser) salvageTail() bool {
	buf := p.buf.String()
	start := strings.Index(buf, blockOpen)
	if start < 0 {
		return false
	}
	body := buf[start+len(blockOpen):]
	search, replace, ok := splitBlock(body)
	if !ok {
		logger.Debug("unterminated change block not salvageable, dropping")
		return false
	}
	p.buf.Reset()
	return p.acceptChange(search, replace)
}

// currentResult builds a fresh suggestion set from every accepted
// operation so far.
func (p *Parser) currentResult() Result {
	if len(p.ops) == 0 {
		return Result{}
	}
	ops := make([]text.EditOperation, len(p.ops))
	copy(ops, p.ops)
	groups := text.GroupOperations(ops)
	return Result{
		HasNewSuggestions: true,
		Suggestions:       text.NewSuggestionSet(groups),
	}
}
