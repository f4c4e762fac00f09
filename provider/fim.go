package provider

import (
	"strings"

	"editstream/parser"
	"editstream/utils"
)

// FIMTokens are the sentinel tokens a fill-in-the-middle model was
// trained with.
type FIMTokens struct {
	Prefix string
	Suffix string
	Middle string
}

// DefaultFIMTokens matches the common code-model convention.
var DefaultFIMTokens = FIMTokens{
	Prefix: "<|fim_prefix|>",
	Suffix: "<|fim_suffix|>",
	Middle: "<|fim_middle|>",
}

// FIM builds fill-in-the-middle prompts: everything before the cursor
// as the prefix, everything after as the suffix. The model answers with
// raw text for the gap, so the parser runs in raw format.
type FIM struct {
	tokens FIMTokens
}

func NewFIM(tokens FIMTokens) *FIM {
	return &FIM{tokens: tokens}
}

func (f *FIM) Name() string          { return "fim" }
func (f *FIM) Format() parser.Format { return parser.FormatRaw }

func (f *FIM) BuildPrompt(req *Request) string {
	if len(req.Lines) == 0 {
		return f.tokens.Prefix + f.tokens.Suffix + f.tokens.Middle
	}

	lines, row, _, _ := utils.TrimContentAroundCursor(req.Lines, req.CursorLine-1, req.MaxContextTokens)

	var prefix, suffix strings.Builder
	for i := 0; i < row; i++ {
		prefix.WriteString(lines[i])
		prefix.WriteByte('\n')
	}
	current := lines[row]
	col := req.CursorCol
	if col > len(current) {
		col = len(current)
	}
	prefix.WriteString(current[:col])
	suffix.WriteString(current[col:])
	for i := row + 1; i < len(lines); i++ {
		suffix.WriteByte('\n')
		suffix.WriteString(lines[i])
	}

	return f.tokens.Prefix + prefix.String() + f.tokens.Suffix + suffix.String() + f.tokens.Middle
}
