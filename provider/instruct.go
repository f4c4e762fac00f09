package provider

import (
	"fmt"
	"strings"

	"editstream/parser"
	"editstream/utils"
)

const cursorMarker = "<|cursor|>"

// Instruct builds prompts for instruction-tuned models: the document
// with a cursor marker, any gathered context, and a request for edit
// descriptors the parser can recognize.
type Instruct struct{}

func NewInstruct() *Instruct {
	return &Instruct{}
}

func (p *Instruct) Name() string          { return "instruct" }
func (p *Instruct) Format() parser.Format { return parser.FormatSearchReplace }

func (p *Instruct) BuildPrompt(req *Request) string {
	var sb strings.Builder

	if req.Context != nil {
		if req.Context.GitDiff != "" {
			sb.WriteString("Staged changes:\n")
			sb.WriteString(req.Context.GitDiff)
			sb.WriteString("\n\n")
		}
		for _, d := range req.Context.Diagnostics {
			fmt.Fprintf(&sb, "Diagnostic on line %d: %s\n", d.Line, d.Message)
		}
		if len(req.Context.Diagnostics) > 0 {
			sb.WriteByte('\n')
		}
	}

	lines, row, _, _ := utils.TrimContentAroundCursor(req.Lines, req.CursorLine-1, req.MaxContextTokens)
	for i, line := range lines {
		if i == row {
			col := req.CursorCol
			if col > len(line) {
				col = len(line)
			}
			sb.WriteString(line[:col])
			sb.WriteString(cursorMarker)
			sb.WriteString(line[col:])
		} else {
			sb.WriteString(line)
		}
		sb.WriteByte('\n')
	}

	if req.Instruction != "" {
		sb.WriteString("\nInstruction: ")
		sb.WriteString(req.Instruction)
		sb.WriteByte('\n')
	}
	sb.WriteString("\nRespond with change{ search: ..., replace: ... } blocks.\n")
	return sb.String()
}
