// Package provider shapes completion requests for a backend style: the
// prompt the model sees and the output format the parser should expect
// back. Two styles are built in: fill-in-the-middle for raw completion
// models, and an instruct style that asks for edit descriptors.
package provider

import (
	"editstream/ctx"
	"editstream/parser"
)

// Request carries everything a provider may use to build a prompt.
type Request struct {
	Path        string
	Lines       []string
	CursorLine  int // 1-indexed
	CursorCol   int // byte offset in the cursor line
	Instruction string
	Context     *ctx.Result

	// MaxContextTokens trims the document window around the cursor.
	// Zero means the whole document is sent.
	MaxContextTokens int
}

// Provider builds prompts for one backend style.
type Provider interface {
	Name() string
	// Format is the parser format matching this provider's output.
	Format() parser.Format
	BuildPrompt(req *Request) string
}

// ForName maps a configured style name to a provider. Unknown names get
// the instruct style.
func ForName(name string) Provider {
	switch name {
	case "fim", "raw":
		return NewFIM(DefaultFIMTokens)
	default:
		return NewInstruct()
	}
}
