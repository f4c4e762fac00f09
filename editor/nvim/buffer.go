// Package nvim adapts a Neovim buffer to the document interfaces the
// engine consumes. All editor traffic goes through the go-client batch
// API so each operation is a single RPC round-trip, and each apply call
// lands as one atomic change on the editor side.
package nvim

import (
	"fmt"
	"strings"

	"editstream/document"
	"editstream/logger"
	"editstream/text"

	"github.com/neovim/go-client/nvim"
)

type Config struct {
	NsID int
}

// Buffer mirrors the current Neovim buffer and implements
// document.Document and document.Mutator against it. The mirror is
// refreshed by Sync and kept consistent by the mutation methods, so
// reads between syncs are cheap.
type Buffer struct {
	client *nvim.Nvim
	id     nvim.Buffer
	config Config

	lines []string
	row   int // 1-indexed
	col   int // 0-indexed
	path  string

	viewportTop    int
	viewportBottom int
}

func New(config Config) *Buffer {
	return &Buffer{
		lines:  []string{},
		row:    1,
		id:     nvim.Buffer(0),
		config: config,
	}
}

// SetClient stores the nvim client used for all buffer operations.
func (b *Buffer) SetClient(n *nvim.Nvim) {
	b.client = n
}

type SyncResult struct {
	BufferChanged bool
	OldPath       string
	NewPath       string
}

// Sync reads the current buffer, cursor, and viewport from the editor
// in one batched round-trip.
func (b *Buffer) Sync() (*SyncResult, error) {
	defer logger.Trace("nvim.Sync")()
	if b.client == nil {
		return nil, fmt.Errorf("nvim client not set")
	}

	batch := b.client.NewBatch()

	var currentBuf nvim.Buffer
	var path string
	var lines [][]byte
	var cursor [2]int
	var viewportBounds [2]int

	batch.CurrentBuffer(&currentBuf)
	batch.BufferName(nvim.Buffer(0), &path)
	batch.BufferLines(nvim.Buffer(0), 0, -1, false, &lines)
	batch.WindowCursor(nvim.Window(0), &cursor)
	batch.ExecLua(`return {vim.fn.line("w0"), vim.fn.line("w$")}`, &viewportBounds, nil)

	if err := batch.Execute(); err != nil {
		logger.Error("error executing sync batch: %v", err)
		return nil, err
	}

	b.lines = make([]string, len(lines))
	for i, line := range lines {
		b.lines[i] = string(line)
	}
	b.row = cursor[0]
	b.col = cursor[1]
	b.viewportTop = viewportBounds[0]
	b.viewportBottom = viewportBounds[1]

	oldPath := b.path
	b.path = path

	if b.id != currentBuf {
		b.id = currentBuf
		return &SyncResult{BufferChanged: true, OldPath: oldPath, NewPath: path}, nil
	}
	return &SyncResult{BufferChanged: false, OldPath: oldPath, NewPath: path}, nil
}

func (b *Buffer) Path() string { return b.path }

func (b *Buffer) CursorLine() int { return b.row }

func (b *Buffer) CursorCol() int { return b.col }

func (b *Buffer) Lines() []string { return b.lines }

func (b *Buffer) ViewportBounds() (top, bottom int) {
	return b.viewportTop, b.viewportBottom
}

// document.Document

func (b *Buffer) LineCount() int {
	return len(b.lines)
}

func (b *Buffer) Line(n int) (string, bool) {
	if n < 1 || n > len(b.lines) {
		return "", false
	}
	return b.lines[n-1], true
}

func (b *Buffer) Text() string {
	return strings.Join(b.lines, "\n")
}

func (b *Buffer) OffsetAt(pos document.Position) int {
	offset := 0
	for i := 0; i < pos.Line-1 && i < len(b.lines); i++ {
		offset += len(b.lines[i]) + 1
	}
	if pos.Line >= 1 && pos.Line <= len(b.lines) {
		col := pos.Col
		if col > len(b.lines[pos.Line-1]) {
			col = len(b.lines[pos.Line-1])
		}
		offset += col
	}
	return offset
}

func (b *Buffer) PositionAt(offset int) document.Position {
	if offset < 0 {
		return document.Position{Line: 1, Col: 0}
	}
	text := b.Text()
	if offset > len(text) {
		offset = len(text)
	}
	pos := document.Position{Line: 1, Col: 0}
	for i := 0; i < offset; i++ {
		if text[i] == '\n' {
			pos.Line++
			pos.Col = 0
		} else {
			pos.Col++
		}
	}
	return pos
}

// document.Mutator

// DeleteLineRange removes lines [start, endExclusive) from the editor
// buffer and the mirror.
func (b *Buffer) DeleteLineRange(start, endExclusive int) error {
	if b.client == nil {
		return fmt.Errorf("nvim client not set")
	}
	if start < 1 || endExclusive <= start || endExclusive > len(b.lines)+1 {
		return fmt.Errorf("delete range [%d,%d) out of bounds for %d lines", start, endExclusive, len(b.lines))
	}

	batch := b.client.NewBatch()
	b.clearNamespace(batch)
	batch.SetBufferLines(b.id, start-1, endExclusive-1, false, [][]byte{})
	if err := batch.Execute(); err != nil {
		return err
	}

	b.lines = append(b.lines[:start-1], b.lines[endExclusive-1:]...)
	return nil
}

// InsertLines places lines before the 1-indexed line at; at equal to
// LineCount()+1 appends.
func (b *Buffer) InsertLines(at int, lines []string) error {
	if b.client == nil {
		return fmt.Errorf("nvim client not set")
	}
	if at < 1 || at > len(b.lines)+1 {
		return fmt.Errorf("insert anchor %d out of bounds for %d lines", at, len(b.lines))
	}
	if len(lines) == 0 {
		return nil
	}

	placeBytes := make([][]byte, len(lines))
	for i, line := range lines {
		placeBytes[i] = []byte(line)
	}

	batch := b.client.NewBatch()
	b.clearNamespace(batch)
	batch.SetBufferLines(b.id, at-1, at-1, false, placeBytes)
	if err := batch.Execute(); err != nil {
		return err
	}

	updated := make([]string, 0, len(b.lines)+len(lines))
	updated = append(updated, b.lines[:at-1]...)
	updated = append(updated, lines...)
	updated = append(updated, b.lines[at-1:]...)
	b.lines = updated
	return nil
}

// UI

// ShowSuggestions pushes the current groups and selection to the Lua
// side for rendering.
func (b *Buffer) ShowSuggestions(groups []*text.EditGroup, selected int) error {
	if b.client == nil {
		return fmt.Errorf("nvim client not set")
	}

	var luaGroups []map[string]any
	for _, g := range groups {
		var inserts []string
		deletes := 0
		for _, op := range g.Operations {
			switch op.Kind {
			case text.OpInsert:
				inserts = append(inserts, op.Content)
			case text.OpDelete:
				deletes++
			}
		}
		luaGroups = append(luaGroups, map[string]any{
			"start_line":   g.MinLine(),
			"end_line":     g.MaxLine(),
			"insert_lines": inserts,
			"delete_count": deletes,
		})
	}

	payload := map[string]any{
		"groups":   luaGroups,
		"selected": selected,
	}
	logger.Debug("sending to lua on_suggestions_ready: %d groups, selected=%d", len(groups), selected)
	b.executeLuaFunction("require('editstream').on_suggestions_ready(...)", payload)
	return nil
}

// ClearUI removes all suggestion decorations.
func (b *Buffer) ClearUI() error {
	if b.client == nil {
		return fmt.Errorf("nvim client not set")
	}
	logger.Debug("sending to lua on_clear")
	b.executeLuaFunction("require('editstream').on_clear()")
	return nil
}

// MoveCursor moves the cursor to the start of the given line.
func (b *Buffer) MoveCursor(line int) error {
	if b.client == nil {
		return fmt.Errorf("nvim client not set")
	}
	batch := b.client.NewBatch()
	batch.SetWindowCursor(0, [2]int{line, 0})
	batch.ExecLua("vim.cmd('normal! ^')", nil, nil)
	return batch.Execute()
}

// Diagnostic is one editor diagnostic, 1-indexed by line.
type Diagnostic struct {
	Line     int    `msgpack:"line"`
	Severity int    `msgpack:"severity"`
	Message  string `msgpack:"message"`
	Source   string `msgpack:"source"`
}

// Diagnostics returns the diagnostics currently attached to the buffer.
func (b *Buffer) Diagnostics() ([]Diagnostic, error) {
	if b.client == nil {
		return nil, fmt.Errorf("nvim client not set")
	}
	const code = `
local out = {}
for _, d in ipairs(vim.diagnostic.get(0)) do
	out[#out + 1] = {
		line = d.lnum + 1,
		severity = d.severity,
		message = d.message,
		source = d.source or "",
	}
end
return out`
	var out []Diagnostic
	if err := b.client.ExecLua(code, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RegisterEventHandler registers a handler for plugin RPC events.
func (b *Buffer) RegisterEventHandler(handler func(event string)) error {
	if b.client == nil {
		return fmt.Errorf("nvim client not set")
	}
	return b.client.RegisterHandler("editstream_event", func(_ *nvim.Nvim, event string) {
		handler(event)
	})
}

func (b *Buffer) executeLuaFunction(luaCode string, args ...any) {
	batch := b.client.NewBatch()
	if len(args) > 0 {
		batch.ExecLua(luaCode, nil, args...)
	} else {
		batch.ExecLua(luaCode, nil, nil)
	}
	if err := batch.Execute(); err != nil {
		logger.Error("error executing lua function: %v", err)
	}
}

func (b *Buffer) clearNamespace(batch *nvim.Batch) {
	batch.ClearBufferNamespace(b.id, b.config.NsID, 0, -1)
}
