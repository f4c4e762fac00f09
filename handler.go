package main

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	nv "github.com/neovim/go-client/nvim"

	"editstream/cache"
	"editstream/client/openai"
	editctx "editstream/ctx"
	"editstream/editor/nvim"
	"editstream/engine"
	"editstream/logger"
	"editstream/parser"
	"editstream/provider"
)

// Handler owns the editor state for one connection: the buffer mirror,
// the completion client, and one session per open file.
type Handler struct {
	ctx      context.Context
	config   Config
	buf      *nvim.Buffer
	client   *openai.Client
	cache    *cache.Cache
	gatherer *editctx.Gatherer
	provider provider.Provider

	mu       sync.Mutex
	sessions map[string]*engine.Session
}

func NewHandler(ctx context.Context, config Config, n *nv.Nvim) *Handler {
	buf := nvim.New(nvim.Config{NsID: config.NsID})
	buf.SetClient(n)

	return &Handler{
		ctx:      ctx,
		config:   config,
		buf:      buf,
		client:   openai.NewClient(config.ProviderURL, config.ProviderAPIKey, 0),
		cache:    cache.New(config.CacheCapacity),
		gatherer: editctx.NewGatherer(buf),
		provider: provider.ForName(config.Format),
		sessions: make(map[string]*engine.Session),
	}
}

// Register hooks the handler into the connection's RPC events.
func (h *Handler) Register() error {
	return h.buf.RegisterEventHandler(h.handleEvent)
}

// Close cancels every session's in-flight work.
func (h *Handler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.sessions {
		s.Cancel()
	}
}

func (h *Handler) handleEvent(event string) {
	defer logger.Trace("handler.event." + event)()

	sync, err := h.buf.Sync()
	if err != nil {
		logger.Error("buffer sync failed: %v", err)
		return
	}
	if sync.BufferChanged {
		h.buf.ClearUI()
	}

	session := h.sessionFor(h.buf.Path())

	// edit events carry the user's instruction after the colon
	if instruction, ok := strings.CutPrefix(event, "edit:"); ok {
		go h.requestCompletion(session, instruction)
		return
	}

	switch event {
	case "request":
		go h.requestCompletion(session, "")
	case "next":
		session.SelectNext()
		h.render(session)
	case "prev":
		session.SelectPrevious()
		h.render(session)
	case "closest":
		session.SelectClosest(h.buf.CursorLine())
		h.render(session)
	case "accept":
		h.accept(session)
	case "accept_word":
		h.acceptWord(session)
	case "accept_all":
		h.acceptAll(session)
	case "skip":
		if err := session.SkipSelected(); err == nil {
			h.render(session)
		}
	case "text_changed":
		session.NotifyTextChanged()
		h.buf.ClearUI()
	case "cancel":
		session.Cancel()
		h.buf.ClearUI()
	default:
		logger.Warn("unknown event: %s", event)
	}
}

func (h *Handler) sessionFor(path string) *engine.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.sessions[path]; ok {
		return s
	}
	s := engine.NewSession(path, h.buf, h, h.provider.Format(), h.cache, nil)
	h.sessions[path] = s
	return s
}

// StreamCompletion implements engine.Streamer over the OpenAI client.
func (h *Handler) StreamCompletion(ctx context.Context, prompt string, onChunk func(string) error) error {
	req := &openai.CompletionRequest{
		Model:       h.config.ProviderModel,
		Prompt:      prompt,
		Temperature: h.config.ProviderTemperature,
		MaxTokens:   h.config.ProviderMaxTokens,
		N:           1,
	}
	_, err := h.client.DoStreamingCompletion(ctx, req, h.config.ProviderMaxLines, onChunk)
	return err
}

func (h *Handler) requestCompletion(session *engine.Session, instruction string) {
	ctx := h.ctx
	if h.config.CompletionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(h.config.CompletionTimeout)*time.Millisecond)
		defer cancel()
	}

	path := h.buf.Path()
	gathered := h.gatherer.Gather(ctx, &editctx.SourceRequest{
		FilePath:      path,
		WorkspacePath: filepath.Dir(path),
		CursorLine:    h.buf.CursorLine(),
	})

	lines := snapshotLines(h.buf.Lines())
	row, col := h.buf.CursorLine(), h.buf.CursorCol()

	prompt := h.provider.BuildPrompt(&provider.Request{
		Path:             path,
		Lines:            lines,
		CursorLine:       row,
		CursorCol:        col,
		Instruction:      instruction,
		Context:          gathered,
		MaxContextTokens: h.config.ContextMaxTokens,
	})

	pctx := h.parseContext(lines, row, col, instruction, gathered)
	err := session.RequestSuggestions(ctx, pctx, prompt)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("completion request canceled")
			return
		}
		logger.Error("completion request failed: %v", err)
		return
	}
	h.render(session)
}

// parseContext picks the parse context matching the request: an edit
// instruction, a diagnostic under the cursor, or a plain inline
// completion.
func (h *Handler) parseContext(lines []string, row, col int, instruction string, gathered *editctx.Result) parser.Context {
	if instruction != "" {
		return &parser.EditRequestContext{
			Lines:       lines,
			Line:        row,
			Instruction: instruction,
			RangeStart:  row,
			RangeEnd:    row,
		}
	}

	if gathered != nil && h.provider.Format() == parser.FormatSearchReplace {
		for _, d := range gathered.Diagnostics {
			if d.Line == row {
				return &parser.DiagnosticFixContext{
					Lines:   lines,
					Line:    row,
					Message: d.Message,
					Source:  d.Source,
				}
			}
		}
	}

	prefix, suffix := "", ""
	if row >= 1 && row <= len(lines) {
		line := lines[row-1]
		if col > len(line) {
			col = len(line)
		}
		prefix, suffix = line[:col], line[col:]
	}
	return &parser.InlineContext{
		Lines:  lines,
		Line:   row,
		Col:    col,
		Prefix: prefix,
		Suffix: suffix,
	}
}

func snapshotLines(lines []string) []string {
	out := make([]string, len(lines))
	copy(out, lines)
	return out
}

func (h *Handler) accept(session *engine.Session) {
	if err := session.AcceptSelected(); err != nil {
		if !errors.Is(err, engine.ErrNoSelection) {
			logger.Error("accept failed: %v", err)
		}
		return
	}
	h.render(session)
}

func (h *Handler) acceptWord(session *engine.Session) {
	if err := session.AcceptWord(); err != nil {
		if !errors.Is(err, engine.ErrNoSelection) {
			logger.Error("accept word failed: %v", err)
		}
		return
	}
	h.render(session)
}

func (h *Handler) acceptAll(session *engine.Session) {
	if err := session.AcceptAll(); err != nil {
		if !errors.Is(err, engine.ErrNoSelection) {
			logger.Error("accept all failed: %v", err)
		}
		return
	}
	h.buf.ClearUI()
}

// render pushes the session's current groups and selection to the
// editor, or clears the UI when nothing is pending.
func (h *Handler) render(session *engine.Session) {
	set := session.Suggestions()
	if set == nil || set.Empty() {
		h.buf.ClearUI()
		return
	}
	selected := -1
	if idx, ok := set.SelectedIndex(); ok {
		selected = idx
	}
	if err := h.buf.ShowSuggestions(set.Groups(), selected); err != nil {
		logger.Error("failed to render suggestions: %v", err)
	}
	if g := set.SelectedGroup(); g != nil {
		h.buf.MoveCursor(g.MinLine())
	}
}
