// Package engine coordinates one suggestion session per open file:
// requesting completions, feeding streamed chunks through the parser,
// holding the resulting suggestion set, and applying accepted hunks to
// the live document.
package engine

import (
	"context"
	"errors"
	"sort"
	"sync"

	"editstream/cache"
	"editstream/logger"
	"editstream/parser"
	"editstream/text"
)

// ErrNoSelection is returned when an accept or skip is requested while
// no group is selected.
var ErrNoSelection = errors.New("no group selected")

// Streamer delivers model output for a prompt as incremental text
// chunks. Implementations must honor ctx and stop promptly when it is
// canceled.
type Streamer interface {
	StreamCompletion(ctx context.Context, prompt string, onChunk func(text string) error) error
}

// Session owns the suggestion state for one file. All suggestion state
// is in-memory and dies with the session; nothing touches the document
// until an explicit accept.
//
// Methods are safe to call from the host's event loop; a request in
// flight is canceled by the next request, by typing, or by Cancel.
type Session struct {
	path     string
	doc      text.MutableDocument
	format   parser.Format
	streamer Streamer
	cache    *cache.Cache
	metrics  *Metrics

	applicator *text.Applicator

	mu     sync.Mutex
	set    *text.SuggestionSet
	cancel context.CancelFunc

	// operations of groups already applied this round, in anchor order.
	// Remaining groups keep their snapshot anchors; replaying this
	// history at apply time absorbs the line shifts.
	accepted []text.EditOperation
}

// NewSession creates a session for one file. cache may be nil to
// disable memoization; metrics may be nil.
func NewSession(path string, doc text.MutableDocument, streamer Streamer, format parser.Format, c *cache.Cache, m *Metrics) *Session {
	if m == nil {
		m = NewMetrics()
	}
	return &Session{
		path:       path,
		doc:        doc,
		format:     format,
		streamer:   streamer,
		cache:      c,
		metrics:    m,
		applicator: text.NewApplicator(),
	}
}

// Path returns the file this session serves.
func (s *Session) Path() string {
	return s.path
}

// Metrics returns the session's counters.
func (s *Session) Metrics() *Metrics {
	return s.metrics
}

// RequestSuggestions streams a completion for prompt and installs the
// parsed suggestion set. Intermediate sets are installed as descriptors
// complete, so suggestions appear before the stream ends. A previous
// in-flight request is canceled first.
//
// Cancellation unwinds cleanly: the pending set is cleared, nothing is
// applied, and ctx.Err() is returned for the caller to recognize.
func (s *Session) RequestSuggestions(ctx context.Context, pctx parser.Context, prompt string) error {
	defer logger.Trace("session.RequestSuggestions")()

	ctx, cancel := s.begin(ctx)
	defer s.finish(cancel)

	if s.cache != nil {
		fp := s.fingerprint(pctx)
		groups, cached, err := s.cache.GetOrGenerate(fp, func() ([]*text.EditGroup, error) {
			set, err := s.generate(ctx, pctx, prompt)
			if err != nil {
				return nil, err
			}
			if set == nil {
				return nil, nil
			}
			return set.Groups(), nil
		})
		if err != nil {
			s.clearPending()
			return err
		}
		if cached {
			logger.Debug("session %s: suggestions served from cache", s.path)
		}
		s.install(text.NewSuggestionSet(groups))
		return nil
	}

	set, err := s.generate(ctx, pctx, prompt)
	if err != nil {
		s.clearPending()
		return err
	}
	s.install(set)
	return nil
}

// generate runs one stream through a fresh parser. The cancellation
// signal is checked between chunks so an abort never waits on the
// model.
func (s *Session) generate(ctx context.Context, pctx parser.Context, prompt string) (*text.SuggestionSet, error) {
	p := parser.New(s.format)
	p.Initialize(pctx)

	var last *text.SuggestionSet
	err := s.streamer.StreamCompletion(ctx, prompt, func(chunk string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if res := p.ProcessChunk(chunk); res.HasNewSuggestions {
			last = res.Suggestions
			s.install(res.Suggestions)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, ctx.Err()
		}
		return nil, err
	}

	// a raw-format stop marker finishes the parser mid-stream, so the
	// last mid-stream set may already be the final one
	if final := p.Finish(); final.HasNewSuggestions {
		return final.Suggestions, nil
	}
	if last != nil {
		return last, nil
	}
	// no complete descriptor in the whole stream: degrade to "no
	// suggestion" rather than an error
	return nil, nil
}

func (s *Session) fingerprint(pctx parser.Context) cache.Fingerprint {
	col := 0
	if ic, ok := pctx.(*parser.InlineContext); ok {
		col = ic.Col
	}
	return cache.FingerprintOf(s.path, s.doc.Text(), pctx.CursorLine(), col)
}

// begin cancels any in-flight request and registers a new one. The
// accepted history resets with it: new suggestions anchor to a fresh
// snapshot.
func (s *Session) begin(ctx context.Context) (context.Context, context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.accepted = nil
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	return ctx, cancel
}

func (s *Session) finish(cancel context.CancelFunc) {
	cancel()
	s.mu.Lock()
	s.cancel = nil
	s.mu.Unlock()
}

func (s *Session) install(set *text.SuggestionSet) {
	s.mu.Lock()
	s.set = set
	s.mu.Unlock()
	if set != nil && !set.Empty() {
		s.metrics.SuggestionShown(len(set.Groups()))
	}
}

func (s *Session) clearPending() {
	s.mu.Lock()
	s.set = nil
	s.mu.Unlock()
}

// Suggestions returns the current set, or nil.
func (s *Session) Suggestions() *text.SuggestionSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set
}

// HasSuggestions reports whether a non-empty set is pending.
func (s *Session) HasSuggestions() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set != nil && !s.set.Empty()
}

// SelectNext moves the selection forward with wrap-around.
func (s *Session) SelectNext() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set != nil {
		s.set.SelectNext()
	}
}

// SelectPrevious moves the selection backward with wrap-around.
func (s *Session) SelectPrevious() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set != nil {
		s.set.SelectPrevious()
	}
}

// SelectClosest selects the group nearest the cursor.
func (s *Session) SelectClosest(cursorLine int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set != nil {
		s.set.SelectClosest(cursorLine)
	}
}

// SelectedGroup returns the selected group, or nil.
func (s *Session) SelectedGroup() *text.EditGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set == nil {
		return nil
	}
	return s.set.SelectedGroup()
}

// AcceptSelected applies the selected group to the document and removes
// it from the set. Remaining groups keep their snapshot anchors; the
// replay of the accepted history translates them on later accepts, so
// accepting one group at a time lands edits exactly where AcceptAll
// would.
func (s *Session) AcceptSelected() error {
	defer logger.Trace("session.AcceptSelected")()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set == nil || s.set.SelectedGroup() == nil {
		return ErrNoSelection
	}

	group := s.set.SelectedGroup()
	if err := s.applicator.ApplySelected(s.doc, group, s.precedingFor(group)); err != nil {
		return err
	}
	s.metrics.Accepted(group)
	s.recordAccepted(group.Operations)
	s.removeSelected()
	return nil
}

// precedingFor returns the slice of the accepted history that can shift
// group's anchors. Groups never overlap, so operations anchored at or
// past the group's first line cannot move it.
func (s *Session) precedingFor(group *text.EditGroup) []text.EditOperation {
	min := group.MinLine()
	i := 0
	for i < len(s.accepted) && s.accepted[i].Line < min {
		i++
	}
	return s.accepted[:i]
}

// recordAccepted folds an applied group's operations into the history.
// Groups are disjoint, so a stable sort by anchor preserves each
// group's internal delete-before-insert order.
func (s *Session) recordAccepted(ops []text.EditOperation) {
	s.accepted = append(s.accepted, ops...)
	sort.SliceStable(s.accepted, func(i, j int) bool {
		return s.accepted[i].Line < s.accepted[j].Line
	})
}

// removeSelected drops the selected group without touching the
// remaining anchors and moves the selection to the nearest survivor.
func (s *Session) removeSelected() {
	idx, _ := s.set.SelectedIndex()
	groups := s.set.Groups()
	remaining := make([]*text.EditGroup, 0, len(groups)-1)
	remaining = append(remaining, groups[:idx]...)
	remaining = append(remaining, groups[idx+1:]...)

	if len(remaining) == 0 {
		s.set = nil
		return
	}
	s.set = text.NewSuggestionSet(remaining)
	if idx < len(remaining) {
		s.set.SelectClosest(remaining[idx].MinLine())
	}
}

// AcceptWord applies the next word of the selected group when it is a
// single-line inline completion, keeping the rest of the suggestion
// pending against the updated line. Groups with any other shape fall
// back to a full AcceptSelected.
func (s *Session) AcceptWord() error {
	s.mu.Lock()
	if s.set == nil || s.set.SelectedGroup() == nil {
		s.mu.Unlock()
		return ErrNoSelection
	}

	group := s.set.SelectedGroup()
	line, newText, done, ok := text.NextWordAcceptance(group)
	if !ok {
		s.mu.Unlock()
		return s.AcceptSelected()
	}

	cur := text.TranslateLine(s.precedingFor(group), line)
	if err := s.doc.DeleteLineRange(cur, cur+1); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.doc.InsertLines(cur, []string{newText}); err != nil {
		s.mu.Unlock()
		return err
	}

	if done {
		s.metrics.Accepted(group)
		s.recordAccepted(group.Operations)
		s.removeSelected()
		s.mu.Unlock()
		return nil
	}

	// the line now carries the accepted words; the pending delete must
	// match it for the eventual full accept
	group.Operations[0].Content = newText
	s.mu.Unlock()
	return nil
}

// AcceptAll applies every remaining group in order and clears the set.
// Each group is applied against the accumulating accepted history, so
// groups accepted individually beforehand are accounted for.
func (s *Session) AcceptAll() error {
	defer logger.Trace("session.AcceptAll")()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set == nil || s.set.Empty() {
		return ErrNoSelection
	}

	for _, g := range s.set.Groups() {
		if err := s.applicator.ApplySelected(s.doc, g, s.precedingFor(g)); err != nil {
			return err
		}
		s.metrics.Accepted(g)
		s.recordAccepted(g.Operations)
	}
	s.set = nil
	return nil
}

// SkipSelected discards the selected group without applying it. The
// remaining groups keep their anchors: nothing moved in the document.
func (s *Session) SkipSelected() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set == nil || s.set.SelectedGroup() == nil {
		return ErrNoSelection
	}

	s.metrics.Skipped()
	s.removeSelected()
	return nil
}

// NotifyTextChanged invalidates pending state after the user typed:
// the in-flight request is canceled and the suggestion set is cleared
// rather than rebased.
func (s *Session) NotifyTextChanged() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.set != nil {
		s.metrics.Invalidated()
		s.set = nil
	}
	s.accepted = nil
}

// Cancel aborts any in-flight request and clears pending suggestions.
func (s *Session) Cancel() {
	s.NotifyTextChanged()
}
