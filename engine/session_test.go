package engine

import (
	"context"
	"testing"

	"editstream/assert"
	"editstream/cache"
	"editstream/document"
	"editstream/parser"
)

// scriptedStreamer replays a fixed chunk sequence.
type scriptedStreamer struct {
	chunks []string
	calls  int
}

func (s *scriptedStreamer) StreamCompletion(ctx context.Context, prompt string, onChunk func(string) error) error {
	s.calls++
	for _, c := range s.chunks {
		if err := onChunk(c); err != nil {
			return err
		}
	}
	return nil
}

// funcStreamer lets a test observe session state mid-stream.
type funcStreamer func(ctx context.Context, onChunk func(string) error) error

func (f funcStreamer) StreamCompletion(ctx context.Context, prompt string, onChunk func(string) error) error {
	return f(ctx, onChunk)
}

func inlineCtx(doc *document.Memory, line int) *parser.InlineContext {
	return &parser.InlineContext{Lines: doc.Lines(), Line: line}
}

func TestSession_RequestAndAcceptSelected(t *testing.T) {
	doc := document.NewMemory("a\nold\nc")
	st := &scriptedStreamer{chunks: []string{"chan", "ge{ search: old", ", replace: new }"}}
	s := NewSession("a.go", doc, st, parser.FormatSearchReplace, nil, nil)

	err := s.RequestSuggestions(context.Background(), inlineCtx(doc, 2), "prompt")
	assert.NoError(t, err, "request")
	assert.True(t, s.HasSuggestions(), "suggestions installed")
	assert.Len(t, 1, s.Suggestions().Groups(), "one group")

	err = s.AcceptSelected()
	assert.NoError(t, err, "accept")
	assert.Equal(t, "a\nnew\nc", doc.Text(), "change applied")
	assert.False(t, s.HasSuggestions(), "set cleared after last group")

	err = s.AcceptSelected()
	assert.Error(t, err, "nothing left to accept")
	assert.Equal(t, ErrNoSelection, err, "sentinel error")

	snap := s.Metrics().Snapshot()
	assert.Equal(t, int64(1), snap.GroupsAccepted, "accept counted")
	assert.Equal(t, int64(1), snap.LinesAdded, "insert counted")
	assert.Equal(t, int64(1), snap.LinesDeleted, "delete counted")
}

func TestSession_SuggestionsAppearBeforeStreamEnds(t *testing.T) {
	doc := document.NewMemory("a\nold\nc")
	var s *Session
	sawMidStream := false
	st := funcStreamer(func(ctx context.Context, onChunk func(string) error) error {
		if err := onChunk("change{ search: old, replace: new }"); err != nil {
			return err
		}
		sawMidStream = s.HasSuggestions()
		return onChunk("trailing prose that never completes a block")
	})
	s = NewSession("a.go", doc, st, parser.FormatSearchReplace, nil, nil)

	err := s.RequestSuggestions(context.Background(), inlineCtx(doc, 2), "prompt")
	assert.NoError(t, err, "request")
	assert.True(t, sawMidStream, "set installed while still streaming")
	assert.True(t, s.HasSuggestions(), "final set present")
}

func TestSession_SequentialAcceptsMatchAcceptAll(t *testing.T) {
	const src = "l1\nl2\nl3\nl4\nl5"
	chunks := []string{
		"change{ search: l1, replace: l1\nAAA }",
		"change{ search: l4, replace: l4\nBBB }",
	}

	seq := document.NewMemory(src)
	s := NewSession("a.go", seq, &scriptedStreamer{chunks: chunks}, parser.FormatSearchReplace, nil, nil)
	assert.NoError(t, s.RequestSuggestions(context.Background(), inlineCtx(seq, 1), "p"), "request")
	assert.Len(t, 2, s.Suggestions().Groups(), "two groups")
	assert.NoError(t, s.AcceptSelected(), "first accept")
	assert.NoError(t, s.AcceptSelected(), "second accept")

	batch := document.NewMemory(src)
	b := NewSession("a.go", batch, &scriptedStreamer{chunks: chunks}, parser.FormatSearchReplace, nil, nil)
	assert.NoError(t, b.RequestSuggestions(context.Background(), inlineCtx(batch, 1), "p"), "request")
	assert.NoError(t, b.AcceptAll(), "accept all")

	assert.Equal(t, "l1\nAAA\nl2\nl3\nl4\nBBB\nl5", batch.Text(), "batch result")
	assert.Equal(t, batch.Text(), seq.Text(), "one-at-a-time agrees with batch")
}

func TestSession_AcceptsOutOfOrder(t *testing.T) {
	doc := document.NewMemory("l1\nl2\nl3\nl4\nl5")
	chunks := []string{
		"change{ search: l1, replace: l1\nAAA }",
		"change{ search: l4, replace: l4\nBBB }",
	}
	s := NewSession("a.go", doc, &scriptedStreamer{chunks: chunks}, parser.FormatSearchReplace, nil, nil)
	assert.NoError(t, s.RequestSuggestions(context.Background(), inlineCtx(doc, 1), "p"), "request")

	// accept the later group first; the earlier one must not shift
	s.SelectNext()
	assert.NoError(t, s.AcceptSelected(), "later group")
	assert.Equal(t, "l1\nl2\nl3\nl4\nBBB\nl5", doc.Text(), "later insertion placed")

	assert.NoError(t, s.AcceptSelected(), "earlier group")
	assert.Equal(t, "l1\nAAA\nl2\nl3\nl4\nBBB\nl5", doc.Text(), "earlier insertion unaffected by the first accept")
}

func TestSession_AcceptWordSteppedThroughCompletion(t *testing.T) {
	doc := document.NewMemory("const x = \nend")
	st := &scriptedStreamer{chunks: []string{"42; // done<|endoftext|>"}}
	s := NewSession("a.go", doc, st, parser.FormatRaw, nil, nil)

	err := s.RequestSuggestions(context.Background(), &parser.InlineContext{
		Lines:  doc.Lines(),
		Line:   1,
		Col:    10,
		Prefix: "const x = ",
		Suffix: "",
	}, "prompt")
	assert.NoError(t, err, "request")
	assert.True(t, s.HasSuggestions(), "completion pending")

	err = s.AcceptWord()
	assert.NoError(t, err, "first word")
	assert.Equal(t, "const x = 42;\nend", doc.Text(), "one word applied")
	assert.True(t, s.HasSuggestions(), "rest still pending")

	err = s.AcceptWord()
	assert.NoError(t, err, "last word")
	assert.Equal(t, "const x = 42; // done\nend", doc.Text(), "completion fully applied")
	assert.False(t, s.HasSuggestions(), "set cleared")
	assert.Equal(t, int64(1), s.Metrics().Snapshot().GroupsAccepted, "counted once, at the end")
}

func TestSession_AcceptWordFallsBackOnNonInlineShape(t *testing.T) {
	doc := document.NewMemory("a\nold\nc")
	st := &scriptedStreamer{chunks: []string{"change{ search: old, replace: new }"}}
	s := NewSession("a.go", doc, st, parser.FormatSearchReplace, nil, nil)

	err := s.RequestSuggestions(context.Background(), inlineCtx(doc, 2), "prompt")
	assert.NoError(t, err, "request")

	err = s.AcceptWord()
	assert.NoError(t, err, "falls back to a full accept")
	assert.Equal(t, "a\nnew\nc", doc.Text(), "whole group applied")
	assert.False(t, s.HasSuggestions(), "set cleared")
}

func TestSession_AcceptAll(t *testing.T) {
	doc := document.NewMemoryFromLines([]string{"alpha", "beta", "gamma", "delta", "epsilon"})
	st := &scriptedStreamer{chunks: []string{
		"change{ search: beta, replace: BETA }",
		"change{ search: epsilon, replace: EPSILON }",
	}}
	s := NewSession("a.go", doc, st, parser.FormatSearchReplace, nil, nil)

	err := s.RequestSuggestions(context.Background(), inlineCtx(doc, 1), "prompt")
	assert.NoError(t, err, "request")
	assert.Len(t, 2, s.Suggestions().Groups(), "two groups")

	err = s.AcceptAll()
	assert.NoError(t, err, "accept all")
	assert.Equal(t, "alpha\nBETA\ngamma\ndelta\nEPSILON", doc.Text(), "both changes applied")
	assert.False(t, s.HasSuggestions(), "set cleared")
	assert.Equal(t, int64(2), s.Metrics().Snapshot().GroupsAccepted, "both accepts counted")

	err = s.AcceptAll()
	assert.Equal(t, ErrNoSelection, err, "empty set rejects accept-all")
}

func TestSession_SkipSelectedKeepsDocumentAndAnchors(t *testing.T) {
	doc := document.NewMemoryFromLines([]string{"alpha", "beta", "gamma", "delta", "epsilon"})
	st := &scriptedStreamer{chunks: []string{
		"change{ search: beta, replace: BETA }",
		"change{ search: epsilon, replace: EPSILON }",
	}}
	s := NewSession("a.go", doc, st, parser.FormatSearchReplace, nil, nil)

	err := s.RequestSuggestions(context.Background(), inlineCtx(doc, 1), "prompt")
	assert.NoError(t, err, "request")

	err = s.SkipSelected()
	assert.NoError(t, err, "skip first group")
	assert.Equal(t, "alpha\nbeta\ngamma\ndelta\nepsilon", doc.Text(), "skip does not touch the document")

	groups := s.Suggestions().Groups()
	assert.Len(t, 1, groups, "one group remains")
	assert.Equal(t, 5, groups[0].MinLine(), "remaining anchor unchanged")

	err = s.AcceptSelected()
	assert.NoError(t, err, "accept remaining group")
	assert.Equal(t, "alpha\nbeta\ngamma\ndelta\nEPSILON", doc.Text(), "skipped change never applied")
	assert.Equal(t, int64(1), s.Metrics().Snapshot().GroupsSkipped, "skip counted")
}

func TestSession_Navigation(t *testing.T) {
	doc := document.NewMemoryFromLines([]string{"alpha", "beta", "gamma", "delta", "epsilon"})
	st := &scriptedStreamer{chunks: []string{
		"change{ search: beta, replace: BETA }",
		"change{ search: epsilon, replace: EPSILON }",
	}}
	s := NewSession("a.go", doc, st, parser.FormatSearchReplace, nil, nil)

	err := s.RequestSuggestions(context.Background(), inlineCtx(doc, 1), "prompt")
	assert.NoError(t, err, "request")

	assert.Equal(t, 2, s.SelectedGroup().MinLine(), "first group selected initially")
	s.SelectNext()
	assert.Equal(t, 5, s.SelectedGroup().MinLine(), "next moves forward")
	s.SelectNext()
	assert.Equal(t, 2, s.SelectedGroup().MinLine(), "next wraps around")
	s.SelectPrevious()
	assert.Equal(t, 5, s.SelectedGroup().MinLine(), "previous wraps backward")
	s.SelectClosest(3)
	assert.Equal(t, 2, s.SelectedGroup().MinLine(), "closest picks the nearer group")
}

func TestSession_NotifyTextChangedClearsSet(t *testing.T) {
	doc := document.NewMemory("a\nold\nc")
	st := &scriptedStreamer{chunks: []string{"change{ search: old, replace: new }"}}
	s := NewSession("a.go", doc, st, parser.FormatSearchReplace, nil, nil)

	err := s.RequestSuggestions(context.Background(), inlineCtx(doc, 2), "prompt")
	assert.NoError(t, err, "request")
	assert.True(t, s.HasSuggestions(), "set installed")

	s.NotifyTextChanged()
	assert.False(t, s.HasSuggestions(), "typing clears pending suggestions")
	assert.Equal(t, "a\nold\nc", doc.Text(), "document untouched")
	assert.Equal(t, int64(1), s.Metrics().Snapshot().SetsInvalidated, "invalidation counted")

	err = s.AcceptSelected()
	assert.Equal(t, ErrNoSelection, err, "nothing to accept after invalidation")
}

func TestSession_CancellationMidStream(t *testing.T) {
	doc := document.NewMemory("a\nold\nc")
	ctx, cancel := context.WithCancel(context.Background())
	st := funcStreamer(func(ctx context.Context, onChunk func(string) error) error {
		if err := onChunk("change{ search: old, replace: new }"); err != nil {
			return err
		}
		cancel()
		return onChunk("change{ search: c, repl")
	})
	s := NewSession("a.go", doc, st, parser.FormatSearchReplace, nil, nil)

	err := s.RequestSuggestions(ctx, inlineCtx(doc, 2), "prompt")
	assert.Error(t, err, "canceled request errors")
	assert.Equal(t, context.Canceled, err, "context error surfaces")
	assert.False(t, s.HasSuggestions(), "partial set discarded on cancel")
	assert.Equal(t, "a\nold\nc", doc.Text(), "document untouched")
}

func TestSession_CacheServesRepeatRequest(t *testing.T) {
	doc := document.NewMemory("a\nold\nc")
	st := &scriptedStreamer{chunks: []string{"change{ search: old, replace: new }"}}
	s := NewSession("a.go", doc, st, parser.FormatSearchReplace, cache.New(8), nil)

	err := s.RequestSuggestions(context.Background(), inlineCtx(doc, 2), "prompt")
	assert.NoError(t, err, "first request")
	assert.Equal(t, 1, st.calls, "model called once")

	// identical document and cursor: second request must not hit the model
	err = s.RequestSuggestions(context.Background(), inlineCtx(doc, 2), "prompt")
	assert.NoError(t, err, "second request")
	assert.Equal(t, 1, st.calls, "repeat served from cache")
	assert.True(t, s.HasSuggestions(), "cached set installed")

	err = s.AcceptSelected()
	assert.NoError(t, err, "accept cached suggestion")
	assert.Equal(t, "a\nnew\nc", doc.Text(), "cached change applies")
}

func TestSession_EmptyStreamYieldsNoSuggestions(t *testing.T) {
	doc := document.NewMemory("a\nb")
	st := &scriptedStreamer{chunks: []string{"no edit descriptors here"}}
	s := NewSession("a.go", doc, st, parser.FormatSearchReplace, nil, nil)

	err := s.RequestSuggestions(context.Background(), inlineCtx(doc, 1), "prompt")
	assert.NoError(t, err, "empty result is not an error")
	assert.False(t, s.HasSuggestions(), "no set installed")
}
