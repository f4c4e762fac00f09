// Package ctx collects auxiliary context for completion prompts:
// editor diagnostics and pending git changes. Sources run in parallel
// under a shared deadline so a slow source never delays a completion.
package ctx

import (
	"context"
	"sync"
	"time"

	"editstream/editor/nvim"
)

// GatherTimeout bounds the whole gather pass.
const GatherTimeout = 200 * time.Millisecond

// SourceRequest is the shared input handed to every source.
type SourceRequest struct {
	FilePath      string
	WorkspacePath string
	CursorLine    int // 1-indexed
}

// Result is the merged output of all sources. Empty fields mean the
// source had nothing to contribute.
type Result struct {
	Diagnostics []nvim.Diagnostic
	GitDiff     string
}

// source contributes one kind of context. A source returns nil when it
// does not apply to the request.
type source interface {
	Gather(ctx context.Context, req *SourceRequest) *Result
}

// Gatherer fans a request out to its sources and merges what comes
// back.
type Gatherer struct {
	sources []source
}

// NewGatherer creates a gatherer with the built-in sources.
func NewGatherer(buf *nvim.Buffer) *Gatherer {
	return &Gatherer{
		sources: []source{
			&diagnostics{buffer: buf},
			&gitDiff{},
		},
	}
}

// Gather runs every source in parallel under GatherTimeout and merges
// their results. Returns nil when no source contributed.
func (g *Gatherer) Gather(ctx context.Context, req *SourceRequest) *Result {
	if len(g.sources) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, GatherTimeout)
	defer cancel()

	results := make([]*Result, len(g.sources))
	var wg sync.WaitGroup
	for i, s := range g.sources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = s.Gather(ctx, req)
		}()
	}
	wg.Wait()

	var merged *Result
	for _, r := range results {
		if r == nil {
			continue
		}
		if merged == nil {
			merged = &Result{}
		}
		if r.Diagnostics != nil {
			merged.Diagnostics = r.Diagnostics
		}
		if r.GitDiff != "" {
			merged.GitDiff = r.GitDiff
		}
	}
	return merged
}
