package engine

import (
	"sync/atomic"

	"editstream/text"
)

// Metrics counts suggestion outcomes for one session. Counters are
// atomic so readers can snapshot while a request is in flight.
type Metrics struct {
	shown       atomic.Int64
	shownGroups atomic.Int64
	accepted    atomic.Int64
	skipped     atomic.Int64
	invalidated atomic.Int64
	additions   atomic.Int64
	deletions   atomic.Int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

// SuggestionShown records one installed suggestion set of n groups.
func (m *Metrics) SuggestionShown(n int) {
	m.shown.Add(1)
	m.shownGroups.Add(int64(n))
}

// Accepted records one applied group and its line counts.
func (m *Metrics) Accepted(g *text.EditGroup) {
	m.accepted.Add(1)
	for _, op := range g.Operations {
		switch op.Kind {
		case text.OpInsert:
			m.additions.Add(1)
		case text.OpDelete:
			m.deletions.Add(1)
		}
	}
}

// Skipped records one discarded group.
func (m *Metrics) Skipped() {
	m.skipped.Add(1)
}

// Invalidated records one suggestion set cleared by typing.
func (m *Metrics) Invalidated() {
	m.invalidated.Add(1)
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	SuggestionsShown int64
	GroupsShown      int64
	GroupsAccepted   int64
	GroupsSkipped    int64
	SetsInvalidated  int64
	LinesAdded       int64
	LinesDeleted     int64
}

func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		SuggestionsShown: m.shown.Load(),
		GroupsShown:      m.shownGroups.Load(),
		GroupsAccepted:   m.accepted.Load(),
		GroupsSkipped:    m.skipped.Load(),
		SetsInvalidated:  m.invalidated.Load(),
		LinesAdded:       m.additions.Load(),
		LinesDeleted:     m.deletions.Load(),
	}
}
