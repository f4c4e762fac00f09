package text

import (
	"testing"

	"editstream/assert"
	"editstream/document"
)

// recordingDoc wraps a Memory document and counts the ranged edits it
// receives, so tests can check run coalescing.
type recordingDoc struct {
	*document.Memory
	deletes int
	inserts int
}

func newRecordingDoc(lines ...string) *recordingDoc {
	return &recordingDoc{Memory: document.NewMemoryFromLines(lines)}
}

func (d *recordingDoc) DeleteLineRange(start, endExclusive int) error {
	d.deletes++
	return d.Memory.DeleteLineRange(start, endExclusive)
}

func (d *recordingDoc) InsertLines(at int, lines []string) error {
	d.inserts++
	return d.Memory.InsertLines(at, lines)
}

func TestApplyAll_TwoSeparateInserts(t *testing.T) {
	// two non-adjacent single-line insertions on a 5-line file
	doc := newRecordingDoc("l1", "l2", "l3", "l4", "l5")
	groups := []*EditGroup{
		{Operations: []EditOperation{{Kind: OpInsert, Line: 1, Content: "first"}}},
		{Operations: []EditOperation{{Kind: OpInsert, Line: 4, Content: "second"}}},
	}

	a := NewApplicator()
	assert.NoError(t, a.ApplyAll(doc, groups), "apply all")
	assert.Equal(t, "first\nl1\nl2\nl3\nsecond\nl4\nl5", doc.Text(), "both inserts landed")
}

func TestApplySelected_Replace(t *testing.T) {
	doc := newRecordingDoc("a", "old", "c")
	group := &EditGroup{Operations: []EditOperation{
		{Kind: OpDelete, Line: 2, Content: "old"},
		{Kind: OpInsert, Line: 3, Content: "new"},
	}}

	a := NewApplicator()
	assert.NoError(t, a.ApplySelected(doc, group, nil), "apply")
	assert.Equal(t, "a\nnew\nc", doc.Text(), "line replaced in place")
}

func TestApplySelected_CoalescesRuns(t *testing.T) {
	doc := newRecordingDoc("a", "x1", "x2", "x3", "b")
	group := &EditGroup{Operations: []EditOperation{
		{Kind: OpDelete, Line: 2, Content: "x1"},
		{Kind: OpDelete, Line: 3, Content: "x2"},
		{Kind: OpDelete, Line: 4, Content: "x3"},
		{Kind: OpInsert, Line: 5, Content: "y1"},
		{Kind: OpInsert, Line: 5, Content: "y2"},
	}}

	a := NewApplicator()
	assert.NoError(t, a.ApplySelected(doc, group, nil), "apply")
	assert.Equal(t, "a\ny1\ny2\nb", doc.Text(), "replaced block")
	assert.Equal(t, 1, doc.deletes, "contiguous deletes issued as one range")
	assert.Equal(t, 1, doc.inserts, "stacked inserts issued as one range")
}

func TestApplySelected_PrecedingReplayTranslatesAnchors(t *testing.T) {
	// G1 inserts a line at 2; applying G2's delete of original line 4
	// afterward must hit the shifted position
	doc := newRecordingDoc("a", "b", "c", "gone", "e")
	g1 := &EditGroup{Operations: []EditOperation{{Kind: OpInsert, Line: 2, Content: "added"}}}
	g2 := &EditGroup{Operations: []EditOperation{{Kind: OpDelete, Line: 4, Content: "gone"}}}

	a := NewApplicator()
	assert.NoError(t, a.ApplySelected(doc, g1, nil), "apply first group")
	assert.Equal(t, "a\nadded\nb\nc\ngone\ne", doc.Text(), "after first group")

	assert.NoError(t, a.ApplySelected(doc, g2, g1.Operations), "apply second group")
	assert.Equal(t, "a\nadded\nb\nc\ne", doc.Text(), "correct line deleted")
}

func TestApplySelected_ReplayMatchesReanchoring(t *testing.T) {
	// applying G2 with a preceding replay must equal deleting G1 from
	// the set (re-anchoring G2) and applying it with no replay
	base := []string{"a", "b", "c", "gone", "e"}
	g1 := func() *EditGroup {
		return &EditGroup{Operations: []EditOperation{{Kind: OpInsert, Line: 2, Content: "added"}}}
	}
	g2 := func() *EditGroup {
		return &EditGroup{Operations: []EditOperation{{Kind: OpDelete, Line: 4, Content: "gone"}}}
	}

	viaReplay := newRecordingDoc(base...)
	a := NewApplicator()
	first := g1()
	assert.NoError(t, a.ApplySelected(viaReplay, first, nil), "replay: first")
	assert.NoError(t, a.ApplySelected(viaReplay, g2(), first.Operations), "replay: second")

	viaReanchor := newRecordingDoc(base...)
	set := NewSuggestionSet([]*EditGroup{g1(), g2()})
	b := NewApplicator()
	assert.NoError(t, b.ApplySelected(viaReanchor, set.SelectedGroup(), nil), "reanchor: first")
	set.DeleteSelectedGroup()
	assert.NoError(t, b.ApplySelected(viaReanchor, set.SelectedGroup(), nil), "reanchor: second")

	assert.Equal(t, viaReplay.Text(), viaReanchor.Text(), "both paths agree")
}

func TestApplySelected_SkippedRangeDoesNotMisplaceLaterOps(t *testing.T) {
	// the delete run at 3-4 reaches past the document and is skipped;
	// the insert anchored after it must not land at the stale position
	doc := newRecordingDoc("l1", "l2", "l3")
	group := &EditGroup{Operations: []EditOperation{
		{Kind: OpInsert, Line: 2, Content: "A"},
		{Kind: OpDelete, Line: 3, Content: "l3"},
		{Kind: OpDelete, Line: 4, Content: "l4"},
		{Kind: OpInsert, Line: 5, Content: "X"},
	}}

	a := NewApplicator()
	assert.NoError(t, a.ApplySelected(doc, group, nil), "apply")
	assert.Equal(t, "l1\nA\nl2\nl3", doc.Text(), "in-bounds insert applied, trailing ops skipped")
	assert.Equal(t, 0, doc.deletes, "out-of-range delete not issued")
	assert.Equal(t, 1, doc.inserts, "only the valid insert issued")
}

func TestTranslateLine(t *testing.T) {
	applied := []EditOperation{
		{Kind: OpInsert, Line: 2, Content: "added"},
		{Kind: OpDelete, Line: 4, Content: "gone"},
	}
	assert.Equal(t, 1, TranslateLine(applied, 1), "before any edit")
	assert.Equal(t, 4, TranslateLine(applied, 3), "shifted down by the insert")
	assert.Equal(t, 5, TranslateLine(applied, 5), "net delta is zero past the delete")
	assert.Equal(t, 7, TranslateLine(nil, 7), "no edits, identity")
}

func TestApplySelected_OutOfBoundsIsNoOp(t *testing.T) {
	doc := newRecordingDoc("a", "b", "c")
	group := &EditGroup{Operations: []EditOperation{
		{Kind: OpDelete, Line: 99, Content: "nope"},
	}}

	a := NewApplicator()
	assert.NoError(t, a.ApplySelected(doc, group, nil), "no error for bounds miss")
	assert.Equal(t, "a\nb\nc", doc.Text(), "document untouched")
	assert.Equal(t, 0, doc.deletes, "no delete issued")
}

// reentrantDoc calls back into the applicator from inside a mutation.
type reentrantDoc struct {
	*document.Memory
	a     *Applicator
	inner error
}

func (d *reentrantDoc) DeleteLineRange(start, endExclusive int) error {
	d.inner = d.a.ApplySelected(d, &EditGroup{Operations: []EditOperation{
		{Kind: OpDelete, Line: 1},
	}}, nil)
	return d.Memory.DeleteLineRange(start, endExclusive)
}

func TestApplicator_LockedDuringApply(t *testing.T) {
	a := NewApplicator()
	doc := &reentrantDoc{Memory: document.NewMemoryFromLines([]string{"a", "b"}), a: a}
	group := &EditGroup{Operations: []EditOperation{{Kind: OpDelete, Line: 1, Content: "a"}}}

	assert.NoError(t, a.ApplySelected(doc, group, nil), "outer apply")
	assert.Equal(t, ErrLocked, doc.inner, "re-entrant apply rejected")

	// lock released after the failed attempt and the completed apply
	assert.NoError(t, a.ApplySelected(doc, group, nil), "lock released")
}

// lockProbeDoc samples IsLocked from inside a mutation.
type lockProbeDoc struct {
	*document.Memory
	a      *Applicator
	during bool
}

func (d *lockProbeDoc) DeleteLineRange(start, endExclusive int) error {
	d.during = d.a.IsLocked()
	return d.Memory.DeleteLineRange(start, endExclusive)
}

func TestApplicator_IsLocked(t *testing.T) {
	a := NewApplicator()
	assert.False(t, a.IsLocked(), "idle applicator unlocked")

	doc := &lockProbeDoc{Memory: document.NewMemoryFromLines([]string{"a", "b"}), a: a}
	group := &EditGroup{Operations: []EditOperation{{Kind: OpDelete, Line: 1, Content: "a"}}}
	assert.NoError(t, a.ApplySelected(doc, group, nil), "apply")
	assert.True(t, doc.during, "locked while the apply runs")
	assert.False(t, a.IsLocked(), "released on return")
}

func TestApplyAll_EmptyAndNilGroups(t *testing.T) {
	doc := newRecordingDoc("a")
	a := NewApplicator()
	assert.NoError(t, a.ApplyAll(doc, nil), "nil groups")
	assert.NoError(t, a.ApplySelected(doc, nil, nil), "nil group")
	assert.Equal(t, "a", doc.Text(), "document untouched")
}
