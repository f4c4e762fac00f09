package text

import (
	"errors"
	"sync"

	"editstream/document"
	"editstream/logger"
)

// ErrLocked is returned when an apply is requested while another apply on
// the same Applicator is still in flight.
var ErrLocked = errors.New("apply already in progress")

// MutableDocument is the surface the Applicator works against: a readable
// document that also accepts ranged line edits.
type MutableDocument interface {
	document.Document
	document.Mutator
}

// Applicator translates edit operations from original-document line
// numbers to current-document line numbers and issues ranged edits.
//
// Operation anchors are expressed against the snapshot the diff was
// computed from. The translation walks a pair of virtual cursors, one
// through the original document and one through the result, so that
// operations stay correct even after earlier operations in the same
// batch have shifted line numbers. Contiguous deletes collapse into one
// ranged delete and inserts sharing an anchor collapse into one ranged
// insert, so the host sees a small number of edits per group.
type Applicator struct {
	mu   sync.Mutex
	busy bool
}

func NewApplicator() *Applicator {
	return &Applicator{}
}

// applyCursor tracks the paired walk through original and result line
// space. Both start at line 1.
type applyCursor struct {
	orig int
	res  int
}

// advanceTo moves both cursors forward over the unchanged region up to
// the given original line. Anchors are non-decreasing in sorted
// operation order, so a negative gap never advances.
func (c *applyCursor) advanceTo(origLine int) {
	if gap := origLine - c.orig; gap > 0 {
		c.orig += gap
		c.res += gap
	}
}

// replay advances the cursors as if ops had been applied, without
// touching any document.
func (c *applyCursor) replay(ops []EditOperation) {
	for _, op := range ops {
		c.advanceTo(op.Line)
		switch op.Kind {
		case OpDelete:
			c.orig++
		case OpInsert:
			c.res++
		}
	}
}

// ApplySelected applies one group's operations to doc. preceding holds
// operations from earlier groups in the same batch that have already
// been applied; replaying them establishes the line shift the group's
// anchors must absorb. Pass nil when the group's anchors are already
// current (for example after DeleteSelectedGroup re-indexing).
//
// An operation whose translated anchor falls outside the document is
// logged and skipped; the rest of the group still applies.
func (a *Applicator) ApplySelected(doc MutableDocument, group *EditGroup, preceding []EditOperation) error {
	if group == nil || len(group.Operations) == 0 {
		return nil
	}
	if err := a.acquire(); err != nil {
		return err
	}
	defer a.release()

	var c applyCursor
	c.orig, c.res = 1, 1
	c.replay(preceding)
	return a.applyOps(doc, &c, group.Operations)
}

// ApplyAll applies every group in order. Groups after the first absorb
// the line shifts of the groups before them through the replay cursor,
// so all anchors may reference the same original snapshot.
func (a *Applicator) ApplyAll(doc MutableDocument, groups []*EditGroup) error {
	if err := a.acquire(); err != nil {
		return err
	}
	defer a.release()

	var c applyCursor
	c.orig, c.res = 1, 1
	for _, g := range groups {
		if err := a.applyOps(doc, &c, g.Operations); err != nil {
			return err
		}
	}
	return nil
}

func (a *Applicator) acquire() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.busy {
		return ErrLocked
	}
	a.busy = true
	return nil
}

func (a *Applicator) release() {
	a.mu.Lock()
	a.busy = false
	a.mu.Unlock()
}

// IsLocked reports whether an apply is currently in flight. Callers
// must not start a new ApplyAll or ApplySelected while locked.
func (a *Applicator) IsLocked() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.busy
}

// TranslateLine maps a snapshot line number to its position in the
// current document after applied operations have run. Operations
// anchored past line cannot move it and are ignored, so applied may
// hold the whole accepted history in anchor order.
func TranslateLine(applied []EditOperation, line int) int {
	c := applyCursor{orig: 1, res: 1}
	for _, op := range applied {
		if op.Line > line {
			break
		}
		c.advanceTo(op.Line)
		switch op.Kind {
		case OpDelete:
			c.orig++
		case OpInsert:
			c.res++
		}
	}
	c.advanceTo(line)
	return c.res
}

// applyOps walks one group's sorted operations, coalescing runs into
// ranged edits. The cursor carries across calls so a later group sees
// the shifts of earlier ones.
func (a *Applicator) applyOps(doc MutableDocument, c *applyCursor, ops []EditOperation) error {
	i := 0
	for i < len(ops) {
		op := ops[i]
		c.advanceTo(op.Line)

		switch op.Kind {
		case OpDelete:
			count := 1
			for i+count < len(ops) &&
				ops[i+count].Kind == OpDelete &&
				ops[i+count].Line == ops[i+count-1].Line+1 {
				count++
			}
			if c.res < 1 || c.res+count-1 > doc.LineCount() {
				logger.Warn("delete range [%d,%d) outside document (%d lines), skipping",
					c.res, c.res+count, doc.LineCount())
				// a skipped delete walks like unchanged lines so later
				// anchors in the batch stay aligned
				c.orig += count
				c.res += count
				i += count
				continue
			}
			if err := doc.DeleteLineRange(c.res, c.res+count); err != nil {
				return err
			}
			c.orig += count
			i += count

		case OpInsert:
			lines := []string{op.Content}
			for i+len(lines) < len(ops) &&
				ops[i+len(lines)].Kind == OpInsert &&
				ops[i+len(lines)].Line == op.Line {
				lines = append(lines, ops[i+len(lines)].Content)
			}
			if c.res < 1 || c.res > doc.LineCount()+1 {
				logger.Warn("insert anchor %d outside document (%d lines), skipping",
					c.res, doc.LineCount())
				// no lines were produced, so the result cursor stays put
				i += len(lines)
				continue
			}
			if err := doc.InsertLines(c.res, lines); err != nil {
				return err
			}
			c.res += len(lines)
			i += len(lines)

		default:
			i++
		}
	}
	return nil
}
