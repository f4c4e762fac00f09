package text

import "sort"

// EditGroup is an ordered, non-empty sequence of operations believed to
// represent one coherent change (a "hunk"). Operations are kept sorted
// ascending by anchor line, with Deletes ordered before Inserts at the
// same line so a merged Delete+Insert pair reads as a replace.
type EditGroup struct {
	Operations []EditOperation
}

// MinLine returns the smallest anchor line in the group.
func (g *EditGroup) MinLine() int {
	min := g.Operations[0].Line
	for _, op := range g.Operations[1:] {
		if op.Line < min {
			min = op.Line
		}
	}
	return min
}

// MaxLine returns the largest anchor line in the group.
func (g *EditGroup) MaxLine() int {
	max := g.Operations[0].Line
	for _, op := range g.Operations[1:] {
		if op.Line > max {
			max = op.Line
		}
	}
	return max
}

// NetLineDelta is the net number of lines this group adds to the document
// when applied: inserted line count minus deleted line count.
func (g *EditGroup) NetLineDelta() int {
	delta := 0
	for _, op := range g.Operations {
		if op.Kind == OpInsert {
			delta++
		} else {
			delta--
		}
	}
	return delta
}

// Clone returns a deep copy of the group.
func (g *EditGroup) Clone() *EditGroup {
	ops := make([]EditOperation, len(g.Operations))
	copy(ops, g.Operations)
	return &EditGroup{Operations: ops}
}

// allKind reports whether every operation in the group has the given kind.
func (g *EditGroup) allKind(kind OpKind) bool {
	for _, op := range g.Operations {
		if op.Kind != kind {
			return false
		}
	}
	return true
}

// hasKindNear reports whether the group contains an operation of the given
// kind within GroupAdjacency lines of line.
func (g *EditGroup) hasKindNear(kind OpKind, line int) bool {
	for _, op := range g.Operations {
		if op.Kind == kind && abs(op.Line-line) <= GroupAdjacency {
			return true
		}
	}
	return false
}

// Grouper clusters edit operations into groups using proximity and
// type-transition rules. The grouping favors visually coherent hunks over
// a minimal edit count; downstream acceptance semantics depend on this
// exact shape, so treat the rules as fixed behavior rather than something
// to optimize.
type Grouper struct {
	groups []*EditGroup
}

// NewGrouper creates an empty Grouper.
func NewGrouper() *Grouper {
	return &Grouper{}
}

// AddOperation places op into an existing group or starts a new one.
// Rules, in priority order:
//  1. Modification merge: a group holding an operation of the opposite
//     kind at the same or an adjacent anchor absorbs op, forming the
//     Delete-then-Insert replace shape.
//  2. Same-type extension: a group whose operations all share op's kind
//     absorbs op when its anchor extends the group's line range by at
//     most one (stacked inserts share an anchor, so in-range also counts).
//  3. Otherwise op starts a new single-operation group.
func (g *Grouper) AddOperation(op EditOperation) {
	opposite := OpDelete
	if op.Kind == OpDelete {
		opposite = OpInsert
	}

	// Most recently touched groups first; streamed operations arrive in
	// anchor order, so the matching group is almost always the last one.
	// A group that is already a replace only absorbs ops continuing a
	// nearby run of their own kind, otherwise two unrelated adjacent
	// replaces would chain into one hunk.
	for i := len(g.groups) - 1; i >= 0; i-- {
		grp := g.groups[i]
		if !grp.hasKindNear(opposite, op.Line) {
			continue
		}
		if grp.allKind(opposite) || grp.hasKindNear(op.Kind, op.Line) {
			grp.Operations = append(grp.Operations, op)
			return
		}
	}

	for i := len(g.groups) - 1; i >= 0; i-- {
		grp := g.groups[i]
		if !grp.allKind(op.Kind) {
			continue
		}
		if op.Line >= grp.MinLine()-GroupAdjacency && op.Line <= grp.MaxLine()+GroupAdjacency {
			grp.Operations = append(grp.Operations, op)
			return
		}
	}

	g.groups = append(g.groups, &EditGroup{Operations: []EditOperation{op}})
}

// SortGroups orders groups ascending by their minimum line and operations
// within each group ascending by line, Deletes before Inserts at equal
// lines. Sorting is idempotent. Returns the sorted groups.
func (g *Grouper) SortGroups() []*EditGroup {
	for _, grp := range g.groups {
		sortOperations(grp.Operations)
	}
	sort.SliceStable(g.groups, func(i, j int) bool {
		return g.groups[i].MinLine() < g.groups[j].MinLine()
	})
	return g.groups
}

// Groups returns the current groups without sorting.
func (g *Grouper) Groups() []*EditGroup {
	return g.groups
}

func sortOperations(ops []EditOperation) {
	sort.SliceStable(ops, func(i, j int) bool {
		if ops[i].Line != ops[j].Line {
			return ops[i].Line < ops[j].Line
		}
		return ops[i].Kind == OpDelete && ops[j].Kind == OpInsert
	})
}

// GroupOperations clusters a flat operation sequence and returns the
// sorted groups.
func GroupOperations(ops []EditOperation) []*EditGroup {
	g := NewGrouper()
	for _, op := range ops {
		g.AddOperation(op)
	}
	return g.SortGroups()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
