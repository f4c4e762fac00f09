package text

// noSelection is the sentinel for "no group selected".
const noSelection = -1

// SuggestionSet is the per-file collection of edit groups produced by one
// completion response, plus the user's current selection among them. The
// set is owned by the session that produced it; it is mutated by
// navigation and partial acceptance and discarded when suggestions are
// cleared.
type SuggestionSet struct {
	groups   []*EditGroup
	selected int
}

// NewSuggestionSet creates a set over sorted groups. Selection starts at
// the first group, or empty when there are no groups.
func NewSuggestionSet(groups []*EditGroup) *SuggestionSet {
	s := &SuggestionSet{groups: groups, selected: noSelection}
	if len(groups) > 0 {
		s.selected = 0
	}
	return s
}

// Groups returns the groups in order.
func (s *SuggestionSet) Groups() []*EditGroup {
	return s.groups
}

// Empty reports whether the set has no groups.
func (s *SuggestionSet) Empty() bool {
	return len(s.groups) == 0
}

// SelectedIndex returns the current selection. ok is false when nothing
// is selected.
func (s *SuggestionSet) SelectedIndex() (int, bool) {
	if s.selected == noSelection {
		return 0, false
	}
	return s.selected, true
}

// SelectedGroup returns the currently selected group, or nil.
func (s *SuggestionSet) SelectedGroup() *EditGroup {
	if s.selected == noSelection {
		return nil
	}
	return s.groups[s.selected]
}

// SelectNext advances the selection with wrap-around. From an empty
// selection it selects the first group.
func (s *SuggestionSet) SelectNext() {
	if len(s.groups) == 0 {
		return
	}
	if s.selected == noSelection {
		s.selected = 0
		return
	}
	s.selected = (s.selected + 1) % len(s.groups)
}

// SelectPrevious moves the selection backward with wrap-around. From an
// empty selection it selects the last group.
func (s *SuggestionSet) SelectPrevious() {
	if len(s.groups) == 0 {
		return
	}
	if s.selected == noSelection {
		s.selected = len(s.groups) - 1
		return
	}
	s.selected = (s.selected - 1 + len(s.groups)) % len(s.groups)
}

// SelectClosest selects the group nearest to cursorLine, short-circuiting
// on exact containment. Ties go to the first match in group order.
func (s *SuggestionSet) SelectClosest(cursorLine int) {
	if len(s.groups) == 0 {
		return
	}

	bestIdx := 0
	bestDist := -1
	for i, g := range s.groups {
		d := groupDistance(g, cursorLine)
		if d == 0 {
			s.selected = i
			return
		}
		if bestDist == -1 || d < bestDist {
			bestDist = d
			bestIdx = i
		}
	}
	s.selected = bestIdx
}

// groupDistance is the minimum distance from cursorLine to the group's
// anchor line range; 0 when the cursor is inside the range.
func groupDistance(g *EditGroup, cursorLine int) int {
	min, max := g.MinLine(), g.MaxLine()
	if cursorLine < min {
		return min - cursorLine
	}
	if cursorLine > max {
		return cursorLine - max
	}
	return 0
}

// DeleteSelectedGroup removes the selected group and re-anchors the
// remaining groups by the net line delta the removed group introduced.
// Only Delete operations are shifted: Insert anchors are not yet
// materialized in the document, so shifting them would double-count the
// delta when they are later applied. Returns the removed group, or nil
// when nothing was selected.
func (s *SuggestionSet) DeleteSelectedGroup() *EditGroup {
	if s.selected == noSelection {
		return nil
	}

	idx := s.selected
	removed := s.groups[idx]
	delta := removed.NetLineDelta()

	s.groups = append(s.groups[:idx], s.groups[idx+1:]...)

	if delta != 0 {
		for _, g := range s.groups[idx:] {
			for i := range g.Operations {
				if g.Operations[i].Kind == OpDelete {
					g.Operations[i].Line += delta
				}
			}
		}
	}

	if len(s.groups) == 0 {
		s.selected = noSelection
	} else if s.selected >= len(s.groups) {
		s.selected = len(s.groups) - 1
	}

	return removed
}
