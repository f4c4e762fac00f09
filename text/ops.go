package text

// OpKind classifies an edit operation.
type OpKind int

const (
	OpInsert OpKind = iota
	OpDelete
)

// String returns the string representation of an OpKind.
func (k OpKind) String() string {
	switch k {
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// EditOperation is a single line edit anchored to the original document.
//
// Line is the anchor used for grouping and offset translation, expressed
// in original-document line numbers at the time the operation was built.
// A Delete references a line that existed in the snapshot the diff was
// computed against; an Insert references the original line before which
// its content should appear.
type EditOperation struct {
	Kind    OpKind
	Line    int // 1-indexed anchor in original-document coordinates
	Content string

	OriginalLine int // position in the original input when built
	ResultLine   int // position in the revised input when built
}

// BuildOperations converts a line diff into a flat ordered operation
// sequence anchored at anchorLine. Deletes advance the original-line
// cursor; inserts do not, so consecutive inserts stack at the same anchor
// and are later rendered as one multi-line insert. That asymmetry is what
// lets a Delete followed by an Insert at the same anchor be recognized as
// a single replace instead of two unrelated edits.
func BuildOperations(diff []DiffLine, anchorLine int) []EditOperation {
	originalCursor := anchorLine
	revisedCursor := anchorLine

	var ops []EditOperation
	for _, d := range diff {
		switch d.Kind {
		case DiffSame:
			originalCursor++
			revisedCursor++
		case DiffRemoved:
			ops = append(ops, EditOperation{
				Kind:         OpDelete,
				Line:         originalCursor,
				Content:      d.Text,
				OriginalLine: originalCursor,
				ResultLine:   revisedCursor,
			})
			originalCursor++
		case DiffAdded:
			ops = append(ops, EditOperation{
				Kind:         OpInsert,
				Line:         originalCursor,
				Content:      d.Text,
				OriginalLine: originalCursor,
				ResultLine:   revisedCursor,
			})
			revisedCursor++
		}
	}
	return ops
}
