package text

const (
	// GroupAdjacency is the maximum line distance for an operation to be
	// merged into an existing group, both for the Delete/Insert
	// modification merge and for same-type extension. This is a heuristic
	// tuning knob, not a correctness requirement.
	GroupAdjacency = 1

	// SimilarityThreshold is the minimum similarity score for considering
	// two lines as corresponding. Below this threshold, lines are treated
	// as unrelated.
	SimilarityThreshold = 0.3
)
