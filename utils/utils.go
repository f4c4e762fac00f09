// Package utils holds prompt-budget helpers shared by the providers.
package utils

// AvgCharsPerToken is a conservative estimate for mixed code content.
const AvgCharsPerToken = 2

// EstimateCharsFromTokens converts a token budget to a character budget.
func EstimateCharsFromTokens(tokens int) int {
	return tokens * AvgCharsPerToken
}

// TrimContentAroundCursor reduces lines to a window around the cursor
// that fits maxTokens, splitting the budget between the text above and
// below the cursor so both directions stay visible. Returns the window,
// the cursor row within it, the number of lines dropped from the top,
// and whether trimming occurred. cursorRow is 0-indexed.
func TrimContentAroundCursor(lines []string, cursorRow, maxTokens int) (window []string, newRow, topOffset int, trimmed bool) {
	if len(lines) == 0 {
		return lines, 0, 0, false
	}
	if cursorRow < 0 {
		cursorRow = 0
	}
	if cursorRow >= len(lines) {
		cursorRow = len(lines) - 1
	}
	if maxTokens <= 0 {
		return lines, cursorRow, 0, false
	}

	maxChars := EstimateCharsFromTokens(maxTokens)
	total := 0
	for _, line := range lines {
		total += len(line) + 1
	}
	if total <= maxChars {
		return lines, cursorRow, 0, false
	}

	// half the remaining budget in each direction
	budget := maxChars - (len(lines[cursorRow]) + 1)
	half := budget / 2

	start, before := expandUp(lines, cursorRow, half)
	down := budget - before // unused upward budget rolls down
	end, used := expandDown(lines, cursorRow, down)
	if leftover := down - used; leftover > 0 {
		start, _ = expandUp(lines, start, leftover)
	}

	window = make([]string, end-start+1)
	copy(window, lines[start:end+1])
	return window, cursorRow - start, start, true
}

// expandUp grows the window upward from row while the budget holds.
// Returns the first included line and the characters consumed.
func expandUp(lines []string, row, budget int) (start, used int) {
	start = row
	for start > 0 {
		cost := len(lines[start-1]) + 1
		if used+cost > budget {
			break
		}
		start--
		used += cost
	}
	return start, used
}

// expandDown grows the window downward from row while the budget holds.
func expandDown(lines []string, row, budget int) (end, used int) {
	end = row
	for end < len(lines)-1 {
		cost := len(lines[end+1]) + 1
		if used+cost > budget {
			break
		}
		end++
		used += cost
	}
	return end, used
}
