package ctx

import (
	"bufio"
	"context"
	"os/exec"
	"strings"

	"editstream/logger"
)

// maxDiffSize is the size in bytes up to which the full staged diff is
// used verbatim. Larger diffs are reduced to their changed declaration
// lines.
const maxDiffSize = 4096

const maxChangedSymbols = 50

// gitDiff contributes the staged diff while a commit message is being
// edited, so the model can describe the pending change.
type gitDiff struct{}

func (g *gitDiff) Gather(ctx context.Context, req *SourceRequest) *Result {
	if !strings.HasSuffix(req.FilePath, "COMMIT_EDITMSG") {
		return nil
	}
	if req.WorkspacePath == "" {
		return nil
	}

	full := runGit(ctx, req.WorkspacePath, "diff", "--cached")
	if full == "" {
		return nil
	}
	if len(full) <= maxDiffSize {
		return &Result{GitDiff: full}
	}

	// too big to inline: reduce to changed declarations
	minimal := runGit(ctx, req.WorkspacePath, "diff", "--cached", "-U0")
	symbols := changedDeclarations(minimal)
	if len(symbols) == 0 {
		return nil
	}
	return &Result{GitDiff: strings.Join(symbols, "\n")}
}

func runGit(ctx context.Context, dir string, args ...string) string {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		logger.Debug("gitdiff: git %s failed: %v", args[0], err)
		return ""
	}
	return string(out)
}

// changedDeclarations extracts added and removed declaration lines from
// a zero-context unified diff, deduplicated and capped.
func changedDeclarations(diff string) []string {
	if diff == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var symbols []string

	scanner := bufio.NewScanner(strings.NewReader(diff))
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		var sign byte
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			continue
		case line[0] == '+', line[0] == '-':
			sign = line[0]
		default:
			continue
		}

		content := strings.TrimSpace(line[1:])
		if !isDeclarationLine(content) {
			continue
		}
		sym := string(sign) + content
		if _, ok := seen[sym]; ok {
			continue
		}
		if len(symbols) >= maxChangedSymbols {
			break
		}
		seen[sym] = struct{}{}
		symbols = append(symbols, sym)
	}
	return symbols
}

// declarationPrefixes covers function, type, and class declarations in
// the languages commonly seen in diffs.
var declarationPrefixes = []string{
	"func ", "func(", "type ", "interface ", "struct ",
	"def ", "class ",
	"fn ", "impl ", "trait ", "enum ",
	"export function ", "export default function ", "export const ",
	"export class ", "async function ", "export async function ",
	"public ", "private ", "protected ", "static ",
}

func isDeclarationLine(line string) bool {
	for _, prefix := range declarationPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
