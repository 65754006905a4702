package generate

import "strings"

// UnwrapFence extracts code from markdown fencing. Generative services
// commonly wrap artifacts in triple-backtick blocks, sometimes nested inside
// prose; the innermost fenced block wins. Text without a complete fence pair
// is returned verbatim.
func UnwrapFence(text string) string {
	for {
		inner, ok := innermostFence(text)
		if !ok {
			return text
		}
		text = inner
	}
}

// innermostFence returns the content of the deepest complete fenced block.
func innermostFence(text string) (string, bool) {
	lines := strings.Split(text, "\n")

	var fences []int
	for i, line := range lines {
		if isFenceLine(line) {
			fences = append(fences, i)
		}
	}
	if len(fences) < 2 {
		return "", false
	}

	// Generative services often wrap an already-fenced artifact in an outer
	// untagged fence; the deepest tagged opener marks the real block.
	open, end := fences[0], fences[1]
	for k := len(fences) - 2; k >= 0; k-- {
		if fenceTag(lines[fences[k]]) != "" {
			open, end = fences[k], fences[k+1]
			break
		}
	}
	return strings.Join(lines[open+1:end], "\n"), true
}

// fenceTag returns the language tag of a fence line, if any.
func fenceTag(line string) string {
	return strings.TrimPrefix(strings.TrimSpace(line), "```")
}

// isFenceLine reports whether a line is a fence delimiter, with or without a
// language tag.
func isFenceLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "```") {
		return false
	}
	tag := strings.TrimPrefix(trimmed, "```")
	return tag == "" || !strings.ContainsAny(tag, " `")
}
