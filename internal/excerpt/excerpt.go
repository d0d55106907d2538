// Package excerpt picks relevance-weighted windows out of long page text
// so evidence stays within prompt budgets.
package excerpt

import (
	"sort"
	"strings"
)

const (
	windowSize  = 520
	windowStep  = 320
	minStartGap = 220
)

// Build slices text into overlapping windows, scores each by question-token
// matches, and joins the best non-adjacent windows in document order. When
// nothing matches it falls back to a plain prefix truncation.
func Build(text, question string, maxChunks, maxTotalChars int) string {
	text = strings.TrimSpace(text)
	if text == "" || maxTotalChars <= 0 || maxChunks <= 0 {
		return ""
	}
	if len(text) <= windowSize {
		return truncate(text, maxTotalChars)
	}

	tokens := questionTokens(question)

	type window struct {
		start int
		text  string
		score int
	}
	var windows []window
	for start := 0; start < len(text); start += windowStep {
		end := start + windowSize
		if end > len(text) {
			end = len(text)
		}
		w := text[start:end]
		windows = append(windows, window{start: start, text: w, score: matchCount(w, tokens)})
		if end == len(text) {
			break
		}
	}

	ranked := make([]int, len(windows))
	for i := range ranked {
		ranked[i] = i
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return windows[ranked[a]].score > windows[ranked[b]].score
	})

	var picks []int
	for _, i := range ranked {
		if windows[i].score <= 0 {
			break
		}
		tooClose := false
		for _, p := range picks {
			if abs(windows[i].start-windows[p].start) < minStartGap {
				tooClose = true
				break
			}
		}
		if tooClose {
			continue
		}
		picks = append(picks, i)
		if len(picks) == maxChunks {
			break
		}
	}

	if len(picks) == 0 {
		return truncate(text, maxTotalChars)
	}

	sort.Ints(picks)
	parts := make([]string, 0, len(picks))
	for _, i := range picks {
		parts = append(parts, strings.TrimSpace(windows[i].text))
	}
	return truncate(strings.Join(parts, "\n\n"), maxTotalChars)
}

func questionTokens(question string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, tok := range strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		if len(tok) < 3 {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

func matchCount(window string, tokens []string) int {
	lower := strings.ToLower(window)
	n := 0
	for _, tok := range tokens {
		if strings.Contains(lower, tok) {
			n++
		}
	}
	return n
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:max])
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
