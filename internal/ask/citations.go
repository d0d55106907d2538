package ask

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var citationRe = regexp.MustCompile(`\[(\d+)\]`)

// extractCitationNumbers returns every [n] in order of appearance.
func extractCitationNumbers(answer string) []int {
	var out []int
	for _, m := range citationRe.FindAllStringSubmatch(answer, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

// sanitizeCitations strips [n] markers outside [1..max] and reports
// whether any were removed. Idempotent: a clean answer passes through
// unchanged.
func sanitizeCitations(answer string, max int) (string, bool) {
	removed := false
	cleaned := citationRe.ReplaceAllStringFunc(answer, func(m string) string {
		n, err := strconv.Atoi(strings.Trim(m, "[]"))
		if err != nil || n < 1 || n > max {
			removed = true
			return ""
		}
		return m
	})
	if removed {
		// Collapse doubled spaces left behind by stripped markers.
		cleaned = regexp.MustCompile(`[ \t]{2,}`).ReplaceAllString(cleaned, " ")
		cleaned = regexp.MustCompile(` +([.,;:!?])`).ReplaceAllString(cleaned, "$1")
	}
	return cleaned, removed
}

// mapCitations projects the distinct in-range citation numbers of answer
// onto sources, ascending.
func mapCitations(answer string, sources []Source) []Citation {
	seen := map[int]struct{}{}
	var nums []int
	for _, n := range extractCitationNumbers(answer) {
		if n < 1 || n > len(sources) {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		nums = append(nums, n)
	}
	sort.Ints(nums)

	out := make([]Citation, 0, len(nums))
	for _, n := range nums {
		s := sources[n-1]
		out = append(out, Citation{URL: s.URL, Title: s.Title})
	}
	return out
}

var bulletRe = regexp.MustCompile(`^\s*([-*+]|\d+[.)])\s+`)

// uncitedFactualBlock reports whether any factual block of the answer
// lacks a citation. Blocks are blank-line separated; fenced code is
// ignored. Bullets over 20 chars and prose blocks of 40+ chars need [n].
func uncitedFactualBlock(answer string) bool {
	inFence := false
	var blocks [][]string
	var cur []string
	flush := func() {
		if len(cur) > 0 {
			blocks = append(blocks, cur)
			cur = nil
		}
	}
	for _, line := range strings.Split(answer, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		cur = append(cur, line)
	}
	flush()

	for _, block := range blocks {
		bullets := false
		for _, line := range block {
			if bulletRe.MatchString(line) {
				bullets = true
				break
			}
		}
		if bullets {
			for _, line := range block {
				if !bulletRe.MatchString(line) {
					continue
				}
				body := bulletRe.ReplaceAllString(line, "")
				if len(strings.TrimSpace(body)) > 20 && !citationRe.MatchString(line) {
					return true
				}
			}
			continue
		}
		prose := strings.TrimSpace(strings.TrimLeft(strings.Join(block, " "), "# "))
		if len(prose) >= 40 && !citationRe.MatchString(prose) {
			return true
		}
	}
	return false
}
