// Package rank canonicalizes, scores, and diversifies evidence candidates
// before they become the numbered source list of an answer.
package rank

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Candidate is one search hit with its canonical key and relevance score.
type Candidate struct {
	Title         string
	URL           string
	Snippet       string
	ExtractedText string
	NormURL       string
	Score         int
}

// CanonicalKey reduces a URL to the identity used for deduplication.
// Scheme and fragment are dropped, tracking parameters removed, the rest
// of the query sorted. The function is idempotent.
func CanonicalKey(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimSpace(raw))
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if p := u.Port(); p != "" {
		host += ":" + p
	}

	path := strings.TrimRight(u.EscapedPath(), "/")
	if path == "" {
		path = "/"
	}

	query := ""
	if u.RawQuery != "" {
		values, qerr := url.ParseQuery(u.RawQuery)
		if qerr == nil {
			keys := make([]string, 0, len(values))
			for k := range values {
				if trackingParam(k) {
					continue
				}
				keys = append(keys, k)
			}
			sort.Strings(keys)
			var b strings.Builder
			for _, k := range keys {
				vals := values[k]
				sort.Strings(vals)
				for _, v := range vals {
					if b.Len() > 0 {
						b.WriteByte('&')
					}
					b.WriteString(url.QueryEscape(k))
					b.WriteByte('=')
					b.WriteString(url.QueryEscape(v))
				}
			}
			query = b.String()
		}
	}

	key := host + path
	if query != "" {
		key += "?" + query
	}
	return key
}

func trackingParam(k string) bool {
	k = strings.ToLower(k)
	if strings.HasPrefix(k, "utm_") {
		return true
	}
	switch k {
	case "gclid", "fbclid", "igshid", "mc_cid", "mc_eid", "ref", "ref_src":
		return true
	}
	return false
}

var trustedSuffixes = []struct {
	suffix string
	bonus  int
}{
	{".gov", 6},
	{".edu", 5},
	{"wikipedia.org", 3},
	{".org", 2},
	{"github.com", 2},
}

var ugcHosts = []string{
	"medium.com", "blogspot.", "wordpress.", "substack.",
	"tumblr.", "reddit.com", "quora.com",
}

var publishedRe = regexp.MustCompile(`Published:\s*(\d{4}-\d{2}-\d{2})`)

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "was": {}, "were": {},
	"what": {}, "who": {}, "where": {}, "when": {}, "why": {}, "how": {},
	"does": {}, "did": {}, "can": {}, "will": {}, "has": {}, "have": {},
	"about": {}, "with": {}, "from": {}, "this": {}, "that": {}, "into": {},
	"latest": {}, "current": {}, "today": {}, "please": {},
}

// Score rates a candidate against the question. fresh enables the recency
// boost derived from a "Published: YYYY-MM-DD" marker in the snippet.
func Score(c Candidate, question string, fresh bool, now time.Time) int {
	score := domainTrust(c.URL)
	score += tokenOverlap(question, c.Title+" "+c.Snippet)
	if fresh {
		score += recencyBoost(c.Snippet, now)
	}
	return score
}

func domainTrust(raw string) int {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return 0
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")

	score := 0
	for _, t := range trustedSuffixes {
		if host == strings.TrimPrefix(t.suffix, ".") || strings.HasSuffix(host, t.suffix) {
			score += t.bonus
		}
	}
	for _, ugc := range ugcHosts {
		if strings.Contains(host, ugc) {
			score -= 2
			break
		}
	}
	return score
}

func tokenOverlap(question, text string) int {
	text = strings.ToLower(text)
	overlap := 0
	seen := map[string]struct{}{}
	for _, tok := range strings.FieldsFunc(strings.ToLower(question), notWordRune) {
		if len(tok) < 3 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		if strings.Contains(text, tok) {
			overlap++
			if overlap == 6 {
				break
			}
		}
	}
	return overlap
}

func notWordRune(r rune) bool {
	return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r >= 'A' && r <= 'Z')
}

func recencyBoost(snippet string, now time.Time) int {
	m := publishedRe.FindStringSubmatch(snippet)
	if m == nil {
		return 0
	}
	published, err := time.Parse("2006-01-02", m[1])
	if err != nil {
		return 2
	}
	age := now.Sub(published)
	switch {
	case age <= 2*24*time.Hour:
		return 4
	case age <= 7*24*time.Hour:
		return 3
	case age <= 30*24*time.Hour:
		return 2
	default:
		return 1
	}
}

// Dedupe collapses candidates sharing a canonical key, keeping the higher
// score. On a tie the earlier candidate wins. Input order is preserved.
func Dedupe(cands []Candidate) []Candidate {
	byKey := make(map[string]int, len(cands))
	out := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if c.NormURL == "" {
			c.NormURL = CanonicalKey(c.URL)
		}
		if i, dup := byKey[c.NormURL]; dup {
			if c.Score > out[i].Score {
				// Keep the original slot so source order stays stable.
				c2 := c
				c2.NormURL = out[i].NormURL
				out[i] = c2
			}
			continue
		}
		byKey[c.NormURL] = len(out)
		out = append(out, c)
	}
	return out
}

// Select orders candidates by score and diversifies by host. fresh widens
// the source budget to 8 with a per-host cap of 1; otherwise 6 sources with
// a cap of 2. Unused slots are backfilled ignoring the host cap.
func Select(cands []Candidate, fresh bool) []Candidate {
	maxSources, hostCap := 6, 2
	if fresh {
		maxSources, hostCap = 8, 1
	}

	sorted := make([]Candidate, len(cands))
	copy(sorted, cands)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	picked := make([]Candidate, 0, maxSources)
	pickedKeys := make(map[string]struct{}, maxSources)
	hostCount := map[string]int{}
	for _, c := range sorted {
		if len(picked) == maxSources {
			break
		}
		h := hostOf(c.URL)
		if hostCount[h] >= hostCap {
			continue
		}
		hostCount[h]++
		picked = append(picked, c)
		pickedKeys[c.NormURL] = struct{}{}
	}

	if len(picked) < maxSources {
		for _, c := range sorted {
			if len(picked) == maxSources {
				break
			}
			if _, done := pickedKeys[c.NormURL]; done {
				continue
			}
			picked = append(picked, c)
			pickedKeys[c.NormURL] = struct{}{}
		}
	}
	return picked
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
