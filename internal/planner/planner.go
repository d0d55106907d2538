// Package planner expands a user question into a small set of search
// queries and classifies its freshness and finance intent.
package planner

import "strings"

// Plan is the query expansion for one question.
type Plan struct {
	// Queries holds up to three deduplicated search queries, base first.
	Queries []string
	// Core is the question with leading interrogatives stripped.
	Core string
	// Fresh means the question asks about recent events.
	Fresh bool
	// VeryFresh means the question asks about right now or today.
	VeryFresh bool
	// Finance means the question touches markets or prices.
	Finance bool
}

const maxQueries = 3

var freshTokens = []string{
	"latest", "current", "recent", "news", "update", "trending",
	"haal", "taaza", "is hafte",
}

var veryFreshTokens = []string{
	"today", "right now", "breaking", "aaj", "abhi",
}

var financeTokens = []string{
	"stock", "share price", "market", "price", "nifty", "sensex",
	"crypto", "bitcoin", "forex", "exchange rate", "inflation",
	"interest rate", "gdp", "ipo", "dividend", "mutual fund",
}

var interrogatives = []string{
	"what is", "what are", "what", "who is", "who", "where is", "where",
	"when is", "when", "why is", "why", "how to", "how do", "how",
	"explain", "tell me about", "tell me", "define",
	"latest", "current",
}

// Build classifies the question and emits up to three deduped queries.
// verified adds an "official" variant for source-quality bias.
func Build(question string, verified bool) Plan {
	q := strings.TrimSpace(question)
	lower := strings.ToLower(q)

	p := Plan{
		Fresh:     containsAny(lower, freshTokens),
		VeryFresh: containsAny(lower, veryFreshTokens),
		Finance:   containsAny(lower, financeTokens),
		Core:      stripInterrogatives(q),
	}
	if p.VeryFresh {
		p.Fresh = true
	}

	candidates := []string{q, p.Core}
	if p.Fresh {
		candidates = append(candidates, p.Core+" latest")
	}
	if p.VeryFresh {
		candidates = append(candidates, p.Core+" today")
	}
	if p.Finance {
		candidates = append(candidates, p.Core+" price")
	}
	if verified {
		candidates = append(candidates, p.Core+" official")
	}

	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		key := strings.ToLower(c)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		p.Queries = append(p.Queries, c)
		if len(p.Queries) == maxQueries {
			break
		}
	}
	return p
}

// stripInterrogatives drops leading question words so the remainder works
// as a bare topical query. Runs repeatedly because openers stack, as in
// "what is the latest ...".
func stripInterrogatives(q string) string {
	core := strings.TrimSpace(q)
	for {
		lower := strings.ToLower(core)
		stripped := false
		for _, prefix := range interrogatives {
			if strings.HasPrefix(lower, prefix) {
				rest := core[len(prefix):]
				if rest != "" && !startsWithBoundary(rest) {
					continue
				}
				core = strings.TrimLeft(rest, " \t")
				core = strings.TrimPrefix(core, "the ")
				core = strings.TrimSpace(core)
				stripped = true
				break
			}
		}
		if !stripped || core == "" {
			break
		}
	}
	core = strings.TrimRight(core, "?!. ")
	if core == "" {
		return strings.TrimRight(strings.TrimSpace(q), "?!. ")
	}
	return core
}

func startsWithBoundary(s string) bool {
	return s[0] == ' ' || s[0] == '\t' || s[0] == '?' || s[0] == ','
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
