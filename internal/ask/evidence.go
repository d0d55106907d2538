package ask

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/noliahq/noliad/internal/excerpt"
	"github.com/noliahq/noliad/internal/planner"
	"github.com/noliahq/noliad/internal/rank"
	"github.com/noliahq/noliad/internal/search"
)

// Source is one ranked, possibly fetched, evidence entry. Its position in
// the slice fixes the [n] citation number (1-based).
type Source struct {
	Title         string
	URL           string
	Snippet       string
	ExtractedText string
}

const (
	searchTimeout      = 10 * time.Second
	rawExcerptChunks   = 3
	rawExcerptChars    = 1200
	fetchExcerptChunks = 4
	fetchExcerptChars  = 2500
	snippetLimit       = 500
)

// gatherEvidence fans out both providers, dedupes and ranks hits, then
// fetches page text for the best sources. Provider and fetch failures only
// reduce the evidence, never fail the pipeline.
func (p *Pipeline) gatherEvidence(ctx context.Context, plan planner.Plan, req Request) []Source {
	verified := req.Mode == "verified"

	maxPerQuery := 4
	if plan.Fresh {
		maxPerQuery = 6
	}
	depth := "fast"
	if verified {
		depth = "basic"
		if plan.Fresh {
			depth = "advanced"
		}
	}
	opts := search.Options{
		Topic:             req.WebTopic,
		TimeRange:         req.WebTimeRange,
		SearchDepth:       depth,
		IncludeRawContent: verified,
	}
	if opts.TimeRange == "" {
		switch {
		case plan.VeryFresh:
			opts.TimeRange = "day"
		case plan.Fresh:
			opts.TimeRange = "week"
		}
	}

	type job struct {
		provider search.Provider
		query    string
	}
	var jobs []job
	if p.Brave != nil && p.Brave.Enabled() {
		braveQueries := plan.Queries
		if len(braveQueries) > 2 {
			braveQueries = braveQueries[:2]
		}
		for _, q := range braveQueries {
			jobs = append(jobs, job{p.Brave, q})
		}
	}
	if p.Tavily != nil && p.Tavily.Enabled() {
		for _, q := range plan.Queries {
			jobs = append(jobs, job{p.Tavily, q})
		}
	}

	var (
		mu       sync.Mutex
		hits     []search.Result
		rawByKey = map[string]string{}
	)
	searchStart := time.Now()
	var wg sync.WaitGroup
	for _, j := range jobs {
		wg.Add(1)
		go func(j job) {
			defer wg.Done()
			qctx, cancel := context.WithTimeout(ctx, searchTimeout)
			defer cancel()
			results, err := j.provider.Search(qctx, j.query, maxPerQuery, opts)
			if err != nil {
				p.Log.Warn().Err(err).Str("provider", j.provider.Name()).
					Str("query", j.query).Msg("search provider failed")
				return
			}
			mu.Lock()
			hits = append(hits, results...)
			for _, r := range results {
				if r.RawContent != "" {
					rawByKey[rank.CanonicalKey(r.URL)] = r.RawContent
				}
			}
			mu.Unlock()
		}(j)
	}
	wg.Wait()

	p.Log.Debug().
		Int("queries", len(plan.Queries)).
		Int("providerCalls", len(jobs)).
		Int("hits", len(hits)).
		Int64("durationMs", time.Since(searchStart).Milliseconds()).
		Msg("search fan-out settled")

	if len(hits) == 0 {
		return nil
	}

	now := p.now()
	cands := make([]rank.Candidate, 0, len(hits))
	for _, h := range hits {
		c := rank.Candidate{
			Title:   h.Title,
			URL:     h.URL,
			Snippet: h.Snippet,
			NormURL: rank.CanonicalKey(h.URL),
		}
		c.Score = rank.Score(c, req.Question, plan.Fresh, now)
		cands = append(cands, c)
	}
	picked := rank.Select(rank.Dedupe(cands), plan.Fresh)

	sources := make([]Source, len(picked))
	for i, c := range picked {
		sources[i] = Source{Title: c.Title, URL: c.URL, Snippet: c.Snippet}
		if raw := rawByKey[c.NormURL]; raw != "" {
			sources[i].ExtractedText = excerpt.Build(raw, req.Question, rawExcerptChunks, rawExcerptChars)
		}
	}

	p.fetchMissing(ctx, sources, req.Question, maxFetchFor(verified, plan.Fresh))
	p.Log.Debug().Int("candidates", len(cands)).Int("sources", len(sources)).
		Bool("fresh", plan.Fresh).Msg("evidence ranked")
	return sources
}

func maxFetchFor(verified, fresh bool) int {
	switch {
	case verified && fresh:
		return 5
	case verified, fresh:
		return 4
	default:
		return 3
	}
}

// fetchMissing pulls page text for the leading sources that still lack
// extracted content. Failures leave the snippet as the only evidence.
func (p *Pipeline) fetchMissing(ctx context.Context, sources []Source, question string, maxFetch int) {
	if p.Fetcher == nil {
		return
	}
	var wg sync.WaitGroup
	budget := 0
	for i := range sources {
		if budget == maxFetch {
			break
		}
		if sources[i].ExtractedText != "" {
			continue
		}
		budget++
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text, err := p.Fetcher.PageText(ctx, sources[i].URL)
			if err != nil {
				p.Log.Debug().Err(err).Str("url", sources[i].URL).Msg("page fetch skipped")
				return
			}
			sources[i].ExtractedText = excerpt.Build(text, question, fetchExcerptChunks, fetchExcerptChars)
		}(i)
	}
	wg.Wait()
}

// evidenceBlock renders the numbered source list handed to the model.
func evidenceBlock(sources []Source) string {
	var b strings.Builder
	for i, s := range sources {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] %s\nURL: %s", i+1, s.Title, s.URL)
		if s.Snippet != "" {
			fmt.Fprintf(&b, "\nSnippet: %s", clip(s.Snippet, snippetLimit))
		}
		if s.ExtractedText != "" {
			fmt.Fprintf(&b, "\nExtracted: %s", clip(s.ExtractedText, fetchExcerptChars))
		}
	}
	return b.String()
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Back the cut up to a rune start so the clip never splits a sequence.
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
