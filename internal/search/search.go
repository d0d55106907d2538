package search

import (
	"context"
)

// Result is a single search hit, normalized across providers.
type Result struct {
	Title   string
	URL     string
	Snippet string
	// RawContent is provider-supplied page content, when requested and available.
	RawContent string
	Source     string
}

// Options tune a provider call. Providers ignore fields they do not support.
type Options struct {
	// Topic is one of general, news, finance.
	Topic string
	// TimeRange is one of day, week, month, year or their single-letter forms.
	TimeRange string
	// SearchDepth is one of fast, basic, advanced.
	SearchDepth string
	// IncludeRawContent asks the provider to return page text inline.
	IncludeRawContent bool
}

// Provider is the uniform search interface. A provider without credentials
// is disabled: Search returns no results and no error.
type Provider interface {
	Search(ctx context.Context, query string, max int, opts Options) ([]Result, error)
	Name() string
	Enabled() bool
}
