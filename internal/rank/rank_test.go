package rank

import (
	"fmt"
	"testing"
	"time"
)

func TestCanonicalKey_SchemeAndTrackingCollapse(t *testing.T) {
	a := CanonicalKey("https://www.example.com/a/?utm_source=x&b=2&a=1")
	b := CanonicalKey("http://example.com/a?a=1&b=2&fbclid=zzz")
	if a != b {
		t.Fatalf("keys differ: %q vs %q", a, b)
	}
	if a != "example.com/a?a=1&b=2" {
		t.Fatalf("unexpected key: %q", a)
	}
}

func TestCanonicalKey_EmptyPathAndFragment(t *testing.T) {
	if got := CanonicalKey("https://Example.com#section"); got != "example.com/" {
		t.Fatalf("unexpected key: %q", got)
	}
}

func TestCanonicalKey_Idempotent(t *testing.T) {
	once := CanonicalKey("https://www.example.com/path/?utm_medium=m&z=1")
	twice := CanonicalKey(once)
	if once != twice {
		t.Fatalf("not idempotent: %q vs %q", once, twice)
	}
}

func TestScore_DomainTrust(t *testing.T) {
	now := time.Now()
	gov := Score(Candidate{URL: "https://data.gov/report"}, "irrelevant", false, now)
	ugc := Score(Candidate{URL: "https://blog.medium.com/post"}, "irrelevant", false, now)
	if gov != 6 {
		t.Fatalf("gov trust: %d", gov)
	}
	if ugc != -2 {
		t.Fatalf("ugc penalty: %d", ugc)
	}
}

func TestScore_TokenOverlapCapped(t *testing.T) {
	c := Candidate{
		URL:     "https://example.com/x",
		Title:   "monsoon rainfall forecast kerala onset arrival dates season",
		Snippet: "monsoon rainfall forecast kerala onset arrival",
	}
	got := Score(c, "monsoon rainfall forecast kerala onset arrival dates season", false, time.Now())
	if got != 6 {
		t.Fatalf("overlap should cap at 6, got %d", got)
	}
}

func TestScore_RecencyBuckets(t *testing.T) {
	now := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		date string
		want int
	}{
		{"2026-08-24", 4},
		{"2026-08-20", 3},
		{"2026-08-01", 2},
		{"2025-01-01", 1},
	}
	for _, tc := range cases {
		c := Candidate{URL: "https://example.com/x", Snippet: "Published: " + tc.date}
		if got := Score(c, "zzz", true, now); got != tc.want {
			t.Errorf("date %s: got %d want %d", tc.date, got, tc.want)
		}
	}
	c := Candidate{URL: "https://example.com/x", Snippet: "no date here"}
	if got := Score(c, "zzz", true, now); got != 0 {
		t.Errorf("missing date should add nothing, got %d", got)
	}
}

func TestDedupe_KeepsHigherScoreStableOrder(t *testing.T) {
	cands := []Candidate{
		{URL: "https://example.com/a", Score: 3},
		{URL: "https://other.example/b", Score: 5},
		{URL: "http://www.example.com/a/", Score: 7, Title: "better"},
	}
	got := Dedupe(cands)
	if len(got) != 2 {
		t.Fatalf("expected 2 after dedupe, got %d", len(got))
	}
	if got[0].Score != 7 || got[0].Title != "better" {
		t.Fatalf("higher-scored variant not kept: %+v", got[0])
	}
	if got[1].Score != 5 {
		t.Fatalf("order not preserved: %+v", got)
	}
}

func TestDedupe_TieKeepsFirst(t *testing.T) {
	cands := []Candidate{
		{URL: "https://example.com/a", Score: 4, Title: "first"},
		{URL: "http://example.com/a", Score: 4, Title: "second"},
	}
	got := Dedupe(cands)
	if len(got) != 1 || got[0].Title != "first" {
		t.Fatalf("tie should keep first seen: %+v", got)
	}
}

func TestSelect_HostCapAndBackfill(t *testing.T) {
	var cands []Candidate
	for i := 0; i < 10; i++ {
		cands = append(cands, Candidate{
			URL:     fmt.Sprintf("https://samehost.example/p%d", i),
			NormURL: fmt.Sprintf("samehost.example/p%d", i),
			Score:   10 - i,
		})
	}
	got := Select(cands, false)
	if len(got) != 6 {
		t.Fatalf("expected backfill up to 6, got %d", len(got))
	}
	// The two best pass the host cap; the rest arrive via backfill.
	if got[0].Score != 10 || got[1].Score != 9 {
		t.Fatalf("score ordering broken: %+v", got[:2])
	}
}

func TestSelect_FreshWidensBudget(t *testing.T) {
	var cands []Candidate
	for i := 0; i < 12; i++ {
		cands = append(cands, Candidate{
			URL:     fmt.Sprintf("https://host%d.example/", i),
			NormURL: fmt.Sprintf("host%d.example/", i),
			Score:   i,
		})
	}
	if got := Select(cands, true); len(got) != 8 {
		t.Fatalf("fresh budget should be 8, got %d", len(got))
	}
	if got := Select(cands, false); len(got) != 6 {
		t.Fatalf("default budget should be 6, got %d", len(got))
	}
}
