package planner

import (
	"strings"
	"testing"
)

func TestBuild_BaseAndCore(t *testing.T) {
	p := Build("What is the capital of France?", false)
	if p.Fresh || p.VeryFresh || p.Finance {
		t.Fatalf("no intent expected: %+v", p)
	}
	if p.Core != "capital of France" {
		t.Fatalf("core: %q", p.Core)
	}
	if len(p.Queries) != 2 {
		t.Fatalf("queries: %v", p.Queries)
	}
	if p.Queries[0] != "What is the capital of France?" || p.Queries[1] != "capital of France" {
		t.Fatalf("queries: %v", p.Queries)
	}
}

func TestBuild_FreshIntent(t *testing.T) {
	p := Build("latest cricket score India", false)
	if !p.Fresh {
		t.Fatalf("expected fresh intent")
	}
	if !hasQuery(p, "cricket score India latest") {
		t.Fatalf("missing latest variant: %v", p.Queries)
	}
}

func TestBuild_VeryFreshImpliesFresh(t *testing.T) {
	p := Build("gold rate today", false)
	if !p.VeryFresh || !p.Fresh {
		t.Fatalf("expected very-fresh and fresh: %+v", p)
	}
}

func TestBuild_HindiTransliteration(t *testing.T) {
	p := Build("aaj ka mausam Delhi", false)
	if !p.VeryFresh {
		t.Fatalf("expected very-fresh for aaj")
	}
	p = Build("taaza khabar Mumbai", false)
	if !p.Fresh {
		t.Fatalf("expected fresh for taaza")
	}
}

func TestBuild_FinanceIntent(t *testing.T) {
	p := Build("nifty performance this quarter", false)
	if !p.Finance {
		t.Fatalf("expected finance intent")
	}
	found := false
	for _, q := range p.Queries {
		if strings.HasSuffix(q, " price") {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing price variant: %v", p.Queries)
	}
}

func TestBuild_VerifiedAddsOfficial(t *testing.T) {
	p := Build("passport renewal process India", true)
	if !hasQuery(p, "passport renewal process India official") {
		t.Fatalf("missing official variant: %v", p.Queries)
	}
}

func TestBuild_CapsAtThree(t *testing.T) {
	p := Build("latest nifty price today", true)
	if len(p.Queries) > 3 {
		t.Fatalf("more than 3 queries: %v", p.Queries)
	}
}

func TestBuild_DedupesCaseInsensitive(t *testing.T) {
	// Core equals the base question once trailing punctuation is removed.
	p := Build("weather in Pune", false)
	if len(p.Queries) != 1 {
		t.Fatalf("expected single deduped query: %v", p.Queries)
	}
}

func TestBuild_StackedInterrogatives(t *testing.T) {
	p := Build("What is the latest update on the monsoon?", false)
	if !p.Fresh {
		t.Fatalf("expected fresh intent")
	}
	if strings.HasPrefix(strings.ToLower(p.Core), "what") ||
		strings.HasPrefix(strings.ToLower(p.Core), "latest") {
		t.Fatalf("interrogatives not stripped: %q", p.Core)
	}
}

func hasQuery(p Plan, want string) bool {
	for _, q := range p.Queries {
		if q == want {
			return true
		}
	}
	return false
}
