package excerpt

import (
	"strings"
	"testing"
)

func TestBuild_ShortTextPassesThrough(t *testing.T) {
	got := Build("short text", "anything", 3, 100)
	if got != "short text" {
		t.Fatalf("got %q", got)
	}
}

func TestBuild_PicksMatchingWindows(t *testing.T) {
	filler := strings.Repeat("lorem ipsum dolor sit amet ", 40)
	text := filler + " the monsoon reaches kerala in early june " + filler
	got := Build(text, "when does the monsoon reach kerala", 2, 2000)
	if !strings.Contains(got, "monsoon reaches kerala") {
		t.Fatalf("relevant window not selected: %q", got)
	}
	if len(got) >= len(text) {
		t.Fatalf("expected a reduction, got %d of %d chars", len(got), len(text))
	}
}

func TestBuild_NoMatchFallsBackToPrefix(t *testing.T) {
	text := strings.Repeat("abcdefghij ", 200)
	got := Build(text, "zzzzz qqqqq", 3, 300)
	if len(got) > 300 {
		t.Fatalf("fallback exceeds budget: %d", len(got))
	}
	if !strings.HasPrefix(text, got[:50]) {
		t.Fatalf("fallback should be a prefix")
	}
}

func TestBuild_RespectsTotalBudget(t *testing.T) {
	text := strings.Repeat("kerala monsoon rain ", 300)
	got := Build(text, "kerala monsoon", 4, 500)
	if len(got) > 500 {
		t.Fatalf("budget exceeded: %d", len(got))
	}
}

func TestBuild_WindowsKeepDocumentOrder(t *testing.T) {
	pad := strings.Repeat("x ", 300)
	text := "alpha topic here " + pad + " beta topic here " + pad + " gamma topic here"
	got := Build(text, "topic", 3, 5000)
	a, b := strings.Index(got, "alpha"), strings.Index(got, "beta")
	if a == -1 || b == -1 || a > b {
		t.Fatalf("selected windows out of document order: %q", got)
	}
}

func TestBuild_EmptyInput(t *testing.T) {
	if got := Build("", "q", 3, 100); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
