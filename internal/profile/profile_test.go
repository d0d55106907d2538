package profile

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestValidAnonID(t *testing.T) {
	valid := []string{"abc", "A-b_c.d:e", strings.Repeat("x", 200)}
	for _, id := range valid {
		if !ValidAnonID(id) {
			t.Errorf("%q should be valid", id)
		}
	}
	invalid := []string{"", "has space", "émoji", strings.Repeat("x", 201), "semi;colon"}
	for _, id := range invalid {
		if ValidAnonID(id) {
			t.Errorf("%q should be invalid", id)
		}
	}
}

func TestTouch_UpsertAndCounts(t *testing.T) {
	s := &Store{}
	s.Touch("user1", "nifty stock price today", "Concise", "en")
	s.Touch("user1", "cricket match score", "Detailed", "hi")

	p, ok := s.Get("user1")
	if !ok {
		t.Fatalf("profile missing")
	}
	if p.AskCount != 2 {
		t.Fatalf("askCount: %d", p.AskCount)
	}
	if p.LastStyle != "Detailed" || p.LastLanguage != "hi" {
		t.Fatalf("last style/language not updated: %+v", p)
	}
	if p.TopicCounts["finance"] != 1 || p.TopicCounts["sports"] != 1 {
		t.Fatalf("topic counts: %v", p.TopicCounts)
	}
}

func TestTouch_InvalidIDIgnored(t *testing.T) {
	s := &Store{}
	s.Touch("bad id!", "question", "", "")
	if s.Len() != 0 {
		t.Fatalf("invalid id must not create a profile")
	}
}

func TestEvict_ByAge(t *testing.T) {
	now := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	s := &Store{Now: func() time.Time { return now }}

	s.Touch("old", "q", "", "")
	now = now.Add(31 * 24 * time.Hour)
	s.Touch("new", "q", "", "")

	if _, ok := s.Get("old"); ok {
		t.Fatalf("profile older than 30 days should be evicted")
	}
	if _, ok := s.Get("new"); !ok {
		t.Fatalf("fresh profile should remain")
	}
}

func TestEvict_ByCapacityOldestFirst(t *testing.T) {
	now := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	s := &Store{MaxEntries: 3, Now: func() time.Time { return now }}

	for i := 0; i < 4; i++ {
		s.Touch(fmt.Sprintf("u%d", i), "q", "", "")
		now = now.Add(time.Minute)
	}
	if s.Len() != 3 {
		t.Fatalf("size should be capped: %d", s.Len())
	}
	if _, ok := s.Get("u0"); ok {
		t.Fatalf("oldest profile should be evicted first")
	}
	if _, ok := s.Get("u3"); !ok {
		t.Fatalf("newest profile should remain")
	}
}

func TestClassifyTopic_DefaultsToGeneral(t *testing.T) {
	if got := classifyTopic("why is the sky blue"); got != "general" {
		t.Fatalf("got %q", got)
	}
	if got := classifyTopic("best mutual fund for beginners"); got != "finance" {
		t.Fatalf("got %q", got)
	}
}
