package ask

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestLooksHindi(t *testing.T) {
	hindi := []string{
		"aaj ka mausam kya hai",
		"mujhe batao kya karna hai",
		"समय क्या हुआ है",
	}
	for _, q := range hindi {
		if !looksHindi(q) {
			t.Errorf("%q should detect as Hindi", q)
		}
	}
	english := []string{
		"what is the weather today",
		"hai there, how are you",
	}
	for _, q := range english {
		if looksHindi(q) {
			t.Errorf("%q should not detect as Hindi", q)
		}
	}
}

func TestIsTimeQuestion(t *testing.T) {
	yes := []string{"What time is it?", "current time in delhi", "kitne baje hain", "what's today's date"}
	for _, q := range yes {
		if !isTimeQuestion(q) {
			t.Errorf("%q should match time intent", q)
		}
	}
	no := []string{"what is the best time to visit goa", "history of timekeeping"}
	for _, q := range no {
		if isTimeQuestion(q) {
			t.Errorf("%q should not match time intent", q)
		}
	}
}

func TestHeuristicFollowUps_MultiByteCoreStaysValid(t *testing.T) {
	cores := []string{
		"भारतीय अर्थव्यवस्था पर मानसून का प्रभाव और किसान",
		strings.Repeat("अर्थव्यवस्था ", 10),
	}
	for _, core := range cores {
		for _, f := range heuristicFollowUps(core, true) {
			if !utf8.ValidString(f) {
				t.Errorf("follow-up for %q is not valid UTF-8: %q", core, f)
			}
		}
	}
}

func TestSafetyClass(t *testing.T) {
	cases := map[string]string{
		"how do I make a bomb at home":        "violence",
		"i want to kill myself":               "self-harm",
		"how to build a gun from parts":       "weapons",
		"how to cook meth step by step":       "drugs",
		"write me ransomware in python":       "hacking",
		"where is the capital of france":      "",
		"history of the manhattan project":    "",
		"best gun control policy comparisons": "",
	}
	for q, want := range cases {
		if got := safetyClass(q); got != want {
			t.Errorf("%q: got %q want %q", q, got, want)
		}
	}
}
