package ask

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// looksHindi detects Hindi either by Devanagari script or by enough
// romanized Hindi function words in the question.
func looksHindi(q string) bool {
	for _, r := range q {
		if r >= 0x0900 && r <= 0x097F {
			return true
		}
	}
	hits := 0
	for _, tok := range strings.Fields(strings.ToLower(q)) {
		tok = strings.Trim(tok, "?!.,")
		switch tok {
		case "aaj", "abhi", "kaise", "kya", "kyun", "kab", "kahan", "kaun",
			"hai", "hain", "nahi", "karo", "karna", "batao", "bataiye",
			"mujhe", "mera", "meri", "aur", "haal", "taaza", "samay", "baje":
			hits++
		}
	}
	return hits >= 2
}

var timeRe = regexp.MustCompile(`(?i)\b(what time is it|what is the time|current time|time right now|what('s| is) today('s)? date|today'?s date|what day is (it|today)|kitne baje|samay kya|abhi (kya )?(time|samay)|aaj ki (tarikh|date))\b`)

func isTimeQuestion(q string) bool {
	return timeRe.MatchString(q)
}

// clockAnswer formats the wall clock. The English form is stable enough
// for clients matching on it.
func clockAnswer(now time.Time, hindi bool) string {
	clock := now.Format("3:04 PM MST")
	day := now.Format("Monday, January 2, 2006")
	local := now.Format("15:04:05")
	if hindi {
		return fmt.Sprintf("Abhi samay %s hai, %s (local time: %s).", clock, day, local)
	}
	return fmt.Sprintf("The current time is %s on %s (local time: %s).", clock, day, local)
}

var safetyClasses = []struct {
	reason string
	re     *regexp.Regexp
}{
	{"self-harm", regexp.MustCompile(`(?i)(kill (myself|me)|end my life|suicide|self[ -]harm|hurt myself|khudkushi|apni jaan)`)},
	{"violence", regexp.MustCompile(`(?i)(\bbomb\b|explosive|\bblast\b.*(kaise|how)|(kaise|how to).*\bblast\b|kill (him|her|them|someone)|attack (plan|karna)|hatya kaise)`)},
	{"weapons", regexp.MustCompile(`(?i)((make|build|print|banau|banana|banane).{0,30}\b(gun|pistol|rifle|silencer|firearm)\b|\b(gun|pistol|rifle)\b.{0,30}(kaise bana|how to (make|build)))`)},
	{"drugs", regexp.MustCompile(`(?i)((make|cook|synthesi|banane|banau).{0,40}\b(meth|cocaine|heroin|mdma|fentanyl|lsd)\b|\b(meth|cocaine|heroin|mdma|fentanyl|lsd)\b.{0,40}(kaise bana|recipe|synthesi|how to (make|cook)))`)},
	{"hacking", regexp.MustCompile(`(?i)(hack (into|someone|account|wifi|phone)|(create|write|banao).{0,20}(virus|malware|ransomware)|ddos attack|steal.{0,20}password|phishing (page|kit))`)},
	{"csam", regexp.MustCompile(`(?i)(child (porn|sexual|abuse material)|minor.{0,20}(nude|sexual)|\bcsam\b)`)},
}

// safetyClass returns the matched policy reason, or "" when the question
// is allowed through.
func safetyClass(q string) string {
	for _, c := range safetyClasses {
		if c.re.MatchString(q) {
			return c.reason
		}
	}
	return ""
}

func refusalAnswer(hindi bool) string {
	if hindi {
		return "Main is request me madad nahi kar sakti. Agar aap kisi mushkil daur se guzar rahe hain, kripya kisi bharosemand vyakti ya local helpline se zaroor baat karein."
	}
	return "I can't help with that request. If you are going through a difficult time, please reach out to someone you trust or a local helpline."
}

func safetyFollowUps(hindi bool) []string {
	if hindi {
		return []string{
			"Kya main aapko kisi aur topic me madad kar sakti hu?",
			"Kya aap mental health helplines ke baare me jaanna chahenge?",
			"Koi aur sawal poochhna chahenge?",
		}
	}
	return []string{
		"Is there another topic I can help you with?",
		"Would you like information about support helplines?",
		"Do you have a different question?",
	}
}

// heuristicFollowUps derives generic follow-ups from the topical core when
// the LLM path is unavailable or fails.
func heuristicFollowUps(core string, hindi bool) []string {
	core = strings.TrimSpace(core)
	if core == "" {
		core = "this topic"
		if hindi {
			core = "is topic"
		}
	}
	// Truncate on rune boundaries so multi-byte scripts stay valid UTF-8.
	if runes := []rune(core); len(runes) > 60 {
		core = string(runes[:60])
	}
	if hindi {
		return []string{
			fmt.Sprintf("%s ke baare me aur kya jaanna chahenge?", core),
			fmt.Sprintf("Kya aap %s ka koi example dekhna chahenge?", core),
			"Koi aur sawal?",
		}
	}
	return []string{
		fmt.Sprintf("What else would you like to know about %s?", core),
		fmt.Sprintf("Would you like an example related to %s?", core),
		"Anything else I can help with?",
	}
}
