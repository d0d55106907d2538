package ask

import (
	"fmt"
	"strings"
	"time"
)

type promptOpts struct {
	strictCitations bool
	sourcesCount    int
}

// systemPrompt is deterministic for a given (style, mode, language, date,
// opts) tuple so prompts are reproducible in tests.
func systemPrompt(style, mode, language string, now time.Time, opts promptOpts) string {
	var b strings.Builder
	b.WriteString("You are Nolia, a careful research assistant. ")
	fmt.Fprintf(&b, "Today's date (UTC) is %s.\n", now.UTC().Format("2006-01-02"))

	switch style {
	case "Concise":
		b.WriteString("Answer briefly, a few sentences at most.\n")
	case "Detailed":
		b.WriteString("Answer thoroughly with structured detail.\n")
	case "Creative":
		b.WriteString("Answer with an engaging, creative tone while staying accurate.\n")
	default:
		b.WriteString("Answer with balanced depth, clear and to the point.\n")
	}

	switch language {
	case "hi":
		b.WriteString("Answer in Hindi (Devanagari or romanized, matching the user).\n")
	case "en":
		b.WriteString("Answer in English.\n")
	default:
		b.WriteString("Answer in the language of the question.\n")
	}

	if mode == "verified" {
		b.WriteString("Prefer verifiable statements over speculation.\n")
	}

	if opts.sourcesCount > 0 {
		fmt.Fprintf(&b, "You are given %d numbered sources. Cite them inline as [n] with n between 1 and %d. ",
			opts.sourcesCount, opts.sourcesCount)
		b.WriteString("Never append a Sources or References section; inline [n] markers are the only citation form.\n")
		if opts.strictCitations {
			b.WriteString("Every factual claim must carry at least one [n] citation. If the sources do not cover a detail, say so explicitly instead of asserting it.\n")
		}
	}

	b.WriteString("Refuse requests that facilitate harm, including violence, weapons, drugs, malware, or exploitation of minors.")
	return b.String()
}

func factsPrompt(question, evidence string, sourcesCount int) string {
	return fmt.Sprintf(`Extract the key facts that answer the question below, using only the numbered sources.

Question: %s

Sources:
%s

Respond with only a JSON array. Each element must be {"fact": string, "citations": [n, ...]} where every n is between 1 and %d and each fact has 1 to 3 citations. Include only facts directly supported by the sources.`,
		question, evidence, sourcesCount)
}

func composeFromFactsPrompt(question, factsBlock string) string {
	return fmt.Sprintf(`Answer the question using only the verified facts below. Keep each fact's [n] citations attached to the claims they support.

Question: %s

Verified facts:
%s`, question, factsBlock)
}

func directPrompt(question, evidence string) string {
	if evidence == "" {
		return question
	}
	return fmt.Sprintf(`Answer the question using the numbered sources below where relevant.

Question: %s

Sources:
%s`, question, evidence)
}

const strictRetryDirective = "Your previous answer was missing citations. Rewrite it so every factual claim cites a source as [n]. When the sources do not cover a detail, acknowledge that explicitly."

func followUpsPrompt(question, answer string) string {
	return fmt.Sprintf(`Given this exchange, suggest up to 3 short follow-up questions the user might ask next. Respond with only a JSON array of strings, each under 140 characters.

Question: %s

Answer: %s`, question, clip(answer, 1500))
}
