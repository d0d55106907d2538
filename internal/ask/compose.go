package ask

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/noliahq/noliad/internal/llm"
	"github.com/noliahq/noliad/internal/planner"
)

const (
	factsTimeout    = 25 * time.Second
	composeTimeout  = 30 * time.Second
	followUpTimeout = 12 * time.Second
)

type groundedFact struct {
	Fact      string `json:"fact"`
	Citations []int  `json:"citations"`
}

// compose produces the answer. Verified mode with sources runs the
// two-pass grounded path; anything else is a single direct call.
func (p *Pipeline) compose(ctx context.Context, model string, req Request, plan planner.Plan, sources []Source, hindi bool) (string, error) {
	evidence := evidenceBlock(sources)
	verified := req.Mode == "verified"
	language := req.Language
	if language == "auto" && hindi {
		language = "hi"
	}

	if verified && len(sources) > 0 {
		facts := p.extractFacts(ctx, model, req, language, evidence, len(sources))
		if len(facts) > 0 {
			return p.LLM.Chat(ctx, llm.Request{
				Model: model,
				Messages: []openai.ChatCompletionMessage{
					{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(req.Style, req.Mode, language, p.now(), promptOpts{sourcesCount: len(sources)})},
					{Role: openai.ChatMessageRoleUser, Content: composeFromFactsPrompt(req.Question, factsBlock(facts))},
				},
				Timeout:     composeTimeout,
				Temperature: 0.2,
				MaxTokens:   900,
			})
		}
		// Fact extraction came back empty or unparsable; compose directly
		// from the evidence instead.
		return p.LLM.Chat(ctx, llm.Request{
			Model: model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(req.Style, req.Mode, language, p.now(), promptOpts{sourcesCount: len(sources)})},
				{Role: openai.ChatMessageRoleUser, Content: directPrompt(req.Question, evidence)},
			},
			Timeout:     composeTimeout,
			Temperature: 0.3,
			MaxTokens:   900,
		})
	}

	temp := float32(0.7)
	if verified {
		temp = 0.3
	}
	return p.LLM.Chat(ctx, llm.Request{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(req.Style, req.Mode, language, p.now(), promptOpts{sourcesCount: len(sources)})},
			{Role: openai.ChatMessageRoleUser, Content: directPrompt(req.Question, evidence)},
		},
		Timeout:     composeTimeout,
		Temperature: temp,
		MaxTokens:   900,
	})
}

// extractFacts asks the model for a JSON fact list. Shape failures are
// recovered by the caller, not surfaced.
func (p *Pipeline) extractFacts(ctx context.Context, model string, req Request, language, evidence string, sourcesCount int) []groundedFact {
	raw, err := p.LLM.Chat(ctx, llm.Request{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(req.Style, req.Mode, language, p.now(), promptOpts{sourcesCount: sourcesCount})},
			{Role: openai.ChatMessageRoleUser, Content: factsPrompt(req.Question, evidence, sourcesCount)},
		},
		Timeout:     factsTimeout,
		Temperature: 0.1,
		MaxTokens:   520,
	})
	if err != nil {
		p.Log.Warn().Err(err).Msg("fact extraction failed, falling back to direct composition")
		return nil
	}
	return parseFacts(raw, sourcesCount)
}

// parseFacts tolerates fenced or chatty model output around the JSON
// array, then validates each entry.
func parseFacts(raw string, sourcesCount int) []groundedFact {
	payload := extractJSONArray(raw)
	if payload == "" {
		return nil
	}
	var facts []groundedFact
	if err := json.Unmarshal([]byte(payload), &facts); err != nil {
		return nil
	}

	out := facts[:0]
	for _, f := range facts {
		f.Fact = strings.TrimSpace(f.Fact)
		if f.Fact == "" || len(f.Fact) > 500 {
			continue
		}
		var cites []int
		for _, n := range f.Citations {
			if n >= 1 && n <= sourcesCount {
				cites = append(cites, n)
			}
			if len(cites) == 3 {
				break
			}
		}
		if len(cites) == 0 {
			continue
		}
		f.Citations = cites
		out = append(out, f)
	}
	return out
}

// extractJSONArray returns the outermost [...] span of s, stripping any
// markdown fence around it.
func extractJSONArray(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func factsBlock(facts []groundedFact) string {
	var b strings.Builder
	for i, f := range facts {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- %s", f.Fact)
		for _, n := range f.Citations {
			fmt.Fprintf(&b, " [%d]", n)
		}
	}
	return b.String()
}

// verifyCitations inspects the composed answer and performs at most one
// strict re-composition when citations are missing, out of range, or
// absent from factual blocks.
func (p *Pipeline) verifyCitations(ctx context.Context, model string, req Request, sources []Source, answer string, hindi bool) string {
	sanitized, hadOutOfRange := sanitizeCitations(answer, len(sources))
	defective := hadOutOfRange ||
		len(extractCitationNumbers(sanitized)) == 0 ||
		uncitedFactualBlock(sanitized)
	if !defective {
		return answer
	}

	language := req.Language
	if language == "auto" && hindi {
		language = "hi"
	}
	retried, err := p.LLM.Chat(ctx, llm.Request{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(req.Style, req.Mode, language, p.now(), promptOpts{strictCitations: true, sourcesCount: len(sources)})},
			{Role: openai.ChatMessageRoleUser, Content: directPrompt(req.Question, evidenceBlock(sources))},
			{Role: openai.ChatMessageRoleAssistant, Content: answer},
			{Role: openai.ChatMessageRoleUser, Content: strictRetryDirective},
		},
		Timeout:     composeTimeout,
		Temperature: 0.2,
		MaxTokens:   900,
	})
	if err != nil {
		p.Log.Warn().Err(err).Msg("strict citation retry failed, keeping first answer")
		return answer
	}
	// The retried answer is final even if still imperfect.
	return retried
}
