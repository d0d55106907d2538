package ask

import (
	"context"
	"encoding/json"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/noliahq/noliad/internal/llm"
)

const (
	maxFollowUps   = 3
	maxFollowUpLen = 140
)

// followUps asks the model for next questions, falling back to the
// heuristic set on any failure.
func (p *Pipeline) followUps(ctx context.Context, model, question, answer, core string, hindi bool) []string {
	raw, err := p.LLM.Chat(ctx, llm.Request{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: followUpsPrompt(question, answer)},
		},
		Timeout:     followUpTimeout,
		Temperature: 0.5,
		MaxTokens:   maxFollowUpLen,
	})
	if err != nil {
		p.Log.Debug().Err(err).Msg("follow-up generation failed, using heuristics")
		return heuristicFollowUps(core, hindi)
	}
	out := parseFollowUps(raw)
	if len(out) == 0 {
		return heuristicFollowUps(core, hindi)
	}
	return out
}

// parseFollowUps accepts a JSON string array, possibly fenced, or a
// line-per-suggestion fallback, then sanitizes the entries.
func parseFollowUps(raw string) []string {
	var items []string
	if payload := extractJSONArray(raw); payload != "" {
		if err := json.Unmarshal([]byte(payload), &items); err != nil {
			items = nil
		}
	}
	if items == nil {
		for _, line := range strings.Split(raw, "\n") {
			if s := strings.TrimSpace(line); s != "" && !strings.HasPrefix(s, "```") {
				items = append(items, s)
			}
		}
	}

	seen := map[string]struct{}{}
	var out []string
	for _, item := range items {
		s := strings.TrimSpace(item)
		s = bulletRe.ReplaceAllString(s, "")
		s = strings.Trim(s, `"'`)
		s = strings.TrimSpace(s)
		if s == "" || len(s) > maxFollowUpLen {
			continue
		}
		key := strings.ToLower(s)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
		if len(out) == maxFollowUps {
			break
		}
	}
	return out
}
