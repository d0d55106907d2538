// Package ask orchestrates the question-answering pipeline: intent
// shortcuts, web evidence gathering, grounded composition, citation
// verification, and follow-up generation.
package ask

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noliahq/noliad/internal/httperr"
	"github.com/noliahq/noliad/internal/llm"
	"github.com/noliahq/noliad/internal/planner"
	"github.com/noliahq/noliad/internal/search"
)

// Request is the validated ask payload.
type Request struct {
	Question     string `json:"question" validate:"required,max=2000"`
	Model        string `json:"model,omitempty" validate:"omitempty,max=200"`
	Mode         string `json:"mode,omitempty" validate:"omitempty,oneof=fast verified"`
	Language     string `json:"language,omitempty" validate:"omitempty,oneof=auto en hi"`
	Style        string `json:"style,omitempty" validate:"omitempty,oneof=Concise Balanced Detailed Creative"`
	UseWeb       *bool  `json:"useWeb,omitempty"`
	WebTopic     string `json:"webTopic,omitempty" validate:"omitempty,oneof=general news finance"`
	WebTimeRange string `json:"webTimeRange,omitempty" validate:"omitempty,oneof=day week month year d w m y"`
}

// Normalize trims the question and fills defaulted fields. Call before
// validation so an all-whitespace question fails the required rule.
func (r *Request) Normalize() {
	r.Question = strings.TrimSpace(r.Question)
	if r.Mode == "" {
		r.Mode = "verified"
	}
	if r.Language == "" {
		r.Language = "auto"
	}
	if r.Style == "" {
		r.Style = "Balanced"
	}
	if r.UseWeb == nil {
		t := true
		r.UseWeb = &t
	}
}

// Citation is one source actually referenced by the answer.
type Citation struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// Response is the ask result.
type Response struct {
	Provider  string     `json:"provider"`
	Model     string     `json:"model"`
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations"`
	FollowUps []string   `json:"followUps"`
	LatencyMs int64      `json:"latencyMs"`
}

// Chatter is the LLM surface the pipeline consumes.
type Chatter interface {
	Chat(ctx context.Context, req llm.Request) (string, error)
}

// ModelLister enumerates fallback model ids.
type ModelLister interface {
	FreeModels(ctx context.Context) ([]string, error)
}

// PageFetcher retrieves readable text for one URL.
type PageFetcher interface {
	PageText(ctx context.Context, rawURL string) (string, error)
}

// Pipeline wires the ask dependencies. All fields except LLM are optional;
// absent search providers or fetcher simply yield less evidence.
type Pipeline struct {
	LLM     Chatter
	Models  ModelLister
	Brave   search.Provider
	Tavily  search.Provider
	Fetcher PageFetcher

	DefaultModel string
	// HaveLLMKey gates the pipeline; shortcuts still answer without it.
	HaveLLMKey bool

	Log zerolog.Logger
	Now func() time.Time
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Answer runs the full pipeline for one request.
func (p *Pipeline) Answer(ctx context.Context, req Request) (Response, error) {
	start := p.now()
	req.Normalize()
	hindi := req.Language == "hi" || (req.Language == "auto" && looksHindi(req.Question))

	// Both shortcuts return before any outbound call.
	if isTimeQuestion(req.Question) {
		core := planner.Build(req.Question, false).Core
		return p.finish(start, Response{
			Provider:  "openrouter",
			Model:     "local-clock",
			Answer:    clockAnswer(p.now(), hindi),
			Citations: []Citation{},
			FollowUps: heuristicFollowUps(core, hindi),
		}), nil
	}
	if reason := safetyClass(req.Question); reason != "" {
		return p.finish(start, Response{
			Provider:  "openrouter",
			Model:     "policy-" + reason,
			Answer:    refusalAnswer(hindi),
			Citations: []Citation{},
			FollowUps: safetyFollowUps(hindi),
		}), nil
	}

	if !p.HaveLLMKey {
		return Response{}, httperr.Misconfigured("llm api key is not configured")
	}
	model, err := p.pickModel(ctx, req.Model)
	if err != nil {
		return Response{}, err
	}

	verified := req.Mode == "verified"
	plan := planner.Build(req.Question, verified)

	var sources []Source
	if *req.UseWeb {
		sources = p.gatherEvidence(ctx, plan, req)
	}

	answer, err := p.compose(ctx, model, req, plan, sources, hindi)
	if err != nil {
		return Response{}, err
	}

	if verified && len(sources) > 0 {
		answer = p.verifyCitations(ctx, model, req, sources, answer, hindi)
	}
	answer, _ = sanitizeCitations(answer, len(sources))

	resp := Response{
		Provider:  "openrouter",
		Model:     model,
		Answer:    answer,
		Citations: mapCitations(answer, sources),
		FollowUps: p.followUps(ctx, model, req.Question, answer, plan.Core, hindi),
	}
	return p.finish(start, resp), nil
}

func (p *Pipeline) finish(start time.Time, resp Response) Response {
	if resp.Citations == nil {
		resp.Citations = []Citation{}
	}
	resp.LatencyMs = p.now().Sub(start).Milliseconds()
	if resp.LatencyMs < 0 {
		resp.LatencyMs = 0
	}
	return resp
}

// pickModel resolves the model id: explicit, configured default, then the
// first free catalog entry.
func (p *Pipeline) pickModel(ctx context.Context, requested string) (string, error) {
	if requested != "" {
		return requested, nil
	}
	if p.DefaultModel != "" {
		return p.DefaultModel, nil
	}
	if p.Models != nil {
		models, err := p.Models.FreeModels(ctx)
		if err == nil && len(models) > 0 {
			return models[0], nil
		}
		if err != nil {
			p.Log.Warn().Err(err).Msg("model catalog lookup failed")
		}
	}
	return "", httperr.NoModelAvailable()
}
