// Package enrich asks an OpenAI chat model which skills a job title implies
// and uses the answer as the record's skills text.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gpt "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Manikandan-9/Job-Posting-Classification-Based/internal/listing"
	"github.com/Manikandan-9/Job-Posting-Classification-Based/internal/normalize"
)

const systemMessage = "You classify job postings. Given a job title, list the concrete skills, " +
	"tools and technologies the role most likely requires. Use short canonical names " +
	"(for example \"python\", \"accounting\", \"forklift operation\"). Never invent an employer or " +
	"location. Return an empty list when the title gives no hint."

var ErrMissingAPIKey = errors.New("enrich: api key is required")

// TitleSkills is the structured answer expected for one title.
type TitleSkills struct {
	Skills []string `json:"skills" jsonschema_description:"Skills, tools and technologies implied by the job title, most specific first"`
}

// DefaultRequestsPerSecond paces calls to stay clear of the API rate limits.
const DefaultRequestsPerSecond = 2

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	// RequestsPerSecond caps the call rate; zero or less means unlimited.
	RequestsPerSecond float64
}

type Enricher struct {
	client  *gpt.Client
	model   string
	schema  *jsonschema.Definition
	limiter *rate.Limiter
	log     *zap.Logger
}

func New(cfg Config, logger *zap.Logger) (*Enricher, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		return nil, errors.New("enrich: model is required")
	}
	schema, err := jsonschema.GenerateSchemaForType(TitleSkills{})
	if err != nil {
		return nil, fmt.Errorf("enrich: generate schema: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientCfg := gpt.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Enricher{
		client:  gpt.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		schema:  schema,
		limiter: rate.NewLimiter(limit, 1),
		log:     logger,
	}, nil
}

// Enrich returns a copy of ds whose skills come from the model. A record the
// model has nothing to say about keeps its skills. The first API error aborts.
func (e *Enricher) Enrich(ctx context.Context, ds listing.Dataset) (listing.Dataset, error) {
	out := ds.Clone()
	for i := range out {
		skills, err := e.SkillsFor(ctx, out[i].Title)
		if err != nil {
			return nil, fmt.Errorf("enrich %q: %w", out[i].Title, err)
		}
		if len(skills) == 0 {
			e.log.Debug("no skills suggested", zap.String("title", out[i].Title))
			continue
		}
		out[i].Skills = normalize.Lower(strings.Join(skills, " "))
	}
	return out, nil
}

// SkillsFor asks the model about a single title.
func (e *Enricher) SkillsFor(ctx context.Context, title string) ([]string, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	res, err := e.client.CreateChatCompletion(ctx, gpt.ChatCompletionRequest{
		Model: e.model,
		Messages: []gpt.ChatCompletionMessage{
			{Role: gpt.ChatMessageRoleSystem, Content: systemMessage},
			{Role: gpt.ChatMessageRoleUser, Content: title},
		},
		ResponseFormat: &gpt.ChatCompletionResponseFormat{
			Type: gpt.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &gpt.ChatCompletionResponseFormatJSONSchema{
				Name:   "title_skills",
				Schema: e.schema,
				Strict: true,
			},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(res.Choices) == 0 {
		return nil, nil
	}

	var answer TitleSkills
	if err := e.schema.Unmarshal(res.Choices[0].Message.Content, &answer); err != nil {
		return nil, fmt.Errorf("decode answer: %w", err)
	}
	skills := answer.Skills[:0]
	for _, s := range answer.Skills {
		if s = strings.TrimSpace(s); s != "" {
			skills = append(skills, s)
		}
	}
	return skills, nil
}
