package analyst

import (
	"context"
	"fmt"
	"strings"

	"marketpulse/internal/domain"
	"marketpulse/internal/retry"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// LLMClient abstracts the OpenAI chat completions API for testability.
type LLMClient interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// Analyst turns a market snapshot into natural-language commentary via a
// single chat-completion call per attempt. Every cycle issues a fresh call
// even for an unchanged snapshot: freshness is preferred over cost.
type Analyst struct {
	tracer    trace.Tracer
	llm       LLMClient
	model     string
	maxTokens int64
	policy    retry.Policy
	logger    zerolog.Logger
}

func NewAnalyst(tracer trace.Tracer, llm LLMClient, model string, maxTokens int64, policy retry.Policy) *Analyst {
	if maxTokens <= 0 {
		maxTokens = 1500
	}
	return &Analyst{
		tracer:    tracer,
		llm:       llm,
		model:     model,
		maxTokens: maxTokens,
		policy:    policy,
		logger:    log.With().Str("component", "analyst").Logger(),
	}
}

// Generate produces commentary for the snapshot. Any call-level error,
// including an empty or malformed completion, counts as a retryable failure.
func (a *Analyst) Generate(ctx context.Context, snapshot *domain.MarketSnapshot) (string, error) {
	ctx, span := a.tracer.Start(ctx, "analyst.generate")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", a.model))

	prompt := BuildPrompt(snapshot)

	var analysis string
	attempt := 0
	err := retry.Do(ctx, a.policy, func() error {
		attempt++
		completion, err := a.llm.CreateChatCompletion(ctx, openai.ChatCompletionNewParams{
			Model:     a.model,
			MaxTokens: openai.Int(a.maxTokens),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(prompt),
			},
		})
		if err != nil {
			a.logger.Warn().Int("attempt", attempt).Err(err).Msg("analysis generation failed")
			return err
		}
		if len(completion.Choices) == 0 || strings.TrimSpace(completion.Choices[0].Message.Content) == "" {
			a.logger.Warn().Int("attempt", attempt).Msg("empty completion response")
			return fmt.Errorf("empty completion response")
		}
		analysis = completion.Choices[0].Message.Content
		a.logger.Info().Int("attempt", attempt).Int("length", len(analysis)).Msg("analysis generated")
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	span.SetAttributes(attribute.Int("llm.reply_length", len(analysis)))
	return analysis, nil
}

// openaiClient wraps the official SDK's chat completions service.
type openaiClient struct {
	client openai.Client
}

func NewOpenAIClient(apiKey string) LLMClient {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &openaiClient{client: client}
}

func (c *openaiClient) CreateChatCompletion(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}
