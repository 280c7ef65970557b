package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/BerylCAtieno/ad-creative-agent/internal/config"
	"github.com/BerylCAtieno/ad-creative-agent/internal/logger"
	"github.com/BerylCAtieno/ad-creative-agent/internal/models"
)

// LangChainGenerator drives any langchaingo model: the OpenAI-compatible
// Mistral and OpenAI backends as well as the stub.
type LangChainGenerator struct {
	model       llms.Model
	temperature float64
	maxTokens   int
	timeout     time.Duration
	jsonMode    bool
}

func NewLangChainGenerator(model llms.Model, cfg config.LLMConfig) *LangChainGenerator {
	return &LangChainGenerator{
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
	}
}

func (g *LangChainGenerator) Generate(ctx context.Context, payload *models.Payload) (*models.GenerationResult, error) {
	prompt, err := buildPrompt(payload)
	if err != nil {
		return nil, err
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	}
	opts := []llms.CallOption{llms.WithTemperature(g.temperature)}
	if g.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(g.maxTokens))
	}
	if g.jsonMode {
		opts = append(opts, llms.WithJSONMode())
	}

	start := time.Now()
	resp, err := g.model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationCall, err)
	}
	logger.Log.Debugf("generation call finished in %s", time.Since(start))

	if resp == nil || len(resp.Choices) == 0 {
		return &models.GenerationResult{}, nil
	}
	return parseVariants(resp.Choices[0].Content)
}

func (g *LangChainGenerator) Close() error {
	return nil
}
