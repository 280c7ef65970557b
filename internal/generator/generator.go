// Package generator is the LLM-backed collaborator that turns a payload into
// ad-copy variants.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms/openai"

	"github.com/BerylCAtieno/ad-creative-agent/internal/config"
	"github.com/BerylCAtieno/ad-creative-agent/internal/models"
)

var (
	// ErrClientConfig reports a backend that could not be constructed,
	// typically because a credential is missing.
	ErrClientConfig = errors.New("generation client configuration error")
	// ErrGenerationCall reports a failure of the generation call itself.
	ErrGenerationCall = errors.New("generation call failed")
)

const (
	ProviderMistral = "mistral"
	ProviderOpenAI  = "openai"
	ProviderGemini  = "gemini"
	ProviderStub    = "stub"
)

const (
	mistralBaseURL      = "https://api.mistral.ai/v1"
	defaultMistralModel = "mistral-small-latest"
	defaultOpenAIModel  = "gpt-4o-mini"
	defaultGeminiModel  = "gemini-2.5-flash-lite"
)

// Generator produces variants for a payload. Each call is a single request
// to the backend; there is no retry.
type Generator interface {
	Generate(ctx context.Context, payload *models.Payload) (*models.GenerationResult, error)
	Close() error
}

// Factory builds a Generator. It matches the signature of New.
type Factory func(ctx context.Context, cfg config.LLMConfig, useReal bool) (Generator, error)

// New builds the generator selected by cfg.Provider, or the stub when
// useReal is false. Construction problems are wrapped in ErrClientConfig.
func New(ctx context.Context, cfg config.LLMConfig, useReal bool) (Generator, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if !useReal || provider == ProviderStub {
		return NewLangChainGenerator(NewStubLLM(), cfg), nil
	}

	switch provider {
	case "", ProviderMistral:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: %s is not set", ErrClientConfig, config.APIKeyEnv(ProviderMistral))
		}
		baseURL := mistralBaseURL
		if cfg.BaseURL != "" {
			baseURL = cfg.BaseURL
		}
		return newOpenAICompatible(cfg, baseURL, defaultMistralModel)

	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: %s is not set", ErrClientConfig, config.APIKeyEnv(ProviderOpenAI))
		}
		return newOpenAICompatible(cfg, cfg.BaseURL, defaultOpenAIModel)

	case ProviderGemini:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: %s is not set", ErrClientConfig, config.APIKeyEnv(ProviderGemini))
		}
		model := cfg.Model
		if model == "" {
			model = defaultGeminiModel
		}
		client, err := NewGeminiClient(ctx, cfg.APIKey, model, cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrClientConfig, err)
		}
		return client, nil

	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrClientConfig, cfg.Provider)
	}
}

func newOpenAICompatible(cfg config.LLMConfig, baseURL, defaultModel string) (Generator, error) {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	opts := []openai.Option{
		openai.WithModel(model),
		openai.WithToken(cfg.APIKey),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClientConfig, err)
	}
	g := NewLangChainGenerator(llm, cfg)
	g.jsonMode = true
	return g, nil
}
