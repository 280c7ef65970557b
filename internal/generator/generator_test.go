package generator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/BerylCAtieno/ad-creative-agent/internal/config"
	"github.com/BerylCAtieno/ad-creative-agent/internal/models"
)

// recordingLLM captures the request and replies with a canned answer.
type recordingLLM struct {
	reply    string
	err      error
	messages []llms.MessageContent
	deadline bool
}

func (m *recordingLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	m.messages = messages
	_, m.deadline = ctx.Deadline()
	if m.err != nil {
		return nil, m.err
	}
	if m.reply == "" {
		return &llms.ContentResponse{}, nil
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func (m *recordingLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func testPayload() *models.Payload {
	return &models.Payload{
		Product:          map[string]any{"name": "Ultra X", "category": "smartphone", "features": []any{"AMOLED 120 Hz", "50 MP camera"}},
		AudienceProfile:  map[string]any{"age_range": "20-35"},
		Channel:          "telegram",
		Trends:           []any{"minimalism", "FOMO"},
		NVariants:        3,
		UserInstructions: "no hard selling",
	}
}

func humanText(t *testing.T, messages []llms.MessageContent) string {
	t.Helper()
	for _, msg := range messages {
		if msg.Role == schema.ChatMessageTypeHuman {
			return msg.Parts[0].(llms.TextContent).Text
		}
	}
	t.Fatal("no human message")
	return ""
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("Should build the stub when the real backend is off", func(t *testing.T) {
		g, err := New(ctx, config.LLMConfig{Provider: ProviderMistral}, false)
		require.NoError(t, err)
		defer g.Close()

		lc, ok := g.(*LangChainGenerator)
		require.True(t, ok)
		assert.IsType(t, &StubLLM{}, lc.model)
	})

	t.Run("Should require credentials for real backends", func(t *testing.T) {
		for _, provider := range []string{"", ProviderMistral, ProviderOpenAI, ProviderGemini} {
			_, err := New(ctx, config.LLMConfig{Provider: provider}, true)
			assert.ErrorIs(t, err, ErrClientConfig, provider)
		}
	})

	t.Run("Should name the missing variable", func(t *testing.T) {
		_, err := New(ctx, config.LLMConfig{Provider: ProviderMistral}, true)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MISTRAL_API_KEY")
	})

	t.Run("Should reject an unknown provider", func(t *testing.T) {
		_, err := New(ctx, config.LLMConfig{Provider: "carrier-pigeon", APIKey: "k"}, true)
		assert.ErrorIs(t, err, ErrClientConfig)
	})

	t.Run("Should build the Mistral backend with a key", func(t *testing.T) {
		g, err := New(ctx, config.LLMConfig{Provider: ProviderMistral, APIKey: "test-key"}, true)
		require.NoError(t, err)
		lc, ok := g.(*LangChainGenerator)
		require.True(t, ok)
		assert.True(t, lc.jsonMode)
	})
}

func TestLangChainGenerator_Generate(t *testing.T) {
	t.Run("Should send the brief and parse the reply", func(t *testing.T) {
		llm := &recordingLLM{reply: `{"variants":[{"headline":"H1"},{"headline":"H2"}]}`}
		g := NewLangChainGenerator(llm, config.LLMConfig{Temperature: 0.5, Timeout: time.Minute})

		res, err := g.Generate(context.Background(), testPayload())
		require.NoError(t, err)

		require.Len(t, res.Variants, 2)
		assert.Equal(t, "H2", res.Variants[1].Headline)
		assert.True(t, llm.deadline)

		prompt := humanText(t, llm.messages)
		assert.Contains(t, prompt, `Write 3 distinct advertising creatives for the "telegram" channel.`)
		assert.Contains(t, prompt, "no hard selling")
		assert.Contains(t, prompt, `"name": "Ultra X"`)
	})

	t.Run("Should wrap backend failures", func(t *testing.T) {
		g := NewLangChainGenerator(&recordingLLM{err: errors.New("429 too many requests")}, config.LLMConfig{})

		_, err := g.Generate(context.Background(), testPayload())
		require.ErrorIs(t, err, ErrGenerationCall)
		assert.Contains(t, err.Error(), "429")
	})

	t.Run("Should return an empty result when the model has no choices", func(t *testing.T) {
		g := NewLangChainGenerator(&recordingLLM{}, config.LLMConfig{})

		res, err := g.Generate(context.Background(), testPayload())
		require.NoError(t, err)
		assert.Empty(t, res.Variants)
	})
}

func TestStubLLM(t *testing.T) {
	t.Run("Should produce n_variants variants from the brief", func(t *testing.T) {
		g := NewLangChainGenerator(NewStubLLM(), config.LLMConfig{})

		res, err := g.Generate(context.Background(), testPayload())
		require.NoError(t, err)

		require.Len(t, res.Variants, 3)
		assert.Equal(t, "Meet Ultra X", res.Variants[0].Headline)
		assert.Equal(t, "Ultra X is finally here", res.Variants[1].Headline)
		assert.Equal(t, "Ultra X (smartphone): 50 MP camera. Trend: FOMO.", res.Variants[1].Text)
		assert.Equal(t, "Order today", res.Variants[2].CTA)
		assert.True(t, strings.HasSuffix(res.Variants[0].Notes, "instructions: no hard selling"))
	})

	t.Run("Should fail without a brief", func(t *testing.T) {
		_, err := llms.GenerateFromSinglePrompt(context.Background(), NewStubLLM(), "hello")
		assert.Error(t, err)
	})

	t.Run("Should honour a cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewLangChainGenerator(NewStubLLM(), config.LLMConfig{}).Generate(ctx, testPayload())
		assert.ErrorIs(t, err, context.Canceled)
	})
}
