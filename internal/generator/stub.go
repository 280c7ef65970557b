package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/BerylCAtieno/ad-creative-agent/internal/models"
)

// StubLLM is an offline llms.Model. It reads the campaign brief out of the
// prompt and answers with predictable variants in the same JSON format a
// real model is asked for.
type StubLLM struct{}

func NewStubLLM() *StubLLM {
	return &StubLLM{}
}

var (
	stubHeadlines = []string{"Meet %s", "%s is finally here", "Why everyone is talking about %s"}
	stubCTAs      = []string{"Buy now", "Learn more", "Order today"}
)

func (m *StubLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var prompt strings.Builder
	for _, msg := range messages {
		if msg.Role != schema.ChatMessageTypeHuman {
			continue
		}
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				prompt.WriteString(text.Text)
			}
		}
	}

	payload, err := briefFromPrompt(prompt.String())
	if err != nil {
		return nil, err
	}

	reply, err := json.Marshal(models.GenerationResult{Variants: stubVariants(payload)})
	if err != nil {
		return nil, err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: string(reply)}},
	}, nil
}

func (m *StubLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func briefFromPrompt(prompt string) (*models.Payload, error) {
	idx := strings.LastIndex(prompt, briefMarker)
	if idx < 0 {
		return nil, fmt.Errorf("stub: prompt carries no campaign brief")
	}
	var payload models.Payload
	if err := json.Unmarshal([]byte(prompt[idx+len(briefMarker):]), &payload); err != nil {
		return nil, fmt.Errorf("stub: decode campaign brief: %w", err)
	}
	return &payload, nil
}

func stubVariants(p *models.Payload) []models.Variant {
	name, _ := p.Product["name"].(string)
	if name == "" {
		name = "our product"
	}
	category, _ := p.Product["category"].(string)

	var features []string
	if list, ok := p.Product["features"].([]any); ok {
		for _, f := range list {
			if s, ok := f.(string); ok && s != "" {
				features = append(features, s)
			}
		}
	}

	variants := make([]models.Variant, 0, p.NVariants)
	for i := 0; i < p.NVariants; i++ {
		var text strings.Builder
		text.WriteString(name)
		if category != "" {
			fmt.Fprintf(&text, " (%s)", category)
		}
		if len(features) > 0 {
			fmt.Fprintf(&text, ": %s", features[i%len(features)])
		}
		text.WriteString(".")
		if len(p.Trends) > 0 {
			fmt.Fprintf(&text, " Trend: %v.", p.Trends[i%len(p.Trends)])
		}

		notes := fmt.Sprintf("stub variant %d for %s", i+1, p.Channel)
		if p.UserInstructions != "" {
			notes += "; instructions: " + p.UserInstructions
		}

		variants = append(variants, models.Variant{
			Headline: fmt.Sprintf(stubHeadlines[i%len(stubHeadlines)], name),
			Text:     text.String(),
			CTA:      stubCTAs[i%len(stubCTAs)],
			Notes:    notes,
		})
	}
	return variants
}
