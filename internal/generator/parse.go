package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BerylCAtieno/ad-creative-agent/internal/models"
)

// parseVariants decodes the model's reply. Blank replies yield an empty result;
// unreadable replies are an ErrGenerationCall.
func parseVariants(text string) (*models.GenerationResult, error) {
	clean := stripCodeFence(text)
	if clean == "" {
		return &models.GenerationResult{}, nil
	}

	var raw []map[string]any
	if strings.HasPrefix(clean, "[") {
		if err := json.Unmarshal([]byte(clean), &raw); err != nil {
			return nil, fmt.Errorf("%w: unreadable model reply: %w", ErrGenerationCall, err)
		}
	} else {
		var envelope struct {
			Variants []map[string]any `json:"variants"`
		}
		if err := json.Unmarshal([]byte(extractObject(clean)), &envelope); err != nil {
			return nil, fmt.Errorf("%w: unreadable model reply: %w", ErrGenerationCall, err)
		}
		raw = envelope.Variants
	}

	result := &models.GenerationResult{Variants: make([]models.Variant, 0, len(raw))}
	for _, v := range raw {
		result.Variants = append(result.Variants, models.Variant{
			Headline: stringField(v, "headline"),
			Text:     stringField(v, "text"),
			CTA:      stringField(v, "cta"),
			Notes:    stringField(v, "notes"),
		})
	}
	return result, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// extractObject trims chatter around the outermost JSON object.
func extractObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

// stringField reads a free-form field; lists are joined and other values are
// printed.
func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, "; ")
	default:
		return fmt.Sprint(v)
	}
}
