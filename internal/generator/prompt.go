package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BerylCAtieno/ad-creative-agent/internal/models"
)

const systemPrompt = "You are a senior performance-marketing copywriter. You answer with JSON only, without markdown or commentary."

// briefMarker precedes the JSON brief, which is always the last section of
// the prompt.
const briefMarker = "Campaign brief (JSON):\n"

func buildPrompt(payload *models.Payload) (string, error) {
	brief, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode campaign brief: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Write %d distinct advertising creatives for the %q channel.\n\n", payload.NVariants, payload.Channel)
	sb.WriteString("Use the product, audience profile and trends from the brief below. ")
	sb.WriteString("Match the tone and length to the channel. Do not invent product features that are not in the brief.\n")
	if payload.UserInstructions != "" {
		fmt.Fprintf(&sb, "\nAdditional instructions from the marketer:\n%s\n", payload.UserInstructions)
	}
	sb.WriteString(`
Return a single JSON object in exactly this format:
{"variants": [{"headline": "short hook", "text": "ad body", "cta": "call to action", "notes": "why this angle fits the audience"}]}

`)
	sb.WriteString(briefMarker)
	sb.Write(brief)
	return sb.String(), nil
}
