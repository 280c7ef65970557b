package agent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAgentCard(t *testing.T) {
	require.NoError(t, LoadAgentCard())
	require.NotEmpty(t, AgentCardData)

	var card map[string]any
	require.NoError(t, json.Unmarshal(AgentCardData, &card))
	for _, field := range []string{"name", "description", "version", "capabilities", "endpoints"} {
		assert.Contains(t, card, field)
	}
	assert.Equal(t, "/a2a/creatives", card["endpoints"].(map[string]any)["a2a"])
}

func TestParseCard(t *testing.T) {
	t.Run("Should reject invalid JSON", func(t *testing.T) {
		_, err := parseCard([]byte(`{`))
		assert.Error(t, err)
	})

	t.Run("Should require the mandatory fields", func(t *testing.T) {
		_, err := parseCard([]byte(`{"name":"x","version":"1","capabilities":{}}`))
		assert.EqualError(t, err, "agent card has no endpoints")

		_, err = parseCard([]byte(`{"version":"1"}`))
		assert.EqualError(t, err, "agent card has no name")
	})

	t.Run("Should compact the card", func(t *testing.T) {
		out, err := parseCard([]byte("{\n  \"name\": \"x\",\n  \"version\": \"1\",\n  \"capabilities\": {},\n  \"endpoints\": {}\n}"))
		require.NoError(t, err)
		assert.Equal(t, `{"name":"x","version":"1","capabilities":{},"endpoints":{}}`, string(out))
	})
}
