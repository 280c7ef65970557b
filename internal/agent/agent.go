// Package agent holds the A2A agent card served at /.well-known/agent.json.
package agent

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

//go:embed agent.json
var rawCard []byte

// AgentCardData is the compacted card, set by LoadAgentCard.
var AgentCardData []byte

// Card lists the fields clients rely on.
type Card struct {
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	URL          string         `json:"url"`
	Version      string         `json:"version"`
	Capabilities map[string]any `json:"capabilities"`
	Endpoints    map[string]any `json:"endpoints"`
}

var (
	loadOnce sync.Once
	loadErr  error
)

// LoadAgentCard validates the embedded card once and publishes it in
// AgentCardData.
func LoadAgentCard() error {
	loadOnce.Do(func() {
		var data []byte
		data, loadErr = parseCard(rawCard)
		if loadErr == nil {
			AgentCardData = data
		}
	})
	return loadErr
}

func parseCard(raw []byte) ([]byte, error) {
	var card Card
	if err := json.Unmarshal(raw, &card); err != nil {
		return nil, fmt.Errorf("invalid agent card: %w", err)
	}
	switch {
	case card.Name == "":
		return nil, errors.New("agent card has no name")
	case card.Version == "":
		return nil, errors.New("agent card has no version")
	case card.Capabilities == nil:
		return nil, errors.New("agent card has no capabilities")
	case card.Endpoints == nil:
		return nil, errors.New("agent card has no endpoints")
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, fmt.Errorf("invalid agent card: %w", err)
	}
	return buf.Bytes(), nil
}
