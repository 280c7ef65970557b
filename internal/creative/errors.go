package creative

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/BerylCAtieno/ad-creative-agent/internal/config"
	"github.com/BerylCAtieno/ad-creative-agent/internal/generator"
	"github.com/BerylCAtieno/ad-creative-agent/internal/normalizer"
)

// UserMessage converts any error returned by Service into the text shown to
// the user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, normalizer.ErrMalformedJSON), errors.Is(err, normalizer.ErrInvalidInputShape):
		return fmt.Sprintf("Could not read JSON: %v", err)
	case errors.Is(err, normalizer.ErrEmptyInput):
		return "The JSON input contains no records."
	case errors.Is(err, generator.ErrClientConfig):
		return fmt.Sprintf("LLM client initialization failed: %v", err)
	case errors.Is(err, generator.ErrGenerationCall):
		return fmt.Sprintf("Generation failed: %v", err)
	default:
		return fmt.Sprintf("Unexpected error: %v", err)
	}
}

// Hint returns an optional follow-up for err, such as which credential to set.
func Hint(err error, provider string, useReal bool) string {
	if useReal && errors.Is(err, generator.ErrClientConfig) {
		return fmt.Sprintf("Make sure the %s environment variable is set, or switch to the stub backend.", config.APIKeyEnv(providerOrDefault(provider)))
	}
	return ""
}

// HTTPStatus maps err to the status code of the JSON API.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, normalizer.ErrMalformedJSON):
		return http.StatusBadRequest
	case errors.Is(err, normalizer.ErrInvalidInputShape), errors.Is(err, normalizer.ErrEmptyInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, generator.ErrClientConfig):
		return http.StatusServiceUnavailable
	case errors.Is(err, generator.ErrGenerationCall):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func providerOrDefault(provider string) string {
	if provider == "" {
		return generator.ProviderMistral
	}
	return provider
}
