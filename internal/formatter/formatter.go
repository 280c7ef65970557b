package formatter

import (
	"github.com/BerylCAtieno/ad-creative-agent/internal/config"
	"github.com/BerylCAtieno/ad-creative-agent/internal/models"
)

// FailureMessage is shown when the generation call produced no variants.
const FailureMessage = "Failed to generate creatives. Please try again."

// Formatter reshapes a generation result into a display-ready Result.
type Formatter struct {
	imageURL string
}

// New returns a Formatter that attaches imageURL to every result. An empty
// imageURL selects config.PlaceholderImageURL.
func New(imageURL string) *Formatter {
	if imageURL == "" {
		imageURL = config.PlaceholderImageURL
	}
	return &Formatter{imageURL: imageURL}
}

// Format never fails: a missing or empty variant list yields the error shape.
// Variants are passed through unmodified and in order.
func (f *Formatter) Format(result *models.GenerationResult, channel string, product map[string]any) *models.Result {
	if result == nil || len(result.Variants) == 0 {
		return &models.Result{
			Text:     FailureMessage,
			ImageURL: f.imageURL,
		}
	}

	return &models.Result{
		Variants: result.Variants,
		Channel:  channel,
		ImageURL: f.imageURL,
		Product:  product,
	}
}
