package formatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/ad-creative-agent/internal/config"
	"github.com/BerylCAtieno/ad-creative-agent/internal/models"
)

func TestFormatter_Format(t *testing.T) {
	product := map[string]any{"name": "Ultra X", "tags": []any{"new"}}

	t.Run("Should return the error shape for empty variants", func(t *testing.T) {
		f := New("")

		for _, res := range []*models.GenerationResult{nil, {}, {Variants: []models.Variant{}}} {
			out := f.Format(res, "vk", product)

			require.NotNil(t, out)
			assert.False(t, out.Succeeded())
			assert.Equal(t, FailureMessage, out.Text)
			assert.Equal(t, config.PlaceholderImageURL, out.ImageURL)
			assert.Empty(t, out.Channel)
			assert.Nil(t, out.Product)
		}
	})

	t.Run("Should return every variant unmodified and in order", func(t *testing.T) {
		variants := []models.Variant{
			{Headline: "One", Text: "first", CTA: "Buy"},
			{Headline: "Two", Text: "second", Notes: "n"},
			{},
		}

		out := New("").Format(&models.GenerationResult{Variants: variants}, "telegram", product)

		require.True(t, out.Succeeded())
		assert.Equal(t, variants, out.Variants)
		assert.Equal(t, "telegram", out.Channel)
		assert.Equal(t, config.PlaceholderImageURL, out.ImageURL)
		assert.Equal(t, product, out.Product)
		assert.Empty(t, out.Text)
	})

	t.Run("Should use a configured image URL", func(t *testing.T) {
		out := New("https://cdn.example.com/banner.png").Format(nil, "", nil)
		assert.Equal(t, "https://cdn.example.com/banner.png", out.ImageURL)
	})
}
