package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/ad-creative-agent/internal/models"
)

func TestParseVariants(t *testing.T) {
	t.Run("Should decode a fenced JSON envelope", func(t *testing.T) {
		reply := "```json\n{\"variants\":[{\"headline\":\"H\",\"text\":\"T\",\"cta\":\"C\",\"notes\":\"N\"}]}\n```"

		res, err := parseVariants(reply)
		require.NoError(t, err)
		assert.Equal(t, []models.Variant{{Headline: "H", Text: "T", CTA: "C", Notes: "N"}}, res.Variants)
	})

	t.Run("Should ignore chatter around the object", func(t *testing.T) {
		res, err := parseVariants("Sure! Here you go: {\"variants\":[{\"headline\":\"H\"}]} Enjoy.")
		require.NoError(t, err)
		require.Len(t, res.Variants, 1)
		assert.Equal(t, "H", res.Variants[0].Headline)
		assert.Empty(t, res.Variants[0].Notes)
	})

	t.Run("Should accept a bare array", func(t *testing.T) {
		res, err := parseVariants(`[{"headline":"A"},{"headline":"B"}]`)
		require.NoError(t, err)
		require.Len(t, res.Variants, 2)
		assert.Equal(t, "B", res.Variants[1].Headline)
	})

	t.Run("Should stringify non-string fields", func(t *testing.T) {
		res, err := parseVariants(`{"variants":[{"headline":42,"notes":["short","bold"],"cta":true}]}`)
		require.NoError(t, err)
		assert.Equal(t, models.Variant{Headline: "42", CTA: "true", Notes: "short; bold"}, res.Variants[0])
	})

	t.Run("Should return an empty result for a blank reply", func(t *testing.T) {
		res, err := parseVariants("  ``` ```  ")
		require.NoError(t, err)
		assert.Empty(t, res.Variants)
	})

	t.Run("Should return an empty result when variants are missing", func(t *testing.T) {
		res, err := parseVariants(`{"something":"else"}`)
		require.NoError(t, err)
		assert.Empty(t, res.Variants)
	})

	t.Run("Should fail on an unreadable reply", func(t *testing.T) {
		_, err := parseVariants("I cannot help with that.")
		assert.ErrorIs(t, err, ErrGenerationCall)
	})
}
