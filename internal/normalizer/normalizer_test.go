package normalizer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/ad-creative-agent/internal/config"
	"github.com/BerylCAtieno/ad-creative-agent/internal/models"
)

func newNormalizer() *Normalizer {
	return New(config.DefaultDefaults())
}

func TestParseRecords(t *testing.T) {
	t.Run("Should treat an object as the sole record", func(t *testing.T) {
		records, err := ParseRecords([]byte(`{"name":"Lamp","price":10}`))
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, map[string]any{"name": "Lamp", "price": json.Number("10")}, records[0])
	})

	t.Run("Should return every element of an array", func(t *testing.T) {
		records, err := ParseRecords([]byte(`[{"name":"A"},{"name":"B"},"junk"]`))
		require.NoError(t, err)
		assert.Len(t, records, 3)
	})

	t.Run("Should reject scalar documents", func(t *testing.T) {
		for _, doc := range []string{`"text"`, `42`, `true`, `null`} {
			_, err := ParseRecords([]byte(doc))
			assert.ErrorIs(t, err, ErrInvalidInputShape, doc)
		}
	})

	t.Run("Should report malformed JSON", func(t *testing.T) {
		for _, doc := range []string{``, `{`, `{"a":1} trailing`, `{"a":1}{"b":2}`} {
			_, err := ParseRecords([]byte(doc))
			assert.ErrorIs(t, err, ErrMalformedJSON, doc)
		}
	})

	t.Run("Should accept trailing whitespace", func(t *testing.T) {
		_, err := ParseRecords([]byte("{\"a\":1}\n\n"))
		assert.NoError(t, err)
	})
}

func TestClassify(t *testing.T) {
	t.Run("Should classify by the presence of the product key", func(t *testing.T) {
		assert.Equal(t, "full", models.Shape(Classify(map[string]any{"product": nil})))
		assert.Equal(t, "analyzer", models.Shape(Classify(map[string]any{"name": "Lamp"})))
		assert.Equal(t, "analyzer", models.Shape(Classify(map[string]any{})))
	})
}

func TestNormalizer_Normalize(t *testing.T) {
	t.Run("Should fail with ErrEmptyInput on an empty list", func(t *testing.T) {
		_, err := newNormalizer().NormalizeJSON([]byte(`[]`), "")
		assert.ErrorIs(t, err, ErrEmptyInput)
	})

	t.Run("Should fail when the first element is not an object", func(t *testing.T) {
		_, err := newNormalizer().NormalizeJSON([]byte(`[1, {"product":{}}]`), "")
		assert.ErrorIs(t, err, ErrInvalidInputShape)
	})

	t.Run("Should use only the first record of a list", func(t *testing.T) {
		doc := `[{"product":{"name":"First"},"channel":"vk"},{"product":{"name":"Second"}},42]`

		payload, err := newNormalizer().NormalizeJSON([]byte(doc), "")
		require.NoError(t, err)

		assert.Equal(t, "First", payload.Product["name"])
		assert.Equal(t, "vk", payload.Channel)
	})

	t.Run("Should give the same payload for an object and a one-element list", func(t *testing.T) {
		obj := `{"product":{"name":"X"},"trends":["eco"],"n_variants":2}`
		n := newNormalizer()

		fromObject, err := n.NormalizeJSON([]byte(obj), "")
		require.NoError(t, err)
		fromList, err := n.NormalizeJSON([]byte("["+obj+"]"), "")
		require.NoError(t, err)

		assert.Equal(t, fromObject, fromList)
	})

	t.Run("Should apply full-record fallbacks", func(t *testing.T) {
		payload, err := newNormalizer().NormalizeJSON([]byte(`{"product":{"name":"X","price":100},"channel":"vk"}`), "")
		require.NoError(t, err)

		assert.Equal(t, map[string]any{"name": "X", "price": json.Number("100")}, payload.Product)
		assert.Equal(t, "vk", payload.Channel)
		assert.Equal(t, 3, payload.NVariants)
		assert.Equal(t, map[string]any{}, payload.AudienceProfile)
		assert.Equal(t, []any{}, payload.Trends)
		assert.Empty(t, payload.UserInstructions)
	})

	t.Run("Should fall back on falsy full-record fields", func(t *testing.T) {
		doc := `{"product":null,"audience_profile":{},"channel":"","trends":null,"n_variants":0}`

		payload, err := newNormalizer().NormalizeJSON([]byte(doc), "")
		require.NoError(t, err)

		assert.Equal(t, map[string]any{}, payload.Product)
		assert.Equal(t, map[string]any{}, payload.AudienceProfile)
		assert.Equal(t, "telegram", payload.Channel)
		assert.Equal(t, []any{}, payload.Trends)
		assert.Equal(t, 3, payload.NVariants)
	})

	t.Run("Should copy present full-record fields verbatim", func(t *testing.T) {
		doc := `{
			"product": {"name": "Ultra X", "tags": ["new"]},
			"audience_profile": {"age_range": "18-24"},
			"channel": "instagram",
			"trends": ["FOMO", "retro"],
			"n_variants": 5
		}`

		payload, err := newNormalizer().NormalizeJSON([]byte(doc), "")
		require.NoError(t, err)

		assert.Equal(t, map[string]any{"name": "Ultra X", "tags": []any{"new"}}, payload.Product)
		assert.Equal(t, map[string]any{"age_range": "18-24"}, payload.AudienceProfile)
		assert.Equal(t, "instagram", payload.Channel)
		assert.Equal(t, []any{"FOMO", "retro"}, payload.Trends)
		assert.Equal(t, 5, payload.NVariants)
	})

	t.Run("Should ignore non-integral or mistyped n_variants", func(t *testing.T) {
		for _, v := range []string{`2.5`, `-1`, `"4"`, `true`} {
			payload, err := newNormalizer().NormalizeJSON([]byte(`{"product":{"name":"X"},"n_variants":`+v+`}`), "")
			require.NoError(t, err)
			assert.Equal(t, 3, payload.NVariants, v)
		}
	})

	t.Run("Should cap oversized n_variants", func(t *testing.T) {
		for _, v := range []string{`11`, `5000000`, `2147483647`} {
			payload, err := newNormalizer().NormalizeJSON([]byte(`{"product":{"name":"X"},"n_variants":`+v+`}`), "")
			require.NoError(t, err)
			assert.Equal(t, 10, payload.NVariants, v)
		}

		d := config.DefaultDefaults()
		d.MaxVariants = 4
		payload, err := New(d).NormalizeJSON([]byte(`{"product":{},"n_variants":4}`), "")
		require.NoError(t, err)
		assert.Equal(t, 4, payload.NVariants)
	})

	t.Run("Should build an analyzer payload with defaults", func(t *testing.T) {
		doc := `{"name":"Kettle","category":"kitchen","price":200,"market_cost":100,"description":"Boils fast","tags":["home"]}`

		payload, err := newNormalizer().NormalizeJSON([]byte(doc), "")
		require.NoError(t, err)

		assert.Equal(t, map[string]any{
			"name":     "Kettle",
			"category": "kitchen",
			"price":    json.Number("200"),
			"margin":   MarginHigh,
			"tags":     []any{"home"},
			"features": []any{"Boils fast"},
		}, payload.Product)
		assert.Equal(t, map[string]any{
			"age_range": "20-35",
			"interests": []any{"gadgets", "technology"},
			"behavior":  []any{"responds to discounts"},
		}, payload.AudienceProfile)
		assert.Equal(t, "telegram", payload.Channel)
		assert.Equal(t, []any{"minimalism", "FOMO"}, payload.Trends)
		assert.Equal(t, 3, payload.NVariants)
	})

	t.Run("Should fill missing analyzer fields with empty values", func(t *testing.T) {
		payload, err := newNormalizer().NormalizeJSON([]byte(`{}`), "")
		require.NoError(t, err)

		assert.Equal(t, "", payload.Product["name"])
		assert.Equal(t, "", payload.Product["category"])
		assert.Nil(t, payload.Product["price"])
		assert.Equal(t, MarginMedium, payload.Product["margin"])
		assert.Equal(t, []any{}, payload.Product["tags"])
		assert.Equal(t, []any{""}, payload.Product["features"])
	})

	t.Run("Should use configured defaults", func(t *testing.T) {
		d := config.DefaultDefaults()
		d.Channel = "vk"
		d.Trends = []string{"eco"}
		d.NVariants = 2
		d.Audience.AgeRange = "40-60"

		payload, err := New(d).NormalizeJSON([]byte(`{"name":"Kettle"}`), "")
		require.NoError(t, err)

		assert.Equal(t, "vk", payload.Channel)
		assert.Equal(t, []any{"eco"}, payload.Trends)
		assert.Equal(t, 2, payload.NVariants)
		assert.Equal(t, "40-60", payload.AudienceProfile["age_range"])
	})

	t.Run("Should attach trimmed non-blank instructions only", func(t *testing.T) {
		n := newNormalizer()

		payload, err := n.NormalizeJSON([]byte(`{"product":{}}`), "  focus on camera quality \n")
		require.NoError(t, err)
		assert.Equal(t, "focus on camera quality", payload.UserInstructions)

		payload, err = n.NormalizeJSON([]byte(`{"product":{}}`), " \t\n")
		require.NoError(t, err)
		assert.Empty(t, payload.UserInstructions)
	})
}

func TestMargin(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want string
	}{
		{"equal to the threshold is medium", `{"price":150,"market_cost":100}`, MarginMedium},
		{"above the threshold is high", `{"price":200,"market_cost":100}`, MarginHigh},
		{"just above the threshold is high", `{"price":150.01,"market_cost":100}`, MarginHigh},
		{"missing cost with a price is high", `{"price":10}`, MarginHigh},
		{"missing price is medium", `{"market_cost":10}`, MarginMedium},
		{"numeric strings are read", `{"price":"300","market_cost":"100"}`, MarginHigh},
		{"garbage counts as zero", `{"price":"cheap","market_cost":1}`, MarginMedium},
	}
	for _, tc := range cases {
		t.Run("Should resolve margin when "+tc.name, func(t *testing.T) {
			payload, err := newNormalizer().NormalizeJSON([]byte(tc.doc), "")
			require.NoError(t, err)
			assert.Equal(t, tc.want, payload.Product["margin"])
		})
	}
}

func TestRecordsFromValue(t *testing.T) {
	t.Run("Should accept values decoded without UseNumber", func(t *testing.T) {
		var v any
		require.NoError(t, json.Unmarshal([]byte(`{"product":{"name":"X"},"n_variants":4}`), &v))

		records, err := RecordsFromValue(v)
		require.NoError(t, err)

		payload, err := newNormalizer().Normalize(records, "")
		require.NoError(t, err)
		assert.Equal(t, 4, payload.NVariants)
	})
}
