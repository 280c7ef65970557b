// Package normalizer turns a caller-supplied JSON document into the single
// payload consumed by the generation collaborator.
//
// Two record shapes are accepted. A record holding a "product" key is a full
// record and is copied field by field; any other object is treated as a flat
// product-analyzer record and expanded with configured defaults. Only the
// first record of a list is used.
package normalizer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/BerylCAtieno/ad-creative-agent/internal/config"
	"github.com/BerylCAtieno/ad-creative-agent/internal/models"
)

var (
	ErrInvalidInputShape = errors.New("expected a JSON object or a list of JSON objects")
	ErrMalformedJSON     = errors.New("malformed JSON")
	ErrEmptyInput        = errors.New("input contains no records")
)

// Margin labels. A product is high-margin when its price exceeds the market
// cost by more than highMarginRatio.
const (
	MarginHigh      = "high"
	MarginMedium    = "medium"
	highMarginRatio = 1.5
)

// Normalizer maps records to payloads using a fixed set of defaults.
type Normalizer struct {
	defaults config.Defaults
}

func New(defaults config.Defaults) *Normalizer {
	return &Normalizer{defaults: defaults}
}

// ParseRecords decodes data and returns the records it holds. An object is a
// single record; an array is a list of records. Numbers are kept verbatim.
func ParseRecords(data []byte) ([]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after the top-level value", ErrMalformedJSON)
	}
	return RecordsFromValue(v)
}

// RecordsFromValue applies the object-or-array rule to an already decoded value.
func RecordsFromValue(v any) ([]any, error) {
	switch t := v.(type) {
	case map[string]any:
		return []any{t}, nil
	case []any:
		return t, nil
	default:
		return nil, fmt.Errorf("%w, got %s", ErrInvalidInputShape, jsonType(v))
	}
}

// FirstRecord returns the record that will be normalized. The remaining
// records are not inspected.
func FirstRecord(records []any) (map[string]any, error) {
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}
	first, ok := records[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: first record is %s", ErrInvalidInputShape, jsonType(records[0]))
	}
	return first, nil
}

// Classify sniffs the shape of raw by the presence of the "product" key.
func Classify(raw map[string]any) models.Record {
	if _, ok := raw["product"]; ok {
		return models.FullRecord{
			Product:         raw["product"],
			AudienceProfile: raw["audience_profile"],
			Channel:         raw["channel"],
			Trends:          raw["trends"],
			NVariants:       raw["n_variants"],
		}
	}
	return models.AnalyzerRecord{
		Name:        raw["name"],
		Category:    raw["category"],
		Price:       raw["price"],
		MarketCost:  raw["market_cost"],
		Description: raw["description"],
		Tags:        raw["tags"],
	}
}

// NormalizeJSON parses data and normalizes its first record.
func (n *Normalizer) NormalizeJSON(data []byte, userInstructions string) (*models.Payload, error) {
	records, err := ParseRecords(data)
	if err != nil {
		return nil, err
	}
	return n.Normalize(records, userInstructions)
}

// Normalize builds the payload for the first of records. The variant count is
// capped at Defaults.MaxVariants. Non-blank user instructions are attached
// trimmed.
func (n *Normalizer) Normalize(records []any, userInstructions string) (*models.Payload, error) {
	raw, err := FirstRecord(records)
	if err != nil {
		return nil, err
	}

	var payload *models.Payload
	switch rec := Classify(raw).(type) {
	case models.FullRecord:
		payload = n.fromFull(rec)
	case models.AnalyzerRecord:
		payload = n.fromAnalyzer(rec)
	default:
		return nil, fmt.Errorf("%w: unsupported record %T", ErrInvalidInputShape, rec)
	}

	if limit := n.defaults.MaxVariants; limit > 0 && payload.NVariants > limit {
		payload.NVariants = limit
	}

	if text := strings.TrimSpace(userInstructions); text != "" {
		payload.UserInstructions = text
	}
	return payload, nil
}

// fromFull copies a full record into the typed payload. Values that do not fit
// their field (a non-string channel, a non-positive or non-integral count) take
// the configured default.
func (n *Normalizer) fromFull(rec models.FullRecord) *models.Payload {
	payload := &models.Payload{
		Product:         asObject(rec.Product),
		AudienceProfile: asObject(rec.AudienceProfile),
		Channel:         n.defaults.Channel,
		Trends:          asList(rec.Trends),
		NVariants:       n.defaults.NVariants,
	}
	if s, ok := rec.Channel.(string); ok && s != "" {
		payload.Channel = s
	}
	if count, ok := positiveInt(rec.NVariants); ok {
		payload.NVariants = count
	}
	return payload
}

func (n *Normalizer) fromAnalyzer(rec models.AnalyzerRecord) *models.Payload {
	margin := MarginMedium
	if toFloat(rec.Price) > toFloat(rec.MarketCost)*highMarginRatio {
		margin = MarginHigh
	}

	product := map[string]any{
		"name":     asString(rec.Name),
		"category": asString(rec.Category),
		"price":    rec.Price,
		"margin":   margin,
		"tags":     asList(rec.Tags),
		"features": []any{asString(rec.Description)},
	}

	d := n.defaults
	return &models.Payload{
		Product: product,
		AudienceProfile: map[string]any{
			"age_range": d.Audience.AgeRange,
			"interests": stringsToList(d.Audience.Interests),
			"behavior":  stringsToList(d.Audience.Behavior),
		},
		Channel:   d.Channel,
		Trends:    stringsToList(d.Trends),
		NVariants: d.NVariants,
	}
}

// asObject returns v when it is a non-empty object and an empty one otherwise.
func asObject(v any) map[string]any {
	if m, ok := v.(map[string]any); ok && len(m) > 0 {
		return m
	}
	return map[string]any{}
}

func asList(v any) []any {
	if l, ok := v.([]any); ok && len(l) > 0 {
		return l
	}
	return []any{}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func stringsToList(values []string) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}

// positiveInt accepts integral JSON numbers greater than zero.
func positiveInt(v any) (int, bool) {
	var f float64
	switch t := v.(type) {
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = t
	case int:
		f = float64(t)
	default:
		return 0, false
	}
	if f <= 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// toFloat reads a price-like value; anything non-numeric counts as zero.
func toFloat(v any) float64 {
	switch t := v.(type) {
	case json.Number:
		f, _ := t.Float64()
		return f
	case float64:
		return t
	case int:
		return float64(t)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "a boolean"
	case json.Number, float64:
		return "a number"
	case string:
		return "a string"
	case []any:
		return "an array"
	case map[string]any:
		return "an object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
