package models

// Record is one caller-supplied input record. The set of shapes is closed:
// FullRecord and AnalyzerRecord are the only implementations.
type Record interface {
	recordShape() string
}

// FullRecord carries a ready-made product/audience/channel context.
// Field values are raw JSON values exactly as supplied by the caller.
type FullRecord struct {
	Product         any
	AudienceProfile any
	Channel         any
	Trends          any
	NVariants       any
}

func (FullRecord) recordShape() string { return "full" }

// AnalyzerRecord is the flat product description emitted by the product analyzer.
type AnalyzerRecord struct {
	Name        any
	Category    any
	Price       any
	MarketCost  any
	Description any
	Tags        any
}

func (AnalyzerRecord) recordShape() string { return "analyzer" }

// Shape returns "full" or "analyzer".
func Shape(r Record) string {
	if r == nil {
		return ""
	}
	return r.recordShape()
}

// Payload is the normalized brief passed to the generation collaborator.
type Payload struct {
	Product          map[string]any `json:"product"`
	AudienceProfile  map[string]any `json:"audience_profile"`
	Channel          string         `json:"channel"`
	Trends           []any          `json:"trends"`
	NVariants        int            `json:"n_variants"`
	UserInstructions string         `json:"user_instructions,omitempty"`
}

// Variant is one generated ad-copy candidate.
type Variant struct {
	Headline string `json:"headline"`
	Text     string `json:"text"`
	CTA      string `json:"cta"`
	Notes    string `json:"notes"`
}

// GenerationResult is the raw return value of the generation collaborator.
type GenerationResult struct {
	Variants []Variant `json:"variants"`
}

// Result is the display-ready structure. It is either the error shape
// (Text, ImageURL) or the success shape (Variants, Channel, ImageURL, Product).
type Result struct {
	Text     string         `json:"text,omitempty"`
	ImageURL string         `json:"image_url"`
	Variants []Variant      `json:"variants,omitempty"`
	Channel  string         `json:"channel,omitempty"`
	Product  map[string]any `json:"product,omitempty"`
}

// Succeeded reports whether r is the success shape.
func (r *Result) Succeeded() bool {
	return r != nil && len(r.Variants) > 0
}
