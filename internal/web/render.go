package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/BerylCAtieno/ad-creative-agent/internal/models"
)

const (
	noNotes         = "no notes"
	noCategory      = "Uncategorized"
	visualCaption   = "The generated banner will be shown here"
	exampleDocument = `{
  "product": {
    "name": "Ultra X Smartphone",
    "category": "smartphone",
    "price": 49990,
    "margin": "high",
    "tags": ["new", "bright"],
    "features": ["AMOLED 120 Hz", "50 MP camera"]
  },
  "audience_profile": {
    "age_range": "20-35",
    "interests": ["gadgets", "photo"],
    "behavior": ["responds to discounts"]
  },
  "channel": "telegram",
  "trends": ["minimalism", "FOMO"],
  "n_variants": 3
}`
)

// Renderer turns variant copy into sanitized HTML. Model output is untrusted,
// so everything goldmark produces goes through a UGC policy.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func NewRenderer() *Renderer {
	policy := bluemonday.UGCPolicy()
	policy.RequireNoFollowOnLinks(true)
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		policy: policy,
	}
}

func (r *Renderer) Markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(r.policy.SanitizeBytes(buf.Bytes()))
}

type productView struct {
	Name     string
	Category string
	Price    string
	Tags     []string
}

type variantView struct {
	Number   int
	Headline string
	Text     template.HTML
	CTA      string
	Notes    string
}

type resultView struct {
	Title    string
	Product  *productView
	Variants []variantView
	ImageURL string
	Caption  string
	// Failure is set when the generator produced nothing.
	Failure string
}

func (r *Renderer) resultView(res *models.Result, currency string) *resultView {
	if !res.Succeeded() {
		return &resultView{Failure: res.Text, ImageURL: res.ImageURL, Caption: visualCaption}
	}

	view := &resultView{
		Title:    fmt.Sprintf("Variants generated: %d | Channel: %s", len(res.Variants), strings.ToUpper(res.Channel)),
		Product:  newProductView(res.Product, currency),
		ImageURL: res.ImageURL,
		Caption:  visualCaption,
	}
	for i, v := range res.Variants {
		notes := v.Notes
		if notes == "" {
			notes = noNotes
		}
		view.Variants = append(view.Variants, variantView{
			Number:   i + 1,
			Headline: v.Headline,
			Text:     r.Markdown(v.Text),
			CTA:      v.CTA,
			Notes:    notes,
		})
	}
	return view
}

func newProductView(product map[string]any, currency string) *productView {
	if len(product) == 0 {
		return nil
	}
	view := &productView{
		Name:     textOf(product["name"]),
		Category: textOf(product["category"]),
	}
	if view.Category == "" {
		view.Category = noCategory
	}
	if price := formatNumber(product["price"]); price != "" {
		view.Price = strings.TrimSpace(price + " " + currency)
	}
	if tags, ok := product["tags"].([]any); ok {
		for _, t := range tags {
			if s := textOf(t); s != "" {
				view.Tags = append(view.Tags, s)
			}
		}
	}
	return view
}

func textOf(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// formatNumber prints a price with thousands separators. Zero and missing
// prices print nothing; values that are not numbers are printed as given.
func formatNumber(v any) string {
	var s string
	switch x := v.(type) {
	case nil:
		return ""
	case json.Number:
		s = x.String()
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		s = strconv.Itoa(x)
	case string:
		s = strings.TrimSpace(x)
	default:
		return fmt.Sprint(x)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	if f == 0 {
		return ""
	}
	if strings.ContainsAny(s, "eE") {
		s = strconv.FormatFloat(f, 'f', -1, 64)
	}

	intPart, frac, hasFrac := strings.Cut(s, ".")
	out := thousandSep(intPart)
	if hasFrac {
		out += "." + frac
	}
	return out
}

func thousandSep(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, c := range s {
		if i != 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
