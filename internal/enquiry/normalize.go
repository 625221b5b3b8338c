package enquiry

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ilift/ilift-backend/pkg/types"
)

const (
	UnknownProductName = "Unknown Product"
	DefaultCategory    = "General"
)

// CatalogRecord is any product shape the catalog hands to the add controls:
// summary cards, detail pages or raw content-store documents.
type CatalogRecord struct {
	ID       string
	Name     types.LocalizedText
	Slug     types.Slug
	Images   []string
	ImageURL string
	Category string
	Price    *decimal.Decimal
}

// UnmarshalJSON decodes every known catalog shape. Fields with unexpected
// types fall back to their zero value instead of failing the record.
func (r *CatalogRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := CatalogRecord{}
	out.ID = firstString(raw["_id"], raw["id"])
	if v, ok := raw["name"]; ok {
		_ = json.Unmarshal(v, &out.Name)
	}
	if v, ok := raw["slug"]; ok {
		_ = json.Unmarshal(v, &out.Slug)
	}
	out.Images = stringOrList(raw["images"])
	out.ImageURL = firstString(raw["imageUrl"], raw["image"])
	out.Category = firstString(raw["category"])
	out.Price = parsePrice(raw["price"])

	*r = out
	return nil
}

// Normalize maps a catalog record onto the canonical Item. It never fails;
// unusable fields get placeholder values.
func Normalize(rec CatalogRecord) Item {
	item := Item{
		ID:       strings.TrimSpace(rec.ID),
		Name:     rec.Name.Resolve(types.DefaultLocale),
		Slug:     strings.TrimSpace(rec.Slug.String()),
		Category: strings.TrimSpace(rec.Category),
	}
	if item.Name == "" {
		item.Name = UnknownProductName
	}
	if item.Category == "" {
		item.Category = DefaultCategory
	}
	for _, img := range rec.Images {
		if img = strings.TrimSpace(img); img != "" {
			item.ImageURL = img
			break
		}
	}
	if item.ImageURL == "" {
		item.ImageURL = strings.TrimSpace(rec.ImageURL)
	}
	if rec.Price != nil {
		price := *rec.Price
		item.Price = &price
	}
	return item
}

func firstString(values ...json.RawMessage) string {
	for _, v := range values {
		if len(v) == 0 {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

func stringOrList(v json.RawMessage) []string {
	trimmed := bytes.TrimSpace(v)
	if len(trimmed) == 0 {
		return nil
	}
	if trimmed[0] == '"' {
		if s := firstString(trimmed); s != "" {
			return []string{s}
		}
		return nil
	}
	if trimmed[0] != '[' {
		return nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		if s := firstString(entry); s != "" {
			out = append(out, s)
			continue
		}
		// image objects from the content store carry the CDN url
		var obj struct {
			URL   string `json:"url"`
			Asset struct {
				URL string `json:"url"`
			} `json:"asset"`
		}
		if err := json.Unmarshal(entry, &obj); err == nil {
			switch {
			case strings.TrimSpace(obj.URL) != "":
				out = append(out, strings.TrimSpace(obj.URL))
			case strings.TrimSpace(obj.Asset.URL) != "":
				out = append(out, strings.TrimSpace(obj.Asset.URL))
			}
		}
	}
	return out
}

func parsePrice(v json.RawMessage) *decimal.Decimal {
	trimmed := bytes.TrimSpace(v)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	text := string(trimmed)
	if trimmed[0] == '"' {
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return nil
		}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	price, err := decimal.NewFromString(text)
	if err != nil || price.IsNegative() {
		return nil
	}
	return &price
}
