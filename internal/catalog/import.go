package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ilift/ilift-backend/pkg/db/models"
	"github.com/ilift/ilift-backend/pkg/enums"
	pkgerrors "github.com/ilift/ilift-backend/pkg/errors"
	"github.com/ilift/ilift-backend/pkg/types"
)

const productDocumentType = "product"

// CatalogDocument is one product document from a content store export.
type CatalogDocument struct {
	Type           string               `json:"_type"`
	ID             string               `json:"_id"`
	Name           types.LocalizedText  `json:"name"`
	Slug           types.Slug           `json:"slug"`
	Description    string               `json:"description"`
	Category       string               `json:"category"`
	Price          *decimal.Decimal     `json:"price"`
	Images         documentImages       `json:"images"`
	BrochureURL    string               `json:"brochureUrl"`
	Specifications types.Specifications `json:"specifications"`
}

// documentImages accepts a single url, a list of urls or a list of image
// objects carrying url or asset.url.
type documentImages []string

func (d *documentImages) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	*d = nil
	if len(trimmed) == 0 || trimmed[0] == 'n' {
		return nil
	}
	if trimmed[0] == '"' {
		var single string
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return err
		}
		if single = strings.TrimSpace(single); single != "" {
			*d = documentImages{single}
		}
		return nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil
	}
	for _, entry := range entries {
		var url string
		if err := json.Unmarshal(entry, &url); err != nil {
			var obj struct {
				URL   string `json:"url"`
				Asset struct {
					URL string `json:"url"`
				} `json:"asset"`
			}
			if err := json.Unmarshal(entry, &obj); err != nil {
				continue
			}
			url = obj.URL
			if url == "" {
				url = obj.Asset.URL
			}
		}
		if url = strings.TrimSpace(url); url != "" {
			*d = append(*d, url)
		}
	}
	return nil
}

// ImportSkip explains why a document was not imported.
type ImportSkip struct {
	ID     string `json:"id"`
	Slug   string `json:"slug"`
	Reason string `json:"reason"`
}

type ImportResult struct {
	Upserted int          `json:"upserted"`
	Skipped  []ImportSkip `json:"skipped"`
}

// Import upserts product documents by slug. Documents that cannot become a
// product are reported and skipped; the rest are written in one statement.
func (s *service) Import(ctx context.Context, docs []CatalogDocument) (*ImportResult, error) {
	result := &ImportResult{Skipped: []ImportSkip{}}
	products := make([]models.Product, 0, len(docs))
	seen := map[string]struct{}{}

	for _, doc := range docs {
		product, reason := doc.toProduct()
		if reason == "" {
			if _, dup := seen[product.Slug]; dup {
				reason = "duplicate slug in export"
			}
		}
		if reason != "" {
			result.Skipped = append(result.Skipped, ImportSkip{ID: doc.ID, Slug: doc.Slug.String(), Reason: reason})
			continue
		}
		seen[product.Slug] = struct{}{}
		products = append(products, product)
	}

	if err := s.repo.UpsertProducts(ctx, products); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert products")
	}
	result.Upserted = len(products)

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"upserted": result.Upserted,
		"skipped":  len(result.Skipped),
	})
	s.logg.Info(logCtx, "catalog.import_completed")
	return result, nil
}

func (d CatalogDocument) toProduct() (models.Product, string) {
	docType := strings.TrimSpace(d.Type)
	if docType != "" && docType != productDocumentType {
		return models.Product{}, "not a product document"
	}
	slug := strings.TrimSpace(d.Slug.String())
	if slug == "" {
		return models.Product{}, "missing slug"
	}
	name := d.Name.Resolve(types.DefaultLocale)
	if name == "" {
		return models.Product{}, "missing name"
	}

	category, err := enums.ParseProductCategory(normalizeCategory(d.Category))
	if err != nil {
		category = enums.ProductCategoryOther
	}

	product := models.Product{
		Slug:           slug,
		Name:           name,
		NameI18n:       d.Name,
		Category:       category,
		Images:         []string(d.Images),
		Specifications: d.Specifications,
	}
	if id := strings.TrimSpace(d.ID); id != "" {
		product.ExternalID = &id
	}
	if desc := strings.TrimSpace(d.Description); desc != "" {
		product.Description = &desc
	}
	if brochure := strings.TrimSpace(d.BrochureURL); brochure != "" {
		product.BrochureURL = &brochure
	}
	if d.Price != nil && !d.Price.IsNegative() {
		price := d.Price.Round(2)
		product.Price = &price
	}
	return product, ""
}
