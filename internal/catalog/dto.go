package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ilift/ilift-backend/pkg/db/models"
	"github.com/ilift/ilift-backend/pkg/enums"
	"github.com/ilift/ilift-backend/pkg/types"
)

// ListInput carries the fetch-list filters from the URL surface.
type ListInput struct {
	Query    string
	Category string
	Limit    int
	Cursor   string
}

// ProductSummary is the card shape used by list and similar-product views.
// It decodes directly into an enquiry catalog record. ExternalID is the
// content-store document id; the enquiry list maps it back onto ID.
type ProductSummary struct {
	ID             uuid.UUID             `json:"id"`
	ExternalID     *string               `json:"externalId,omitempty"`
	Name           string                `json:"name"`
	NameI18n       types.LocalizedText   `json:"nameI18n,omitempty"`
	Slug           string                `json:"slug"`
	ImageURL       string                `json:"imageUrl"`
	Category       enums.ProductCategory `json:"category"`
	Price          *decimal.Decimal      `json:"price,omitempty"`
	Specifications types.Specifications  `json:"specifications"`
}

// ProductDetail is the full record behind a detail page.
type ProductDetail struct {
	ID             uuid.UUID             `json:"id"`
	ExternalID     *string               `json:"externalId,omitempty"`
	Name           string                `json:"name"`
	NameI18n       types.LocalizedText   `json:"nameI18n,omitempty"`
	Slug           string                `json:"slug"`
	Description    *string               `json:"description,omitempty"`
	Specifications types.Specifications  `json:"specifications"`
	Images         []string              `json:"images"`
	ImageURL       string                `json:"imageUrl"`
	BrochureURL    *string               `json:"brochureUrl,omitempty"`
	Category       enums.ProductCategory `json:"category"`
	Price          *decimal.Decimal      `json:"price,omitempty"`
}

type ProductListResult struct {
	Products   []ProductSummary `json:"products"`
	NextCursor string           `json:"nextCursor,omitempty"`
}

// ResourceDTO is one i-School entry.
type ResourceDTO struct {
	ID          uuid.UUID              `json:"id"`
	Title       string                 `json:"title"`
	Category    enums.ResourceCategory `json:"category"`
	Type        enums.ResourceType     `json:"type"`
	URL         string                 `json:"url"`
	Thumbnail   *string                `json:"thumbnail,omitempty"`
	Duration    *string                `json:"duration,omitempty"`
	Description *string                `json:"description,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
}

func toSummary(p models.Product) ProductSummary {
	return ProductSummary{
		ID:             p.ID,
		ExternalID:     p.ExternalID,
		Name:           p.Name,
		NameI18n:       p.NameI18n,
		Slug:           p.Slug,
		ImageURL:       p.PrimaryImage(),
		Category:       p.Category,
		Price:          p.Price,
		Specifications: p.Specifications.CardSubset(),
	}
}

func toDetail(p models.Product) ProductDetail {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return ProductDetail{
		ID:             p.ID,
		ExternalID:     p.ExternalID,
		Name:           p.Name,
		NameI18n:       p.NameI18n,
		Slug:           p.Slug,
		Description:    p.Description,
		Specifications: p.Specifications,
		Images:         images,
		ImageURL:       p.PrimaryImage(),
		BrochureURL:    p.BrochureURL,
		Category:       p.Category,
		Price:          p.Price,
	}
}

func toResource(r models.Resource) ResourceDTO {
	return ResourceDTO{
		ID:          r.ID,
		Title:       r.Title,
		Category:    r.Category,
		Type:        r.Type,
		URL:         r.URL,
		Thumbnail:   r.Thumbnail,
		Duration:    r.Duration,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
	}
}
