package models

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ilift/ilift-backend/pkg/enums"
	"github.com/ilift/ilift-backend/pkg/types"
)

// Product mirrors a machinery document published by the content store.
type Product struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	ExternalID     *string               `gorm:"column:external_id"`
	Slug           string                `gorm:"column:slug;not null;uniqueIndex:ux_products_slug"`
	Name           string                `gorm:"column:name;not null"`
	NameI18n       types.LocalizedText   `gorm:"column:name_i18n;serializer:json"`
	Description    *string               `gorm:"column:description"`
	Category       enums.ProductCategory `gorm:"column:category;not null;index:idx_products_category"`
	Price          *decimal.Decimal      `gorm:"column:price;type:numeric(12,2)"`
	Images         []string              `gorm:"column:images;serializer:json"`
	BrochureURL    *string               `gorm:"column:brochure_url"`
	Specifications types.Specifications  `gorm:"column:specifications;serializer:json"`
	SearchText     string                `gorm:"column:search_text;not null;default:''"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }

// BeforeCreate assigns an id so inserts behave the same on postgres and sqlite.
func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	return nil
}

// BeforeSave refreshes the search column from the searchable fields.
func (p *Product) BeforeSave(*gorm.DB) error {
	p.SearchText = p.searchDocument()
	return nil
}

// searchDocument lower-cases every searchable value onto its own line, so a
// whitespace-free term can only match inside a single value.
func (p Product) searchDocument() string {
	parts := []string{p.Name}
	locales := make([]string, 0, len(p.NameI18n))
	for locale := range p.NameI18n {
		locales = append(locales, locale)
	}
	sort.Strings(locales)
	for _, locale := range locales {
		parts = append(parts, p.NameI18n[locale])
	}
	if p.Description != nil {
		parts = append(parts, *p.Description)
	}
	parts = append(parts, string(p.Category))

	lines := parts[:0]
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			lines = append(lines, strings.ToLower(part))
		}
	}
	return strings.Join(lines, "\n")
}

// PrimaryImage returns the first gallery image or an empty string.
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
