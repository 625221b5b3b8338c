package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ilift/ilift-backend/internal/repo"
	"github.com/ilift/ilift-backend/pkg/db/models"
	"github.com/ilift/ilift-backend/pkg/pagination"
)

// searchClause matches one query term against the denormalized search column
// (name, localized names, description and category, one value per line).
const searchClause = `search_text LIKE ? ESCAPE '\'`

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// containsPattern is a LIKE pattern matching term literally anywhere.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

// Repository reads and writes the catalog mirror.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

type productListQuery struct {
	Terms    []string
	Category string
	Limit    int
	Cursor   *pagination.Cursor
}

// ListProducts returns one page plus the cursor of the next page, if any.
func (r *Repository) ListProducts(ctx context.Context, query productListQuery) ([]models.Product, string, error) {
	qb := r.DB(ctx).Model(&models.Product{})
	for _, term := range query.Terms {
		qb = qb.Where(searchClause, containsPattern(term))
	}
	if query.Category != "" {
		qb = qb.Where("category = ?", query.Category)
	}
	if query.Cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", query.Cursor.CreatedAt, query.Cursor.CreatedAt, query.Cursor.ID)
	}

	var rows []models.Product
	err := qb.Order("created_at DESC").Order("id DESC").
		Limit(pagination.LimitWithBuffer(query.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, "", err
	}

	page, next := pagination.Page(rows, query.Limit, func(p models.Product) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	return page, next, nil
}

func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := r.First(ctx, &product, "slug = ?", slug); err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Repository) FindByExternalID(ctx context.Context, externalID string) (*models.Product, error) {
	var product models.Product
	if err := r.First(ctx, &product, "external_id = ?", externalID); err != nil {
		return nil, err
	}
	return &product, nil
}

// DistinctCategories lists the categories currently in use.
func (r *Repository) DistinctCategories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.DB(ctx).Model(&models.Product{}).
		Distinct("category").
		Pluck("category", &categories).Error
	return categories, err
}

func (r *Repository) ListSimilar(ctx context.Context, category string, excludeID uuid.UUID, limit int) ([]models.Product, error) {
	var rows []models.Product
	err := r.DB(ctx).
		Where("category = ? AND id <> ?", category, excludeID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *Repository) ListResources(ctx context.Context, category string) ([]models.Resource, error) {
	var rows []models.Resource
	qb := r.DB(ctx).Model(&models.Resource{})
	if category != "" {
		qb = qb.Where("category = ?", category)
	}
	err := qb.Order("created_at DESC").Order("id DESC").Find(&rows).Error
	return rows, err
}

// UpsertProducts inserts or refreshes products keyed by slug.
func (r *Repository) UpsertProducts(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	return r.DB(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"external_id",
			"name",
			"name_i18n",
			"description",
			"category",
			"price",
			"images",
			"brochure_url",
			"specifications",
			"search_text",
			"updated_at",
		}),
	}).Create(&products).Error
}
