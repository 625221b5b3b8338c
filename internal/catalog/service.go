package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ilift/ilift-backend/internal/repo"
	"github.com/ilift/ilift-backend/pkg/db/models"
	"github.com/ilift/ilift-backend/pkg/enums"
	pkgerrors "github.com/ilift/ilift-backend/pkg/errors"
	"github.com/ilift/ilift-backend/pkg/logger"
	"github.com/ilift/ilift-backend/pkg/pagination"
)

// DefaultSimilarLimit is how many related products a detail page shows.
const DefaultSimilarLimit = 4

// Service is the catalog query boundary consumed by the HTTP layer and the
// import CLI.
type Service interface {
	ListProducts(ctx context.Context, input ListInput) (*ProductListResult, error)
	GetProduct(ctx context.Context, slug string) (*ProductDetail, error)
	ListCategories(ctx context.Context) ([]string, error)
	SimilarProducts(ctx context.Context, slug string, limit int) ([]ProductSummary, error)
	ListResources(ctx context.Context, category string) ([]ResourceDTO, error)
	Import(ctx context.Context, docs []CatalogDocument) (*ImportResult, error)
	CanonicalProductID(ctx context.Context, id string) (string, error)
}

type service struct {
	repo *Repository
	logg *logger.Logger
}

func NewService(repo *Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) ListProducts(ctx context.Context, input ListInput) (*ProductListResult, error) {
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor").
			WithDetails(map[string]string{"cursor": "is invalid"})
	}

	rows, next, err := s.repo.ListProducts(ctx, productListQuery{
		Terms:    strings.Fields(input.Query),
		Category: normalizeCategory(input.Category),
		Limit:    input.Limit,
		Cursor:   cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	out := make([]ProductSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, toSummary(row))
	}
	return &ProductListResult{Products: out, NextCursor: next}, nil
}

func (s *service) GetProduct(ctx context.Context, slug string) (*ProductDetail, error) {
	product, err := s.findBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	detail := toDetail(*product)
	return &detail, nil
}

// ListCategories merges the categories in use with the standard filter set.
func (s *service) ListCategories(ctx context.Context) ([]string, error) {
	used, err := s.repo.DistinctCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}

	seen := map[string]struct{}{}
	out := make([]string, 0, len(used)+len(enums.StandardProductCategories))
	add := func(c string) {
		c = strings.TrimSpace(c)
		if c == "" {
			return
		}
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	for _, c := range enums.StandardProductCategories {
		add(c.String())
	}
	for _, c := range used {
		add(c)
	}
	sort.Strings(out)
	return out, nil
}

func (s *service) SimilarProducts(ctx context.Context, slug string, limit int) ([]ProductSummary, error) {
	product, err := s.findBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultSimilarLimit
	}
	if limit > pagination.MaxLimit {
		limit = pagination.MaxLimit
	}

	rows, err := s.repo.ListSimilar(ctx, product.Category.String(), product.ID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list similar products")
	}
	out := make([]ProductSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, toSummary(row))
	}
	return out, nil
}

func (s *service) ListResources(ctx context.Context, category string) ([]ResourceDTO, error) {
	category = normalizeCategory(category)
	if category != "" {
		parsed, err := enums.ParseResourceCategory(category)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid resource category").
				WithDetails(map[string]string{"category": "is not a known resource category"})
		}
		category = string(parsed)
	}

	rows, err := s.repo.ListResources(ctx, category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list resources")
	}
	out := make([]ResourceDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toResource(row))
	}
	return out, nil
}

func (s *service) findBySlug(ctx context.Context, slug string) (*models.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required").
			WithDetails(map[string]string{"slug": "is required"})
	}
	product, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

// normalizeCategory maps URL values such as "Pallet-Truck" onto stored
// category keys. An empty value or "all" disables the filter.
func normalizeCategory(raw string) string {
	c := strings.ToLower(strings.TrimSpace(raw))
	if c == "" || c == enums.CategoryAll {
		return ""
	}
	return strings.NewReplacer("-", "_", " ", "_").Replace(c)
}

// CanonicalProductID maps a content-store document id onto the mirror id.
// Any other id, including mirror ids, comes back unchanged.
func (s *service) CanonicalProductID(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", nil
	}
	product, err := s.repo.FindByExternalID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return id, nil
	}
	if err != nil {
		return id, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve product id")
	}
	return product.ID.String(), nil
}
