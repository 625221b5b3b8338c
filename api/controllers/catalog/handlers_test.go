package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogsvc "github.com/ilift/ilift-backend/internal/catalog"
	"github.com/ilift/ilift-backend/pkg/enums"
	pkgerrors "github.com/ilift/ilift-backend/pkg/errors"
)

type stubCatalogService struct {
	lastList     catalogsvc.ListInput
	lastSlug     string
	lastLimit    int
	lastCategory string
	err          error
}

func (s *stubCatalogService) ListProducts(_ context.Context, input catalogsvc.ListInput) (*catalogsvc.ProductListResult, error) {
	s.lastList = input
	if s.err != nil {
		return nil, s.err
	}
	return &catalogsvc.ProductListResult{
		Products:   []catalogsvc.ProductSummary{{ID: uuid.New(), Name: "Forklift X", Slug: "forklift-x", Category: enums.ProductCategoryForklift}},
		NextCursor: "next",
	}, nil
}

func (s *stubCatalogService) GetProduct(_ context.Context, slug string) (*catalogsvc.ProductDetail, error) {
	s.lastSlug = slug
	if s.err != nil {
		return nil, s.err
	}
	return &catalogsvc.ProductDetail{Name: "Forklift X", Slug: slug}, nil
}

func (s *stubCatalogService) ListCategories(context.Context) ([]string, error) {
	return []string{"crane", "forklift"}, s.err
}

func (s *stubCatalogService) SimilarProducts(_ context.Context, slug string, limit int) ([]catalogsvc.ProductSummary, error) {
	s.lastSlug = slug
	s.lastLimit = limit
	return []catalogsvc.ProductSummary{}, s.err
}

func (s *stubCatalogService) ListResources(_ context.Context, category string) ([]catalogsvc.ResourceDTO, error) {
	s.lastCategory = category
	return []catalogsvc.ResourceDTO{}, s.err
}

func (s *stubCatalogService) Import(context.Context, []catalogsvc.CatalogDocument) (*catalogsvc.ImportResult, error) {
	return &catalogsvc.ImportResult{}, nil
}

func (s *stubCatalogService) CanonicalProductID(_ context.Context, id string) (string, error) {
	return id, nil
}

func withSlug(req *http.Request, slug string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(slugParam, slug)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestListProductsPassesFilters(t *testing.T) {
	stub := &stubCatalogService{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?q=%20electric%20stacker%20&category=pallet-truck&limit=10&cursor=abc", nil)
	rec := httptest.NewRecorder()
	ListProducts(stub, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, catalogsvc.ListInput{Query: "electric stacker", Category: "pallet-truck", Limit: 10, Cursor: "abc"}, stub.lastList)

	var envelope struct {
		Data catalogsvc.ProductListResult `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	require.Len(t, envelope.Data.Products, 1)
	assert.Equal(t, "next", envelope.Data.NextCursor)
}

func TestListProductsRejectsBadLimit(t *testing.T) {
	stub := &stubCatalogService{}
	for _, raw := range []string{"0", "500", "many"} {
		rec := httptest.NewRecorder()
		ListProducts(stub, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products?limit="+raw, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, raw)
	}
}

func TestGetProductNotFound(t *testing.T) {
	stub := &stubCatalogService{err: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}
	rec := httptest.NewRecorder()
	GetProduct(stub, nil).ServeHTTP(rec, withSlug(httptest.NewRequest(http.MethodGet, "/api/v1/products/missing", nil), "missing"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "missing", stub.lastSlug)
}

func TestGetProductSuccess(t *testing.T) {
	stub := &stubCatalogService{}
	rec := httptest.NewRecorder()
	GetProduct(stub, nil).ServeHTTP(rec, withSlug(httptest.NewRequest(http.MethodGet, "/api/v1/products/forklift-x", nil), "forklift-x"))

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data catalogsvc.ProductDetail `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Equal(t, "forklift-x", envelope.Data.Slug)
}

func TestSimilarProductsDefaultsLimit(t *testing.T) {
	stub := &stubCatalogService{}
	rec := httptest.NewRecorder()
	SimilarProducts(stub, nil).ServeHTTP(rec, withSlug(httptest.NewRequest(http.MethodGet, "/api/v1/products/forklift-x/similar", nil), "forklift-x"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, catalogsvc.DefaultSimilarLimit, stub.lastLimit)
	assert.JSONEq(t, `{"data":{"products":[]}}`, rec.Body.String())
}

func TestListCategories(t *testing.T) {
	rec := httptest.NewRecorder()
	ListCategories(&stubCatalogService{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"categories":["crane","forklift"]}}`, rec.Body.String())
}

func TestListResourcesPassesCategory(t *testing.T) {
	stub := &stubCatalogService{}
	rec := httptest.NewRecorder()
	ListResources(stub, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/resources?category=video", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "video", stub.lastCategory)
}

func TestCatalogHandlersWithoutService(t *testing.T) {
	rec := httptest.NewRecorder()
	ListProducts(nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
