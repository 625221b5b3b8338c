package catalog

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ilift/ilift-backend/api/responses"
	"github.com/ilift/ilift-backend/api/validators"
	catalogsvc "github.com/ilift/ilift-backend/internal/catalog"
	pkgerrors "github.com/ilift/ilift-backend/pkg/errors"
	"github.com/ilift/ilift-backend/pkg/logger"
	"github.com/ilift/ilift-backend/pkg/pagination"
)

const (
	slugParam   = "slug"
	maxQueryLen = 200
)

// ListProducts serves the catalog grid. The q and category query parameters
// drive filtering; cursor and limit page through results.
func ListProducts(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable())
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := r.URL.Query()
		result, err := svc.ListProducts(r.Context(), catalogsvc.ListInput{
			Query:    validators.SanitizeString(query.Get("q"), maxQueryLen),
			Category: validators.SanitizeString(query.Get("category"), maxQueryLen),
			Limit:    limit,
			Cursor:   strings.TrimSpace(query.Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// GetProduct serves a product detail page by slug.
func GetProduct(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable())
			return
		}

		product, err := svc.GetProduct(r.Context(), chi.URLParam(r, slugParam))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

func SimilarProducts(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable())
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", catalogsvc.DefaultSimilarLimit, 1, 12)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		products, err := svc.SimilarProducts(r.Context(), chi.URLParam(r, slugParam), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"products": products})
	}
}

func ListCategories(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable())
			return
		}

		categories, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"categories": categories})
	}
}

// ListResources serves the i-School library, optionally filtered by category.
func ListResources(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable())
			return
		}

		resources, err := svc.ListResources(r.Context(), validators.SanitizeString(r.URL.Query().Get("category"), maxQueryLen))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"resources": resources})
	}
}

func serviceUnavailable() error {
	return pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable")
}
