package enquiry

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ilift/ilift-backend/api/middleware"
	"github.com/ilift/ilift-backend/api/responses"
	"github.com/ilift/ilift-backend/api/validators"
	enquirysvc "github.com/ilift/ilift-backend/internal/enquiry"
	pkgerrors "github.com/ilift/ilift-backend/pkg/errors"
	"github.com/ilift/ilift-backend/pkg/logger"
)

// productIDParam is the route parameter carrying a catalog product id.
const productIDParam = "productId"

// Cart returns the visitor's current enquiry snapshot.
func Cart(svc enquirysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable())
			return
		}

		snap, err := svc.Cart(r.Context(), middleware.VisitorIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, snap)
	}
}

// AddItem normalizes the posted catalog record and appends it to the list.
func AddItem(svc enquirysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable())
			return
		}

		var record enquirysvc.CatalogRecord
		if err := validators.DecodeLenientJSONBody(r, &record); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap, err := svc.AddItem(r.Context(), middleware.VisitorIDFromContext(r.Context()), record)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, snap)
	}
}

// RemoveItem drops a product from the list. Unknown ids are a no-op.
func RemoveItem(svc enquirysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable())
			return
		}

		productID, err := productIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap, err := svc.RemoveItem(r.Context(), middleware.VisitorIDFromContext(r.Context()), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, snap)
	}
}

// Membership answers whether a product is already queued.
func Membership(svc enquirysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable())
			return
		}

		productID, err := productIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := svc.Membership(r.Context(), middleware.VisitorIDFromContext(r.Context()), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}

// Press handles a click on a product card's enquiry button.
func Press(svc enquirysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable())
			return
		}

		var record enquirysvc.CatalogRecord
		if err := validators.DecodeLenientJSONBody(r, &record); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Press(r.Context(), middleware.VisitorIDFromContext(r.Context()), record)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// Toggle flips the drawer visibility.
func Toggle(svc enquirysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable())
			return
		}

		snap, err := svc.Toggle(r.Context(), middleware.VisitorIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, snap)
	}
}

func Drawer(svc enquirysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable())
			return
		}

		drawer, err := svc.Drawer(r.Context(), middleware.VisitorIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, drawer)
	}
}

// Checkout renders the submission flow for the visitor.
func Checkout(svc enquirysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable())
			return
		}

		view, err := svc.Checkout(r.Context(), middleware.VisitorIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// SaveContact stores draft form values. Drafts are not validated.
func SaveContact(svc enquirysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable())
			return
		}

		var payload contactRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.SetContact(r.Context(), middleware.VisitorIDFromContext(r.Context()), payload.toContact())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// Submit sends the quote request. Validation of the contact block happens in
// the flow so the draft is kept on every outcome.
func Submit(svc enquirysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable())
			return
		}

		var payload submitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Submit(r.Context(), middleware.VisitorIDFromContext(r.Context()), payload.Contact.toContact())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// Reset starts a new request after a completed one.
func Reset(svc enquirysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable())
			return
		}

		result, err := svc.Reset(r.Context(), middleware.VisitorIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func productIDFromRequest(r *http.Request) (string, error) {
	productID := strings.TrimSpace(chi.URLParam(r, productIDParam))
	if productID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"productId": "is required"})
	}
	return productID, nil
}

func serviceUnavailable() error {
	return pkgerrors.New(pkgerrors.CodeInternal, "enquiry service unavailable")
}
