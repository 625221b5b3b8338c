package controllers

import (
	"net/http"

	"github.com/ilift/ilift-backend/api/middleware"
	"github.com/ilift/ilift-backend/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

// VisitorPing lets a client bootstrap its visitor cookie before the first
// enquiry call.
func VisitorPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": "visitor", "status": "ok"}
		if visitor := middleware.VisitorIDFromContext(r.Context()); visitor != "" {
			payload["visitor_id"] = visitor
		}
		responses.WriteSuccess(w, payload)
	}
}
