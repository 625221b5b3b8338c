package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ilift/ilift-backend/api/responses"
	pkgAuth "github.com/ilift/ilift-backend/pkg/auth"
	"github.com/ilift/ilift-backend/pkg/config"
	pkgerrors "github.com/ilift/ilift-backend/pkg/errors"
	"github.com/ilift/ilift-backend/pkg/logger"
)

// VisitorTokenHeader lets non-browser clients carry the visitor token without cookies.
const VisitorTokenHeader = "X-Visitor-Token"

// Visitor binds every request to an anonymous visitor. A missing or invalid
// token starts a new visitor and issues a fresh signed cookie.
func Visitor(cfg config.VisitorConfig, secure bool, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			visitorID := ""
			if token := visitorToken(r, cfg.CookieName); token != "" {
				claims, err := pkgAuth.ParseVisitorToken(cfg, token)
				if err == nil {
					visitorID = claims.VisitorID.String()
				} else if logg != nil {
					logCtx := logg.WithField(ctx, "error", err.Error())
					logg.Debug(logCtx, "visitor.token_rejected")
				}
			}

			if visitorID == "" {
				id := uuid.New()
				now := time.Now()
				token, err := pkgAuth.MintVisitorToken(cfg, now, id)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "issue visitor token"))
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.CookieName,
					Value:    token,
					Path:     "/",
					Domain:   cfg.CookieDomain,
					Expires:  now.Add(cfg.TTL),
					MaxAge:   int(cfg.TTL.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
				w.Header().Set(VisitorTokenHeader, token)
				visitorID = id.String()
			}

			ctx = WithVisitorID(ctx, visitorID)
			if logg != nil {
				ctx = logg.WithVisitorID(ctx, visitorID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func visitorToken(r *http.Request, cookieName string) string {
	if cookie, err := r.Cookie(cookieName); err == nil {
		if v := strings.TrimSpace(cookie.Value); v != "" {
			return v
		}
	}
	return strings.TrimSpace(r.Header.Get(VisitorTokenHeader))
}
