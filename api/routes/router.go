package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ilift/ilift-backend/api/controllers"
	catalogcontrollers "github.com/ilift/ilift-backend/api/controllers/catalog"
	enquirycontrollers "github.com/ilift/ilift-backend/api/controllers/enquiry"
	"github.com/ilift/ilift-backend/api/middleware"
	"github.com/ilift/ilift-backend/internal/catalog"
	"github.com/ilift/ilift-backend/internal/enquiry"
	"github.com/ilift/ilift-backend/pkg/config"
	"github.com/ilift/ilift-backend/pkg/db"
	"github.com/ilift/ilift-backend/pkg/logger"
	pkgredis "github.com/ilift/ilift-backend/pkg/redis"
)

// RedisStore is the slice of the redis client the HTTP layer depends on.
type RedisStore interface {
	pkgredis.Pinger
	pkgredis.RateLimiter
	pkgredis.IdempotencyStore
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient RedisStore,
	gatherer prometheus.Gatherer,
	catalogService catalog.Service,
	enquiryService enquiry.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	var (
		redisPinger  pkgredis.Pinger
		limiter      pkgredis.RateLimiter
		idempotency  pkgredis.IdempotencyStore
		submitPolicy = middleware.SubmissionPolicy(cfg.SubmitRateLimit)
	)
	if redisClient != nil {
		redisPinger, limiter, idempotency = redisClient, redisClient, redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg,
			controllers.ReadinessCheck{Name: "db", Pinger: dbP},
			controllers.ReadinessCheck{Name: "redis", Pinger: redisPinger},
		))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())

		r.Get("/products", catalogcontrollers.ListProducts(catalogService, logg))
		r.Get("/products/{slug}", catalogcontrollers.GetProduct(catalogService, logg))
		r.Get("/products/{slug}/similar", catalogcontrollers.SimilarProducts(catalogService, logg))
		r.Get("/categories", catalogcontrollers.ListCategories(catalogService, logg))
		r.Get("/resources", catalogcontrollers.ListResources(catalogService, logg))

		r.Route("/enquiry", func(r chi.Router) {
			r.Use(middleware.Visitor(cfg.Visitor, cfg.App.IsProd(), logg))

			r.Get("/", enquirycontrollers.Cart(enquiryService, logg))
			r.Get("/ping", controllers.VisitorPing())
			r.Post("/items", enquirycontrollers.AddItem(enquiryService, logg))
			r.Get("/items/{productId}", enquirycontrollers.Membership(enquiryService, logg))
			r.Delete("/items/{productId}", enquirycontrollers.RemoveItem(enquiryService, logg))
			r.Post("/indicator", enquirycontrollers.Press(enquiryService, logg))
			r.Post("/toggle", enquirycontrollers.Toggle(enquiryService, logg))
			r.Get("/drawer", enquirycontrollers.Drawer(enquiryService, logg))
			r.Get("/events", enquirycontrollers.Events(enquiryService, cfg.Enquiry.EventsKeepAlive, logg))

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/", enquirycontrollers.Checkout(enquiryService, logg))
				r.Put("/contact", enquirycontrollers.SaveContact(enquiryService, logg))
				r.With(
					middleware.Idempotency(idempotency, logg),
					middleware.SubmissionRateLimit(submitPolicy, limiter, logg),
				).Post("/submit", enquirycontrollers.Submit(enquiryService, logg))
				r.With(middleware.Idempotency(idempotency, logg)).Post("/reset", enquirycontrollers.Reset(enquiryService, logg))
			})
		})
	})

	return r
}
