package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"notesrelay/internal/http/handlers"
	"notesrelay/internal/middleware"
)

// NewRouter mounts the relay routes behind the shared middleware stack.
// lookup may be nil when no GeoIP database is configured.
func NewRouter(app *handlers.App, lookup middleware.CountryLookup) http.Handler {
	cfg := app.Config
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Country(lookup),
		middleware.Logger(app.Logger),
		middleware.Recover(app.Logger, cfg.IsDevelopment()),
		middleware.CORS(cfg.CORSAllowedOrigins),
	)
	r.NotFound(app.NotFound)
	r.MethodNotAllowed(app.MethodNotAllowed)

	// Health
	r.Get("/health", app.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitMaxRequests, cfg.RateLimitWindow))

		r.Get("/health", app.Health)

		requireKey := middleware.APIKey(cfg.APISecretKey)
		processLimit := middleware.KeyedRateLimit(middleware.RateLimitOptions{
			Limit:   cfg.ProcessRateLimitMax,
			Window:  cfg.RateLimitWindow,
			Code:    "PROCESSING_RATE_LIMIT_EXCEEDED",
			Message: "Too many processing requests, please slow down.",
			Key:     middleware.APIKeyOrIP,
		})

		r.With(requireKey, processLimit).Post("/process", app.ProcessNote)
		r.With(requireKey).Get("/status/{noteId}", app.NoteStatus)
		r.With(requireKey).Post("/notes", app.CreateNote)
		r.With(middleware.OptionalAPIKey(cfg.APISecretKey)).Get("/stats", app.Stats)
	})

	return r
}
