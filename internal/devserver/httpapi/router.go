// Package httpapi exposes the devserver over HTTP with the same routes,
// payloads and error envelopes as the hosted shortener service.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"

	"github.com/vadimbarashkov/url-shortener-client/pkg/validate"
)

// NewRouter builds the HTTP API. baseURL is the public address used in
// short URLs; when empty it is taken from each request. db may be nil.
func NewRouter(logger *httplog.Logger, svc Service, db Pinger, baseURL string) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://*", "https://*"},
		AllowedMethods:   []string{"POST", "GET", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept", headerAuthorization, headerAPIKey},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	h := &handler{
		svc:      svc,
		db:       db,
		validate: validate.New(),
		baseURL:  baseURL,
	}

	r.Get("/healthz", h.health)
	r.Head("/healthz", h.health)

	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Post("/shorten", h.shortenPublic)

	r.Route("/api", func(r chi.Router) {
		r.With(h.authenticate(authEither)).Post("/create-api-key", h.createAPIKey)

		r.Route("/links", func(r chi.Router) {
			r.Use(h.authenticate(authEither))

			r.Post("/", h.shortenOwned)
			r.Get("/", h.listLinks)
			r.Delete("/{shortCode}", h.deleteLink)
		})

		r.Route("/v1/links", func(r chi.Router) {
			r.Use(h.authenticate(authAPIKey))

			r.Post("/", h.shortenOwned)
			r.Get("/", h.listLinks)
			r.Delete("/{shortCode}", h.deleteLink)
		})
	})

	r.Get("/{shortCode}", h.resolve)

	return r
}
