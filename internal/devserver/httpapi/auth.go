package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"

	"github.com/vadimbarashkov/url-shortener-client/internal/devserver"
	"github.com/vadimbarashkov/url-shortener-client/pkg/response"
)

const (
	headerAuthorization = "Authorization"
	headerAPIKey        = "X-API-KEY"
	bearerPrefix        = "Bearer "
)

var (
	authRequiredResponse   = response.ErrorResponse("Authorization header required")
	apiKeyRequiredResponse = response.ErrorResponse("API key required")
	badAuthHeaderResponse  = response.ErrorResponse("Invalid authorization header format")
	invalidTokenResponse   = response.ErrorResponse("Invalid or expired token")
	invalidAPIKeyResponse  = response.ErrorResponse("invalid API key")
)

type principalKey struct{}

func withPrincipal(ctx context.Context, p *devserver.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func principalFrom(ctx context.Context) *devserver.Principal {
	p, _ := ctx.Value(principalKey{}).(*devserver.Principal)
	return p
}

type authMode int

const (
	// authEither accepts a bearer token, an API key or both.
	authEither authMode = iota
	// authAPIKey requires an API key and ignores the Authorization header.
	authAPIKey
)

// authenticate resolves the caller from the Authorization and X-API-KEY
// headers. A header that is present must be valid. When both are sent the
// key must belong to the token's user and becomes the owner of new links.
func (h *handler) authenticate(mode authMode) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get(headerAuthorization)
			key := r.Header.Get(headerAPIKey)

			if mode == authAPIKey {
				authz = ""
			}

			switch {
			case mode == authAPIKey && key == "":
				unauthorized(w, r, apiKeyRequiredResponse)
				return
			case mode == authEither && authz == "" && key == "":
				unauthorized(w, r, authRequiredResponse)
				return
			}

			var p *devserver.Principal

			if authz != "" {
				token, ok := strings.CutPrefix(authz, bearerPrefix)
				if !ok || strings.TrimSpace(token) == "" {
					unauthorized(w, r, badAuthHeaderResponse)
					return
				}

				var err error
				p, err = h.svc.AuthenticateToken(r.Context(), strings.TrimSpace(token))
				if err != nil {
					if errors.Is(err, devserver.ErrInvalidToken) {
						unauthorized(w, r, invalidTokenResponse)
						return
					}

					serverError(w, r, err)
					return
				}
			}

			if key != "" {
				kp, err := h.svc.AuthenticateAPIKey(r.Context(), key)
				if err != nil {
					if errors.Is(err, devserver.ErrAPIKeyNotFound) || errors.Is(err, devserver.ErrUserNotFound) {
						unauthorized(w, r, invalidAPIKeyResponse)
						return
					}

					serverError(w, r, err)
					return
				}

				switch {
				case p == nil:
					p = kp
				case p.UserID != kp.UserID:
					unauthorized(w, r, invalidAPIKeyResponse)
					return
				default:
					p.APIKeyID = kp.APIKeyID
				}
			}

			next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), p)))
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request, resp response.Response) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, resp)
}

func serverError(w http.ResponseWriter, r *http.Request, err error) {
	httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, response.ServerErrorResponse)
}
