package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/vadimbarashkov/url-shortener-client/internal/devserver"
	"github.com/vadimbarashkov/url-shortener-client/pkg/response"
)

// Service is the business logic behind the HTTP API.
type Service interface {
	Register(ctx context.Context, email, password string) (*devserver.AuthResult, error)
	Login(ctx context.Context, email, password string) (*devserver.AuthResult, error)
	AuthenticateToken(ctx context.Context, token string) (*devserver.Principal, error)
	AuthenticateAPIKey(ctx context.Context, key string) (*devserver.Principal, error)
	CreateAPIKey(ctx context.Context, userID int64) (string, error)
	ShortenURL(ctx context.Context, apiKeyID *int64, longURL, customCode string) (*devserver.Link, error)
	ResolveShortCode(ctx context.Context, shortCode string) (*devserver.Link, error)
	ListLinks(ctx context.Context, userID int64) ([]devserver.Link, error)
	DeleteLink(ctx context.Context, userID int64, shortCode string) error
}

// Pinger reports whether the storage is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type handler struct {
	svc      Service
	db       Pinger
	validate *validator.Validate
	baseURL  string
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
}

// decode reads and validates a JSON body into v. It writes the error
// response itself and reports whether the handler may continue.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		render.Status(r, http.StatusBadRequest)

		if errors.Is(err, io.EOF) {
			render.JSON(w, r, response.EmptyRequestBodyResponse)
			return false
		}

		render.JSON(w, r, response.BadRequestResponse)
		return false
	}

	if err := h.validate.Struct(v); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationErrorResponse(err))
		return false
	}

	return true
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.svc.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, devserver.ErrUserExists) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ErrorResponse(devserver.ErrUserExists.Error()))
			return
		}

		serverError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, authResponse{
		Message: "User registered successfully",
		Token:   res.Token,
		APIKey:  res.APIKey,
	})
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, devserver.ErrInvalidCredentials) {
			unauthorized(w, r, response.ErrorResponse("Invalid credentials"))
			return
		}

		serverError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, authResponse{
		Message: "Login successful",
		Token:   res.Token,
		APIKey:  res.APIKey,
	})
}

func (h *handler) createAPIKey(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())

	key, err := h.svc.CreateAPIKey(r.Context(), p.UserID)
	if err != nil {
		serverError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, apiKeyResponse{
		Message: "API key created successfully",
		APIKey:  key,
	})
}

func (h *handler) shortenPublic(w http.ResponseWriter, r *http.Request) {
	h.shorten(w, r, nil)
}

func (h *handler) shortenOwned(w http.ResponseWriter, r *http.Request) {
	h.shorten(w, r, principalFrom(r.Context()).APIKeyID)
}

func (h *handler) shorten(w http.ResponseWriter, r *http.Request, apiKeyID *int64) {
	var req linkRequest
	if !h.decode(w, r, &req) {
		return
	}

	link, err := h.svc.ShortenURL(r.Context(), apiKeyID, req.LongURL, req.ShortCode)
	if err != nil {
		if errors.Is(err, devserver.ErrShortCodeExists) {
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.ErrorResponse(devserver.ErrShortCodeExists.Error()))
			return
		}

		serverError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, createdLinkResponse{
		ShortenedURL: h.requestBaseURL(r) + "/" + link.ShortCode,
		ShortCode:    link.ShortCode,
		LongURL:      link.LongURL,
	})
}

func (h *handler) listLinks(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())

	links, err := h.svc.ListLinks(r.Context(), p.UserID)
	if err != nil {
		serverError(w, r, err)
		return
	}

	baseURL := h.requestBaseURL(r)

	resp := make([]linkResponse, 0, len(links))
	for _, link := range links {
		resp = append(resp, toLinkResponse(baseURL, link))
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

func (h *handler) deleteLink(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	shortCode := chi.URLParam(r, "shortCode")

	if err := h.svc.DeleteLink(r.Context(), p.UserID, shortCode); err != nil {
		if errors.Is(err, devserver.ErrLinkNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.ErrorResponse(devserver.ErrLinkNotFound.Error()))
			return
		}

		serverError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) resolve(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	link, err := h.svc.ResolveShortCode(r.Context(), shortCode)
	if err != nil {
		if errors.Is(err, devserver.ErrLinkNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.ErrorResponse(devserver.ErrLinkNotFound.Error()))
			return
		}

		serverError(w, r, err)
		return
	}

	http.Redirect(w, r, link.LongURL, http.StatusFound)
}

// requestBaseURL returns the configured public address, or the one the
// request was made to, honouring proxy headers.
func (h *handler) requestBaseURL(r *http.Request) string {
	if h.baseURL != "" {
		return strings.TrimRight(h.baseURL, "/")
	}

	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}

	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s", scheme, host)
}
