// Package gateway is the single egress point to the shortener service.
//
// Every request carries whatever credentials the store currently holds: the
// session token as a bearer Authorization header and the API key as an
// X-API-KEY header. Both may be sent together; the service decides which one
// wins. Calls are never retried.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/vadimbarashkov/url-shortener-client/internal/entity"
	"github.com/vadimbarashkov/url-shortener-client/internal/logger"
	"github.com/vadimbarashkov/url-shortener-client/pkg/response"
	"github.com/vadimbarashkov/url-shortener-client/pkg/transport"
	"github.com/vadimbarashkov/url-shortener-client/pkg/validate"
)

const (
	HeaderAuthorization = "Authorization"
	HeaderAPIKey        = "X-API-KEY"
)

// CredentialSource provides the credentials to attach to each request.
type CredentialSource interface {
	Snapshot(ctx context.Context) entity.Credentials
}

type Gateway struct {
	baseURL  string
	client   *http.Client
	creds    CredentialSource
	validate *validator.Validate
	logger   *slog.Logger
}

type Option func(*Gateway)

// WithHTTPClient sets the client whose transport the gateway builds upon.
// The passed client is not modified.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) {
		if c != nil {
			g.client = c
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithTimeout bounds every call. Zero leaves the transport default in place.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		c := *g.client
		c.Timeout = d
		g.client = &c
	}
}

// New creates a Gateway for the service at baseURL reading credentials from creds.
func New(baseURL string, creds CredentialSource, opts ...Option) (*Gateway, error) {
	const op = "gateway.New"

	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("%s: invalid base url: %w", op, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%s: base url must use http or https", op)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%s: base url must include host", op)
	}

	g := &Gateway{
		baseURL:  strings.TrimRight(u.String(), "/"),
		client:   &http.Client{},
		creds:    creds,
		validate: validate.New(),
		logger:   logger.Discard(),
	}

	for _, opt := range opts {
		opt(g)
	}

	c := *g.client
	c.Transport = transport.Chain(c.Transport,
		transport.Header(g.credentialHeaders),
		transport.Logger(g.logger),
		transport.Recoverer(g.logger),
	)
	g.client = &c

	return g, nil
}

// BaseURL returns the service address the gateway talks to.
func (g *Gateway) BaseURL() string {
	return g.baseURL
}

func (g *Gateway) credentialHeaders(r *http.Request) map[string]string {
	creds := g.creds.Snapshot(r.Context())

	headers := make(map[string]string, 2)
	if creds.Token != "" {
		headers[HeaderAuthorization] = "Bearer " + creds.Token
	}
	if creds.APIKey != "" {
		headers[HeaderAPIKey] = creds.APIKey
	}

	return headers
}

// Register creates an account and returns its credentials.
func (g *Gateway) Register(ctx context.Context, email, password string) (entity.AuthResult, error) {
	return g.authenticate(ctx, "gateway.Gateway.Register", "/register", email, password)
}

// Login exchanges account credentials for a session token and, optionally, an API key.
func (g *Gateway) Login(ctx context.Context, email, password string) (entity.AuthResult, error) {
	return g.authenticate(ctx, "gateway.Gateway.Login", "/login", email, password)
}

func (g *Gateway) authenticate(ctx context.Context, op, path, email, password string) (entity.AuthResult, error) {
	req := authRequest{
		Email:    strings.TrimSpace(email),
		Password: password,
	}

	var resp authResponse

	if err := g.do(ctx, op, http.MethodPost, path, req, &resp); err != nil {
		return entity.AuthResult{}, err
	}

	if strings.TrimSpace(resp.Token) == "" {
		return entity.AuthResult{}, &Error{
			Op:      op,
			Kind:    entity.ErrServiceUnavailable,
			Message: "response is missing token",
		}
	}

	return resp.toEntity(), nil
}

// CreateAPIKey provisions a new API key for the authenticated account.
func (g *Gateway) CreateAPIKey(ctx context.Context) (string, error) {
	const op = "gateway.Gateway.CreateAPIKey"

	var resp apiKeyResponse

	if err := g.do(ctx, op, http.MethodPost, "/api/create-api-key", nil, &resp); err != nil {
		return "", err
	}

	if strings.TrimSpace(resp.APIKey) == "" {
		return "", &Error{
			Op:      op,
			Kind:    entity.ErrServiceUnavailable,
			Message: "response is missing api key",
		}
	}

	return resp.APIKey, nil
}

// CreateLink shortens a URL on behalf of the authenticated account.
func (g *Gateway) CreateLink(ctx context.Context, req entity.CreateLinkRequest) (entity.CreatedLink, error) {
	return g.createLink(ctx, "gateway.Gateway.CreateLink", "/api/links", req)
}

// CreateLinkPublic shortens a URL anonymously; the link is never associated with an account.
func (g *Gateway) CreateLinkPublic(ctx context.Context, req entity.CreateLinkRequest) (entity.CreatedLink, error) {
	return g.createLink(ctx, "gateway.Gateway.CreateLinkPublic", "/shorten", req)
}

func (g *Gateway) createLink(ctx context.Context, op, path string, req entity.CreateLinkRequest) (entity.CreatedLink, error) {
	body := linkRequest{
		LongURL:   strings.TrimSpace(req.LongURL),
		ShortCode: strings.TrimSpace(req.ShortCode),
	}

	var resp createdLinkResponse

	if err := g.do(ctx, op, http.MethodPost, path, body, &resp); err != nil {
		return entity.CreatedLink{}, err
	}

	return resp.toEntity(), nil
}

// ListLinks returns the links owned by the authenticated account.
func (g *Gateway) ListLinks(ctx context.Context) ([]entity.Link, error) {
	const op = "gateway.Gateway.ListLinks"

	var resp []linkResponse

	if err := g.do(ctx, op, http.MethodGet, "/api/links", nil, &resp); err != nil {
		return nil, err
	}

	links := make([]entity.Link, 0, len(resp))
	for _, l := range resp {
		links = append(links, l.toEntity())
	}

	return links, nil
}

// DeleteLink removes the link identified by its short code.
func (g *Gateway) DeleteLink(ctx context.Context, code string) error {
	const op = "gateway.Gateway.DeleteLink"

	code = strings.TrimSpace(code)
	if code == "" {
		return &Error{Op: op, Kind: entity.ErrValidation, Message: "short code is required"}
	}

	return g.do(ctx, op, http.MethodDelete, "/api/links/"+url.PathEscape(code), nil, nil)
}

func (g *Gateway) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader

	if in != nil {
		if err := g.validate.Struct(in); err != nil {
			return &Error{
				Op:      op,
				Kind:    entity.ErrValidation,
				Message: response.ValidationErrorResponse(err).Text(),
				Err:     err,
			}
		}

		b, err := json.Marshal(in)
		if err != nil {
			return &Error{Op: op, Kind: entity.ErrValidation, Message: "failed to encode request", Err: err}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return &Error{Op: op, Kind: entity.ErrValidation, Message: "failed to build request", Err: err}
	}

	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return &Error{Op: op, Kind: entity.ErrServiceUnavailable, Err: unwrapURLError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		envelope, _ := response.Decode(resp.Body)
		msg := envelope.Text()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}

		return &Error{
			Op:         op,
			StatusCode: resp.StatusCode,
			Kind:       KindForStatus(resp.StatusCode),
			Message:    msg,
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := render.DecodeJSON(resp.Body, out); err != nil {
		return &Error{
			Op:         op,
			StatusCode: resp.StatusCode,
			Kind:       entity.ErrServiceUnavailable,
			Message:    "failed to decode response",
			Err:        err,
		}
	}

	return nil
}

func unwrapURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) && ue.Err != nil {
		return ue.Err
	}
	return err
}
