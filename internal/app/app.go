// Package app wires configuration, storage and transport into a ready client
// and runs the development server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/httplog/v2"
	"golang.org/x/sync/errgroup"

	"github.com/vadimbarashkov/url-shortener-client/internal/clipboard"
	"github.com/vadimbarashkov/url-shortener-client/internal/config"
	"github.com/vadimbarashkov/url-shortener-client/internal/credential"
	"github.com/vadimbarashkov/url-shortener-client/internal/devserver"
	"github.com/vadimbarashkov/url-shortener-client/internal/devserver/httpapi"
	"github.com/vadimbarashkov/url-shortener-client/internal/devserver/storage"
	"github.com/vadimbarashkov/url-shortener-client/internal/gateway"
	"github.com/vadimbarashkov/url-shortener-client/internal/session"
	"github.com/vadimbarashkov/url-shortener-client/internal/ui"
	"github.com/vadimbarashkov/url-shortener-client/pkg/sqlite"
)

// Client bundles the components a front-end drives.
type Client struct {
	Store     *credential.Store
	Gateway   *gateway.Gateway
	Session   *session.Manager
	Header    *ui.Header
	Dashboard *ui.Dashboard
	Auth      *ui.AuthForm
	Create    *ui.CreateLinkForm
	Links     *ui.LinkList
	APIKeys   *ui.APIKeyPanel

	closeStore func() error
}

type clientOptions struct {
	confirm    ui.Confirmer
	clip       clipboard.Writer
	httpClient *http.Client
}

type ClientOption func(*clientOptions)

// WithConfirmer sets how link deletions are confirmed. Without it every
// deletion is declined.
func WithConfirmer(c ui.Confirmer) ClientOption {
	return func(o *clientOptions) {
		o.confirm = c
	}
}

func WithClipboard(w clipboard.Writer) ClientOption {
	return func(o *clientOptions) {
		o.clip = w
	}
}

func WithHTTPClient(c *http.Client) ClientOption {
	return func(o *clientOptions) {
		o.httpClient = c
	}
}

// NewClient opens the credential store selected by cfg and builds the
// gateway, the session manager and the views on top of it.
func NewClient(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...ClientOption) (*Client, error) {
	const op = "app.NewClient"

	o := clientOptions{
		confirm: ui.ConfirmFunc(func(context.Context, string) (bool, error) { return false, nil }),
		clip:    clipboard.NewSystem(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	store, closeStore, err := credential.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open credential store: %w", op, err)
	}

	gwOpts := []gateway.Option{gateway.WithLogger(logger)}
	if o.httpClient != nil {
		gwOpts = append(gwOpts, gateway.WithHTTPClient(o.httpClient))
	}
	if cfg.API.Timeout > 0 {
		gwOpts = append(gwOpts, gateway.WithTimeout(cfg.API.Timeout))
	}

	gw, err := gateway.New(cfg.API.BaseURL, store, gwOpts...)
	if err != nil {
		closeStore()
		return nil, fmt.Errorf("%s: failed to create gateway: %w", op, err)
	}

	sess := session.New(gw, store, session.WithLogger(logger))

	return &Client{
		Store:      store,
		Gateway:    gw,
		Session:    sess,
		Header:     ui.NewHeader(sess),
		Dashboard:  ui.NewDashboard(sess, sess.State()),
		Auth:       ui.NewAuthForm(sess, ui.ModeLogin),
		Create:     ui.NewCreateLinkForm(gw, sess, o.clip),
		Links:      ui.NewLinkList(gw, o.confirm, o.clip),
		APIKeys:    ui.NewAPIKeyPanel(sess, o.clip),
		closeStore: closeStore,
	}, nil
}

// Close detaches the views from the session and releases the store.
func (c *Client) Close() error {
	c.Dashboard.Close()
	return c.closeStore()
}

// NewDevServer opens the development database and returns the HTTP API on
// top of it. The returned close function releases the database.
func NewDevServer(ctx context.Context, cfg config.DevServer, logger *httplog.Logger) (http.Handler, func() error, error) {
	const op = "app.NewDevServer"

	db, err := sqlite.New(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}

	if err := storage.Migrate(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	repo := storage.NewRepository(db)
	svc := devserver.NewService(repo, cfg.JWTSecret, cfg.TokenTTL, cfg.ShortCodeLength)

	return httpapi.NewRouter(logger, svc, db, cfg.BaseURL), db.Close, nil
}

// RunDevServer serves the development API until ctx is done.
func RunDevServer(ctx context.Context, cfg config.DevServer, logger *httplog.Logger) error {
	const op = "app.RunDevServer"

	handler, closeDB, err := NewDevServer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer closeDB()

	server := &http.Server{
		Addr:           cfg.Addr(),
		Handler:        handler,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: 1 << 20,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("dev server listening", slog.String("addr", server.Addr))

		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}
