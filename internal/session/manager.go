// Package session decides whether the client is public or authenticated.
//
// The state is never stored. It is settled by a validation probe against the
// service, by a successful login or registration, by manual API key entry, or
// by logout. Every settlement is published to subscribers, which is how the
// presentation layer learns about authentication transitions.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vadimbarashkov/url-shortener-client/internal/entity"
	"github.com/vadimbarashkov/url-shortener-client/internal/logger"
)

// Gateway is the subset of remote operations the session manager relies on.
type Gateway interface {
	Register(ctx context.Context, email, password string) (entity.AuthResult, error)
	Login(ctx context.Context, email, password string) (entity.AuthResult, error)
	CreateAPIKey(ctx context.Context) (string, error)
	ListLinks(ctx context.Context) ([]entity.Link, error)
}

// CredentialStore persists the credentials. Implementations never fail.
type CredentialStore interface {
	Get(ctx context.Context, kind entity.CredentialKind) (string, bool)
	Set(ctx context.Context, kind entity.CredentialKind, value string)
	Clear(ctx context.Context, kind entity.CredentialKind)
	ClearAll(ctx context.Context)
	Snapshot(ctx context.Context) entity.Credentials
}

// Event describes a settled session.
type Event struct {
	State       entity.SessionState
	View        entity.View // View is the tab the dashboard shows after the transition.
	DisplayName string
	Reason      string
	At          time.Time
}

type Option func(*Manager)

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock overrides the source of event timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

type Manager struct {
	gw     Gateway
	store  CredentialStore
	logger *slog.Logger
	now    func() time.Time

	mu          sync.RWMutex
	state       entity.SessionState
	displayName string
	subs        map[int]func(Event)
	nextSub     int
}

// New creates a Manager in the public state.
func New(gw Gateway, store CredentialStore, opts ...Option) *Manager {
	m := &Manager{
		gw:     gw,
		store:  store,
		logger: logger.Discard(),
		now:    time.Now,
		state:  entity.StatePublic,
		subs:   make(map[int]func(Event)),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// State returns the state settled by the latest transition.
func (m *Manager) State() entity.SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state
}

// DisplayName returns the identity shown for the session, or an empty string.
func (m *Manager) DisplayName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.displayName
}

// Credentials reports which credentials are currently stored.
func (m *Manager) Credentials(ctx context.Context) entity.Credentials {
	return m.store.Snapshot(ctx)
}

// Subscribe registers fn for every settlement. Subscribers run synchronously
// on the goroutine that settled the session.
func (m *Manager) Subscribe(fn func(Event)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		delete(m.subs, id)
	}
}

// ValidateSession probes the service with the stored credentials.
//
// A stored token is tried first. If it is rejected it is evicted and the API
// key is not tried within the same check. The API key is probed only when no
// token is stored. Without credentials the result is Invalid and no request
// is made. A probe that cannot reach a verdict keeps the credentials, settles
// the session as public and returns Unreachable with the cause.
func (m *Manager) ValidateSession(ctx context.Context) (entity.Validity, error) {
	const op = "session.Manager.ValidateSession"

	creds := m.store.Snapshot(ctx)

	var kind entity.CredentialKind
	switch {
	case creds.Token != "":
		kind = entity.KindToken
	case creds.APIKey != "":
		kind = entity.KindAPIKey
	default:
		m.settle(entity.StatePublic, "", "no stored credentials")
		return entity.Invalid, nil
	}

	_, err := m.gw.ListLinks(ctx)
	switch {
	case err == nil:
		m.settle(entity.StateAuthenticated, m.nameFromCredentials(creds, kind), "stored "+kind.String()+" accepted")
		return entity.Valid, nil
	case errors.Is(err, entity.ErrUnauthorized):
		m.logger.Info("stored credential rejected, evicting", slog.String("kind", kind.String()))
		m.store.Clear(ctx, kind)
		m.settle(entity.StatePublic, "", "stored "+kind.String()+" rejected")
		return entity.Invalid, nil
	default:
		m.logger.Warn("session validation inconclusive", slog.String("kind", kind.String()), slog.Any("err", err))
		m.settle(entity.StatePublic, "", "service unreachable")
		return entity.Unreachable, fmt.Errorf("%s: %w", op, err)
	}
}

// Login authenticates with email and password and stores the returned credentials.
func (m *Manager) Login(ctx context.Context, email, password string) (entity.AuthResult, error) {
	const op = "session.Manager.Login"

	res, err := m.gw.Login(ctx, email, password)
	if err != nil {
		return entity.AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}

	m.authenticated(ctx, res, email, "logged in")

	return res, nil
}

// Register creates an account and stores the returned credentials.
func (m *Manager) Register(ctx context.Context, email, password string) (entity.AuthResult, error) {
	const op = "session.Manager.Register"

	res, err := m.gw.Register(ctx, email, password)
	if err != nil {
		return entity.AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}

	m.authenticated(ctx, res, email, "registered")

	return res, nil
}

func (m *Manager) authenticated(ctx context.Context, res entity.AuthResult, email, reason string) {
	m.store.Set(ctx, entity.KindToken, res.Token)
	if res.APIKey != "" {
		m.store.Set(ctx, entity.KindAPIKey, res.APIKey)
	}

	name := subjectFromToken(res.Token)
	if name == "" {
		name = strings.TrimSpace(email)
	}

	m.settle(entity.StateAuthenticated, name, reason)
}

// UseAPIKey stores an existing API key and probes the service with it.
//
// When the service rejects the key the previously stored key is restored and
// the session is left as it was. Any other failure keeps the new key.
func (m *Manager) UseAPIKey(ctx context.Context, key string) error {
	const op = "session.Manager.UseAPIKey"

	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%s: api key is required: %w", op, entity.ErrValidation)
	}

	prev, _ := m.store.Get(ctx, entity.KindAPIKey)
	m.store.Set(ctx, entity.KindAPIKey, key)

	_, err := m.gw.ListLinks(ctx)
	switch {
	case err == nil:
		m.settle(entity.StateAuthenticated, m.DisplayName(), "api key accepted")
		return nil
	case errors.Is(err, entity.ErrUnauthorized):
		m.logger.Info("api key rejected, discarding")
		m.store.Set(ctx, entity.KindAPIKey, prev)
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// CreateAPIKey provisions a new API key for display. The key is not stored.
func (m *Manager) CreateAPIKey(ctx context.Context) (string, error) {
	const op = "session.Manager.CreateAPIKey"

	key, err := m.gw.CreateAPIKey(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return key, nil
}

// Logout clears every stored credential and settles the session as public.
func (m *Manager) Logout(ctx context.Context) {
	m.store.ClearAll(ctx)
	m.settle(entity.StatePublic, "", "logged out")
}

// nameFromCredentials returns the display name for a session proven by kind.
// API key sessions have no name.
func (m *Manager) nameFromCredentials(creds entity.Credentials, kind entity.CredentialKind) string {
	if kind != entity.KindToken {
		return ""
	}

	if name := subjectFromToken(creds.Token); name != "" {
		return name
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.displayName
}

func (m *Manager) settle(state entity.SessionState, name, reason string) {
	m.mu.Lock()
	m.state = state
	m.displayName = name

	subs := make([]func(Event), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	m.logger.Debug("session settled", slog.String("state", state.String()), slog.String("reason", reason))

	ev := Event{
		State:       state,
		View:        entity.ViewCreate,
		DisplayName: name,
		Reason:      reason,
		At:          m.now(),
	}

	for _, fn := range subs {
		fn(ev)
	}
}

// subjectFromToken reads the subject or email claim of a JWT without
// verifying it. The value is only used for display.
func subjectFromToken(token string) string {
	claims := jwt.MapClaims{}

	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}

	for _, key := range []string{"email", "sub"} {
		if v, ok := claims[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}

	return ""
}
