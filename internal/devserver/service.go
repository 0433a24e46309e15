package devserver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	tokenIssuer = "url-shortener"
	maxRetries  = 5
)

// Repository defines the storage the service is built on.
type Repository interface {
	// CreateUser inserts a user. Returns ErrUserExists if the email is taken.
	CreateUser(ctx context.Context, email, passwordHash string) (*User, error)

	// GetUserByEmail returns ErrUserNotFound if no user has the email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// CreateAPIKey inserts a key for the user. Returns ErrAPIKeyExists on collision.
	CreateAPIKey(ctx context.Context, userID int64, key string) (*APIKey, error)

	// GetFirstAPIKey returns the oldest key of the user or ErrAPIKeyNotFound.
	GetFirstAPIKey(ctx context.Context, userID int64) (*APIKey, error)

	// GetAPIKey looks a key up by its value. Returns ErrAPIKeyNotFound if unknown.
	GetAPIKey(ctx context.Context, key string) (*APIKey, error)

	// GetUserByID returns ErrUserNotFound if the user does not exist.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// CreateLink inserts a link. Returns ErrShortCodeExists if the code is in use.
	CreateLink(ctx context.Context, apiKeyID *int64, shortCode, longURL string) (*Link, error)

	// ResolveLink counts a click and returns the link, or ErrLinkNotFound.
	ResolveLink(ctx context.Context, shortCode string) (*Link, error)

	// ListLinksByUser returns the live links created with any key of the user, newest first.
	ListLinksByUser(ctx context.Context, userID int64) ([]Link, error)

	// DeleteLink removes a link owned by the user. Returns ErrLinkNotFound otherwise.
	DeleteLink(ctx context.Context, userID int64, shortCode string) error
}

type Option func(*Service)

// WithClock sets the time source used to issue and check tokens.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithHashCost sets the bcrypt cost for password hashes.
func WithHashCost(cost int) Option {
	return func(s *Service) {
		s.hashCost = cost
	}
}

// Service implements accounts, credentials and links on top of a Repository.
type Service struct {
	repo            Repository
	secret          []byte
	tokenTTL        time.Duration
	shortCodeLength int
	hashCost        int
	now             func() time.Time
}

func NewService(repo Repository, secret string, tokenTTL time.Duration, shortCodeLength int, opts ...Option) *Service {
	s := &Service{
		repo:            repo,
		secret:          []byte(secret),
		tokenTTL:        tokenTTL,
		shortCodeLength: shortCodeLength,
		hashCost:        bcrypt.DefaultCost,
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Register creates an account with its first API key and signs a token for it.
func (s *Service) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	const op = "devserver.Service.Register"

	email = strings.TrimSpace(email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	user, err := s.repo.CreateUser(ctx, email, string(hash))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create user: %w", op, err)
	}

	key, err := s.newAPIKey(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.issueToken(user.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &AuthResult{Token: token, APIKey: key.Key}, nil
}

// Login checks the password and returns a fresh token together with the
// user's first API key, if any.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	const op = "devserver.Service.Login"

	user, err := s.repo.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := s.issueToken(user.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res := &AuthResult{Token: token}

	key, err := s.repo.GetFirstAPIKey(ctx, user.ID)
	switch {
	case err == nil:
		res.APIKey = key.Key
	case !errors.Is(err, ErrAPIKeyNotFound):
		return nil, fmt.Errorf("%s: failed to get api key: %w", op, err)
	}

	return res, nil
}

// AuthenticateToken verifies a bearer token and resolves its user.
func (s *Service) AuthenticateToken(ctx context.Context, token string) (*Principal, error) {
	const op = "devserver.Service.AuthenticateToken"

	var c claims

	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidToken, err)
	}

	user, err := s.repo.GetUserByEmail(ctx, c.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return nil, fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	p := &Principal{UserID: user.ID, Email: user.Email}

	key, err := s.repo.GetFirstAPIKey(ctx, user.ID)
	switch {
	case err == nil:
		p.APIKeyID = &key.ID
	case !errors.Is(err, ErrAPIKeyNotFound):
		return nil, fmt.Errorf("%s: failed to get api key: %w", op, err)
	}

	return p, nil
}

// AuthenticateAPIKey resolves the user owning key.
func (s *Service) AuthenticateAPIKey(ctx context.Context, key string) (*Principal, error) {
	const op = "devserver.Service.AuthenticateAPIKey"

	k, err := s.repo.GetAPIKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get api key: %w", op, err)
	}

	user, err := s.repo.GetUserByID(ctx, k.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	return &Principal{UserID: user.ID, Email: user.Email, APIKeyID: &k.ID}, nil
}

// CreateAPIKey issues an additional key for the user.
func (s *Service) CreateAPIKey(ctx context.Context, userID int64) (string, error) {
	const op = "devserver.Service.CreateAPIKey"

	key, err := s.newAPIKey(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return key.Key, nil
}

// ShortenURL stores longURL under customCode, or under a generated code when
// customCode is empty. apiKeyID is nil for anonymous links.
func (s *Service) ShortenURL(ctx context.Context, apiKeyID *int64, longURL, customCode string) (*Link, error) {
	const op = "devserver.Service.ShortenURL"

	if customCode != "" {
		link, err := s.repo.CreateLink(ctx, apiKeyID, customCode, longURL)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to create link: %w", op, err)
		}

		return link, nil
	}

	length := s.shortCodeLength

	for i := 0; i < maxRetries; i++ {
		shortCode, err := gonanoid.New(length)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to generate short code: %w", op, err)
		}

		link, err := s.repo.CreateLink(ctx, apiKeyID, shortCode, longURL)
		if err != nil {
			if errors.Is(err, ErrShortCodeExists) {
				length++
				continue
			}

			return nil, fmt.Errorf("%s: failed to create link: %w", op, err)
		}

		return link, nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrMaxRetriesExceeded)
}

// ResolveShortCode returns the link for shortCode and records a click.
func (s *Service) ResolveShortCode(ctx context.Context, shortCode string) (*Link, error) {
	const op = "devserver.Service.ResolveShortCode"

	link, err := s.repo.ResolveLink(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	return link, nil
}

func (s *Service) ListLinks(ctx context.Context, userID int64) ([]Link, error) {
	const op = "devserver.Service.ListLinks"

	links, err := s.repo.ListLinksByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list links: %w", op, err)
	}

	return links, nil
}

func (s *Service) DeleteLink(ctx context.Context, userID int64, shortCode string) error {
	const op = "devserver.Service.DeleteLink"

	if err := s.repo.DeleteLink(ctx, userID, shortCode); err != nil {
		return fmt.Errorf("%s: failed to delete link: %w", op, err)
	}

	return nil
}

func (s *Service) newAPIKey(ctx context.Context, userID int64) (*APIKey, error) {
	for i := 0; i < maxRetries; i++ {
		key, err := s.repo.CreateAPIKey(ctx, userID, strings.ReplaceAll(uuid.NewString(), "-", ""))
		if err != nil {
			if errors.Is(err, ErrAPIKeyExists) {
				continue
			}

			return nil, fmt.Errorf("failed to create api key: %w", err)
		}

		return key, nil
	}

	return nil, ErrMaxRetriesExceeded
}

func (s *Service) issueToken(email string) (string, error) {
	now := s.now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}
