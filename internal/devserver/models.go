// Package devserver is a local stand-in for the shortener service. It
// implements the HTTP contract the client talks to: accounts with bearer
// tokens and API keys, public and owned short links, redirects and click
// counting.
package devserver

import "time"

// User is a registered account.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// APIKey is a long-lived credential owned by a user.
type APIKey struct {
	ID        int64
	UserID    int64
	Key       string
	CreatedAt time.Time
}

// Link is a shortened URL. APIKeyID is nil for links created anonymously.
type Link struct {
	ID          int64
	APIKeyID    *int64
	APIKey      string // APIKey is the owning key, empty for anonymous links.
	ShortCode   string
	LongURL     string
	ClickCount  int64
	LastClicked *time.Time
	CreatedAt   time.Time
}

// Principal is the caller identity established by the auth middleware.
type Principal struct {
	UserID   int64
	Email    string
	APIKeyID *int64 // APIKeyID is the key new links are attributed to.
}

// AuthResult is returned by registration and login.
type AuthResult struct {
	Token  string
	APIKey string
}
