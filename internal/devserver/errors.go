package devserver

import "errors"

var (
	// ErrUserExists is returned when registering an email that is already taken.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound is returned when no account has the given email.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned when the email or password is wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned for malformed, forged or expired tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrAPIKeyExists is returned when a generated API key collides with an existing one.
	ErrAPIKeyExists = errors.New("api key exists")
	// ErrAPIKeyNotFound is returned when an API key is unknown.
	ErrAPIKeyNotFound = errors.New("invalid API key")
	// ErrShortCodeExists is returned when a short code is already in use.
	ErrShortCodeExists = errors.New("custom short code already exists")
	// ErrLinkNotFound is returned when a short code does not resolve to a live link.
	ErrLinkNotFound = errors.New("short code not found")
	// ErrMaxRetriesExceeded is returned when no unique value could be generated.
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")
)
