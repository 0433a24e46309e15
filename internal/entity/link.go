package entity

import (
	"net/url"
	"strings"
	"time"
)

// Link represents a shortened URL owned by the remote service.
// The client only keeps a non-authoritative copy per list fetch.
type Link struct {
	ShortURL          string     // ShortURL is the canonical shortened URL.
	LongURL           string     // LongURL is the destination the short URL redirects to.
	ClickCount        uint64     // ClickCount is the number of recorded redirects.
	CreatedAt         time.Time  // CreatedAt is the timestamp when the link was created.
	LastClicked       *time.Time // LastClicked is the timestamp of the latest redirect, nil if never clicked.
	OwnerAPIKeyPrefix string     // OwnerAPIKeyPrefix identifies the API key the link was created with, if any.
}

// ShortCode returns the last path segment of the short URL.
func (l Link) ShortCode() string {
	raw := l.ShortURL
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		raw = u.Path
	}

	raw = strings.TrimRight(raw, "/")
	if i := strings.LastIndex(raw, "/"); i >= 0 {
		raw = raw[i+1:]
	}

	return raw
}

// MatchesCode reports whether the link's short code is exactly code.
// URLs that merely contain code elsewhere do not match.
func (l Link) MatchesCode(code string) bool {
	return code != "" && l.ShortCode() == code
}

// CreateLinkRequest describes a link to be created.
type CreateLinkRequest struct {
	LongURL   string // LongURL is the destination URL.
	ShortCode string // ShortCode is an optional custom code; empty lets the service generate one.
}

// CreatedLink is the result of a successful link creation.
type CreatedLink struct {
	ShortenedURL string // ShortenedURL is the canonical shortened URL.
	ShortCode    string // ShortCode is the code assigned to the link.
	LongURL      string // LongURL is the destination URL as stored by the service.
}
