package ui

import (
	"context"
	"fmt"
	"io"

	"github.com/vadimbarashkov/url-shortener-client/internal/entity"
)

const (
	title        = "URL Shortener"
	keyPrefixLen = 8
)

// SessionView is the read side of the session manager.
type SessionView interface {
	State() entity.SessionState
	DisplayName() string
	Credentials(ctx context.Context) entity.Credentials
}

type Header struct {
	session SessionView
}

func NewHeader(s SessionView) *Header {
	return &Header{session: s}
}

// AuthInfo describes who the client acts as.
func (h *Header) AuthInfo(ctx context.Context) string {
	if h.session.State() != entity.StateAuthenticated {
		return "Not authenticated"
	}

	creds := h.session.Credentials(ctx)
	switch {
	case creds.Token != "":
		if name := h.session.DisplayName(); name != "" {
			return "Signed in as " + name
		}
		return "Signed in"
	case creds.APIKey != "":
		return "API Key: " + prefix(creds.APIKey) + "..."
	default:
		return "Signed in"
	}
}

func (h *Header) Render(ctx context.Context, w io.Writer) error {
	hint := "login | register"
	if h.session.State() == entity.StateAuthenticated {
		hint = "logout"
	}

	_, err := fmt.Fprintf(w, "%s  [%s]  (%s)\n", title, h.AuthInfo(ctx), hint)
	return err
}

func prefix(key string) string {
	if len(key) > keyPrefixLen {
		return key[:keyPrefixLen]
	}
	return key
}
