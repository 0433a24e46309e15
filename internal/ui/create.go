package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vadimbarashkov/url-shortener-client/internal/clipboard"
	"github.com/vadimbarashkov/url-shortener-client/internal/entity"
)

// LinkCreator creates links with and without an account.
type LinkCreator interface {
	CreateLink(ctx context.Context, req entity.CreateLinkRequest) (entity.CreatedLink, error)
	CreateLinkPublic(ctx context.Context, req entity.CreateLinkRequest) (entity.CreatedLink, error)
}

// StateSource reports the settled session state.
type StateSource interface {
	State() entity.SessionState
}

// CreateLinkForm submits new links and keeps the last created one.
type CreateLinkForm struct {
	links   LinkCreator
	session StateSource
	clip    clipboard.Writer
	guard   Guard

	created entity.CreatedLink
	err     error
	success string
}

func NewCreateLinkForm(links LinkCreator, s StateSource, clip clipboard.Writer) *CreateLinkForm {
	return &CreateLinkForm{
		links:   links,
		session: s,
		clip:    clip,
	}
}

// Submit creates a link owned by the account when the session is
// authenticated and an anonymous one otherwise. A taken custom short code is
// reported as entity.ErrConflict.
func (f *CreateLinkForm) Submit(ctx context.Context, req entity.CreateLinkRequest) (entity.CreatedLink, error) {
	const op = "ui.CreateLinkForm.Submit"

	err := f.guard.Do("create link", func() error {
		f.err = nil
		f.success = ""
		f.created = entity.CreatedLink{}

		create := f.links.CreateLinkPublic
		if f.session.State() == entity.StateAuthenticated {
			create = f.links.CreateLink
		}

		link, err := create(ctx, req)
		if err != nil {
			if errors.Is(err, entity.ErrConflict) {
				return &FormError{
					Op:      op,
					Message: fmt.Sprintf("Short code %q is already taken", strings.TrimSpace(req.ShortCode)),
					Kind:    err,
				}
			}
			return err
		}

		f.created = link
		f.success = "Short URL created successfully!"

		return nil
	})
	if err != nil {
		if !errors.Is(err, entity.ErrBusy) {
			f.err = err
		}
		return entity.CreatedLink{}, err
	}

	return f.created, nil
}

// Copy puts the last created short URL on the clipboard.
func (f *CreateLinkForm) Copy(ctx context.Context) error {
	const op = "ui.CreateLinkForm.Copy"

	if f.created.ShortenedURL == "" {
		return &FormError{Op: op, Message: "Nothing to copy", Kind: entity.ErrValidation}
	}

	if err := f.clip.WriteText(ctx, f.created.ShortenedURL); err != nil {
		f.err = &FormError{Op: op, Message: "Failed to copy to clipboard", Kind: err}
		return f.err
	}

	f.success = "Link copied to clipboard!"
	return nil
}

func (f *CreateLinkForm) Created() entity.CreatedLink {
	return f.created
}

func (f *CreateLinkForm) Err() error {
	return f.err
}

func (f *CreateLinkForm) Status() string {
	if f.err != nil {
		return Message(f.err, "Failed to create short URL")
	}
	return f.success
}

func (f *CreateLinkForm) Render(w io.Writer) error {
	if status := f.Status(); status != "" {
		if _, err := fmt.Fprintln(w, status); err != nil {
			return err
		}
	}

	if f.created.ShortenedURL != "" {
		_, err := fmt.Fprintf(w, "%s -> %s\n", f.created.ShortenedURL, f.created.LongURL)
		return err
	}

	return nil
}
