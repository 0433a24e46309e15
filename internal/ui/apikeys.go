package ui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/vadimbarashkov/url-shortener-client/internal/clipboard"
	"github.com/vadimbarashkov/url-shortener-client/internal/entity"
)

// KeyManager provisions new API keys and adopts existing ones.
type KeyManager interface {
	CreateAPIKey(ctx context.Context) (string, error)
	UseAPIKey(ctx context.Context, key string) error
}

// APIKeyPanel shows a newly created API key and accepts an existing one.
type APIKeyPanel struct {
	keys   KeyManager
	clip   clipboard.Writer
	create Guard
	use    Guard

	key     string
	err     error
	success string
}

func NewAPIKeyPanel(keys KeyManager, clip clipboard.Writer) *APIKeyPanel {
	return &APIKeyPanel{keys: keys, clip: clip}
}

// Create provisions a new key and keeps it for display.
func (p *APIKeyPanel) Create(ctx context.Context) (string, error) {
	err := p.create.Do("create api key", func() error {
		p.err = nil
		p.success = ""

		key, err := p.keys.CreateAPIKey(ctx)
		if err != nil {
			return err
		}

		p.key = key
		p.success = "API key created successfully!"

		return nil
	})
	if err != nil {
		if !errors.Is(err, entity.ErrBusy) {
			p.err = err
		}
		return "", err
	}

	return p.key, nil
}

// Use adopts an existing API key. A rejected key is not kept.
func (p *APIKeyPanel) Use(ctx context.Context, key string) error {
	err := p.use.Do("use api key", func() error {
		p.err = nil
		p.success = ""

		if err := p.keys.UseAPIKey(ctx, key); err != nil {
			return err
		}

		p.success = "API key validated successfully!"
		return nil
	})
	if err != nil && !errors.Is(err, entity.ErrBusy) {
		p.err = err
	}

	return err
}

// Copy puts the created key on the clipboard.
func (p *APIKeyPanel) Copy(ctx context.Context) error {
	const op = "ui.APIKeyPanel.Copy"

	if p.key == "" {
		return &FormError{Op: op, Message: "No API key to copy", Kind: entity.ErrValidation}
	}

	if err := p.clip.WriteText(ctx, p.key); err != nil {
		p.err = &FormError{Op: op, Message: "Failed to copy API key to clipboard", Kind: err}
		return p.err
	}

	p.success = "API key copied to clipboard!"
	return nil
}

func (p *APIKeyPanel) Key() string {
	return p.key
}

func (p *APIKeyPanel) Err() error {
	return p.err
}

func (p *APIKeyPanel) Status() string {
	if p.err != nil {
		if errors.Is(p.err, entity.ErrUnauthorized) {
			return Message(p.err, "Invalid API key")
		}
		return Message(p.err, "Failed to create API key")
	}
	return p.success
}

func (p *APIKeyPanel) Render(w io.Writer) error {
	if status := p.Status(); status != "" {
		if _, err := fmt.Fprintln(w, status); err != nil {
			return err
		}
	}

	if p.key == "" {
		return nil
	}

	_, err := fmt.Fprintf(w, "%s\nInclude the header: X-API-KEY: %s\n", p.key, p.key)
	return err
}
