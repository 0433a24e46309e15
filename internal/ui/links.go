package ui

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/vadimbarashkov/url-shortener-client/internal/clipboard"
	"github.com/vadimbarashkov/url-shortener-client/internal/entity"
)

const maxLongURLLen = 50

// LinkService lists and deletes the account's links.
type LinkService interface {
	ListLinks(ctx context.Context) ([]entity.Link, error)
	DeleteLink(ctx context.Context, code string) error
}

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// LinkList holds the links of the account as last loaded.
type LinkList struct {
	svc     LinkService
	confirm Confirmer
	clip    clipboard.Writer
	load    Guard
	remove  Guard

	mu      sync.Mutex
	links   []entity.Link
	loaded  bool
	err     error
	success string
}

func NewLinkList(svc LinkService, confirm Confirmer, clip clipboard.Writer) *LinkList {
	return &LinkList{
		svc:     svc,
		confirm: confirm,
		clip:    clip,
	}
}

// Load fetches the links once. A failure is recorded and the previous links
// are kept; call Retry to try again.
func (l *LinkList) Load(ctx context.Context) error {
	return l.load.Do("load links", func() error {
		links, err := l.svc.ListLinks(ctx)

		l.mu.Lock()
		defer l.mu.Unlock()

		if err != nil {
			l.err = err
			return err
		}

		l.links = links
		l.loaded = true
		l.err = nil

		return nil
	})
}

// Retry repeats a failed load.
func (l *LinkList) Retry(ctx context.Context) error {
	return l.Load(ctx)
}

// Delete removes the link with the given short code after confirmation.
// Only links whose short code equals code are removed from the list, and only
// when the service confirms the deletion.
func (l *LinkList) Delete(ctx context.Context, code string) error {
	const op = "ui.LinkList.Delete"

	return l.remove.Do("delete link", func() error {
		ok, err := l.confirm.Confirm(ctx, "Are you sure you want to delete this link?")
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if !ok {
			return fmt.Errorf("%s: %w", op, entity.ErrNotConfirmed)
		}

		err = l.svc.DeleteLink(ctx, code)

		l.mu.Lock()
		defer l.mu.Unlock()

		if err != nil {
			l.err = err
			return err
		}

		l.links = slices.DeleteFunc(l.links, func(link entity.Link) bool {
			return link.MatchesCode(code)
		})
		l.err = nil
		l.success = "Link deleted"

		return nil
	})
}

// Copy puts shortURL on the clipboard.
func (l *LinkList) Copy(ctx context.Context, shortURL string) error {
	const op = "ui.LinkList.Copy"

	err := l.clip.WriteText(ctx, shortURL)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err != nil {
		l.err = &FormError{Op: op, Message: "Failed to copy to clipboard", Kind: err}
		return l.err
	}

	l.success = "Copied " + shortURL
	return nil
}

// Links returns a copy of the loaded links.
func (l *LinkList) Links() []entity.Link {
	l.mu.Lock()
	defer l.mu.Unlock()

	return slices.Clone(l.links)
}

func (l *LinkList) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.err
}

// Render writes the links as a table with dates relative to now.
func (l *LinkList) Render(w io.Writer, now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.err != nil && !l.loaded {
		_, err := fmt.Fprintf(w, "%s (retry)\n", Message(l.err, "Failed to fetch links"))
		return err
	}

	if l.err != nil {
		if _, err := fmt.Fprintln(w, Message(l.err, "Failed to delete link")); err != nil {
			return err
		}
	}

	if len(l.links) == 0 {
		_, err := fmt.Fprintln(w, "No links yet\nCreate your first short URL to get started!")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "API KEY\tSHORT URL\tORIGINAL URL\tCLICKS\tCREATED\tLAST CLICKED")

	for _, link := range l.links {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			MaskKey(link.OwnerAPIKeyPrefix),
			link.ShortURL,
			Truncate(link.LongURL, maxLongURLLen),
			humanize.Comma(int64(link.ClickCount)),
			humanize.RelTime(link.CreatedAt, now, "ago", "from now"),
			lastClicked(link.LastClicked, now),
		)
	}

	return tw.Flush()
}

func lastClicked(t *time.Time, now time.Time) string {
	if t == nil {
		return "Never"
	}
	return humanize.RelTime(*t, now, "ago", "from now")
}

// MaskKey shows the first characters of an API key followed by asterisks.
func MaskKey(key string) string {
	if key == "" {
		return "N/A"
	}
	return prefix(key) + "****"
}

// Truncate shortens s to n characters followed by an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
