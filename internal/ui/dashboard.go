package ui

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/vadimbarashkov/url-shortener-client/internal/entity"
	"github.com/vadimbarashkov/url-shortener-client/internal/session"
)

// Publisher delivers session settlements.
type Publisher interface {
	Subscribe(fn func(session.Event)) (unsubscribe func())
}

var tabTitles = map[entity.View]string{
	entity.ViewCreate:  "Create Link",
	entity.ViewList:    "My Links",
	entity.ViewAPIKeys: "API Keys",
}

// Dashboard tracks the selected tab and follows session transitions.
type Dashboard struct {
	mu          sync.Mutex
	state       entity.SessionState
	view        entity.View
	unsubscribe func()
}

func NewDashboard(p Publisher, state entity.SessionState) *Dashboard {
	d := &Dashboard{
		state: state,
		view:  entity.ViewCreate,
	}
	d.unsubscribe = p.Subscribe(d.onSettled)

	return d
}

func (d *Dashboard) onSettled(e session.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.state = e.State
	d.view = e.View
}

func (d *Dashboard) View() entity.View {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.view
}

// Tabs lists the tabs available in the current state.
func (d *Dashboard) Tabs() []entity.View {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != entity.StateAuthenticated {
		return []entity.View{entity.ViewCreate}
	}
	return slices.Clone(entity.Views)
}

// Select switches to view. Every tab except create requires an authenticated session.
func (d *Dashboard) Select(view entity.View) error {
	const op = "ui.Dashboard.Select"

	if !slices.Contains(entity.Views, view) {
		return fmt.Errorf("%s: unknown view %q: %w", op, view, entity.ErrValidation)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if view != entity.ViewCreate && d.state != entity.StateAuthenticated {
		return fmt.Errorf("%s: %s requires authentication: %w", op, view, entity.ErrUnauthorized)
	}

	d.view = view
	return nil
}

func (d *Dashboard) Render(w io.Writer) error {
	current := d.View()

	var b strings.Builder
	for i, tab := range d.Tabs() {
		if i > 0 {
			b.WriteString("  ")
		}
		if tab == current {
			fmt.Fprintf(&b, "[%s]", tabTitles[tab])
		} else {
			fmt.Fprintf(&b, " %s ", tabTitles[tab])
		}
	}
	b.WriteByte('\n')

	_, err := io.WriteString(w, b.String())
	return err
}

// Close stops following session transitions.
func (d *Dashboard) Close() {
	if d.unsubscribe != nil {
		d.unsubscribe()
	}
}
