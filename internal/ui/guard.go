// Package ui holds the presentation state of the terminal client. Each type
// reflects the session and the results of remote operations and renders
// itself as text.
package ui

import (
	"fmt"
	"sync/atomic"

	"github.com/vadimbarashkov/url-shortener-client/internal/entity"
)

// Guard disables a control while its request is outstanding.
type Guard struct {
	busy atomic.Bool
}

// Do runs fn unless a previous call is still running, in which case it fails
// with entity.ErrBusy.
func (g *Guard) Do(name string, fn func() error) error {
	if !g.busy.CompareAndSwap(false, true) {
		return fmt.Errorf("ui: %s: %w", name, entity.ErrBusy)
	}
	defer g.busy.Store(false)

	return fn()
}

// Busy reports whether a request is outstanding.
func (g *Guard) Busy() bool {
	return g.busy.Load()
}
