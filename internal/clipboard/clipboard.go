// Package clipboard copies text to the local system clipboard.
package clipboard

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/vadimbarashkov/url-shortener-client/internal/entity"
)

// Writer puts text on a clipboard.
type Writer interface {
	WriteText(ctx context.Context, text string) error
}

type command struct {
	name string
	args []string
}

// System writes to the clipboard through the platform copy tool.
type System struct {
	goos     string
	lookPath func(string) (string, error)
	getenv   func(string) string
}

func NewSystem() *System {
	return &System{
		goos:     runtime.GOOS,
		lookPath: exec.LookPath,
		getenv:   os.Getenv,
	}
}

func (s *System) WriteText(ctx context.Context, text string) error {
	const op = "clipboard.System.WriteText"

	cmd, err := s.command()
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, entity.ErrClipboard, err)
	}

	c := exec.CommandContext(ctx, cmd.name, cmd.args...)
	c.Stdin = strings.NewReader(text)

	var stderr bytes.Buffer
	c.Stderr = &stderr

	if err := c.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s: %s", op, entity.ErrClipboard, cmd.name, msg)
		}
		return fmt.Errorf("%s: %w: %s: %w", op, entity.ErrClipboard, cmd.name, err)
	}

	return nil
}

func (s *System) command() (command, error) {
	var candidates []command

	switch s.goos {
	case "darwin":
		candidates = []command{{name: "pbcopy"}}
	case "windows":
		candidates = []command{{name: "clip.exe"}}
	default:
		if s.getenv("WAYLAND_DISPLAY") != "" {
			candidates = append(candidates, command{name: "wl-copy"})
		}
		candidates = append(candidates,
			command{name: "xclip", args: []string{"-selection", "clipboard"}},
			command{name: "xsel", args: []string{"--clipboard", "--input"}},
			command{name: "clip.exe"},
		)
	}

	for _, c := range candidates {
		if _, err := s.lookPath(c.name); err == nil {
			return c, nil
		}
	}

	return command{}, fmt.Errorf("no clipboard tool found for %s", s.goos)
}

// Memory is an in-process clipboard.
type Memory struct {
	mu   sync.Mutex
	text string
	Err  error // Err, when set, is returned by every write.
}

func (m *Memory) WriteText(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return fmt.Errorf("clipboard.Memory.WriteText: %w: %w", entity.ErrClipboard, m.Err)
	}

	m.text = text
	return nil
}

// Text returns the last text written.
func (m *Memory) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.text
}
