package clipboard

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vadimbarashkov/url-shortener-client/internal/entity"
)

func fakeSystem(goos string, env map[string]string, available ...string) *System {
	return &System{
		goos: goos,
		lookPath: func(name string) (string, error) {
			for _, a := range available {
				if a == name {
					return "/usr/bin/" + name, nil
				}
			}
			return "", exec.ErrNotFound
		},
		getenv: func(key string) string {
			return env[key]
		},
	}
}

func TestSystem_command(t *testing.T) {
	tests := []struct {
		name      string
		goos      string
		env       map[string]string
		available []string
		want      string
		wantErr   bool
	}{
		{name: "darwin", goos: "darwin", available: []string{"pbcopy"}, want: "pbcopy"},
		{name: "windows", goos: "windows", available: []string{"clip.exe"}, want: "clip.exe"},
		{name: "wayland", goos: "linux", env: map[string]string{"WAYLAND_DISPLAY": "wayland-0"}, available: []string{"wl-copy", "xclip"}, want: "wl-copy"},
		{name: "x11 ignores wl-copy", goos: "linux", available: []string{"wl-copy", "xclip"}, want: "xclip"},
		{name: "xsel fallback", goos: "linux", available: []string{"xsel"}, want: "xsel"},
		{name: "wsl", goos: "linux", available: []string{"clip.exe"}, want: "clip.exe"},
		{name: "nothing installed", goos: "linux", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := fakeSystem(tt.goos, tt.env, tt.available...).command()

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, cmd.name)
		})
	}
}

func TestSystem_WriteText(t *testing.T) {
	t.Run("no tool", func(t *testing.T) {
		err := fakeSystem("linux", nil).WriteText(context.Background(), "text")

		assert.ErrorIs(t, err, entity.ErrClipboard)
	})
}

func TestMemory(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var m Memory

		err := m.WriteText(context.Background(), "http://sho.rt/abc123")

		assert.NoError(t, err)
		assert.Equal(t, "http://sho.rt/abc123", m.Text())
	})

	t.Run("failure", func(t *testing.T) {
		m := Memory{Err: errors.New("denied")}

		err := m.WriteText(context.Background(), "text")

		assert.ErrorIs(t, err, entity.ErrClipboard)
		assert.Empty(t, m.Text())
	})
}
