package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

type prompter struct {
	in  *bufio.Reader
	out io.Writer
	tty *os.File // tty is the terminal behind in, nil when input is not interactive.

	assumeYes bool
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{in: bufio.NewReader(in), out: out}

	if f, ok := in.(*os.File); ok && isTerminal(f) {
		p.tty = f
	}

	return p
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func (p *prompter) line(label string) (string, error) {
	if _, err := fmt.Fprint(p.out, label); err != nil {
		return "", err
	}

	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}

	return strings.TrimSpace(line), nil
}

// secret reads a line with terminal echo turned off when possible.
func (p *prompter) secret(label string) (string, error) {
	if p.tty != nil {
		if err := p.setEcho(false); err == nil {
			defer func() {
				_ = p.setEcho(true)
				_, _ = fmt.Fprintln(p.out)
			}()
		}
	}

	return p.line(label)
}

func (p *prompter) setEcho(enable bool) error {
	arg := "-echo"
	if enable {
		arg = "echo"
	}

	cmd := exec.Command("stty", arg)
	cmd.Stdin = p.tty

	return cmd.Run()
}

// Confirm asks a yes/no question; anything but y or yes is a no.
func (p *prompter) Confirm(_ context.Context, question string) (bool, error) {
	if p.assumeYes {
		return true, nil
	}

	answer, err := p.line(question + " [y/N]: ")
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}

	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
