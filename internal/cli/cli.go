// Package cli implements the shortener command line front-end.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vadimbarashkov/url-shortener-client/internal/app"
	"github.com/vadimbarashkov/url-shortener-client/internal/clipboard"
	"github.com/vadimbarashkov/url-shortener-client/internal/config"
	"github.com/vadimbarashkov/url-shortener-client/internal/entity"
	"github.com/vadimbarashkov/url-shortener-client/internal/logger"
)

const (
	exitOK       = 0
	exitFailure  = 1
	exitUsage    = 2
	exitCanceled = 130
)

const passwordEnv = "SHORTENER_PASSWORD"

const usage = `usage: shortener [-config path] <command> [flags] [args]

commands:
  status                     validate the stored credentials
  register -email <email>    create an account
  login -email <email>       sign in
  logout                     forget the stored credentials
  shorten [-code c] <url>    create a short link
  links                      list your links
  delete [-yes] <code>       delete one of your links
  apikey create              issue a new API key
  apikey use <key>           sign in with an API key
  copy <text>                copy text to the clipboard

The password is read from $SHORTENER_PASSWORD or prompted for.
`

// deps are the process resources a command runs against.
type deps struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
	clip   clipboard.Writer
	now    func() time.Time
}

// Run parses args, runs the selected command and returns the exit code.
func Run(args []string) int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return run(ctx, args, deps{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		getenv: os.Getenv,
		clip:   clipboard.NewSystem(),
		now:    time.Now,
	})
}

func run(ctx context.Context, args []string, d deps) int {
	fs := flag.NewFlagSet("shortener", flag.ContinueOnError)
	fs.SetOutput(d.stderr)
	fs.Usage = func() { fmt.Fprint(d.stderr, usage) }

	configPath := fs.String("config", d.getenv("CONFIG_PATH"), "path to the YAML config file")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if fs.NArg() == 0 {
		fmt.Fprint(d.stderr, usage)
		return exitUsage
	}

	name, rest := fs.Arg(0), fs.Args()[1:]

	if name == "help" {
		fmt.Fprint(d.stdout, usage)
		return exitOK
	}

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintln(d.stderr, "unknown command:", name)
		fmt.Fprint(d.stderr, usage)
		return exitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(d.stderr, "config error:", err)
		return exitFailure
	}

	log := logger.New(cfg.Log, d.stderr)
	p := newPrompter(d.stdin, d.stdout)

	client, err := app.NewClient(ctx, cfg, log.Logger,
		app.WithClipboard(d.clip),
		app.WithConfirmer(p),
	)
	if err != nil {
		fmt.Fprintln(d.stderr, "error:", err)
		return exitFailure
	}
	defer client.Close()

	c := &command{
		client:   client,
		prompter: p,
		deps:     d,
	}

	return c.exitCode(cmd(ctx, c, rest))
}

// usageError reports bad command line input.
type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

func (c *command) exitCode(err error) int {
	var uerr *usageError

	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &uerr):
		fmt.Fprintln(c.stderr, uerr.msg)
		fmt.Fprint(c.stderr, usage)
		return exitUsage
	case errors.Is(err, context.Canceled), errors.Is(err, entity.ErrNotConfirmed):
		fmt.Fprintln(c.stderr, "canceled")
		return exitCanceled
	default:
		fmt.Fprintln(c.stderr, "error:", err)
		return exitFailure
	}
}
