package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vadimbarashkov/url-shortener-client/internal/app"
	"github.com/vadimbarashkov/url-shortener-client/internal/entity"
	"github.com/vadimbarashkov/url-shortener-client/internal/ui"
)

type command struct {
	client *app.Client
	*prompter
	deps
}

type commandFunc func(ctx context.Context, c *command, args []string) error

var commands = map[string]commandFunc{
	"status":   runStatus,
	"register": runRegister,
	"login":    runLogin,
	"logout":   runLogout,
	"shorten":  runShorten,
	"links":    runLinks,
	"delete":   runDelete,
	"apikey":   runAPIKey,
	"copy":     runCopy,
}

// failure carries the message shown to the user for a failed command.
type failure struct {
	msg string
	err error
}

func (f *failure) Error() string {
	return f.msg
}

func (f *failure) Unwrap() error {
	return f.err
}

func fail(msg string, err error) error {
	return &failure{msg: msg, err: err}
}

func (c *command) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return &usageError{msg: fmt.Sprintf("%s: %v", fs.Name(), err)}
	}
	return nil
}

// authenticate settles the session from the stored credentials. A probe that
// cannot reach the service is reported but does not stop public commands.
func (c *command) authenticate(ctx context.Context) entity.Validity {
	v, err := c.client.Session.ValidateSession(ctx)
	if err != nil {
		fmt.Fprintln(c.stderr, "warning: could not validate session:", err)
	}
	return v
}

func (c *command) requireView(ctx context.Context, view entity.View) error {
	c.authenticate(ctx)

	if err := c.client.Dashboard.Select(view); err != nil {
		return fail("Please log in or use an API key first", err)
	}
	return nil
}

func runStatus(ctx context.Context, c *command, args []string) error {
	if err := parse(c.flags("status"), args); err != nil {
		return err
	}

	v := c.authenticate(ctx)

	if err := c.client.Header.Render(ctx, c.stdout); err != nil {
		return err
	}
	if err := c.client.Dashboard.Render(c.stdout); err != nil {
		return err
	}

	fmt.Fprintf(c.stdout, "session: %s\n", v)

	if v == entity.Unreachable {
		return fail("Service unavailable", entity.ErrServiceUnavailable)
	}
	return nil
}

func runRegister(ctx context.Context, c *command, args []string) error {
	return c.submitAuth(ctx, ui.ModeRegister, args)
}

func runLogin(ctx context.Context, c *command, args []string) error {
	return c.submitAuth(ctx, ui.ModeLogin, args)
}

func (c *command) submitAuth(ctx context.Context, mode ui.AuthMode, args []string) error {
	fs := c.flags(mode.String())
	email := fs.String("email", "", "account email")
	if err := parse(fs, args); err != nil {
		return err
	}

	form := c.client.Auth
	if form.Mode() != mode {
		form.Toggle()
	}

	form.Email = strings.TrimSpace(*email)
	if form.Email == "" {
		e, err := c.line("Email: ")
		if err != nil {
			return err
		}
		form.Email = e
	}

	password, err := c.password("Password: ")
	if err != nil {
		return err
	}
	form.Password = password

	if mode == ui.ModeRegister {
		form.ConfirmPassword = password
		if c.getenv(passwordEnv) == "" {
			if form.ConfirmPassword, err = c.secret("Confirm password: "); err != nil {
				return err
			}
		}
	}

	if _, err := form.Submit(ctx); err != nil {
		return fail(form.Status(), err)
	}

	fmt.Fprintln(c.stdout, form.Status())
	return c.client.Header.Render(ctx, c.stdout)
}

func (c *command) password(label string) (string, error) {
	if p := c.getenv(passwordEnv); p != "" {
		return p, nil
	}
	return c.secret(label)
}

func runLogout(ctx context.Context, c *command, args []string) error {
	if err := parse(c.flags("logout"), args); err != nil {
		return err
	}

	c.client.Session.Logout(ctx)

	fmt.Fprintln(c.stdout, "Logged out")
	return nil
}

func runShorten(ctx context.Context, c *command, args []string) error {
	fs := c.flags("shorten")
	code := fs.String("code", "", "custom short code")
	if err := parse(fs, args); err != nil {
		return err
	}

	if fs.NArg() != 1 {
		return &usageError{msg: "shorten: exactly one url is required"}
	}

	c.authenticate(ctx)

	form := c.client.Create

	if _, err := form.Submit(ctx, entity.CreateLinkRequest{LongURL: fs.Arg(0), ShortCode: *code}); err != nil {
		return fail(form.Status(), err)
	}

	return form.Render(c.stdout)
}

func runLinks(ctx context.Context, c *command, args []string) error {
	if err := parse(c.flags("links"), args); err != nil {
		return err
	}

	if err := c.requireView(ctx, entity.ViewList); err != nil {
		return err
	}

	list := c.client.Links
	if err := list.Load(ctx); err != nil {
		_ = list.Render(c.stderr, c.now())
		return fail("Failed to fetch links", err)
	}

	return list.Render(c.stdout, c.now())
}

func runDelete(ctx context.Context, c *command, args []string) error {
	fs := c.flags("delete")
	yes := fs.Bool("yes", false, "do not ask for confirmation")
	if err := parse(fs, args); err != nil {
		return err
	}

	if fs.NArg() != 1 {
		return &usageError{msg: "delete: exactly one short code is required"}
	}

	if err := c.requireView(ctx, entity.ViewList); err != nil {
		return err
	}

	c.assumeYes = *yes

	list := c.client.Links
	if err := list.Delete(ctx, fs.Arg(0)); err != nil {
		if listErr := list.Err(); listErr != nil {
			return fail(ui.Message(listErr, "Failed to delete link"), err)
		}
		return err
	}

	fmt.Fprintln(c.stdout, "Link deleted")
	return nil
}

func runAPIKey(ctx context.Context, c *command, args []string) error {
	if len(args) == 0 {
		return &usageError{msg: "apikey: subcommand required (create or use)"}
	}

	panel := c.client.APIKeys

	switch args[0] {
	case "create":
		if err := parse(c.flags("apikey create"), args[1:]); err != nil {
			return err
		}

		if err := c.requireView(ctx, entity.ViewAPIKeys); err != nil {
			return err
		}

		if _, err := panel.Create(ctx); err != nil {
			return fail(panel.Status(), err)
		}

		fmt.Fprintln(c.stdout, panel.Status())

		if err := panel.Copy(ctx); err != nil {
			fmt.Fprintln(c.stderr, "warning:", panel.Status())
		}

		return panel.Render(c.stdout)
	case "use":
		fs := c.flags("apikey use")
		if err := parse(fs, args[1:]); err != nil {
			return err
		}

		if fs.NArg() != 1 {
			return &usageError{msg: "apikey use: exactly one key is required"}
		}

		if err := panel.Use(ctx, fs.Arg(0)); err != nil {
			return fail(panel.Status(), err)
		}

		fmt.Fprintln(c.stdout, panel.Status())
		return c.client.Header.Render(ctx, c.stdout)
	default:
		return &usageError{msg: "apikey: unknown subcommand " + args[0]}
	}
}

func runCopy(ctx context.Context, c *command, args []string) error {
	fs := c.flags("copy")
	if err := parse(fs, args); err != nil {
		return err
	}

	if fs.NArg() == 0 {
		return &usageError{msg: "copy: text is required"}
	}

	if err := c.client.Links.Copy(ctx, strings.Join(fs.Args(), " ")); err != nil {
		return fail("Failed to copy to clipboard", err)
	}

	fmt.Fprintln(c.stdout, "Link copied to clipboard!")
	return nil
}
