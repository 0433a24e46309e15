package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vadimbarashkov/url-shortener-client/internal/entity"
	"github.com/vadimbarashkov/url-shortener-client/internal/gateway"
)

// Authenticator performs login and registration.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (entity.AuthResult, error)
	Register(ctx context.Context, email, password string) (entity.AuthResult, error)
}

type AuthMode int

const (
	ModeLogin AuthMode = iota
	ModeRegister
)

func (m AuthMode) String() string {
	if m == ModeRegister {
		return "register"
	}
	return "login"
}

// AuthForm is the login/register form.
type AuthForm struct {
	auth  Authenticator
	guard Guard
	mode  AuthMode

	Email           string
	Password        string
	ConfirmPassword string

	err     error
	success string
}

func NewAuthForm(a Authenticator, mode AuthMode) *AuthForm {
	return &AuthForm{auth: a, mode: mode}
}

func (f *AuthForm) Mode() AuthMode {
	return f.mode
}

// Toggle switches between login and register and clears the passwords.
func (f *AuthForm) Toggle() {
	if f.mode == ModeLogin {
		f.mode = ModeRegister
	} else {
		f.mode = ModeLogin
	}

	f.Password = ""
	f.ConfirmPassword = ""
	f.err = nil
	f.success = ""
}

func (f *AuthForm) Title() string {
	if f.mode == ModeRegister {
		return "Create Account"
	}
	return "Welcome Back"
}

// Submit sends the form. Registration requires the password confirmation to match.
func (f *AuthForm) Submit(ctx context.Context) (entity.AuthResult, error) {
	const op = "ui.AuthForm.Submit"

	var res entity.AuthResult

	err := f.guard.Do(f.mode.String(), func() error {
		f.err = nil
		f.success = ""

		if strings.TrimSpace(f.Email) == "" || f.Password == "" {
			return &FormError{Op: op, Message: "Email and password are required", Kind: entity.ErrValidation}
		}

		if f.mode == ModeRegister && f.Password != f.ConfirmPassword {
			return &FormError{Op: op, Message: "Passwords do not match", Kind: entity.ErrValidation}
		}

		var err error
		if f.mode == ModeRegister {
			res, err = f.auth.Register(ctx, f.Email, f.Password)
		} else {
			res, err = f.auth.Login(ctx, f.Email, f.Password)
		}
		if err != nil {
			return err
		}

		f.Password = ""
		f.ConfirmPassword = ""

		return nil
	})
	if err != nil {
		if !errors.Is(err, entity.ErrBusy) {
			f.err = err
		}
		return entity.AuthResult{}, err
	}

	if f.mode == ModeRegister {
		f.success = "Registration successful! You can now create URLs."
	} else {
		f.success = "Login successful! You can now create URLs."
	}

	return res, nil
}

// Status returns the message to show under the form.
func (f *AuthForm) Status() string {
	if f.err != nil {
		return Message(f.err, "Failed to "+f.mode.String())
	}
	return f.success
}

func (f *AuthForm) Err() error {
	return f.err
}

// FormError is a failure detected before anything is sent.
type FormError struct {
	Op      string
	Message string
	Kind    error
}

func (e *FormError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Kind)
}

func (e *FormError) Unwrap() error {
	return e.Kind
}

// Message returns the user-facing message of a form or gateway failure, or fallback.
func Message(err error, fallback string) string {
	var formErr *FormError
	if errors.As(err, &formErr) {
		return formErr.Message
	}

	var gwErr *gateway.Error
	if errors.As(err, &gwErr) && gwErr.Message != "" {
		return gwErr.Message
	}

	return fallback
}
