// Package account implements the sign-in, sign-up and settings flows on top
// of the portal auth endpoints. Forms are validated locally before any
// request is made.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MrWong99/tutor/pkg/portal"
)

// Service is the subset of the portal client the flows need.
type Service interface {
	Login(ctx context.Context, cred portal.Credentials) (portal.User, error)
	Register(ctx context.Context, reg portal.Registration) (portal.User, error)
	Logout(ctx context.Context) error
	UserInfo(ctx context.Context) (portal.User, error)
	SelectStandard(ctx context.Context, standard string) error
	UpdateSettings(ctx context.Context, s portal.Settings) error
}

// Destination is the screen a signed-in student continues to.
type Destination int

const (
	// ToStandards means the student still has to pick a standard.
	ToStandards Destination = iota
	// ToSubjects is the subject picker.
	ToSubjects
)

func (d Destination) String() string {
	if d == ToSubjects {
		return "subjects"
	}
	return "standards"
}

// RouteFor returns where u continues after signing in.
func RouteFor(u portal.User) Destination {
	if u.StandardSelected {
		return ToSubjects
	}
	return ToStandards
}

// LoginForm is the sign-in form.
type LoginForm struct {
	Email    string `form:"email" validate:"notblank"`
	Password string `form:"password" validate:"required"`
}

// SignUpForm is the registration form.
type SignUpForm struct {
	Username        string `form:"username" validate:"notblank"`
	Email           string `form:"email" validate:"required,email"`
	Password        string `form:"password" validate:"required"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
	Standard        string `form:"standard" validate:"required,oneof=8th 9th 10th"`
}

// SettingsForm is a settings change. Empty fields stay unchanged, but at
// least one must be set.
type SettingsForm struct {
	Standard string `form:"standard" validate:"omitempty,oneof=8th 9th 10th"`
	Language string `form:"language" validate:"omitempty,oneof=en hi gu"`
}

type standardForm struct {
	Standard string `form:"standard" validate:"required,oneof=8th 9th 10th"`
}

// Flows runs the account operations against a portal [Service].
type Flows struct {
	svc Service
}

// New returns Flows backed by svc.
func New(svc Service) *Flows {
	return &Flows{svc: svc}
}

// Login signs in and reports where the student continues.
func (f *Flows) Login(ctx context.Context, form LoginForm) (portal.User, Destination, error) {
	form.Email = strings.TrimSpace(form.Email)
	if err := check(form); err != nil {
		return portal.User{}, ToStandards, err
	}
	u, err := f.svc.Login(ctx, portal.Credentials{Email: form.Email, Password: form.Password})
	if err != nil {
		return portal.User{}, ToStandards, fmt.Errorf("account: login: %w", err)
	}
	slog.Info("account: signed in", "user", u.Username, "standard", u.Standard)
	return u, RouteFor(u), nil
}

// Resume checks an existing session. It returns an error matching
// [portal.ErrUnauthorized] when there is none.
func (f *Flows) Resume(ctx context.Context) (portal.User, Destination, error) {
	u, err := f.svc.UserInfo(ctx)
	if err != nil {
		return portal.User{}, ToStandards, fmt.Errorf("account: resume: %w", err)
	}
	return u, RouteFor(u), nil
}

// Register creates an account. The student still has to sign in afterwards.
func (f *Flows) Register(ctx context.Context, form SignUpForm) (portal.User, error) {
	form.Username = strings.TrimSpace(form.Username)
	form.Email = strings.TrimSpace(form.Email)
	if err := check(form); err != nil {
		return portal.User{}, err
	}
	u, err := f.svc.Register(ctx, portal.Registration{
		Username: form.Username,
		Email:    form.Email,
		Password: form.Password,
		Standard: form.Standard,
	})
	if err != nil {
		return portal.User{}, fmt.Errorf("account: register: %w", err)
	}
	slog.Info("account: registered", "user", u.Username)
	return u, nil
}

// ChooseStandard sets the standard of a student who has none yet.
func (f *Flows) ChooseStandard(ctx context.Context, standard string) error {
	if err := check(standardForm{Standard: standard}); err != nil {
		return err
	}
	if err := f.svc.SelectStandard(ctx, standard); err != nil {
		return fmt.Errorf("account: select standard: %w", err)
	}
	return nil
}

// UpdateSettings changes the standard and/or language.
func (f *Flows) UpdateSettings(ctx context.Context, form SettingsForm) error {
	if err := check(form); err != nil {
		return err
	}
	if err := f.svc.UpdateSettings(ctx, portal.Settings{Standard: form.Standard, Language: form.Language}); err != nil {
		return fmt.Errorf("account: update settings: %w", err)
	}
	return nil
}

// Logout ends the session. An already expired session is not an error.
func (f *Flows) Logout(ctx context.Context) error {
	if err := f.svc.Logout(ctx); err != nil && !errors.Is(err, portal.ErrUnauthorized) {
		return fmt.Errorf("account: logout: %w", err)
	}
	return nil
}

// Message returns the text to show the student for err.
func Message(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return strings.TrimPrefix(ve.Error(), "account: ")
	}
	var appErr *portal.AppError
	if errors.As(err, &appErr) {
		if m := appErr.UserMessage(); m != "" {
			return m
		}
	}
	return "Network error. Please try again."
}
