package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrWong99/tutor/internal/account"
	"github.com/MrWong99/tutor/pkg/portal"
)

func (c *cli) loginCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the portal and keep the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.openPortal()
			if err != nil {
				return err
			}
			p := c.prompter()
			if email, err = p.valueOr(email, "Email"); err != nil {
				return err
			}
			password, err := p.secret("Password")
			if err != nil {
				return err
			}

			ctx, cancel := c.requestContext(cmd.Context())
			defer cancel()
			flows := account.New(s.client)
			u, dest, err := flows.Login(ctx, account.LoginForm{Email: email, Password: password})
			if err != nil {
				return err
			}
			if err := s.file.Save(); err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "Signed in as %s.\n", u.Username)

			if dest == account.ToStandards {
				std, err := p.line("Choose your standard ("+strings.Join(account.Standards, ", ")+")", "")
				if err != nil {
					return err
				}
				if err := flows.ChooseStandard(ctx, std); err != nil {
					return err
				}
				fmt.Fprintf(c.stdout, "Standard set to %s.\n", std)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email (prompted when empty)")
	return cmd
}

func (c *cli) signupCmd() *cobra.Command {
	var form account.SignUpForm
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a portal account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.openPortal()
			if err != nil {
				return err
			}
			p := c.prompter()
			if form.Username, err = p.valueOr(form.Username, "Username"); err != nil {
				return err
			}
			if form.Email, err = p.valueOr(form.Email, "Email"); err != nil {
				return err
			}
			if form.Password, err = p.secret("Password"); err != nil {
				return err
			}
			if form.ConfirmPassword, err = p.secret("Confirm password"); err != nil {
				return err
			}
			if form.Standard, err = p.valueOr(form.Standard, "Standard ("+strings.Join(account.Standards, ", ")+")"); err != nil {
				return err
			}

			ctx, cancel := c.requestContext(cmd.Context())
			defer cancel()
			u, err := account.New(s.client).Register(ctx, form)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "Account %s created. Sign in with \"tutor login\".\n", u.Username)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&form.Username, "username", "", "username (prompted when empty)")
	f.StringVar(&form.Email, "email", "", "email (prompted when empty)")
	f.StringVar(&form.Standard, "standard", "", "standard: "+strings.Join(account.Standards, ", "))
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.openPortal()
			if err != nil {
				return err
			}
			ctx, cancel := c.requestContext(cmd.Context())
			defer cancel()
			if err := account.New(s.client).Logout(ctx); err != nil {
				return err
			}
			if err := s.file.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(c.stdout, "Signed out.")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in student",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.openPortal()
			if err != nil {
				return err
			}
			ctx, cancel := c.requestContext(cmd.Context())
			defer cancel()
			u, _, err := account.New(s.client).Resume(ctx)
			if err != nil {
				return err
			}
			printUser(c, u)
			return nil
		},
	}
}

func printUser(c *cli, u portal.User) {
	std := u.Standard
	if !u.StandardSelected || std == "" {
		std = "(not chosen)"
	}
	lang := u.Language
	if lang == "" {
		lang = "en"
	}
	fmt.Fprintf(c.stdout, "User:     %s\nEmail:    %s\nStandard: %s\nLanguage: %s\n", u.Username, u.Email, std, lang)
}

func (c *cli) settingsCmd() *cobra.Command {
	var form account.SettingsForm
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Change the standard or the preferred language",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.openPortal()
			if err != nil {
				return err
			}
			ctx, cancel := c.requestContext(cmd.Context())
			defer cancel()
			if err := account.New(s.client).UpdateSettings(ctx, form); err != nil {
				return err
			}
			fmt.Fprintln(c.stdout, "Settings updated.")
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&form.Standard, "standard", "", "new standard: "+strings.Join(account.Standards, ", "))
	f.StringVar(&form.Language, "language", "", "preferred language: "+strings.Join(account.Languages, ", "))
	return cmd
}
