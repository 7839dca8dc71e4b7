package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/MrWong99/tutor/internal/account"
	"github.com/MrWong99/tutor/internal/health"
	"github.com/MrWong99/tutor/pkg/portal"
)

// pinger is the part of the portal client the reachability checks need.
type pinger interface {
	Ping(ctx context.Context, target string) error
	BaseURL() string
	QuizURL() string
}

// backendCheckers returns the reachability checks of the portal, the model
// server and the test-generation server.
func backendCheckers(p pinger, healthURL string) []health.Checker {
	ping := func(target string) func(context.Context) error {
		return func(ctx context.Context) error { return p.Ping(ctx, target) }
	}
	checks := []health.Checker{
		{Name: "portal", Check: ping(p.BaseURL() + "/")},
		{Name: "test server", Check: ping(p.QuizURL() + "/")},
	}
	if healthURL != "" {
		checks = append(checks, health.Checker{Name: "model server", Check: ping(healthURL)})
	}
	return checks
}

func (c *cli) doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the portal and AI servers are reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.openPortal()
			if err != nil {
				return err
			}
			checks := backendCheckers(s.client, c.cfg.ModelServer.HealthURL)
			var who string
			checks = append(checks, health.Checker{Name: "session", Check: func(ctx context.Context) error {
				u, _, err := account.New(s.client).Resume(ctx)
				if err != nil {
					return err
				}
				who = u.Username
				return nil
			}})

			rep := health.Run(cmd.Context(), checks...)
			fmt.Fprint(c.stdout, formatReport(rep))
			if who != "" {
				fmt.Fprintf(c.stdout, "Signed in as %s.\n", who)
			}
			if !rep.OK() {
				return errors.New("some checks failed")
			}
			return nil
		},
	}
}

func formatReport(rep health.Report) string {
	ok := lipgloss.NewStyle().Foreground(lipgloss.Color("#16A34A")).Render("ok  ")
	fail := lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626")).Render("FAIL")
	var out string
	for _, r := range rep.Results {
		if r.OK() {
			out += fmt.Sprintf("%s %-13s %s\n", ok, r.Name, r.Duration.Round(time.Millisecond))
			continue
		}
		msg := r.Err.Error()
		if errors.Is(r.Err, portal.ErrUnauthorized) {
			msg = `not signed in; run "tutor login"`
		}
		out += fmt.Sprintf("%s %-13s %s\n", fail, r.Name, msg)
	}
	return out
}
