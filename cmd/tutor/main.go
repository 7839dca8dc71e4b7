// Command tutor is a terminal client for the AI tutor portal: sign in, pick a
// chapter, chat with the tutor by text or voice, and take generated tests.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MrWong99/tutor/internal/account"
	"github.com/MrWong99/tutor/internal/config"
	"github.com/MrWong99/tutor/internal/observe"
	"github.com/MrWong99/tutor/internal/quiz"
	"github.com/MrWong99/tutor/pkg/portal"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := newCLI(os.Stdin, os.Stdout, os.Stderr)
	if err := c.root().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return 130
		}
		fmt.Fprintf(c.stderr, "tutor: %s\n", userMessage(err))
		slog.Debug("command failed", "err", err)
		return 1
	}
	return 0
}

// cli holds what every subcommand shares: the resolved config, the logger
// level and the standard streams.
type cli struct {
	configPath string
	logLevel   string

	cfg     *config.Config
	level   *slog.LevelVar
	metrics *observe.Metrics

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func newCLI(stdin io.Reader, stdout, stderr io.Writer) *cli {
	return &cli{
		configPath: config.DefaultPath(),
		level:      new(slog.LevelVar),
		stdin:      stdin,
		stdout:     stdout,
		stderr:     stderr,
	}
}

func (c *cli) root() *cobra.Command {
	root := &cobra.Command{
		Use:   "tutor",
		Short: "Terminal client for the AI tutor portal",
		Long: `tutor talks to the AI tutor portal from the terminal.

Sign in once with "tutor login"; the session is kept until "tutor logout".
"tutor chat" opens the chapter picker and the chat screen, where ctrl+r
records a spoken question. "tutor quiz <chapter>" runs a generated test.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	root.SetIn(c.stdin)
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", c.configPath, "path to the YAML configuration file")
	pf.StringVar(&c.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		c.loginCmd(),
		c.signupCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.settingsCmd(),
		c.subjectsCmd(),
		c.chaptersCmd(),
		c.chatCmd(),
		c.quizCmd(),
		c.doctorCmd(),
	)
	return root
}

// setup resolves the configuration and installs the logger.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Resolve(c.configPath)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		lvl := config.LogLevel(c.logLevel)
		if !lvl.IsValid() {
			return fmt.Errorf("invalid --log-level %q", c.logLevel)
		}
		cfg.LogLevel = lvl
	}
	c.cfg = cfg
	c.level.Set(slogLevel(cfg.LogLevel))
	slog.SetDefault(newLogger(c.stderr, c.level))
	c.metrics = observe.DefaultMetrics()

	slog.Debug("configuration resolved",
		"config", c.configPath,
		"portal", cfg.Portal.BaseURL,
		"audio", cfg.Audio.Name,
		"log_level", cfg.LogLevel,
	)
	return nil
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// userMessage turns err into the line printed before exiting.
func userMessage(err error) string {
	var qe *quiz.Error
	switch {
	case errors.Is(err, portal.ErrUnauthorized):
		return `not signed in; run "tutor login" first`
	case errors.As(err, &qe):
		return qe.Message
	}
	var ve *account.ValidationError
	var appErr *portal.AppError
	if errors.As(err, &ve) || errors.As(err, &appErr) {
		return account.Message(err)
	}
	return err.Error()
}
