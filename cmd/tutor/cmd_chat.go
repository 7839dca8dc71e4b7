package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/tutor/internal/account"
	"github.com/MrWong99/tutor/internal/chat"
	"github.com/MrWong99/tutor/internal/config"
	"github.com/MrWong99/tutor/internal/health"
	"github.com/MrWong99/tutor/internal/observe"
	"github.com/MrWong99/tutor/internal/resilience"
	"github.com/MrWong99/tutor/internal/ui"
	"github.com/MrWong99/tutor/pkg/portal"
)

func errInvalidChapter(ref string) error {
	return fmt.Errorf("invalid chapter %q; run \"tutor chapters <subject>\" to list chapter IDs", ref)
}

type chatFlags struct {
	subject     string
	chapter     int64
	metricsAddr string
}

func (c *cli) chatCmd() *cobra.Command {
	var fl chatFlags
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open the chapter picker and chat with the tutor",
		Long: `Opens the full-screen chat. Pick a subject and a chapter, then type a
question and press enter. With voice input configured, ctrl+r starts and stops
recording; the transcription is placed in the input line for review before it
is sent. esc returns to the chapter list, ctrl+c quits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runChat(cmd.Context(), fl)
		},
	}
	f := cmd.Flags()
	f.StringVar(&fl.subject, "subject", "", "subject ID or name to open directly (requires --chapter)")
	f.Int64Var(&fl.chapter, "chapter", 0, "chapter ID to open directly (requires --subject)")
	f.StringVar(&fl.metricsAddr, "metrics-addr", "", "serve /metrics, /healthz and /readyz on this address")
	cmd.MarkFlagsRequiredTogether("subject", "chapter")
	return cmd
}

func (c *cli) runChat(ctx context.Context, fl chatFlags) error {
	s, err := c.openPortal()
	if err != nil {
		return err
	}

	// ── Dashboard bootstrap ───────────────────────────────────────────────────
	var (
		user     portal.User
		subjects []portal.Subject
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rctx, cancel := c.requestContext(gctx)
		defer cancel()
		u, _, err := account.New(s.client).Resume(rctx)
		user = u
		return err
	})
	g.Go(func() error {
		rctx, cancel := c.requestContext(gctx)
		defer cancel()
		var err error
		subjects, err = s.client.Subjects(rctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	if account.RouteFor(user) == account.ToStandards {
		return errors.New(`choose a standard first: tutor settings --standard <8th|9th|10th>`)
	}

	var opts []ui.AppOption
	if fl.subject != "" {
		scope, name, err := c.initialScope(ctx, s.client, fl)
		if err != nil {
			return err
		}
		opts = append(opts, ui.WithInitialChapter(scope, name))
	}

	// ── Voice input ───────────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg, s.client)
	v, err := buildVoice(c.cfg, reg, c.metrics)
	if err != nil {
		slog.Warn("voice input disabled", "err", err)
		v = voice{}
	}

	// ── Telemetry ─────────────────────────────────────────────────────────────
	addr := fl.metricsAddr
	if addr == "" {
		addr = c.cfg.Telemetry.MetricsAddr
	}
	if addr != "" {
		stopServer, err := c.serveMetrics(ctx, addr, s.client)
		if err != nil {
			return err
		}
		defer stopServer()
	}

	// ── Config hot reload ─────────────────────────────────────────────────────
	if _, err := os.Stat(c.configPath); err == nil {
		w, err := config.NewWatcher(c.configPath, c.onConfigChange, config.WithEnv(os.LookupEnv))
		if err != nil {
			slog.Warn("config watcher disabled", "err", err)
		} else {
			defer w.Stop()
		}
	}

	// Log to a file or nowhere while the screen is full.
	restore, err := c.redirectLogs()
	if err != nil {
		return err
	}
	defer restore()

	cfg := c.cfg
	newConv := func(notify func()) ui.Conversation {
		return chat.New(s.client,
			chat.WithObserver(notify),
			chat.WithTimeout(cfg.Chat.Timeout),
			chat.WithRetryPolicy(resilience.RetryPolicy{MaxRetries: cfg.Chat.Retries(), Delay: cfg.Chat.RetryDelay}),
			chat.WithTranscriber(v.transcriber),
			chat.WithDevice(v.device),
			chat.WithLanguage(cfg.Transcription.Language),
			chat.WithMetrics(c.metrics),
		)
	}

	app := ui.NewApp(ctx, s.client, subjects, newConv, opts...)
	p := tea.NewProgram(app,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(c.stdin),
		tea.WithOutput(c.stdout),
	)
	final, err := p.Run()
	if fa, ok := final.(ui.App); ok {
		fa.Close()
	}
	if saveErr := s.file.Save(); saveErr != nil {
		slog.Warn("save session", "err", saveErr)
	}
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// initialScope resolves --subject/--chapter into a chat scope.
func (c *cli) initialScope(ctx context.Context, client *portal.Client, fl chatFlags) (chat.Scope, string, error) {
	if fl.chapter <= 0 {
		return chat.Scope{}, "", errInvalidChapter(fmt.Sprint(fl.chapter))
	}
	rctx, cancel := c.requestContext(ctx)
	defer cancel()
	sub, err := findSubject(rctx, client, fl.subject)
	if err != nil {
		return chat.Scope{}, "", err
	}
	chapters, err := client.Chapters(rctx, sub.ID)
	if err != nil {
		return chat.Scope{}, "", err
	}
	for _, ch := range chapters {
		if ch.ID == fl.chapter {
			return chat.Scope{SubjectID: sub.ID, ChapterID: ch.ID, ChapterTitle: ch.Title}, sub.Name, nil
		}
	}
	return chat.Scope{}, "", errInvalidChapter(fmt.Sprint(fl.chapter))
}

// onConfigChange applies a reloaded config. Only the log level takes effect
// immediately.
func (c *cli) onConfigChange(old, new *config.Config) {
	d := config.Diff(old, new)
	if d.LogLevelChanged {
		c.level.Set(slogLevel(d.NewLogLevel))
		slog.Info("log level changed", "level", d.NewLogLevel)
	}
	if len(d.RestartRequired) > 0 {
		slog.Info("config changed; restart to apply", "sections", d.RestartRequired)
	}
}

// redirectLogs points the default logger at log_file, or discards logs when
// none is configured. The returned func restores stderr logging.
func (c *cli) redirectLogs() (restore func(), err error) {
	var w io.Writer = io.Discard
	var f *os.File
	if path := c.cfg.LogFile; path != "" {
		f, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
	}
	slog.SetDefault(newLogger(w, c.level))
	return func() {
		slog.SetDefault(newLogger(c.stderr, c.level))
		if f != nil {
			_ = f.Close()
		}
	}, nil
}

// serveMetrics starts the OpenTelemetry SDK and an HTTP listener with
// /metrics, /healthz and /readyz. The returned func shuts both down.
func (c *cli) serveMetrics(ctx context.Context, addr string, client *portal.Client) (func(), error) {
	shutdownOTel, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "tutor",
		ServiceVersion: version,
		PortalURL:      client.BaseURL(),
		SampleRatio:    c.cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	health.New(backendCheckers(client, c.cfg.ModelServer.HealthURL)...).Register(mux)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		_ = shutdownOTel(context.Background())
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           observe.Middleware(c.metrics)(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server error", "err", err)
		}
	}()
	slog.Info("metrics server listening", "addr", ln.Addr().String())

	return func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			slog.Warn("metrics server shutdown", "err", err)
		}
		if err := shutdownOTel(sctx); err != nil {
			slog.Warn("telemetry shutdown", "err", err)
		}
	}, nil
}
