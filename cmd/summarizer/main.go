package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/klotz/summarizer-service/internal/api"
	"github.com/klotz/summarizer-service/internal/cards"
	"github.com/klotz/summarizer-service/internal/config"
	"github.com/klotz/summarizer-service/internal/logger"
	"github.com/klotz/summarizer-service/internal/session"
	"github.com/klotz/summarizer-service/internal/session/memory"
	"github.com/klotz/summarizer-service/internal/session/postgres"
	redisstore "github.com/klotz/summarizer-service/internal/session/redis"
	"github.com/klotz/summarizer-service/internal/tools"
	"github.com/klotz/summarizer-service/internal/views"
)

const sessionPruneInterval = time.Hour

type server interface {
	Start(ctx context.Context, addr string) error
}

var (
	loadConfig  = config.Load
	newLogger   = logger.New
	newStore    = openStore
	newRenderer = views.New
	newServer   = func(app *cards.App, store session.Store, renderer *views.Renderer, cfg config.Config) server {
		return api.NewServer(app, store, renderer, cfg)
	}
	toolAvailability = tools.Availability
	notifyContext    = signal.NotifyContext
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "summarizer",
		Short:        "Web front end for the summarize, ask and bookmark tools",
		SilenceUsage: true,
		RunE: func(*cobra.Command, []string) error {
			return run()
		},
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the card pages",
			RunE: func(*cobra.Command, []string) error {
				return run()
			},
		},
		&cobra.Command{
			Use:   "tools",
			Short: "Report which tool binaries resolve on PATH",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				reportTools(cmd.OutOrStdout(), cfg)
				return nil
			},
		},
	)
	return root
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	ctx, cancel := notifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := newStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	renderer, err := newRenderer()
	if err != nil {
		return err
	}

	availability := toolAvailability(cfg)
	for _, id := range tools.AllIDs {
		if err := availability[id]; err != nil {
			log.Warn().Str("tool", string(id)).Err(err).Msg("tool binary not found")
		}
	}

	client := tools.NewClient(tools.NewInvoker(cfg, log), tools.ClientConfig{
		Via:          cfg.Via,
		ModelType:    cfg.ModelType,
		ProbeTimeout: cfg.ProbeTimeout,
	}, log)
	app := &cards.App{
		Tools: client,
		Settings: cards.Settings{
			Via:            cfg.Via,
			ModelType:      cfg.ModelType,
			ModelLink:      cfg.ModelLink(),
			ScuttleBaseURL: cfg.ScuttleBaseURL,
		},
		Log: log,
	}

	srv := newServer(app, store, renderer, cfg)
	log.Info().Str("addr", cfg.Addr()).Str("sessions", cfg.SessionBackend).Msg("summarizer listening")
	return srv.Start(ctx, cfg.Addr())
}

func openStore(ctx context.Context, cfg config.Config, log zerolog.Logger) (session.Store, func(), error) {
	noop := func() {}
	switch cfg.SessionBackend {
	case config.BackendRedis:
		st, err := redisstore.New(ctx, cfg.RedisURL, cfg.SessionTTL, cfg.SessionLockTTL, log)
		if err != nil {
			return nil, noop, err
		}
		return st, func() { _ = st.Close() }, nil
	case config.BackendPostgres:
		st, err := postgres.New(cfg.PostgresURL, cfg.SessionTTL)
		if err != nil {
			return nil, noop, err
		}
		go st.RunPruner(ctx, sessionPruneInterval, log)
		return st, func() { _ = st.Close() }, nil
	default:
		st, err := memory.New(cfg.SessionMaxEntries)
		if err != nil {
			return nil, noop, err
		}
		return st, noop, nil
	}
}

func reportTools(out io.Writer, cfg config.Config) {
	binaries := tools.Binaries(cfg)
	availability := toolAvailability(cfg)
	for _, id := range tools.AllIDs {
		status := "ok"
		if err := availability[id]; err != nil {
			status = err.Error()
		}
		fmt.Fprintf(out, "%-14s %-20s %s\n", id, binaries[id], status)
	}
}
