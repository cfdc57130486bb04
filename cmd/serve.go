package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mathmaster/mathmaster/internal/config"
	"github.com/mathmaster/mathmaster/internal/events"
	"github.com/mathmaster/mathmaster/internal/game"
	"github.com/mathmaster/mathmaster/internal/leaderboard"
	"github.com/mathmaster/mathmaster/internal/llm"
	"github.com/mathmaster/mathmaster/internal/logger"
	"github.com/mathmaster/mathmaster/internal/metrics"
	"github.com/mathmaster/mathmaster/internal/scheduler"
	"github.com/mathmaster/mathmaster/internal/server"
	"github.com/mathmaster/mathmaster/internal/store"
	"github.com/mathmaster/mathmaster/internal/tutor"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}
		cfg, err := config.Load(files...)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if p, _ := cmd.Flags().GetString("port"); p != "" {
			cfg.Port = p
		}
		if cmd.Flags().Changed("db") || cmd.Flags().Changed("db-driver") {
			cfg.DBDriver, cfg.DBDSN, err = resolveDB(cmd)
			if err != nil {
				return fmt.Errorf("resolve database: %w", err)
			}
		}

		log, err := logger.New(cfg.Env)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		defer log.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cfg, log)
	},
}

func serve(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	st, err := store.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()
	log.Info("database ready", "driver", cfg.DBDriver)

	m := metrics.New()

	provider, err := llm.New(ctx, cfg.LLM, st, log)
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		log.Info("no LLM provider configured, explanations use the generator text")
	case err != nil:
		return fmt.Errorf("init LLM provider: %w", err)
	default:
		log.Info("LLM provider ready", "provider", cfg.LLM.Provider)
	}
	tut := tutor.NewService(provider, tutor.DefaultConfig(), log.With("component", "tutor"))

	var board leaderboard.Board = leaderboard.NewStoreBoard(st)
	if cfg.RedisURL != "" {
		rb, err := leaderboard.NewRedisBoard(ctx, cfg.RedisURL, board)
		if err != nil {
			log.Warn("redis unavailable, ranking reads from the database", "error", err)
		} else {
			defer rb.Close()
			board = rb
			log.Info("redis leaderboard ready")
		}
	}

	var pub events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		ap, err := events.NewAMQPPublisher(cfg.AMQPURL)
		if err != nil {
			log.Warn("event broker unavailable, events are dropped", "error", err)
		} else {
			pub = ap
			log.Info("event publisher ready", "exchange", events.Exchange)
		}
	}
	defer pub.Close()

	svc := game.New(game.Deps{
		Store:   st,
		Board:   board,
		Events:  pub,
		Metrics: m,
		Tutor:   tut,
		Logger:  log.With("component", "game"),
	})

	schedCfg := scheduler.DefaultConfig()
	schedCfg.IdleTimeout = cfg.SessionIdleTimeout
	sched := scheduler.New(st, schedCfg, m, log.With("component", "scheduler"))
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	srv := server.New(server.Config{
		Port:        cfg.Port,
		CORSOrigins: cfg.CORSOrigins,
		Production:  cfg.IsProduction(),
	}, svc, st, m, log)
	return srv.Run(ctx)
}

func init() {
	serveCmd.Flags().String("port", "", "HTTP port (overrides PORT env var)")
	serveCmd.Flags().String("env-file", "", "Load variables from this .env file instead of ./.env")
}
