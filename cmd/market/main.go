package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mimir/internal/config"
	"mimir/internal/sim"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML simulation config (defaults are used when empty)")
	duration := flag.Duration("duration", 0, "Override the configured run duration (0 keeps the config value)")
	level := flag.String("level", "info", "Log level: ['debug', 'info', 'warn', 'error']")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	lvl, err := zerolog.ParseLevel(*level)
	if err != nil {
		log.Fatal().Err(err).Str("level", *level).Msg("invalid log level")
	}
	zerolog.SetGlobalLevel(lvl)

	cfg := config.Default()
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("unable to load config")
		}
	}
	if *duration > 0 {
		cfg.Duration = *duration
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	if cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Duration)
		defer cancel()
	}

	runner, err := sim.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to build simulation")
	}

	// Block on running the simulation.
	summary, err := runner.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("simulation failed")
	}
	for _, account := range summary.Accounts {
		log.Info().
			Int("broker", account.ID).
			Float64("cash", account.Cash).
			Int64("inventory", account.Inventory).
			Msg("final account")
	}
}
