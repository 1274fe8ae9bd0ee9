package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"quaver/internal/config"
	"quaver/internal/discord"
	"quaver/internal/logging"
	"quaver/internal/storage"
	"quaver/pkg/jobmgr"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		fallback := logging.New("info", "")
		fallback.Fatal().Err(err).Msg("failed to load config")
	}

	log := logging.New(cfg.LogLevel, cfg.LogFile)
	log.Info().Msg("starting quaver")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.New(cfg.StoragePath, cfg.SaveInterval, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}
	defer store.Close()

	jobmgr.DefaultManager.Reporter = func(msg string) {
		log.Debug().Str("job", msg).Msg("job status")
	}

	bot := discord.NewBot(cfg, store, log)

	errCh := make(chan error, 1)
	go func() {
		if err := bot.Run(ctx); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Info().Str("signal", s.String()).Msg("shutting down")
		cancel()
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("discord bot error")
		}
		cancel()
	case <-ctx.Done():
	}

	log.Info().Msg("discord bot exited cleanly")
}
