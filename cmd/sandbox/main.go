package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nimasrn/hire-gateway/internal/config"
	"github.com/nimasrn/hire-gateway/internal/sandbox"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// The sandbox stands in for Daraja during local runs: it issues OAuth
// tokens and posts C2B confirmations to the gateway callback.
func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := config.Load(config.EnvPathFromArgs(os.Args)); err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	cfg := config.Get()

	log.Info().
		Str("addr", cfg.SandboxListenAddr).
		Str("callback", cfg.SandboxCallbackURL).
		Int("duplicate_bps", cfg.SandboxDuplicateBps).
		Msg("starting daraja sandbox")

	d := sandbox.NewDaraja(sandbox.Config{
		CallbackURL:  cfg.SandboxCallbackURL,
		DuplicateBps: cfg.SandboxDuplicateBps,
	})

	srv := &http.Server{
		Addr:         cfg.SandboxListenAddr,
		Handler:      d.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("sandbox exited")
}
