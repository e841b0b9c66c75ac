package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	zerologlog "github.com/rs/zerolog/log"
	"github.com/tarantool/go-tarantool/v2"

	"github.com/Xausdorf/decision-room/internal/config"
	"github.com/Xausdorf/decision-room/internal/gateway/bot"
	"github.com/Xausdorf/decision-room/internal/gateway/rest"
	"github.com/Xausdorf/decision-room/internal/random"
	"github.com/Xausdorf/decision-room/internal/repository/badgeradapter"
	"github.com/Xausdorf/decision-room/internal/repository/memory"
	"github.com/Xausdorf/decision-room/internal/repository/ttadapter"
	"github.com/Xausdorf/decision-room/internal/tiebreak"
	"github.com/Xausdorf/decision-room/internal/usecase"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const (
	ttReconnectSeconds = 3
	ttMaxRecconects    = 5
	shutdownTimeout    = 10 * time.Second
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "decision-room terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	zerolog.TimeFieldFormat = time.RFC3339
	zerologlog.Logger = zerologlog.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return exitConfig, err
	}
	zerolog.SetGlobalLevel(cfg.ZerologLevel())
	logger := zerologlog.Logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	adapter, closeStorage, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return exitRuntime, err
	}
	defer closeStorage()

	repo := memory.NewRoomRepository(adapter, logger.With().Str("component", "repository").Logger(), cfg.PersistTimeout)
	if err = repo.Load(ctx); err != nil {
		return exitRuntime, err
	}
	persistDone := make(chan struct{})
	go func() {
		repo.Run(ctx)
		close(persistDone)
	}()

	rooms := usecase.NewRoom(repo, tiebreak.NewSelector(random.NewSource()), logger.With().Str("component", "rooms").Logger())

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           rest.NewHandler(rooms, logger.With().Str("component", "http").Logger(), cfg.TiebreakRevealDelay).Engine(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	srvErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	if cfg.MMEnabled {
		botLog := logger.With().Str("component", "bot").Logger()
		decisionBot, err := bot.NewDecisionBot(bot.Config{
			UserName: cfg.MMUserName,
			TeamName: cfg.MMTeamName,
			Token:    cfg.MMToken,
			Server:   cfg.MMServer,
		}, bot.NewCommands(rooms, cfg.TiebreakRevealDelay, botLog), botLog)
		if err != nil {
			return exitRuntime, err
		}
		defer decisionBot.Close()
		// A lost chat gateway leaves the http surface serving.
		go func() {
			if err := decisionBot.Listen(ctx); err != nil {
				botLog.Error().Err(err).Msg("mattermost gateway stopped")
			}
		}()
	}

	code := exitOK
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	case err = <-srvErr:
		code = exitRuntime
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Error().Err(shutdownErr).Msg("http server shutdown")
	}
	<-persistDone
	if flushErr := repo.Flush(shutdownCtx); flushErr != nil {
		logger.Error().Err(flushErr).Msg("final save failed")
		code = exitRuntime
	}
	return code, err
}

// openStorage connects the configured persistence backend.
func openStorage(ctx context.Context, cfg config.Config, log zerolog.Logger) (memory.PersistenceAdapter, func(), error) {
	switch cfg.Storage {
	case config.StorageTarantool:
		conn, err := connectTarantool(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connection to tarantool refused: %w", err)
		}
		log.Info().Str("addr", cfg.TTAddress).Msg("connected to tarantool")
		return ttadapter.NewRoomAdapter(conn, cfg.TTSpace), func() { _ = conn.Close() }, nil
	case config.StorageBadger:
		db, err := badgeradapter.Open(cfg.BadgerFilepath)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("path", cfg.BadgerFilepath).Msg("badger opened")
		return badgeradapter.NewRoomAdapter(db, log), func() { _ = db.Close() }, nil
	default:
		log.Warn().Msg("rooms are kept in memory only")
		return memory.NopAdapter{}, func() {}, nil
	}
}

func connectTarantool(ctx context.Context, cfg config.Config) (*tarantool.Connection, error) {
	dialer := tarantool.NetDialer{
		Address:  cfg.TTAddress,
		User:     cfg.TTUser,
		Password: cfg.TTPassword,
	}
	opts := tarantool.Opts{
		Timeout:       time.Second,
		Reconnect:     ttReconnectSeconds * time.Second,
		MaxReconnects: ttMaxRecconects,
	}

	return tarantool.Connect(ctx, dialer, opts)
}
