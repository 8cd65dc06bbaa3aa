package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/courtside/pong-backend/internal/config"
	"github.com/courtside/pong-backend/internal/history"
	"github.com/courtside/pong-backend/internal/httpapi"
	"github.com/courtside/pong-backend/internal/hub"
	"github.com/courtside/pong-backend/internal/tournament"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := newLogger(cfg.DevLogging)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	var recorder history.Recorder = history.Nop{}
	if cfg.DatabaseURL != "" {
		store, err := history.Open(cfg.DatabaseURL, logger)
		if err != nil {
			// Write-back is best-effort: run without it rather than refusing
			// to start.
			logger.Warn("history store unavailable, match results will not be persisted", zap.Error(err))
		} else {
			recorder = store
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h := hub.NewHub(ctx, hub.Options{
		TickHz:       cfg.TickHz,
		ScoreLimit:   cfg.ScoreLimit,
		RoomTTL:      cfg.RoomTTL,
		ReapInterval: cfg.ReapInterval,
		Recorder:     recorder,
		Logger:       logger,
	})
	store := tournament.NewStore(logger)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: httpapi.SetupRoutes(h, store, logger),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		h.Inbox() <- hub.ShutdownHub{}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
