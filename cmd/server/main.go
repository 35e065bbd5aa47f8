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

	"notes-server/internal/config"
	"notes-server/internal/handler"
	"notes-server/internal/logging"
	"notes-server/internal/middleware"
	"notes-server/internal/repository"
	"notes-server/internal/service"
	"notes-server/internal/websocket"
	"notes-server/pkg/hash"
	"notes-server/pkg/jwt"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "notes-server: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := repository.Open(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Error().Err(err).Msg("failed to close store")
		}
	}()

	wsManager := websocket.NewManager(websocket.Options{
		MaxConnPerUser: cfg.WebSocket.MaxConnPerUser,
		WriteWait:      cfg.WebSocket.WriteWait,
		PongWait:       cfg.WebSocket.PongWait,
		PingPeriod:     cfg.WebSocket.PingPeriod,
		MaxMessageSize: cfg.WebSocket.MaxMessageSize,
	}, logger)
	go wsManager.Run(ctx)

	tokens := jwt.NewCodec(cfg.JWT.Secret, cfg.JWT.Expiration)

	authService := service.NewAuthService(store.Users, tokens, hash.NewHasher(cfg.Security.BcryptCost))
	noteService := service.NewNoteService(store.Notes, wsManager)

	router := handler.NewRouter(handler.Dependencies{
		Logger:    logger,
		CORS:      cfg.CORS,
		Gate:      middleware.NewGate(tokens),
		Auth:      handler.NewAuthHandler(authService),
		Notes:     handler.NewNoteHandler(noteService),
		WebSocket: handler.NewWebSocketHandler(wsManager, cfg.WebSocket),
		Health:    handler.NewHealthHandler(store),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Str("env", cfg.Server.Env).
			Str("store", store.Driver()).
			Msg("starting notes server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info().Msg("server stopped gracefully")
	return nil
}
