package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/limjiahao/docs-assistant/internal/config"
	"github.com/limjiahao/docs-assistant/internal/handler"
	"github.com/limjiahao/docs-assistant/internal/service/backend"
	"github.com/limjiahao/docs-assistant/internal/service/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using system environment only")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	client := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.RequestTimeout, cfg.Assistant.MaxQuestionLength)
	directory := session.NewServiceDirectory(client, cfg.Assistant.ServiceCacheTTL, cfg.Assistant.ServiceDisplay, logger)

	controllerOpts := session.ControllerOptions{
		MaxQuestionLength:  cfg.Assistant.MaxQuestionLength,
		ClientMaskedTypes:  cfg.Assistant.ClientMaskedTypes,
		SuggestedQuestions: cfg.Assistant.SuggestedQuestions,
	}
	registry := session.NewRegistry(func() *session.Controller {
		return session.NewController(client, controllerOpts, logger)
	})

	router := handler.NewRouter(registry, client, directory, logger)

	startServer(ctx, cfg.Server, router, logger)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger *zap.Logger) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("docs-assistant gateway listening", zap.String("addr", serverCfg.Addr))
	if err := runServer(ctx, srv); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
