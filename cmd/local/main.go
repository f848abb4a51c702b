package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cruxstack/lambda-email-sender-go/internal/aws"
	"github.com/cruxstack/lambda-email-sender-go/internal/config"
	"github.com/cruxstack/lambda-email-sender-go/internal/encryption"
	"github.com/cruxstack/lambda-email-sender-go/internal/handler"
	"github.com/cruxstack/lambda-email-sender-go/internal/logger"
	"github.com/cruxstack/lambda-email-sender-go/internal/sender"
	"github.com/joho/godotenv"
)

func main() {
	for _, p := range []string{".env", filepath.Join("..", "..", ".env")} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			break
		}
	}
	if os.Getenv("APP_LOG_FORMAT") == "" {
		os.Setenv("APP_LOG_FORMAT", logger.FormatText)
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatal("failed to load config", "error", err)
	}
	slog.SetDefault(logger.New(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clients := aws.NewClients(*cfg.AWSConfig, cfg.AppSESEndpoint)
	if err := encryption.ResolveSecrets(ctx, cfg, clients.KMS); err != nil {
		log.Fatal("failed to resolve secrets", "error", err)
	}

	s, err := sender.NewSender(ctx, cfg, clients)
	if err != nil {
		log.Fatal("failed to init sender", "error", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppLocalPort,
		Handler:           newRouter(handler.New(s)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("local server listening",
		"addr", "http://localhost:"+cfg.AppLocalPort,
		"mock", cfg.AppMockMode,
		"provider", s.Provider.Name(),
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("local server failed", "error", err)
	}
}
