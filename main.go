package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/cruxstack/lambda-email-sender-go/internal/aws"
	"github.com/cruxstack/lambda-email-sender-go/internal/config"
	"github.com/cruxstack/lambda-email-sender-go/internal/encryption"
	"github.com/cruxstack/lambda-email-sender-go/internal/handler"
	"github.com/cruxstack/lambda-email-sender-go/internal/logger"
	"github.com/cruxstack/lambda-email-sender-go/internal/sender"
)

var h *handler.Handler

func Handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	defer logger.Flush(2 * time.Second)
	return h.Handle(ctx, req)
}

func main() {
	ctx := context.Background()

	cfg, err := config.New()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger.New(cfg))

	clients := aws.NewClients(*cfg.AWSConfig, cfg.AppSESEndpoint)

	if err := encryption.ResolveSecrets(ctx, cfg, clients.KMS); err != nil {
		slog.Error("failed to resolve secrets", "error", err)
		os.Exit(1)
	}

	s, err := sender.NewSender(ctx, cfg, clients)
	if err != nil {
		slog.Error("failed to init sender", "error", err)
		os.Exit(1)
	}

	h = handler.New(s)

	lambda.Start(Handler)
}
