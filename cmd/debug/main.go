package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/charmbracelet/log"
	"github.com/cruxstack/lambda-email-sender-go/internal/aws"
	"github.com/cruxstack/lambda-email-sender-go/internal/config"
	"github.com/cruxstack/lambda-email-sender-go/internal/encryption"
	"github.com/cruxstack/lambda-email-sender-go/internal/handler"
	"github.com/cruxstack/lambda-email-sender-go/internal/logger"
	"github.com/cruxstack/lambda-email-sender-go/internal/sender"
	"github.com/joho/godotenv"
)

var (
	dataPath   string
	policyPath string
	live       bool
)

func init() {
	flag.StringVar(&dataPath, "data", "", "path to JSON file with api gateway events")
	flag.StringVar(&policyPath, "policy", "", "override path to Rego policy file")
	flag.BoolVar(&live, "live", false, "use the configured provider instead of the mock")
	flag.Parse()
}

func NewDebugConfig() (*config.Config, error) {
	envpath := filepath.Join("..", "..", ".env")
	if _, err := os.Stat(envpath); err == nil {
		_ = godotenv.Load(envpath)
	}

	if !live {
		os.Setenv("APP_MOCK_MODE", "true")
	}
	if os.Getenv("APP_SOURCE_EMAIL") == "" && os.Getenv("SOURCE_EMAIL") == "" {
		os.Setenv("APP_SOURCE_EMAIL", "noreply@example.org")
	}
	if os.Getenv("APP_LOG_FORMAT") == "" {
		os.Setenv("APP_LOG_FORMAT", logger.FormatText)
	}

	cfg, err := config.New()
	if err != nil {
		return nil, err
	}

	cfg.DebugMode = true

	if cfg.AppEmailSenderPolicyPath == "" {
		cfg.AppEmailSenderPolicyPath = filepath.Join("..", "..", "fixtures", "debug-policy.rego")
	}
	if policyPath != "" {
		cfg.AppEmailSenderPolicyPath = policyPath
	}

	if cfg.DebugDataPath == "" {
		cfg.DebugDataPath = filepath.Join("..", "..", "fixtures", "debug-data.json")
	}
	if dataPath != "" {
		cfg.DebugDataPath = dataPath
	}

	return cfg, nil
}

func main() {
	cfg, err := NewDebugConfig()
	if err != nil {
		log.Fatal("failed to load debug config", "error", err)
	}
	slog.SetDefault(logger.New(cfg))

	ctx := context.Background()
	clients := aws.NewClients(*cfg.AWSConfig, cfg.AppSESEndpoint)

	if err := encryption.ResolveSecrets(ctx, cfg, clients.KMS); err != nil {
		log.Fatal("failed to resolve secrets", "error", err)
	}

	s, err := sender.NewSender(ctx, cfg, clients)
	if err != nil {
		log.Fatal("failed to init sender", "error", err)
	}
	h := handler.New(s)

	data, err := os.ReadFile(cfg.DebugDataPath)
	if err != nil {
		log.Fatal("failed to read data file", "path", cfg.DebugDataPath, "error", err)
	}

	requests := []events.APIGatewayProxyRequest{}
	if err := json.Unmarshal(data, &requests); err != nil {
		log.Fatal("failed to parse event file", "error", err)
	}

	for i, req := range requests {
		ictx := lambdacontext.NewContext(ctx, &lambdacontext.LambdaContext{
			AwsRequestID: req.RequestContext.RequestID,
		})

		resp, err := h.Handle(ictx, req)
		if err != nil {
			log.Error("handler returned error", "index", i, "error", err)
			os.Exit(1)
		}

		fmt.Printf("--- event %d: status %d\n%s\n", i, resp.StatusCode, resp.Body)
	}

	log.Info("debug run complete", "events", len(requests))
}
