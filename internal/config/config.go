package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

var knownProviders = []string{"ses", "sesv2", "sendgrid", "resend", "mock"}

type Config struct {
	AWSConfig   *aws.Config
	AppLogLevel slog.Level
	// AppLogFormat is "json" or "text"; text uses the terminal handler
	AppLogFormat         string
	AppSentryDSN         string
	AppSentryEnvironment string

	AppSourceEmail     string
	AppDeliverToSource bool
	AppDefaultSubject  string
	AppDefaultBody     string
	AppBodyFallback    string
	AppSanitizeHTML    bool
	AppEmailProvider   string
	AppMockMode        bool
	AppSendEnabled     bool
	AppSESEndpoint     string
	AppSecretsKmsKeyId string
	AppSecretsFormat   string
	AppLocalPort       string

	AppEmailSenderPolicyPath      string
	AppEmailVerificationEnabled   bool
	AppEmailVerificationProvider  string
	AppEmailVerificationWhitelist []string

	DebugMode     bool
	DebugDataPath string

	SendGridApiHost                 string
	SendGridEmailVerificationApiKey string
	SendGridEmailSendApiKey         string
	ResendApiKey                    string

	// Failover configuration
	AppEmailFailoverEnabled   bool
	AppEmailFailoverProviders []string
	AppEmailFailoverCacheTTL  time.Duration
}

func New() (*Config, error) {
	var opts []func(*config.LoadOptions) error
	if region := os.Getenv("APP_AWS_REGION"); region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	awscfg, err := config.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return NewFromEnv(&awscfg)
}

// NewFromEnv builds the config from the environment using an already loaded
// aws config.
func NewFromEnv(awscfg *aws.Config) (*Config, error) {
	cfg := Config{
		AWSConfig:                     awscfg,
		AppLogLevel:                   slog.LevelInfo,
		AppLogFormat:                  os.Getenv("APP_LOG_FORMAT"),
		AppSentryDSN:                  os.Getenv("APP_SENTRY_DSN"),
		AppSentryEnvironment:          os.Getenv("APP_SENTRY_ENVIRONMENT"),
		AppSourceEmail:                os.Getenv("APP_SOURCE_EMAIL"),
		AppDeliverToSource:            os.Getenv("APP_DELIVER_TO_SOURCE") == "true",
		AppDefaultSubject:             os.Getenv("APP_DEFAULT_SUBJECT"),
		AppDefaultBody:                os.Getenv("APP_DEFAULT_BODY"),
		AppBodyFallback:               strings.ToLower(os.Getenv("APP_BODY_FALLBACK")),
		AppSanitizeHTML:               os.Getenv("APP_SANITIZE_HTML") == "true",
		AppEmailProvider:              strings.ToLower(os.Getenv("APP_EMAIL_PROVIDER")),
		AppMockMode:                   os.Getenv("APP_MOCK_MODE") == "true",
		AppSendEnabled:                os.Getenv("APP_SEND_ENABLED") != "false",
		AppSESEndpoint:                os.Getenv("APP_SES_ENDPOINT"),
		AppSecretsKmsKeyId:            os.Getenv("APP_SECRETS_KMS_KEY_ID"),
		AppSecretsFormat:              strings.ToLower(os.Getenv("APP_SECRETS_FORMAT")),
		AppLocalPort:                  os.Getenv("APP_LOCAL_PORT"),
		AppEmailSenderPolicyPath:      os.Getenv("APP_EMAIL_SENDER_POLICY_PATH"),
		AppEmailVerificationEnabled:   os.Getenv("APP_EMAIL_VERIFICATION_ENABLED") == "true",
		AppEmailVerificationProvider:  strings.ToLower(os.Getenv("APP_EMAIL_VERIFICATION_PROVIDER")),
		AppEmailVerificationWhitelist: []string{},
		DebugMode:                     os.Getenv("APP_DEBUG_MODE") == "true",
		DebugDataPath:                 os.Getenv("APP_DEBUG_DATA_PATH"),

		SendGridApiHost:                 os.Getenv("APP_SENDGRID_API_HOST"),
		SendGridEmailSendApiKey:         os.Getenv("APP_SENDGRID_EMAIL_SEND_API_KEY"),
		SendGridEmailVerificationApiKey: os.Getenv("APP_SENDGRID_EMAIL_VERIFICATION_API_KEY"),
		ResendApiKey:                    os.Getenv("APP_RESEND_API_KEY"),

		// Failover defaults
		AppEmailFailoverEnabled:   os.Getenv("APP_EMAIL_FAILOVER_ENABLED") == "true",
		AppEmailFailoverProviders: []string{},
		AppEmailFailoverCacheTTL:  30 * time.Second,
	}

	// local dev shells set NODE_ENV or USE_MOCK_SES rather than APP_MOCK_MODE
	if os.Getenv("NODE_ENV") == "development" || os.Getenv("USE_MOCK_SES") == "true" {
		cfg.AppMockMode = true
	}
	if cfg.AppEmailProvider == "mock" {
		cfg.AppMockMode = true
	}

	if cfg.AppSourceEmail == "" && os.Getenv("SOURCE_EMAIL") != "" {
		cfg.AppSourceEmail = os.Getenv("SOURCE_EMAIL")
	}

	if levelStr := os.Getenv("APP_LOG_LEVEL"); levelStr != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(levelStr)); err == nil {
			cfg.AppLogLevel = level
		}
	}

	if cfg.AppLogFormat == "" {
		cfg.AppLogFormat = "json"
	}

	if cfg.AppEmailProvider == "" || !slices.Contains(knownProviders, cfg.AppEmailProvider) {
		if cfg.AppEmailProvider != "" {
			slog.Warn("unknown email provider, defaulting to ses", "provider", cfg.AppEmailProvider)
		}
		cfg.AppEmailProvider = "ses"
		if cfg.AppMockMode {
			cfg.AppEmailProvider = "mock"
		}
	}

	if cfg.AppBodyFallback != "dump" {
		cfg.AppBodyFallback = "static"
	}

	if cfg.AppEmailVerificationProvider == "" {
		cfg.AppEmailVerificationProvider = "offline"
	}

	if cfg.AppSecretsFormat == "" {
		cfg.AppSecretsFormat = "kms"
	}

	if cfg.AppLocalPort == "" {
		cfg.AppLocalPort = "3000"
	}

	whitelistStr := strings.TrimSpace(os.Getenv("APP_EMAIL_VERIFICATION_WHITELIST"))
	if whitelistStr != "" {
		cfg.AppEmailVerificationWhitelist = splitList(whitelistStr)
	}

	if cfg.SendGridApiHost == "" {
		cfg.SendGridApiHost = "https://api.sendgrid.com"
	}

	// Parse failover providers
	failoverProvidersStr := strings.TrimSpace(os.Getenv("APP_EMAIL_FAILOVER_PROVIDERS"))
	if failoverProvidersStr != "" {
		cfg.AppEmailFailoverProviders = splitList(strings.ToLower(failoverProvidersStr))
	}

	// Parse failover cache TTL
	if ttlStr := os.Getenv("APP_EMAIL_FAILOVER_CACHE_TTL"); ttlStr != "" {
		if ttl, err := time.ParseDuration(ttlStr); err == nil {
			cfg.AppEmailFailoverCacheTTL = ttl
		} else {
			slog.Warn("invalid APP_EMAIL_FAILOVER_CACHE_TTL, using default", "value", ttlStr, "default", "30s")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	for i, x := range parts {
		parts[i] = strings.TrimSpace(x)
	}
	return parts
}

// Validate checks that required configuration fields are set and valid
func (c *Config) Validate() error {
	if c.AppSourceEmail == "" {
		return errors.New("APP_SOURCE_EMAIL (or SOURCE_EMAIL) is required")
	}

	if c.AppMockMode {
		// mock mode never reaches a provider
		return nil
	}

	if c.AppEmailProvider == "sendgrid" && c.SendGridEmailSendApiKey == "" {
		return errors.New("APP_SENDGRID_EMAIL_SEND_API_KEY is required when using sendgrid provider")
	}

	if c.AppEmailProvider == "resend" && c.ResendApiKey == "" {
		return errors.New("APP_RESEND_API_KEY is required when using resend provider")
	}

	if c.AppEmailVerificationEnabled {
		if c.AppEmailVerificationProvider != "offline" && c.AppEmailVerificationProvider != "sendgrid" {
			return errors.New("invalid email verification provider: " + c.AppEmailVerificationProvider + " (must be 'offline' or 'sendgrid')")
		}
		if c.AppEmailVerificationProvider == "sendgrid" && c.SendGridEmailVerificationApiKey == "" {
			return errors.New("APP_SENDGRID_EMAIL_VERIFICATION_API_KEY is required when using sendgrid email verification")
		}
	}

	if c.AppSecretsFormat != "kms" && c.AppSecretsFormat != "esdk" {
		return errors.New("invalid APP_SECRETS_FORMAT: " + c.AppSecretsFormat + " (must be 'kms' or 'esdk')")
	}

	// Validate failover configuration
	if c.AppEmailFailoverEnabled {
		if len(c.AppEmailFailoverProviders) == 0 {
			return errors.New("APP_EMAIL_FAILOVER_PROVIDERS is required when failover is enabled")
		}

		for _, p := range c.AppEmailFailoverProviders {
			if p == "mock" || !slices.Contains(knownProviders, p) {
				return errors.New("invalid failover provider: " + p + " (must be 'ses', 'sesv2', 'sendgrid' or 'resend')")
			}
		}

		// Check that credentials exist for each failover provider
		allProviders := append([]string{c.AppEmailProvider}, c.AppEmailFailoverProviders...)
		for _, p := range allProviders {
			if p == "sendgrid" && c.SendGridEmailSendApiKey == "" {
				return errors.New("APP_SENDGRID_EMAIL_SEND_API_KEY is required when sendgrid is in failover chain")
			}
			if p == "resend" && c.ResendApiKey == "" {
				return errors.New("APP_RESEND_API_KEY is required when resend is in failover chain")
			}
		}
	}

	return nil
}
