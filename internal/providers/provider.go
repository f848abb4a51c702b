package providers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cruxstack/lambda-email-sender-go/internal/aws"
	"github.com/cruxstack/lambda-email-sender-go/internal/config"
	"github.com/cruxstack/lambda-email-sender-go/internal/types"
)

// Provider delivers a built message and returns the provider-assigned
// message id.
type Provider interface {
	Name() string
	Send(ctx context.Context, m *types.EmailMessage) (string, error)
}

// NewProvider selects the provider once at startup. Mock mode wins over
// everything else; otherwise the configured provider is used, wrapped in a
// failover chain when failover is enabled.
func NewProvider(cfg *config.Config, clients *aws.Clients) (Provider, error) {
	if cfg.AppMockMode {
		slog.Info("running in development mode, provider calls are mocked")
		return NewMockProvider(), nil
	}

	primary, err := newNamedProvider(cfg.AppEmailProvider, cfg, clients)
	if err != nil {
		return nil, err
	}

	if !cfg.AppEmailFailoverEnabled {
		return primary, nil
	}

	chain := []Provider{withHealthCheck(primary, cfg, clients)}
	for _, name := range cfg.AppEmailFailoverProviders {
		if name == cfg.AppEmailProvider {
			continue
		}
		p, err := newNamedProvider(name, cfg, clients)
		if err != nil {
			return nil, err
		}
		chain = append(chain, withHealthCheck(p, cfg, clients))
	}

	return NewFailoverProvider(chain), nil
}

func newNamedProvider(name string, cfg *config.Config, clients *aws.Clients) (Provider, error) {
	switch name {
	case "ses":
		return NewSESProvider(clients.SES, cfg.AppSendEnabled), nil
	case "sesv2":
		return NewSESv2Provider(clients.SESv2, cfg.AppSendEnabled), nil
	case "sendgrid":
		return NewSendGridProvider(cfg), nil
	case "resend":
		return NewResendProvider(cfg), nil
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown email provider: %s", name)
	}
}

// dryRunID is returned by providers with sending disabled.
func dryRunID(provider string) string {
	return fmt.Sprintf("dry-run-%s-%d", provider, time.Now().UnixMilli())
}
