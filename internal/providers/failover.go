package providers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cruxstack/lambda-email-sender-go/internal/types"
)

var ErrNoProviderAvailable = errors.New("no email provider available")

// FailoverProvider picks the first healthy provider of an ordered chain. It
// never resends: a failed send is returned to the caller as is.
type FailoverProvider struct {
	providers []Provider
}

// NewFailoverProvider builds a chain; earlier providers are preferred.
func NewFailoverProvider(providers []Provider) *FailoverProvider {
	return &FailoverProvider{
		providers: providers,
	}
}

func (f *FailoverProvider) Name() string {
	return "failover"
}

// Select returns the first provider that reports healthy. Providers without
// a health check are always eligible.
func (f *FailoverProvider) Select(ctx context.Context) (Provider, error) {
	for _, p := range f.providers {
		if hc, ok := p.(HealthChecker); ok && !hc.IsHealthy(ctx) {
			slog.WarnContext(ctx, "provider unhealthy, skipping", "provider", p.Name())
			continue
		}
		return p, nil
	}
	return nil, ErrNoProviderAvailable
}

// IsHealthy reports whether any provider in the chain can take a send.
func (f *FailoverProvider) IsHealthy(ctx context.Context) bool {
	_, err := f.Select(ctx)
	return err == nil
}

// Send hands the message to the selected provider once.
func (f *FailoverProvider) Send(ctx context.Context, m *types.EmailMessage) (string, error) {
	p, err := f.Select(ctx)
	if err != nil {
		slog.WarnContext(ctx, "no providers available to send email",
			"destination", m.Destination,
		)
		return "", err
	}

	id, err := p.Send(ctx, m)
	if err != nil {
		slog.WarnContext(ctx, "selected provider failed to send",
			"provider", p.Name(),
			"error", err,
		)
		return "", err
	}

	slog.InfoContext(ctx, "email sent via failover chain", "provider", p.Name())
	return id, nil
}

// Providers returns the list of providers in this failover chain.
func (f *FailoverProvider) Providers() []Provider {
	return f.providers
}
