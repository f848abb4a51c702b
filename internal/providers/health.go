package providers

import (
	"context"
	"sync"
	"time"

	"github.com/cruxstack/lambda-email-sender-go/internal/aws"
	"github.com/cruxstack/lambda-email-sender-go/internal/config"
	"github.com/cruxstack/lambda-email-sender-go/internal/types"
)

// HealthChecker is implemented by providers that can report whether they are
// able to send before a failover chain selects them.
type HealthChecker interface {
	// IsHealthy should be cheap; implementations cache remote checks.
	IsHealthy(ctx context.Context) bool
}

// ProviderStatus is the provider state reported to the send policy.
type ProviderStatus struct {
	Name    string `json:"name"`
	Checked bool   `json:"checked"`
	Healthy bool   `json:"healthy"`
}

// StatusOf reports which provider a send would use and whether it is
// healthy. Providers without a health check are assumed healthy.
func StatusOf(ctx context.Context, p Provider) ProviderStatus {
	if fp, ok := p.(*FailoverProvider); ok {
		selected, err := fp.Select(ctx)
		if err != nil {
			return ProviderStatus{Name: fp.Name(), Checked: true}
		}
		st := StatusOf(ctx, selected)
		st.Checked = true
		return st
	}

	st := ProviderStatus{Name: p.Name(), Healthy: true}
	if hc, ok := p.(HealthChecker); ok {
		st.Checked = true
		st.Healthy = hc.IsHealthy(ctx)
	}
	return st
}

// withHealthCheck attaches the SES account health check to SES-backed
// providers in a failover chain.
func withHealthCheck(p Provider, cfg *config.Config, clients *aws.Clients) Provider {
	switch p.Name() {
	case "ses", "sesv2":
		return &healthCheckedProvider{
			Provider: p,
			checker:  NewSESHealthChecker(clients.SESv2, cfg.AppEmailFailoverCacheTTL),
		}
	default:
		return p
	}
}

type healthCheckedProvider struct {
	Provider
	checker *SESHealthChecker
}

func (p *healthCheckedProvider) IsHealthy(ctx context.Context) bool {
	return p.checker.IsHealthy(ctx)
}

// Send drops the cached health status after a failure so the next request
// re-checks the account.
func (p *healthCheckedProvider) Send(ctx context.Context, m *types.EmailMessage) (string, error) {
	id, err := p.Provider.Send(ctx, m)
	if err != nil {
		p.checker.InvalidateCache()
	}
	return id, err
}

// ttlCache holds one value for ttl. Callers arriving during a refresh wait
// for it instead of issuing their own.
type ttlCache[T any] struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	val     T
	expires time.Time
}

func newTTLCache[T any](ttl time.Duration) *ttlCache[T] {
	return &ttlCache[T]{ttl: ttl, now: time.Now}
}

func (c *ttlCache[T]) get(fetch func() T) T {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.now().Before(c.expires) {
		return c.val
	}
	c.val = fetch()
	c.expires = c.now().Add(c.ttl)
	return c.val
}

func (c *ttlCache[T]) reset() {
	c.mu.Lock()
	c.expires = time.Time{}
	c.mu.Unlock()
}
