package providers

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cruxstack/lambda-email-sender-go/internal/types"
)

// mockProvider is a test provider that can be configured to fail or succeed
type mockProvider struct {
	name      string
	id        string
	sendErr   error
	healthy   bool
	sendCount int
	mu        sync.Mutex
}

func (m *mockProvider) Name() string {
	return m.name
}

func (m *mockProvider) Send(ctx context.Context, msg *types.EmailMessage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendCount++
	if m.sendErr != nil {
		return "", m.sendErr
	}
	return m.id, nil
}

func (m *mockProvider) IsHealthy(ctx context.Context) bool {
	return m.healthy
}

func (m *mockProvider) GetSendCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sendCount
}

func testMessage() *types.EmailMessage {
	return &types.EmailMessage{
		Source:      "from@example.com",
		Destination: "test@example.com",
		Subject:     "subject",
		TextBody:    "body",
		HTMLBody:    "<html><body><p>body</p></body></html>",
		Charset:     types.Charset,
	}
}

func TestFailoverProvider_SendsToFirstHealthyProvider(t *testing.T) {
	primary := &mockProvider{name: "ses", id: "ses-1", healthy: true}
	secondary := &mockProvider{name: "sendgrid", id: "sg-1", healthy: true}

	fp := NewFailoverProvider([]Provider{primary, secondary})

	id, err := fp.Send(context.Background(), testMessage())

	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if id != "ses-1" {
		t.Errorf("expected primary message id, got %q", id)
	}
	if primary.GetSendCount() != 1 {
		t.Errorf("expected primary to be called once, got %d", primary.GetSendCount())
	}
	if secondary.GetSendCount() != 0 {
		t.Errorf("expected secondary to not be called, got %d", secondary.GetSendCount())
	}
}

func TestFailoverProvider_SkipsUnhealthyProvider(t *testing.T) {
	primary := &mockProvider{name: "ses", healthy: false}
	secondary := &mockProvider{name: "sendgrid", id: "sg-1", healthy: true}

	fp := NewFailoverProvider([]Provider{primary, secondary})

	id, err := fp.Send(context.Background(), testMessage())

	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if id != "sg-1" {
		t.Errorf("expected secondary message id, got %q", id)
	}
	if primary.GetSendCount() != 0 {
		t.Errorf("expected primary to be skipped (unhealthy), got %d calls", primary.GetSendCount())
	}
	if secondary.GetSendCount() != 1 {
		t.Errorf("expected secondary to be called once, got %d", secondary.GetSendCount())
	}
}

func TestFailoverProvider_SendErrorIsNotRetried(t *testing.T) {
	sendErr := errors.New("send failed")
	primary := &mockProvider{name: "ses", healthy: true, sendErr: sendErr}
	secondary := &mockProvider{name: "sendgrid", id: "sg-1", healthy: true}

	fp := NewFailoverProvider([]Provider{primary, secondary})

	id, err := fp.Send(context.Background(), testMessage())

	if !errors.Is(err, sendErr) {
		t.Fatalf("expected primary error, got: %v", err)
	}
	if id != "" {
		t.Errorf("expected no message id, got %q", id)
	}
	if primary.GetSendCount() != 1 {
		t.Errorf("expected primary to be called once, got %d", primary.GetSendCount())
	}
	if secondary.GetSendCount() != 0 {
		t.Errorf("expected secondary to not be called after a send error, got %d", secondary.GetSendCount())
	}
}

func TestFailoverProvider_Select(t *testing.T) {
	testCases := []struct {
		name    string
		chain   []*mockProvider
		want    string
		wantErr bool
	}{
		{"first healthy", []*mockProvider{{name: "ses", healthy: true}, {name: "sendgrid", healthy: true}}, "ses", false},
		{"skips unhealthy", []*mockProvider{{name: "ses"}, {name: "sendgrid", healthy: true}}, "sendgrid", false},
		{"none healthy", []*mockProvider{{name: "ses"}, {name: "sendgrid"}}, "", true},
		{"empty chain", nil, "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			chain := make([]Provider, 0, len(tc.chain))
			for _, p := range tc.chain {
				chain = append(chain, p)
			}
			fp := NewFailoverProvider(chain)

			p, err := fp.Select(context.Background())
			if tc.wantErr {
				if !errors.Is(err, ErrNoProviderAvailable) {
					t.Fatalf("expected ErrNoProviderAvailable, got %v", err)
				}
				if fp.IsHealthy(context.Background()) {
					t.Error("expected chain to be unhealthy")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Name() != tc.want {
				t.Errorf("expected %q, got %q", tc.want, p.Name())
			}
			if !fp.IsHealthy(context.Background()) {
				t.Error("expected chain to be healthy")
			}
			for _, mp := range tc.chain {
				if mp.GetSendCount() != 0 {
					t.Errorf("select must not send, %s sent %d", mp.name, mp.GetSendCount())
				}
			}
		})
	}
}

func TestFailoverProvider_AllUnhealthy(t *testing.T) {
	primary := &mockProvider{name: "ses", healthy: false}
	secondary := &mockProvider{name: "sendgrid", healthy: false}

	fp := NewFailoverProvider([]Provider{primary, secondary})

	_, err := fp.Send(context.Background(), testMessage())

	if !errors.Is(err, ErrNoProviderAvailable) {
		t.Fatalf("expected ErrNoProviderAvailable, got: %v", err)
	}
	if primary.GetSendCount()+secondary.GetSendCount() != 0 {
		t.Error("expected no sends to unhealthy providers")
	}
}

func TestFailoverProvider_ProviderWithoutHealthCheck(t *testing.T) {
	inner := &mockProvider{name: "resend", id: "re-1", healthy: false}
	fp := NewFailoverProvider([]Provider{providerOnly{inner}})

	id, err := fp.Send(context.Background(), testMessage())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if id != "re-1" {
		t.Errorf("expected re-1, got %q", id)
	}
}

// providerOnly hides IsHealthy so the chain cannot see a health check
type providerOnly struct {
	p Provider
}

func (p providerOnly) Name() string { return p.p.Name() }

func (p providerOnly) Send(ctx context.Context, msg *types.EmailMessage) (string, error) {
	return p.p.Send(ctx, msg)
}

func TestFailoverProvider_Providers(t *testing.T) {
	a := &mockProvider{name: "ses"}
	b := &mockProvider{name: "sendgrid"}

	fp := NewFailoverProvider([]Provider{a, b})

	if len(fp.Providers()) != 2 {
		t.Errorf("expected 2 providers, got %d", len(fp.Providers()))
	}
	if fp.Name() != "failover" {
		t.Errorf("expected name failover, got %q", fp.Name())
	}
}
