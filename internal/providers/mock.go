package providers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cruxstack/lambda-email-sender-go/internal/types"
	"github.com/google/uuid"
)

const MockIDPrefix = "mock-"

// MockProvider fabricates a successful send without any network call. It is
// used for local development.
type MockProvider struct {
	now func() time.Time
}

func NewMockProvider() *MockProvider {
	return &MockProvider{now: time.Now}
}

func (p *MockProvider) Name() string {
	return "mock"
}

func (p *MockProvider) Send(ctx context.Context, m *types.EmailMessage) (string, error) {
	slog.InfoContext(ctx, "mock email send",
		"from", m.Source,
		"to", m.Destination,
		"subject", m.Subject,
		"body", m.TextBody,
	)

	return p.newMessageID(), nil
}

// newMessageID returns mock-<unix ms>-<9 random chars>.
func (p *MockProvider) newMessageID() string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("%s%d-%s", MockIDPrefix, p.now().UnixMilli(), random)
}

// IsMock reports whether p fabricates its results.
func IsMock(p Provider) bool {
	_, ok := p.(*MockProvider)
	return ok
}
