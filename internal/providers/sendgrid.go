package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"

	"github.com/cruxstack/lambda-email-sender-go/internal/config"
	"github.com/cruxstack/lambda-email-sender-go/internal/types"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SendGridProvider struct {
	APIHost string
	APIKey  string
	DryRun  bool
}

func NewSendGridProvider(cfg *config.Config) *SendGridProvider {
	return &SendGridProvider{
		APIHost: cfg.SendGridApiHost,
		APIKey:  cfg.SendGridEmailSendApiKey,
		DryRun:  !cfg.AppSendEnabled,
	}
}

func (p *SendGridProvider) Name() string {
	return "sendgrid"
}

func (p *SendGridProvider) Send(ctx context.Context, m *types.EmailMessage) (string, error) {
	if p.DryRun {
		slog.DebugContext(ctx, "dry-run sendgrid send",
			"subject", m.Subject,
			"src_address", m.Source,
			"dst_address", m.Destination,
		)
		return dryRunID(p.Name()), nil
	}

	srcName, srcAddr := ParseNameAddr(m.Source)
	dstName, dstAddr := ParseNameAddr(m.Destination)

	msg := sgmail.NewSingleEmail(
		sgmail.NewEmail(srcName, srcAddr),
		m.Subject,
		sgmail.NewEmail(dstName, dstAddr),
		m.TextBody,
		m.HTMLBody,
	)

	// built per call so concurrent sends never share a request body
	request := sendgrid.GetRequest(p.APIKey, "/v3/mail/send", p.APIHost)
	request.Method = "POST"
	request.Body = sgmail.GetRequestBody(msg)

	resp, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return "", fmt.Errorf("sendgrid api error: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("sendgrid send failed: status=%d body=%s", resp.StatusCode, resp.Body)
	}

	var messageID string
	if ids := resp.Headers["X-Message-Id"]; len(ids) > 0 {
		messageID = ids[0]
	}

	return messageID, nil
}

// ParseNameAddr splits "Name <addr>" into its parts. Unparseable input is
// returned as the address unchanged.
func ParseNameAddr(s string) (string, string) {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return "", s
	}
	return addr.Name, addr.Address
}
