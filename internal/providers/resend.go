package providers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cruxstack/lambda-email-sender-go/internal/config"
	"github.com/cruxstack/lambda-email-sender-go/internal/types"
	"github.com/resend/resend-go/v3"
)

// ResendEmailsAPI is the subset of the resend emails service used here.
type ResendEmailsAPI interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

type ResendProvider struct {
	Emails ResendEmailsAPI
	DryRun bool
}

func NewResendProvider(cfg *config.Config) *ResendProvider {
	client := resend.NewClient(cfg.ResendApiKey)
	return &ResendProvider{
		Emails: client.Emails,
		DryRun: !cfg.AppSendEnabled,
	}
}

func (p *ResendProvider) Name() string {
	return "resend"
}

func (p *ResendProvider) Send(ctx context.Context, m *types.EmailMessage) (string, error) {
	if p.DryRun {
		slog.DebugContext(ctx, "dry-run resend send",
			"subject", m.Subject,
			"src_address", m.Source,
			"dst_address", m.Destination,
		)
		return dryRunID(p.Name()), nil
	}

	resp, err := p.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.Source,
		To:      []string{m.Destination},
		Subject: m.Subject,
		Text:    m.TextBody,
		Html:    m.HTMLBody,
	})
	if err != nil {
		return "", fmt.Errorf("resend: failed to send email: %w", err)
	}

	return resp.Id, nil
}
