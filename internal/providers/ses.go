package providers

import (
	"context"
	"fmt"
	"log/slog"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	awstypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/cruxstack/lambda-email-sender-go/internal/types"
)

// SESAPI is the subset of the ses client used for sending.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SESProvider struct {
	Client SESAPI
	DryRun bool
}

func NewSESProvider(client SESAPI, sendEnabled bool) *SESProvider {
	return &SESProvider{
		Client: client,
		DryRun: !sendEnabled,
	}
}

func (p *SESProvider) Name() string {
	return "ses"
}

func (p *SESProvider) Send(ctx context.Context, m *types.EmailMessage) (string, error) {
	if p.DryRun {
		return p.SendDryRun(ctx, m)
	}

	charset := awssdk.String(charsetOf(m))
	out, err := p.Client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      awssdk.String(m.Source),
		Destination: &awstypes.Destination{ToAddresses: []string{m.Destination}},
		Message: &awstypes.Message{
			Subject: &awstypes.Content{Data: awssdk.String(m.Subject), Charset: charset},
			Body: &awstypes.Body{
				Text: &awstypes.Content{Data: awssdk.String(m.TextBody), Charset: charset},
				Html: &awstypes.Content{Data: awssdk.String(m.HTMLBody), Charset: charset},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("error sending email: %w", err)
	}

	slog.DebugContext(ctx, "ses response", "message_id", awssdk.ToString(out.MessageId))

	return awssdk.ToString(out.MessageId), nil
}

func (p *SESProvider) SendDryRun(ctx context.Context, m *types.EmailMessage) (string, error) {
	slog.DebugContext(ctx, "dry-run ses send",
		"subject", m.Subject,
		"src_address", m.Source,
		"dst_address", m.Destination,
	)

	return dryRunID(p.Name()), nil
}

func charsetOf(m *types.EmailMessage) string {
	if m.Charset == "" {
		return types.Charset
	}
	return m.Charset
}
