package providers

import (
	"context"
	"fmt"
	"log/slog"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sesv2types "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/cruxstack/lambda-email-sender-go/internal/types"
)

// SESv2API is the subset of the sesv2 client used for sending and health
// checks.
type SESv2API interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
	GetAccount(ctx context.Context, params *sesv2.GetAccountInput, optFns ...func(*sesv2.Options)) (*sesv2.GetAccountOutput, error)
}

type SESv2Provider struct {
	Client SESv2API
	DryRun bool
}

func NewSESv2Provider(client SESv2API, sendEnabled bool) *SESv2Provider {
	return &SESv2Provider{
		Client: client,
		DryRun: !sendEnabled,
	}
}

func (p *SESv2Provider) Name() string {
	return "sesv2"
}

func (p *SESv2Provider) Send(ctx context.Context, m *types.EmailMessage) (string, error) {
	if p.DryRun {
		slog.DebugContext(ctx, "dry-run sesv2 send",
			"subject", m.Subject,
			"src_address", m.Source,
			"dst_address", m.Destination,
		)
		return dryRunID(p.Name()), nil
	}

	charset := awssdk.String(charsetOf(m))
	out, err := p.Client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: awssdk.String(m.Source),
		Destination:      &sesv2types.Destination{ToAddresses: []string{m.Destination}},
		Content: &sesv2types.EmailContent{
			Simple: &sesv2types.Message{
				Subject: &sesv2types.Content{Data: awssdk.String(m.Subject), Charset: charset},
				Body: &sesv2types.Body{
					Text: &sesv2types.Content{Data: awssdk.String(m.TextBody), Charset: charset},
					Html: &sesv2types.Content{Data: awssdk.String(m.HTMLBody), Charset: charset},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("error sending email: %w", err)
	}

	return awssdk.ToString(out.MessageId), nil
}
