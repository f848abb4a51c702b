package aws

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
)

// Clients is the process-scoped set of AWS service clients. It is built once
// at startup and shared read-only by every invocation.
type Clients struct {
	KMS   *KMSClient
	SES   *ses.Client
	SESv2 *sesv2.Client
}

// NewClients builds the service clients from one aws config. A non-empty
// sesEndpoint overrides the SES endpoints only.
func NewClients(cfg aws.Config, sesEndpoint string) *Clients {
	return &Clients{
		KMS: NewKMSClient(cfg),
		SES: ses.NewFromConfig(cfg, func(o *ses.Options) {
			if sesEndpoint != "" {
				o.BaseEndpoint = aws.String(sesEndpoint)
			}
		}),
		SESv2: sesv2.NewFromConfig(cfg, func(o *sesv2.Options) {
			if sesEndpoint != "" {
				o.BaseEndpoint = aws.String(sesEndpoint)
			}
		}),
	}
}
