package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cruxstack/lambda-email-sender-go/internal/aws"
	"github.com/cruxstack/lambda-email-sender-go/internal/config"
	"github.com/cruxstack/lambda-email-sender-go/internal/opa"
	"github.com/cruxstack/lambda-email-sender-go/internal/providers"
	"github.com/cruxstack/lambda-email-sender-go/internal/templates"
	"github.com/cruxstack/lambda-email-sender-go/internal/types"
	"github.com/cruxstack/lambda-email-sender-go/internal/verifier"
)

type Sender struct {
	Config         *config.Config
	Provider       providers.Provider
	EmailVerifier  verifier.EmailVerifier
	PreparedPolicy *opa.PreparedPolicy
}

// NewSender wires the provider, verifier and policy once per process.
func NewSender(ctx context.Context, cfg *config.Config, clients *aws.Clients) (*Sender, error) {
	provider, err := providers.NewProvider(cfg, clients)
	if err != nil {
		return nil, fmt.Errorf("failed to init provider: %w", err)
	}

	emailVerifier, err := verifier.NewVerifier(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to init email verifier: %w", err)
	}

	var pp *opa.PreparedPolicy
	if cfg.AppEmailSenderPolicyPath != "" {
		pp, err = opa.LoadPolicy(ctx, cfg.AppEmailSenderPolicyPath, PolicyQuery)
		if err != nil {
			return nil, err
		}
	}

	slog.InfoContext(ctx, "sender initialized",
		"provider", provider.Name(),
		"verification", emailVerifier != nil,
		"policy", pp != nil,
	)

	return &Sender{
		Config:         cfg,
		Provider:       provider,
		EmailVerifier:  emailVerifier,
		PreparedPolicy: pp,
	}, nil
}

// Send builds the message for a validated request and hands it to the
// provider exactly once.
func (s *Sender) Send(ctx context.Context, req *types.EmailRequest, meta RequestMeta) (*Result, error) {
	msg, err := s.BuildMessage(req)
	if err != nil {
		return nil, err
	}

	status := providers.StatusOf(ctx, s.Provider)

	if err := s.applyPolicy(ctx, req, msg, meta, status); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "sending email",
		"provider", status.Name,
		"provider_healthy", status.Healthy,
		"to", msg.Destination,
		"subject", msg.Subject,
	)

	id, err := s.Provider.Send(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	slog.InfoContext(ctx, "email sent", "message_id", id, "provider", s.Provider.Name())

	return &Result{
		MessageID: id,
		Recipient: req.Email,
		Provider:  s.Provider.Name(),
		Mocked:    providers.IsMock(s.Provider),
	}, nil
}

// BuildMessage applies subject and body defaults and the destination rule.
func (s *Sender) BuildMessage(req *types.EmailRequest) (*types.EmailMessage, error) {
	subject := req.Subject
	if subject == "" {
		subject = s.Config.AppDefaultSubject
	}
	if subject == "" {
		subject = templates.DefaultSubject
	}

	body := req.Body
	if body == "" {
		var err error
		body, err = templates.FallbackBody(s.Config.AppBodyFallback, s.Config.AppDefaultBody, dumpSource(req))
		if err != nil {
			return nil, err
		}
	}

	destination := req.Email
	if s.Config.AppDeliverToSource {
		destination = s.Config.AppSourceEmail
	}

	return &types.EmailMessage{
		Source:      s.Config.AppSourceEmail,
		Destination: destination,
		Subject:     subject,
		TextBody:    body,
		HTMLBody:    templates.WrapHTML(body, s.Config.AppSanitizeHTML),
		Charset:     types.Charset,
	}, nil
}

// dumpSource prefers the payload as received so the dump keeps its key order.
func dumpSource(req *types.EmailRequest) any {
	if len(req.Payload) > 0 {
		return req.Payload
	}
	return req.Raw
}

// applyPolicy runs recipient verification and the policy gate. Without a
// policy an invalid verification result rejects the request on its own.
func (s *Sender) applyPolicy(ctx context.Context, req *types.EmailRequest, msg *types.EmailMessage, meta RequestMeta, status providers.ProviderStatus) error {
	var verification *verifier.EmailVerificationResult
	if s.EmailVerifier != nil {
		result, err := s.EmailVerifier.VerifyEmail(ctx, req.Email)
		if err != nil {
			return fmt.Errorf("failed to verify email: %w", err)
		}
		verification = result
	}

	if s.PreparedPolicy == nil {
		if verification != nil && !verification.IsValid {
			slog.WarnContext(ctx, "email failed verification", "email", req.Email)
			return &RejectedError{Reason: "email failed verification"}
		}
		return nil
	}

	input := PolicyInput{
		Email:             req.Email,
		Subject:           msg.Subject,
		SourceIP:          meta.SourceIP,
		UserAgent:         meta.UserAgent,
		EmailVerification: verification,
		Provider:          status,
	}

	out, err := opa.Evaluate[PolicyOutput](ctx, s.PreparedPolicy, input)
	if err != nil {
		return err
	}

	if out.Action != "allow" {
		slog.WarnContext(ctx, "email request rejected by policy",
			"email", req.Email,
			"reason", out.Reason,
		)
		return &RejectedError{Reason: out.Reason}
	}

	if out.Allow.DstAddress != "" {
		msg.Destination = out.Allow.DstAddress
	}

	return nil
}
