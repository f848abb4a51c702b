package verifier

import (
	"context"

	"github.com/cruxstack/lambda-email-sender-go/internal/config"
)

type EmailVerificationResult struct {
	Score        float32 `json:"score"`
	IsValid      bool    `json:"valid"`
	IsDisposable bool    `json:"disposable"`
	IsRoleBased  bool    `json:"role"`
	Raw          string  `json:"raw"`
}

type EmailVerifier interface {
	VerifyEmail(ctx context.Context, email string) (*EmailVerificationResult, error)
}

// NewVerifier returns the configured verifier, or nil when verification is
// disabled.
func NewVerifier(cfg *config.Config) (EmailVerifier, error) {
	if !cfg.AppEmailVerificationEnabled {
		return nil, nil
	}

	switch cfg.AppEmailVerificationProvider {
	case "sendgrid":
		return NewSendGridVerifier(cfg)
	default:
		return NewOfflineVerifier(), nil
	}
}
