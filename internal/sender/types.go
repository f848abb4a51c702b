package sender

import (
	"errors"
	"fmt"

	"github.com/cruxstack/lambda-email-sender-go/internal/providers"
	"github.com/cruxstack/lambda-email-sender-go/internal/verifier"
)

const PolicyQuery = "data.email_sender_policy.result"

var ErrRejected = errors.New("email request rejected")

// RejectedError is returned when the policy denies a request.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	if e.Reason == "" {
		return ErrRejected.Error()
	}
	return fmt.Sprintf("%s: %s", ErrRejected, e.Reason)
}

func (e *RejectedError) Unwrap() error {
	return ErrRejected
}

// RequestMeta carries caller details taken from the inbound event.
type RequestMeta struct {
	SourceIP  string
	UserAgent string
}

type PolicyInput struct {
	Email             string                            `json:"email"`
	Subject           string                            `json:"subject"`
	SourceIP          string                            `json:"sourceIp,omitempty"`
	UserAgent         string                            `json:"userAgent,omitempty"`
	EmailVerification *verifier.EmailVerificationResult `json:"emailVerification,omitempty"`
	Provider          providers.ProviderStatus          `json:"provider"`
}

type PolicyOutput struct {
	Action string      `json:"action"`
	Reason string      `json:"reason,omitempty"`
	Allow  PolicyAllow `json:"allow,omitempty"`
}

type PolicyAllow struct {
	DstAddress string `json:"dstAddress,omitempty"`
}

// Result describes a completed send.
type Result struct {
	MessageID string
	Recipient string
	Provider  string
	Mocked    bool
}
