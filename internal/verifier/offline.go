package verifier

import (
	"context"
	"net/mail"
	"slices"
	"strings"
)

// roleLocalParts are mailbox names that usually reach a team, not a person.
var roleLocalParts = []string{
	"abuse", "admin", "billing", "contact", "help", "info", "noreply",
	"no-reply", "postmaster", "sales", "support", "webmaster",
}

// OfflineEmailVerifier checks address syntax without network calls.
type OfflineEmailVerifier struct{}

func (v *OfflineEmailVerifier) VerifyEmail(ctx context.Context, email string) (*EmailVerificationResult, error) {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return invalid(`{"error":"invalid email format"}`), nil
	}

	at := strings.LastIndex(addr.Address, "@")
	if at <= 0 || at == len(addr.Address)-1 {
		return invalid(`{"error":"missing domain"}`), nil
	}

	local, domain := addr.Address[:at], addr.Address[at+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") {
		return invalid(`{"error":"invalid domain"}`), nil
	}

	return &EmailVerificationResult{
		Score:       100.0,
		IsValid:     true,
		IsRoleBased: slices.Contains(roleLocalParts, strings.ToLower(local)),
		Raw:         `{}`,
	}, nil
}

func invalid(raw string) *EmailVerificationResult {
	return &EmailVerificationResult{Raw: raw}
}

func NewOfflineVerifier() *OfflineEmailVerifier {
	return &OfflineEmailVerifier{}
}
