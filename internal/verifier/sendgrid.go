package verifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/mail"
	"slices"
	"strings"

	"github.com/cruxstack/lambda-email-sender-go/internal/config"
	"github.com/sendgrid/sendgrid-go"
)

type SendGridEmailEmailAddressValidationResult struct {
	Email   string                         `json:"email"`
	Verdict string                         `json:"verdict"`
	Score   float32                        `json:"score"`
	Checks  SendGridEmailAddressValidation `json:"checks"`
}

type SendGridEmailAddressValidation struct {
	Domain struct {
		IsSuspectedDisposableAddress bool `json:"is_suspected_disposable_address"`
	} `json:"domain"`
	LocalPart struct {
		IsSuspectedRoleAddress bool `json:"is_suspected_role_address"`
	} `json:"local_part"`
}

type SendGridEmailEmailAddressValidationResponse struct {
	Result SendGridEmailEmailAddressValidationResult `json:"result"`
}

type SendGridEmailVerifier struct {
	// Whitelist holds domains that are trusted without calling the api
	Whitelist []string
	APIHost   string
	APIKey    string
}

func (v *SendGridEmailVerifier) VerifyEmail(ctx context.Context, email string) (*EmailVerificationResult, error) {
	result, err := v.VerifyEmailViaWhitelist(ctx, email)
	if err != nil {
		return nil, err
	}
	if result != nil {
		return result, nil
	}

	return v.VerifyEmailViaAPI(ctx, email)
}

// VerifyEmailViaWhitelist returns a valid result when the address domain is
// whitelisted, or nil when it is not.
func (v *SendGridEmailVerifier) VerifyEmailViaWhitelist(ctx context.Context, email string) (*EmailVerificationResult, error) {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return nil, nil
	}

	at := strings.LastIndex(addr.Address, "@")
	domain := strings.ToLower(addr.Address[at+1:])
	if !slices.Contains(v.Whitelist, domain) {
		return nil, nil
	}

	slog.DebugContext(ctx, "email domain whitelisted", "domain", domain)

	return &EmailVerificationResult{
		Score:   100.0,
		IsValid: true,
		Raw:     `{"whitelisted":true}`,
	}, nil
}

func (v *SendGridEmailVerifier) VerifyEmailViaAPI(ctx context.Context, email string) (*EmailVerificationResult, error) {
	body, err := json.Marshal(map[string]string{
		"email":  email,
		"source": "lambda-email-sender",
	})
	if err != nil {
		return nil, fmt.Errorf("sendgrid marshal error: %w", err)
	}

	request := sendgrid.GetRequest(v.APIKey, "/v3/validations/email", v.APIHost)
	request.Body = body
	request.Method = "POST"

	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("sendgrid api error: %w", err)
	}
	if response.StatusCode >= 300 {
		return nil, fmt.Errorf("sendgrid api error: status %d: %s", response.StatusCode, response.Body)
	}

	var payload SendGridEmailEmailAddressValidationResponse

	if err := json.Unmarshal([]byte(response.Body), &payload); err != nil {
		return nil, fmt.Errorf("sendgrid unmarshal error: %w", err)
	}

	result := payload.Result

	return &EmailVerificationResult{
		Score:        result.Score,
		IsValid:      result.Verdict != "Invalid",
		IsDisposable: result.Checks.Domain.IsSuspectedDisposableAddress,
		IsRoleBased:  result.Checks.LocalPart.IsSuspectedRoleAddress,
		Raw:          response.Body,
	}, nil
}

func NewSendGridVerifier(cfg *config.Config) (*SendGridEmailVerifier, error) {
	whitelist := make([]string, 0, len(cfg.AppEmailVerificationWhitelist))
	for _, d := range cfg.AppEmailVerificationWhitelist {
		whitelist = append(whitelist, strings.ToLower(d))
	}

	return &SendGridEmailVerifier{
		Whitelist: whitelist,
		APIHost:   cfg.SendGridApiHost,
		APIKey:    cfg.SendGridEmailVerificationApiKey,
	}, nil
}
