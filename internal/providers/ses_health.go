package providers

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
)

// SESAccountAPI is the subset of the sesv2 client used by the health check.
type SESAccountAPI interface {
	GetAccount(ctx context.Context, params *sesv2.GetAccountInput, optFns ...func(*sesv2.Options)) (*sesv2.GetAccountOutput, error)
}

const enforcementShutdown = "SHUTDOWN"

// AccountStatus is the sending state of an SES account.
type AccountStatus struct {
	SendingEnabled    bool
	EnforcementStatus string
	ProductionAccess  bool
	Err               error
}

// CanSend is false when the lookup failed, sending is paused or the account
// was shut down.
func (s AccountStatus) CanSend() bool {
	return s.Err == nil && s.SendingEnabled && s.EnforcementStatus != enforcementShutdown
}

// SESHealthChecker reports whether the SES account behind a provider can
// send. Lookups are cached for ttl.
type SESHealthChecker struct {
	client SESAccountAPI
	cache  *ttlCache[AccountStatus]
}

func NewSESHealthChecker(client SESAccountAPI, ttl time.Duration) *SESHealthChecker {
	return &SESHealthChecker{
		client: client,
		cache:  newTTLCache[AccountStatus](ttl),
	}
}

// Status returns the cached account status, refreshing it when stale.
func (h *SESHealthChecker) Status(ctx context.Context) AccountStatus {
	return h.cache.get(func() AccountStatus {
		st := h.lookup(ctx)
		if !st.CanSend() {
			slog.WarnContext(ctx, "ses account cannot send",
				"sending_enabled", st.SendingEnabled,
				"enforcement_status", st.EnforcementStatus,
				"production_access", st.ProductionAccess,
				"error", st.Err,
			)
		}
		return st
	})
}

func (h *SESHealthChecker) IsHealthy(ctx context.Context) bool {
	return h.Status(ctx).CanSend()
}

// InvalidateCache forces the next check to call GetAccount.
func (h *SESHealthChecker) InvalidateCache() {
	h.cache.reset()
}

func (h *SESHealthChecker) lookup(ctx context.Context) AccountStatus {
	out, err := h.client.GetAccount(ctx, &sesv2.GetAccountInput{})
	if err != nil {
		return AccountStatus{Err: err}
	}
	return AccountStatus{
		SendingEnabled:    out.SendingEnabled,
		EnforcementStatus: aws.ToString(out.EnforcementStatus),
		ProductionAccess:  out.ProductionAccessEnabled,
	}
}
