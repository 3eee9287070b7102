package payments

import (
	"context"
	"net/http"
	"time"
)

type InitializeRequest struct {
	OrderID     string
	AmountCents int64
	Currency    string
	Email       string
	CallbackURL string
}

type InitializeResponse struct {
	Reference        string
	AuthorizationURL string
	AccessCode       string
}

// WebhookEvent is the provider-neutral view of an inbound notification.
// Amounts are in minor currency units, matching order storage.
type WebhookEvent struct {
	EventID       string // provider transaction id; dedupe key with Type
	Type          string // e.g. charge.success
	Reference     string // joins back to Order.PaymentReference
	Status        string
	AmountCents   int64
	PaidAt        *time.Time
	TransactionID string
}

// Provider is the injected payment-gateway capability. The synchronous
// initialize response is never treated as evidence of payment; only a
// verified webhook moves an order to paid.
type Provider interface {
	Name() string
	InitializeTransaction(ctx context.Context, req InitializeRequest) (InitializeResponse, error)

	// VerifyAndParseWebhook recomputes the signature over the raw body and
	// parses the event. Verification failure returns ErrBadSignature.
	VerifyAndParseWebhook(headers http.Header, body []byte) (WebhookEvent, error)
}
