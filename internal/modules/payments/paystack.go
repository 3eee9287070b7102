package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	paystackSignatureHeader = "X-Paystack-Signature"
	paystackTimeout         = 15 * time.Second

	EventChargeSuccess = "charge.success"
)

// Paystack implements Provider against api.paystack.co. The same secret key
// authenticates outbound calls and keys the inbound webhook HMAC.
type Paystack struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

func NewPaystack(secretKey, baseURL string) *Paystack {
	return &Paystack{
		secretKey: secretKey,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: paystackTimeout},
	}
}

func (p *Paystack) Name() string { return "paystack" }

type initializeBody struct {
	Amount      string `json:"amount"` // minor units, numeric string
	Currency    string `json:"currency"`
	Email       string `json:"email"`
	CallbackURL string `json:"callback_url"`
}

type initializeEnvelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

func (p *Paystack) InitializeTransaction(ctx context.Context, req InitializeRequest) (InitializeResponse, error) {
	body, err := json.Marshal(initializeBody{
		Amount:      strconv.FormatInt(req.AmountCents, 10),
		Currency:    req.Currency,
		Email:       req.Email,
		CallbackURL: req.CallbackURL,
	})
	if err != nil {
		return InitializeResponse{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return InitializeResponse{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.secretKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return InitializeResponse{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return InitializeResponse{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return InitializeResponse{}, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var env initializeEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return InitializeResponse{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if !env.Status || env.Data.Reference == "" {
		return InitializeResponse{}, fmt.Errorf("%w: %s", ErrUpstream, env.Message)
	}

	return InitializeResponse{
		Reference:        env.Data.Reference,
		AuthorizationURL: env.Data.AuthorizationURL,
		AccessCode:       env.Data.AccessCode,
	}, nil
}

type paystackWebhook struct {
	Event string `json:"event"`
	Data  struct {
		ID        flexString `json:"id"`
		Amount    flexString `json:"amount"` // minor units
		Status    string     `json:"status"`
		Reference string     `json:"reference"`
		PaidAt    string     `json:"paid_at"`
	} `json:"data"`
}

// flexString accepts a JSON number or string; Paystack is not consistent
// about which it sends for ids and amounts.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// VerifyAndParseWebhook checks the hex HMAC-SHA-512 of the exact raw body
// against the signature header, in constant time, before touching the JSON.
func (p *Paystack) VerifyAndParseWebhook(headers http.Header, body []byte) (WebhookEvent, error) {
	got, err := hex.DecodeString(headers.Get(paystackSignatureHeader))
	if err != nil || len(got) == 0 {
		return WebhookEvent{}, ErrBadSignature
	}

	mac := hmac.New(sha512.New, []byte(p.secretKey))
	mac.Write(body)
	if !hmac.Equal(mac.Sum(nil), got) {
		return WebhookEvent{}, ErrBadSignature
	}

	var wh paystackWebhook
	if err := json.Unmarshal(body, &wh); err != nil {
		return WebhookEvent{}, fmt.Errorf("webhook payload: %w", err)
	}

	ev := WebhookEvent{
		EventID:       string(wh.Data.ID),
		Type:          wh.Event,
		Reference:     wh.Data.Reference,
		Status:        wh.Data.Status,
		TransactionID: string(wh.Data.ID),
	}
	if wh.Data.Amount != "" {
		amt, err := strconv.ParseInt(string(wh.Data.Amount), 10, 64)
		if err != nil {
			return WebhookEvent{}, fmt.Errorf("webhook amount: %w", err)
		}
		ev.AmountCents = amt
	}
	if wh.Data.PaidAt != "" {
		t, err := time.Parse(time.RFC3339, wh.Data.PaidAt)
		if err != nil {
			return WebhookEvent{}, fmt.Errorf("webhook paid_at: %w", err)
		}
		ev.PaidAt = &t
	}
	return ev, nil
}

// Sign computes the signature Paystack would send for body. Exported for
// the mockwebhook tool and tests.
func Sign(secretKey string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
