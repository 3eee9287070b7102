package handlers

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"akwaabamarket.com/app/internal/modules/orders"
	"akwaabamarket.com/app/internal/modules/payments"
)

const webhookSecret = "sk_test_webhook"

func newWebhookRig(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&orders.Order{}, &orders.OrderItem{}, &payments.ProviderEvent{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	provider := payments.NewPaystack(webhookSecret, "https://api.paystack.co")
	svc := payments.NewWebhookService(db, nil)
	svc.SetLogger(log)

	r := gin.New()
	r.POST("/webhooks/paystack", NewWebhookHandler(log, provider, svc).Handle)
	return r, db
}

func seedWebhookOrder(t *testing.T, db *gorm.DB, ref string, totalCents int64) orders.Order {
	t.Helper()
	now := time.Now()
	o := orders.Order{
		ID:               uuid.NewString(),
		UserID:           uuid.NewString(),
		CustomerEmail:    "ama@example.com",
		Currency:         "GHS",
		ItemsCents:       totalCents,
		TotalCents:       totalCents,
		PaymentReference: &ref,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := db.Create(&o).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return o
}

func postWebhook(r *gin.Engine, body []byte, sig string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/paystack", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if sig != "" {
		req.Header.Set("X-Paystack-Signature", sig)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookEndpointAppliesPayment(t *testing.T) {
	r, db := newWebhookRig(t)
	o := seedWebhookOrder(t, db, "ref123", 125_00)

	body := []byte(`{"event":"charge.success","data":{"amount":12500,"status":"success","paid_at":"2024-01-01T00:00:00Z","reference":"ref123","id":"tx1"}}`)
	w := postWebhook(r, body, payments.Sign(webhookSecret, body))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var got orders.Order
	if err := db.First(&got, "id = ?", o.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if !got.IsPaid || got.PaidAt == nil || got.ProviderTxnID == nil || *got.ProviderTxnID != "tx1" {
		t.Errorf("paid state not applied: %+v", got)
	}
}

func TestWebhookEndpointRejectsBadSignature(t *testing.T) {
	r, db := newWebhookRig(t)
	o := seedWebhookOrder(t, db, "ref123", 125_00)

	body := []byte(`{"event":"charge.success","data":{"amount":12500,"status":"success","paid_at":"2024-01-01T00:00:00Z","reference":"ref123","id":"tx1"}}`)

	tests := []struct {
		name string
		sig  string
	}{
		{"missing header", ""},
		{"wrong key", payments.Sign("sk_other", body)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postWebhook(r, body, tt.sig)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}

	var got orders.Order
	if err := db.First(&got, "id = ?", o.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if got.IsPaid {
		t.Error("rejected delivery must not mark the order paid")
	}
}

func TestWebhookEndpointRedeliveryReturnsOK(t *testing.T) {
	r, db := newWebhookRig(t)
	o := seedWebhookOrder(t, db, "ref123", 125_00)

	body := []byte(`{"event":"charge.success","data":{"amount":12500,"status":"success","paid_at":"2024-01-01T00:00:00Z","reference":"ref123","id":"tx1"}}`)
	sig := payments.Sign(webhookSecret, body)

	if w := postWebhook(r, body, sig); w.Code != http.StatusOK {
		t.Fatalf("first delivery status = %d", w.Code)
	}
	if w := postWebhook(r, body, sig); w.Code != http.StatusOK {
		t.Fatalf("redelivery status = %d, want 200", w.Code)
	}

	var got orders.Order
	if err := db.First(&got, "id = ?", o.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if got.PaidAt == nil || !got.PaidAt.Equal(want) {
		t.Errorf("redelivery changed paid_at: %v", got.PaidAt)
	}
}

func TestWebhookEndpointAmountMismatchReturns500(t *testing.T) {
	r, db := newWebhookRig(t)
	o := seedWebhookOrder(t, db, "ref123", 125_00)

	body := []byte(`{"event":"charge.success","data":{"amount":9900,"status":"success","paid_at":"2024-01-01T00:00:00Z","reference":"ref123","id":"tx1"}}`)
	w := postWebhook(r, body, payments.Sign(webhookSecret, body))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 so the provider retries", w.Code)
	}

	var got orders.Order
	if err := db.First(&got, "id = ?", o.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if got.IsPaid {
		t.Error("mismatched amount must not mark the order paid")
	}
}

func TestWebhookEndpointIgnoredEventReturnsOK(t *testing.T) {
	r, db := newWebhookRig(t)
	o := seedWebhookOrder(t, db, "ref123", 125_00)

	body := []byte(`{"event":"transfer.success","data":{"reference":"ref123","id":"tr1"}}`)
	w := postWebhook(r, body, payments.Sign(webhookSecret, body))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	var got orders.Order
	if err := db.First(&got, "id = ?", o.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if got.IsPaid {
		t.Error("ignored event must not change paid state")
	}
}
