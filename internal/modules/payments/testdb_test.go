package payments

import (
	"context"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"akwaabamarket.com/app/internal/modules/events"
	"akwaabamarket.com/app/internal/modules/orders"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&orders.Order{}, &orders.OrderItem{}, &ProviderEvent{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, ref string, totalCents int64) orders.Order {
	t.Helper()
	now := time.Now()
	o := orders.Order{
		ID:            uuid.NewString(),
		UserID:        uuid.NewString(),
		CustomerEmail: "kofi@example.com",
		Currency:      "GHS",
		ItemsCents:    totalCents,
		TotalCents:    totalCents,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if ref != "" {
		o.PaymentReference = &ref
	}
	if err := db.Create(&o).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return o
}

func reload(t *testing.T, db *gorm.DB, id string) orders.Order {
	t.Helper()
	var o orders.Order
	if err := db.First(&o, "id = ?", id).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	return o
}

// fakeProvider is a hand-rolled Provider double; behavior is swapped per
// test through the func fields.
type fakeProvider struct {
	InitializeFunc func(ctx context.Context, req InitializeRequest) (InitializeResponse, error)
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) InitializeTransaction(ctx context.Context, req InitializeRequest) (InitializeResponse, error) {
	if f.InitializeFunc != nil {
		return f.InitializeFunc(ctx, req)
	}
	return InitializeResponse{Reference: "ref_fake"}, nil
}

func (f *fakeProvider) VerifyAndParseWebhook(_ http.Header, _ []byte) (WebhookEvent, error) {
	return WebhookEvent{}, nil
}

type recordPublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
}

func (r *recordPublisher) PublishOrderEvent(_ context.Context, ev events.OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordPublisher) Close() {}

func (r *recordPublisher) published() []events.OrderEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.OrderEvent, len(r.events))
	copy(out, r.events)
	return out
}
