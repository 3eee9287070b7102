package orders

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Order{}, &OrderItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, mut func(*Order)) Order {
	t.Helper()
	now := time.Now()
	o := Order{
		ID:            uuid.NewString(),
		UserID:        uuid.NewString(),
		CustomerEmail: "ama@example.com",
		Currency:      "GHS",
		ItemsCents:    100_00,
		ShippingCents: 10_00,
		TaxCents:      15_00,
		TotalCents:    125_00,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if mut != nil {
		mut(&o)
	}
	if err := db.Create(&o).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return o
}

func TestSetPaymentReferenceOnce(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	o := seedOrder(t, db, nil)

	ok, err := repo.SetPaymentReference(ctx, o.ID, "ref123")
	if err != nil {
		t.Fatalf("SetPaymentReference: %v", err)
	}
	if !ok {
		t.Fatal("expected first SetPaymentReference to apply")
	}

	// A second attempt must not overwrite.
	ok, err = repo.SetPaymentReference(ctx, o.ID, "ref456")
	if err != nil {
		t.Fatalf("SetPaymentReference: %v", err)
	}
	if ok {
		t.Fatal("expected second SetPaymentReference to be refused")
	}

	got, err := repo.FindByPaymentReference(ctx, "ref123")
	if err != nil {
		t.Fatalf("FindByPaymentReference: %v", err)
	}
	if got.ID != o.ID {
		t.Errorf("found order %s, want %s", got.ID, o.ID)
	}
}

func TestMarkPaidIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	ref := "ref123"
	seedOrder(t, db, func(o *Order) { o.PaymentReference = &ref })

	paidAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	applied, err := repo.MarkPaid(ctx, ref, paidAt, "tx1")
	if err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if !applied {
		t.Fatal("expected first MarkPaid to apply")
	}

	got, err := repo.FindByPaymentReference(ctx, ref)
	if err != nil {
		t.Fatalf("FindByPaymentReference: %v", err)
	}
	if !got.IsPaid {
		t.Fatal("order not paid after MarkPaid")
	}
	if got.PaidAt == nil || !got.PaidAt.Equal(paidAt) {
		t.Errorf("paid_at = %v, want %v", got.PaidAt, paidAt)
	}
	if got.ProviderTxnID == nil || *got.ProviderTxnID != "tx1" {
		t.Errorf("provider_txn_id = %v, want tx1", got.ProviderTxnID)
	}

	// Duplicate delivery matches zero rows and changes nothing.
	applied, err = repo.MarkPaid(ctx, ref, time.Now(), "tx2")
	if err != nil {
		t.Fatalf("MarkPaid (second): %v", err)
	}
	if applied {
		t.Fatal("expected second MarkPaid to be a no-op")
	}

	again, err := repo.FindByPaymentReference(ctx, ref)
	if err != nil {
		t.Fatalf("FindByPaymentReference: %v", err)
	}
	if again.ProviderTxnID == nil || *again.ProviderTxnID != "tx1" {
		t.Errorf("second delivery overwrote txn id: %v", again.ProviderTxnID)
	}
	if !again.PaidAt.Equal(paidAt) {
		t.Errorf("second delivery changed paid_at: %v", again.PaidAt)
	}
}

func TestMarkPaidUnknownReference(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)

	applied, err := repo.MarkPaid(context.Background(), "nope", time.Now(), "tx1")
	if err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if applied {
		t.Fatal("expected MarkPaid on unknown reference to match zero rows")
	}
}

func TestMarkDelivered(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	o := seedOrder(t, db, nil)

	ok, err := repo.MarkDelivered(ctx, o.ID)
	if err != nil {
		t.Fatalf("MarkDelivered: %v", err)
	}
	if !ok {
		t.Fatal("expected MarkDelivered to apply")
	}

	got, _, err := repo.GetWithItems(ctx, o.ID)
	if err != nil {
		t.Fatalf("GetWithItems: %v", err)
	}
	if !got.IsDelivered || got.DeliveredAt == nil {
		t.Errorf("delivery state not set: %+v", got)
	}
	if got.IsPaid {
		t.Error("delivery must not touch payment state")
	}

	ok, err = repo.MarkDelivered(ctx, o.ID)
	if err != nil {
		t.Fatalf("MarkDelivered (second): %v", err)
	}
	if ok {
		t.Error("expected second MarkDelivered to be a no-op")
	}
}

func TestListPagination(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	userID := uuid.NewString()
	for i := 0; i < 5; i++ {
		seedOrder(t, db, func(o *Order) {
			o.UserID = userID
			o.CreatedAt = time.Now().Add(time.Duration(i) * time.Minute)
		})
	}
	seedOrder(t, db, nil) // someone else's order

	res, err := repo.List(ctx, ListParams{UserID: userID, Page: 1, PageSize: 3})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if res.Total != 5 {
		t.Errorf("total = %d, want 5", res.Total)
	}
	if len(res.Items) != 3 {
		t.Errorf("page size = %d, want 3", len(res.Items))
	}

	all, err := repo.List(ctx, ListParams{Page: 1, PageSize: 50})
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if all.Total != 6 {
		t.Errorf("admin total = %d, want 6", all.Total)
	}
}

func TestSummary(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	ref := "ref-paid"
	paidAt := time.Now()
	seedOrder(t, db, func(o *Order) {
		o.PaymentReference = &ref
		o.IsPaid = true
		o.PaidAt = &paidAt
	})
	seedOrder(t, db, nil)

	sum, err := repo.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.TotalOrders != 2 {
		t.Errorf("total orders = %d, want 2", sum.TotalOrders)
	}
	if sum.PaidOrders != 1 {
		t.Errorf("paid orders = %d, want 1", sum.PaidOrders)
	}
	if sum.PaidSalesCents != 125_00 {
		t.Errorf("paid sales = %d, want 12500", sum.PaidSalesCents)
	}
}
