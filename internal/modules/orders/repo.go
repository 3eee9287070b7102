package orders

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

func (r *Repo) GetWithItems(ctx context.Context, id string) (Order, []OrderItem, error) {
	var o Order
	if err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		return Order{}, nil, err
	}
	var items []OrderItem
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&items, "order_id = ?", id).Error; err != nil {
		return Order{}, nil, err
	}
	return o, items, nil
}

func (r *Repo) FindByPaymentReference(ctx context.Context, ref string) (Order, error) {
	var o Order
	err := r.db.WithContext(ctx).First(&o, "payment_reference = ?", ref).Error
	return o, err
}

type ListParams struct {
	UserID   string // empty: all orders (admin)
	Page     int
	PageSize int
}

type ListResult struct {
	Items []Order
	Total int64
}

func (r *Repo) List(ctx context.Context, in ListParams) (ListResult, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	size := in.PageSize
	if size < 1 || size > 100 {
		size = 20
	}

	q := r.db.WithContext(ctx).Model(&Order{})
	if in.UserID != "" {
		q = q.Where("user_id = ?", in.UserID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return ListResult{}, err
	}

	var rows []Order
	if err := q.
		Order("created_at DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&rows).Error; err != nil {
		return ListResult{}, err
	}

	return ListResult{Items: rows, Total: total}, nil
}

type SalesSummary struct {
	TotalOrders    int64
	PaidOrders     int64
	PaidSalesCents int64
}

func (r *Repo) Summary(ctx context.Context) (SalesSummary, error) {
	var out SalesSummary
	if err := r.db.WithContext(ctx).Model(&Order{}).Count(&out.TotalOrders).Error; err != nil {
		return SalesSummary{}, err
	}
	row := r.db.WithContext(ctx).Model(&Order{}).
		Where("is_paid = ?", true).
		Select("COUNT(*), COALESCE(SUM(total_cents), 0)").
		Row()
	if err := row.Scan(&out.PaidOrders, &out.PaidSalesCents); err != nil {
		return SalesSummary{}, err
	}
	return out, nil
}

// SetPaymentReference records the provider-issued reference exactly once.
// Returns false when the order already carries a reference or is paid.
func (r *Repo) SetPaymentReference(ctx context.Context, orderID, ref string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND payment_reference IS NULL AND is_paid = ?", orderID, false).
		Updates(map[string]any{
			"payment_reference": ref,
			"updated_at":        time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkPaid applies the paid-state transition as one conditional update so a
// concurrent duplicate delivery loses the race harmlessly (zero rows). The
// three payment fields are written together or not at all.
func (r *Repo) MarkPaid(ctx context.Context, ref string, paidAt time.Time, providerTxnID string) (bool, error) {
	return markPaidTx(ctx, r.db, ref, paidAt, providerTxnID)
}

func markPaidTx(ctx context.Context, tx *gorm.DB, ref string, paidAt time.Time, providerTxnID string) (bool, error) {
	res := tx.WithContext(ctx).Model(&Order{}).
		Where("payment_reference = ? AND is_paid = ?", ref, false).
		Updates(map[string]any{
			"is_paid":         true,
			"paid_at":         paidAt,
			"provider_txn_id": providerTxnID,
			"updated_at":      time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkPaidInTx is the same conditional update inside a caller-owned
// transaction (the webhook reconciler's).
func (r *Repo) MarkPaidInTx(ctx context.Context, tx *gorm.DB, ref string, paidAt time.Time, providerTxnID string) (bool, error) {
	return markPaidTx(ctx, tx, ref, paidAt, providerTxnID)
}

func (r *Repo) MarkDelivered(ctx context.Context, orderID string) (bool, error) {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND is_delivered = ?", orderID, false).
		Updates(map[string]any{
			"is_delivered": true,
			"delivered_at": now,
			"updated_at":   now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
