package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"akwaabamarket.com/app/internal/modules/products"
)

type Service struct {
	db       *gorm.DB
	products *products.Repo
}

func NewService(db *gorm.DB, pr *products.Repo) *Service {
	return &Service{db: db, products: pr}
}

type CreateOrderLine struct {
	ProductID string
	Quantity  int
}

type CreateOrderInput struct {
	UserID        string
	CustomerEmail string
	Currency      string
	Lines         []CreateOrderLine
}

// CreateOrder resolves unit prices against the catalog, computes the stored
// totals, and persists order plus items in one transaction. Items and
// pricing are immutable afterwards.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (Order, []OrderItem, error) {
	if len(in.Lines) == 0 {
		return Order{}, nil, ErrNoItems
	}

	ids := make([]string, 0, len(in.Lines))
	for _, ln := range in.Lines {
		ids = append(ids, ln.ProductID)
	}
	catalog, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return Order{}, nil, err
	}

	now := time.Now()
	priceLines := make([]PriceLine, 0, len(in.Lines))
	items := make([]OrderItem, 0, len(in.Lines))
	for _, ln := range in.Lines {
		p, ok := catalog[ln.ProductID]
		if !ok {
			return Order{}, nil, fmt.Errorf("%w: %s", ErrProductNotFound, ln.ProductID)
		}
		qty := ln.Quantity
		if qty < 1 {
			qty = 1
		}
		priceLines = append(priceLines, PriceLine{UnitPriceCents: p.PriceCents, Quantity: qty})
		items = append(items, OrderItem{
			ID:             uuid.NewString(),
			ProductID:      p.ID,
			ProductName:    p.Name,
			Quantity:       qty,
			UnitPriceCents: p.PriceCents,
			LineTotalCents: p.PriceCents * int64(qty),
			Currency:       in.Currency,
			CreatedAt:      now,
		})
	}

	totals := ComputeTotals(priceLines)

	o := Order{
		ID:            uuid.NewString(),
		UserID:        in.UserID,
		CustomerEmail: in.CustomerEmail,
		Currency:      in.Currency,
		ItemsCents:    totals.ItemsCents,
		ShippingCents: totals.ShippingCents,
		TaxCents:      totals.TaxCents,
		TotalCents:    totals.TotalCents,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&o).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = o.ID
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		return Order{}, nil, err
	}
	return o, items, nil
}
