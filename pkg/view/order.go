package view

import (
	"time"

	"akwaabamarket.com/app/internal/modules/orders"
)

type OrderItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

type OrderDetail struct {
	ID            string      `json:"id"`
	UserID        string      `json:"user_id"`
	CustomerEmail string      `json:"customer_email"`
	Currency      string      `json:"currency"`
	ItemsTotal    string      `json:"items_total"`
	ShippingTotal string      `json:"shipping_total"`
	TaxTotal      string      `json:"tax_total"`
	GrandTotal    string      `json:"grand_total"`
	IsPaid        bool        `json:"is_paid"`
	PaidAt        *time.Time  `json:"paid_at,omitempty"`
	ProviderTxnID *string     `json:"provider_txn_id,omitempty"`
	IsDelivered   bool        `json:"is_delivered"`
	DeliveredAt   *time.Time  `json:"delivered_at,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	Items         []OrderItem `json:"items,omitempty"`
}

func OrderDetailFrom(o orders.Order, items []orders.OrderItem) OrderDetail {
	vm := OrderDetail{
		ID:            o.ID,
		UserID:        o.UserID,
		CustomerEmail: o.CustomerEmail,
		Currency:      o.Currency,
		ItemsTotal:    AmountFromCents(o.ItemsCents),
		ShippingTotal: AmountFromCents(o.ShippingCents),
		TaxTotal:      AmountFromCents(o.TaxCents),
		GrandTotal:    AmountFromCents(o.TotalCents),
		IsPaid:        o.IsPaid,
		PaidAt:        o.PaidAt,
		ProviderTxnID: o.ProviderTxnID,
		IsDelivered:   o.IsDelivered,
		DeliveredAt:   o.DeliveredAt,
		CreatedAt:     o.CreatedAt,
	}
	for _, it := range items {
		vm.Items = append(vm.Items, OrderItem{
			ProductID: it.ProductID,
			Name:      it.ProductName,
			Quantity:  it.Quantity,
			UnitPrice: AmountFromCents(it.UnitPriceCents),
			LineTotal: AmountFromCents(it.LineTotalCents),
		})
	}
	return vm
}
