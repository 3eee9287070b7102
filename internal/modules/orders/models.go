package orders

import "time"

// Order owns the canonical payment state. Line items and totals are frozen
// at creation; the payment reconciler and the fulfillment action mutate
// their own field groups independently.
type Order struct {
	ID            string `gorm:"type:char(36);primaryKey" json:"id"`
	UserID        string `gorm:"type:char(36);not null;index:ix_orders_user_id" json:"user_id"`
	CustomerEmail string `gorm:"type:varchar(255);not null" json:"customer_email"`
	Currency      string `gorm:"type:char(3);not null" json:"currency"`

	ItemsCents    int64 `gorm:"not null" json:"items_cents"`
	ShippingCents int64 `gorm:"not null" json:"shipping_cents"`
	TaxCents      int64 `gorm:"not null" json:"tax_cents"`
	TotalCents    int64 `gorm:"not null" json:"total_cents"`

	// Set once when a payment attempt is initiated; join key for webhooks.
	PaymentReference *string `gorm:"type:varchar(128);uniqueIndex:ux_orders_payment_reference" json:"payment_reference"`

	IsPaid        bool       `gorm:"not null;default:0" json:"is_paid"`
	PaidAt        *time.Time `gorm:"type:datetime(3)" json:"paid_at"`
	ProviderTxnID *string    `gorm:"type:varchar(128)" json:"provider_txn_id"`

	IsDelivered bool       `gorm:"not null;default:0" json:"is_delivered"`
	DeliveredAt *time.Time `gorm:"type:datetime(3)" json:"delivered_at"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:datetime(3);not null" json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

type OrderItem struct {
	ID             string    `gorm:"type:char(36);primaryKey" json:"id"`
	OrderID        string    `gorm:"type:char(36);not null;index:ix_order_items_order_id" json:"order_id"`
	ProductID      string    `gorm:"type:char(36);not null" json:"product_id"`
	ProductName    string    `gorm:"type:varchar(255);not null" json:"product_name"`
	Quantity       int       `gorm:"not null" json:"quantity"`
	UnitPriceCents int64     `gorm:"not null" json:"unit_price_cents"`
	LineTotalCents int64     `gorm:"not null" json:"line_total_cents"`
	Currency       string    `gorm:"type:char(3);not null" json:"currency"`
	CreatedAt      time.Time `gorm:"type:datetime(3);not null" json:"created_at"`
}

func (OrderItem) TableName() string { return "order_items" }
