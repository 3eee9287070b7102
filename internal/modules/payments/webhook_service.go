package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"akwaabamarket.com/app/internal/modules/events"
	"akwaabamarket.com/app/internal/modules/orders"
)

// ProviderEvent is the audit row for every inbound webhook. The uniqueness
// guard on (provider, event_type, event_id) short-circuits redeliveries of
// events that processed cleanly; errored rows are re-applied on retry.
type ProviderEvent struct {
	ID          string         `gorm:"type:char(36);primaryKey"`
	Provider    string         `gorm:"type:varchar(64);not null;uniqueIndex:ux_provider_events_event,priority:1"`
	EventType   string         `gorm:"type:varchar(64);not null;uniqueIndex:ux_provider_events_event,priority:2"`
	EventID     string         `gorm:"type:varchar(128);not null;uniqueIndex:ux_provider_events_event,priority:3"`
	PayloadJSON datatypes.JSON `gorm:"type:json;not null"`

	ReceivedAt   time.Time  `gorm:"type:datetime(3);not null"`
	ProcessedAt  *time.Time `gorm:"type:datetime(3)"`
	ProcessError *string    `gorm:"type:varchar(255)"`
}

func (ProviderEvent) TableName() string { return "provider_events" }

// WebhookService applies verified provider notifications to orders. The
// paid-state transition happens exactly once per order regardless of how
// many times the provider delivers the notification.
type WebhookService struct {
	db        *gorm.DB
	orders    *orders.Repo
	publisher events.Publisher
	logger    *slog.Logger
}

func NewWebhookService(db *gorm.DB, pub events.Publisher) *WebhookService {
	if pub == nil {
		pub = events.NoopPublisher{}
	}
	return &WebhookService{db: db, orders: orders.NewRepo(db), publisher: pub, logger: slog.Default()}
}

func (s *WebhookService) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

func (s *WebhookService) Handle(ctx context.Context, providerName string, ev WebhookEvent, rawBody []byte) error {
	pe := ProviderEvent{
		ID:          uuid.NewString(),
		Provider:    providerName,
		EventType:   ev.Type,
		EventID:     ev.EventID,
		PayloadJSON: datatypes.JSON(rawBody),
		ReceivedAt:  time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&pe).Error; err != nil {
		if !isDup(err) {
			return err
		}
		// Delivered before. Only a successfully processed event is a no-op;
		// a row carrying process_error means the provider is retrying after
		// our 500, so run the apply again against the same row.
		var prev ProviderEvent
		if err := s.db.WithContext(ctx).
			First(&prev, "provider = ? AND event_type = ? AND event_id = ?",
				providerName, ev.Type, ev.EventID).Error; err != nil {
			return err
		}
		if prev.ProcessedAt != nil {
			s.logger.InfoContext(ctx, "webhook event deduplicated",
				"provider", providerName, "event_id", ev.EventID, "type", ev.Type)
			return nil
		}
		pe = prev
	}

	var paidApplied bool
	var paidOrder orders.Order
	var applyErr error

	switch ev.Type {
	case EventChargeSuccess:
		applyErr = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			paidOrder, paidApplied, err = s.applyChargeSucceeded(ctx, tx, ev)
			return err
		})
	default:
		// Only charge.success drives state; everything else is
		// acknowledged and ignored.
		s.logger.InfoContext(ctx, "webhook event ignored",
			"provider", providerName, "event_id", ev.EventID, "type", ev.Type)
	}

	if applyErr != nil {
		msg := truncate(applyErr.Error(), 250)
		if uerr := s.db.WithContext(ctx).Model(&ProviderEvent{}).
			Where("id = ?", pe.ID).
			Updates(map[string]any{"process_error": msg}).Error; uerr != nil {
			s.logger.ErrorContext(ctx, "failed to record webhook apply error", "event_id", ev.EventID, "err", uerr)
		}
		s.logger.ErrorContext(ctx, "webhook event apply failed",
			"provider", providerName, "event_id", ev.EventID, "type", ev.Type, "error", msg)
		// Propagate so the handler returns 500 and the provider retries.
		return applyErr
	}

	processed := time.Now()
	if err := s.db.WithContext(ctx).Model(&ProviderEvent{}).
		Where("id = ?", pe.ID).
		Updates(map[string]any{"processed_at": &processed, "process_error": nil}).Error; err != nil {
		return err
	}

	if paidApplied {
		s.logger.InfoContext(ctx, "order marked paid",
			"order_id", paidOrder.ID, "reference", ev.Reference, "txn_id", ev.TransactionID)
		if perr := s.publisher.PublishOrderEvent(ctx, events.OrderEvent{
			OrderID:     paidOrder.ID,
			Type:        events.TypeOrderPaid,
			AmountCents: paidOrder.TotalCents,
			Currency:    paidOrder.Currency,
			Occurred:    time.Now(),
		}); perr != nil {
			s.logger.ErrorContext(ctx, "failed to publish order.paid event", "order_id", paidOrder.ID, "err", perr)
		}
	}
	return nil
}

// applyChargeSucceeded validates the event against the matching order and
// performs the conditional paid-state update. Returns applied=false for the
// idempotent already-paid no-op.
func (s *WebhookService) applyChargeSucceeded(ctx context.Context, tx *gorm.DB, ev WebhookEvent) (orders.Order, bool, error) {
	if ev.Reference == "" {
		return orders.Order{}, false, fmt.Errorf("%w: empty reference", ErrUnknownReference)
	}

	var o orders.Order
	if err := tx.WithContext(ctx).First(&o, "payment_reference = ?", ev.Reference).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return orders.Order{}, false, fmt.Errorf("%w: %s", ErrUnknownReference, ev.Reference)
		}
		return orders.Order{}, false, err
	}

	// Providers may deliver the same notification more than once.
	if o.IsPaid {
		return o, false, nil
	}

	if ev.Status != "success" {
		return orders.Order{}, false, fmt.Errorf("%w: %q", ErrNotSuccessful, ev.Status)
	}
	if ev.PaidAt == nil {
		return orders.Order{}, false, ErrMissingPaidAt
	}
	if ev.AmountCents != o.TotalCents {
		return orders.Order{}, false, fmt.Errorf("%w: got %d, want %d", ErrAmountMismatch, ev.AmountCents, o.TotalCents)
	}

	applied, err := s.orders.MarkPaidInTx(ctx, tx, ev.Reference, *ev.PaidAt, ev.TransactionID)
	if err != nil {
		return orders.Order{}, false, err
	}
	if !applied {
		// Lost the race to a concurrent delivery; same end state.
		return o, false, nil
	}

	o.IsPaid = true
	o.PaidAt = ev.PaidAt
	o.ProviderTxnID = &ev.TransactionID
	return o, true, nil
}

func isDup(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == 1062 {
		return true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
