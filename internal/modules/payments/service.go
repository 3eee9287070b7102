package payments

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"akwaabamarket.com/app/internal/modules/orders"
)

// Service initiates provider transactions for unpaid orders and records the
// returned reference. It never sets paid state; the synchronous provider
// response is not trusted evidence of payment.
type Service struct {
	db       *gorm.DB
	orders   *orders.Repo
	provider Provider
}

func NewService(db *gorm.DB, provider Provider) *Service {
	return &Service{db: db, orders: orders.NewRepo(db), provider: provider}
}

type InitiateInput struct {
	OrderID     string
	CallbackURL string
}

type InitiateResult struct {
	Order            orders.Order
	Reference        string
	AuthorizationURL string
	AccessCode       string
}

func (s *Service) InitiatePayment(ctx context.Context, in InitiateInput) (InitiateResult, error) {
	o, _, err := s.orders.GetWithItems(ctx, in.OrderID)
	if err != nil {
		return InitiateResult{}, err
	}
	if o.IsPaid {
		return InitiateResult{}, ErrAlreadyPaid
	}

	resp, err := s.provider.InitializeTransaction(ctx, InitializeRequest{
		OrderID:     o.ID,
		AmountCents: o.TotalCents,
		Currency:    o.Currency,
		Email:       o.CustomerEmail,
		CallbackURL: in.CallbackURL,
	})
	if err != nil {
		// Upstream failed before a reference existed; the order is untouched.
		return InitiateResult{}, err
	}

	ok, err := s.orders.SetPaymentReference(ctx, o.ID, resp.Reference)
	if err != nil {
		return InitiateResult{}, err
	}
	if !ok {
		// A reference was set by an earlier attempt, or the order got paid
		// meanwhile. Re-read and report the current state.
		cur, _, rerr := s.orders.GetWithItems(ctx, o.ID)
		if rerr != nil {
			return InitiateResult{}, rerr
		}
		if cur.IsPaid {
			return InitiateResult{}, ErrAlreadyPaid
		}
		return InitiateResult{}, fmt.Errorf("order %s already has payment reference", o.ID)
	}

	o, _, err = s.orders.GetWithItems(ctx, o.ID)
	if err != nil {
		return InitiateResult{}, err
	}

	return InitiateResult{
		Order:            o,
		Reference:        resp.Reference,
		AuthorizationURL: resp.AuthorizationURL,
		AccessCode:       resp.AccessCode,
	}, nil
}
