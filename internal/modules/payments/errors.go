package payments

import "errors"

var (
	ErrAlreadyPaid      = errors.New("order already paid")
	ErrBadSignature     = errors.New("webhook signature mismatch")
	ErrUnknownReference = errors.New("no order for payment reference")
	ErrAmountMismatch   = errors.New("webhook amount does not match order total")
	ErrNotSuccessful    = errors.New("charge status is not success")
	ErrMissingPaidAt    = errors.New("charge has no payment timestamp")
	ErrUpstream         = errors.New("payment provider request failed")
)
