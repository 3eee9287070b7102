package orders

import "errors"

var (
	ErrNoItems         = errors.New("order has no items")
	ErrProductNotFound = errors.New("product not found")
)
