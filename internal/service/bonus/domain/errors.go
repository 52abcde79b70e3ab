// internal/service/bonus/domain/errors.go
package domain

import "errors"

var (
	ErrAccountNotFound        = errors.New("bonus account not found")
	ErrNegativeAmount         = errors.New("redemption amount must be non-negative")
	ErrInsufficientBalance    = errors.New("insufficient bonus balance")
	ErrRedemptionExceedsPrice = errors.New("redemption amount exceeds booking price")
)
