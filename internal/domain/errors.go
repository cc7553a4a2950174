package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidAmount    = errors.New("amount must be greater than zero")
	ErrUnknownReference = errors.New("unknown booking reference")
	ErrDuplicatePayment = errors.New("payment already initiated for this reference")
	ErrEmailTaken       = errors.New("email already registered")
	ErrInvalidLogin     = errors.New("invalid email or password")
)
