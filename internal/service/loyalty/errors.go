package loyalty

import "errors"

var (
	ErrAccountNotFound    = errors.New("loyalty account not found")
	ErrInsufficientPoints = errors.New("insufficient points")
)
