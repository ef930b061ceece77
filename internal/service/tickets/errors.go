package tickets

import "errors"

var (
	ErrSeatRequired  = errors.New("seat number is required")
	ErrEventNotFound = errors.New("event not found")
	ErrSoldOut       = errors.New("no tickets available")
)
