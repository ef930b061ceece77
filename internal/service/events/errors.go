package events

import "errors"

var (
	ErrInvalidPayload  = errors.New("missing required fields")
	ErrEventNotFound   = errors.New("event not found")
	ErrSeatingNotFound = errors.New("event seating not found")
)
