package users

import "errors"

var (
	ErrInvalidPayload = errors.New("missing required fields")
)
