package domain

import "errors"

var (
	ErrValueNotFound          = errors.New("value not found")
	ErrInvalidKey             = errors.New("invalid key")
	ErrTemporarilyUnavailable = errors.New("temporarily unavailable")
)
