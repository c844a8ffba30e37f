package token

import "errors"

var (
	ErrTokenNotFound         = errors.New("token not found")
	ErrTokenExpired          = errors.New("token expired")
	ErrWrongPin              = errors.New("wrong pin")
	ErrTokenAlreadyExists    = errors.New("token already exists")
	ErrIdentityAlreadyExists = errors.New("token record for identity already exists")
)

var (
	ErrMissingFields = errors.New("missing required fields")
	ErrInvalidPin    = errors.New("pin must be exactly 4 characters")
)
