package domain

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrMessageNotFound = errors.New("message not found")
	ErrEmptyMessage    = errors.New("message must have text or image")
	ErrMessageTooLong  = errors.New("message too long")
)
