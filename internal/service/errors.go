package service

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrImageNotFound        = errors.New("image not found")
	ErrInvalidImage         = errors.New("invalid image record")
	ErrInvalidInput         = errors.New("invalid input")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrRegistrationFailed   = errors.New("registration failed: username or email already exists")
	ErrInternalServer       = errors.New("internal server error")
)
