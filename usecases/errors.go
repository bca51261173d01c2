package usecases

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("access unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrUsernameTaken      = errors.New("username or email already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSelfFollow         = errors.New("you cannot follow yourself")
	ErrSelfLike           = errors.New("you cannot like your own message")
	ErrInvalidMessage     = errors.New("message text must be 1 to 140 characters")
)
