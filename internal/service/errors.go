package service

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrRemote        = errors.New("remote api error")
	ErrMisconfigured = errors.New("auth config invalid")
)
