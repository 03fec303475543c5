package service

import "errors"

var (
	ErrPassEmpty               = errors.New("court pass is empty")
	ErrPassInvalid             = errors.New("court pass is invalid")
	ErrPassUnexpectedSignature = errors.New("court pass has an unexpected signing method")
	ErrPassInvalidClaims       = errors.New("court pass claims are invalid")
	ErrPassNotCurrent          = errors.New("court pass does not belong to the match on court")
)
