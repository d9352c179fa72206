package errors

import "errors"

var (
	ErrNotAuthorized      = errors.New("no partner token available, complete the oauth exchange first")
	ErrPartnerUnavailable = errors.New("partner booking system unavailable")
	ErrInvalidSignature   = errors.New("webhook signature mismatch")
	ErrInvalidRequest     = errors.New("invalid request")
)
