package errors

import "errors"

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrNotBookable         = errors.New("order does not carry booking metadata")
	ErrUpstreamUnavailable = errors.New("order store unavailable")
	ErrProviderForbidden   = errors.New("caller is not authorized for the requested provider")
	ErrInvalidRequest      = errors.New("invalid request")
)
