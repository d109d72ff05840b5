package auth

import "errors"

var (
	ErrMissingConfiguration = errors.New("missing andbang auth configuration")
	ErrCsrfStateMismatch    = errors.New("oauth state does not match session")
	ErrProviderDenied       = errors.New("provider denied authorization")
	ErrUnauthenticated      = errors.New("no credential present")
)
