package provider

import "errors"

var (
	ErrExchangeFailed     = errors.New("authorization code exchange failed")
	ErrValidationFailed   = errors.New("access token validation failed")
	ErrTokenMismatch      = errors.New("validated access token does not match submitted token")
	ErrProfileFetchFailed = errors.New("user profile fetch failed")
	ErrRefreshFailed      = errors.New("access token refresh failed")
)
