package session

import "errors"

var (
	// ErrInvalidToken indicates the token could not be decoded.
	ErrInvalidToken = errors.New("invalid token")
	// ErrMissingClaim indicates a required claim is absent from the token.
	ErrMissingClaim = errors.New("missing required claim")
)
