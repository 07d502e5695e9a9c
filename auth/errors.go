package auth

import "errors"

// Sentinel errors for credential handling.
var (
	ErrNoCredentials     = errors.New("auth: no credentials configured")
	ErrMissingSigningKey = errors.New("auth: signing key is required")
	ErrMissingIssuer     = errors.New("auth: issuer is required")
	ErrTokenMint         = errors.New("auth: token minting failed")
	ErrEmptyToken        = errors.New("auth: token source returned empty token")
)
