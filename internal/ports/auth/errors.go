package auth

import "errors"

// Errores que un AuthVerifier puede envolver; el middleware los usa para clasificar el rechazo.
var (
	ErrTokenEmpty    = errors.New("token is empty")
	ErrTokenExpired  = errors.New("token expired")
	ErrInvalidToken  = errors.New("invalid token")
	ErrNotConfigured = errors.New("verifier not configured")
)
