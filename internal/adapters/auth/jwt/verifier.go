package jwt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"shelter-partner/internal/ports/auth"
)

var (
	ErrTokenEmpty     = auth.ErrTokenEmpty
	ErrNotConfigured  = fmt.Errorf("%w: jwt secret is empty", auth.ErrNotConfigured)
	ErrInvalidToken   = auth.ErrInvalidToken
	ErrMissingSubject = fmt.Errorf("%w: claims missing user id", auth.ErrInvalidToken)
)

type tokenClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwtlib.RegisteredClaims
}

// Verifier implementa auth.AuthVerifier con tokens HS256 firmados con un secreto compartido.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil || len(v.secret) == 0 {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	t, err := jwtlib.ParseWithClaims(token, &tokenClaims{}, func(t *jwtlib.Token) (interface{}, error) {
		return v.secret, nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return auth.Claims{}, fmt.Errorf("%w: %w", auth.ErrTokenExpired, err)
		}
		return auth.Claims{}, fmt.Errorf("%w: %w", auth.ErrInvalidToken, err)
	}
	c, ok := t.Claims.(*tokenClaims)
	if !ok || !t.Valid {
		return auth.Claims{}, ErrInvalidToken
	}

	uid := strings.TrimSpace(c.Subject)
	if uid == "" {
		return auth.Claims{}, ErrMissingSubject
	}
	return auth.Claims{UserID: uid, Email: c.Email, Role: c.Role}, nil
}

// Sign emite un token para el usuario. Lo usan los tests y el tooling de dev.
func (v *Verifier) Sign(userID, email string, ttl time.Duration) (string, error) {
	if v == nil || len(v.secret) == 0 {
		return "", ErrNotConfigured
	}
	claims := tokenClaims{
		Email: email,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(v.secret)
}
