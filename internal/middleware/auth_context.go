package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"

	"shelter-partner/internal/platform/logger"
	"shelter-partner/internal/ports/auth"
)

type ctxKey string

const (
	claimsKey ctxKey = "claims"

	debugUserHeader = "X-Debug-User-ID"
)

// AuthContext deja los claims del usuario en el contexto:
// - con verifier: Authorization: Bearer <token>.
// - sin verifier (dev): header X-Debug-User-ID.
// Nunca corta el request; cada handler decide si exige usuario (401).
func AuthContext(verifier auth.AuthVerifier, log logger.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := resolveClaims(r, verifier, log)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
		})
	}
}

func resolveClaims(r *http.Request, verifier auth.AuthVerifier, log logger.Logger) (auth.Claims, bool) {
	debugUID := strings.TrimSpace(r.Header.Get(debugUserHeader))

	if verifier == nil {
		if debugUID == "" {
			return auth.Claims{}, false
		}
		return auth.Claims{UserID: debugUID}, true
	}

	fields := map[string]any{
		"request_id": chimw.GetReqID(r.Context()),
		"path":       r.URL.Path,
	}
	if debugUID != "" {
		log.Debug("debug user header ignored, verifier configured", fields)
	}

	token := bearerToken(r.Header.Get("Authorization"))
	if token == "" {
		return auth.Claims{}, false
	}

	claims, err := verifier.Verify(r.Context(), token)
	if err != nil {
		fields["reason"] = rejectReason(err)
		fields["err"] = err
		log.Warn("token rejected", fields)
		return auth.Claims{}, false
	}
	return claims, true
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return "expired"
	case errors.Is(err, auth.ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenEmpty):
		return "invalid"
	default:
		return "verifier_error"
	}
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(auth.Claims)
	return c, ok
}

func bearerToken(authHeader string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(authHeader), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
