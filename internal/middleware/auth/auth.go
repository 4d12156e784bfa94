// Package auth resolves the owner of a request. Every ledger operation is
// scoped to that owner.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	ModeJWT    = "jwt"
	ModeHeader = "header"

	// OwnerHeader carries the owner id in header mode.
	OwnerHeader = "X-Owner-ID"
)

type contextKey struct{}

var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// WithOwner returns ctx carrying ownerID.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, contextKey{}, ownerID)
}

// OwnerFrom returns the owner stored by the middleware.
func OwnerFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok && id != ""
}

// Authenticator extracts the owner id from a request.
type Authenticator struct {
	mode   string
	secret []byte
}

func New(mode, secret string) (*Authenticator, error) {
	switch mode {
	case ModeJWT:
		if secret == "" {
			return nil, errors.New("jwt mode requires a secret")
		}
	case ModeHeader:
	default:
		return nil, fmt.Errorf("unknown auth mode %q", mode)
	}
	return &Authenticator{mode: mode, secret: []byte(secret)}, nil
}

// Owner returns the owner id of r.
func (a *Authenticator) Owner(r *http.Request) (string, error) {
	if a.mode == ModeHeader {
		id := strings.TrimSpace(r.Header.Get(OwnerHeader))
		if id == "" {
			return "", ErrMissingCredentials
		}
		return id, nil
	}

	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return "", ErrMissingCredentials
	}
	return a.parse(strings.TrimSpace(raw))
}

func (a *Authenticator) parse(raw string) (string, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: no subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

// Sign issues an HS256 token for ownerID. It backs local tooling and tests.
func (a *Authenticator) Sign(ownerID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   ownerID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Middleware rejects requests without a valid owner with onFail, or a plain
// 401 when onFail is nil.
func (a *Authenticator) Middleware(onFail func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner, err := a.Owner(r)
			if err != nil {
				if onFail != nil {
					onFail(w, r, err)
				} else {
					http.Error(w, "unauthorized", http.StatusUnauthorized)
				}
				return
			}
			next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), owner)))
		})
	}
}
