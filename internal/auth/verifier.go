// Package auth contains token issuance, the two token verifiers and the
// role gate shared by the auth and catalog services.
package auth

import (
	"context"
	"errors"
	"strings"

	"inventory/internal/models"
)

var (
	// ErrUnauthenticated covers every reason a presented credential is
	// rejected. Callers must not surface the underlying cause.
	ErrUnauthenticated = errors.New("not authorized")
	// ErrForbidden means the caller is authenticated but lacks the role.
	ErrForbidden = errors.New("forbidden")
)

// Identity is the resolved caller of a request.
type Identity struct {
	ID   string      `json:"id"`
	Role models.Role `json:"role"`
}

// TokenVerifier resolves a bearer token into the caller's identity.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// BearerToken extracts the token from an Authorization header value of the
// form "Bearer <token>".
func BearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" {
		return "", ErrUnauthenticated
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrUnauthenticated
	}
	return token, nil
}
