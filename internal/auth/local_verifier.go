package auth

import (
	"context"
	"fmt"

	"inventory/internal/models"
)

// UserLookup is the slice of the credential store the local verifier needs.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// LocalVerifier checks tokens inside the issuing service. After the
// signature and expiry pass, the user is re-read so that deleted users are
// rejected and role changes apply immediately.
type LocalVerifier struct {
	issuer *Issuer
	users  UserLookup
}

// NewLocalVerifier creates a LocalVerifier.
func NewLocalVerifier(issuer *Issuer, users UserLookup) *LocalVerifier {
	return &LocalVerifier{issuer: issuer, users: users}
}

// Verify implements TokenVerifier. Every failure wraps ErrUnauthenticated.
func (v *LocalVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrUnauthenticated
	}

	claims, err := v.issuer.Parse(token)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	user, err := v.users.GetByID(ctx, claims.Subject)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: user lookup: %v", ErrUnauthenticated, err)
	}
	if !user.Role.Valid() {
		return Identity{}, fmt.Errorf("%w: user %s has unknown role %q", ErrUnauthenticated, user.ID, user.Role)
	}

	return Identity{ID: user.ID, Role: user.Role}, nil
}
