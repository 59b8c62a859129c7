package auth

import (
	"errors"
	"fmt"
	"time"

	"inventory/internal/models"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

// ErrMissingSecret is returned when an Issuer is built without a key.
var ErrMissingSecret = errors.New("token signing secret is not configured")

// Claims is the payload of an issued token. The role claim is informational;
// verifiers re-read the role from the credential store.
type Claims struct {
	Role models.Role `json:"role,omitempty"`
	jwt.StandardClaims
}

// Valid checks the claims against the wall clock.
func (c Claims) Valid() error {
	return c.validAt(time.Now())
}

// validAt requires a subject and an expiry. A token is valid only while
// now is strictly before its expiry.
func (c Claims) validAt(now time.Time) error {
	if c.ExpiresAt == 0 {
		return errors.New("token has no expiry")
	}
	if c.Subject == "" {
		return errors.New("token has no subject")
	}
	unix := now.Unix()
	if unix >= c.ExpiresAt {
		return errors.New("token is expired")
	}
	if c.IssuedAt > unix {
		return errors.New("token used before issued")
	}
	if c.NotBefore > unix {
		return errors.New("token is not valid yet")
	}
	return nil
}

// Issuer mints and parses HS256 tokens with a fixed time-to-live.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// IssuerOption customises an Issuer.
type IssuerOption func(*Issuer)

// WithClock overrides the time source used when issuing and when checking
// expiry.
func WithClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) { i.now = now }
}

// NewIssuer creates an Issuer. An empty secret is a configuration error.
func NewIssuer(secret string, ttl time.Duration, opts ...IssuerOption) (*Issuer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	i := &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// TTL returns the lifetime of issued tokens.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs a token for the given user. Nothing is persisted.
func (i *Issuer) Issue(userID string, role models.Role) (string, error) {
	now := i.now()
	claims := Claims{
		Role: role,
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.New().String(),
			Subject:   userID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(i.ttl).Unix(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Parse checks the signature and expiry of tokenString against the
// issuer's clock and returns its claims.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parser := &jwt.Parser{SkipClaimsValidation: true}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if err := claims.validAt(i.now()); err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return claims, nil
}
