package auth_test

import (
	"testing"
	"time"

	"inventory/internal/auth"
	"inventory/internal/models"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_jwt_secret"

func TestNewIssuer_RequiresSecret(t *testing.T) {
	_, err := auth.NewIssuer("", time.Hour)
	assert.ErrorIs(t, err, auth.ErrMissingSecret)

	_, err = auth.NewIssuer(testSecret, 0)
	assert.Error(t, err)
}

func TestIssuer_IssueAndParse(t *testing.T) {
	issuer, err := auth.NewIssuer(testSecret, 24*time.Hour)
	require.NoError(t, err)

	token, err := issuer.Issue("user-123", models.RoleAdmin)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.NotEmpty(t, claims.Id)
	assert.Equal(t, int64((24 * time.Hour).Seconds()), claims.ExpiresAt-claims.IssuedAt)
}

func TestIssuer_ParseRejectsExpiredToken(t *testing.T) {
	past := func() time.Time { return time.Now().Add(-2 * time.Hour) }
	pastIssuer, err := auth.NewIssuer(testSecret, time.Hour, auth.WithClock(past))
	require.NoError(t, err)

	token, err := pastIssuer.Issue("user-123", models.RoleUser)
	require.NoError(t, err)

	issuer, err := auth.NewIssuer(testSecret, time.Hour)
	require.NoError(t, err)
	_, err = issuer.Parse(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token")
}

func TestIssuer_ParseExpiryBoundary(t *testing.T) {
	issuedAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	now := issuedAt
	issuer, err := auth.NewIssuer(testSecret, time.Hour, auth.WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	token, err := issuer.Issue("user-123", models.RoleUser)
	require.NoError(t, err)

	// The package clock must not decide expiry.
	defer func(orig func() time.Time) { jwt.TimeFunc = orig }(jwt.TimeFunc)
	jwt.TimeFunc = func() time.Time { return issuedAt }

	tests := []struct {
		name  string
		at    time.Time
		valid bool
	}{
		{name: "at issue", at: issuedAt, valid: true},
		{name: "one second before expiry", at: issuedAt.Add(time.Hour - time.Second), valid: true},
		{name: "at expiry", at: issuedAt.Add(time.Hour), valid: false},
		{name: "after expiry", at: issuedAt.Add(time.Hour + time.Second), valid: false},
		{name: "before issue", at: issuedAt.Add(-time.Minute), valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now = tt.at
			claims, err := issuer.Parse(token)
			if !tt.valid {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "user-123", claims.Subject)
		})
	}
}

func TestIssuer_ParseRejectsForeignSignature(t *testing.T) {
	other, err := auth.NewIssuer("another_secret", time.Hour)
	require.NoError(t, err)
	token, err := other.Issue("user-123", models.RoleUser)
	require.NoError(t, err)

	issuer, err := auth.NewIssuer(testSecret, time.Hour)
	require.NoError(t, err)
	_, err = issuer.Parse(token)
	assert.Error(t, err)
}

func TestIssuer_ParseRejectsMalformedAndUnsignedTokens(t *testing.T) {
	issuer, err := auth.NewIssuer(testSecret, time.Hour)
	require.NoError(t, err)

	_, err = issuer.Parse("invalid.token.string")
	assert.Error(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.StandardClaims{
		Subject:   "user-123",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.Parse(unsigned)
	assert.Error(t, err)
}

func TestIssuer_ParseRequiresExpiryAndSubject(t *testing.T) {
	issuer, err := auth.NewIssuer(testSecret, time.Hour)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Subject: "user-123",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = issuer.Parse(noExpiry)
	assert.Error(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = issuer.Parse(noSubject)
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
		ok     bool
	}{
		{name: "valid", header: "Bearer abc.def.ghi", want: "abc.def.ghi", ok: true},
		{name: "empty", header: "", ok: false},
		{name: "no token", header: "Bearer ", ok: false},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", ok: false},
		{name: "lowercase scheme", header: "bearer abc", ok: false},
		{name: "token only", header: "abc.def.ghi", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := auth.BearerToken(tt.header)
			if !tt.ok {
				assert.ErrorIs(t, err, auth.ErrUnauthenticated)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
