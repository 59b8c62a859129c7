package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"inventory/internal/models"

	"github.com/go-resty/resty/v2"
)

// VerifyPath is the auth service endpoint the remote verifier calls.
const VerifyPath = "/api/auth/verify"

// DefaultVerifyTimeout bounds one remote verification round trip.
const DefaultVerifyTimeout = 5 * time.Second

type verifyResponse struct {
	Success bool      `json:"success"`
	User    *Identity `json:"user"`
}

// RemoteVerifier delegates token checks to the auth service over HTTP. It
// holds no signing secret and trusts a successful answer as-is. There is no
// cache and no retry: a timeout or transport error is an authentication
// failure.
type RemoteVerifier struct {
	client *resty.Client
}

// NewRemoteVerifier creates a verifier against the auth service at baseURL.
func NewRemoteVerifier(baseURL string, timeout time.Duration) *RemoteVerifier {
	if timeout <= 0 {
		timeout = DefaultVerifyTimeout
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &RemoteVerifier{client: client}
}

// Verify implements TokenVerifier. Every failure wraps ErrUnauthenticated.
func (v *RemoteVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrUnauthenticated
	}

	var body verifyResponse
	resp, err := v.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&body).
		Get(VerifyPath)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: verify request: %v", ErrUnauthenticated, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return Identity{}, fmt.Errorf("%w: auth service answered %d", ErrUnauthenticated, resp.StatusCode())
	}
	if !body.Success || body.User == nil || body.User.ID == "" {
		return Identity{}, fmt.Errorf("%w: malformed verify response", ErrUnauthenticated)
	}

	role, err := models.ParseRole(string(body.User.Role))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return Identity{ID: body.User.ID, Role: role}, nil
}
