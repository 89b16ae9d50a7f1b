package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/shiftboard/internal/config"
)

// ErrRejected is returned when the provider refuses the credentials.
var ErrRejected = errors.New("identity provider rejected credentials")

// Account is the subset of the provider's sign-in response the application uses.
type Account struct {
	LocalID string `json:"localId"`
	Email   string `json:"email"`
}

// Client signs users in with email and password.
type Client interface {
	SignInWithPassword(ctx context.Context, email, password string) (*Account, error)
}

// APIClient is a resty-backed implementation of Client for the identity toolkit REST API.
type APIClient struct {
	httpClient *resty.Client
	apiKey     string
}

// NewClient builds an identity client using the provided configuration values.
func NewClient(cfg config.IdentityConfig) *APIClient {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(10 * time.Second)

	return &APIClient{
		httpClient: restyClient,
		apiKey:     cfg.APIKey,
	}
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignInWithPassword exchanges credentials for the account they belong to. Any 4xx answer is
// reported as ErrRejected without further distinction.
func (c *APIClient) SignInWithPassword(ctx context.Context, email, password string) (*Account, error) {
	payload := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}

	result := new(Account)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(payload).
		SetResult(result).
		SetError(apiErr).
		Post("/v1/accounts:signInWithPassword")
	if err != nil {
		return nil, fmt.Errorf("identity sign in: %w", err)
	}

	status := resp.StatusCode()
	if status >= http.StatusBadRequest && status < http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: %s", ErrRejected, apiErr.Error.Message)
	}
	if status >= http.StatusInternalServerError {
		return nil, fmt.Errorf("identity provider error: status=%d", status)
	}
	if result.Email == "" {
		result.Email = email
	}

	return result, nil
}
