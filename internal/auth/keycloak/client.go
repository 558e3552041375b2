package keycloak

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/niolikon/taskboard/internal/apperr"
)

// ErrRequestFailed is returned when Keycloak rejects a request.
var ErrRequestFailed = apperr.Unauthorized("Could not perform request to keycloak")

const maxResponseBytes = 1 << 20

// Client performs token requests against a realm.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a Client. A nil httpClient gets a 10 second timeout.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{cfg: cfg, httpClient: httpClient}
}

// Login exchanges user credentials for tokens (password grant).
func (c *Client) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	return c.token(ctx, TokenRequest{
		GrantType: GrantPassword,
		Username:  username,
		Password:  password,
	})
}

// Refresh exchanges a refresh token for new tokens.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	return c.token(ctx, TokenRequest{
		GrantType:    GrantRefreshToken,
		RefreshToken: refreshToken,
	})
}

// Logout ends the session bound to refreshToken.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	resp, err := c.post(ctx, c.cfg.LogoutURL(), TokenRequest{RefreshToken: refreshToken})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
	return nil
}

func (c *Client) token(ctx context.Context, req TokenRequest) (*TokenResponse, error) {
	resp, err := c.post(ctx, c.cfg.TokenURL(), req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out TokenResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode keycloak token response: %w", err)
	}
	return &out, nil
}

// post sends the form and returns the response when the status is 2xx.
func (c *Client) post(ctx context.Context, endpoint string, req TokenRequest) (*http.Response, error) {
	body := req.Form(c.cfg).Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build keycloak request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("keycloak %s: %w", redact(endpoint), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		resp.Body.Close()
		return nil, ErrRequestFailed.Wrap(fmt.Errorf("keycloak responded %d", resp.StatusCode))
	}
	return resp, nil
}

func redact(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	u.User = nil
	u.RawQuery = ""
	return u.String()
}
