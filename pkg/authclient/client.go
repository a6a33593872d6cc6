/**
 * @description
 * This package provides a client for the external auth/database service's
 * REST API. It encapsulates the calls the confirmation flow depends on:
 * session establishment from a token pair, one-time token verification (by
 * token hash or token+email), and PKCE-style code exchange.
 *
 * The service itself is a black box; this client only speaks its HTTP
 * surface and never interprets credentials beyond relaying them.
 */
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a client for the auth service API.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new auth API client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// User is the authenticated identity as returned by the auth service.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Metadata struct {
		BusinessName string `json:"business_name"`
		PhoneNumber  string `json:"phone_number"`
		Country      string `json:"country"`
	} `json:"user_metadata"`
}

// Session is an established session including its user.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	User         User   `json:"user"`
}

// ErrorResponse represents an error payload from the auth API.
type ErrorResponse struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
	Msg         string `json:"msg"`
}

func (e *ErrorResponse) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("auth api error: %s", e.Description)
	}
	if e.Msg != "" {
		return fmt.Sprintf("auth api error: %s", e.Msg)
	}
	if e.Code != "" {
		return fmt.Sprintf("auth api error: %s", e.Code)
	}
	return "unknown auth api error"
}

// GetUser fetches the user an access token belongs to. It doubles as token
// validation for the direct session-set strategy.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.APIKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var user User
	if err := c.do(req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// RefreshSession exchanges a refresh token for a new session.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	payload := map[string]string{"refresh_token": refreshToken}
	return c.postForSession(ctx, "/token?grant_type=refresh_token", payload)
}

// VerifyTokenHash confirms a one-time token hash for the given OTP type.
func (c *Client) VerifyTokenHash(ctx context.Context, tokenHash, otpType string) (*Session, error) {
	payload := map[string]string{"type": otpType, "token_hash": tokenHash}
	return c.postForSession(ctx, "/verify", payload)
}

// VerifyToken confirms a raw one-time token bound to an email address.
func (c *Client) VerifyToken(ctx context.Context, token, email, otpType string) (*Session, error) {
	payload := map[string]string{"type": otpType, "token": token, "email": email}
	return c.postForSession(ctx, "/verify", payload)
}

// ExchangeCode exchanges a one-time authorization code for a session.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*Session, error) {
	payload := map[string]string{"auth_code": code}
	return c.postForSession(ctx, "/token?grant_type=pkce", payload)
}

func (c *Client) postForSession(ctx context.Context, path string, payload map[string]string) (*Session, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	var session Session
	if err := c.do(req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr ErrorResponse
		if jsonErr := json.Unmarshal(raw, &apiErr); jsonErr == nil {
			return &apiErr
		}
		return fmt.Errorf("auth api returned status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to decode auth api response: %w", err)
		}
	}
	return nil
}
