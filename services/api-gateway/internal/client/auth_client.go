package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrRefreshRejected means auth-service refused the refresh token.
var ErrRefreshRejected = errors.New("refresh token rejected")

// Tokens is a rotated pair returned by auth-service /refresh.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// AuthClient calls auth-service on behalf of the gateway.
type AuthClient interface {
	Refresh(ctx context.Context, refreshToken string) (*Tokens, error)
}

type authClient struct {
	baseURL string
	http    *http.Client
}

func NewAuthClient(baseURL string, timeout time.Duration) AuthClient {
	return &authClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (a *authClient) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	body, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/refresh", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call auth-service: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrRefreshRejected
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth-service refresh returned %d", resp.StatusCode)
	}

	var out struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresAt    int64  `json:"expires_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("invalid refresh response: %w", err)
	}
	if out.Token == "" {
		return nil, errors.New("no token in refresh response")
	}
	return &Tokens{AccessToken: out.Token, RefreshToken: out.RefreshToken, ExpiresAt: time.Unix(out.ExpiresAt, 0)}, nil
}
