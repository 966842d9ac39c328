package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"nimbustalk.org/internal/obs"
	"nimbustalk.org/internal/validate"
)

// Auth endpoints.
const (
	pathSignup  = "/auth/v1/signup"
	pathToken   = "/auth/v1/token"
	pathLogout  = "/auth/v1/logout"
	pathRecover = "/auth/v1/recover"
)

// AuthGateway performs the remote auth calls. All inputs are assumed
// validated; the gateway still sanitizes strings before they hit the
// wire.
type AuthGateway struct {
	client *Client
}

// NewAuthGateway wraps the shared client.
func NewAuthGateway(client *Client) *AuthGateway {
	return &AuthGateway{client: client}
}

func parseAuthResult(data []byte) (AuthResult, error) {
	var result AuthResult
	if err := json.Unmarshal(data, &result); err != nil {
		return AuthResult{}, fmt.Errorf("gateway: decode auth response: %w", err)
	}
	return result, nil
}

// Register signs up a new account with username and display name in
// the metadata sub-object.
func (g *AuthGateway) Register(ctx context.Context, email, password, username, displayName string) (AuthResult, error) {
	body := registerRequest{
		Email:    validate.Clean(email),
		Password: password,
		Data: registerMetadata{
			Username:    validate.SanitizeUsername(username),
			DisplayName: validate.SanitizeDisplayName(displayName),
		},
	}
	data, err := g.client.post(ctx, "auth.register", pathSignup, nil, body, "")
	if err != nil {
		return AuthResult{}, err
	}
	return parseAuthResult(data)
}

// Login exchanges credentials for a token pair (password grant).
func (g *AuthGateway) Login(ctx context.Context, email, password string) (AuthResult, error) {
	query := url.Values{"grant_type": {"password"}}
	body := loginRequest{Email: validate.Clean(email), Password: password}
	data, err := g.client.post(ctx, "auth.login", pathToken, query, body, "")
	if err != nil {
		return AuthResult{}, err
	}
	return parseAuthResult(data)
}

// Logout revokes the session remotely. It always reports success: the
// local session is torn down regardless, and a network failure during
// logout is not a user-facing error.
func (g *AuthGateway) Logout(ctx context.Context, accessToken string) error {
	if _, err := g.client.post(ctx, "auth.logout", pathLogout, nil, struct{}{}, accessToken); err != nil {
		obs.LogCall(map[string]any{
			"level":      "warn",
			"msg":        "remote logout failed, clearing local session anyway",
			"error_kind": KindOf(err).String(),
		})
	}
	return nil
}

// RefreshToken exchanges a refresh token for a fresh token pair.
func (g *AuthGateway) RefreshToken(ctx context.Context, refreshToken string) (AuthResult, error) {
	query := url.Values{"grant_type": {"refresh_token"}}
	data, err := g.client.post(ctx, "auth.refresh", pathToken, query, refreshRequest{RefreshToken: refreshToken}, "")
	if err != nil {
		return AuthResult{}, err
	}
	return parseAuthResult(data)
}

// ForgotPassword requests a password-reset email. Success means the
// request was accepted, not that the mail was delivered.
func (g *AuthGateway) ForgotPassword(ctx context.Context, email string) error {
	_, err := g.client.post(ctx, "auth.recover", pathRecover, nil, recoverRequest{Email: validate.Clean(email)}, "")
	return err
}
