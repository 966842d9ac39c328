package controller

import (
	"context"
	"errors"
	"time"

	"nimbustalk.org/internal/session"
)

// BootstrapController decides at app launch whether a usable session
// exists. The check is local-only: the stored token is trusted without
// a remote validation round-trip. That is a known limitation of the
// product, not an accident; remote validation is a possible future
// hardening.
type BootstrapController struct {
	store session.Store
	auth  AuthAPI

	LoadingState  *Signal[LoadingState]
	Authenticated *Signal[bool]
	ErrorMessage  *Signal[string]
}

// NewBootstrapController wires the flow against the store and gateway.
func NewBootstrapController(auth AuthAPI, store session.Store) *BootstrapController {
	return &BootstrapController{
		store:         store,
		auth:          auth,
		LoadingState:  NewSignal(Idle),
		Authenticated: NewSignal(false),
		ErrorMessage:  NewSignal(""),
	}
}

// CheckAuthenticationStatus classifies the stored state into exactly
// three outcomes: no session, corrupted session (cleared as a side
// effect), or a fully restorable one. If ctx is cancelled mid-check no
// further state is emitted.
func (c *BootstrapController) CheckAuthenticationStatus(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	c.LoadingState.Set(Loading)
	c.ErrorMessage.Set("")

	sess, err := c.store.Load()
	loggedIn := c.store.IsLoggedIn()

	if ctx.Err() != nil {
		return
	}

	authenticated := false
	switch {
	case err != nil && !errors.Is(err, session.ErrNoSession):
		// Store unreadable; treat as signed out this launch.
	case err != nil:
		if loggedIn {
			// Flag and token present but the identity record is
			// incomplete: corrupted, wipe it.
			_ = c.store.Clear()
		}
	case !sess.LoggedIn:
		// Never logged in on this device.
	case sess.AccessToken == "" || sess.UserID == "":
		// Logically logged in with a missing token or id: corrupted.
		_ = c.store.Clear()
	default:
		authenticated = true
	}

	if ctx.Err() != nil {
		return
	}
	c.LoadingState.Set(Success)
	c.Authenticated.Set(authenticated)
}

// Logout tears the session down. The remote call is fire-and-forget;
// the local session is cleared regardless, so calling Logout when
// already logged out is a harmless no-op.
func (c *BootstrapController) Logout(ctx context.Context) {
	token := ""
	if sess, err := c.store.Load(); err == nil {
		token = sess.AccessToken
	}
	if token != "" {
		_ = c.auth.Logout(ctx, token)
	}
	_ = c.store.Clear()
	c.Authenticated.Set(false)
}

// RefreshSession exchanges the stored refresh token for a fresh token
// pair and persists it with token-scoped writes. A session past its
// expiry window is refreshed; others are left alone.
func (c *BootstrapController) RefreshSession(ctx context.Context, within time.Duration) error {
	sess, err := c.store.Load()
	if err != nil {
		return err
	}
	if sess.RefreshToken == "" {
		return session.ErrNoSession
	}
	if !sess.NeedsRefresh(within) {
		return nil
	}
	result, err := c.auth.RefreshToken(ctx, sess.RefreshToken)
	if err != nil {
		return err
	}
	if err := c.store.UpdateAccessToken(result.AccessToken); err != nil {
		return err
	}
	if result.RefreshToken != "" {
		if err := c.store.UpdateRefreshToken(result.RefreshToken); err != nil {
			return err
		}
	}
	return nil
}
