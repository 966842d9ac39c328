package controller

import (
	"context"
	"sync"
	"testing"
	"time"

	"nimbustalk.org/internal/config"
	"nimbustalk.org/internal/gateway"
)

func testCfg() config.Config {
	cfg := config.Default()
	cfg.BaseURL = "http://backend.test"
	cfg.AnonKey = "anon"
	cfg.DebounceDelay = 30 * time.Millisecond
	return cfg
}

type fakeAuth struct {
	mu            sync.Mutex
	loginCalls    int
	registerCalls int
	logoutCalls   int
	refreshCalls  int

	loginFn    func(email, password string) (gateway.AuthResult, error)
	registerFn func(email, password, username, displayName string) (gateway.AuthResult, error)
	refreshFn  func(refreshToken string) (gateway.AuthResult, error)
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (gateway.AuthResult, error) {
	f.mu.Lock()
	f.loginCalls++
	fn := f.loginFn
	f.mu.Unlock()
	if fn == nil {
		return gateway.AuthResult{}, &gateway.Error{Kind: gateway.KindServerError}
	}
	return fn(email, password)
}

func (f *fakeAuth) Register(ctx context.Context, email, password, username, displayName string) (gateway.AuthResult, error) {
	f.mu.Lock()
	f.registerCalls++
	fn := f.registerFn
	f.mu.Unlock()
	if fn == nil {
		return gateway.AuthResult{}, &gateway.Error{Kind: gateway.KindServerError}
	}
	return fn(email, password, username, displayName)
}

func (f *fakeAuth) Logout(ctx context.Context, accessToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutCalls++
	return nil
}

func (f *fakeAuth) RefreshToken(ctx context.Context, refreshToken string) (gateway.AuthResult, error) {
	f.mu.Lock()
	f.refreshCalls++
	fn := f.refreshFn
	f.mu.Unlock()
	if fn == nil {
		return gateway.AuthResult{}, &gateway.Error{Kind: gateway.KindServerError}
	}
	return fn(refreshToken)
}

func (f *fakeAuth) ForgotPassword(ctx context.Context, email string) error { return nil }

type fakeProfiles struct {
	mu         sync.Mutex
	checkCalls []string
	checkFn    func(username string) (bool, error)
	profileFn  func(userID string) (gateway.Profile, error)
}

func (f *fakeProfiles) CheckUsernameAvailability(ctx context.Context, username string) (bool, error) {
	f.mu.Lock()
	f.checkCalls = append(f.checkCalls, username)
	fn := f.checkFn
	f.mu.Unlock()
	if fn == nil {
		return true, nil
	}
	return fn(username)
}

func (f *fakeProfiles) GetUserProfile(ctx context.Context, userID, accessToken string) (gateway.Profile, error) {
	f.mu.Lock()
	fn := f.profileFn
	f.mu.Unlock()
	if fn == nil {
		return gateway.Profile{}, &gateway.Error{Kind: gateway.KindNotFound, Status: 404}
	}
	return fn(userID)
}

func (f *fakeProfiles) checks(t *testing.T) []string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.checkCalls))
	copy(out, f.checkCalls)
	return out
}

func authOK(userID string) gateway.AuthResult {
	return gateway.AuthResult{
		AccessToken:  "at-1",
		RefreshToken: "rt-1",
		ExpiresIn:    3600,
		User: gateway.RemoteUser{
			ID:    userID,
			Email: "user@test.com",
			Metadata: map[string]any{
				"username":     "bob",
				"display_name": "Bob",
			},
		},
	}
}

// waitUntil polls cond until it holds or the deadline passes.
func waitUntil(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}
