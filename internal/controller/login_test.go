package controller

import (
	"context"
	"testing"
	"time"

	"nimbustalk.org/internal/gateway"
	"nimbustalk.org/internal/session"
)

func TestLoginSuccessPersistsSession(t *testing.T) {
	auth := &fakeAuth{loginFn: func(email, password string) (gateway.AuthResult, error) {
		if email != "user@test.com" || password != "abc123" {
			t.Errorf("credentials = %q/%q", email, password)
		}
		return authOK("u1"), nil
	}}
	profiles := &fakeProfiles{profileFn: func(userID string) (gateway.Profile, error) {
		return gateway.Profile{
			ID: userID, Email: "user@test.com", Username: "bob",
			DisplayName: "Bob", AvatarURL: "https://cdn.example.com/bob.png",
		}, nil
	}}
	store := session.NewMemStore()

	ctl := NewLoginController(auth, profiles, store, testCfg())
	ctl.SetEmail("user@test.com")
	ctl.SetPassword("abc123")
	if !ctl.FormValid.Get() {
		t.Fatal("expected submittable form")
	}

	ctl.Submit(context.Background())

	if got := ctl.LoadingState.Get(); got != Success {
		t.Fatalf("state = %v, want Success (err %q)", got, ctl.ErrorMessage.Get())
	}
	sess, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if sess.UserID != "u1" || !sess.LoggedIn {
		t.Fatalf("session = %+v", sess)
	}
	if sess.ProfileImageURL == "" {
		t.Fatal("full profile fields should win when the fetch succeeds")
	}
	if !store.IsLoggedIn() {
		t.Fatal("expected IsLoggedIn")
	}
}

func TestLoginErrorIsNormalizedNotRaw(t *testing.T) {
	auth := &fakeAuth{loginFn: func(email, password string) (gateway.AuthResult, error) {
		return gateway.AuthResult{}, &gateway.Error{
			Kind:   gateway.KindInvalidCredentials,
			Status: 400,
			Raw:    "Invalid login credentials",
		}
	}}
	ctl := NewLoginController(auth, &fakeProfiles{}, session.NewMemStore(), testCfg())
	ctl.SetEmail("user@test.com")
	ctl.SetPassword("abc123")

	ctl.Submit(context.Background())

	if got := ctl.LoadingState.Get(); got != Error {
		t.Fatalf("state = %v, want Error", got)
	}
	if msg := ctl.ErrorMessage.Get(); msg != gateway.KindInvalidCredentials.Message() {
		t.Fatalf("message = %q, want normalized invalid-credentials text", msg)
	}
}

func TestLoginProfileFetchFallsBackToMetadata(t *testing.T) {
	auth := &fakeAuth{loginFn: func(email, password string) (gateway.AuthResult, error) {
		return authOK("u1"), nil
	}}
	// Profile fetch fails; the flow must still reach Success using the
	// auth response's own metadata.
	profiles := &fakeProfiles{profileFn: func(userID string) (gateway.Profile, error) {
		return gateway.Profile{}, &gateway.Error{Kind: gateway.KindServerError, Status: 500}
	}}
	store := session.NewMemStore()

	ctl := NewLoginController(auth, profiles, store, testCfg())
	ctl.SetEmail("user@test.com")
	ctl.SetPassword("abc123")
	ctl.Submit(context.Background())

	if got := ctl.LoadingState.Get(); got != Success {
		t.Fatalf("state = %v, want Success", got)
	}
	sess, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if sess.Username != "bob" || sess.DisplayName != "Bob" {
		t.Fatalf("metadata fallback not applied: %+v", sess)
	}
}

func TestLoginMissingMetadataMeansEmptyStrings(t *testing.T) {
	auth := &fakeAuth{loginFn: func(email, password string) (gateway.AuthResult, error) {
		result := authOK("u1")
		result.User.Metadata = nil
		return result, nil
	}}
	profiles := &fakeProfiles{} // profile fetch fails too
	store := session.NewMemStore()

	ctl := NewLoginController(auth, profiles, store, testCfg())
	ctl.SetEmail("user@test.com")
	ctl.SetPassword("abc123")
	ctl.Submit(context.Background())

	// Absent metadata is empty string, not an error; the session is
	// incomplete so Load declines, but the tokens landed.
	if got := ctl.LoadingState.Get(); got != Success {
		t.Fatalf("state = %v, want Success", got)
	}
	if !store.IsLoggedIn() {
		t.Fatal("tokens should be persisted")
	}
}

func TestLoginSubmitWhileLoadingIsNoOp(t *testing.T) {
	release := make(chan struct{})
	auth := &fakeAuth{loginFn: func(email, password string) (gateway.AuthResult, error) {
		<-release
		return authOK("u1"), nil
	}}
	ctl := NewLoginController(auth, &fakeProfiles{}, session.NewMemStore(), testCfg())
	ctl.SetEmail("user@test.com")
	ctl.SetPassword("abc123")

	done := make(chan struct{})
	go func() {
		ctl.Submit(context.Background())
		close(done)
	}()
	waitUntil(t, time.Second, func() bool { return ctl.LoadingState.Get() == Loading })

	ctl.Submit(context.Background()) // no-op while loading
	close(release)
	<-done

	auth.mu.Lock()
	calls := auth.loginCalls
	auth.mu.Unlock()
	if calls != 1 {
		t.Fatalf("login calls = %d, want 1", calls)
	}
}

func TestLoginValidationBlocksNetworkCall(t *testing.T) {
	auth := &fakeAuth{}
	ctl := NewLoginController(auth, &fakeProfiles{}, session.NewMemStore(), testCfg())
	ctl.SetEmail("not-an-email")
	ctl.SetPassword("abc123")

	ctl.Submit(context.Background())

	if got := ctl.LoadingState.Get(); got != Error {
		t.Fatalf("state = %v, want Error", got)
	}
	auth.mu.Lock()
	calls := auth.loginCalls
	auth.mu.Unlock()
	if calls != 0 {
		t.Fatal("validation errors must never reach the network layer")
	}
}

func TestLoginSuccessEventIsOneShot(t *testing.T) {
	auth := &fakeAuth{loginFn: func(email, password string) (gateway.AuthResult, error) {
		return authOK("u1"), nil
	}}
	ctl := NewLoginController(auth, &fakeProfiles{}, session.NewMemStore(), testCfg())
	ctl.SetEmail("user@test.com")
	ctl.SetPassword("abc123")
	ctl.Submit(context.Background())

	events := ctl.Events.Drain()
	if len(events) != 1 || events[0].Kind != EventLoginSucceeded {
		t.Fatalf("events = %+v", events)
	}
	if events[0].ID == "" {
		t.Fatal("event must carry an id")
	}
	// Draining consumed the event; re-observing must not replay it.
	if again := ctl.Events.Drain(); len(again) != 0 {
		t.Fatalf("drained again = %+v", again)
	}
}

func TestLoginFormValidRecomputedOnEveryChange(t *testing.T) {
	ctl := NewLoginController(&fakeAuth{}, &fakeProfiles{}, session.NewMemStore(), testCfg())

	cases := []struct {
		email, password string
		want            bool
	}{
		{"", "", false},
		{"user@test.com", "", false},
		{"", "abc123", false},
		{"not-an-email", "abc123", false},
		{"user@test.com", "short", false},
		{"user@test.com", "noletters", false},
		{"user@test.com", "abc123", true},
	}
	for _, tc := range cases {
		ctl.SetEmail(tc.email)
		ctl.SetPassword(tc.password)
		if got := ctl.FormValid.Get(); got != tc.want {
			t.Fatalf("FormValid(%q, %q) = %v, want %v", tc.email, tc.password, got, tc.want)
		}
	}
}
