package gateway

import "testing"

func TestNormalizeResponseStructured(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   ErrorKind
	}{
		{"invalid grant", 400, `{"error":"invalid_grant"}`, KindInvalidCredentials},
		{"invalid login description", 400, `{"error_description":"Invalid login credentials"}`, KindInvalidCredentials},
		{"user not found", 400, `{"msg":"user_not_found"}`, KindAccountNotFound},
		{"email not confirmed", 401, `{"message":"Email not confirmed"}`, KindEmailUnverified},
		{"already registered", 400, `{"msg":"User already registered"}`, KindEmailAlreadyRegistered},
		{"duplicate email key", 409, `{"message":"duplicate key value violates unique constraint \"users_email_key\""}`, KindEmailAlreadyRegistered},
		{"duplicate username key", 409, `{"message":"duplicate key value violates unique constraint \"users_username_key\""}`, KindUsernameAlreadyTaken},
		{"weak password", 422, `{"msg":"password_is_too_weak"}`, KindWeakPassword},
		{"weak password wording", 422, `{"msg":"Password should be at least 6 characters"}`, KindWeakPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := normalizeResponse(tc.status, []byte(tc.body))
			if got.Kind != tc.want {
				t.Fatalf("kind = %v, want %v (raw %q)", got.Kind, tc.want, got.Raw)
			}
			if got.Status != tc.status {
				t.Fatalf("status = %d, want %d", got.Status, tc.status)
			}
		})
	}
}

func TestNormalizeResponseFieldPriority(t *testing.T) {
	// `error` wins over `error_description` when both carry a match.
	body := `{"error":"invalid_grant","error_description":"user_not_found"}`
	got := normalizeResponse(400, []byte(body))
	if got.Kind != KindInvalidCredentials {
		t.Fatalf("kind = %v, want KindInvalidCredentials", got.Kind)
	}
}

func TestNormalizeResponseRawTextFallback(t *testing.T) {
	// Unparseable body still gets scanned for known substrings.
	got := normalizeResponse(400, []byte("oops: invalid_grant detected"))
	if got.Kind != KindInvalidCredentials {
		t.Fatalf("kind = %v, want KindInvalidCredentials", got.Kind)
	}
}

func TestNormalizeResponseStatusDefaults(t *testing.T) {
	cases := map[int]ErrorKind{
		400: KindInvalidRequest,
		401: KindInvalidCredentials,
		403: KindForbidden,
		404: KindNotFound,
		409: KindConflict,
		422: KindInvalidData,
		429: KindRateLimited,
		500: KindServerError,
		503: KindServerError,
		418: KindUnknown,
	}
	for status, want := range cases {
		got := normalizeResponse(status, []byte(`{"message":"something opaque"}`))
		if got.Kind != want {
			t.Fatalf("status %d kind = %v, want %v", status, got.Kind, want)
		}
	}
}

func TestUserMessageNeverRawUnlessUnknown(t *testing.T) {
	ge := normalizeResponse(400, []byte(`{"error_description":"Invalid login credentials"}`))
	if msg := ge.UserMessage(); msg == "Invalid login credentials" {
		t.Fatal("raw backend wording must not surface when a kind matched")
	}
	if msg := ge.UserMessage(); msg != KindInvalidCredentials.Message() {
		t.Fatalf("message = %q", msg)
	}

	unknown := normalizeResponse(418, []byte(`{"message":"teapot says no"}`))
	if msg := unknown.UserMessage(); msg != "teapot says no" {
		t.Fatalf("last-resort fallback should use raw text, got %q", msg)
	}
}

func TestKindOf(t *testing.T) {
	err := error(&Error{Kind: KindRateLimited, Status: 429})
	if got := KindOf(err); got != KindRateLimited {
		t.Fatalf("KindOf = %v", got)
	}
	if got := KindOf(nil); got != KindUnknown {
		t.Fatalf("KindOf(nil) = %v", got)
	}
}
