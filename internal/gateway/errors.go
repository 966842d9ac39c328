package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrorKind is the closed, normalized taxonomy the rest of the client
// switches on. Raw backend wording never leaks past this package except
// as a last-resort fallback message.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNetwork
	KindTimeout
	KindInvalidRequest
	KindInvalidCredentials
	KindForbidden
	KindNotFound
	KindAccountNotFound
	KindEmailUnverified
	KindEmailAlreadyRegistered
	KindUsernameAlreadyTaken
	KindWeakPassword
	KindConflict
	KindInvalidData
	KindRateLimited
	KindServerError
)

var kindMessages = map[ErrorKind]string{
	KindUnknown:                "An unknown error occurred",
	KindNetwork:                "Please check your internet connection",
	KindTimeout:                "Request timed out. Please try again",
	KindInvalidRequest:         "Invalid request. Please try again",
	KindInvalidCredentials:     "Invalid email or password",
	KindForbidden:              "You do not have permission to do that",
	KindNotFound:               "Requested resource was not found",
	KindAccountNotFound:        "Account not found. Please check your email or create a new account",
	KindEmailUnverified:        "Please verify your email address",
	KindEmailAlreadyRegistered: "Email is already registered",
	KindUsernameAlreadyTaken:   "Username is already taken",
	KindWeakPassword:           "Password is too weak",
	KindConflict:               "The request conflicts with existing data",
	KindInvalidData:            "Invalid data provided",
	KindRateLimited:            "Too many attempts. Please wait a few minutes and try again",
	KindServerError:            "Server error occurred. Please try again",
}

// Message returns the user-facing text for the kind.
func (k ErrorKind) Message() string {
	if msg, ok := kindMessages[k]; ok {
		return msg
	}
	return kindMessages[KindUnknown]
}

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindInvalidRequest:
		return "invalid_request"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindAccountNotFound:
		return "account_not_found"
	case KindEmailUnverified:
		return "email_unverified"
	case KindEmailAlreadyRegistered:
		return "email_already_registered"
	case KindUsernameAlreadyTaken:
		return "username_already_taken"
	case KindWeakPassword:
		return "weak_password"
	case KindConflict:
		return "conflict"
	case KindInvalidData:
		return "invalid_data"
	case KindRateLimited:
		return "rate_limited"
	case KindServerError:
		return "server_error"
	default:
		return "unknown"
	}
}

// Error is a normalized backend or transport failure.
type Error struct {
	Kind   ErrorKind
	Status int    // HTTP status, 0 for transport failures
	Raw    string // raw backend message, diagnostic only
}

func (e *Error) Error() string {
	if e.Raw != "" {
		return fmt.Sprintf("gateway: %s (status %d): %s", e.Kind, e.Status, e.Raw)
	}
	return fmt.Sprintf("gateway: %s (status %d)", e.Kind, e.Status)
}

// UserMessage returns the text shown to the end user. The raw backend
// message is used only when nothing better could be derived.
func (e *Error) UserMessage() string {
	if e.Kind == KindUnknown && e.Raw != "" {
		return e.Raw
	}
	return e.Kind.Message()
}

// KindOf extracts the normalized kind from any error.
func KindOf(err error) ErrorKind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindUnknown
}

// UserMessageOf extracts the user-facing message from any error.
func UserMessageOf(err error) string {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.UserMessage()
	}
	return KindUnknown.Message()
}

// backendError is the union of error shapes the backend emits. Which
// field is populated varies per endpoint.
type backendError struct {
	Err              string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Message          string `json:"message"`
	Msg              string `json:"msg"`
}

// fields returns the populated fields in priority order.
func (b backendError) fields() []string {
	var out []string
	for _, f := range []string{b.Err, b.ErrorDescription, b.Message, b.Msg} {
		if strings.TrimSpace(f) != "" {
			out = append(out, f)
		}
	}
	return out
}

// substring-match rules, applied case-insensitively and in order.
var messageRules = []struct {
	needles []string
	kind    ErrorKind
}{
	{[]string{"invalid_grant"}, KindInvalidCredentials},
	{[]string{"invalid_credentials"}, KindInvalidCredentials},
	{[]string{"invalid login credentials"}, KindInvalidCredentials},
	{[]string{"user_not_found"}, KindAccountNotFound},
	{[]string{"user not found"}, KindAccountNotFound},
	{[]string{"email_not_confirmed"}, KindEmailUnverified},
	{[]string{"email not confirmed"}, KindEmailUnverified},
	{[]string{"user_already_registered"}, KindEmailAlreadyRegistered},
	{[]string{"user already registered"}, KindEmailAlreadyRegistered},
	{[]string{"duplicate key", "email"}, KindEmailAlreadyRegistered},
	{[]string{"duplicate key", "username"}, KindUsernameAlreadyTaken},
	{[]string{"password_is_too_weak"}, KindWeakPassword},
	{[]string{"password should be at least"}, KindWeakPassword},
}

func matchMessage(msg string) (ErrorKind, bool) {
	lower := strings.ToLower(msg)
	for _, rule := range messageRules {
		all := true
		for _, needle := range rule.needles {
			if !strings.Contains(lower, needle) {
				all = false
				break
			}
		}
		if all {
			return rule.kind, true
		}
	}
	return KindUnknown, false
}

func kindForStatus(status int) ErrorKind {
	switch {
	case status == 400:
		return KindInvalidRequest
	case status == 401:
		return KindInvalidCredentials
	case status == 403:
		return KindForbidden
	case status == 404:
		return KindNotFound
	case status == 409:
		return KindConflict
	case status == 422:
		return KindInvalidData
	case status == 429:
		return KindRateLimited
	case status >= 500:
		return KindServerError
	default:
		return KindUnknown
	}
}

// normalizeResponse maps a non-2xx response body to an Error. It tries
// the structured error shape first, then scans the raw text, then falls
// back to a status-code default.
func normalizeResponse(status int, body []byte) *Error {
	var parsed backendError
	raw := strings.TrimSpace(string(body))

	if err := json.Unmarshal(body, &parsed); err == nil {
		fields := parsed.fields()
		for _, f := range fields {
			if kind, ok := matchMessage(f); ok {
				return &Error{Kind: kind, Status: status, Raw: f}
			}
		}
		if len(fields) > 0 {
			raw = fields[0]
		}
	}

	if kind, ok := matchMessage(raw); ok {
		return &Error{Kind: kind, Status: status, Raw: raw}
	}
	return &Error{Kind: kindForStatus(status), Status: status, Raw: raw}
}
