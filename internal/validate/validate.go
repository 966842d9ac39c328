package validate

import (
	"regexp"
	"strings"
)

// Outcome is the closed set of per-field validation results. The zero
// value is Valid so an untouched field carries no error.
type Outcome int

const (
	Valid Outcome = iota

	EmailEmpty
	EmailInvalid

	PasswordEmpty
	PasswordTooShort
	PasswordTooLong
	PasswordWeak

	ConfirmPasswordEmpty
	PasswordsDoNotMatch

	UsernameEmpty
	UsernameTooShort
	UsernameTooLong
	UsernameInvalidCharacters

	DisplayNameEmpty
	DisplayNameTooShort
	DisplayNameTooLong
)

var messages = map[Outcome]string{
	Valid:                     "",
	EmailEmpty:                "Email is required",
	EmailInvalid:              "Please enter a valid email address",
	PasswordEmpty:             "Password is required",
	PasswordTooShort:          "Password must be at least 6 characters",
	PasswordTooLong:           "Password must be less than 128 characters",
	PasswordWeak:              "Password should contain letters and numbers",
	ConfirmPasswordEmpty:      "Please confirm your password",
	PasswordsDoNotMatch:       "Passwords do not match",
	UsernameEmpty:             "Username is required",
	UsernameTooShort:          "Username must be at least 3 characters",
	UsernameTooLong:           "Username must be less than 50 characters",
	UsernameInvalidCharacters: "Username can only contain letters, numbers, and underscores",
	DisplayNameEmpty:          "Display name is required",
	DisplayNameTooShort:       "Display name is too short",
	DisplayNameTooLong:        "Display name must be less than 100 characters",
}

// Message returns the user-facing text for the outcome.
func (o Outcome) Message() string { return messages[o] }

// IsValid reports whether the outcome carries no error.
func (o Outcome) IsValid() bool { return o == Valid }

var (
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	hasLetter       = regexp.MustCompile(`[a-zA-Z]`)
	hasDigit        = regexp.MustCompile(`[0-9]`)
)

// Limits carries the tunable length bounds. Zero-value fields fall back
// to the product defaults, so Limits{} behaves like DefaultLimits().
type Limits struct {
	MinPassword    int
	MaxPassword    int
	MinUsername    int
	MaxUsername    int
	MinDisplayName int
	MaxDisplayName int
}

// DefaultLimits returns the bounds the backend contract assumes.
func DefaultLimits() Limits {
	return Limits{
		MinPassword:    6,
		MaxPassword:    128,
		MinUsername:    3,
		MaxUsername:    50,
		MinDisplayName: 1,
		MaxDisplayName: 100,
	}
}

func (l Limits) withDefaults() Limits {
	def := DefaultLimits()
	if l.MinPassword <= 0 {
		l.MinPassword = def.MinPassword
	}
	if l.MaxPassword <= 0 {
		l.MaxPassword = def.MaxPassword
	}
	if l.MinUsername <= 0 {
		l.MinUsername = def.MinUsername
	}
	if l.MaxUsername <= 0 {
		l.MaxUsername = def.MaxUsername
	}
	if l.MinDisplayName <= 0 {
		l.MinDisplayName = def.MinDisplayName
	}
	if l.MaxDisplayName <= 0 {
		l.MaxDisplayName = def.MaxDisplayName
	}
	return l
}

// Clean trims leading and trailing whitespace.
func Clean(s string) string { return strings.TrimSpace(s) }

// SanitizeUsername normalizes a username the way it is stored remotely.
func SanitizeUsername(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// SanitizeDisplayName normalizes a display name for storage.
func SanitizeDisplayName(s string) string { return strings.TrimSpace(s) }

// Email validates an email address after trimming.
func Email(email string) Outcome {
	email = Clean(email)
	switch {
	case email == "":
		return EmailEmpty
	case !emailPattern.MatchString(email):
		return EmailInvalid
	default:
		return Valid
	}
}

// Password validates a password. Unlike the other fields the value is
// not trimmed: whitespace is significant in passwords.
func Password(password string, limits Limits) Outcome {
	limits = limits.withDefaults()
	switch {
	case password == "":
		return PasswordEmpty
	case len(password) < limits.MinPassword:
		return PasswordTooShort
	case len(password) > limits.MaxPassword:
		return PasswordTooLong
	case !hasLetter.MatchString(password) || !hasDigit.MatchString(password):
		return PasswordWeak
	default:
		return Valid
	}
}

// ConfirmPassword validates the confirmation field against the password.
func ConfirmPassword(password, confirm string) Outcome {
	switch {
	case confirm == "":
		return ConfirmPasswordEmpty
	case password != confirm:
		return PasswordsDoNotMatch
	default:
		return Valid
	}
}

// Username validates a username after trimming and lowercasing. Format
// validity does not imply availability; that is a separate remote check.
func Username(username string, limits Limits) Outcome {
	limits = limits.withDefaults()
	username = SanitizeUsername(username)
	switch {
	case username == "":
		return UsernameEmpty
	case len(username) < limits.MinUsername:
		return UsernameTooShort
	case len(username) > limits.MaxUsername:
		return UsernameTooLong
	case !usernamePattern.MatchString(username):
		return UsernameInvalidCharacters
	default:
		return Valid
	}
}

// DisplayName validates a display name after trimming. The minimum
// length is configurable; revisions of the product disagreed on it.
func DisplayName(name string, limits Limits) Outcome {
	limits = limits.withDefaults()
	name = SanitizeDisplayName(name)
	runes := len([]rune(name))
	switch {
	case name == "":
		return DisplayNameEmpty
	case runes < limits.MinDisplayName:
		return DisplayNameTooShort
	case runes > limits.MaxDisplayName:
		return DisplayNameTooLong
	default:
		return Valid
	}
}

// LoginFormValid reports whether a login form would pass validation.
func LoginFormValid(email, password string, limits Limits) bool {
	return Email(email).IsValid() && Password(password, limits).IsValid()
}

// RegistrationFormValid reports whether every registration field would
// pass validation. Username availability is checked separately.
func RegistrationFormValid(email, username, displayName, password, confirm string, limits Limits) bool {
	return Email(email).IsValid() &&
		Username(username, limits).IsValid() &&
		DisplayName(displayName, limits).IsValid() &&
		Password(password, limits).IsValid() &&
		ConfirmPassword(password, confirm).IsValid()
}
