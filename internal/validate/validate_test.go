package validate

import (
	"strings"
	"testing"
)

func TestEmail(t *testing.T) {
	valid := []string{
		"a@b.co",
		"user@test.com",
		"first.last@example.org",
		"tag+filter@mail.example.com",
		"  padded@example.com  ",
		"under_score@host.io",
	}
	for _, s := range valid {
		if got := Email(s); got != Valid {
			t.Fatalf("Email(%q) = %v, want Valid", s, got)
		}
	}

	invalid := map[string]Outcome{
		"":                  EmailEmpty,
		"   ":               EmailEmpty,
		"plainaddress":      EmailInvalid,
		"@no-local.com":     EmailInvalid,
		"user@":             EmailInvalid,
		"user@host":         EmailInvalid,
		"user@host.c":       EmailInvalid,
		"user @host.com":    EmailInvalid,
		"user@ho st.com":    EmailInvalid,
		"user@@example.com": EmailInvalid,
	}
	for s, want := range invalid {
		if got := Email(s); got != want {
			t.Fatalf("Email(%q) = %v, want %v", s, got, want)
		}
	}
}

func TestPassword(t *testing.T) {
	limits := DefaultLimits()
	cases := map[string]Outcome{
		"":          PasswordEmpty,
		"a1":        PasswordTooShort,
		"abc12":     PasswordTooShort,
		"abcdef":    PasswordWeak,
		"123456":    PasswordWeak,
		"abc123":    Valid,
		"pass w0rd": Valid,
	}
	for s, want := range cases {
		if got := Password(s, limits); got != want {
			t.Fatalf("Password(%q) = %v, want %v", s, got, want)
		}
	}

	long := strings.Repeat("a1", 65)
	if got := Password(long, limits); got != PasswordTooLong {
		t.Fatalf("Password(len %d) = %v, want PasswordTooLong", len(long), got)
	}
}

func TestConfirmPassword(t *testing.T) {
	if got := ConfirmPassword("abc123", ""); got != ConfirmPasswordEmpty {
		t.Fatalf("empty confirm = %v", got)
	}
	if got := ConfirmPassword("abc123", "abc124"); got != PasswordsDoNotMatch {
		t.Fatalf("mismatch = %v", got)
	}
	if got := ConfirmPassword("abc123", "abc123"); got != Valid {
		t.Fatalf("match = %v", got)
	}
}

func TestUsername(t *testing.T) {
	limits := DefaultLimits()
	cases := map[string]Outcome{
		"":          UsernameEmpty,
		"  ":        UsernameEmpty,
		"ab":        UsernameTooShort,
		"bob":       Valid,
		"Bob_42":    Valid,
		"  Alice ":  Valid, // trimmed and lowercased before checking
		"has space": UsernameInvalidCharacters,
		"dot.name":  UsernameInvalidCharacters,
		"dash-name": UsernameInvalidCharacters,
	}
	for s, want := range cases {
		if got := Username(s, limits); got != want {
			t.Fatalf("Username(%q) = %v, want %v", s, got, want)
		}
	}

	long := strings.Repeat("x", 51)
	if got := Username(long, limits); got != UsernameTooLong {
		t.Fatalf("Username(len 51) = %v, want UsernameTooLong", got)
	}
}

func TestDisplayName(t *testing.T) {
	limits := DefaultLimits()
	check := func(s string, want Outcome) {
		t.Helper()
		if got := DisplayName(s, limits); got != want {
			t.Fatalf("DisplayName(%q) = %v, want %v", s, got, want)
		}
	}
	check("", DisplayNameEmpty)
	check("   ", DisplayNameEmpty)
	check("B", Valid)
	check("Bob Smith", Valid)
	check(strings.Repeat("n", 101), DisplayNameTooLong)
}

func TestDisplayNameConfigurableMinimum(t *testing.T) {
	limits := DefaultLimits()
	limits.MinDisplayName = 2
	if got := DisplayName("B", limits); got != DisplayNameTooShort {
		t.Fatalf("min=2 DisplayName(\"B\") = %v, want DisplayNameTooShort", got)
	}
	if got := DisplayName("Bo", limits); got != Valid {
		t.Fatalf("min=2 DisplayName(\"Bo\") = %v, want Valid", got)
	}
}

func TestSanitizers(t *testing.T) {
	if got := SanitizeUsername("  Bob_42 "); got != "bob_42" {
		t.Fatalf("SanitizeUsername = %q", got)
	}
	if got := SanitizeDisplayName("  Bob Smith "); got != "Bob Smith" {
		t.Fatalf("SanitizeDisplayName = %q", got)
	}
}

func TestFormAggregates(t *testing.T) {
	limits := DefaultLimits()
	if !LoginFormValid("user@test.com", "abc123", limits) {
		t.Fatal("expected valid login form")
	}
	if LoginFormValid("user@test.com", "", limits) {
		t.Fatal("empty password must not be a valid login form")
	}
	if !RegistrationFormValid("user@test.com", "bob", "Bob", "abc123", "abc123", limits) {
		t.Fatal("expected valid registration form")
	}
	if RegistrationFormValid("user@test.com", "bob", "Bob", "abc123", "abc124", limits) {
		t.Fatal("mismatched confirm must not be a valid registration form")
	}
}
