package session

import "errors"

var (
	// ErrNoSession is returned by Load when no complete session is stored.
	ErrNoSession = errors.New("session: no stored session")
)

// Session is the durable authenticated-identity record for the device.
type Session struct {
	UserID          string
	Email           string
	Username        string
	DisplayName     string
	AccessToken     string
	RefreshToken    string
	ProfileImageURL string
	LoggedIn        bool
}

// Complete reports whether the identity fields required to restore a
// session are all present.
func (s Session) Complete() bool {
	return s.UserID != "" && s.Email != "" && s.Username != "" && s.DisplayName != ""
}

// Store is the single shared resource across controllers. Writes are
// whole-record or explicitly token-scoped; callers never read-modify-
// write fields they do not own.
type Store interface {
	// Save atomically overwrites all session fields and sets LoggedIn.
	Save(s Session) error
	// Load reconstructs the stored session, or ErrNoSession when any
	// required identity field is missing.
	Load() (Session, error)
	// IsLoggedIn is true only when the logged-in flag is set AND an
	// access token is present. A stale flag without a token is not a
	// valid logged-in state.
	IsLoggedIn() bool
	// Clear removes all session fields and resets the logged-in flag.
	Clear() error
	// UpdateAccessToken overwrites only the access token.
	UpdateAccessToken(token string) error
	// UpdateRefreshToken overwrites only the refresh token.
	UpdateRefreshToken(token string) error
}
