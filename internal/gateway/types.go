package gateway

// RemoteUser is the user object embedded in auth responses. The
// metadata map may or may not carry username and display_name;
// absence means empty string, never an error.
type RemoteUser struct {
	ID       string         `json:"id"`
	Email    string         `json:"email"`
	Metadata map[string]any `json:"user_metadata"`
}

// MetadataString returns the named metadata value when it is a string,
// otherwise "".
func (u RemoteUser) MetadataString(key string) string {
	if u.Metadata == nil {
		return ""
	}
	if v, ok := u.Metadata[key].(string); ok {
		return v
	}
	return ""
}

// Username is the username carried in auth metadata, if any.
func (u RemoteUser) Username() string { return u.MetadataString("username") }

// DisplayName is the display name carried in auth metadata, if any.
func (u RemoteUser) DisplayName() string { return u.MetadataString("display_name") }

// AuthResult is the parsed body of a successful auth call.
type AuthResult struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresIn    int64      `json:"expires_in"`
	TokenType    string     `json:"token_type"`
	User         RemoteUser `json:"user"`
}

// HasTokens reports whether both tokens are present.
func (r AuthResult) HasTokens() bool {
	return r.AccessToken != "" && r.RefreshToken != ""
}

// Profile is a row of the users table.
type Profile struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	Status      string `json:"status"`
}

type registerRequest struct {
	Email    string           `json:"email"`
	Password string           `json:"password"`
	Data     registerMetadata `json:"data"`
}

type registerMetadata struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type recoverRequest struct {
	Email string `json:"email"`
}
