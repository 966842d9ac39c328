package controller

import (
	"context"
	"sync"

	"nimbustalk.org/internal/config"
	"nimbustalk.org/internal/gateway"
	"nimbustalk.org/internal/session"
	"nimbustalk.org/internal/validate"
)

// LoginController drives the login flow: it validates field input,
// guards against concurrent submits, invokes the auth gateway, fetches
// the full profile (falling back to auth metadata when that fails) and
// persists the resulting session.
type LoginController struct {
	auth     AuthAPI
	profiles ProfileAPI
	store    session.Store
	limits   validate.Limits

	mu              sync.Mutex
	currentEmail    string
	currentPassword string

	LoadingState    *Signal[LoadingState]
	EmailOutcome    *Signal[validate.Outcome]
	PasswordOutcome *Signal[validate.Outcome]
	FormValid       *Signal[bool]
	ErrorMessage    *Signal[string]
	SuccessMessage  *Signal[string]
	Events          *Events
}

// NewLoginController wires the flow against the given collaborators.
func NewLoginController(auth AuthAPI, profiles ProfileAPI, store session.Store, cfg config.Config) *LoginController {
	return &LoginController{
		auth:            auth,
		profiles:        profiles,
		store:           store,
		limits:          cfg.Validation,
		LoadingState:    NewSignal(Idle),
		EmailOutcome:    NewSignal(validate.Valid),
		PasswordOutcome: NewSignal(validate.Valid),
		FormValid:       NewSignal(false),
		ErrorMessage:    NewSignal(""),
		SuccessMessage:  NewSignal(""),
		Events:          NewEvents(),
	}
}

// SetEmail records a keystroke-equivalent email change.
func (c *LoginController) SetEmail(email string) {
	c.mu.Lock()
	c.currentEmail = email
	c.mu.Unlock()
	c.EmailOutcome.Set(validate.Email(email))
	c.recomputeFormValid()
}

// SetPassword records a keystroke-equivalent password change.
func (c *LoginController) SetPassword(password string) {
	c.mu.Lock()
	c.currentPassword = password
	c.mu.Unlock()
	c.PasswordOutcome.Set(validate.Password(password, c.limits))
	c.recomputeFormValid()
}

// recomputeFormValid derives submittability from the current values.
// It is never cached across field changes.
func (c *LoginController) recomputeFormValid() {
	c.mu.Lock()
	email, password := c.currentEmail, c.currentPassword
	c.mu.Unlock()
	valid := validate.Clean(email) != "" && password != "" &&
		c.EmailOutcome.Get().IsValid() && c.PasswordOutcome.Get().IsValid()
	c.FormValid.Set(valid)
}

// beginSubmit flips the state machine to Loading unless a submit is
// already in flight.
func (c *LoginController) beginSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.LoadingState.Get() == Loading {
		return false
	}
	c.LoadingState.Set(Loading)
	return true
}

// Submit runs the login attempt. A submit while one is already loading
// is a no-op.
func (c *LoginController) Submit(ctx context.Context) {
	if !c.beginSubmit() {
		return
	}
	c.ErrorMessage.Set("")

	c.mu.Lock()
	email := validate.Clean(c.currentEmail)
	password := c.currentPassword
	c.mu.Unlock()

	emailOutcome := validate.Email(email)
	passwordOutcome := validate.Password(password, c.limits)
	c.EmailOutcome.Set(emailOutcome)
	c.PasswordOutcome.Set(passwordOutcome)
	c.recomputeFormValid()
	if !emailOutcome.IsValid() || !passwordOutcome.IsValid() {
		c.fail("Please fix the errors before proceeding")
		return
	}

	result, err := c.auth.Login(ctx, email, password)
	if err != nil {
		c.fail(gateway.UserMessageOf(err))
		return
	}
	if result.User.ID == "" || !result.HasTokens() {
		c.fail(gateway.KindUnknown.Message())
		return
	}

	sess := c.buildSession(ctx, result)
	if err := c.store.Save(sess); err != nil {
		c.fail(gateway.KindUnknown.Message())
		return
	}

	c.LoadingState.Set(Success)
	welcome := "Welcome back!"
	if sess.DisplayName != "" {
		welcome = "Welcome back, " + sess.DisplayName + "!"
	}
	c.SuccessMessage.Set(welcome)
	c.Events.Emit(EventLoginSucceeded, welcome)
}

// buildSession prefers the full profile row; when that fetch fails the
// auth response's own metadata is used so partial success still lands
// in Success.
func (c *LoginController) buildSession(ctx context.Context, result gateway.AuthResult) session.Session {
	sess := session.Session{
		UserID:       result.User.ID,
		Email:        result.User.Email,
		Username:     result.User.Username(),
		DisplayName:  result.User.DisplayName(),
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	}
	profile, err := c.profiles.GetUserProfile(ctx, result.User.ID, result.AccessToken)
	if err == nil {
		sess.Email = profile.Email
		sess.Username = profile.Username
		sess.DisplayName = profile.DisplayName
		sess.ProfileImageURL = profile.AvatarURL
	}
	return sess
}

func (c *LoginController) fail(message string) {
	c.LoadingState.Set(Error)
	c.ErrorMessage.Set(message)
}

// ClearError resets the flow-level error message after the UI consumed it.
func (c *LoginController) ClearError() { c.ErrorMessage.Set("") }

// ClearSuccess resets the success message after the UI consumed it.
func (c *LoginController) ClearSuccess() { c.SuccessMessage.Set("") }
