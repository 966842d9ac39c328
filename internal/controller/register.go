package controller

import (
	"context"
	"sync"
	"time"

	"nimbustalk.org/internal/config"
	"nimbustalk.org/internal/gateway"
	"nimbustalk.org/internal/session"
	"nimbustalk.org/internal/validate"
)

// RegisterController drives the registration flow. On top of the login
// flow's shape it tracks username availability through a debounced,
// cancellable remote check and re-verifies availability server-side at
// submit time before any signup call is made.
type RegisterController struct {
	auth     AuthAPI
	profiles ProfileAPI
	store    session.Store
	limits   validate.Limits
	debounce time.Duration

	mu              sync.Mutex
	currentEmail    string
	currentUsername string
	currentDisplay  string
	currentPassword string
	currentConfirm  string

	// Debounce slot: bumping the generation orphans any pending or
	// in-flight check; only a reply carrying the current generation may
	// mutate availability state.
	checkGen    uint64
	checkCancel context.CancelFunc

	baseCtx    context.Context
	baseCancel context.CancelFunc

	LoadingState           *Signal[LoadingState]
	EmailOutcome           *Signal[validate.Outcome]
	UsernameOutcome        *Signal[validate.Outcome]
	DisplayNameOutcome     *Signal[validate.Outcome]
	PasswordOutcome        *Signal[validate.Outcome]
	ConfirmPasswordOutcome *Signal[validate.Outcome]
	UsernameAvailability   *Signal[Availability]
	UsernameCheckInFlight  *Signal[bool]
	FormValid              *Signal[bool]
	ErrorMessage           *Signal[string]
	SuccessMessage         *Signal[string]
	Events                 *Events
}

// NewRegisterController wires the flow against the given collaborators.
func NewRegisterController(auth AuthAPI, profiles ProfileAPI, store session.Store, cfg config.Config) *RegisterController {
	baseCtx, baseCancel := context.WithCancel(context.Background())
	debounce := cfg.DebounceDelay
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &RegisterController{
		auth:                   auth,
		profiles:               profiles,
		store:                  store,
		limits:                 cfg.Validation,
		debounce:               debounce,
		baseCtx:                baseCtx,
		baseCancel:             baseCancel,
		LoadingState:           NewSignal(Idle),
		EmailOutcome:           NewSignal(validate.Valid),
		UsernameOutcome:        NewSignal(validate.Valid),
		DisplayNameOutcome:     NewSignal(validate.Valid),
		PasswordOutcome:        NewSignal(validate.Valid),
		ConfirmPasswordOutcome: NewSignal(validate.Valid),
		UsernameAvailability:   NewSignal(AvailabilityUnknown),
		UsernameCheckInFlight:  NewSignal(false),
		FormValid:              NewSignal(false),
		ErrorMessage:           NewSignal(""),
		SuccessMessage:         NewSignal(""),
		Events:                 NewEvents(),
	}
}

// Close cancels all outstanding work owned by the controller. No state
// emission happens after Close returns.
func (c *RegisterController) Close() {
	c.mu.Lock()
	c.checkGen++
	if c.checkCancel != nil {
		c.checkCancel()
		c.checkCancel = nil
	}
	c.mu.Unlock()
	c.baseCancel()
}

// SetEmail records a keystroke-equivalent email change.
func (c *RegisterController) SetEmail(email string) {
	c.mu.Lock()
	c.currentEmail = email
	c.mu.Unlock()
	c.EmailOutcome.Set(validate.Email(email))
	c.recomputeFormValid()
}

// SetUsername records a username change and schedules a debounced
// availability check for it, cancelling any earlier pending one.
func (c *RegisterController) SetUsername(username string) {
	c.mu.Lock()
	c.currentUsername = username
	c.mu.Unlock()
	outcome := validate.Username(username, c.limits)
	c.UsernameOutcome.Set(outcome)
	c.scheduleAvailabilityCheck(validate.SanitizeUsername(username), outcome)
	c.recomputeFormValid()
}

// SetDisplayName records a display-name change.
func (c *RegisterController) SetDisplayName(name string) {
	c.mu.Lock()
	c.currentDisplay = name
	c.mu.Unlock()
	c.DisplayNameOutcome.Set(validate.DisplayName(name, c.limits))
	c.recomputeFormValid()
}

// SetPassword records a password change. The confirmation outcome is
// recomputed as well since it depends on both fields.
func (c *RegisterController) SetPassword(password string) {
	c.mu.Lock()
	c.currentPassword = password
	confirm := c.currentConfirm
	c.mu.Unlock()
	c.PasswordOutcome.Set(validate.Password(password, c.limits))
	if confirm != "" {
		c.ConfirmPasswordOutcome.Set(validate.ConfirmPassword(password, confirm))
	}
	c.recomputeFormValid()
}

// SetConfirmPassword records a confirmation change.
func (c *RegisterController) SetConfirmPassword(confirm string) {
	c.mu.Lock()
	c.currentConfirm = confirm
	password := c.currentPassword
	c.mu.Unlock()
	c.ConfirmPasswordOutcome.Set(validate.ConfirmPassword(password, confirm))
	c.recomputeFormValid()
}

// scheduleAvailabilityCheck replaces the debounce slot. Invalid-format
// usernames reset availability to Unknown without touching the wire.
func (c *RegisterController) scheduleAvailabilityCheck(username string, outcome validate.Outcome) {
	c.mu.Lock()
	c.checkGen++
	gen := c.checkGen
	if c.checkCancel != nil {
		c.checkCancel()
		c.checkCancel = nil
	}
	c.mu.Unlock()

	if !outcome.IsValid() {
		c.UsernameAvailability.Set(AvailabilityUnknown)
		c.UsernameCheckInFlight.Set(false)
		return
	}
	c.UsernameAvailability.Set(AvailabilityUnknown)

	ctx, cancel := context.WithCancel(c.baseCtx)
	c.mu.Lock()
	c.checkCancel = cancel
	c.mu.Unlock()

	go c.runAvailabilityCheck(ctx, gen, username)
}

func (c *RegisterController) runAvailabilityCheck(ctx context.Context, gen uint64, username string) {
	timer := time.NewTimer(c.debounce)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	if !c.ifCurrent(gen, func() { c.UsernameCheckInFlight.Set(true) }) {
		return
	}

	available, err := c.profiles.CheckUsernameAvailability(ctx, username)

	c.ifCurrent(gen, func() {
		c.UsernameCheckInFlight.Set(false)
		switch {
		case ctx.Err() != nil:
			// Cancelled mid-flight; leave state untouched.
		case err != nil:
			// A failed check is Unknown, never Taken.
			c.UsernameAvailability.Set(AvailabilityUnknown)
		case available:
			c.UsernameAvailability.Set(AvailabilityAvailable)
		default:
			c.UsernameAvailability.Set(AvailabilityTaken)
		}
	})
	c.recomputeFormValid()
}

// ifCurrent runs fn only when gen is still the active debounce
// generation, guaranteeing last-write-wins for availability state.
func (c *RegisterController) ifCurrent(gen uint64, fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.checkGen {
		return false
	}
	fn()
	return true
}

func (c *RegisterController) recomputeFormValid() {
	c.mu.Lock()
	email := c.currentEmail
	username := c.currentUsername
	display := c.currentDisplay
	password := c.currentPassword
	confirm := c.currentConfirm
	c.mu.Unlock()

	valid := c.EmailOutcome.Get().IsValid() &&
		c.UsernameOutcome.Get().IsValid() &&
		c.DisplayNameOutcome.Get().IsValid() &&
		c.PasswordOutcome.Get().IsValid() &&
		c.ConfirmPasswordOutcome.Get().IsValid() &&
		c.UsernameAvailability.Get() == AvailabilityAvailable &&
		validate.Clean(email) != "" &&
		validate.SanitizeUsername(username) != "" &&
		validate.SanitizeDisplayName(display) != "" &&
		password != "" &&
		confirm != ""
	c.FormValid.Set(valid)
}

func (c *RegisterController) beginSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.LoadingState.Get() == Loading {
		return false
	}
	c.LoadingState.Set(Loading)
	return true
}

// Submit runs the registration attempt. Availability is re-verified
// server-side before the signup call; a stale "available" that turns
// out taken aborts without ever reaching the auth endpoint.
func (c *RegisterController) Submit(ctx context.Context) {
	if !c.beginSubmit() {
		return
	}
	c.ErrorMessage.Set("")

	c.mu.Lock()
	email := validate.Clean(c.currentEmail)
	username := validate.SanitizeUsername(c.currentUsername)
	display := validate.SanitizeDisplayName(c.currentDisplay)
	password := c.currentPassword
	confirm := c.currentConfirm
	c.mu.Unlock()

	if !validate.RegistrationFormValid(email, username, display, password, confirm, c.limits) {
		c.fail("Please fix the errors before proceeding")
		return
	}
	if c.UsernameAvailability.Get() != AvailabilityAvailable {
		c.fail(gateway.KindUsernameAlreadyTaken.Message())
		return
	}

	// Submit-time re-check: the debounced result may be stale.
	available, err := c.profiles.CheckUsernameAvailability(ctx, username)
	if err != nil {
		c.fail(gateway.UserMessageOf(err))
		return
	}
	if !available {
		c.UsernameAvailability.Set(AvailabilityTaken)
		c.recomputeFormValid()
		c.fail(gateway.KindUsernameAlreadyTaken.Message())
		return
	}

	result, err := c.auth.Register(ctx, email, password, username, display)
	if err != nil {
		c.fail(gateway.UserMessageOf(err))
		return
	}
	if result.User.ID == "" || !result.HasTokens() {
		c.fail(gateway.KindUnknown.Message())
		return
	}

	sess := session.Session{
		UserID:       result.User.ID,
		Email:        result.User.Email,
		Username:     result.User.Username(),
		DisplayName:  result.User.DisplayName(),
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	}
	if sess.Username == "" {
		sess.Username = username
	}
	if sess.DisplayName == "" {
		sess.DisplayName = display
	}
	if sess.Email == "" {
		sess.Email = email
	}
	if err := c.store.Save(sess); err != nil {
		c.fail(gateway.KindUnknown.Message())
		return
	}

	c.LoadingState.Set(Success)
	const welcome = "Registration successful! Welcome to NimbusTalk!"
	c.SuccessMessage.Set(welcome)
	c.Events.Emit(EventRegistrationSucceeded, welcome)
}

func (c *RegisterController) fail(message string) {
	c.LoadingState.Set(Error)
	c.ErrorMessage.Set(message)
}

// ClearError resets the flow-level error message after the UI consumed it.
func (c *RegisterController) ClearError() { c.ErrorMessage.Set("") }

// ClearSuccess resets the success message after the UI consumed it.
func (c *RegisterController) ClearSuccess() { c.SuccessMessage.Set("") }
