package controller

import (
	"context"

	"nimbustalk.org/internal/gateway"
)

// LoadingState is the per-flow submit state machine position.
type LoadingState int

const (
	Idle LoadingState = iota
	Loading
	Success
	Error
)

func (s LoadingState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "idle"
	}
}

// Availability is the tri-state result of the username check.
type Availability int

const (
	// AvailabilityUnknown means not yet checked, format invalid, or the
	// last check failed. A failed check is never treated as taken.
	AvailabilityUnknown Availability = iota
	AvailabilityAvailable
	AvailabilityTaken
)

// AuthAPI is the slice of the auth gateway the controllers consume.
type AuthAPI interface {
	Register(ctx context.Context, email, password, username, displayName string) (gateway.AuthResult, error)
	Login(ctx context.Context, email, password string) (gateway.AuthResult, error)
	Logout(ctx context.Context, accessToken string) error
	RefreshToken(ctx context.Context, refreshToken string) (gateway.AuthResult, error)
	ForgotPassword(ctx context.Context, email string) error
}

// ProfileAPI is the slice of the profile gateway the controllers consume.
type ProfileAPI interface {
	CheckUsernameAvailability(ctx context.Context, username string) (bool, error)
	GetUserProfile(ctx context.Context, userID, accessToken string) (gateway.Profile, error)
}
