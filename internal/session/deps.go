package session

import (
	"context"

	"github.com/naveenspark/gatepass/pkg/client"
	"github.com/naveenspark/gatepass/pkg/domain"
)

// API is the part of the REST client the controller drives. *client.Client
// satisfies it.
type API interface {
	SetToken(token string)
	Token() string
	SetPushToken(token string)

	Login(ctx context.Context, req client.LoginRequest) (*client.AuthResponse, error)
	VerifyOTP(ctx context.Context, req client.VerifyOTPRequest) (*client.AuthResponse, error)
	Register(ctx context.Context, req client.RegisterRequest) (*client.AuthResponse, error)
	ResendOTP(ctx context.Context, mobileNo string) (*client.AuthResponse, error)
	CurrentUser(ctx context.Context, fix *domain.LocationFix) (*domain.User, error)
	UpdatePushToken(ctx context.Context, pushToken string) error
	Logout(ctx context.Context) error
	UntrustDevice(ctx context.Context) error
	UntrustDevices(ctx context.Context) error
}

// CredentialStore keeps the session token behind a user prompt.
type CredentialStore interface {
	Supported() bool
	Save(ctx context.Context, secret string) error
	Exists() bool
	Delete() error
	Authenticate(ctx context.Context) (string, error)
}

// FlagStore persists whether biometric login was enabled.
type FlagStore interface {
	BiometricEnabled() bool
	SetBiometricEnabled(on bool) error
}

// PushTokens reports the device push token and its rotations.
type PushTokens interface {
	Token() string
	OnRefresh(fn func(token string)) (unsubscribe func())
}
