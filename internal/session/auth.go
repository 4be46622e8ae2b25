package session

import (
	"context"

	"github.com/naveenspark/gatepass/pkg/client"
	"github.com/naveenspark/gatepass/pkg/domain"
)

// Result is the outcome of a login, OTP, resend or register call. Failures
// carry a normalized code and a message fit for display.
type Result struct {
	OK          bool
	Kind        client.FailureKind
	Code        string
	Message     string
	Token       string
	User        *domain.User
	OTPRequired bool
	DebugOTP    string
}

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Phone        string
	Password     string
	Confirmation string
	Name         string
	CNIC         string
}

// CodeNoToken marks a 2xx auth response that carried neither a token nor an
// OTP challenge.
const CodeNoToken = "NO_TOKEN"

func failed(err error) Result {
	f := client.Normalize(err)
	return Result{Kind: f.Kind, Code: f.Code, Message: f.Message}
}

func rejected(resp *client.AuthResponse, fallback string) Result {
	r := Result{Kind: client.FailureServer, Code: resp.Code, Message: resp.Message}
	if r.Code == "" {
		r.Code = client.CodeServerError
	}
	if r.Message == "" {
		r.Message = fallback
	}
	return r
}

// Login waits for the shared location result, however long it takes, and
// submits the credentials with it.
func (c *Controller) Login(ctx context.Context, phone, password string) Result {
	fix := c.loc.Wait(ctx)
	resp, err := c.api.Login(ctx, client.LoginRequest{MobileNo: phone, Password: password}.WithLocation(fix))
	if err != nil {
		c.logger.Info("login failed", "err", err)
		return failed(err)
	}
	return c.accept(resp, phone, "Login failed.")
}

// VerifyOTP completes a login from an untrusted device.
func (c *Controller) VerifyOTP(ctx context.Context, phone, code string) Result {
	fix := c.loc.Wait(ctx)
	resp, err := c.api.VerifyOTP(ctx, client.VerifyOTPRequest{MobileNo: phone, OTP: code}.WithLocation(fix))
	if err != nil {
		c.logger.Info("otp verification failed", "err", err)
		return failed(err)
	}
	// A verified OTP is final even if the response repeats trusted:false.
	resp.Trusted = nil
	resp.Status = ""
	if resp.Code == client.StatusOTPRequired {
		resp.Code = ""
	}
	return c.accept(resp, phone, "OTP verification failed.")
}

// ResendOTP asks the backend for a new code.
func (c *Controller) ResendOTP(ctx context.Context, phone string) Result {
	resp, err := c.api.ResendOTP(ctx, phone)
	if err != nil {
		return failed(err)
	}
	if !resp.Success {
		return rejected(resp, "Could not resend the code.")
	}
	return Result{OK: true, Code: resp.Code, Message: resp.Message, DebugOTP: resp.DebugOTP}
}

// Register creates an account and signs in when the backend issues a token.
func (c *Controller) Register(ctx context.Context, in RegisterInput) Result {
	resp, err := c.api.Register(ctx, client.RegisterRequest{
		MobileNo:             in.Phone,
		Password:             in.Password,
		PasswordConfirmation: in.Confirmation,
		Name:                 in.Name,
		CNIC:                 in.CNIC,
	})
	if err != nil {
		return failed(err)
	}
	if !resp.Success {
		return rejected(resp, "Registration failed.")
	}

	c.mu.Lock()
	c.displayName = domain.FirstName(in.Name)
	c.mu.Unlock()

	if resp.Token == "" {
		return Result{OK: true, Code: resp.Code, Message: resp.Message, User: resp.User}
	}
	if resp.User == nil {
		resp.User = &domain.User{Name: in.Name, MobileNumber: in.Phone}
	}
	return c.accept(resp, in.Phone, "Registration failed.")
}

// accept applies a token-bearing auth response. An OTP challenge stores the
// token but leaves the session unauthenticated until VerifyOTP succeeds.
func (c *Controller) accept(resp *client.AuthResponse, phone, fallback string) Result {
	if !resp.Success {
		return rejected(resp, fallback)
	}
	otp := resp.OTPRequired()
	if resp.Token == "" && !otp {
		r := rejected(resp, fallback)
		r.Code = CodeNoToken
		return r
	}

	r := Result{
		OK:          true,
		Code:        resp.Code,
		Message:     resp.Message,
		Token:       resp.Token,
		User:        resp.User,
		OTPRequired: otp,
		DebugOTP:    resp.DebugOTP,
	}
	if resp.Token == "" {
		return r
	}

	c.mu.Lock()
	c.api.SetToken(resp.Token)
	var obs []func(State)
	if !otp {
		user := resp.User
		if user == nil {
			user = &domain.User{MobileNumber: phone}
		}
		c.user = user
		obs = c.setLocked(Authenticated)
	}
	c.mu.Unlock()
	notifyAll(obs, Authenticated)

	c.syncPushToken()
	return r
}

// EnableBiometricLogin seals the current token in the credential store and
// sets the persisted flag. It returns false without a session token or a
// supported store.
func (c *Controller) EnableBiometricLogin(ctx context.Context) bool {
	token := c.api.Token()
	if token == "" || c.creds == nil || !c.creds.Supported() || c.flags == nil {
		return false
	}
	if err := c.creds.Save(ctx, token); err != nil {
		c.logger.Info("enable biometric login", "err", err)
		return false
	}
	if err := c.flags.SetBiometricEnabled(true); err != nil {
		c.logger.Warn("persist biometric flag", "err", err)
		return false
	}
	return true
}

// Logout tells the backend, ignoring any failure, then clears the token,
// the user, the stored credential and the biometric flag.
func (c *Controller) Logout(ctx context.Context) {
	if c.api.Token() != "" {
		if err := c.api.Logout(ctx); err != nil {
			c.logger.Info("server logout failed", "err", err)
		}
	}

	c.mu.Lock()
	c.api.SetToken("")
	c.user = nil
	c.displayName = ""
	obs := c.setLocked(Unauthenticated)
	c.mu.Unlock()
	notifyAll(obs, Unauthenticated)

	c.Forget()
}

// Forget deletes the stored credential and clears the biometric flag
// without touching the in-memory session or the backend.
func (c *Controller) Forget() {
	if c.creds != nil {
		if err := c.creds.Delete(); err != nil {
			c.logger.Warn("delete stored credential", "err", err)
		}
	}
	if c.flags != nil {
		if err := c.flags.SetBiometricEnabled(false); err != nil {
			c.logger.Warn("clear biometric flag", "err", err)
		}
	}
}

// UntrustAllDevices revokes trust on the user's devices. The local session
// is unchanged.
func (c *Controller) UntrustAllDevices(ctx context.Context) bool {
	if c.api.Token() == "" {
		return false
	}
	if err := c.api.UntrustDevices(ctx); err != nil {
		c.logger.Info("untrust devices", "err", err)
		return false
	}
	return true
}

// UntrustCurrentDevice revokes trust on this device only.
func (c *Controller) UntrustCurrentDevice(ctx context.Context) bool {
	if c.api.Token() == "" {
		return false
	}
	if err := c.api.UntrustDevice(ctx); err != nil {
		c.logger.Info("untrust current device", "err", err)
		return false
	}
	return true
}
