package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/naveenspark/gatepass/pkg/domain"
)

// Status codes the auth endpoints report in the envelope or in data.status.
const (
	StatusOTPRequired   = "OTP_REQUIRED"
	StatusTrustedDevice = "TRUSTED_DEVICE"
)

// LoginRequest is the payload for POST /auth/login.
type LoginRequest struct {
	MobileNo  string   `json:"mobile_no"`
	Password  string   `json:"password"`
	DeviceID  string   `json:"device_id,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
}

// WithLocation copies fix into the request's optional location fields.
func (r LoginRequest) WithLocation(fix *domain.LocationFix) LoginRequest {
	if fix == nil {
		return r
	}
	lat, lon, acc := fix.Latitude, fix.Longitude, fix.Accuracy
	r.Latitude, r.Longitude, r.Accuracy = &lat, &lon, &acc
	return r
}

// VerifyOTPRequest is the payload for POST /auth/verify-otp.
type VerifyOTPRequest struct {
	MobileNo  string   `json:"mobile_no"`
	OTP       string   `json:"otp"`
	DeviceID  string   `json:"device_id,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
}

// WithLocation copies fix into the request's optional location fields.
func (r VerifyOTPRequest) WithLocation(fix *domain.LocationFix) VerifyOTPRequest {
	if fix == nil {
		return r
	}
	lat, lon, acc := fix.Latitude, fix.Longitude, fix.Accuracy
	r.Latitude, r.Longitude, r.Accuracy = &lat, &lon, &acc
	return r
}

// RegisterRequest is the payload for POST /auth/register.
type RegisterRequest struct {
	MobileNo             string `json:"mobile_no"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	Name                 string `json:"name,omitempty"`
	CNIC                 string `json:"cnic,omitempty"`
	DeviceID             string `json:"device_id,omitempty"`
}

// AuthResponse is the decoded result of login, OTP verification and registration.
// Success mirrors the envelope flag; a 2xx body without the flag counts as success.
type AuthResponse struct {
	Success  bool
	Code     string
	Message  string
	Status   string
	Token    string
	User     *domain.User
	Trusted  *bool
	OTPSent  bool
	DebugOTP string
}

type authData struct {
	Status   string       `json:"status"`
	Token    string       `json:"token"`
	User     *domain.User `json:"user"`
	Trusted  *bool        `json:"trusted"`
	OTPSent  bool         `json:"otp_sent"`
	DebugOTP string       `json:"debug_otp"`
	OTP      json.Number  `json:"otp"`
}

func decodeAuth(raw json.RawMessage) (*AuthResponse, error) {
	if len(raw) == 0 {
		return &AuthResponse{Success: true}, nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	var d authData
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return nil, fmt.Errorf("decode response data: %w", err)
		}
	}
	resp := &AuthResponse{
		Success:  env.ok(),
		Code:     env.Code,
		Message:  env.Message,
		Status:   d.Status,
		Token:    d.Token,
		User:     d.User,
		Trusted:  d.Trusted,
		OTPSent:  d.OTPSent,
		DebugOTP: d.DebugOTP,
	}
	if resp.DebugOTP == "" && d.OTP != "" {
		resp.DebugOTP = d.OTP.String()
	}
	return resp, nil
}

// OTPRequired reports whether the backend wants a second factor before the
// session is considered final: the device is not trusted or the code says so.
func (r *AuthResponse) OTPRequired() bool {
	if r.Code == StatusOTPRequired || r.Status == StatusOTPRequired {
		return true
	}
	return r.Trusted != nil && !*r.Trusted
}

// Login submits credentials.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if req.DeviceID == "" {
		req.DeviceID = c.deviceID
	}
	var raw json.RawMessage
	if err := c.post(ctx, "/auth/login", req, &raw); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	resp, err := decodeAuth(raw)
	if err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	return resp, nil
}

// VerifyOTP submits the one-time code sent after a login from an untrusted device.
func (c *Client) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*AuthResponse, error) {
	if req.DeviceID == "" {
		req.DeviceID = c.deviceID
	}
	var raw json.RawMessage
	if err := c.post(ctx, "/auth/verify-otp", req, &raw); err != nil {
		return nil, fmt.Errorf("client.VerifyOTP: %w", err)
	}
	resp, err := decodeAuth(raw)
	if err != nil {
		return nil, fmt.Errorf("client.VerifyOTP: %w", err)
	}
	return resp, nil
}

// Register creates a resident account.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if req.DeviceID == "" {
		req.DeviceID = c.deviceID
	}
	var raw json.RawMessage
	if err := c.post(ctx, "/auth/register", req, &raw); err != nil {
		return nil, fmt.Errorf("client.Register: %w", err)
	}
	resp, err := decodeAuth(raw)
	if err != nil {
		return nil, fmt.Errorf("client.Register: %w", err)
	}
	return resp, nil
}

// ResendOTP asks the backend to send a fresh code. Development backends echo
// the code back in DebugOTP.
func (c *Client) ResendOTP(ctx context.Context, mobileNo string) (*AuthResponse, error) {
	body := map[string]string{"mobile_no": mobileNo, "device_id": c.deviceID}
	var raw json.RawMessage
	if err := c.post(ctx, "/auth/resend-otp", body, &raw); err != nil {
		return nil, fmt.Errorf("client.ResendOTP: %w", err)
	}
	resp, err := decodeAuth(raw)
	if err != nil {
		return nil, fmt.Errorf("client.ResendOTP: %w", err)
	}
	return resp, nil
}

// CurrentUser returns the user owning the current bearer token. A non-nil fix
// is sent in the X-Latitude, X-Longitude and X-Accuracy headers.
func (c *Client) CurrentUser(ctx context.Context, fix *domain.LocationFix) (*domain.User, error) {
	hdr := http.Header{}
	if fix != nil {
		hdr.Set("X-Latitude", formatFloat(fix.Latitude))
		hdr.Set("X-Longitude", formatFloat(fix.Longitude))
		hdr.Set("X-Accuracy", formatFloat(fix.Accuracy))
	}
	var raw json.RawMessage
	if err := c.get(ctx, "/auth/user", hdr, &raw); err != nil {
		return nil, fmt.Errorf("client.CurrentUser: %w", err)
	}
	var u domain.User
	if err := json.Unmarshal(unwrap(raw), &u); err != nil {
		return nil, fmt.Errorf("client.CurrentUser: decode response: %w", err)
	}
	if u.ID == 0 && u.MobileNumber == "" && u.Name == "" {
		return nil, fmt.Errorf("client.CurrentUser: empty user record")
	}
	return &u, nil
}

// UpdatePushToken registers the device's push token with the backend.
func (c *Client) UpdatePushToken(ctx context.Context, pushToken string) error {
	body := map[string]string{"fcm_token": pushToken, "device_id": c.deviceID}
	if err := c.post(ctx, "/auth/update-fcm-token", body, nil); err != nil {
		return fmt.Errorf("client.UpdatePushToken: %w", err)
	}
	return nil
}

// Logout ends the session server-side.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.post(ctx, "/auth/logout", map[string]string{}, nil); err != nil {
		return fmt.Errorf("client.Logout: %w", err)
	}
	return nil
}

// UntrustDevice revokes trust for the current device.
func (c *Client) UntrustDevice(ctx context.Context) error {
	if err := c.post(ctx, "/auth/untrust-device", map[string]string{"device": "current"}, nil); err != nil {
		return fmt.Errorf("client.UntrustDevice: %w", err)
	}
	return nil
}

// UntrustDevices revokes trust for every other device of the user.
func (c *Client) UntrustDevices(ctx context.Context) error {
	if err := c.post(ctx, "/auth/untrust-devices", map[string]string{}, nil); err != nil {
		return fmt.Errorf("client.UntrustDevices: %w", err)
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
