package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/naveenspark/gatepass/pkg/domain"
)

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.MobileNo != "+92-300-1234567" || req.Password != "secret1" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"code": "INVALID_CREDENTIALS", "message": "wrong password"}) //nolint:errcheck
			return
		}
		if req.DeviceID != "dev-1" {
			t.Errorf("device_id = %q, want %q", req.DeviceID, "dev-1")
		}
		if req.Latitude == nil || *req.Latitude != 24.86 {
			t.Errorf("latitude = %v, want 24.86", req.Latitude)
		}
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"data": map[string]any{"token": "abc", "trusted": false},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "dev-1")
	req := LoginRequest{MobileNo: "+92-300-1234567", Password: "secret1"}.
		WithLocation(&domain.LocationFix{Latitude: 24.86, Longitude: 67.0, Accuracy: 30})
	resp, err := c.Login(context.Background(), req)
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if !resp.Success {
		t.Error("Success = false, want true for envelope without flag")
	}
	if resp.Token != "abc" {
		t.Errorf("Token = %q, want %q", resp.Token, "abc")
	}
	if !resp.OTPRequired() {
		t.Error("OTPRequired() = false, want true for trusted=false")
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"success": false, "code": "INVALID_CREDENTIALS", "message": "wrong password"}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, "dev-1")
	_, err := c.Login(context.Background(), LoginRequest{MobileNo: "1", Password: "x"})
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	if !IsStatus(err, http.StatusUnauthorized) {
		t.Errorf("IsStatus(err, 401) = false for %v", err)
	}
	f := Normalize(err)
	want := Failure{Kind: FailureServer, Code: "INVALID_CREDENTIALS", Message: "wrong password"}
	if diff := cmp.Diff(want, f); diff != "" {
		t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
	}
}

func TestAuthorizationHeaderFollowsToken(t *testing.T) {
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Header.Get("Authorization"))
		if r.Header.Get(HeaderDeviceID) != "dev-9" {
			t.Errorf("%s = %q, want dev-9", HeaderDeviceID, r.Header.Get(HeaderDeviceID))
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, "dev-9")
	ctx := context.Background()
	if err := c.UntrustDevices(ctx); err != nil {
		t.Fatalf("UntrustDevices() error: %v", err)
	}
	c.SetToken("tok-1")
	if err := c.UntrustDevices(ctx); err != nil {
		t.Fatalf("UntrustDevices() error: %v", err)
	}
	c.SetToken("")
	if err := c.UntrustDevices(ctx); err != nil {
		t.Fatalf("UntrustDevices() error: %v", err)
	}

	want := []string{"", "Bearer tok-1", ""}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Authorization headers mismatch (-want +got):\n%s", diff)
	}
}

func TestPushTokenHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get(HeaderPushToken); got != "push-1" {
			t.Errorf("%s = %q, want push-1", HeaderPushToken, got)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body) //nolint:errcheck
		if body["fcm_token"] != "push-1" {
			t.Errorf("fcm_token = %q, want push-1", body["fcm_token"])
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "dev")
	c.SetPushToken("push-1")
	if err := c.UpdatePushToken(context.Background(), "push-1"); err != nil {
		t.Fatalf("UpdatePushToken() error: %v", err)
	}
}

func TestCurrentUser_LocationHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/user" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("X-Latitude") != "24.86" || r.Header.Get("X-Longitude") != "67.01" || r.Header.Get("X-Accuracy") != "15" {
			t.Errorf("location headers = %q %q %q", r.Header.Get("X-Latitude"), r.Header.Get("X-Longitude"), r.Header.Get("X-Accuracy"))
		}
		json.NewEncoder(w).Encode(domain.User{ID: 7, Name: "Ayesha Khan", MobileNumber: "03001234567"}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, "dev")
	u, err := c.CurrentUser(context.Background(), &domain.LocationFix{Latitude: 24.86, Longitude: 67.01, Accuracy: 15})
	if err != nil {
		t.Fatalf("CurrentUser() error: %v", err)
	}
	if u.ID != 7 || u.FirstName() != "Ayesha" {
		t.Errorf("CurrentUser() = %+v", u)
	}
}

func TestCurrentUser_NoLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Latitude") != "" {
			t.Errorf("X-Latitude = %q, want empty", r.Header.Get("X-Latitude"))
		}
		json.NewEncoder(w).Encode(map[string]any{"data": domain.User{ID: 3, Name: "Bilal"}}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, "dev")
	u, err := c.CurrentUser(context.Background(), nil)
	if err != nil {
		t.Fatalf("CurrentUser() error: %v", err)
	}
	if u.ID != 3 {
		t.Errorf("ID = %d, want 3", u.ID)
	}
}

func TestResendOTP_DebugEcho(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]any{"otp": 123456}}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, "dev")
	resp, err := c.ResendOTP(context.Background(), "03001234567")
	if err != nil {
		t.Fatalf("ResendOTP() error: %v", err)
	}
	if resp.DebugOTP != "123456" {
		t.Errorf("DebugOTP = %q, want 123456", resp.DebugOTP)
	}
}

func TestHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "boom"}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, "dev")
	_, err := c.CurrentUser(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if got := err.Error(); !strings.Contains(got, "boom") {
		t.Errorf("error = %q, want it to contain 'boom'", got)
	}
	if f := Normalize(err); f.Code != CodeServerError || f.Kind != FailureServer {
		t.Errorf("Normalize() = %+v, want SERVER_ERROR", f)
	}
}

func TestHTTPError_UnstructuredBody(t *testing.T) {
	page := "<html><body>" + strings.Repeat("x", 2000) + "</body></html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(page)) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, "dev")
	_, err := c.Login(context.Background(), LoginRequest{MobileNo: "1", Password: "x"})
	if !IsStatus(err, http.StatusBadGateway) {
		t.Fatalf("Login() error = %v, want HTTP 502", err)
	}
	want := Failure{Kind: FailureServer, Code: CodeServerError, Message: msgServerError}
	if diff := cmp.Diff(want, Normalize(err)); diff != "" {
		t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalize_Network(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close() // nothing listening any more

	c := New(url, "dev")
	err := c.Logout(context.Background())
	if err == nil {
		t.Fatal("expected error for closed server")
	}
	if f := Normalize(err); f.Kind != FailureNetwork || f.Code != CodeNetworkError {
		t.Errorf("Normalize() = %+v, want NETWORK_ERROR", f)
	}
}

func TestNormalize_Unknown(t *testing.T) {
	f := Normalize(errors.New("bad state"))
	if f.Kind != FailureUnknown || f.Code != CodeUnknownError || f.Message != "bad state" {
		t.Errorf("Normalize() = %+v", f)
	}
}

func TestDoRequest_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(5 * time.Second) // slow server
	}))
	defer srv.Close()

	c := New(srv.URL, "dev")
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	_, err := c.CurrentUser(ctx, nil)
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
	if f := Normalize(err); f.Kind != FailureNetwork {
		t.Errorf("Normalize() kind = %v, want network", f.Kind)
	}
}
