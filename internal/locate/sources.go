package locate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/naveenspark/gatepass/pkg/domain"
)

// Static returns fix on every call.
func Static(fix domain.LocationFix) Source {
	return SourceFunc(func(context.Context) (*domain.LocationFix, error) {
		return &fix, nil
	})
}

// None is a source without permission to read the location.
func None() Source {
	return SourceFunc(func(context.Context) (*domain.LocationFix, error) {
		return nil, ErrDenied
	})
}

// HTTP reads a coarse fix from a JSON geolocation endpoint responding with
// {"latitude": .., "longitude": .., "accuracy": ..}. Accuracy defaults to
// DefaultAccuracy meters when the endpoint omits it.
type HTTP struct {
	URL             string
	Client          *http.Client
	DefaultAccuracy float64
}

// Locate fetches the fix. 503 responses map to ErrUnavailable so the fetch is retried.
func (h HTTP) Locate(ctx context.Context) (*domain.LocationFix, error) {
	hc := h.Client
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("locate.HTTP: create request: %w", err)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("locate.HTTP: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		return nil, ErrUnavailable
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrDenied
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("locate.HTTP: HTTP %d", resp.StatusCode)
	}

	var body struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
		Accuracy  *float64 `json:"accuracy"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("locate.HTTP: decode: %w", err)
	}
	if body.Latitude == nil || body.Longitude == nil {
		return nil, fmt.Errorf("locate.HTTP: response missing coordinates")
	}
	fix := &domain.LocationFix{Latitude: *body.Latitude, Longitude: *body.Longitude, Accuracy: h.DefaultAccuracy}
	if body.Accuracy != nil {
		fix.Accuracy = *body.Accuracy
	}
	return fix, nil
}
