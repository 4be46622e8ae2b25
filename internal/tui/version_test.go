package tui

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIsNewerVersion(t *testing.T) {
	tests := []struct {
		latest  string
		current string
		want    bool
	}{
		{"1.0.1", "1.0.0", true},
		{"1.1.0", "1.0.0", true},
		{"2.0.0", "1.9.9", true},
		{"v1.0.1", "v1.0.0", true},
		{"1.0.0", "1.0.0", false},
		{"1.0.0", "1.0.1", false},
		{"0.9.0", "1.0.0", false},
		{"dev", "dev", false},
		{"v0.5.0", "0.4.2", true},
	}

	for _, tc := range tests {
		t.Run(tc.latest+"_vs_"+tc.current, func(t *testing.T) {
			got := isNewerVersion(tc.latest, tc.current)
			if got != tc.want {
				t.Errorf("isNewerVersion(%q, %q) = %v, want %v", tc.latest, tc.current, got, tc.want)
			}
		})
	}
}

func TestCheckVersionSkipsDevBuilds(t *testing.T) {
	if cmd := checkVersion(DefaultReleaseURL, "dev"); cmd != nil {
		t.Error("expected nil cmd for dev build")
	}
	if cmd := checkVersion("", "1.0.0"); cmd != nil {
		t.Error("expected nil cmd without release URL")
	}
}

func TestCheckVersionReportsUpdate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"tag_name": "v0.5.0"}) //nolint:errcheck
	}))
	defer srv.Close()

	msg := checkVersion(srv.URL, "0.4.0")()
	got, ok := msg.(versionCheckMsg)
	if !ok {
		t.Fatalf("expected versionCheckMsg, got %T", msg)
	}
	if !got.hasUpdate || got.latestVersion != "v0.5.0" {
		t.Errorf("versionCheckMsg = %+v, want update to v0.5.0", got)
	}

	msg = checkVersion(srv.URL, "0.5.0")()
	if got := msg.(versionCheckMsg); got.hasUpdate {
		t.Errorf("versionCheckMsg = %+v, want no update", got)
	}
}
