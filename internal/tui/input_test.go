package tui

import (
	"strings"
	"testing"
)

func TestEditRune(t *testing.T) {
	tests := []struct {
		text, key string
		limit     int
		want      string
	}{
		{"ab", "c", 0, "abc"},
		{"ab", "backspace", 0, "a"},
		{"", "backspace", 0, ""},
		{"héé", "backspace", 0, "hé"},
		{"ab", "space", 0, "ab "},
		{"ab", "ctrl+a", 0, "ab"},
		{"abc", "d", 3, "abc"},
	}
	for _, tt := range tests {
		if got := editRune(tt.text, tt.key, tt.limit); got != tt.want {
			t.Errorf("editRune(%q, %q, %d) = %q, want %q", tt.text, tt.key, tt.limit, got, tt.want)
		}
	}
}

func TestTruncateToHeight(t *testing.T) {
	s := "a\nb\nc\nd\n"
	if got := truncateToHeight(s, 2); got != "a\nb\n" {
		t.Errorf("truncateToHeight = %q", got)
	}
	if got := truncateToHeight(s, 0); got != s {
		t.Errorf("truncateToHeight(0) = %q", got)
	}
}

func TestFormNavigation(t *testing.T) {
	f := form{fields: []textField{{label: "A"}, {label: "B", secret: true}}}
	f.handleKey("x")
	f.handleKey("tab")
	f.handleKey("4")
	f.handleKey("2")
	if f.value(0) != "x" || f.fields[1].value != "42" {
		t.Errorf("values = %q, %q", f.value(0), f.fields[1].value)
	}
	f.handleKey("tab")
	if f.focus != 0 {
		t.Errorf("focus = %d, want wrap to 0", f.focus)
	}
	f.handleKey("shift+tab")
	if f.focus != 1 {
		t.Errorf("focus = %d, want 1", f.focus)
	}
	if strings.Contains(f.View(), "42") {
		t.Error("secret field value rendered in clear")
	}
}
