package push

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/naveenspark/gatepass/internal/notify"
)

type memTokens struct{ tok string }

func (m *memTokens) PushToken() string             { return m.tok }
func (m *memTokens) SetPushToken(tok string) error { m.tok = tok; return nil }

func TestRegistryIssuesToken(t *testing.T) {
	store := &memTokens{}
	r, err := NewRegistry(store)
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}
	if r.Token() == "" {
		t.Fatal("Token() is empty")
	}
	if store.tok != r.Token() {
		t.Errorf("persisted token = %q, want %q", store.tok, r.Token())
	}

	again, _ := NewRegistry(store)
	if again.Token() != r.Token() {
		t.Errorf("reloaded token = %q, want %q", again.Token(), r.Token())
	}
}

func TestRegistryRefreshNotifies(t *testing.T) {
	r, _ := NewRegistry(&memTokens{tok: "old"})
	var got []string
	unsub := r.OnRefresh(func(tok string) { got = append(got, tok) })

	r.Refresh("old") //nolint:errcheck
	r.Refresh("new") //nolint:errcheck
	unsub()
	r.Refresh("newer") //nolint:errcheck

	if len(got) != 1 || got[0] != "new" {
		t.Errorf("subscriber saw %v, want [new]", got)
	}
	if r.Token() != "newer" {
		t.Errorf("Token() = %q, want %q", r.Token(), "newer")
	}
}

func TestTakeInitialOnce(t *testing.T) {
	dir := t.TempDir()
	if err := DropInitial(dir, []byte(`{"action":"GO_HOME"}`)); err != nil {
		t.Fatalf("DropInitial() error: %v", err)
	}
	in := NewInbox(dir, nil, nil)

	m, ok := in.TakeInitial()
	if !ok || m.Action != "GO_HOME" {
		t.Fatalf("TakeInitial() = %+v, %v", m, ok)
	}
	if _, ok := in.TakeInitial(); ok {
		t.Error("second TakeInitial() reported a notification")
	}
}

func TestRunDeliversInOrder(t *testing.T) {
	dir := t.TempDir()
	for _, raw := range []string{`{"action":"GO_HOME"}`, `{"data":{"action":"VISIT_LIST"}}`} {
		if _, err := Drop(dir, []byte(raw)); err != nil {
			t.Fatalf("Drop() error: %v", err)
		}
		time.Sleep(time.Millisecond)
	}
	os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o600) //nolint:errcheck

	in := NewInbox(dir, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := make(chan notify.Message)
	go in.Run(ctx, out)

	var got []string
	for len(got) < 2 {
		select {
		case m := <-out:
			a := m.Action
			if a == "" {
				a, _ = m.Data["action"].(string)
			}
			got = append(got, a)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out, got %v", got)
		}
	}
	if got[0] != "GO_HOME" || got[1] != "VISIT_LIST" {
		t.Errorf("delivered %v, want [GO_HOME VISIT_LIST]", got)
	}
}

func TestRunPicksUpToken(t *testing.T) {
	dir := t.TempDir()
	r, _ := NewRegistry(&memTokens{tok: "old"})
	seen := make(chan string, 1)
	r.OnRefresh(func(tok string) { seen <- tok })

	if err := DropToken(dir, "rotated\n"); err != nil {
		t.Fatalf("DropToken() error: %v", err)
	}
	in := NewInbox(dir, r, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go in.Run(ctx, make(chan notify.Message))

	select {
	case tok := <-seen:
		if tok != "rotated" {
			t.Errorf("refreshed token = %q, want %q", tok, "rotated")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("token refresh not observed")
	}
}

func TestRunDeliversDropsAfterStart(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "inbox")
	in := NewInbox(dir, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan notify.Message)
	done := make(chan error, 1)
	go func() { done <- in.Run(ctx, out) }()

	select {
	case <-in.watching:
	case <-time.After(2 * time.Second):
		t.Fatal("watch not established")
	}
	if _, err := Drop(dir, []byte(`{"action":"VISIT_LIST"}`)); err != nil {
		t.Fatalf("Drop() error: %v", err)
	}

	select {
	case m := <-out:
		if m.Action != "VISIT_LIST" {
			t.Errorf("Action = %q, want VISIT_LIST", m.Action)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("dropped message not delivered")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() error: %v", err)
	}
	entries, _ := os.ReadDir(dir) //nolint:errcheck
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".json") {
			t.Errorf("%s left in spool", e.Name())
		}
	}
}

func TestDropRejectsInvalidJSON(t *testing.T) {
	if _, err := Drop(t.TempDir(), []byte("nope")); err == nil {
		t.Error("Drop() accepted invalid JSON")
	}
}
