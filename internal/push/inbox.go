package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/naveenspark/gatepass/internal/notify"
)

const (
	// InitialFile holds the notification that launched the app.
	InitialFile = "initial.json"
	// TokenFile carries a rotated push token.
	TokenFile = "token"
)

// Inbox delivers notifications dropped into a spool directory.
type Inbox struct {
	dir      string
	registry *Registry
	logger   *slog.Logger

	// watching is closed once Run has its watch on dir.
	watching  chan struct{}
	watchOnce sync.Once
}

// NewInbox watches dir. registry receives token rotations and may be nil.
func NewInbox(dir string, registry *Registry, logger *slog.Logger) *Inbox {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Inbox{dir: dir, registry: registry, logger: logger, watching: make(chan struct{})}
}

// TakeInitial returns the cold-start notification, if any, and removes it so
// later calls report none.
func (in *Inbox) TakeInitial() (notify.Message, bool) {
	path := filepath.Join(in.dir, InitialFile)
	m, err := readMessage(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			in.logger.Warn("initial notification unreadable", "err", err)
			os.Remove(path) //nolint:errcheck
		}
		return notify.Message{}, false
	}
	os.Remove(path) //nolint:errcheck
	return m, true
}

// Run watches the spool until ctx is done, sending foreground messages on out
// in file-name order. Files already present are delivered first. Message
// files are removed once read.
func (in *Inbox) Run(ctx context.Context, out chan<- notify.Message) error {
	if err := os.MkdirAll(in.dir, 0o700); err != nil {
		return fmt.Errorf("push.Run: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("push.Run: %w", err)
	}
	defer w.Close() //nolint:errcheck
	if err := w.Add(in.dir); err != nil {
		return fmt.Errorf("push.Run: watch %s: %w", in.dir, err)
	}
	in.watchOnce.Do(func() { close(in.watching) })

	if !in.scan(ctx, out) {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if !in.scan(ctx, out) {
				return nil
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			in.logger.Warn("push spool watch", "err", err)
		}
	}
}

func (in *Inbox) scan(ctx context.Context, out chan<- notify.Message) bool {
	in.checkToken()

	entries, err := os.ReadDir(in.dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			in.logger.Warn("scan push spool", "err", err)
		}
		return true
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || n == InitialFile || !strings.HasSuffix(n, ".json") {
			continue
		}
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		path := filepath.Join(in.dir, n)
		m, err := readMessage(path)
		os.Remove(path) //nolint:errcheck
		if err != nil {
			in.logger.Warn("drop unreadable notification", "file", n, "err", err)
			continue
		}
		select {
		case out <- m:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

func (in *Inbox) checkToken() {
	if in.registry == nil {
		return
	}
	path := filepath.Join(in.dir, TokenFile)
	raw, err := os.ReadFile(path)
	if err != nil {
		return
	}
	os.Remove(path) //nolint:errcheck
	tok := strings.TrimSpace(string(raw))
	if err := in.registry.Refresh(tok); err != nil {
		in.logger.Warn("persist refreshed push token", "err", err)
	}
}

func readMessage(path string) (notify.Message, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return notify.Message{}, err
	}
	var m notify.Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return notify.Message{}, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return m, nil
}

// Drop writes a foreground notification into dir.
func Drop(dir string, raw []byte) (string, error) {
	name := fmt.Sprintf("%d-%s.json", time.Now().UnixNano(), uuid.NewString()[:8])
	if err := writeAtomic(dir, name, raw); err != nil {
		return "", fmt.Errorf("push.Drop: %w", err)
	}
	return name, nil
}

// DropInitial writes the launch notification into dir, replacing any previous one.
func DropInitial(dir string, raw []byte) error {
	if err := writeAtomic(dir, InitialFile, raw); err != nil {
		return fmt.Errorf("push.DropInitial: %w", err)
	}
	return nil
}

// DropToken writes a rotated push token into dir.
func DropToken(dir, tok string) error {
	if err := writeAtomic(dir, TokenFile, []byte(tok)); err != nil {
		return fmt.Errorf("push.DropToken: %w", err)
	}
	return nil
}

func writeAtomic(dir, name string, raw []byte) error {
	if name != TokenFile && !json.Valid(raw) {
		return errors.New("payload is not valid JSON")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".drop-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()           //nolint:errcheck
		os.Remove(tmp.Name()) //nolint:errcheck
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(dir, name))
}
