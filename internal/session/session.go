// Package session owns the authenticated session: the bearer token held by
// the API client, the current user, biometric restore at startup and the
// replay of a notification that arrived before the app could navigate.
package session

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/naveenspark/gatepass/internal/locate"
	"github.com/naveenspark/gatepass/internal/notify"
	"github.com/naveenspark/gatepass/pkg/domain"
)

// State is the session lifecycle state.
type State int

const (
	Uninitialized State = iota
	Restoring
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Restoring:
		return "restoring"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "uninitialized"
	}
}

const (
	// DefaultRestoreLocationWait bounds the location wait during restore.
	DefaultRestoreLocationWait = 10 * time.Second
	// DefaultPendingInterval is the pending-notification poll interval.
	DefaultPendingInterval = 100 * time.Millisecond

	pushSyncTimeout = 15 * time.Second
)

// ErrSuperseded is reported by a Validation whose token was replaced or
// cleared before the backend answered.
var ErrSuperseded = errors.New("session: token superseded")

// Deps are the collaborators of a Controller. Credentials, Flags, Push and
// Location may be nil.
type Deps struct {
	API         API
	Credentials CredentialStore
	Flags       FlagStore
	Push        PushTokens
	Location    *locate.Pending
	Router      *notify.Router
	Logger      *slog.Logger

	RestoreLocationWait time.Duration
}

// Controller is the session state machine. Its methods are safe to call
// from concurrent tea.Cmd goroutines.
type Controller struct {
	api         API
	creds       CredentialStore
	flags       FlagStore
	push        PushTokens
	loc         *locate.Pending
	router      *notify.Router
	logger      *slog.Logger
	restoreWait time.Duration
	unsubscribe func()

	mu          sync.Mutex
	state       State
	user        *domain.User
	displayName string
	observers   []func(State)

	bg sync.WaitGroup
}

// New builds a controller and subscribes it to push-token rotations.
func New(d Deps) *Controller {
	logger := d.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	loc := d.Location
	if loc == nil {
		loc = locate.Resolved(nil)
	}
	router := d.Router
	if router == nil {
		router = notify.NewRouter(notify.NewBuffer(), logger)
	}
	wait := d.RestoreLocationWait
	if wait <= 0 {
		wait = DefaultRestoreLocationWait
	}
	c := &Controller{
		api:         d.API,
		creds:       d.Credentials,
		flags:       d.Flags,
		push:        d.Push,
		loc:         loc,
		router:      router,
		logger:      logger,
		restoreWait: wait,
	}
	if d.Push != nil {
		d.API.SetPushToken(d.Push.Token())
		c.unsubscribe = d.Push.OnRefresh(c.onPushRefresh)
	}
	return c
}

// Close drops the push-token subscription.
func (c *Controller) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

// Router returns the notification router the controller replays into.
func (c *Controller) Router() *notify.Router { return c.router }

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// User returns the current user. It is nil while an optimistic restore is
// still being validated.
func (c *Controller) User() *domain.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// Authenticated reports whether the session is in the Authenticated state.
func (c *Controller) Authenticated() bool {
	return c.State() == Authenticated
}

// BiometricEnabled reports the persisted biometric-login flag.
func (c *Controller) BiometricEnabled() bool {
	if c.flags == nil {
		return false
	}
	return c.flags.BiometricEnabled()
}

// BiometricSupported reports whether biometric login can be enabled here.
func (c *Controller) BiometricSupported() bool {
	return c.creds != nil && c.creds.Supported()
}

// DisplayName is the user's first name, or the name recorded at registration.
func (c *Controller) DisplayName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n := c.user.FirstName(); n != "" {
		return n
	}
	return c.displayName
}

// OnChange registers fn to be called after every state transition, and
// with Authenticated again once a restored session's user is confirmed.
func (c *Controller) OnChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// setLocked transitions to s and returns the observers to notify once the
// lock is released.
func (c *Controller) setLocked(s State) []func(State) {
	if c.state == s {
		return nil
	}
	c.logger.Debug("session state", "from", c.state.String(), "to", s.String())
	c.state = s
	return append([]func(State){}, c.observers...)
}

func notifyAll(obs []func(State), s State) {
	for _, fn := range obs {
		fn(s)
	}
}
