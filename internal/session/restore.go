package session

import (
	"context"
	"errors"

	"github.com/naveenspark/gatepass/internal/keystore"
)

// Validation is the background check of a token unlocked during restore.
type Validation struct {
	done chan struct{}
	err  error
}

func newValidation() *Validation {
	return &Validation{done: make(chan struct{})}
}

func (v *Validation) finish(err error) {
	v.err = err
	close(v.done)
}

// Done is closed once the backend has answered.
func (v *Validation) Done() <-chan struct{} { return v.done }

// Wait blocks until the validation finishes and returns its outcome. A nil
// error means the session is confirmed.
func (v *Validation) Wait(ctx context.Context) error {
	select {
	case <-v.done:
		return v.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Restore tries to bring back the previous session from the credential
// store. It never fails: every problem ends in Unauthenticated, which looks
// the same as a first launch. When a token is unlocked the session becomes
// Authenticated immediately with no user, and the returned Validation
// confirms or reverts it. Restore returns nil when nothing was unlocked.
func (c *Controller) Restore(ctx context.Context) *Validation {
	c.mu.Lock()
	obs := c.setLocked(Restoring)
	c.mu.Unlock()
	notifyAll(obs, Restoring)

	secret := c.unlock(ctx)
	if secret == "" {
		c.mu.Lock()
		obs := c.setLocked(Unauthenticated)
		c.mu.Unlock()
		notifyAll(obs, Unauthenticated)
		return nil
	}

	c.mu.Lock()
	c.api.SetToken(secret)
	c.user = nil
	obs = c.setLocked(Authenticated)
	c.mu.Unlock()
	notifyAll(obs, Authenticated)

	v := newValidation()
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		v.finish(c.validate(ctx, secret))
	}()
	return v
}

func (c *Controller) unlock(ctx context.Context) string {
	if c.flags == nil || !c.flags.BiometricEnabled() {
		c.logger.Debug("restore skipped: biometric login not enabled")
		return ""
	}
	if c.creds == nil || !c.creds.Supported() || !c.creds.Exists() {
		c.logger.Info("restore skipped: no stored credential")
		return ""
	}
	secret, err := c.creds.Authenticate(ctx)
	if err != nil {
		if errors.Is(err, keystore.ErrCanceled) {
			c.logger.Info("restore canceled by user")
		} else {
			c.logger.Warn("restore unlock failed", "err", err)
		}
		return ""
	}
	return secret
}

func (c *Controller) validate(ctx context.Context, token string) error {
	fix := c.loc.WaitTimeout(ctx, c.restoreWait)
	user, err := c.api.CurrentUser(ctx, fix)

	c.mu.Lock()
	if c.api.Token() != token {
		c.mu.Unlock()
		c.logger.Info("restore validation superseded")
		return ErrSuperseded
	}
	if err != nil {
		c.api.SetToken("")
		c.user = nil
		obs := c.setLocked(Unauthenticated)
		c.mu.Unlock()
		notifyAll(obs, Unauthenticated)
		c.logger.Warn("restored session rejected", "err", err)
		return err
	}
	c.user = user
	obs := append([]func(State){}, c.observers...)
	c.mu.Unlock()
	notifyAll(obs, Authenticated)

	c.logger.Info("session restored", "user_id", user.ID)
	c.syncPushToken()
	return nil
}
