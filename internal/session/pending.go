package session

import (
	"context"
	"time"

	"github.com/naveenspark/gatepass/internal/notify"
)

// DrainPending makes one attempt to replay the buffered notification. It
// reports whether the attempt happened, which needs a user and a ready
// navigator; the buffer may still have been empty.
func (c *Controller) DrainPending(nav notify.Navigator) bool {
	if c.User() == nil || nav == nil || !nav.Ready() {
		return false
	}
	if p, ok := c.router.Pending().Consume(); ok {
		c.router.Dispatch(p, nav)
	}
	return true
}

// WatchPending polls DrainPending every interval until an attempt happens,
// the user goes away or ctx is done.
func (c *Controller) WatchPending(ctx context.Context, nav notify.Navigator, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPendingInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if c.User() == nil {
			return
		}
		if c.DrainPending(nav) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Handle routes an incoming notification. It counts as authenticated only
// once a user is known, so a notification arriving during restore
// validation is buffered rather than dispatched.
func (c *Controller) Handle(m notify.Message, nav notify.Navigator) notify.Outcome {
	return c.router.Handle(m, nav, c.User() != nil)
}
