// Package locate produces the one location fix a process shares between its
// login, OTP and session-restore calls.
package locate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/naveenspark/gatepass/pkg/domain"
)

// ErrUnavailable means location services are off; the fetch is retried.
var ErrUnavailable = errors.New("location unavailable")

// ErrDenied means permission to read the location was refused.
var ErrDenied = errors.New("location permission denied")

// Source produces a location fix.
type Source interface {
	Locate(ctx context.Context) (*domain.LocationFix, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (*domain.LocationFix, error)

// Locate calls f.
func (f SourceFunc) Locate(ctx context.Context) (*domain.LocationFix, error) {
	return f(ctx)
}

// retryDelay is the pause between attempts while the source reports ErrUnavailable.
const retryDelay = 500 * time.Millisecond

// Pending is the single location result of a process. Every waiter observes
// the same value, which may be nil.
type Pending struct {
	done chan struct{}
	fix  *domain.LocationFix
}

// Start begins the fetch in the background and returns immediately.
// ctx bounds the whole fetch, including retries.
func Start(ctx context.Context, src Source, logger *slog.Logger) *Pending {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	p := &Pending{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.fix = fetch(ctx, src, logger)
	}()
	return p
}

// Resolved returns a Pending that already holds fix.
func Resolved(fix *domain.LocationFix) *Pending {
	p := &Pending{done: make(chan struct{}), fix: fix}
	close(p.done)
	return p
}

func fetch(ctx context.Context, src Source, logger *slog.Logger) *domain.LocationFix {
	if src == nil {
		return nil
	}
	for {
		fix, err := src.Locate(ctx)
		if err == nil {
			if fix != nil {
				logger.Debug("location fix acquired", "accuracy", fix.Accuracy)
			}
			return fix
		}
		if !errors.Is(err, ErrUnavailable) {
			logger.Info("location fetch failed", "err", err)
			return nil
		}
		logger.Debug("location unavailable, retrying")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(retryDelay):
		}
	}
}

// Wait blocks until the fetch resolves or ctx is done.
func (p *Pending) Wait(ctx context.Context) *domain.LocationFix {
	select {
	case <-p.done:
		return p.fix
	case <-ctx.Done():
		return nil
	}
}

// WaitTimeout is Wait bounded by d. A fetch still running when d elapses keeps
// running; this caller just stops waiting for it.
func (p *Pending) WaitTimeout(ctx context.Context, d time.Duration) *domain.LocationFix {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-p.done:
		return p.fix
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return nil
	}
}

// Done reports whether the fetch has resolved.
func (p *Pending) Done() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}
