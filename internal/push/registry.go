// Package push stands in for the mobile push SDK: a device push token that
// can rotate, and a spool directory through which notifications arrive.
package push

import (
	"sync"

	"github.com/google/uuid"
)

// TokenStore persists the push token between runs.
type TokenStore interface {
	PushToken() string
	SetPushToken(tok string) error
}

// Registry holds the current push token and notifies subscribers when it
// rotates.
type Registry struct {
	store TokenStore

	mu     sync.Mutex
	token  string
	nextID int
	subs   map[int]func(string)
}

// NewRegistry loads the token from store, issuing a fresh one when none is
// persisted. store may be nil.
func NewRegistry(store TokenStore) (*Registry, error) {
	r := &Registry{store: store, subs: make(map[int]func(string))}
	if store != nil {
		r.token = store.PushToken()
	}
	if r.token == "" {
		r.token = uuid.NewString()
		if store != nil {
			if err := store.SetPushToken(r.token); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

// Token returns the current token.
func (r *Registry) Token() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.token
}

// Refresh rotates the token and calls every subscriber with it. An empty or
// unchanged token is ignored.
func (r *Registry) Refresh(tok string) error {
	r.mu.Lock()
	if tok == "" || tok == r.token {
		r.mu.Unlock()
		return nil
	}
	r.token = tok
	subs := make([]func(string), 0, len(r.subs))
	for _, fn := range r.subs {
		subs = append(subs, fn)
	}
	r.mu.Unlock()

	var err error
	if r.store != nil {
		err = r.store.SetPushToken(tok)
	}
	for _, fn := range subs {
		fn(tok)
	}
	return err
}

// OnRefresh subscribes fn to token rotations. The returned func unsubscribes.
func (r *Registry) OnRefresh(fn func(string)) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.subs[id] = fn
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subs, id)
	}
}
