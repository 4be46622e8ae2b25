package notify

import "sync"

// Buffer holds at most one deferred notification. A new Set overwrites the
// previous value; Consume empties the slot.
type Buffer struct {
	mu      sync.Mutex
	pending *Payload
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Set stores p, replacing anything already buffered.
func (b *Buffer) Set(p Payload) {
	b.mu.Lock()
	b.pending = &p
	b.mu.Unlock()
}

// Consume returns the buffered payload and clears the slot.
// It returns false when nothing is buffered.
func (b *Buffer) Consume() (Payload, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending == nil {
		return Payload{}, false
	}
	p := *b.pending
	b.pending = nil
	return p, true
}

// Peek returns the buffered payload without consuming it.
func (b *Buffer) Peek() (Payload, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending == nil {
		return Payload{}, false
	}
	return *b.pending, true
}
