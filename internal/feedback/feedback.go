// Package feedback holds the process-wide mute preference for submission
// feedback cues. The preference is a single observable value: created once
// at startup, updated only through its setter, and shared by every surface
// that plays or suppresses cues.
package feedback

import (
	"strconv"
	"sync"

	"github.com/eparkir/setoran/internal/logging"
	"github.com/eparkir/setoran/internal/store"
)

// Key is the store key holding the persisted preference.
const Key = "feedback_muted"

// Preference is the observable mute state.
type Preference struct {
	mu    sync.Mutex
	muted bool
	subs  map[int]func(muted bool)
	next  int
	kv    *store.KV
}

// Load creates the Preference from its persisted value. An absent or
// unreadable value defaults to unmuted.
func Load(kv *store.KV) *Preference {
	p := &Preference{
		subs: make(map[int]func(bool)),
		kv:   kv,
	}

	value, ok, err := kv.Get(Key)
	if err != nil {
		logging.Warn("Failed to read mute preference, defaulting to unmuted", logging.Fields{
			"error": err.Error(),
		})
		return p
	}
	if ok {
		p.muted = value == "true"
	}
	return p
}

// Muted reports the current state.
func (p *Preference) Muted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

// Subscribe registers fn for state changes and returns its unsubscribe
// function. fn is not called with the current state.
func (p *Preference) Subscribe(fn func(muted bool)) (unsubscribe func()) {
	p.mu.Lock()
	id := p.next
	p.next++
	p.subs[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

// SetMuted updates the state, persists it and notifies subscribers.
// Setting the current value again is a no-op.
func (p *Preference) SetMuted(muted bool) {
	p.mu.Lock()
	if p.muted == muted {
		p.mu.Unlock()
		return
	}
	p.muted = muted

	fns := make([]func(bool), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	if err := p.kv.Set(Key, strconv.FormatBool(muted)); err != nil {
		logging.Warn("Failed to persist mute preference", logging.Fields{
			"error": err.Error(),
		})
	}

	for _, fn := range fns {
		fn(muted)
	}
}

// Toggle flips the state and returns the new value.
func (p *Preference) Toggle() bool {
	p.mu.Lock()
	muted := !p.muted
	p.mu.Unlock()

	p.SetMuted(muted)
	return muted
}
