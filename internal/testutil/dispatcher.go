package testutil

import (
	"context"
	"sync"

	"harambee/internal/notify"
)

// RecordingDispatcher captures dispatched intents for assertions.
type RecordingDispatcher struct {
	mu      sync.Mutex
	intents []notify.Intent
}

func (d *RecordingDispatcher) Dispatch(_ context.Context, intent notify.Intent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.intents = append(d.intents, intent)
}

// Intents returns a copy of everything dispatched so far.
func (d *RecordingDispatcher) Intents() []notify.Intent {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]notify.Intent, len(d.intents))
	copy(out, d.intents)
	return out
}

// Kinds returns the kinds of every dispatched intent in order.
func (d *RecordingDispatcher) Kinds() []notify.Kind {
	var kinds []notify.Kind
	for _, i := range d.Intents() {
		kinds = append(kinds, i.Kind)
	}
	return kinds
}

// Reset forgets recorded intents.
func (d *RecordingDispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.intents = nil
}
