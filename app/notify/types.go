package notify

import (
	"context"
	"sort"
	"sync"

	"github.com/tkivela/dealwatch/app/alert"
)

// Notifier delivers one finding over one channel. Delivery is best-effort:
// the engine logs failures and moves on, and a failed send never undoes the
// dedup insert that preceded it.
type Notifier interface {
	Channel() string
	Send(ctx context.Context, a alert.Alert, f alert.Finding) error
}

// Registry resolves channel identifiers to notifiers.
type Registry struct {
	notifiers map[string]Notifier
	mu        sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{notifiers: make(map[string]Notifier)}
}

func (r *Registry) Register(n Notifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifiers[n.Channel()] = n
}

func (r *Registry) Get(channel string) (Notifier, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.notifiers[channel]
	return n, ok
}

func (r *Registry) Channels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	channels := make([]string, 0, len(r.notifiers))
	for channel := range r.notifiers {
		channels = append(channels, channel)
	}
	sort.Strings(channels)
	return channels
}
