package utils

import (
	"sync"
	"time"
)

// Deduplicator suppresses repeats of the same scan within a short window.
// Hardware triggers double-fire and operators double-tap; both repeats land
// within seconds of the first.
type Deduplicator struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[string]time.Time

	// injected in tests
	now func() time.Time
}

func NewDeduplicator(window time.Duration) *Deduplicator {
	if window <= 0 {
		window = 5 * time.Second
	}
	return &Deduplicator{
		window: window,
		seen:   make(map[string]time.Time),
		now:    time.Now,
	}
}

// Seen reports whether key already fired within the window and marks it as
// fired now. An empty key is never a duplicate.
func (d *Deduplicator) Seen(key string) bool {
	if key == "" {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if last, ok := d.seen[key]; ok && now.Sub(last) < d.window {
		return true
	}
	d.seen[key] = now

	// Cleanup old entries if map gets too big
	if len(d.seen) > 10000 {
		for k, v := range d.seen {
			if now.Sub(v) > 2*d.window {
				delete(d.seen, k)
			}
		}
	}

	return false
}
