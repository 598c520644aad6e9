package store

import (
	"errors"
	"time"

	"github.com/tungdibui2609/saritaqr/internal/models"
)

var (
	// ErrNotAuthenticated means no session is cached on the device.
	ErrNotAuthenticated = errors.New("not authenticated: no cached session")
	// ErrSessionExpired means the cached token's exp claim has passed.
	ErrSessionExpired = errors.New("session expired: log in again")
)

// MutationStore is the durable pending-mutation queue. Mutations are
// append-only; RemoveMany performs the logical removal by stamping SyncedAt,
// and Prune clears confirmed rows after the retention window.
type MutationStore interface {
	// Append records a new mutation at the tail of the queue.
	Append(m *models.PendingMutation) error
	// RemoveMany marks the given mutations as resolved. Unknown and already
	// resolved ids are ignored, so replays after a crash are harmless.
	RemoveMany(ids []string) error
	// ListAll returns every unresolved mutation in insertion order.
	ListAll() ([]models.PendingMutation, error)
	// Prune hard-deletes resolved mutations older than the retention window
	// and reports how many rows went.
	Prune(olderThan time.Duration) (int64, error)
}

// KV is the named snapshot cache. Values are stored as JSON blobs and
// replaced whole; Get reports false without error for missing keys.
type KV interface {
	Get(key string, dest interface{}) (bool, error)
	Put(key string, value interface{}) error
	Delete(key string) error
}
