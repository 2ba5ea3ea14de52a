// Package dedup suppresses re-processing of already-seen messages via
// SHA256 content hashing over a durable key-value store.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/rumor-ml/commons.systems/smsledger/internal/domain"
)

// Store is the durable hash → firstSeen table backing a Detector. The
// sqlite implementation lives in internal/store.
type Store interface {
	// Get returns the first-seen time for a hash, or false when unseen.
	Get(hash string) (time.Time, bool, error)
	// Put records a hash with its first-seen time. Re-putting an existing
	// hash must keep the original first-seen time.
	Put(hash string, firstSeen time.Time) error
	// DeleteBefore removes entries first seen before the cutoff and
	// returns how many were removed.
	DeleteBefore(cutoff time.Time) (int, error)
}

// Hash computes the dedup digest of a message: SHA256 over sender, content,
// and receipt time at millisecond precision. Two messages differing by even
// one millisecond hash differently.
func Hash(msg domain.RawMessage) string {
	input := fmt.Sprintf("%s|%s|%d", msg.Sender, msg.Content, msg.ReceivedAt.UnixMilli())
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// Detector answers "have we processed this message before". All store
// access is serialized so a check and a mark can never interleave between
// callers.
type Detector struct {
	mu    sync.Mutex
	store Store
	now   func() time.Time
}

// New creates a detector over the given store.
func New(store Store) *Detector {
	return &Detector{store: store, now: time.Now}
}

// IsDuplicate reports whether the message's hash has been seen before.
func (d *Detector) IsDuplicate(msg domain.RawMessage) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, seen, err := d.store.Get(Hash(msg))
	if err != nil {
		return false, fmt.Errorf("failed to look up dedup record: %w", err)
	}
	return seen, nil
}

// MarkProcessed records the message's hash so later deliveries of the same
// message are rejected as duplicates.
func (d *Detector) MarkProcessed(msg domain.RawMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.store.Put(Hash(msg), d.now()); err != nil {
		return fmt.Errorf("failed to record dedup hash: %w", err)
	}
	return nil
}

// Cleanup removes records first seen more than maxAge ago and returns the
// number removed. This is an explicit maintenance operation, never run
// automatically.
func (d *Detector) Cleanup(maxAge time.Duration) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	removed, err := d.store.DeleteBefore(d.now().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("failed to clean up dedup records: %w", err)
	}
	return removed, nil
}
