// Package dedupe skips rebuilding a dashboard when a player's snapshot is
// resubmitted unchanged.
package dedupe

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/okian/scoutlens/internal/domain/model"
)

const defaultMaxSize = 50_000

// Deduper remembers the fingerprint of the last accepted snapshot per player.
type Deduper interface {
	// SeenAndRecord reports whether fp is already the current fingerprint for
	// key. If not, fp becomes current and false is returned.
	SeenAndRecord(ctx context.Context, key, fp string) bool

	// Unrecord forgets fp for key if it is still current. Used when an
	// accepted submission could not be queued.
	Unrecord(ctx context.Context, key, fp string)

	Size() int64
}

// Fingerprint hashes the canonical JSON encoding of snap.
func Fingerprint(snap *model.Snapshot) (string, error) {
	b, err := json.Marshal(snap)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// inMemoryDeduper bounds memory by evicting the key recorded longest ago.
type inMemoryDeduper struct {
	mu      sync.Mutex
	current map[string]string
	order   []string // keys in first-recorded order, oldest first
	maxSize int      // <= 0 means unbounded
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.current = make(map[string]string)
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key, fp string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	prev, known := d.current[key]
	if known && prev == fp {
		return true
	}
	if !known {
		if d.maxSize > 0 && len(d.current) >= d.maxSize {
			d.evictOldest()
		}
		d.order = append(d.order, key)
		d.size.Add(1)
	}
	d.current[key] = fp
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key, fp string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if cur, ok := d.current[key]; !ok || cur != fp {
		return
	}
	delete(d.current, key)
	for i, k := range d.order {
		if k == key {
			d.order = append(d.order[:i:i], d.order[i+1:]...)
			break
		}
	}
	d.size.Add(-1)
}

func (d *inMemoryDeduper) Size() int64 { return d.size.Load() }

// evictOldest drops the oldest key. Caller holds d.mu.
func (d *inMemoryDeduper) evictOldest() {
	for len(d.order) > 0 {
		k := d.order[0]
		d.order = d.order[1:]
		if _, ok := d.current[k]; ok {
			delete(d.current, k)
			d.size.Add(-1)
			return
		}
	}
}
