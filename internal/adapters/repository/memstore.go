package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/scoutlens/internal/domain/dashboard"
	"github.com/okian/scoutlens/internal/domain/model"
	"github.com/okian/scoutlens/internal/domain/types"
	"github.com/okian/scoutlens/pkg/metrics"
)

// MemoryStore is an in-memory Store. Writes take a mutex; List reads an
// immutable listing published after every write.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	order   []string

	// listing is rebuilt on every write and never mutated afterwards.
	listing atomic.Pointer[[]types.Summary]

	metrics *metrics.Manager
	now     func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		records: make(map[string]Record),
		metrics: metrics.Global(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	empty := []types.Summary{}
	s.listing.Store(&empty)
	s.metrics.UpdateDashboardsStored(0)
	return s
}

// Put stores the latest snapshot and dashboard for playerID unless a write
// with a higher seq got there first.
func (s *MemoryStore) Put(ctx context.Context, playerID string, seq uint64, snap *model.Snapshot, d *dashboard.Dashboard) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if playerID == "" {
		return ErrEmptyPlayerID
	}
	if d == nil {
		return ErrNilDashboard
	}

	s.mu.Lock()
	cur, ok := s.records[playerID]
	if ok && seq < cur.Seq {
		s.mu.Unlock()
		return ErrStaleWrite
	}
	if !ok {
		s.order = append(s.order, playerID)
	}
	s.records[playerID] = Record{PlayerID: playerID, Snapshot: snap, Dashboard: d, Seq: seq, UpdatedAt: s.now().UTC()}
	s.publishLocked()
	n := len(s.order)
	s.mu.Unlock()

	s.metrics.UpdateDashboardsStored(n)
	return nil
}

// Get returns the record for playerID.
func (s *MemoryStore) Get(_ context.Context, playerID string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[playerID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return r, nil
}

// Dashboard returns the latest dashboard for playerID.
func (s *MemoryStore) Dashboard(ctx context.Context, playerID string) (*dashboard.Dashboard, error) {
	r, err := s.Get(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return r.Dashboard, nil
}

// List returns the published listing. Callers must not modify it.
func (s *MemoryStore) List(_ context.Context) []types.Summary {
	return *s.listing.Load()
}

// Delete removes playerID.
func (s *MemoryStore) Delete(_ context.Context, playerID string) error {
	s.mu.Lock()
	if _, ok := s.records[playerID]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.records, playerID)
	for i, id := range s.order {
		if id == playerID {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	s.publishLocked()
	n := len(s.order)
	s.mu.Unlock()

	s.metrics.UpdateDashboardsStored(n)
	return nil
}

// Count returns the number of players stored.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// publishLocked rebuilds the listing. Caller holds s.mu.
func (s *MemoryStore) publishLocked() {
	out := make([]types.Summary, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id].Dashboard.Summary())
	}
	s.listing.Store(&out)
}
