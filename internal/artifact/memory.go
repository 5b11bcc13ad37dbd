package artifact

import (
    "bytes"
    "context"
    "sync"
    "time"

    "github.com/rs/zerolog/log"

    "github.com/local/pdfmanager/internal/metrics"
)

// MemoryStore keeps artifacts in process memory. Entries are dropped by a
// janitor once they expire; nothing survives a restart.
type MemoryStore struct {
    mu    sync.RWMutex
    items map[string]Artifact
    ttl   time.Duration
    now   func() time.Time
    stop  chan struct{}
    done  chan struct{}
}

// NewMemoryStore starts a store whose janitor sweeps every sweep interval.
func NewMemoryStore(ttl, sweep time.Duration) *MemoryStore {
    if ttl <= 0 { ttl = 15 * time.Minute }
    if sweep <= 0 { sweep = time.Minute }
    s := &MemoryStore{
        items: map[string]Artifact{},
        ttl:   ttl,
        now:   time.Now,
        stop:  make(chan struct{}),
        done:  make(chan struct{}),
    }
    go s.janitor(sweep)
    return s
}

func (s *MemoryStore) Put(_ context.Context, a Artifact) (Artifact, error) {
    a = prepare(a, s.ttl, s.now())
    a.Data = bytes.Clone(a.Data)
    s.mu.Lock()
    s.items[a.ID] = a
    n := len(s.items)
    s.mu.Unlock()
    metrics.SetArtifacts(n)
    return a, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Artifact, error) {
    s.mu.RLock()
    a, ok := s.items[id]
    s.mu.RUnlock()
    if !ok || !s.now().Before(a.ExpiresAt) {
        return Artifact{}, ErrNotFound
    }
    a.Data = bytes.Clone(a.Data)
    return a, nil
}

// Sweep removes expired artifacts and returns how many were dropped.
func (s *MemoryStore) Sweep() int {
    now := s.now()
    s.mu.Lock()
    removed := 0
    for id, a := range s.items {
        if !now.Before(a.ExpiresAt) {
            delete(s.items, id)
            removed++
        }
    }
    n := len(s.items)
    s.mu.Unlock()
    metrics.SetArtifacts(n)
    return removed
}

func (s *MemoryStore) janitor(every time.Duration) {
    defer close(s.done)
    ticker := time.NewTicker(every)
    defer ticker.Stop()
    for {
        select {
        case <-s.stop:
            return
        case <-ticker.C:
            if n := s.Sweep(); n > 0 {
                log.Debug().Int("removed", n).Msg("expired artifacts swept")
            }
        }
    }
}

func (s *MemoryStore) Close() error {
    close(s.stop)
    <-s.done
    return nil
}
