// Package limiter bounds how many PDF operations run at once in the process.
package limiter

import (
    "context"
    "errors"
    "strings"
    "sync"
    "time"

    "github.com/local/pdfmanager/internal/metrics"
)

// ErrBusy is returned when every slot is taken and the wait budget ran out.
var ErrBusy = errors.New("server busy, try again shortly")

type Limiter struct {
    maxInflight int
    wait        time.Duration
    sem         chan struct{}
    mu          sync.Mutex
    byKind      map[string]int
}

type Options struct {
    MaxInflight int
    // Wait is how long Acquire queues for a slot before giving up. Zero
    // means fail fast.
    Wait time.Duration
}

func New(opts Options) *Limiter {
    if opts.MaxInflight <= 0 { opts.MaxInflight = 4 }
    if opts.Wait < 0 { opts.Wait = 0 }
    return &Limiter{
        maxInflight: opts.MaxInflight,
        wait:        opts.Wait,
        sem:         make(chan struct{}, opts.MaxInflight),
        byKind:      map[string]int{},
    }
}

// Acquire reserves a slot, waiting up to the configured budget or until ctx
// is done.
func (l *Limiter) Acquire(ctx context.Context, kind string) (func(), error) {
    if release, ok := l.tryAcquire(kind); ok {
        return release, nil
    }
    if l.wait == 0 {
        metrics.IncLimiterReject()
        return nil, ErrBusy
    }
    timer := time.NewTimer(l.wait)
    defer timer.Stop()
    select {
    case l.sem <- struct{}{}:
        return l.track(kind), nil
    case <-timer.C:
        metrics.IncLimiterReject()
        return nil, ErrBusy
    case <-ctx.Done():
        return nil, ctx.Err()
    }
}

func (l *Limiter) tryAcquire(kind string) (func(), bool) {
    select {
    case l.sem <- struct{}{}:
        return l.track(kind), true
    default:
        return nil, false
    }
}

func (l *Limiter) track(kind string) func() {
    kind = strings.ToLower(kind)
    l.mu.Lock()
    l.byKind[kind]++
    l.mu.Unlock()
    var once sync.Once
    return func() {
        once.Do(func() {
            l.mu.Lock()
            l.byKind[kind]--
            if l.byKind[kind] <= 0 { delete(l.byKind, kind) }
            l.mu.Unlock()
            <-l.sem
        })
    }
}

// Inflight returns the number of running operations per kind.
func (l *Limiter) Inflight() map[string]int {
    l.mu.Lock()
    defer l.mu.Unlock()
    out := make(map[string]int, len(l.byKind))
    for k, v := range l.byKind { out[k] = v }
    return out
}

func (l *Limiter) Capacity() int { return l.maxInflight }
