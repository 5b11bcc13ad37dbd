package limiter

import (
    "context"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestAcquire_CountsByKind(t *testing.T) {
    l := New(Options{MaxInflight: 2})
    ctx := context.Background()
    r1, err := l.Acquire(ctx, "split")
    require.NoError(t, err)
    r2, err := l.Acquire(ctx, "merge")
    require.NoError(t, err)

    _, err = l.Acquire(ctx, "split")
    assert.ErrorIs(t, err, ErrBusy)
    assert.Equal(t, map[string]int{"split": 1, "merge": 1}, l.Inflight())

    r1()
    r1()
    r3, err := l.Acquire(ctx, "Split")
    require.NoError(t, err)
    r2()
    r3()
    assert.Empty(t, l.Inflight())
}

func TestAcquire_FailFast(t *testing.T) {
    l := New(Options{MaxInflight: 1})
    release, err := l.Acquire(context.Background(), "split")
    require.NoError(t, err)
    defer release()

    _, err = l.Acquire(context.Background(), "merge")
    assert.ErrorIs(t, err, ErrBusy)
}

func TestAcquire_WaitsForSlot(t *testing.T) {
    l := New(Options{MaxInflight: 1, Wait: time.Second})
    release, err := l.Acquire(context.Background(), "split")
    require.NoError(t, err)

    go func() {
        time.Sleep(20 * time.Millisecond)
        release()
    }()

    r2, err := l.Acquire(context.Background(), "merge")
    require.NoError(t, err)
    r2()
}

func TestAcquire_ContextCancelled(t *testing.T) {
    l := New(Options{MaxInflight: 1, Wait: time.Minute})
    release, _ := l.Acquire(context.Background(), "split")
    defer release()

    ctx, cancel := context.WithCancel(context.Background())
    cancel()
    _, err := l.Acquire(ctx, "merge")
    assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_Defaults(t *testing.T) {
    assert.Equal(t, 4, New(Options{}).Capacity())
}
