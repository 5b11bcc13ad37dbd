package artifact

import (
    "context"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestMemoryStore_PutGet(t *testing.T) {
    s := NewMemoryStore(time.Minute, time.Hour)
    defer s.Close()
    ctx := context.Background()

    data := []byte("%PDF-1.7 fake")
    a, err := s.Put(ctx, Artifact{Name: "split.pdf", Kind: "split", PageCount: 2, Data: data})
    require.NoError(t, err)
    assert.True(t, ValidID(a.ID))
    assert.Equal(t, len(data), a.Size)
    assert.Equal(t, a.CreatedAt.Add(time.Minute), a.ExpiresAt)

    data[0] = 'X'
    got, err := s.Get(ctx, a.ID)
    require.NoError(t, err)
    assert.Equal(t, "split.pdf", got.Name)
    assert.Equal(t, "%PDF-1.7 fake", string(got.Data))
    assert.Equal(t, 2, got.PageCount)
}

func TestMemoryStore_Expiry(t *testing.T) {
    s := NewMemoryStore(time.Minute, time.Hour)
    defer s.Close()
    now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
    s.now = func() time.Time { return now }
    ctx := context.Background()

    a, err := s.Put(ctx, Artifact{Name: "merged.pdf", Data: []byte("x")})
    require.NoError(t, err)

    now = now.Add(59 * time.Second)
    _, err = s.Get(ctx, a.ID)
    require.NoError(t, err)

    now = now.Add(time.Second)
    _, err = s.Get(ctx, a.ID)
    assert.ErrorIs(t, err, ErrNotFound)

    assert.Equal(t, 1, s.Sweep())
    assert.Equal(t, 0, s.Sweep())
}

func TestMemoryStore_Unknown(t *testing.T) {
    s := NewMemoryStore(0, 0)
    defer s.Close()
    _, err := s.Get(context.Background(), "nope")
    assert.ErrorIs(t, err, ErrNotFound)
    assert.False(t, ValidID("nope"))
}
