// Package artifact keeps encoded operation results available for download
// for a limited time.
package artifact

import (
    "context"
    "errors"
    "time"

    "github.com/google/uuid"
)

// ErrNotFound is returned for unknown or expired artifact IDs.
var ErrNotFound = errors.New("artifact not found")

// Artifact is one downloadable result.
type Artifact struct {
    ID        string    `json:"id"`
    Name      string    `json:"name"`
    Kind      string    `json:"kind"`
    PageCount int       `json:"page_count"`
    Size      int       `json:"size"`
    CreatedAt time.Time `json:"created_at"`
    ExpiresAt time.Time `json:"expires_at"`
    Data      []byte    `json:"-"`
}

// Store holds artifacts by ID.
type Store interface {
    Put(ctx context.Context, a Artifact) (Artifact, error)
    Get(ctx context.Context, id string) (Artifact, error)
    Close() error
}

// prepare assigns ID, timestamps and size before a Put.
func prepare(a Artifact, ttl time.Duration, now time.Time) Artifact {
    if a.ID == "" { a.ID = uuid.NewString() }
    a.CreatedAt = now
    a.ExpiresAt = now.Add(ttl)
    a.Size = len(a.Data)
    return a
}

// ValidID reports whether id looks like an ID issued by prepare.
func ValidID(id string) bool {
    _, err := uuid.Parse(id)
    return err == nil
}
