package statuscheck

import (
    "context"
    "errors"
    "time"
)

// Pinger models the minimal Redis capability we need for status checks.
type Pinger interface {
    Ping(ctx context.Context) error
}

// BucketChecker is satisfied by the S3 export client.
type BucketChecker interface {
    HeadBucket(ctx context.Context) error
}

// Checker aggregates health checks for the collaborators used by the dashboard.
type Checker struct {
    redis Pinger
    s3    BucketChecker
    mupdf func() error
    load  func() (inflight, capacity int)
}

// Options configures the Checker. Nil fields report "not configured".
type Options struct {
    Redis   Pinger
    S3      BucketChecker
    MuPDF   func() error
    Limiter func() (inflight, capacity int)
}

// Status represents the readiness of a subsystem.
type Status struct {
    OK      bool   `json:"ok"`
    Message string `json:"message"`
}

// Summary bundles all subsystem statuses for the dashboard.
type Summary struct {
    Redis    Status `json:"redis"`
    S3       Status `json:"s3"`
    MuPDF    Status `json:"mupdf"`
    Inflight int    `json:"inflight"`
    Capacity int    `json:"capacity"`
}

// New creates a new Checker with the provided options.
func New(opts Options) *Checker {
    return &Checker{
        redis: opts.Redis,
        s3:    opts.S3,
        mupdf: opts.MuPDF,
        load:  opts.Limiter,
    }
}

// Summary returns the current status snapshot.
func (c *Checker) Summary(ctx context.Context) Summary {
    s := Summary{
        Redis: c.checkRedis(ctx),
        S3:    c.checkS3(ctx),
        MuPDF: c.checkMuPDF(),
    }
    if c.load != nil {
        s.Inflight, s.Capacity = c.load()
    }
    return s
}

func (c *Checker) checkRedis(ctx context.Context) Status {
    if c.redis == nil {
        return Status{OK: false, Message: "Not configured"}
    }
    ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
    defer cancel()
    if err := c.redis.Ping(ctx); err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    return Status{OK: true, Message: "Connected"}
}

func (c *Checker) checkS3(ctx context.Context) Status {
    if c.s3 == nil {
        return Status{OK: false, Message: "Bucket not configured"}
    }
    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    if err := c.s3.HeadBucket(ctx); err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    return Status{OK: true, Message: "Connected"}
}

func (c *Checker) checkMuPDF() Status {
    if c.mupdf == nil {
        return Status{OK: false, Message: "Not configured"}
    }
    if err := c.mupdf(); err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    return Status{OK: true, Message: "Available"}
}

func trimError(err error) string {
    if err == nil {
        return ""
    }
    var netErr interface{ Timeout() bool }
    if errors.As(err, &netErr) && netErr.Timeout() {
        return "timeout"
    }
    if errors.Is(err, context.DeadlineExceeded) {
        return "timeout"
    }
    msg := err.Error()
    if len(msg) > 120 {
        return msg[:120]
    }
    return msg
}
