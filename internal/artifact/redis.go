package artifact

import (
    "context"
    "errors"
    "fmt"
    "strconv"
    "time"

    redis "github.com/redis/go-redis/v9"
)

// RedisStore keeps artifacts in Redis hashes with a key TTL, so several
// service replicas can serve each other's downloads.
type RedisStore struct {
    client *redis.Client
    keyNS  string
    ttl    time.Duration
}

// NewRedisStore connects to redisURL and verifies the connection.
func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
    opt, err := redis.ParseURL(redisURL)
    if err != nil { return nil, fmt.Errorf("parse redis url: %w", err) }
    c := redis.NewClient(opt)
    ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
    defer cancel()
    if err := c.Ping(ctx).Err(); err != nil {
        _ = c.Close()
        return nil, fmt.Errorf("redis ping: %w", err)
    }
    if ttl <= 0 { ttl = 15 * time.Minute }
    return &RedisStore{client: c, keyNS: "pdfmanager:artifact", ttl: ttl}, nil
}

func (s *RedisStore) key(id string) string { return fmt.Sprintf("%s:%s", s.keyNS, id) }

func (s *RedisStore) Put(ctx context.Context, a Artifact) (Artifact, error) {
    a = prepare(a, s.ttl, time.Now())
    k := s.key(a.ID)
    pipe := s.client.TxPipeline()
    pipe.HSet(ctx, k, map[string]interface{}{
        "name":       a.Name,
        "kind":       a.Kind,
        "page_count": a.PageCount,
        "created":    a.CreatedAt.Format(time.RFC3339Nano),
        "expires":    a.ExpiresAt.Format(time.RFC3339Nano),
        "data":       a.Data,
    })
    pipe.Expire(ctx, k, s.ttl)
    if _, err := pipe.Exec(ctx); err != nil {
        return Artifact{}, fmt.Errorf("store artifact: %w", err)
    }
    return a, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (Artifact, error) {
    res, err := s.client.HGetAll(ctx, s.key(id)).Result()
    if err != nil {
        if errors.Is(err, redis.Nil) { return Artifact{}, ErrNotFound }
        return Artifact{}, fmt.Errorf("load artifact: %w", err)
    }
    if len(res) == 0 { return Artifact{}, ErrNotFound }
    a := Artifact{ID: id, Name: res["name"], Kind: res["kind"], Data: []byte(res["data"])}
    a.Size = len(a.Data)
    if n, err := strconv.Atoi(res["page_count"]); err == nil { a.PageCount = n }
    if t, err := time.Parse(time.RFC3339Nano, res["created"]); err == nil { a.CreatedAt = t }
    if t, err := time.Parse(time.RFC3339Nano, res["expires"]); err == nil { a.ExpiresAt = t }
    return a, nil
}

// Ping checks redis connectivity.
func (s *RedisStore) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

func (s *RedisStore) Close() error { return s.client.Close() }
