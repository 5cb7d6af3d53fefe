package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	goredislib "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/klotz/summarizer-service/internal/session"
)

const (
	keyPrefix  = "summarizer:session:"
	lockPrefix = "summarizer:session-lock:"
)

// RedisStore keeps each session as a JSON value and serializes updates for
// one id with a redsync mutex.
type RedisStore struct {
	client  goredislib.UniversalClient
	rs      *redsync.Redsync
	ttl     time.Duration
	lockTTL time.Duration
	log     zerolog.Logger
}

var parseURL = goredislib.ParseURL

func New(ctx context.Context, redisURL string, ttl time.Duration, lockTTL time.Duration, log zerolog.Logger) (*RedisStore, error) {
	if redisURL == "" {
		return nil, errors.New("redis URL must be provided")
	}
	opts, err := parseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := goredislib.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewWithClient(client, ttl, lockTTL, log), nil
}

func NewWithClient(client goredislib.UniversalClient, ttl time.Duration, lockTTL time.Duration, log zerolog.Logger) *RedisStore {
	if lockTTL <= 0 {
		lockTTL = 10 * time.Second
	}
	return &RedisStore{
		client:  client,
		rs:      redsync.New(goredis.NewPool(client)),
		ttl:     ttl,
		lockTTL: lockTTL,
		log:     log,
	}
}

func sessionKey(id string) string {
	return keyPrefix + id
}

func lockName(id string) string {
	return lockPrefix + id
}

func (r *RedisStore) Load(ctx context.Context, id string) (session.Session, error) {
	raw, err := r.client.Get(ctx, sessionKey(id)).Result()
	if errors.Is(err, goredislib.Nil) {
		return session.Session{}, nil
	}
	if err != nil {
		return session.Session{}, fmt.Errorf("failed to get session: %w", err)
	}
	return decode(raw)
}

func (r *RedisStore) Update(ctx context.Context, id string, fn func(*session.Session) error) (session.Session, error) {
	mutex := r.rs.NewMutex(lockName(id), redsync.WithExpiry(r.lockTTL))
	if err := mutex.LockContext(ctx); err != nil {
		return session.Session{}, fmt.Errorf("failed to lock session: %w", err)
	}
	defer func() {
		if _, err := mutex.UnlockContext(context.WithoutCancel(ctx)); err != nil {
			r.log.Error().Err(err).Str("session_id", id).Msg("failed to unlock session")
		}
	}()

	current, err := r.Load(ctx, id)
	if err != nil {
		return session.Session{}, err
	}
	if err := fn(&current); err != nil {
		return session.Session{}, err
	}
	raw, err := encode(current)
	if err != nil {
		return session.Session{}, err
	}
	if err := r.client.Set(ctx, sessionKey(id), raw, r.ttl).Err(); err != nil {
		return session.Session{}, fmt.Errorf("failed to store session: %w", err)
	}
	return current, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, sessionKey(id)).Err()
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func encode(value session.Session) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decode(raw string) (session.Session, error) {
	var value session.Session
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return session.Session{}, fmt.Errorf("failed to decode session: %w", err)
	}
	return value, nil
}
