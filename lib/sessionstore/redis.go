package sessionstore

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"seatfinder-backend/lib/timezone"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// RedisStore is the shared backend used for multi-process deployments.
// Redis expires keys natively; the sliding window is maintained by
// rewriting the envelope with a fresh TTL on every access. A write that
// fails against redis lands in the in-process fallback for that call, so a
// transient outage degrades to same-process behavior instead of losing the
// search outright.
type RedisStore struct {
	client   *redis.Client
	fallback *MemoryStore
	ttl      time.Duration
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client:   client,
		fallback: NewMemoryStore(ttl),
		ttl:      ttl,
	}
}

// NewRedisClientFromEnv instantiates a redis client from REDIS_ADDR (or
// REDIS_HOST/REDIS_PORT), REDIS_PASSWORD, REDIS_DB and REDIS_TLS. Returns
// nil when no address is configured or the server is unreachable; callers
// should fall back to the in-process store.
func NewRedisClientFromEnv(ctx context.Context) *redis.Client {
	host := os.Getenv("REDIS_HOST")
	port := os.Getenv("REDIS_PORT")
	addr := os.Getenv("REDIS_ADDR")
	if host != "" && port != "" {
		addr = host + ":" + port
	}
	if addr == "" {
		return nil
	}
	pwd := os.Getenv("REDIS_PASSWORD")
	dbNum := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if n, err := strconv.Atoi(dbStr); err == nil {
			dbNum = n
		}
	}
	var tlsConf *tls.Config
	if tlsEnv := os.Getenv("REDIS_TLS"); strings.EqualFold(tlsEnv, "true") || tlsEnv == "1" {
		tlsConf = &tls.Config{InsecureSkipVerify: true}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      addr,
		Password:  pwd,
		DB:        dbNum,
		TLSConfig: tlsConf,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		slog.Warn("redis unreachable, using in-memory sessions", "addr", addr, "err", err)
		return nil
	}
	return client
}

// FromEnv selects the redis backend when one is configured and reachable,
// otherwise the in-process fallback.
func FromEnv(ctx context.Context, ttl time.Duration) Store {
	client := NewRedisClientFromEnv(ctx)
	if client == nil {
		return NewMemoryStore(ttl)
	}
	slog.Info("using redis session store")
	return NewRedisStore(client, ttl)
}

func (s *RedisStore) Create(ctx context.Context, initial Session) (string, error) {
	id, err := newSessionID()
	if err != nil {
		return "", err
	}
	now := timezone.Now()
	env := envelope{
		CreatedAt:    now,
		LastAccessed: now,
		Data:         initial,
	}
	s.store(ctx, id, env)
	return id, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (Session, bool, error) {
	env, ok := s.load(ctx, id)
	if !ok {
		return Session{}, false, nil
	}
	if timezone.Now().Sub(env.LastAccessed) > s.ttl {
		err := s.Delete(ctx, id)
		if err != nil {
			return Session{}, false, err
		}
		return Session{}, false, nil
	}
	env.LastAccessed = timezone.Now()
	s.store(ctx, id, env)
	return env.Data, true, nil
}

func (s *RedisStore) Update(ctx context.Context, id string, partial Update) (bool, error) {
	env, ok := s.load(ctx, id)
	if !ok {
		return false, nil
	}
	env.Data.apply(partial)
	env.LastAccessed = timezone.Now()
	s.store(ctx, id, env)
	return true, nil
}

func (s *RedisStore) Extend(ctx context.Context, id string) (bool, error) {
	env, ok := s.load(ctx, id)
	if !ok {
		return false, nil
	}
	env.LastAccessed = timezone.Now()
	s.store(ctx, id, env)
	return true, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	err := s.client.Del(ctx, keyPrefix+id).Err()
	if err != nil {
		slog.WarnContext(ctx, "redis delete failed", "err", err)
	}
	return s.fallback.Delete(ctx, id)
}

func (s *RedisStore) ClearAll(ctx context.Context) error {
	keys, err := s.client.Keys(ctx, keyPrefix+"*").Result()
	if err != nil {
		slog.WarnContext(ctx, "redis clear failed", "err", err)
	} else if len(keys) > 0 {
		err = s.client.Del(ctx, keys...).Err()
		if err != nil {
			slog.WarnContext(ctx, "redis clear failed", "err", err)
		}
	}
	return s.fallback.ClearAll(ctx)
}

func (s *RedisStore) Count(ctx context.Context) (int, error) {
	keys, err := s.client.Keys(ctx, keyPrefix+"*").Result()
	if err != nil {
		slog.WarnContext(ctx, "redis count failed", "err", err)
		return s.fallback.Count(ctx)
	}
	return len(keys), nil
}

func (s *RedisStore) store(ctx context.Context, id string, env envelope) {
	serialized, err := json.Marshal(env)
	if err != nil {
		// envelope marshaling cannot fail on these field types; guard anyway
		slog.ErrorContext(ctx, "marshal session envelope", "err", err)
		s.fallback.put(id, env)
		return
	}
	err = s.client.Set(ctx, keyPrefix+id, serialized, s.ttl).Err()
	if err != nil {
		slog.WarnContext(ctx, "redis store failed, falling back to memory", "id", id, "err", err)
		s.fallback.put(id, env)
	}
}

func (s *RedisStore) load(ctx context.Context, id string) (envelope, bool) {
	serialized, err := s.client.Get(ctx, keyPrefix+id).Result()
	if err == redis.Nil {
		return s.loadFallback(id)
	}
	if err != nil {
		slog.WarnContext(ctx, "redis get failed, trying memory fallback", "id", id, "err", err)
		return s.loadFallback(id)
	}

	var env envelope
	err = json.Unmarshal([]byte(serialized), &env)
	if err != nil {
		slog.WarnContext(ctx, "corrupt session envelope", "id", id, "err", err)
		return envelope{}, false
	}
	return env, true
}

func (s *RedisStore) loadFallback(id string) (envelope, bool) {
	s.fallback.mu.Lock()
	defer s.fallback.mu.Unlock()
	env, ok := s.fallback.getLocked(id)
	return env, ok
}

func (s *RedisStore) String() string {
	return fmt.Sprintf("redis store (ttl %s)", s.ttl)
}
