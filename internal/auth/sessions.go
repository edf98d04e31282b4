package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionPrefix = "session:v1:"

// SessionStore maps opaque session tokens to account numbers. Sessions are
// server-side state: restarting a store without durability logs everyone out.
type SessionStore interface {
	Put(ctx context.Context, token, accountNumber string) error
	Get(ctx context.Context, token string) (string, error)
}

// RedisSessionStore keeps sessions in Redis with a TTL, surviving API
// restarts and shared across instances.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore builds a Redis-backed session store.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

// Put stores the session with the configured TTL.
func (s *RedisSessionStore) Put(ctx context.Context, token, accountNumber string) error {
	return s.client.Set(ctx, sessionPrefix+token, accountNumber, s.ttl).Err()
}

// Get resolves a token, returning ErrInvalidToken when absent or expired.
func (s *RedisSessionStore) Get(ctx context.Context, token string) (string, error) {
	val, err := s.client.Get(ctx, sessionPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrInvalidToken
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

type memorySession struct {
	accountNumber string
	expiresAt     time.Time
}

// MemorySessionStore is the in-process fallback for dev mode and tests.
type MemorySessionStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]memorySession
}

// NewMemorySessionStore builds an in-process session store.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{ttl: ttl, sessions: make(map[string]memorySession)}
}

// Put stores the session with the configured TTL.
func (s *MemorySessionStore) Put(_ context.Context, token, accountNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = memorySession{accountNumber: accountNumber, expiresAt: time.Now().Add(s.ttl)}
	return nil
}

// Get resolves a token, returning ErrInvalidToken when absent or expired.
func (s *MemorySessionStore) Get(_ context.Context, token string) (string, error) {
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return "", ErrInvalidToken
	}
	if time.Now().After(sess.expiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return "", ErrInvalidToken
	}
	return sess.accountNumber, nil
}
