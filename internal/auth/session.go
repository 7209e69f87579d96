package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"
)

// SessionStore maps opaque session tokens to usernames. Implementations
// must be safe for concurrent use. Tokens issued by the in-memory store
// are valid only for the lifetime of the process that issued them.
type SessionStore interface {
	Put(token, username string)
	Get(token string) (username string, ok bool)
	Delete(token string)
}

// MemorySessionStore is the default process-memory SessionStore.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]string
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]string)}
}

func (s *MemorySessionStore) Put(token, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = username
}

func (s *MemorySessionStore) Get(token string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	username, ok := s.sessions[token]
	return username, ok
}

func (s *MemorySessionStore) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

type ttlSession struct {
	username  string
	expiresAt time.Time
}

// TTLSessionStore is an in-memory SessionStore whose tokens expire after
// a fixed duration. Expired tokens are evicted on lookup.
type TTLSessionStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]ttlSession
	now      func() time.Time
}

// NewTTLSessionStore creates a session store with the given token lifetime.
func NewTTLSessionStore(ttl time.Duration) *TTLSessionStore {
	return &TTLSessionStore{
		ttl:      ttl,
		sessions: make(map[string]ttlSession),
		now:      time.Now,
	}
}

func (s *TTLSessionStore) Put(token, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = ttlSession{username: username, expiresAt: s.now().Add(s.ttl)}
}

func (s *TTLSessionStore) Get(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[token]
	if !ok {
		return "", false
	}
	if s.now().After(e.expiresAt) {
		delete(s.sessions, token)
		return "", false
	}
	return e.username, true
}

func (s *TTLSessionStore) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// NewSessionToken returns a fresh opaque token: 32 random bytes, URL-safe
// base64 without padding.
func NewSessionToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
