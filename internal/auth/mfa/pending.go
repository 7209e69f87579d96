package mfa

import (
	"sync"
	"time"
)

// DefaultPendingTTL bounds how long a provisioned-but-unconfirmed secret
// stays resident. Abandoned provisioning flows are evicted on access and
// by the cleanup service.
const DefaultPendingTTL = 10 * time.Minute

type pendingEntry struct {
	secret    string
	expiresAt time.Time
}

// PendingSecrets holds TOTP secrets that were provisioned but not yet
// confirmed, keyed by username. Entries expire after the TTL.
type PendingSecrets struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]pendingEntry
	now     func() time.Time
}

// NewPendingSecrets creates a pending-secret cache with the given TTL.
// A ttl <= 0 falls back to DefaultPendingTTL.
func NewPendingSecrets(ttl time.Duration) *PendingSecrets {
	if ttl <= 0 {
		ttl = DefaultPendingTTL
	}
	return &PendingSecrets{
		ttl:     ttl,
		entries: make(map[string]pendingEntry),
		now:     time.Now,
	}
}

// Put stores or replaces the pending secret for the username.
func (p *PendingSecrets) Put(username, secret string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[username] = pendingEntry{secret: secret, expiresAt: p.now().Add(p.ttl)}
}

// Get returns the pending secret for the username. Expired entries are
// evicted and reported as absent.
func (p *PendingSecrets) Get(username string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[username]
	if !ok {
		return "", false
	}
	if p.now().After(e.expiresAt) {
		delete(p.entries, username)
		return "", false
	}
	return e.secret, true
}

// Delete removes the pending secret for the username, if any.
func (p *PendingSecrets) Delete(username string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, username)
}

// Len reports how many entries are resident, expired or not.
func (p *PendingSecrets) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Evict removes all expired entries and returns how many were dropped.
func (p *PendingSecrets) Evict() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	dropped := 0
	for username, e := range p.entries {
		if now.After(e.expiresAt) {
			delete(p.entries, username)
			dropped++
		}
	}
	return dropped
}
