package pagetoll

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryContentStore is a mutex-guarded map keyed by content URL.
//
// Suitable for single-instance deployments; implement ContentStore against
// a shared backend for anything load-balanced.
type InMemoryContentStore struct {
	mu      sync.RWMutex
	records map[string]ContentRecord
}

func NewInMemoryContentStore() *InMemoryContentStore {
	return &InMemoryContentStore{records: make(map[string]ContentRecord)}
}

func (s *InMemoryContentStore) Put(url string, record ContentRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[url] = record
}

func (s *InMemoryContentStore) Get(url string) (ContentRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[url]
	return record, ok
}

// InMemorySessionStore tracks open payment sessions with a TTL.
//
// Tokens are UUIDv4, generated from a cryptographically strong source, so
// collision probability is negligible. Expired sessions behave exactly like
// consumed ones and are cleaned up lazily on writes.
type InMemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]PaymentSession
	expiry   map[string]time.Time
	ttl      time.Duration
}

// DefaultSessionTTL bounds the lifetime of an unconsumed payment session.
const DefaultSessionTTL = 15 * time.Minute

// NewInMemorySessionStore creates a session store. A non-positive ttl
// falls back to DefaultSessionTTL.
func NewInMemorySessionStore(ttl time.Duration) *InMemorySessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &InMemorySessionStore{
		sessions: make(map[string]PaymentSession),
		expiry:   make(map[string]time.Time),
		ttl:      ttl,
	}
}

func (s *InMemorySessionStore) Open(contentURL, priceFIL string) PaymentSession {
	session := PaymentSession{
		Token:      uuid.NewString(),
		ContentURL: contentURL,
		PriceFIL:   priceFIL,
		IssuedAt:   time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.Token] = session
	s.expiry[session.Token] = session.IssuedAt.Add(s.ttl)
	s.cleanupExpiredLocked()

	return session
}

func (s *InMemorySessionStore) Peek(token string) (PaymentSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return PaymentSession{}, false
	}
	if time.Now().After(s.expiry[token]) {
		delete(s.sessions, token)
		delete(s.expiry, token)
		return PaymentSession{}, false
	}
	return session, true
}

// Consume removes and returns the session under a single lock. Exactly one
// caller wins when multiple goroutines race on the same token.
func (s *InMemorySessionStore) Consume(token string) (PaymentSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return PaymentSession{}, false
	}
	expired := time.Now().After(s.expiry[token])
	delete(s.sessions, token)
	delete(s.expiry, token)
	if expired {
		return PaymentSession{}, false
	}
	return session, true
}

// cleanupExpiredLocked removes expired sessions. Must be called with lock held.
func (s *InMemorySessionStore) cleanupExpiredLocked() {
	now := time.Now()
	for token, expiry := range s.expiry {
		if now.After(expiry) {
			delete(s.sessions, token)
			delete(s.expiry, token)
		}
	}
}

// InMemoryCapabilityStore is a mutex-guarded map keyed by capability name.
type InMemoryCapabilityStore struct {
	mu      sync.RWMutex
	records map[string]CapabilityRecord
}

func NewInMemoryCapabilityStore() *InMemoryCapabilityStore {
	return &InMemoryCapabilityStore{records: make(map[string]CapabilityRecord)}
}

func (s *InMemoryCapabilityStore) Register(record CapabilityRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.Name] = record
}

// List returns a snapshot of {name, description} pairs. Iteration order is
// unspecified; callers must not depend on it.
func (s *InMemoryCapabilityStore) List() []CapabilitySummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]CapabilitySummary, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, CapabilitySummary{
			Name:        record.Name,
			Description: record.Description,
		})
	}
	return out
}

func (s *InMemoryCapabilityStore) Lookup(name string) (CapabilityRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[name]
	return record, ok
}

var (
	_ ContentStore    = (*InMemoryContentStore)(nil)
	_ SessionStore    = (*InMemorySessionStore)(nil)
	_ CapabilityStore = (*InMemoryCapabilityStore)(nil)
)
