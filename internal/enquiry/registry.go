package enquiry

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/ilift/ilift-backend/pkg/metrics"
)

// Session bundles everything one visitor interacts with.
type Session struct {
	VisitorID string
	Store     *Store
	Flow      *Flow
	Indicator *Indicator
}

// SessionFactory builds a session, rehydrating the store from durable storage.
type SessionFactory func(ctx context.Context, visitorID string) *Session

type pinnedSession struct {
	session *Session
	refs    int
}

// Registry caches visitor sessions in process. Eviction only drops the
// in-memory instance; the collection survives in durable storage. A session
// is pinned from Acquire until its release func runs, and a pinned session is
// never evicted, so one visitor never has two live stores.
type Registry struct {
	factory SessionFactory
	metrics *metrics.EnquiryMetrics

	mu     sync.Mutex
	cache  *lru.Cache
	pinned map[string]*pinnedSession
}

func NewRegistry(size int, factory SessionFactory, m *metrics.EnquiryMetrics) (*Registry, error) {
	if factory == nil {
		return nil, fmt.Errorf("session factory is required")
	}
	if size <= 0 {
		size = 1024
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("creating session cache: %w", err)
	}
	return &Registry{
		factory: factory,
		metrics: m,
		cache:   cache,
		pinned:  map[string]*pinnedSession{},
	}, nil
}

// Acquire returns the visitor's session, building it on a cache miss, and
// pins it until release is called. Callers must not touch the session after
// release.
func (r *Registry) Acquire(ctx context.Context, visitorID string) (*Session, func(), error) {
	if visitorID == "" {
		return nil, nil, fmt.Errorf("visitor id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pinned[visitorID]
	if !ok {
		session, err := r.lookupLocked(ctx, visitorID)
		if err != nil {
			return nil, nil, err
		}
		p = &pinnedSession{session: session}
		r.pinned[visitorID] = p
	}
	p.refs++

	var once sync.Once
	release := func() {
		once.Do(func() { r.release(visitorID, p) })
	}
	return p.session, release, nil
}

func (r *Registry) lookupLocked(ctx context.Context, visitorID string) (*Session, error) {
	if v, ok := r.cache.Get(visitorID); ok {
		return v.(*Session), nil
	}
	session := r.factory(ctx, visitorID)
	if session == nil {
		return nil, fmt.Errorf("session factory returned nil for %s", visitorID)
	}
	r.cache.Add(visitorID, session)
	r.metrics.SetSessions(r.cache.Len())
	return session, nil
}

func (r *Registry) release(visitorID string, p *pinnedSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.refs--
	if p.refs > 0 {
		return
	}
	delete(r.pinned, visitorID)
	// the cache may have evicted the entry while it was pinned
	r.cache.Add(visitorID, p.session)
	r.metrics.SetSessions(r.cache.Len())
}

// Len reports cached plus pinned-only sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.cache.Len()
	for id := range r.pinned {
		if !r.cache.Contains(id) {
			n++
		}
	}
	return n
}
