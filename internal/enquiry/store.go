package enquiry

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ilift/ilift-backend/pkg/logger"
	"github.com/ilift/ilift-backend/pkg/metrics"
)

// storageTimeout bounds a durable read or write. Storage calls are detached
// from the caller's cancellation so an aborted request still lands its write.
const storageTimeout = 5 * time.Second

// Persister is the durable record behind one visitor's collection.
type Persister interface {
	Load(ctx context.Context) ([]Item, error)
	Save(ctx context.Context, items []Item) error
}

// Observer receives every snapshot produced by a mutation, in mutation order.
// Observers run on the mutating goroutine and must not mutate the store.
type Observer func(Snapshot)

type StoreParams struct {
	VisitorID string
	Persister Persister
	Logger    *logger.Logger
	Metrics   *metrics.EnquiryMetrics
}

// Store is the single source of truth for one visitor's enquiry list.
type Store struct {
	visitorID string
	persister Persister
	logg      *logger.Logger
	metrics   *metrics.EnquiryMetrics

	mu        sync.Mutex
	items     []Item
	open      bool
	persisted bool
	version   uint64

	// dispatchMu is taken before mu is released so observers receive
	// snapshots in the same order the mutations were applied.
	dispatchMu sync.Mutex

	subsMu    sync.RWMutex
	observers map[uint64]Observer
	nextSub   uint64
}

// NewStore builds a store and rehydrates it from the persister. A failed load
// starts the visitor with an empty collection.
func NewStore(ctx context.Context, params StoreParams) *Store {
	s := &Store{
		visitorID: params.VisitorID,
		persister: params.Persister,
		logg:      params.Logger,
		metrics:   params.Metrics,
		persisted: true,
		observers: map[uint64]Observer{},
	}
	if s.persister == nil {
		s.persister = NewMemoryPersister()
	}
	if s.logg == nil {
		s.logg = logger.Nop()
	}

	loadCtx, cancel := storageContext(ctx)
	items, err := s.persister.Load(loadCtx)
	cancel()
	if err != nil {
		logCtx := s.logg.WithVisitorID(ctx, s.visitorID)
		logCtx = s.logg.WithField(logCtx, "error", err.Error())
		s.logg.Warn(logCtx, "enquiry.load_failed")
		items = nil
	}
	s.items = dedupe(items)
	return s
}

// VisitorID returns the owner of the store.
func (s *Store) VisitorID() string {
	return s.visitorID
}

// AddItem appends the item when its id is not already present and always
// opens the drawer. An item without an id is ignored.
func (s *Store) AddItem(ctx context.Context, item Item) Snapshot {
	item.ID = strings.TrimSpace(item.ID)
	if item.ID == "" {
		return s.Snapshot()
	}

	s.mu.Lock()
	if indexOf(s.items, item.ID) < 0 {
		s.items = append(s.items, cloneItem(item))
		s.persistLocked(ctx)
	}
	s.open = true
	snap := s.commitLocked(OpAdd)
	s.publishAndUnlock(snap)
	return snap
}

// AddOrToggle adds the item when it is absent and toggles the drawer when it
// is already a member. The membership check and the mutation happen under one
// lock, so a concurrent remove cannot turn an add into a toggle.
func (s *Store) AddOrToggle(ctx context.Context, item Item) (Snapshot, bool) {
	item.ID = strings.TrimSpace(item.ID)
	if item.ID == "" {
		return s.Snapshot(), false
	}

	s.mu.Lock()
	if indexOf(s.items, item.ID) >= 0 {
		s.open = !s.open
		snap := s.commitLocked(OpToggle)
		s.publishAndUnlock(snap)
		return snap, false
	}
	s.items = append(s.items, cloneItem(item))
	s.persistLocked(ctx)
	s.open = true
	snap := s.commitLocked(OpAdd)
	s.publishAndUnlock(snap)
	return snap, true
}

// RemoveItem drops the matching item. Removing an absent id changes nothing
// and notifies nobody.
func (s *Store) RemoveItem(ctx context.Context, id string) Snapshot {
	id = strings.TrimSpace(id)

	s.mu.Lock()
	idx := indexOf(s.items, id)
	if idx < 0 {
		snap := s.snapshotLocked(OpRemove)
		s.mu.Unlock()
		return snap
	}
	next := make([]Item, 0, len(s.items)-1)
	next = append(next, s.items[:idx]...)
	next = append(next, s.items[idx+1:]...)
	s.items = next
	s.persistLocked(ctx)
	snap := s.commitLocked(OpRemove)
	s.publishAndUnlock(snap)
	return snap
}

// Clear empties the collection unconditionally.
func (s *Store) Clear(ctx context.Context) Snapshot {
	s.mu.Lock()
	s.items = nil
	s.persistLocked(ctx)
	snap := s.commitLocked(OpClear)
	s.publishAndUnlock(snap)
	return snap
}

// Toggle flips the drawer visibility. Visibility is never persisted.
func (s *Store) Toggle(ctx context.Context) Snapshot {
	s.mu.Lock()
	s.open = !s.open
	snap := s.commitLocked(OpToggle)
	s.publishAndUnlock(snap)
	return snap
}

// Close forces the drawer shut.
func (s *Store) Close(ctx context.Context) Snapshot {
	s.mu.Lock()
	s.open = false
	snap := s.commitLocked(OpClose)
	s.publishAndUnlock(snap)
	return snap
}

// Contains is the membership query used by per-product controls.
func (s *Store) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return indexOf(s.items, strings.TrimSpace(id)) >= 0
}

func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

func (s *Store) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Snapshot returns the current state without producing a new version.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(OpLoad)
}

// Subscribe registers an observer and returns its cancel func.
func (s *Store) Subscribe(fn Observer) func() {
	if fn == nil {
		return func() {}
	}
	s.subsMu.Lock()
	s.nextSub++
	id := s.nextSub
	s.observers[id] = fn
	s.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.observers, id)
			s.subsMu.Unlock()
		})
	}
}

// Watch registers an observer and returns the snapshot it starts from.
// Events with a Version at or below the returned snapshot may still be
// delivered once and can be skipped by the caller.
func (s *Store) Watch(fn Observer) (Snapshot, func()) {
	s.mu.Lock()
	snap := s.snapshotLocked(OpLoad)
	cancel := s.Subscribe(fn)
	s.mu.Unlock()
	return snap, cancel
}

// Observers returns the number of registered observers.
func (s *Store) Observers() int {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	return len(s.observers)
}

func (s *Store) persistLocked(ctx context.Context) {
	saveCtx, cancel := storageContext(ctx)
	defer cancel()
	if err := s.persister.Save(saveCtx, cloneItems(s.items)); err != nil {
		s.persisted = false
		s.metrics.IncPersistFailure()
		logCtx := s.logg.WithVisitorID(ctx, s.visitorID)
		logCtx = s.logg.WithFields(logCtx, map[string]any{
			"error":      err.Error(),
			"item_count": len(s.items),
		})
		s.logg.Warn(logCtx, "enquiry.persist_failed")
		return
	}
	s.persisted = true
}

func (s *Store) commitLocked(op Op) Snapshot {
	s.version++
	s.metrics.IncMutation(string(op))
	return s.snapshotLocked(op)
}

func (s *Store) snapshotLocked(op Op) Snapshot {
	return Snapshot{
		Items:     cloneItems(s.items),
		Count:     len(s.items),
		Open:      s.open,
		Persisted: s.persisted,
		Op:        op,
		Version:   s.version,
	}
}

// publishAndUnlock hands the snapshot to the dispatch lock before releasing
// the state lock, then notifies observers.
func (s *Store) publishAndUnlock(snap Snapshot) {
	s.dispatchMu.Lock()
	s.mu.Unlock()
	defer s.dispatchMu.Unlock()

	s.subsMu.RLock()
	observers := make([]Observer, 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.subsMu.RUnlock()

	for _, fn := range observers {
		fn(snap)
	}
}

func storageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), storageTimeout)
}

func dedupe(items []Item) []Item {
	if len(items) == 0 {
		return nil
	}
	out := make([]Item, 0, len(items))
	for _, item := range items {
		item.ID = strings.TrimSpace(item.ID)
		if item.ID == "" || indexOf(out, item.ID) >= 0 {
			continue
		}
		out = append(out, cloneItem(item))
	}
	return out
}
