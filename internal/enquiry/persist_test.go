package enquiry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilift/ilift-backend/pkg/redis"
)

type fakeCartStore struct {
	mu      sync.Mutex
	values  map[string]string
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	setHits int
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeCartStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.values[key]
	if !ok {
		return "", redis.ErrNil
	}
	return v, nil
}

func (f *fakeCartStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setHits++
	if f.setErr != nil {
		return f.setErr
	}
	f.values[key] = value.(string)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeCartStore) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

func (f *fakeCartStore) EnquiryCartKey(visitorID string) string {
	return "test:enquiry-cart:" + visitorID
}

func (f *fakeCartStore) raw(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[key]
}

func TestEncodeStateLayout(t *testing.T) {
	raw, err := EncodeState([]Item{itemB()})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"state": {"items": [{
			"_id": "B",
			"name": "Stacker S1",
			"slug": "stacker-s1",
			"imageUrl": "/b.png",
			"category": "stacker",
			"price": 125000.5
		}]},
		"version": 0
	}`, raw)

	empty, err := EncodeState(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":{"items":[]},"version":0}`, empty)
}

func TestDecodeStateRoundTrip(t *testing.T) {
	raw, err := EncodeState([]Item{itemA(), itemB()})
	require.NoError(t, err)

	items, err := DecodeState(raw)
	require.NoError(t, err)
	if diff := cmp.Diff([]Item{itemA(), itemB()}, items, itemOpts); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeStateRejectsBadRecords(t *testing.T) {
	items, err := DecodeState("   ")
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = DecodeState(`{"state":{"items":[]},"version":3}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version 3")

	_, err = DecodeState(`{"state":`)
	require.Error(t, err)
}

func TestRedisPersister(t *testing.T) {
	ctx := context.Background()
	store := newFakeCartStore()
	p := NewRedisPersister(store, "visitor-9", 48*time.Hour)

	items, err := p.Load(ctx)
	require.NoError(t, err, "missing key is an empty collection")
	assert.Empty(t, items)

	require.NoError(t, p.Save(ctx, []Item{itemA()}))
	assert.Equal(t, 48*time.Hour, store.ttls["test:enquiry-cart:visitor-9"])
	assert.Contains(t, store.raw("test:enquiry-cart:visitor-9"), `"_id":"A"`)

	items, err = p.Load(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff([]Item{itemA()}, items, itemOpts); diff != "" {
		t.Fatalf("load mismatch (-want +got):\n%s", diff)
	}

	store.setErr = errors.New("READONLY")
	err = p.Save(ctx, []Item{itemA(), itemB()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save enquiry cart")

	store.getErr = errors.New("connection refused")
	_, err = p.Load(ctx)
	require.Error(t, err)
}

func TestStoreOnRedisPersisterRehydrates(t *testing.T) {
	ctx := context.Background()
	cart := newFakeCartStore()

	first := newTestStore(t, NewRedisPersister(cart, "visitor-1", time.Hour))
	first.AddItem(ctx, itemA())
	first.AddItem(ctx, itemB())
	first.RemoveItem(ctx, "A")

	second := newTestStore(t, NewRedisPersister(cart, "visitor-1", time.Hour))
	if diff := cmp.Diff([]Item{itemB()}, second.Items(), itemOpts); diff != "" {
		t.Fatalf("rehydrated items mismatch (-want +got):\n%s", diff)
	}

	other := newTestStore(t, NewRedisPersister(cart, "visitor-2", time.Hour))
	assert.Empty(t, other.Items())
}
