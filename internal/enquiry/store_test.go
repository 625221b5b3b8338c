package enquiry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilift/ilift-backend/pkg/metrics"
)

func newTestStore(t *testing.T, p Persister) *Store {
	t.Helper()
	return NewStore(context.Background(), StoreParams{VisitorID: "visitor-1", Persister: p})
}

func TestAddItemKeepsIdentifiersUnique(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, NewMemoryPersister())

	snap := store.AddItem(ctx, itemA())
	require.True(t, snap.Open)
	require.Equal(t, 1, snap.Count)

	before := store.Items()
	again := store.AddItem(ctx, itemA())
	require.True(t, again.Open)
	if diff := cmp.Diff(before, again.Items, itemOpts); diff != "" {
		t.Fatalf("duplicate add changed the collection (-want +got):\n%s", diff)
	}

	changed := itemA()
	changed.Name = "Renamed"
	store.AddItem(ctx, changed)
	store.AddItem(ctx, itemB())

	want := []Item{itemA(), itemB()}
	if diff := cmp.Diff(want, store.Items(), itemOpts); diff != "" {
		t.Fatalf("unexpected items (-want +got):\n%s", diff)
	}
}

func TestAddItemAlwaysOpensDrawer(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, NewMemoryPersister())

	store.AddItem(ctx, itemA())
	require.False(t, store.Toggle(ctx).Open)

	snap := store.AddItem(ctx, itemA())
	assert.True(t, snap.Open)
	assert.Equal(t, 1, snap.Count)
}

func TestAddItemIgnoresMissingIdentifier(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, NewMemoryPersister())

	snap := store.AddItem(ctx, Item{ID: "  ", Name: "nameless"})
	assert.Equal(t, 0, snap.Count)
	assert.False(t, snap.Open)
	assert.Equal(t, uint64(0), snap.Version)
}

func TestRemoveItem(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, NewMemoryPersister())
	c := itemB()
	c.ID, c.Slug = "C", "crane-c"
	store.AddItem(ctx, itemA())
	store.AddItem(ctx, itemB())
	store.AddItem(ctx, c)

	snap := store.RemoveItem(ctx, "B")
	if diff := cmp.Diff([]Item{itemA(), c}, snap.Items, itemOpts); diff != "" {
		t.Fatalf("unexpected items after remove (-want +got):\n%s", diff)
	}

	rec := &recorder{}
	cancel := store.Subscribe(rec.observe)
	defer cancel()

	versionBefore := store.Snapshot().Version
	absent := store.RemoveItem(ctx, "missing")
	assert.Equal(t, versionBefore, absent.Version)
	assert.Empty(t, rec.all(), "absent remove must not notify")
	if diff := cmp.Diff([]Item{itemA(), c}, store.Items(), itemOpts); diff != "" {
		t.Fatalf("absent remove changed items (-want +got):\n%s", diff)
	}
}

func TestClearSurvivesReload(t *testing.T) {
	ctx := context.Background()
	persister := NewMemoryPersister()
	store := newTestStore(t, persister)
	store.AddItem(ctx, itemB())

	snap := store.Clear(ctx)
	assert.Equal(t, 0, snap.Count)
	assert.True(t, snap.Persisted)

	reloaded := newTestStore(t, persister)
	assert.Empty(t, reloaded.Items())
}

func TestReloadRestoresItemsButNotVisibility(t *testing.T) {
	ctx := context.Background()
	persister := NewMemoryPersister()
	store := newTestStore(t, persister)
	store.AddItem(ctx, itemA())
	store.AddItem(ctx, itemB())
	require.True(t, store.IsOpen())

	reloaded := newTestStore(t, persister)
	assert.False(t, reloaded.IsOpen())
	if diff := cmp.Diff([]Item{itemA(), itemB()}, reloaded.Items(), itemOpts); diff != "" {
		t.Fatalf("reload mismatch (-want +got):\n%s", diff)
	}
}

func TestToggleTwiceRestoresFlag(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, NewMemoryPersister())

	initial := store.IsOpen()
	store.Toggle(ctx)
	store.Toggle(ctx)
	assert.Equal(t, initial, store.IsOpen())

	store.AddItem(ctx, itemA())
	store.Toggle(ctx)
	store.Toggle(ctx)
	assert.True(t, store.IsOpen())
}

func TestPersistFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	persister := NewMemoryPersister()
	store := NewStore(ctx, StoreParams{
		VisitorID: "visitor-1",
		Persister: persister,
		Metrics:   metrics.NewEnquiryMetrics(reg),
	})

	persister.FailWith(errors.New("quota exceeded"))
	snap := store.AddItem(ctx, itemA())
	assert.False(t, snap.Persisted)
	assert.True(t, store.Contains("A"))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	var failures float64
	for _, mf := range mfs {
		if mf.GetName() == "enquiry_cart_persist_failures_total" {
			failures = mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(1), failures)

	reloaded := newTestStore(t, persister)
	assert.Empty(t, reloaded.Items(), "failed write must not reach durable storage")

	persister.FailWith(nil)
	snap = store.AddItem(ctx, itemB())
	assert.True(t, snap.Persisted)
	assert.Len(t, newTestStore(t, persister).Items(), 2)
}

func TestLoadFailureStartsEmpty(t *testing.T) {
	store := newTestStore(t, &failingLoader{})
	assert.Empty(t, store.Items())
	assert.False(t, store.IsOpen())
}

func TestObserversReceiveSnapshotsInMutationOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, NewMemoryPersister())
	rec := &recorder{}
	cancel := store.Subscribe(rec.observe)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store.AddItem(ctx, Item{ID: fmt.Sprintf("P%02d", i), Name: "item"})
			if i%4 == 0 {
				store.Toggle(ctx)
			}
		}(i)
	}
	wg.Wait()

	snaps := rec.all()
	require.Len(t, snaps, 25)
	for i := 1; i < len(snaps); i++ {
		require.Greater(t, snaps[i].Version, snaps[i-1].Version, "snapshots out of order at %d", i)
		require.GreaterOrEqual(t, snaps[i].Count, snaps[i-1].Count)
		require.Equal(t, snaps[i].Count, len(snaps[i].Items))
	}
	assert.Equal(t, 20, store.Len())
}

func TestObserverReadsSeeCommittedState(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, NewMemoryPersister())
	var seen []bool
	cancel := store.Subscribe(func(s Snapshot) {
		seen = append(seen, store.Contains("A") == s.Contains("A"))
	})

	store.AddItem(ctx, itemA())
	store.RemoveItem(ctx, "A")
	cancel()
	store.AddItem(ctx, itemB())

	assert.Equal(t, []bool{true, true}, seen)
	assert.Equal(t, 0, store.Observers())
}

func TestWatchStartsFromCurrentSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, NewMemoryPersister())
	store.AddItem(ctx, itemA())

	rec := &recorder{}
	start, cancel := store.Watch(rec.observe)
	defer cancel()
	assert.Equal(t, 1, start.Count)

	store.AddItem(ctx, itemB())
	snaps := rec.all()
	require.Len(t, snaps, 1)
	assert.Greater(t, snaps[0].Version, start.Version)
	assert.Equal(t, OpAdd, snaps[0].Op)
}

func TestLoadDropsDuplicateRecords(t *testing.T) {
	persister := NewMemoryPersister()
	require.NoError(t, persister.Save(context.Background(), []Item{itemA(), itemA(), {ID: ""}, itemB()}))

	store := newTestStore(t, persister)
	if diff := cmp.Diff([]Item{itemA(), itemB()}, store.Items(), itemOpts); diff != "" {
		t.Fatalf("unexpected items (-want +got):\n%s", diff)
	}
}

func TestMutationsPersistAfterRequestCancel(t *testing.T) {
	persister := contextPersister{NewMemoryPersister()}
	store := newTestStore(t, persister)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	snap := store.AddItem(ctx, itemA())
	assert.True(t, snap.Persisted)
	store.AddItem(ctx, itemB())
	store.RemoveItem(ctx, "B")

	reloaded := NewStore(ctx, StoreParams{VisitorID: "visitor-1", Persister: persister})
	if diff := cmp.Diff([]Item{itemA()}, reloaded.Items(), itemOpts); diff != "" {
		t.Fatalf("durable record after cancelled requests (-want +got):\n%s", diff)
	}
}

func TestAddOrToggle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, NewMemoryPersister())

	snap, added := store.AddOrToggle(ctx, itemA())
	require.True(t, added)
	assert.True(t, snap.Open)
	assert.Equal(t, OpAdd, snap.Op)

	snap, added = store.AddOrToggle(ctx, itemA())
	require.False(t, added)
	assert.False(t, snap.Open)
	assert.Equal(t, OpToggle, snap.Op)
	assert.Equal(t, 1, snap.Count)

	store.RemoveItem(ctx, "A")
	snap, added = store.AddOrToggle(ctx, itemA())
	require.True(t, added, "a removed product is added again, not toggled")
	assert.True(t, snap.Open)

	snap, added = store.AddOrToggle(ctx, Item{ID: "  "})
	assert.False(t, added)
	assert.Equal(t, 1, snap.Count)
}
