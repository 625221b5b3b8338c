package enquiry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/ilift/ilift-backend/pkg/errors"
	"github.com/ilift/ilift-backend/pkg/metrics"
)

func newTestService(t *testing.T, sub Submitter) (Service, *fakeCartStore) {
	t.Helper()
	cart := newFakeCartStore()
	svc, err := NewService(ServiceParams{
		CartStore:     cart,
		CartTTL:       time.Hour,
		RegistrySize:  8,
		SubmitTimeout: time.Second,
		Submitter:     sub,
		Metrics:       metrics.NewEnquiryMetrics(prometheus.NewRegistry()),
	})
	require.NoError(t, err)
	return svc, cart
}

func TestServiceRequiresSubmitter(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestServiceRejectsAnonymousVisitor(t *testing.T) {
	svc, _ := newTestService(t, &stubSubmitter{})
	_, err := svc.Cart(context.Background(), "  ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestServiceAddItemValidatesIdentifier(t *testing.T) {
	svc, _ := newTestService(t, &stubSubmitter{})
	_, err := svc.AddItem(context.Background(), "v1", CatalogRecord{Category: "forklift"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, map[string]string{"id": "is required"}, typed.Details())

	_, err = svc.Press(context.Background(), "v1", CatalogRecord{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

// mappedIDs resolves content-store ids from a fixed table.
type mappedIDs struct {
	ids map[string]string
	err error
}

func (m mappedIDs) CanonicalProductID(_ context.Context, id string) (string, error) {
	if m.err != nil {
		return id, m.err
	}
	if canonical, ok := m.ids[id]; ok {
		return canonical, nil
	}
	return id, nil
}

func TestServiceMapsDocumentIDsOntoCatalogIDs(t *testing.T) {
	ctx := context.Background()
	svc, err := NewService(ServiceParams{
		ProductIDs:   mappedIDs{ids: map[string]string{"doc-forklift": "7b0c2c52-4c1e-4c7a-9d0e-0d6c1f0a9e11"}},
		RegistrySize: 4,
		Submitter:    &stubSubmitter{},
	})
	require.NoError(t, err)

	snap, err := svc.AddItem(ctx, "v1", CatalogRecord{ID: "doc-forklift", Category: "forklift"})
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "7b0c2c52-4c1e-4c7a-9d0e-0d6c1f0a9e11", snap.Items[0].ID)

	snap, err = svc.AddItem(ctx, "v1", CatalogRecord{ID: "7b0c2c52-4c1e-4c7a-9d0e-0d6c1f0a9e11", Category: "forklift"})
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Count, "both id shapes name the same product")

	res, err := svc.Press(ctx, "v1", CatalogRecord{ID: "doc-forklift"})
	require.NoError(t, err)
	assert.Equal(t, ActionOpened, res.Action)

	state, err := svc.Membership(ctx, "v1", "doc-forklift")
	require.NoError(t, err)
	assert.True(t, state.InList)

	snap, err = svc.RemoveItem(ctx, "v1", "doc-forklift")
	require.NoError(t, err)
	assert.Zero(t, snap.Count)
}

func TestServiceKeepsIDWhenResolverFails(t *testing.T) {
	svc, err := NewService(ServiceParams{
		ProductIDs:   mappedIDs{err: errors.New("db down")},
		RegistrySize: 4,
		Submitter:    &stubSubmitter{},
	})
	require.NoError(t, err)

	snap, err := svc.AddItem(context.Background(), "v1", CatalogRecord{ID: "doc-forklift"})
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "doc-forklift", snap.Items[0].ID)
}

func TestServiceCartLifecycle(t *testing.T) {
	ctx := context.Background()
	sub := &stubSubmitter{receipt: Receipt{LeadID: "lead-1", Reference: "RFRO-1001"}}
	svc, cart := newTestService(t, sub)

	snap, err := svc.AddItem(ctx, "v1", CatalogRecord{ID: "A", Category: "forklift"})
	require.NoError(t, err)
	assert.True(t, snap.Open)
	assert.True(t, snap.Persisted)
	assert.Contains(t, cart.raw("test:enquiry-cart:v1"), `"_id":"A"`)

	state, err := svc.Membership(ctx, "v1", "A")
	require.NoError(t, err)
	assert.True(t, state.InList)

	other, err := svc.Cart(ctx, "v2")
	require.NoError(t, err)
	assert.Zero(t, other.Count, "visitors never share a collection")

	drawer, err := svc.Drawer(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, CheckoutPath, drawer.CheckoutPath)

	snap, err = svc.Toggle(ctx, "v1")
	require.NoError(t, err)
	assert.False(t, snap.Open)

	view, err := svc.SetContact(ctx, "v1", validContact())
	require.NoError(t, err)
	assert.Equal(t, "Harbor Logistics", view.Contact.Company)

	view, err = svc.Checkout(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, StateComposing, view.State)

	view, err = svc.Submit(ctx, "v1", validContact())
	require.NoError(t, err)
	assert.Equal(t, StateSuccess, view.State)
	assert.Equal(t, 1, view.SubmittedCount)

	snap, err = svc.Cart(ctx, "v1")
	require.NoError(t, err)
	assert.Zero(t, snap.Count)

	reset, err := svc.Reset(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, CatalogPath, reset.Redirect)
	assert.Equal(t, StateEmpty, reset.View.State)

	snap, err = svc.RemoveItem(ctx, "v1", "missing")
	require.NoError(t, err)
	assert.Zero(t, snap.Count)
}

func TestServiceSubscribeStreamsMutations(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, &stubSubmitter{})

	rec := &recorder{}
	start, unsubscribe, err := svc.Subscribe(ctx, "v1", rec.observe)
	require.NoError(t, err)
	assert.Zero(t, start.Count)

	_, err = svc.AddItem(ctx, "v1", CatalogRecord{ID: "A"})
	require.NoError(t, err)
	_, err = svc.Press(ctx, "v1", CatalogRecord{ID: "B"})
	require.NoError(t, err)

	unsubscribe()
	unsubscribe()
	_, err = svc.RemoveItem(ctx, "v1", "A")
	require.NoError(t, err)

	snaps := rec.all()
	require.Len(t, snaps, 2)
	assert.Equal(t, 1, snaps[0].Count)
	assert.Equal(t, 2, snaps[1].Count)

	_, _, err = svc.Subscribe(ctx, "v1", nil)
	require.Error(t, err)
}
