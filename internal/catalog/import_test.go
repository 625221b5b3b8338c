package catalog

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilift/ilift-backend/pkg/db/models"
	"github.com/ilift/ilift-backend/pkg/enums"
)

const exportFixture = `[
  {
    "_type": "product",
    "_id": "doc-1",
    "name": {"en": "Electric Forklift 3T", "hi": "इलेक्ट्रिक फोर्कलिफ्ट"},
    "slug": {"current": "electric-forklift-3t"},
    "description": "Lithium battery",
    "category": "Forklift",
    "price": 45999.999,
    "images": [{"asset": {"url": "https://cdn/ef-1.jpg"}}, "https://cdn/ef-2.jpg"],
    "brochureUrl": "https://cdn/ef.pdf",
    "specifications": {"load_capacity": "3000 kg", "power_type": "Electric"}
  },
  {
    "_id": "doc-2",
    "name": "Hand Pallet Truck",
    "slug": "hand-pallet-truck",
    "category": "pallet-truck",
    "images": "https://cdn/hpt.jpg"
  },
  {"_id": "doc-3", "name": "No slug"},
  {"_id": "doc-4", "slug": "nameless"},
  {"_type": "resource", "_id": "doc-5", "name": "Manual", "slug": "manual"},
  {"_id": "doc-6", "name": "Copy", "slug": "hand-pallet-truck"},
  {"_id": "doc-7", "name": "Mystery", "slug": "mystery", "category": "hovercraft", "price": -10}
]`

func decodeExport(t *testing.T, raw string) []CatalogDocument {
	t.Helper()
	var docs []CatalogDocument
	require.NoError(t, json.Unmarshal([]byte(raw), &docs))
	return docs
}

func TestImportUpsertsProducts(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	res, err := svc.Import(ctx, decodeExport(t, exportFixture))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Upserted)

	reasons := map[string]string{}
	for _, skip := range res.Skipped {
		reasons[skip.ID] = skip.Reason
	}
	assert.Equal(t, map[string]string{
		"doc-3": "missing slug",
		"doc-4": "missing name",
		"doc-5": "not a product document",
		"doc-6": "duplicate slug in export",
	}, reasons)

	detail, err := svc.GetProduct(ctx, "electric-forklift-3t")
	require.NoError(t, err)
	assert.Equal(t, "Electric Forklift 3T", detail.Name)
	assert.Equal(t, enums.ProductCategoryForklift, detail.Category)
	assert.Equal(t, []string{"https://cdn/ef-1.jpg", "https://cdn/ef-2.jpg"}, detail.Images)
	require.NotNil(t, detail.Price)
	assert.Equal(t, "46000", detail.Price.String())
	assert.Equal(t, "Electric", detail.Specifications.PowerType)
	assert.Contains(t, detail.NameI18n, "hi")

	pallet, err := svc.GetProduct(ctx, "hand-pallet-truck")
	require.NoError(t, err)
	assert.Equal(t, enums.ProductCategoryPalletTruck, pallet.Category)
	assert.Equal(t, "https://cdn/hpt.jpg", pallet.ImageURL)

	mystery, err := svc.GetProduct(ctx, "mystery")
	require.NoError(t, err)
	assert.Equal(t, enums.ProductCategoryOther, mystery.Category)
	assert.Nil(t, mystery.Price)
}

func TestImportUpdatesExistingSlug(t *testing.T) {
	ctx := context.Background()
	svc, conn := newTestService(t)

	_, err := svc.Import(ctx, decodeExport(t, `[{"_id":"doc-1","name":"Old Name","slug":"walkie","category":"stacker"}]`))
	require.NoError(t, err)
	_, err = svc.Import(ctx, decodeExport(t, `[{"_id":"doc-1","name":"New Name","slug":"walkie","category":"stacker","price":"1200"}]`))
	require.NoError(t, err)

	var count int64
	require.NoError(t, conn.Model(&models.Product{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	detail, err := svc.GetProduct(ctx, "walkie")
	require.NoError(t, err)
	assert.Equal(t, "New Name", detail.Name)
	require.NotNil(t, detail.Price)
	assert.Equal(t, "1200", detail.Price.String())

	res, err := svc.ListProducts(ctx, ListInput{Query: "old"})
	require.NoError(t, err)
	assert.Empty(t, res.Products, "upsert refreshes the search column")
	res, err = svc.ListProducts(ctx, ListInput{Query: "new"})
	require.NoError(t, err)
	require.Len(t, res.Products, 1)
}

func TestImportEmptyExport(t *testing.T) {
	svc, _ := newTestService(t)
	res, err := svc.Import(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, res.Upserted)
	assert.Empty(t, res.Skipped)
}
