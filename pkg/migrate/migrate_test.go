package migrate

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ilift/ilift-backend/pkg/config"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	require.NoError(t, ValidateEmbedded())
}

func TestMigrationsContainSchemas(t *testing.T) {
	checks := map[string][]string{
		"*_create_products_table.sql": {
			"CREATE TABLE IF NOT EXISTS products",
			"CREATE UNIQUE INDEX IF NOT EXISTS ux_products_slug",
			"CREATE INDEX IF NOT EXISTS idx_products_created_at_id",
		},
		"*_create_resources_table.sql": {
			"CREATE TABLE IF NOT EXISTS resources",
			"CHECK (type IN ('video', 'pdf'))",
		},
		"*_create_enquiry_leads_table.sql": {
			"CREATE TABLE IF NOT EXISTS enquiry_leads",
			"CHECK (status IN ('pending', 'sent', 'failed'))",
		},
		"*_add_products_search_text.sql": {
			"ADD COLUMN IF NOT EXISTS search_text",
			"jsonb_each_text(name_i18n)",
		},
		"*_create_outbox_events_table.sql": {
			"CREATE TABLE IF NOT EXISTS outbox_events",
			"ux_outbox_events_event_aggregate",
		},
	}

	for pattern, statements := range checks {
		matches, err := fs.Glob(embedded, "migrations/"+pattern)
		require.NoError(t, err)
		require.Len(t, matches, 1, pattern)

		data, err := fs.ReadFile(embedded, matches[0])
		require.NoError(t, err)
		content := string(data)
		for _, sub := range statements {
			if !strings.Contains(content, sub) {
				t.Errorf("%s missing expected statement %q", matches[0], sub)
			}
		}
	}
}

func TestValidateDirRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad-name.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	require.Error(t, ValidateDir(dir))

	dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_one.sql"), []byte("-- +goose Up\n"), 0o644))
	require.Error(t, ValidateDir(dir))

	require.Error(t, ValidateDir(""))
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Lead Source!")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, "_add_lead_source.sql"), path)
	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(dir, "!!!")
	require.Error(t, err)

	_, err = CreateSQLMigration(dir, "add lead source")
	require.ErrorContains(t, err, "already exists")
}

func TestCreateSQLMigrationBumpsClashingVersion(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	now := func() time.Time { return at }

	first, err := createSQLMigration(dir, "add_resource_duration", now)
	require.NoError(t, err)
	second, err := createSQLMigration(dir, "add_product_brochure", now)
	require.NoError(t, err)

	require.Equal(t, "20260402100000_add_resource_duration.sql", filepath.Base(first))
	require.Equal(t, "20260402100001_add_product_brochure.sql", filepath.Base(second))
	require.NoError(t, ValidateDir(dir))
}

func TestDialect(t *testing.T) {
	d, err := Dialect(config.DriverPostgres)
	require.NoError(t, err)
	require.Equal(t, "postgres", d)

	_, err = Dialect(config.DriverSQLite)
	require.Error(t, err)
	_, err = Dialect("mysql")
	require.Error(t, err)
}

func TestAutoMigrateSQLite(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:migrate_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, AutoMigrateSQLite(conn))

	for _, table := range []string{"products", "resources", "enquiry_leads", "outbox_events"} {
		require.True(t, conn.Migrator().HasTable(table), table)
	}
}
