package migrate

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/ilift/ilift-backend/pkg/config"
	"github.com/ilift/ilift-backend/pkg/db"
	"github.com/ilift/ilift-backend/pkg/db/models"
	"github.com/ilift/ilift-backend/pkg/logger"
)

// Models lists every table owned by the service, used for sqlite auto-migration.
func Models() []any {
	return []any{
		&models.Product{},
		&models.Resource{},
		&models.EnquiryLead{},
		&models.OutboxEvent{},
	}
}

// AutoMigrateSQLite creates the schema on a sqlite connection from the gorm models.
func AutoMigrateSQLite(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db is required")
	}
	return conn.AutoMigrate(Models()...)
}

// MaybeRunDev executes migrations automatically when the app is running in dev mode and
// the feature flag is enabled. sqlite databases are built from the models instead of goose.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	meta := map[string]any{"env": cfg.App.Env, "driver": cfg.DB.Driver}
	ctx = logg.WithFields(ctx, meta)

	if cfg.DB.Driver == config.DriverSQLite {
		logg.Info(ctx, "running gorm auto-migrate (sqlite)")
		if err := AutoMigrateSQLite(client.DB()); err != nil {
			return fmt.Errorf("auto-migrating sqlite: %w", err)
		}
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	logg.Info(ctx, "running Goose migrations (dev auto-run)")
	if err := Run(ctx, sqlDB, cfg.DB.Driver, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "Goose migrations completed")
	return nil
}
