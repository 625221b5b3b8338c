package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ilift/ilift-backend/internal/catalog"
	"github.com/ilift/ilift-backend/pkg/config"
	"github.com/ilift/ilift-backend/pkg/db"
	"github.com/ilift/ilift-backend/pkg/logger"
	"github.com/ilift/ilift-backend/pkg/migrate"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd(openCatalog).Execute(); err != nil {
		os.Exit(1)
	}
}

// catalogOpener builds the catalog service for a command and returns a cleanup func.
type catalogOpener func(ctx context.Context, logg *logger.Logger) (catalog.Service, func() error, error)

func newRootCmd(open catalogOpener) *cobra.Command {
	root := &cobra.Command{
		Use:          "catalogctl",
		Short:        "Manage the iLift product catalog mirror",
		SilenceUsage: true,
	}
	root.AddCommand(newImportCmd(open))
	root.AddCommand(newCategoriesCmd(open))
	return root
}

func openCatalog(ctx context.Context, logg *logger.Logger) (catalog.Service, func() error, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logg = logger.New(logger.Options{
		ServiceName: "catalogctl",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		Output:      os.Stderr,
	})

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap database: %w", err)
	}
	if err := migrate.MaybeRunDev(ctx, cfg, logg, client); err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	svc, err := catalog.NewService(catalog.NewRepository(client.DB()), logg)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return svc, client.Close, nil
}
