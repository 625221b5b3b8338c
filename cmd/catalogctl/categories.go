package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ilift/ilift-backend/pkg/logger"
)

func newCategoriesCmd(open catalogOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Print the categories the catalog currently exposes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logg := logger.New(logger.Options{ServiceName: "catalogctl", Output: cmd.ErrOrStderr()})
			svc, cleanup, err := open(ctx, logg)
			if err != nil {
				return err
			}
			defer func() { _ = cleanup() }()

			categories, err := svc.ListCategories(ctx)
			if err != nil {
				return err
			}
			for _, c := range categories {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
			return nil
		},
	}
}
