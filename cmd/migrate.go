package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations for the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx := context.Background()
			st, err := openStore(ctx, config, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			count, err := st.Migrate(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			logger.Info("Migrations applied",
				zap.String("store", config.Store.Driver),
				zap.Int("count", count),
			)
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
}
