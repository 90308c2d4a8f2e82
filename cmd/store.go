package cmd

import (
	"context"
	"fmt"

	"clinic-booking/internal/data/repository"
	"clinic-booking/pkg/database"
	"clinic-booking/pkg/utils"

	"go.uber.org/zap"
)

// store is an opened backend with its repositories.
type store struct {
	Repo    *repository.Repository
	Migrate func(ctx context.Context) (int, error)
	Close   func()
}

func openStore(ctx context.Context, config *utils.Config, logger *zap.Logger) (*store, error) {
	switch config.Store.Driver {
	case utils.StoreDriverSQLite:
		db, err := database.InitSQLite(ctx, config.SQLite.Path)
		if err != nil {
			return nil, err
		}
		logger.Info("SQLite store opened", zap.String("path", config.SQLite.Path))

		return &store{
			Repo: repository.NewSQLiteRepository(db, config.Store.Timeout, logger),
			Migrate: func(ctx context.Context) (int, error) {
				return database.MigrateSQLite(ctx, db)
			},
			Close: func() { db.Close() },
		}, nil

	case utils.StoreDriverPostgres:
		db, err := database.InitDB(ctx, config.Database)
		if err != nil {
			return nil, err
		}
		logger.Info("Database connected successfully",
			zap.String("host", config.Database.Host),
			zap.String("name", config.Database.Name),
		)

		return &store{
			Repo: repository.NewRepository(db, config.Store.Timeout, logger),
			Migrate: func(ctx context.Context) (int, error) {
				return database.MigratePostgres(ctx, db)
			},
			Close: db.Close,
		}, nil
	}

	return nil, fmt.Errorf("unknown store driver %q", config.Store.Driver)
}
