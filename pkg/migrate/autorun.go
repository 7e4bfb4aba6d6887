package migrate

import (
	"context"
	"fmt"

	"github.com/neumaticos/tirestore/pkg/config"
	"github.com/neumaticos/tirestore/pkg/db"
	"github.com/neumaticos/tirestore/pkg/db/models"
	"github.com/neumaticos/tirestore/pkg/logger"
)

// MaybeRunDev migrates the schema on startup when running in dev with the
// auto-migrate flag on. Postgres goes through goose; the sqlite dev database
// is built straight from the models since the SQL files are postgres-only.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dir": DefaultDir, "dialect": client.Dialect()})

	if client.Dialect() == "sqlite3" {
		logg.Info(ctx, "running model auto-migration (sqlite dev)")
		if err := client.DB().WithContext(ctx).AutoMigrate(models.All()...); err != nil {
			return fmt.Errorf("auto-migrating models: %w", err)
		}
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	logg.Info(ctx, "running Goose migrations (dev auto-run)")
	if err := Run(ctx, sqlDB, DefaultDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}
	logg.Info(ctx, "Goose migrations completed")
	return nil
}
