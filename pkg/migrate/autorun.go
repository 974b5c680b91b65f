package migrate

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/angelmondragon/shopeasy-backend/pkg/config"
	"github.com/angelmondragon/shopeasy-backend/pkg/db"
	"github.com/angelmondragon/shopeasy-backend/pkg/logger"
	"github.com/pressly/goose/v3"
)

// AutoRunEnabled reports whether boot-time migrations apply to cfg. They only
// ever run in dev; the flag is ignored elsewhere.
func AutoRunEnabled(cfg *config.Config) bool {
	return cfg != nil && cfg.App.IsDev() && cfg.FeatureFlags.AutoMigrate
}

// MaybeRunDev brings the schema up to date on boot when AutoRunEnabled.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !AutoRunEnabled(cfg) {
		if cfg != nil && cfg.FeatureFlags.AutoMigrate {
			logg.Warn(logg.WithField(ctx, "env", cfg.App.Env), "migrate.auto_run.ignored_outside_dev")
		}
		return nil
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dir": DefaultDir})
	before := schemaVersion(ctx, sqlDB)
	if err := Run(ctx, sqlDB, DefaultDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(logg.WithFields(ctx, map[string]any{
		"from_version": before,
		"to_version":   schemaVersion(ctx, sqlDB),
	}), "migrate.auto_run.complete")
	return nil
}

// schemaVersion returns -1 when the goose table is missing or unreadable.
func schemaVersion(ctx context.Context, sqlDB *sql.DB) int64 {
	if err := goose.SetDialect(dialect); err != nil {
		return -1
	}
	version, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return -1
	}
	return version
}
