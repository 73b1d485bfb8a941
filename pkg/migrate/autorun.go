package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/homeplast-storefront/pkg/config"
	"github.com/angelmondragon/homeplast-storefront/pkg/db"
	"github.com/angelmondragon/homeplast-storefront/pkg/logger"
)

// MaybeRunDev applies migrations on boot when the app runs in dev mode with the
// auto-migrate flag, or always for the embedded sqlite driver.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if client == nil {
		return nil
	}
	if !cfg.DB.IsSQLite() && (!cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate) {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	applied, err := Up(ctx, sqlDB, client.Dialect(), Embedded())
	if err != nil {
		return fmt.Errorf("migrating state store: %w", err)
	}

	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{
			"env":     cfg.App.Env,
			"dialect": client.Dialect(),
			"applied": applied,
		})
		logg.Info(ctx, "state store migrations applied")
	}
	return nil
}
