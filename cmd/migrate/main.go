package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/homeplast-storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/homeplast-storefront/pkg/errors"
	"github.com/angelmondragon/homeplast-storefront/pkg/instance"
	"github.com/angelmondragon/homeplast-storefront/pkg/logger"
	"github.com/angelmondragon/homeplast-storefront/pkg/migrate"
)

// migrate manages the schema of the SQL session-state store. Redis-backed
// deployments have nothing to migrate.
func main() {
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: up|down|status|version|create|validate")
	dir := flag.String("dir", migrate.DefaultDir, "goose migrations directory")
	name := flag.String("name", "", "migration name (for create)")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	ctx := logg.WithFields(context.Background(), map[string]any{"cmd": *cmd, "dir": *dir})

	// create and validate only touch the migrations directory.
	switch *cmd {
	case "create":
		if *name == "" {
			exitf("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(*dir, *name)
		if err != nil {
			exitf("failed to create migration: %v", err)
		}
		fmt.Println("created migration:", path)
		return
	case "validate":
		if err := migrate.ValidateDir(*dir); err != nil {
			exitf("migration validation failed: %v", err)
		}
		fmt.Println("migration validation passed")
		return
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Env:         cfg.App.Env,
		Instance:    instance.GetID(),
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})

	sqlDB, dialect, err := migrate.Open(cfg.DB)
	requireResource(ctx, logg, "database", err)
	defer sqlDB.Close()
	requireResource(ctx, logg, "database ping", sqlDB.PingContext(ctx))

	ctx = logg.WithField(ctx, "dialect", dialect)
	logg.Info(ctx, "migrate ready")

	fsys := os.DirFS(*dir)
	switch *cmd {
	case "up":
		applied, err := migrate.Up(ctx, sqlDB, dialect, fsys)
		if err != nil {
			fail(ctx, logg, "goose up failed", err)
		}
		fmt.Printf("applied %d migration(s)\n", applied)
	case "down":
		if err := migrate.Down(ctx, sqlDB, dialect, fsys); err != nil {
			fail(ctx, logg, "goose down failed", err)
		}
	case "status":
		statuses, err := migrate.Status(ctx, sqlDB, dialect, fsys)
		if err != nil {
			fail(ctx, logg, "goose status failed", err)
		}
		for _, st := range statuses {
			fmt.Printf("%-8s %s\n", st.State, filepath.Base(st.Source.Path))
		}
	case "version":
		if *version == "" {
			exitf("missing -version for version command")
		}
		if err := migrate.MigrateToVersion(ctx, sqlDB, dialect, fsys, *version); err != nil {
			fail(ctx, logg, "goose version migrate failed", err)
		}
	default:
		exitf("unknown -cmd value: %s", *cmd)
	}
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// fail logs err with its driver diagnostics and exits.
func fail(ctx context.Context, logg *logger.Logger, msg string, err error) {
	logg.Error(logg.WithFields(ctx, pkgerrors.LogFields(err)), msg, err)
	os.Exit(1)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
