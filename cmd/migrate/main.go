package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/neumaticos/tirestore/pkg/config"
	"github.com/neumaticos/tirestore/pkg/db"
	"github.com/neumaticos/tirestore/pkg/logger"
	"github.com/neumaticos/tirestore/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: up|down|status|version|create|validate")
	dir := flag.String("dir", migrate.DefaultDir, "goose migrations directory")
	name := flag.String("name", "", "migration name (for -cmd=create)")
	version := flag.String("version", "", "target version YYYYMMDDHHMMSS (for -cmd=version)")
	flag.Parse()

	// file-only commands run without config or a database
	switch *cmd {
	case "create":
		if *name == "" {
			fail("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(*dir, *name)
		if err != nil {
			fail("create migration: %v", err)
		}
		fmt.Println("created migration:", path)
		return
	case "validate":
		if err := migrate.ValidateDir(*dir); err != nil {
			fail("migration validation failed: %v", err)
		}
		fmt.Println("migration validation passed")
		return
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": *cmd,
		"dir": *dir,
	})

	if cfg.DB.Driver == config.DriverSQLite {
		fail("goose migrations target postgres; sqlite databases are built with TIRESTORE_AUTO_MIGRATE in dev")
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	requireResource(ctx, logg, "sql database", err)

	logg.Info(ctx, "migrate ready")
	if err := run(ctx, sqlDB, *cmd, *dir, *version); err != nil {
		logg.Error(ctx, "migration failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "migration finished")
}

func run(ctx context.Context, sqlDB *sql.DB, cmd, dir, version string) error {
	switch cmd {
	case "up", "down", "status":
		return migrate.Run(ctx, sqlDB, dir, cmd)
	case "version":
		if version == "" {
			return fmt.Errorf("missing -version for version command")
		}
		return migrate.MigrateToVersion(ctx, sqlDB, dir, version)
	default:
		return fmt.Errorf("unknown -cmd value %q", cmd)
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
