package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/mercato-dev/mercato-backend/pkg/config"
	"github.com/mercato-dev/mercato-backend/pkg/db"
	"github.com/mercato-dev/mercato-backend/pkg/logger"
	"github.com/mercato-dev/mercato-backend/pkg/migrate"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: up|down|status|version|create|validate")
	dirFlag := flag.String("dir", "", "goose migrations directory (defaults to MERCATO_MIGRATIONS_DIR or "+migrate.DefaultDir+")")
	name := flag.String("name", "", "migration name (for create)")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version; omit to print the current version")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dir := *dirFlag
	if dir == "" {
		dir = migrate.Dir(cfg)
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"env": cfg.App.Env,
		"cmd": *cmd,
		"dir": dir,
	})

	switch *cmd {
	case "create":
		if *name == "" {
			fail("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(dir, *name)
		if err != nil {
			fail("failed to create migration: %v", err)
		}
		logg.Info(ctx, "migration created")
		fmt.Println("created migration:", path)
		return

	case "validate":
		if err := migrate.ValidateDir(dir); err != nil {
			fail("migration validation failed: %v", err)
		}
		fmt.Println("migration validation passed")
		return
	}

	if cfg.FeatureFlags.UseSQLite {
		fail("goose migrations target postgres; sqlite databases are migrated with MERCATO_AUTO_MIGRATE")
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	requireResource(ctx, logg, "sql database", err)

	dialect, err := migrate.DialectFor(cfg.DB.Driver)
	requireResource(ctx, logg, "migration dialect", err)

	migrator, err := migrate.NewMigrator(sqlDB, dialect, dir)
	requireResource(ctx, logg, "migrator", err)

	logg.Info(ctx, "migrate ready")

	switch *cmd {
	case "up":
		applied, err := migrator.Up(ctx)
		if err != nil {
			fail("%v", err)
		}
		fmt.Printf("applied %d migration(s)\n", len(applied))

	case "down":
		rolled, err := migrator.Down(ctx)
		if err != nil {
			fail("%v", err)
		}
		fmt.Println("rolled back", rolled)

	case "status":
		statuses, err := migrator.Status(ctx)
		if err != nil {
			fail("%v", err)
		}
		for _, st := range statuses {
			state := "pending"
			if st.Applied {
				state = "applied"
			}
			fmt.Printf("%-8s %d %s\n", state, st.Version, st.File)
		}

	case "version":
		if *version == "" {
			current, err := migrator.Version(ctx)
			if err != nil {
				fail("%v", err)
			}
			fmt.Println("current version:", current)
			return
		}
		if err := migrator.MigrateTo(ctx, *version); err != nil {
			fail("%v", err)
		}

	default:
		fail("unknown -cmd value: %s", *cmd)
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
