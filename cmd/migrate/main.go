package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"slices"
	"strconv"

	"github.com/invoicer/backend/internal/infrastructure/config"
	"github.com/invoicer/backend/internal/infrastructure/logger"
	"github.com/invoicer/backend/internal/infrastructure/migration"
	"github.com/invoicer/backend/migrations"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// sql driver registered for each configured database driver
var sqlDrivers = map[string]string{
	"postgres": "postgres",
	"sqlite":   "sqlite3",
}

// dbCommand runs against an open migrator
type dbCommand struct {
	usage string
	run   func(m *migration.Migrator, log *zap.Logger, args []string) error
}

var dbCommands = map[string]dbCommand{
	"up": {"up", func(m *migration.Migrator, _ *zap.Logger, _ []string) error {
		return m.Up()
	}},
	"down": {"down", func(m *migration.Migrator, _ *zap.Logger, _ []string) error {
		return m.Down()
	}},
	"step": {"step <n>", func(m *migration.Migrator, _ *zap.Logger, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid step count %q", args[0])
		}
		return m.Steps(n)
	}},
	"goto": {"goto <version>", func(m *migration.Migrator, _ *zap.Logger, args []string) error {
		v, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
		return m.GoTo(uint(v))
	}},
	"force": {"force <version>", func(m *migration.Migrator, _ *zap.Logger, args []string) error {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
		return m.Force(v)
	}},
	"version": {"version", func(m *migration.Migrator, log *zap.Logger, _ []string) error {
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if v == 0 {
			log.Info("No migrations applied")
			return nil
		}
		log.Info("Schema version", zap.Uint("version", v), zap.Bool("dirty", dirty))
		return nil
	}},
	"drop": {"drop -confirm", func(m *migration.Migrator, _ *zap.Logger, args []string) error {
		if !slices.Contains(args, "-confirm") && !slices.Contains(args, "--confirm") {
			return errors.New("drop needs -confirm")
		}
		return m.Drop()
	}},
}

// arguments each command requires after its name
var required = map[string]int{"step": 1, "goto": 1, "force": 1, "create": 1}

func main() {
	dir := flag.String("dir", "migrations", "Directory new migrations are created in")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	name, rest := args[0], args[1:]

	log, err := logger.New(logger.Config{Level: *logLevel, Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if len(rest) < required[name] {
		log.Fatal("Missing argument", zap.String("command", name))
	}

	switch name {
	case "create":
		var description string
		if len(rest) > 1 {
			description = rest[1]
		}
		mf, err := migration.CreateMigration(*dir, rest[0], description)
		if err != nil {
			log.Fatal("Create migration failed", zap.Error(err))
		}
		log.Info("Migration created",
			zap.String("version", mf.Version),
			zap.String("up", mf.UpPath),
			zap.String("down", mf.DownPath),
		)
		return
	case "list":
		names, err := migration.ListMigrations(migrations.FS)
		if err != nil {
			log.Fatal("List migrations failed", zap.Error(err))
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return
	}

	cmd, ok := dbCommands[name]
	if !ok {
		log.Error("Unknown command", zap.String("command", name))
		printUsage()
		os.Exit(1)
	}

	m, closeDB := openMigrator(log)
	defer closeDB()

	if err := cmd.run(m, log, rest); err != nil {
		log.Fatal("Migration failed", zap.String("command", cmd.usage), zap.Error(err))
	}
}

// openMigrator connects with the configured database settings
func openMigrator(log *zap.Logger) (*migration.Migrator, func()) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Load configuration failed", zap.Error(err))
	}
	driver, ok := sqlDrivers[cfg.Database.Driver]
	if !ok {
		log.Fatal("Unsupported database driver", zap.String("driver", cfg.Database.Driver))
	}
	db, err := sql.Open(driver, cfg.Database.DSN())
	if err != nil {
		log.Fatal("Open database failed", zap.Error(err))
	}
	if err := db.Ping(); err != nil {
		log.Fatal("Ping database failed", zap.Error(err))
	}
	m, err := migration.New(db, cfg.Database.Driver, migrations.FS, log)
	if err != nil {
		log.Fatal("Create migrator failed", zap.Error(err))
	}
	return m, func() { _ = m.Close() }
}

func printUsage() {
	fmt.Println(`Invoicer database migrations

Usage: migrate [-dir path] [-log-level level] <command> [args]

  up                    apply every pending migration
  down                  roll every migration back
  step <n>              apply n migrations, negative rolls back
  goto <version>        migrate to version
  version               print the schema version
  force <version>       set the version without running migrations
  drop -confirm         drop every database object
  create <name> [desc]  write a new up/down pair into -dir
  list                  print the embedded migrations

Database settings come from config.toml and INV_DATABASE_* variables.`)
}
