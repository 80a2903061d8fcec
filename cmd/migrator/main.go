package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/BradenHooton/drivewatch/internal/config"
	"github.com/BradenHooton/drivewatch/migrations"
	pkglogger "github.com/BradenHooton/drivewatch/pkg/logger"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

const usage = `Usage: migrator [flags] <command>

Commands:
  up        apply all pending migrations
  down      roll back the last migration
  status    print the status of every migration
  version   print the current schema version
`

func main() {
	timeout := flag.Duration("timeout", 2*time.Minute, "maximum time to run the command")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	command := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", pkglogger.Err(err))
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to open database", pkglogger.Err(err))
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, db, command); err != nil {
		logger.Error("migration command failed", slog.String("command", command), pkglogger.Err(err))
		os.Exit(1)
	}

	logger.Info("migration command finished", slog.String("command", command))
}

func run(ctx context.Context, db *sql.DB, command string) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	switch command {
	case "up":
		return goose.UpContext(ctx, db, ".")
	case "down":
		return goose.DownContext(ctx, db, ".")
	case "status":
		return goose.StatusContext(ctx, db, ".")
	case "version":
		return goose.VersionContext(ctx, db, ".")
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}
