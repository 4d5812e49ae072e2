package pg

import (
	"context"
	"fmt"
	"slices"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/nimasrn/hire-gateway/pkg/logger"
)

// MigrateCommands are the goose commands MigrateCommand accepts.
var MigrateCommands = []string{"up", "down", "status", "version", "redo", "reset"}

// MigrateCommand runs a goose command against the schema in dir. Migrations
// always go to the write node.
func MigrateCommand(ctx context.Context, cfg Config, dir string, command string, args ...string) error {
	if !slices.Contains(MigrateCommands, command) {
		return fmt.Errorf("unsupported migrate command %q", command)
	}

	goose.SetLogger(logger.Named("goose"))
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	db, err := newSqlConnection(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("connect %s@%s/%s: %w", cfg.User, cfg.Host, cfg.Database, err)
	}

	return goose.RunContext(ctx, command, db, dir, args...)
}
