package postgres

import (
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/chonkit/chonkit/internal/chonkiterr"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies every pending migration against dsn, generalizing the
// teacher's one-shot ensureSchema call (run once at startup, idempotent via
// IF NOT EXISTS) into a versioned, reversible migration chain.
func Migrate(dsn string) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return chonkiterr.Infra(err, "load embedded migrations")
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, dsn)
	if err != nil {
		return chonkiterr.Infra(err, "open migration runner")
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return chonkiterr.Infra(err, "apply migrations")
	}
	return nil
}
