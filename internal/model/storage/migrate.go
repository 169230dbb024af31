package storage

import (
	"database/sql"
	"embed"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"
)

//go:embed migrations
var migrationsFS embed.FS

// RunMigrations applies the embedded schema on a dedicated connection, which is
// closed when done.
func RunMigrations(driverName, dsn string) error {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return errors.Wrap(err, "open migration database")
	}

	var driver database.Driver
	switch driverName {
	case driverPostgres:
		driver, err = postgres.WithInstance(db, &postgres.Config{})
	case driverSQLite:
		driver, err = sqlite.WithInstance(db, &sqlite.Config{})
	default:
		err = errors.Errorf("migrations are not supported for %s", driverName)
	}
	if err != nil {
		_ = db.Close()
		return errors.Wrap(err, "create migration driver")
	}

	src, err := iofs.New(migrationsFS, "migrations/"+driverName)
	if err != nil {
		_ = db.Close()
		return errors.Wrap(err, "create iofs source")
	}

	m, err := migrate.NewWithInstance("iofs", src, driverName, driver)
	if err != nil {
		_ = db.Close()
		return errors.Wrap(err, "create migrate instance")
	}
	defer m.Close()

	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "run migrations")
	}
	return nil
}
