package catalog

import (
	"context"
	"fmt"
	"time"
)

const migrateTimeout = 10 * time.Second

var schema = map[string]string{
	DriverPostgres: `
		CREATE TABLE IF NOT EXISTS parts (
			id       SERIAL PRIMARY KEY,
			name     TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			price    NUMERIC(18, 2) NOT NULL DEFAULT 0
		)`,
	DriverSQLite: `
		CREATE TABLE IF NOT EXISTS parts (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			name     TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			price    NUMERIC NOT NULL DEFAULT 0
		)`,
}

// Migrate creates the parts table when it does not exist yet.
func (s *SQLStore) Migrate(ctx context.Context) error {
	ddl, ok := schema[s.driver]
	if !ok {
		return fmt.Errorf("no schema for driver %q", s.driver)
	}

	return withTimeout(ctx, migrateTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, ddl)
		return err
	})
}
