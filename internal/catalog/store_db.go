package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite3"
)

const partColumns = `id, name, category, price`

// SQLStore keeps parts in a relational table. The same statements run on
// Postgres and SQLite; only the schema bootstrap differs per driver.
type SQLStore struct {
	db     *sql.DB
	driver string
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// OpenDB opens a database handle for one of the supported drivers.
func OpenDB(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// a single connection keeps ":memory:" databases shared across queries
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *SQLStore) List(ctx context.Context) ([]Part, error) {
	return s.queryParts(ctx, `SELECT `+partColumns+` FROM parts ORDER BY id ASC`)
}

func (s *SQLStore) Get(ctx context.Context, id int) (Part, bool, error) {
	var p Part

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			SELECT `+partColumns+`
			FROM parts
			WHERE id = $1
		`, id).Scan(&p.ID, &p.Name, &p.Category, &p.Price)
	})

	if errors.Is(err, sql.ErrNoRows) {
		return Part{}, false, nil
	}
	if err != nil {
		return Part{}, false, err
	}
	return p, true, nil
}

func (s *SQLStore) GetMany(ctx context.Context, ids []int) ([]Part, error) {
	if len(ids) == 0 {
		return []Part{}, nil
	}

	marks := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		marks[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	return s.queryParts(ctx, `
		SELECT `+partColumns+`
		FROM parts
		WHERE id IN (`+strings.Join(marks, ", ")+`)
		ORDER BY id ASC
	`, args...)
}

func (s *SQLStore) Insert(ctx context.Context, p Part) (Part, error) {
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			INSERT INTO parts (name, category, price)
			VALUES ($1, $2, $3)
			RETURNING id
		`, p.Name, p.Category, p.Price).Scan(&p.ID)
	})
	if err != nil {
		return Part{}, err
	}
	return p, nil
}

func (s *SQLStore) Update(ctx context.Context, p Part) (bool, error) {
	return s.exec(ctx, `
		UPDATE parts
		SET name = $1, category = $2, price = $3
		WHERE id = $4
	`, p.Name, p.Category, p.Price, p.ID)
}

func (s *SQLStore) Delete(ctx context.Context, id int) (bool, error) {
	return s.exec(ctx, `DELETE FROM parts WHERE id = $1`, id)
}

// SearchText is the degraded search path: a case-insensitive substring match
// on name or category, unranked.
func (s *SQLStore) SearchText(ctx context.Context, q string) ([]Part, error) {
	return s.queryParts(ctx, `
		SELECT `+partColumns+`
		FROM parts
		WHERE LOWER(name) LIKE $1 ESCAPE '\'
		   OR LOWER(category) LIKE $1 ESCAPE '\'
		ORDER BY id ASC
	`, "%"+escapeLike(strings.ToLower(q))+"%")
}

func (s *SQLStore) Categories(ctx context.Context) ([]string, error) {
	var out []string

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT category FROM parts`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]string, 0, 8)
		for rows.Next() {
			var c string
			if err := rows.Scan(&c); err != nil {
				return err
			}
			out = append(out, c)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLStore) queryParts(ctx context.Context, query string, args ...any) ([]Part, error) {
	var out []Part

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Part, 0, 16)
		for rows.Next() {
			var p Part
			if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Price); err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLStore) exec(ctx context.Context, query string, args ...any) (bool, error) {
	var n int64

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})

	if err != nil {
		return false, err
	}
	return n > 0, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
