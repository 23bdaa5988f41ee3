package hosted

import (
	"database/sql"
	"strings"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver

	gerrors "github.com/m0smith/genia-12-2024/pkg/genia/errors"
	"github.com/m0smith/genia-12-2024/pkg/genia/evaluator"
)

// dbCache keeps one *sql.DB per data source. Entries older than ttl, or
// failing a ping, are closed and reopened on next use.
type dbCache struct {
	mu    sync.Mutex
	conns map[string]*cachedDB
	ttl   time.Duration
}

type cachedDB struct {
	db        *sql.DB
	createdAt time.Time
}

var databases = &dbCache{conns: make(map[string]*cachedDB), ttl: 30 * time.Minute}

func (c *dbCache) get(dsn string) (*sql.DB, string, error) {
	driver, source, err := splitDSN(dsn)
	if err != nil {
		return nil, "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, ok := c.conns[dsn]; ok {
		if time.Since(cached.createdAt) <= c.ttl && cached.db.Ping() == nil {
			return cached.db, driver, nil
		}
		cached.db.Close()
		delete(c.conns, dsn)
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, driver, dbError(driver, "open", err)
	}
	if driver == "sqlite" {
		// one connection, so ":memory:" databases persist between calls
		db.SetMaxOpenConns(1)
	}
	c.conns[dsn] = &cachedDB{db: db, createdAt: time.Now()}
	return db, driver, nil
}

// CloseDatabases closes every cached connection.
func CloseDatabases() error {
	databases.mu.Lock()
	defer databases.mu.Unlock()
	var first error
	for dsn, cached := range databases.conns {
		if err := cached.db.Close(); err != nil && first == nil {
			first = err
		}
		delete(databases.conns, dsn)
	}
	return first
}

// splitDSN maps "sqlite:path", "postgres://..." and "mysql:..." data sources
// to a database/sql driver name and its own DSN.
func splitDSN(dsn string) (driver, source string, err error) {
	switch {
	case strings.HasPrefix(dsn, "sqlite:"):
		return "sqlite", strings.TrimPrefix(dsn, "sqlite:"), nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", dsn, nil
	case strings.HasPrefix(dsn, "mysql:"):
		return "mysql", strings.TrimPrefix(dsn, "mysql:"), nil
	}
	return "", "", gerrors.New("DB-0002", map[string]any{"DSN": dsn})
}

func registerSQL(reg *evaluator.Registry, opts Options) {
	// sql.query(dsn, query, ..params): a list of rows, each a list of column
	// values in select order.
	reg.Register("sql.query", func(args []evaluator.Value) (evaluator.Value, error) {
		db, driver, query, params, err := sqlCall("sql.query", args, opts)
		if err != nil {
			return nil, err
		}
		rows, err := db.Query(query, params...)
		if err != nil {
			return nil, dbError(driver, "query", err)
		}
		defer rows.Close()

		cols, err := rows.Columns()
		if err != nil {
			return nil, dbError(driver, "query", err)
		}
		var out []evaluator.Value
		for rows.Next() {
			cells := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range cells {
				ptrs[i] = &cells[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return nil, dbError(driver, "scan", err)
			}
			row := make([]evaluator.Value, len(cells))
			for i, c := range cells {
				row[i] = evaluator.FromGo(c)
			}
			out = append(out, evaluator.NewVector(row))
		}
		if err := rows.Err(); err != nil {
			return nil, dbError(driver, "query", err)
		}
		return evaluator.NewVector(out), nil
	})

	// sql.exec(dsn, statement, ..params): the number of rows affected.
	reg.Register("sql.exec", func(args []evaluator.Value) (evaluator.Value, error) {
		db, driver, stmt, params, err := sqlCall("sql.exec", args, opts)
		if err != nil {
			return nil, err
		}
		res, err := db.Exec(stmt, params...)
		if err != nil {
			return nil, dbError(driver, "exec", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, dbError(driver, "exec", err)
		}
		return evaluator.NewInteger(n), nil
	})
}

func sqlCall(target string, args []evaluator.Value, opts Options) (*sql.DB, string, string, []any, error) {
	if err := argCount(target, args, 2, -1); err != nil {
		return nil, "", "", nil, err
	}
	dsn, err := textArg(target, args[0])
	if err != nil {
		return nil, "", "", nil, err
	}
	if dsn == "" {
		dsn = opts.DefaultDSN
	}
	query, err := textArg(target, args[1])
	if err != nil {
		return nil, "", "", nil, err
	}
	params := make([]any, 0, len(args)-2)
	for _, a := range args[2:] {
		params = append(params, toSQL(a))
	}
	db, driver, err := databases.get(dsn)
	if err != nil {
		return nil, "", "", nil, err
	}
	return db, driver, query, params, nil
}

func toSQL(v evaluator.Value) any {
	switch v := v.(type) {
	case *evaluator.Integer:
		return v.Value
	case *evaluator.Text:
		return v.Value
	case *evaluator.Boolean:
		return v.Value
	case *evaluator.Unit:
		return nil
	}
	return v.Inspect()
}

func dbError(driver, op string, err error) error {
	return gerrors.Wrap("DB-0001", err, map[string]any{"Driver": driver, "Operation": op})
}
