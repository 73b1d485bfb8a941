package migrate

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/angelmondragon/homeplast-storefront/pkg/config"
)

// Open returns a plain database/sql handle for running migrations, together with
// its goose dialect. Postgres goes through lib/pq so schema changes do not share
// the application's pgx pool; the handle is not pinged.
func Open(cfg config.DBConfig) (*sql.DB, string, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, "", fmt.Errorf("database DSN is required")
	}
	if cfg.IsSQLite() {
		sqlDB, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, "", fmt.Errorf("opening sqlite3: %w", err)
		}
		return sqlDB, "sqlite3", nil
	}
	connector, err := pq.NewConnector(dsn)
	if err != nil {
		return nil, "", fmt.Errorf("parsing postgres dsn: %w", err)
	}
	sqlDB := sql.OpenDB(connector)
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	return sqlDB, "postgres", nil
}
