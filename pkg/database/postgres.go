package database

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/noah-isme/fairu-api/pkg/config"
)

//go:embed schema.sql
var schema string

// NewPostgres opens the connection pool and verifies it with a ping.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", postgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("connect postgres at %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	return db, nil
}

var dsnValueEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// postgresDSN builds a key/value connection string. Values are quoted so
// passwords may contain spaces or quotes.
func postgresDSN(cfg config.DatabaseConfig) string {
	pairs := []struct {
		key   string
		value string
	}{
		{"host", cfg.Host},
		{"port", strconv.Itoa(cfg.Port)},
		{"user", cfg.User},
		{"password", cfg.Password},
		{"dbname", cfg.Name},
		{"sslmode", cfg.SSLMode},
	}

	parts := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		if pair.value == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s='%s'", pair.key, dsnValueEscaper.Replace(pair.value)))
	}
	return strings.Join(parts, " ")
}

// MigratePostgres creates the contributor and file tables when missing.
func MigratePostgres(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
