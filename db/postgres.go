package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"articlehub/internal/config"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// ErrConnection marks failures to reach PostgreSQL, as opposed to
// failures of a statement that did reach it.
var ErrConnection = errors.New("database connection failed")

type Postgres struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

// Connect opens the pool described by cfg. No connection is made until the
// first call to Conn; use TestConnection to check reachability.
func Connect(cfg config.Database) (*Postgres, error) {
	if cfg.Host == "" || cfg.Name == "" {
		slog.Warn("database host or name is empty", "host", cfg.Host, "name", cfg.Name)
	}

	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return NewPostgres(db), nil
}

// Conn checks out one connection. Callers must Close it.
func (p *Postgres) Conn(ctx context.Context) (*sqlx.Conn, error) {
	conn, err := p.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	return conn, nil
}

// TestConnection runs SELECT 1 on a fresh checkout and reports whether a row
// came back. It never returns an error.
func (p *Postgres) TestConnection(ctx context.Context) bool {
	conn, err := p.Conn(ctx)
	if err != nil {
		slog.Error("database connection test failed", "error", err)
		return false
	}
	defer conn.Close()

	var one int
	if err := conn.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		slog.Error("database connection test failed", "error", err)
		return false
	}

	return one == 1
}

func (p *Postgres) Close() {
	if p.db != nil {
		p.db.Close()
	}
}
