package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"articlehub/internal/model"

	"github.com/samber/lo"
)

const (
	articleTableDefinition = `articles (
			id SERIAL PRIMARY KEY,
			title VARCHAR(500) NOT NULL,
			raw_content TEXT,
			direct_link VARCHAR(1000) UNIQUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`

	dropTableSQL            = `DROP TABLE IF EXISTS articles`
	createTableSQL          = `CREATE TABLE ` + articleTableDefinition
	createTableIfMissingSQL = `CREATE TABLE IF NOT EXISTS ` + articleTableDefinition

	createTitleIndexSQL = `CREATE INDEX IF NOT EXISTS idx_articles_title ON articles(title)`
	createLinkIndexSQL  = `CREATE INDEX IF NOT EXISTS idx_articles_direct_link ON articles(direct_link)`
)

// TableExists reports whether the articles table is present in the current
// schema.
func (r *ArticleRepository) TableExists(ctx context.Context) (bool, error) {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	var exists bool
	err = conn.QueryRowxContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_name = 'articles'
		)
	`).Scan(&exists)
	if err != nil {
		return false, classify(err)
	}

	return exists, nil
}

// ResetTable drops the articles table with all of its rows and creates it
// again. Use EnsureTable to create the table without losing data.
//
// The returned bool is the result of a TableExists check made after commit.
func (r *ArticleRepository) ResetTable(ctx context.Context) (bool, error) {
	slog.Warn("resetting articles table, existing rows will be discarded")

	err := r.execSchema(ctx, dropTableSQL, createTableSQL, createTitleIndexSQL, createLinkIndexSQL)
	if err != nil {
		return false, err
	}

	exists, err := r.TableExists(ctx)
	if err != nil {
		return false, err
	}

	if !exists {
		slog.Warn("articles table could not be verified after reset")
	}

	return exists, nil
}

// EnsureTable creates the articles table and its indexes if they are
// missing. Existing rows are kept.
func (r *ArticleRepository) EnsureTable(ctx context.Context) error {
	return r.execSchema(ctx, createTableIfMissingSQL, createTitleIndexSQL, createLinkIndexSQL)
}

func (r *ArticleRepository) execSchema(ctx context.Context, statements ...string) error {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", classify(err))
		}
	}

	return classify(tx.Commit())
}

type columnRow struct {
	Name      string         `db:"column_name"`
	DataType  string         `db:"data_type"`
	MaxLength sql.NullInt64  `db:"character_maximum_length"`
	Nullable  string         `db:"is_nullable"`
	Default   sql.NullString `db:"column_default"`
}

// TableStructure lists the columns of the articles table in ordinal order.
func (r *ArticleRepository) TableStructure(ctx context.Context) ([]model.Column, error) {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var rows []columnRow
	err = conn.SelectContext(ctx, &rows, `
		SELECT column_name, data_type, character_maximum_length, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = 'articles'
		ORDER BY ordinal_position
	`)
	if err != nil {
		return nil, classify(err)
	}

	return lo.Map(rows, func(row columnRow, _ int) model.Column {
		c := model.Column{
			Name:     row.Name,
			DataType: row.DataType,
			Nullable: row.Nullable == "YES",
		}
		if row.MaxLength.Valid {
			c.MaxLength = lo.ToPtr(row.MaxLength.Int64)
		}
		if row.Default.Valid {
			c.Default = lo.ToPtr(row.Default.String)
		}
		return c
	}), nil
}
