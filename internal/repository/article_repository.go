package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"articlehub/internal/model"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
)

// Connector hands out one connection per call. *db.Postgres satisfies it.
type Connector interface {
	Conn(ctx context.Context) (*sqlx.Conn, error)
}

type ArticleRepository struct {
	db Connector
}

func NewArticleRepository(db Connector) *ArticleRepository {
	return &ArticleRepository{db: db}
}

const articleColumns = `id, title, raw_content, direct_link, created_at, updated_at`

type articleRow struct {
	ID         int64          `db:"id"`
	Title      string         `db:"title"`
	RawContent sql.NullString `db:"raw_content"`
	DirectLink sql.NullString `db:"direct_link"`
	CreatedAt  sql.NullTime   `db:"created_at"`
	UpdatedAt  sql.NullTime   `db:"updated_at"`
}

func (r articleRow) toModel() model.Article {
	return model.Article{
		ID:         r.ID,
		Title:      r.Title,
		RawContent: r.RawContent.String,
		DirectLink: r.DirectLink.String,
		CreatedAt:  r.CreatedAt.Time,
		UpdatedAt:  r.UpdatedAt.Time,
	}
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Save inserts the article when it has no ID and updates it otherwise. On
// success the ID and timestamps returned by the database are copied into
// article; on failure article is left untouched.
func (r *ArticleRepository) Save(ctx context.Context, article *model.Article) (int64, error) {
	if article.Persisted() {
		return r.update(ctx, article)
	}
	return r.insert(ctx, article)
}

func (r *ArticleRepository) insert(ctx context.Context, article *model.Article) (int64, error) {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	var (
		id                   int64
		createdAt, updatedAt time.Time
	)
	err = conn.QueryRowxContext(ctx, `
		INSERT INTO articles (title, raw_content, direct_link)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, article.Title, nullable(article.RawContent), nullable(article.DirectLink)).Scan(&id, &createdAt, &updatedAt)
	if err != nil {
		return 0, classify(err)
	}

	article.ID = id
	article.CreatedAt = createdAt
	article.UpdatedAt = updatedAt

	slog.Debug("article inserted", "article_id", id)
	return id, nil
}

func (r *ArticleRepository) update(ctx context.Context, article *model.Article) (int64, error) {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	var createdAt, updatedAt sql.NullTime
	err = conn.QueryRowxContext(ctx, `
		UPDATE articles
		SET title = $1, raw_content = $2, direct_link = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $4
		RETURNING created_at, updated_at
	`, article.Title, nullable(article.RawContent), nullable(article.DirectLink), article.ID).Scan(&createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}

	if err != nil {
		return 0, classify(err)
	}

	article.CreatedAt = createdAt.Time
	article.UpdatedAt = updatedAt.Time

	slog.Debug("article updated", "article_id", article.ID)
	return article.ID, nil
}

// GetAll returns every article, newest first.
func (r *ArticleRepository) GetAll(ctx context.Context) ([]model.Article, error) {
	return r.selectArticles(ctx, `
		SELECT `+articleColumns+`
		FROM articles
		ORDER BY created_at DESC, id DESC
	`)
}

func (r *ArticleRepository) GetByID(ctx context.Context, id int64) (*model.Article, error) {
	return r.getArticle(ctx, `
		SELECT `+articleColumns+`
		FROM articles
		WHERE id = $1
	`, id)
}

func (r *ArticleRepository) GetByLink(ctx context.Context, directLink string) (*model.Article, error) {
	return r.getArticle(ctx, `
		SELECT `+articleColumns+`
		FROM articles
		WHERE direct_link = $1
	`, directLink)
}

// SearchByTitle matches query as a case-insensitive substring of the title.
// LIKE wildcards in query are matched literally.
func (r *ArticleRepository) SearchByTitle(ctx context.Context, query string) ([]model.Article, error) {
	return r.selectArticles(ctx, `
		SELECT `+articleColumns+`
		FROM articles
		WHERE title ILIKE $1
		ORDER BY created_at DESC, id DESC
	`, "%"+escapeLike(query)+"%")
}

// Delete removes the article's row. It fails with ErrMissingID for an
// unsaved article and ErrNotFound when no row had that ID.
func (r *ArticleRepository) Delete(ctx context.Context, article *model.Article) error {
	if !article.Persisted() {
		return ErrMissingID
	}

	conn, err := r.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	res, err := conn.ExecContext(ctx, `
		DELETE FROM articles WHERE id = $1
	`, article.ID)
	if err != nil {
		return classify(err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return classify(err)
	}

	if deleted == 0 {
		return ErrNotFound
	}

	slog.Debug("article deleted", "article_id", article.ID)
	return nil
}

func (r *ArticleRepository) getArticle(ctx context.Context, query string, args ...any) (*model.Article, error) {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var row articleRow
	err = conn.GetContext(ctx, &row, query, args...)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, classify(err)
	}

	a := row.toModel()
	return &a, nil
}

func (r *ArticleRepository) selectArticles(ctx context.Context, query string, args ...any) ([]model.Article, error) {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var rows []articleRow
	if err := conn.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, classify(err)
	}

	return lo.Map(rows, func(row articleRow, _ int) model.Article {
		return row.toModel()
	}), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
