package repository

import (
	"context"
	"errors"
	"os"
	"strconv"
	"testing"
	"time"

	"articlehub/db"
	"articlehub/internal/config"
	"articlehub/internal/model"

	"github.com/go-playground/assert/v2"
	"github.com/samber/lo"
)

// newIntegrationRepository connects to the database named by TEST_DB_* and
// resets the articles table. Tests are skipped when TEST_DB_HOST is unset.
func newIntegrationRepository(t *testing.T) *ArticleRepository {
	t.Helper()

	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping PostgreSQL integration test")
	}

	port := 5432
	if p := os.Getenv("TEST_DB_PORT"); p != "" {
		var err error
		if port, err = strconv.Atoi(p); err != nil {
			t.Fatalf("TEST_DB_PORT: %v", err)
		}
	}

	pg, err := db.Connect(config.Database{
		Host:            host,
		Port:            port,
		Name:            os.Getenv("TEST_DB_NAME"),
		User:            os.Getenv("TEST_DB_USER"),
		Password:        os.Getenv("TEST_DB_PASSWORD"),
		SSLMode:         "disable",
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pg.Close)

	if !pg.TestConnection(context.Background()) {
		t.Fatalf("database at %s is not reachable", host)
	}

	repo := NewArticleRepository(pg)
	ok, err := repo.ResetTable(context.Background())
	if err != nil || !ok {
		t.Fatalf("reset table: ok=%v err=%v", ok, err)
	}

	return repo
}

func TestIntegration_InsertAssignsIDAndEqualTimestamps(t *testing.T) {
	repo := newIntegrationRepository(t)
	ctx := context.Background()

	a := &model.Article{Title: "Quarterly Report", RawContent: "numbers", DirectLink: "https://example.com/q"}
	id, err := repo.Save(ctx, a)

	assert.Equal(t, nil, err)
	assert.Equal(t, true, id > 0)
	assert.Equal(t, id, a.ID)
	assert.Equal(t, true, a.CreatedAt.Equal(a.UpdatedAt))
}

func TestIntegration_UpdateRefreshesOnlyUpdatedAt(t *testing.T) {
	repo := newIntegrationRepository(t)
	ctx := context.Background()

	a := &model.Article{Title: "Draft title"}
	_, err := repo.Save(ctx, a)
	assert.Equal(t, nil, err)

	created, firstUpdate := a.CreatedAt, a.UpdatedAt
	time.Sleep(10 * time.Millisecond)

	a.Title = "Final title"
	id, err := repo.Save(ctx, a)

	assert.Equal(t, nil, err)
	assert.Equal(t, a.ID, id)
	assert.Equal(t, true, a.UpdatedAt.After(firstUpdate))
	assert.Equal(t, true, a.CreatedAt.Equal(created))

	stored, err := repo.GetByID(ctx, id)
	assert.Equal(t, nil, err)
	assert.Equal(t, "Final title", stored.Title)
}

func TestIntegration_UpdateMissingRowIsNotFound(t *testing.T) {
	repo := newIntegrationRepository(t)

	_, err := repo.Save(context.Background(), &model.Article{ID: 9999, Title: "ghost"})

	assert.Equal(t, ErrNotFound, err)
}

func TestIntegration_DuplicateLinkRejected(t *testing.T) {
	repo := newIntegrationRepository(t)
	ctx := context.Background()
	link := "https://example.com/same"

	_, err := repo.Save(ctx, &model.Article{Title: "first", DirectLink: link})
	assert.Equal(t, nil, err)

	second := &model.Article{Title: "second", DirectLink: link}
	id, err := repo.Save(ctx, second)

	assert.Equal(t, int64(0), id)
	assert.Equal(t, true, errors.Is(err, ErrDuplicateLink))
	assert.Equal(t, false, second.Persisted())

	all, err := repo.GetAll(ctx)
	assert.Equal(t, nil, err)
	withLink := lo.Filter(all, func(a model.Article, _ int) bool { return a.DirectLink == link })
	assert.Equal(t, 1, len(withLink))
}

func TestIntegration_ArticlesWithoutLinkCoexist(t *testing.T) {
	repo := newIntegrationRepository(t)
	ctx := context.Background()

	_, err := repo.Save(ctx, &model.Article{Title: "no link one"})
	assert.Equal(t, nil, err)
	_, err = repo.Save(ctx, &model.Article{Title: "no link two"})
	assert.Equal(t, nil, err)
}

func TestIntegration_TitleTooLong(t *testing.T) {
	repo := newIntegrationRepository(t)

	_, err := repo.Save(context.Background(), &model.Article{Title: lo.RandomString(model.MaxTitleLength+1, lo.LettersCharset)})

	assert.Equal(t, true, errors.Is(err, ErrConstraint))
}

func TestIntegration_DeleteTwice(t *testing.T) {
	repo := newIntegrationRepository(t)
	ctx := context.Background()

	a := &model.Article{Title: "temporary"}
	_, err := repo.Save(ctx, a)
	assert.Equal(t, nil, err)

	assert.Equal(t, nil, repo.Delete(ctx, a))
	assert.Equal(t, ErrNotFound, repo.Delete(ctx, a))
}

func TestIntegration_LookupsOfUnknownValues(t *testing.T) {
	repo := newIntegrationRepository(t)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, 424242)
	assert.Equal(t, ErrNotFound, err)

	_, err = repo.GetByLink(ctx, "https://example.com/never")
	assert.Equal(t, ErrNotFound, err)
}

func TestIntegration_SearchByTitle(t *testing.T) {
	repo := newIntegrationRepository(t)
	ctx := context.Background()

	for _, title := range []string{"Quarterly Report", "report card", "Reporting standards", "Annual summary", "100% growth"} {
		_, err := repo.Save(ctx, &model.Article{Title: title})
		assert.Equal(t, nil, err)
	}

	found, err := repo.SearchByTitle(ctx, "report")
	assert.Equal(t, nil, err)

	titles := lo.Map(found, func(a model.Article, _ int) string { return a.Title })
	assert.Equal(t, 3, len(titles))
	assert.Equal(t, true, lo.Contains(titles, "Quarterly Report"))
	assert.Equal(t, true, lo.Contains(titles, "report card"))
	assert.Equal(t, true, lo.Contains(titles, "Reporting standards"))
	assert.Equal(t, false, lo.Contains(titles, "Annual summary"))

	percent, err := repo.SearchByTitle(ctx, "0%")
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(percent))

	literal, err := repo.SearchByTitle(ctx, "%")
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(literal))
}

func TestIntegration_GetAllNewestFirst(t *testing.T) {
	repo := newIntegrationRepository(t)
	ctx := context.Background()

	var ids []int64
	for _, title := range []string{"one", "two", "three"} {
		a := &model.Article{Title: title}
		_, err := repo.Save(ctx, a)
		assert.Equal(t, nil, err)
		ids = append(ids, a.ID)
	}

	all, err := repo.GetAll(ctx)
	assert.Equal(t, nil, err)
	assert.Equal(t, lo.Reverse(ids), lo.Map(all, func(a model.Article, _ int) int64 { return a.ID }))
}

func TestIntegration_ResetDiscardsEnsureKeeps(t *testing.T) {
	repo := newIntegrationRepository(t)
	ctx := context.Background()

	exists, err := repo.TableExists(ctx)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, exists)

	_, err = repo.Save(ctx, &model.Article{Title: "kept"})
	assert.Equal(t, nil, err)

	assert.Equal(t, nil, repo.EnsureTable(ctx))
	all, _ := repo.GetAll(ctx)
	assert.Equal(t, 1, len(all))

	ok, err := repo.ResetTable(ctx)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, ok)

	all, err = repo.GetAll(ctx)
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, len(all))
}

func TestIntegration_TableStructure(t *testing.T) {
	repo := newIntegrationRepository(t)

	columns, err := repo.TableStructure(context.Background())

	assert.Equal(t, nil, err)
	names := lo.Map(columns, func(c model.Column, _ int) string { return c.Name })
	assert.Equal(t, []string{"id", "title", "raw_content", "direct_link", "created_at", "updated_at"}, names)
	assert.Equal(t, int64(1000), *columns[3].MaxLength)
	assert.Equal(t, false, columns[1].Nullable)
}
