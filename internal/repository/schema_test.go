package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/assert/v2"
	"github.com/lib/pq"
)

func TestTableExists(t *testing.T) {
	repo, mock, _ := newMockRepository(t)

	mock.ExpectQuery(q("FROM information_schema.tables")).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.TableExists(context.Background())

	assert.Equal(t, nil, err)
	assert.Equal(t, true, exists)
}

func TestTableExists_CheckFails(t *testing.T) {
	repo, mock, _ := newMockRepository(t)

	mock.ExpectQuery(q("FROM information_schema.tables")).
		WillReturnError(&pq.Error{Code: "57P01", Message: "terminating connection due to administrator command"})

	exists, err := repo.TableExists(context.Background())

	assert.Equal(t, false, exists)
	assert.NotEqual(t, nil, err)
}

func TestResetTable_DropsCreatesAndVerifies(t *testing.T) {
	repo, mock, _ := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(q("DROP TABLE IF EXISTS articles")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q("CREATE TABLE articles (")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q("CREATE INDEX IF NOT EXISTS idx_articles_title ON articles(title)")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q("CREATE INDEX IF NOT EXISTS idx_articles_direct_link ON articles(direct_link)")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectQuery(q("FROM information_schema.tables")).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.ResetTable(context.Background())

	assert.Equal(t, nil, err)
	assert.Equal(t, true, ok)
	assert.Equal(t, nil, mock.ExpectationsWereMet())
}

func TestResetTable_RollsBackOnFailure(t *testing.T) {
	repo, mock, _ := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(q("DROP TABLE IF EXISTS articles")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q("CREATE TABLE articles (")).WillReturnError(&pq.Error{Code: "42501", Message: "permission denied for schema public"})
	mock.ExpectRollback()

	ok, err := repo.ResetTable(context.Background())

	assert.Equal(t, false, ok)
	assert.NotEqual(t, nil, err)
	assert.Equal(t, nil, mock.ExpectationsWereMet())
}

func TestResetTable_VerificationFails(t *testing.T) {
	repo, mock, _ := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(q("DROP TABLE")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q("CREATE TABLE")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q("CREATE INDEX")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q("CREATE INDEX")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectQuery(q("FROM information_schema.tables")).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	ok, err := repo.ResetTable(context.Background())

	assert.Equal(t, nil, err)
	assert.Equal(t, false, ok)
}

func TestEnsureTable_DoesNotDrop(t *testing.T) {
	repo, mock, _ := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(q("CREATE TABLE IF NOT EXISTS articles (")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q("idx_articles_title")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q("idx_articles_direct_link")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.EnsureTable(context.Background())

	assert.Equal(t, nil, err)
	assert.Equal(t, nil, mock.ExpectationsWereMet())
}

func TestTableStructure(t *testing.T) {
	repo, mock, _ := newMockRepository(t)

	cols := []string{"column_name", "data_type", "character_maximum_length", "is_nullable", "column_default"}
	mock.ExpectQuery(q("ORDER BY ordinal_position")).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("id", "integer", nil, "NO", "nextval('articles_id_seq'::regclass)").
			AddRow("title", "character varying", int64(500), "NO", nil).
			AddRow("raw_content", "text", nil, "YES", nil))

	columns, err := repo.TableStructure(context.Background())

	assert.Equal(t, nil, err)
	assert.Equal(t, 3, len(columns))
	assert.Equal(t, "id", columns[0].Name)
	assert.Equal(t, false, columns[0].Nullable)
	assert.Equal(t, "nextval('articles_id_seq'::regclass)", *columns[0].Default)
	assert.Equal(t, true, columns[0].MaxLength == nil)
	assert.Equal(t, int64(500), *columns[1].MaxLength)
	assert.Equal(t, true, columns[1].Default == nil)
	assert.Equal(t, true, columns[2].Nullable)
}

func TestTableStructure_Failure(t *testing.T) {
	repo, mock, mockDB := newMockRepository(t)
	mockDB.Close()

	columns, err := repo.TableStructure(context.Background())

	assert.Equal(t, 0, len(columns))
	assert.Equal(t, false, errors.Is(err, ErrNotFound))
	assert.NotEqual(t, nil, err)
	assert.Equal(t, nil, mock.ExpectationsWereMet())
}
