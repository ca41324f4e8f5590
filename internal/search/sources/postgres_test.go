// internal/search/sources/postgres_test.go
package sources

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	stderrors "expert-search/internal/common/errors"
	"expert-search/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var expertColumns = []string{"id", "name", "headline", "skills", "bio", "availability"}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestPostgresDirectory_ListAllCandidates(t *testing.T) {
	db, mock := setupMockDB(t)
	dir := NewPostgresDirectory(db, 500, 20, logger.NewTestLogger(t))

	mock.ExpectQuery(regexp.QuoteMeta("FROM experts")).
		WithArgs(500).
		WillReturnRows(sqlmock.NewRows(expertColumns).
			AddRow("e-1", "Ana", "UX lead", "figma, research ,", nil, "weekends").
			AddRow("e-2", "Ben", nil, nil, "bio", nil))

	candidates, err := dir.ListAllCandidates(context.Background())

	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, []string{"figma", "research"}, candidates[0].Skills)
	assert.Equal(t, "weekends", candidates[0].Availability)
	assert.Empty(t, candidates[1].Headline)
	assert.Nil(t, candidates[1].Skills)
	assert.Empty(t, candidates[1].Availability)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDirectory_ListAllCandidates_Empty(t *testing.T) {
	db, mock := setupMockDB(t)
	dir := NewPostgresDirectory(db, 10, 10, logger.NewTestLogger(t))

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY name")).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows(expertColumns))

	candidates, err := dir.ListAllCandidates(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, candidates)
	assert.Empty(t, candidates)
}

func TestPostgresDirectory_PlainLookup_EscapesPattern(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		pattern string
	}{
		{name: "plain", query: "design", pattern: "%design%"},
		{name: "trimmed", query: "  go  ", pattern: "%go%"},
		{name: "wildcards escaped", query: "100%_match", pattern: `%100\%\_match%`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			dir := NewPostgresDirectory(db, 500, 20, logger.NewTestLogger(t))

			mock.ExpectQuery(regexp.QuoteMeta("ILIKE $1")).
				WithArgs(tt.pattern, 20).
				WillReturnRows(sqlmock.NewRows(expertColumns).AddRow("e-1", "Ana", "", "", "", "mon"))

			candidates, err := dir.PlainLookup(context.Background(), tt.query)

			require.NoError(t, err)
			assert.Len(t, candidates, 1)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresDirectory_Errors(t *testing.T) {
	t.Run("listing query error", func(t *testing.T) {
		db, mock := setupMockDB(t)
		dir := NewPostgresDirectory(db, 5, 5, logger.NewTestLogger(t))
		mock.ExpectQuery("SELECT").WillReturnError(errors.New("connection reset"))

		_, err := dir.ListAllCandidates(context.Background())

		require.Error(t, err)
		assert.Equal(t, stderrors.ErrCodeCandidateListingFailed, stderrors.AsStandardError(err).Code)
	})

	t.Run("lookup scan error", func(t *testing.T) {
		db, mock := setupMockDB(t)
		dir := NewPostgresDirectory(db, 5, 5, logger.NewTestLogger(t))
		mock.ExpectQuery("SELECT").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("e-1"))

		_, err := dir.PlainLookup(context.Background(), "x")

		require.Error(t, err)
		assert.Equal(t, stderrors.ErrCodePlainLookupFailed, stderrors.AsStandardError(err).Code)
	})

	t.Run("row iteration error", func(t *testing.T) {
		db, mock := setupMockDB(t)
		dir := NewPostgresDirectory(db, 5, 5, logger.NewTestLogger(t))
		mock.ExpectQuery("SELECT").
			WillReturnRows(sqlmock.NewRows(expertColumns).
				AddRow("e-1", "Ana", "", "", "", "").
				RowError(0, errors.New("broken stream")))

		_, err := dir.ListAllCandidates(context.Background())

		require.Error(t, err)
	})
}

func TestSplitSkills(t *testing.T) {
	assert.Nil(t, splitSkills(""))
	assert.Nil(t, splitSkills("   "))
	assert.Equal(t, []string{"go", "k8s"}, splitSkills("go,k8s"))
	assert.Equal(t, []string{"a"}, splitSkills(" ,a, "))
}
