// internal/services/review_service_test.go
package services

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return db, mock
}

func TestRoundRating(t *testing.T) {
	tests := []struct {
		avg  float64
		want float64
	}{
		{0, 0},
		{5, 5},
		{4.266666, 4.27},
		{4.264999, 4.26},
		{3.333333, 3.33},
		{1.111111, 1.11},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, RoundRating(tt.avg), 0.0001, "avg %v", tt.avg)
	}
}

func TestRecomputeBusinessRatingWritesRoundedMean(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewReviewService(db)
	businessID := uuid.New()

	// 3 approved reviews averaging 4.266... must land as 4.27.
	mock.ExpectQuery(`SELECT COALESCE\(AVG\(rating\), 0\) as avg, COUNT\(\*\) as count FROM "reviews"`).
		WillReturnRows(sqlmock.NewRows([]string{"avg", "count"}).AddRow(4.266666666, 3))
	mock.ExpectExec(`UPDATE "businesses" SET`).
		WithArgs(4.27, int64(3), businessID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := service.RecomputeBusinessRating(businessID)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReviewDuplicateIsConflict(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewReviewService(db)

	businessID := uuid.New()
	userID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "businesses" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).
			AddRow(businessID, "approved"))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "reviews"`).
		WithArgs(businessID, userID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	review, err := service.CreateReview(userID, &CreateReviewRequest{
		BusinessID: businessID,
		Rating:     5,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Nil(t, review)

	// The duplicate is rejected before any insert or aggregate update.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecomputeBusinessRatingResetsToZero(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewReviewService(db)
	businessID := uuid.New()

	// No approved reviews left: both aggregate columns reset to 0.
	mock.ExpectQuery(`SELECT COALESCE\(AVG\(rating\), 0\) as avg, COUNT\(\*\) as count FROM "reviews"`).
		WillReturnRows(sqlmock.NewRows([]string{"avg", "count"}).AddRow(0.0, 0))
	mock.ExpectExec(`UPDATE "businesses" SET`).
		WithArgs(0.0, int64(0), businessID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := service.RecomputeBusinessRating(businessID)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
