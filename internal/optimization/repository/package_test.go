package repository_test

import (
	"context"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxreturn/rxreturn-backend/internal/optimization/repository"
	"github.com/rxreturn/rxreturn-backend/pkg/database"
	apperrors "github.com/rxreturn/rxreturn-backend/pkg/errors"
	"github.com/rxreturn/rxreturn-backend/pkg/logger"
	"github.com/rxreturn/rxreturn-backend/pkg/testutil"
)

func newPackageRepo(t *testing.T) (*repository.PackageRepository, *testutil.MockDB) {
	t.Helper()
	mockDB := testutil.NewMockDB(t)
	log := logger.New("test", "test")
	return repository.NewPackageRepository(database.Wrap(mockDB.DB, log)), mockDB
}

func TestNewPackageNumber(t *testing.T) {
	now := time.Date(2026, 8, 31, 14, 25, 0, 0, time.UTC)
	number := repository.NewPackageNumber(now)

	assert.Regexp(t, regexp.MustCompile(`^PKG-20260831142500-\d{4}$`), number)
}

func TestPackageRepository_Create(t *testing.T) {
	repo, mockDB := newPackageRepo(t)
	defer mockDB.Close()

	now := time.Now()
	mockDB.ExpectBegin()
	mockDB.ExpectQuery("INSERT INTO custom_packages").
		WillReturnRows(testutil.MockRows("created_at", "updated_at").AddRow(now, now))
	mockDB.ExpectExec("INSERT INTO custom_package_items").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectExec("INSERT INTO custom_package_items").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	pkg := &repository.CustomPackage{
		PackageNumber:       repository.NewPackageNumber(now),
		PharmacyID:          "11111111-1111-1111-1111-111111111111",
		DistributorID:       "22222222-2222-2222-2222-222222222222",
		TotalItems:          3,
		TotalEstimatedValue: decimal.NewFromFloat(44.00),
		Items: []*repository.CustomPackageItem{
			{NDC: "00002-3227-30", FullCount: 2, EstimatedValue: decimal.NewFromFloat(24.00)},
			{NDC: "00002-4462-30", FullCount: 1, EstimatedValue: decimal.NewFromFloat(20.00)},
		},
	}

	err := repo.Create(context.Background(), pkg)
	require.NoError(t, err)

	assert.NotEmpty(t, pkg.ID)
	assert.Equal(t, pkg.ID, pkg.Items[0].PackageID)
	assert.Equal(t, pkg.ID, pkg.Items[1].PackageID)
	mockDB.ExpectationsWereMet(t)
}

func TestPackageRepository_Create_DuplicateOpenPackage(t *testing.T) {
	repo, mockDB := newPackageRepo(t)
	defer mockDB.Close()

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("INSERT INTO custom_packages").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "idx_custom_packages_open"})
	mockDB.ExpectRollback()

	pkg := &repository.CustomPackage{
		PackageNumber: "PKG-20260831142500-0001",
		PharmacyID:    "11111111-1111-1111-1111-111111111111",
		DistributorID: "22222222-2222-2222-2222-222222222222",
	}

	err := repo.Create(context.Background(), pkg)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusConflict, appErr.StatusCode)
	assert.Equal(t, "an open package for this distributor already exists", appErr.Message)
	mockDB.ExpectationsWereMet(t)
}

func TestPackageRepository_FindOpen(t *testing.T) {
	t.Run("returns nil when no open package exists", func(t *testing.T) {
		repo, mockDB := newPackageRepo(t)
		defer mockDB.Close()

		mockDB.ExpectQuery("SELECT").
			WillReturnRows(testutil.MockRows("id"))

		pkg, err := repo.FindOpen(context.Background(), "pharmacy-1", "distributor-1")
		require.NoError(t, err)
		assert.Nil(t, pkg)
		mockDB.ExpectationsWereMet(t)
	})

	t.Run("returns the open package", func(t *testing.T) {
		repo, mockDB := newPackageRepo(t)
		defer mockDB.Close()

		now := time.Now()
		columns := []string{
			"id", "package_number", "pharmacy_id", "distributor_id", "total_items",
			"total_estimated_value", "delivered", "delivery_date", "received_by",
			"delivery_condition", "tracking_number", "created_at", "updated_at",
		}
		mockDB.ExpectQuery("SELECT").
			WillReturnRows(testutil.MockRows(columns...).
				AddRow("pkg-1", "PKG-20260831142500-0001", "pharmacy-1", "distributor-1", 3,
					"44.00", false, nil, nil, nil, nil, now, now))

		pkg, err := repo.FindOpen(context.Background(), "pharmacy-1", "distributor-1")
		require.NoError(t, err)
		require.NotNil(t, pkg)
		assert.Equal(t, "pkg-1", pkg.ID)
		assert.False(t, pkg.Delivered)
		mockDB.ExpectationsWereMet(t)
	})
}

func TestPackageRepository_MarkDelivered_NotFound(t *testing.T) {
	repo, mockDB := newPackageRepo(t)
	defer mockDB.Close()

	mockDB.ExpectExec("UPDATE custom_packages").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkDelivered(context.Background(), "missing-id", time.Now(), "J. Doe", nil, nil)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode)
	mockDB.ExpectationsWereMet(t)
}

func TestPackageRepository_Reopen_DuplicateOpenPackage(t *testing.T) {
	repo, mockDB := newPackageRepo(t)
	defer mockDB.Close()

	mockDB.ExpectExec("UPDATE custom_packages").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "idx_custom_packages_open"})

	err := repo.Reopen(context.Background(), "pkg-1")

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusConflict, appErr.StatusCode)
	mockDB.ExpectationsWereMet(t)
}

func TestPackageRepository_Delete_NotFound(t *testing.T) {
	repo, mockDB := newPackageRepo(t)
	defer mockDB.Close()

	mockDB.ExpectExec("DELETE FROM custom_packages").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "pharmacy-1", "missing-id")

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode)
	mockDB.ExpectationsWereMet(t)
}
