package service_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogrepo "github.com/rxreturn/rxreturn-backend/internal/catalog/repository"
	"github.com/rxreturn/rxreturn-backend/internal/credits/estimator"
	"github.com/rxreturn/rxreturn-backend/internal/optimization/repository"
	"github.com/rxreturn/rxreturn-backend/internal/optimization/service"
	"github.com/rxreturn/rxreturn-backend/pkg/config"
	"github.com/rxreturn/rxreturn-backend/pkg/database"
	apperrors "github.com/rxreturn/rxreturn-backend/pkg/errors"
	"github.com/rxreturn/rxreturn-backend/pkg/logger"
	"github.com/rxreturn/rxreturn-backend/pkg/testutil"
)

const (
	testPharmacyID    = "11111111-1111-1111-1111-111111111111"
	testDistributorID = "22222222-2222-2222-2222-222222222222"
	testNDC           = "00002-3227-30"
)

func newTestService(t *testing.T) (*service.OptimizationService, *testutil.MockDB) {
	t.Helper()
	mockDB := testutil.NewMockDB(t)
	log := logger.New("test", "test")
	db := database.Wrap(mockDB.DB, log)

	svc := service.NewOptimizationService(
		catalogrepo.NewReportRepository(db),
		catalogrepo.NewDistributorRepository(db),
		repository.NewPackageRepository(db),
		nil, // inventory not touched by these flows
		estimator.New(config.PricingConfig{CommissionRatePct: 5}),
		nil, // events are best-effort and nil-safe
		log,
	)
	return svc, mockDB
}

var reportColumns = []string{"id", "distributor_id", "ndc", "unit_type", "price_per_unit", "report_date", "created_at"}

var distributorColumns = []string{
	"id", "name", "contact_email", "contact_phone", "address", "city",
	"state", "zip", "supported_formats", "is_active", "created_at", "updated_at",
}

var packageColumns = []string{
	"id", "package_number", "pharmacy_id", "distributor_id", "total_items",
	"total_estimated_value", "delivered", "delivery_date", "received_by",
	"delivery_condition", "tracking_number", "created_at", "updated_at",
}

// expectSuggestionRound queues the three reads one SuggestPackages call
// issues: report history, distributor names, then the open-package lookup.
func expectSuggestionRound(mockDB *testutil.MockDB, openPackage *sqlmock.Rows) {
	now := time.Now()
	mockDB.ExpectQuery("SELECT").
		WillReturnRows(testutil.MockRows(reportColumns...).
			AddRow("rec-1", testDistributorID, testNDC, "full", "10.00", now.AddDate(0, -1, 0), now))
	mockDB.ExpectQuery("SELECT").
		WillReturnRows(testutil.MockRows(distributorColumns...).
			AddRow(testDistributorID, "Acme Returns", nil, nil, nil, nil, nil, nil, "{}", true, now, now))
	mockDB.ExpectQuery("SELECT").WillReturnRows(openPackage)
}

func TestSuggestPackages_IdempotentUntilCreated(t *testing.T) {
	svc, mockDB := newTestService(t)
	defer mockDB.Close()

	ctx := context.Background()
	now := time.Now()
	inputs := []service.ItemInput{{NDC: testNDC, Full: 2}}

	// Two suggestion rounds with no open package: read-only, no flag set
	expectSuggestionRound(mockDB, testutil.MockRows(packageColumns...))
	expectSuggestionRound(mockDB, testutil.MockRows(packageColumns...))

	for round := 0; round < 2; round++ {
		result, err := svc.SuggestPackages(ctx, testPharmacyID, inputs)
		require.NoError(t, err)

		require.Len(t, result.Suggestions, 1)
		suggestion := result.Suggestions[0]
		assert.False(t, suggestion.AlreadyCreated)
		assert.Nil(t, suggestion.ExistingPackage)
		assert.Equal(t, testDistributorID, suggestion.DistributorID)
		assert.Equal(t, "Acme Returns", suggestion.DistributorName)
		assert.Equal(t, 2, suggestion.TotalItems)
		assert.True(t, suggestion.EstimatedValue.Equal(decimal.NewFromInt(20)))
		assert.True(t, suggestion.Commission.Equal(decimal.NewFromInt(1)))
		assert.True(t, suggestion.NetValue.Equal(decimal.NewFromInt(19)))
	}

	// Create the suggested package
	mockDB.ExpectQuery("SELECT").
		WillReturnRows(testutil.MockRows(distributorColumns...).
			AddRow(testDistributorID, "Acme Returns", nil, nil, nil, nil, nil, nil, "{}", true, now, now))
	mockDB.ExpectQuery("SELECT").
		WillReturnRows(testutil.MockRows(reportColumns...).
			AddRow("rec-1", testDistributorID, testNDC, "full", "10.00", now.AddDate(0, -1, 0), now))
	mockDB.ExpectBegin()
	mockDB.ExpectQuery("INSERT INTO custom_packages").
		WillReturnRows(testutil.MockRows("created_at", "updated_at").AddRow(now, now))
	mockDB.ExpectExec("INSERT INTO custom_package_items").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	created, err := svc.CreatePackage(ctx, testPharmacyID, testDistributorID, inputs)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	// Same suggestion now reports the open package
	openRow := testutil.MockRows(packageColumns...).
		AddRow(created.ID, created.PackageNumber, testPharmacyID, testDistributorID, 2,
			"20.00", false, nil, nil, nil, nil, now, now)
	expectSuggestionRound(mockDB, openRow)
	mockDB.ExpectQuery("SELECT").
		WillReturnRows(testutil.MockRows("id", "distributor_id", "duration_days", "percentage", "effective_date", "created_at").
			AddRow("fee-1", testDistributorID, 30, "10.00", now.AddDate(0, -2, 0), now))

	result, err := svc.SuggestPackages(ctx, testPharmacyID, inputs)
	require.NoError(t, err)

	require.Len(t, result.Suggestions, 1)
	suggestion := result.Suggestions[0]
	assert.True(t, suggestion.AlreadyCreated)
	require.NotNil(t, suggestion.ExistingPackage)
	assert.Equal(t, created.ID, suggestion.ExistingPackage.ID)
	assert.Equal(t, created.PackageNumber, suggestion.ExistingPackage.PackageNumber)
	require.NotNil(t, suggestion.ExistingPackage.FeeDurationDays)
	assert.Equal(t, 30, *suggestion.ExistingPackage.FeeDurationDays)

	mockDB.ExpectationsWereMet(t)
}

func TestDeletePackage_RejectsDelivered(t *testing.T) {
	svc, mockDB := newTestService(t)
	defer mockDB.Close()

	now := time.Now()
	deliveredAt := now.AddDate(0, 0, -1)
	mockDB.ExpectQuery("SELECT").
		WillReturnRows(testutil.MockRows(packageColumns...).
			AddRow("pkg-1", "PKG-20260831142500-0001", testPharmacyID, testDistributorID, 2,
				"20.00", true, deliveredAt, "J. Doe", nil, nil, now, now))
	mockDB.ExpectQuery("SELECT").
		WillReturnRows(testutil.MockRows("id", "package_id", "ndc", "product_name", "full_count", "partial_count", "estimated_value", "created_at"))

	err := svc.DeletePackage(context.Background(), testPharmacyID, "pkg-1")

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
	assert.Equal(t, "cannot delete a package in status delivered", appErr.Message)
	mockDB.ExpectationsWereMet(t)
}

func TestSetPackageDelivered_NoOpWhenStateUnchanged(t *testing.T) {
	svc, mockDB := newTestService(t)
	defer mockDB.Close()

	now := time.Now()
	mockDB.ExpectQuery("SELECT").
		WillReturnRows(testutil.MockRows(packageColumns...).
			AddRow("pkg-1", "PKG-20260831142500-0001", testPharmacyID, testDistributorID, 2,
				"20.00", false, nil, nil, nil, nil, now, now))
	mockDB.ExpectQuery("SELECT").
		WillReturnRows(testutil.MockRows("id", "package_id", "ndc", "product_name", "full_count", "partial_count", "estimated_value", "created_at"))

	// No UPDATE is expected: toggling to the current state returns as-is
	pkg, err := svc.SetPackageDelivered(context.Background(), testPharmacyID, "pkg-1", service.DeliveryInput{Delivered: false})
	require.NoError(t, err)

	assert.Equal(t, "pkg-1", pkg.ID)
	assert.False(t, pkg.Delivered)
	mockDB.ExpectationsWereMet(t)
}
