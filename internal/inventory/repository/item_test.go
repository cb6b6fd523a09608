package repository_test

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxreturn/rxreturn-backend/internal/inventory/repository"
	"github.com/rxreturn/rxreturn-backend/pkg/database"
	apperrors "github.com/rxreturn/rxreturn-backend/pkg/errors"
	"github.com/rxreturn/rxreturn-backend/pkg/logger"
	"github.com/rxreturn/rxreturn-backend/pkg/testutil"
)

func sqlmockResult(rowsAffected int64) sql.Result {
	return sqlmock.NewResult(0, rowsAffected)
}

func newItemRepo(t *testing.T) (*repository.ItemRepository, *testutil.MockDB) {
	t.Helper()
	mockDB := testutil.NewMockDB(t)
	log := logger.New("test", "test")
	return repository.NewItemRepository(database.Wrap(mockDB.DB, log)), mockDB
}

func TestItemRepository_Create(t *testing.T) {
	repo, mockDB := newItemRepo(t)
	defer mockDB.Close()

	now := time.Now()
	mockDB.ExpectQuery("INSERT INTO inventory_items").
		WillReturnRows(testutil.MockRows("created_at", "updated_at").AddRow(now, now))

	item := &repository.InventoryItem{
		PharmacyID:     "11111111-1111-1111-1111-111111111111",
		NDC:            "00002-3227-30",
		LotNumber:      "LOT-42",
		ExpirationDate: now.AddDate(1, 0, 0),
		Quantity:       10,
		WACUnitPrice:   decimal.NewFromFloat(12.50),
	}

	err := repo.Create(context.Background(), item)
	require.NoError(t, err)

	assert.NotEmpty(t, item.ID)
	assert.Equal(t, now, item.CreatedAt)
	mockDB.ExpectationsWereMet(t)
}

func TestItemRepository_GetByID_NotFound(t *testing.T) {
	repo, mockDB := newItemRepo(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "pharmacy-1", "missing-id")

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode)
	mockDB.ExpectationsWereMet(t)
}

func TestItemRepository_List(t *testing.T) {
	repo, mockDB := newItemRepo(t)
	defer mockDB.Close()

	now := time.Now()
	columns := []string{
		"id", "pharmacy_id", "ndc", "lot_number", "expiration_date",
		"quantity", "location", "wac_unit_price", "created_at", "updated_at",
	}

	mockDB.ExpectQuery("SELECT COUNT(*) FROM inventory_items").
		WillReturnRows(testutil.MockRows("count").AddRow(2))
	mockDB.ExpectQuery("SELECT").
		WillReturnRows(testutil.MockRows(columns...).
			AddRow("item-1", "pharmacy-1", "00002-3227-30", "LOT-1", now.AddDate(0, 2, 0), 5, nil, "10.50", now, now).
			AddRow("item-2", "pharmacy-1", "00002-3227-30", "LOT-2", now.AddDate(1, 0, 0), 3, nil, "10.50", now, now))

	items, total, err := repo.List(context.Background(), "pharmacy-1", repository.ItemFilter{
		NDC:     "00002-3227-30",
		Page:    1,
		PerPage: 50,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	assert.Equal(t, "item-1", items[0].ID)
	assert.Equal(t, 5, items[0].Quantity)
	assert.True(t, items[0].WACUnitPrice.Equal(decimal.NewFromFloat(10.50)))
	mockDB.ExpectationsWereMet(t)
}

func TestItemRepository_Update_NotFound(t *testing.T) {
	repo, mockDB := newItemRepo(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("UPDATE inventory_items").WillReturnError(sql.ErrNoRows)

	item := &repository.InventoryItem{
		ID:             "item-1",
		PharmacyID:     "another-pharmacy",
		NDC:            "00002-3227-30",
		LotNumber:      "LOT-1",
		ExpirationDate: time.Now().AddDate(1, 0, 0),
		Quantity:       5,
	}

	err := repo.Update(context.Background(), item)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode)
	mockDB.ExpectationsWereMet(t)
}

func TestItemRepository_Delete(t *testing.T) {
	t.Run("deletes an owned item", func(t *testing.T) {
		repo, mockDB := newItemRepo(t)
		defer mockDB.Close()

		mockDB.ExpectExec("DELETE FROM inventory_items").
			WillReturnResult(sqlmockResult(1))

		err := repo.Delete(context.Background(), "pharmacy-1", "item-1")
		require.NoError(t, err)
		mockDB.ExpectationsWereMet(t)
	})

	t.Run("not found when scoped to another pharmacy", func(t *testing.T) {
		repo, mockDB := newItemRepo(t)
		defer mockDB.Close()

		mockDB.ExpectExec("DELETE FROM inventory_items").
			WillReturnResult(sqlmockResult(0))

		err := repo.Delete(context.Background(), "pharmacy-2", "item-1")

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, http.StatusNotFound, appErr.StatusCode)
		mockDB.ExpectationsWereMet(t)
	})
}
