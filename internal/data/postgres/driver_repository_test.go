package postgres

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/courierhub-platform/internal/domain/driver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestDriverRepository_Create(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &DriverRepository{querier: mock, logger: logger}

	d := &driver.Driver{
		ID:         uuid.New(),
		Name:       "Test Driver",
		Phone:      "+201001234567",
		Status:     driver.StatusActive,
		CashOnHand: decimal.Zero,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	query := `
		INSERT INTO drivers \(id, name, phone, status, cash_on_hand, created_at, updated_at\)
		VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7\)
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(d.ID, d.Name, d.Phone, d.Status, d.CashOnHand, d.CreatedAt, d.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := repo.Create(ctx, d)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		expectedErr := errors.New("db error")
		mock.ExpectExec(query).
			WithArgs(d.ID, d.Name, d.Phone, d.Status, d.CashOnHand, d.CreatedAt, d.UpdatedAt).
			WillReturnError(expectedErr)

		err := repo.Create(ctx, d)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create driver")
		assert.ErrorIs(t, err, expectedErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDriverRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &DriverRepository{querier: mock, logger: logger}
	driverID := uuid.New()
	now := time.Now()

	expectedDriver := &driver.Driver{
		ID:         driverID,
		Name:       "Test Driver",
		Phone:      "+201001234567",
		Status:     driver.StatusActive,
		CashOnHand: decimal.NewFromFloat(150.75),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	query := `
		SELECT id, name, phone, status, cash_on_hand, created_at, updated_at
		FROM drivers
		WHERE id = \$1
	`
	rows := pgxmock.NewRows([]string{"id", "name", "phone", "status", "cash_on_hand", "created_at", "updated_at"}).
		AddRow(expectedDriver.ID, expectedDriver.Name, expectedDriver.Phone, expectedDriver.Status, expectedDriver.CashOnHand, expectedDriver.CreatedAt, expectedDriver.UpdatedAt)

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(driverID).WillReturnRows(rows)

		d, err := repo.GetByID(ctx, driverID)
		assert.NoError(t, err)
		assert.Equal(t, expectedDriver, d)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(driverID).WillReturnError(pgx.ErrNoRows)

		d, err := repo.GetByID(ctx, driverID)
		assert.Error(t, err)
		assert.Nil(t, d)
		var notFoundErr driver.ErrDriverNotFound
		assert.ErrorAs(t, err, &notFoundErr)
		assert.Equal(t, driverID, notFoundErr.DriverID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("some db error")
		mock.ExpectQuery(query).WithArgs(driverID).WillReturnError(dbErr)

		d, err := repo.GetByID(ctx, driverID)
		assert.Error(t, err)
		assert.Nil(t, d)
		assert.Contains(t, err.Error(), "failed to get driver")
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDriverRepository_GetByPhone(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &DriverRepository{querier: mock, logger: logger}
	phone := "+201001234567"
	now := time.Now()

	expectedDriver := &driver.Driver{
		ID:         uuid.New(),
		Name:       "Test Driver",
		Phone:      phone,
		Status:     driver.StatusActive,
		CashOnHand: decimal.Zero,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	query := `
		SELECT id, name, phone, status, cash_on_hand, created_at, updated_at
		FROM drivers
		WHERE phone = \$1
	`
	rows := pgxmock.NewRows([]string{"id", "name", "phone", "status", "cash_on_hand", "created_at", "updated_at"}).
		AddRow(expectedDriver.ID, expectedDriver.Name, expectedDriver.Phone, expectedDriver.Status, expectedDriver.CashOnHand, expectedDriver.CreatedAt, expectedDriver.UpdatedAt)

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(phone).WillReturnRows(rows)

		d, err := repo.GetByPhone(ctx, phone)
		assert.NoError(t, err)
		assert.Equal(t, expectedDriver, d)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(phone).WillReturnError(pgx.ErrNoRows)

		d, err := repo.GetByPhone(ctx, phone)
		assert.NoError(t, err) // No error, just nil driver
		assert.Nil(t, d)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDriverRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &DriverRepository{querier: mock, logger: logger}
	driverID := uuid.New()

	query := `
		UPDATE drivers
		SET status = \$1, updated_at = NOW\(\)
		WHERE id = \$2
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(driver.StatusSuspended, driverID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.UpdateStatus(ctx, driverID, driver.StatusSuspended)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(driver.StatusSuspended, driverID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0)) // 0 rows affected

		err := repo.UpdateStatus(ctx, driverID, driver.StatusSuspended)
		assert.Error(t, err)
		var notFoundErr driver.ErrDriverNotFound
		assert.ErrorAs(t, err, &notFoundErr)
		assert.Equal(t, driverID, notFoundErr.DriverID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDriverRepository_AdjustCashOnHand(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &DriverRepository{querier: mock, logger: logger}
	driverID := uuid.New()
	delta := decimal.NewFromFloat(250.50)

	query := `
		UPDATE drivers
		SET cash_on_hand = cash_on_hand \+ \$1, updated_at = NOW\(\)
		WHERE id = \$2
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(delta, driverID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.AdjustCashOnHand(ctx, driverID, delta)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("negative delta on remittance", func(t *testing.T) {
		decrement := decimal.NewFromFloat(-250.50)
		mock.ExpectExec(query).
			WithArgs(decrement, driverID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.AdjustCashOnHand(ctx, driverID, decrement)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(delta, driverID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.AdjustCashOnHand(ctx, driverID, delta)
		assert.Error(t, err)
		var notFoundErr driver.ErrDriverNotFound
		assert.ErrorAs(t, err, &notFoundErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("adjust db error")
		mock.ExpectExec(query).
			WithArgs(delta, driverID).
			WillReturnError(dbErr)

		err := repo.AdjustCashOnHand(ctx, driverID, delta)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to adjust driver cash on hand")
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDriverRepository_WithTx(t *testing.T) {
	logger := newTestLogger()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	originalRepo := &DriverRepository{querier: mockPool, logger: logger}

	mockPool.ExpectBegin()
	pgxTx, err := mockPool.Begin(context.Background())
	require.NoError(t, err)

	txRepo := originalRepo.WithTx(pgxTx)

	assert.NotNil(t, txRepo)
	assert.Equal(t, originalRepo.logger, txRepo.(*DriverRepository).logger)
	assert.Equal(t, pgxTx, txRepo.(*DriverRepository).querier, "Querier in new repo should be the transaction")

	assert.NoError(t, mockPool.ExpectationsWereMet())
}
