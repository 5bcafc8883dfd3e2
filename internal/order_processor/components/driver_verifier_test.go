package components

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/courierhub-platform/internal/domain/driver"
)

type MockDriverRepo struct {
	mock.Mock
}

func (m *MockDriverRepo) Create(ctx context.Context, d *driver.Driver) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDriverRepo) GetByID(ctx context.Context, id uuid.UUID) (*driver.Driver, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*driver.Driver), args.Error(1)
}

func (m *MockDriverRepo) GetByPhone(ctx context.Context, phone string) (*driver.Driver, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*driver.Driver), args.Error(1)
}

func (m *MockDriverRepo) List(ctx context.Context, limit, offset int) ([]*driver.Driver, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*driver.Driver), args.Error(1)
}

func (m *MockDriverRepo) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDriverRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status driver.Status) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockDriverRepo) AdjustCashOnHand(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	args := m.Called(ctx, id, delta)
	return args.Error(0)
}

func (m *MockDriverRepo) WithTx(tx pgx.Tx) driver.Repository {
	args := m.Called(tx)
	return args.Get(0).(driver.Repository)
}

func TestDriverVerifier_VerifyEligible(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	driverID := uuid.New()

	t.Run("ActiveDriverPasses", func(t *testing.T) {
		mockRepo := &MockDriverRepo{}
		verifier := NewDriverVerifier(mockRepo, logger)

		d := &driver.Driver{
			ID:         driverID,
			Name:       "Omar Fekri",
			Phone:      "+971501234567",
			Status:     driver.StatusActive,
			CashOnHand: decimal.Zero,
		}
		mockRepo.On("GetByID", mock.Anything, driverID).Return(d, nil).Once()

		got, err := verifier.VerifyEligible(context.Background(), driverID.String())

		assert.NoError(t, err)
		assert.Equal(t, driverID, got.ID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("UnknownDriverReturnsNotFound", func(t *testing.T) {
		mockRepo := &MockDriverRepo{}
		verifier := NewDriverVerifier(mockRepo, logger)

		mockRepo.On("GetByID", mock.Anything, driverID).
			Return(nil, driver.ErrDriverNotFound{DriverID: driverID}).Once()

		got, err := verifier.VerifyEligible(context.Background(), driverID.String())

		assert.Nil(t, got)
		assert.ErrorIs(t, err, driver.ErrDriverNotFound{})
		mockRepo.AssertExpectations(t)
	})

	t.Run("SuspendedDriverRejected", func(t *testing.T) {
		mockRepo := &MockDriverRepo{}
		verifier := NewDriverVerifier(mockRepo, logger)

		d := &driver.Driver{
			ID:     driverID,
			Name:   "Omar Fekri",
			Status: driver.StatusSuspended,
		}
		mockRepo.On("GetByID", mock.Anything, driverID).Return(d, nil).Once()

		got, err := verifier.VerifyEligible(context.Background(), driverID.String())

		assert.Nil(t, got)
		assert.ErrorIs(t, err, driver.ErrNotActive)
		mockRepo.AssertExpectations(t)
	})

	t.Run("UnparseableIDTreatedAsNotFound", func(t *testing.T) {
		mockRepo := &MockDriverRepo{}
		verifier := NewDriverVerifier(mockRepo, logger)

		got, err := verifier.VerifyEligible(context.Background(), "not-a-uuid")

		assert.Nil(t, got)
		assert.ErrorIs(t, err, driver.ErrDriverNotFound{})
		mockRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("RepositoryErrorPassesThrough", func(t *testing.T) {
		mockRepo := &MockDriverRepo{}
		verifier := NewDriverVerifier(mockRepo, logger)

		mockRepo.On("GetByID", mock.Anything, driverID).
			Return(nil, errors.New("connection refused")).Once()

		got, err := verifier.VerifyEligible(context.Background(), driverID.String())

		assert.Nil(t, got)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, driver.ErrDriverNotFound{})
		mockRepo.AssertExpectations(t)
	})
}
