package mongo

import (
	"context"
	"errors"
	"testing"

	"log/slog"

	"github.com/courierhub-platform/internal/domain/ledger"
	"github.com/courierhub-platform/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"
)

type MockVendorTransactionRepository struct {
	mock.Mock
}

func (m *MockVendorTransactionRepository) Create(ctx context.Context, txn *ledger.VendorTransaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockVendorTransactionRepository) GetByID(ctx context.Context, id string) (*ledger.VendorTransaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.VendorTransaction), args.Error(1)
}

func (m *MockVendorTransactionRepository) FindByDriverTransactionID(ctx context.Context, driverTransactionID string) (*ledger.VendorTransaction, error) {
	args := m.Called(ctx, driverTransactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.VendorTransaction), args.Error(1)
}

func (m *MockVendorTransactionRepository) FindByOrderID(ctx context.Context, orderID string) (*ledger.VendorTransaction, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.VendorTransaction), args.Error(1)
}

func (m *MockVendorTransactionRepository) ListByVendorID(ctx context.Context, vendorID string, limit, offset int) ([]*ledger.VendorTransaction, error) {
	args := m.Called(ctx, vendorID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.VendorTransaction), args.Error(1)
}

func (m *MockVendorTransactionRepository) CountByVendorID(ctx context.Context, vendorID string) (int64, error) {
	args := m.Called(ctx, vendorID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVendorTransactionRepository) ApplyRemittance(ctx context.Context, id string, update ledger.RemittanceUpdate) error {
	args := m.Called(ctx, id, update)
	return args.Error(0)
}

func (m *MockVendorTransactionRepository) Query(ctx context.Context, query ledger.TransactionQuery) ([]*ledger.VendorTransaction, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.VendorTransaction), args.Error(1)
}

func TestNewVendorTransactionRepository(t *testing.T) {
	db := &mongo.Database{}
	logger := slog.Default()

	repo := NewVendorTransactionRepository(logger, db)

	assert.NotNil(t, repo)
	assert.IsType(t, &VendorTransactionRepository{}, repo)
}

func TestVendorTransactionRepository_FindByDriverTransactionID(t *testing.T) {
	mockRepo := &MockVendorTransactionRepository{}

	driverTxnID := uuid.NewString()
	expected := &ledger.VendorTransaction{
		ID:                  uuid.NewString(),
		DriverTransactionID: driverTxnID,
		OrderID:             uuid.NewString(),
		VendorID:            uuid.NewString(),
		NetAmount:           288.45,
		CommissionAmount:    32.05,
		Status:              shared.TransactionStatusPending,
	}

	tests := []struct {
		name          string
		setupMocks    func()
		expectedTxn   *ledger.VendorTransaction
		expectedError error
	}{
		{
			name: "counterpart found",
			setupMocks: func() {
				mockRepo.On("FindByDriverTransactionID", mock.Anything, driverTxnID).Return(expected, nil)
			},
			expectedTxn:   expected,
			expectedError: nil,
		},
		{
			name: "no counterpart yet",
			setupMocks: func() {
				mockRepo.On("FindByDriverTransactionID", mock.Anything, driverTxnID).Return(nil, nil)
			},
			expectedTxn:   nil,
			expectedError: nil,
		},
		{
			name: "database error",
			setupMocks: func() {
				mockRepo.On("FindByDriverTransactionID", mock.Anything, driverTxnID).Return(nil, errors.New("db error"))
			},
			expectedTxn:   nil,
			expectedError: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo = &MockVendorTransactionRepository{}
			tt.setupMocks()

			ctx := context.Background()
			txn, err := mockRepo.FindByDriverTransactionID(ctx, driverTxnID)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError.Error())
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expectedTxn, txn)

			mockRepo.AssertExpectations(t)
		})
	}
}

// Verify interface implementation
var _ ledger.VendorTransactionRepository = (*MockVendorTransactionRepository)(nil)
