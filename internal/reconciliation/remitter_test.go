package reconciliation

import (
	"context"
	"errors"
	"math"
	"os"
	"strings"
	"testing"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/courierhub-platform/internal/domain/driver"
	"github.com/courierhub-platform/internal/domain/ledger"
	"github.com/courierhub-platform/internal/domain/remittance"
	"github.com/courierhub-platform/internal/domain/shared"
	"github.com/courierhub-platform/internal/platform/storage"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// MockObjectStorage mocks the storage.ObjectStorage interface
type MockObjectStorage struct {
	mock.Mock
}

var _ storage.ObjectStorage = (*MockObjectStorage)(nil)

func (m *MockObjectStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	args := m.Called(ctx, key, data, contentType)
	return args.Error(0)
}

func (m *MockObjectStorage) GenerateDownloadURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

// MockDriverTransactionRepository mocks ledger.DriverTransactionRepository
type MockDriverTransactionRepository struct {
	mock.Mock
}

var _ ledger.DriverTransactionRepository = (*MockDriverTransactionRepository)(nil)

func (m *MockDriverTransactionRepository) Create(ctx context.Context, txn *ledger.DriverTransaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockDriverTransactionRepository) GetByID(ctx context.Context, id string) (*ledger.DriverTransaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.DriverTransaction), args.Error(1)
}

func (m *MockDriverTransactionRepository) GetByOrderID(ctx context.Context, orderID string) (*ledger.DriverTransaction, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.DriverTransaction), args.Error(1)
}

func (m *MockDriverTransactionRepository) ListByDriverID(ctx context.Context, driverID string, limit, offset int) ([]*ledger.DriverTransaction, error) {
	args := m.Called(ctx, driverID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.DriverTransaction), args.Error(1)
}

func (m *MockDriverTransactionRepository) CountByDriverID(ctx context.Context, driverID string) (int64, error) {
	args := m.Called(ctx, driverID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDriverTransactionRepository) ApplyRemittance(ctx context.Context, id string, update ledger.RemittanceUpdate) error {
	args := m.Called(ctx, id, update)
	return args.Error(0)
}

func (m *MockDriverTransactionRepository) BackfillCounterpart(ctx context.Context, id, vendorTransactionID string) error {
	args := m.Called(ctx, id, vendorTransactionID)
	return args.Error(0)
}

func (m *MockDriverTransactionRepository) Query(ctx context.Context, query ledger.TransactionQuery) ([]*ledger.DriverTransaction, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.DriverTransaction), args.Error(1)
}

// MockVendorTransactionRepository mocks ledger.VendorTransactionRepository
type MockVendorTransactionRepository struct {
	mock.Mock
}

var _ ledger.VendorTransactionRepository = (*MockVendorTransactionRepository)(nil)

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

// MockDriverRepository mocks driver.Repository
type MockDriverRepository struct {
	mock.Mock
}

var _ driver.Repository = (*MockDriverRepository)(nil)

func (m *MockDriverRepository) Create(ctx context.Context, d *driver.Driver) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id uuid.UUID) (*driver.Driver, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*driver.Driver), args.Error(1)
}

func (m *MockDriverRepository) GetByPhone(ctx context.Context, phone string) (*driver.Driver, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*driver.Driver), args.Error(1)
}

func (m *MockDriverRepository) List(ctx context.Context, limit, offset int) ([]*driver.Driver, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*driver.Driver), args.Error(1)
}

func (m *MockDriverRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDriverRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status driver.Status) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockDriverRepository) AdjustCashOnHand(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	args := m.Called(ctx, id, delta)
	return args.Error(0)
}

func (m *MockDriverRepository) WithTx(tx pgx.Tx) driver.Repository {
	m.Called(tx)
	return m
}

// MockRemittanceRepository mocks remittance.Repository
type MockRemittanceRepository struct {
	mock.Mock
}

var _ remittance.Repository = (*MockRemittanceRepository)(nil)

func (m *MockRemittanceRepository) Create(ctx context.Context, rec *remittance.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockRemittanceRepository) Update(ctx context.Context, rec *remittance.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockRemittanceRepository) GetByID(ctx context.Context, id int64) (*remittance.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*remittance.Record), args.Error(1)
}

func (m *MockRemittanceRepository) GetLatestByDriverTransactionID(ctx context.Context, driverTransactionID string) (*remittance.Record, error) {
	args := m.Called(ctx, driverTransactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*remittance.Record), args.Error(1)
}

func (m *MockRemittanceRepository) GetRetryable(ctx context.Context, limit int) ([]*remittance.Record, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*remittance.Record), args.Error(1)
}

// remitterFixture bundles the remitter under test with its mocks
type remitterFixture struct {
	remitter   *Remitter
	store      *MockObjectStorage
	driverTxns *MockDriverTransactionRepository
	vendorTxns *MockVendorTransactionRepository
	drivers    *MockDriverRepository
	records    *MockRemittanceRepository
}

func newRemitterFixture() *remitterFixture {
	f := &remitterFixture{
		store:      &MockObjectStorage{},
		driverTxns: &MockDriverTransactionRepository{},
		vendorTxns: &MockVendorTransactionRepository{},
		drivers:    &MockDriverRepository{},
		records:    &MockRemittanceRepository{},
	}
	f.remitter = NewRemitter(newTestLogger(), f.store, f.driverTxns, f.vendorTxns, f.drivers, f.records)
	return f
}

func (f *remitterFixture) assertExpectations(t *testing.T) {
	f.store.AssertExpectations(t)
	f.driverTxns.AssertExpectations(t)
	f.vendorTxns.AssertExpectations(t)
	f.drivers.AssertExpectations(t)
	f.records.AssertExpectations(t)
}

// capturedRecord wires the record repo's Create to capture the persisted record
func (f *remitterFixture) capturedRecord() **remittance.Record {
	var captured *remittance.Record
	f.records.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		captured = args.Get(1).(*remittance.Record)
	}).Return(nil)
	return &captured
}

func signatureKeyMatcher(driverID, driverTxnID, prefix string) func(string) bool {
	return func(key string) bool {
		return strings.HasPrefix(key, "drivers/"+driverID+"/remittances/"+driverTxnID+"/"+prefix+"-") &&
			strings.HasSuffix(key, ".png")
	}
}

func TestRemitter_Remit_Validation(t *testing.T) {
	tests := []struct {
		name           string
		cmd            RemitCommand
		expectedReason string
	}{
		{
			name: "missing driver id",
			cmd: RemitCommand{
				DriverTransactionID: "dt-1",
				Actor:               shared.Actor{Role: shared.RoleDriver},
			},
			expectedReason: "driver id required",
		},
		{
			name: "missing transaction id",
			cmd: RemitCommand{
				DriverID: uuid.NewString(),
				Actor:    shared.Actor{Role: shared.RoleDriver},
			},
			expectedReason: "transaction id required",
		},
		{
			name: "vendor actor without vendor id",
			cmd: RemitCommand{
				DriverID:            uuid.NewString(),
				DriverTransactionID: "dt-1",
				Actor:               shared.Actor{Role: shared.RoleVendor},
			},
			expectedReason: "vendor id required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRemitterFixture()

			receipt, err := f.remitter.Remit(context.Background(), tt.cmd)

			assert.Nil(t, receipt)
			assert.True(t, errors.Is(err, ValidationError{}))
			assert.True(t, errors.Is(err, ValidationError{Reason: tt.expectedReason}))

			// Nothing may run before validation passes
			f.store.AssertNotCalled(t, "Upload")
			f.records.AssertNotCalled(t, "Create")
			f.assertExpectations(t)
		})
	}
}

func TestRemitter_Remit_UploadFailureAborts(t *testing.T) {
	f := newRemitterFixture()
	driverID := uuid.NewString()

	f.store.On("Upload", mock.Anything, mock.MatchedBy(signatureKeyMatcher(driverID, "dt-1", "signature")), []byte("png-bytes"), "image/png").
		Return(errors.New("bucket unavailable"))
	captured := f.capturedRecord()

	receipt, err := f.remitter.Remit(context.Background(), RemitCommand{
		DriverID:            driverID,
		DriverTransactionID: "dt-1",
		NetAmount:           100,
		Signature:           []byte("png-bytes"),
		Actor:               shared.Actor{Role: shared.RoleDriver},
	})

	assert.Nil(t, receipt)
	assert.True(t, errors.Is(err, UploadError{}))

	// No ledger write may follow a failed upload
	f.driverTxns.AssertNotCalled(t, "ApplyRemittance")
	f.vendorTxns.AssertNotCalled(t, "ApplyRemittance")
	f.drivers.AssertNotCalled(t, "AdjustCashOnHand")

	assert.NotNil(t, *captured)
	assert.Equal(t, shared.RemittanceStatusFailed, (*captured).Status)
	outcome, ok := (*captured).StepOutcome(remittance.StepUploadSignature)
	assert.True(t, ok)
	assert.Equal(t, shared.StepStatusFailed, outcome.Status)
	f.assertExpectations(t)
}

func TestRemitter_Remit_DownloadURLFailureAborts(t *testing.T) {
	f := newRemitterFixture()
	driverID := uuid.NewString()

	f.store.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.store.On("GenerateDownloadURL", mock.Anything, mock.Anything).Return("", errors.New("presign failed"))
	f.capturedRecord()

	receipt, err := f.remitter.Remit(context.Background(), RemitCommand{
		DriverID:            driverID,
		DriverTransactionID: "dt-1",
		Signature:           []byte("png-bytes"),
		Actor:               shared.Actor{Role: shared.RoleDriver},
	})

	assert.Nil(t, receipt)
	assert.True(t, errors.Is(err, UploadError{}))
	f.driverTxns.AssertNotCalled(t, "ApplyRemittance")
	f.assertExpectations(t)
}

func TestRemitter_Remit_NoCounterpart(t *testing.T) {
	f := newRemitterFixture()
	driverID := uuid.NewString()
	parsedDriverID := uuid.MustParse(driverID)

	f.store.On("Upload", mock.Anything, mock.MatchedBy(signatureKeyMatcher(driverID, "dt-1", "signature")), mock.Anything, "image/png").Return(nil)
	f.store.On("GenerateDownloadURL", mock.Anything, mock.Anything).Return("https://cdn.example.com/sig.png", nil)
	f.vendorTxns.On("FindByDriverTransactionID", mock.Anything, "dt-1").Return(nil, nil)
	f.driverTxns.On("ApplyRemittance", mock.Anything, "dt-1", mock.MatchedBy(func(u ledger.RemittanceUpdate) bool {
		return u.Status == shared.TransactionStatusRemitted &&
			u.SignatureURL == "https://cdn.example.com/sig.png" &&
			u.CounterpartID == "" &&
			!u.RemittedAt.IsZero()
	})).Return(nil)
	f.drivers.On("AdjustCashOnHand", mock.Anything, parsedDriverID, mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.NewFromFloat(-250.75))
	})).Return(nil)
	captured := f.capturedRecord()

	receipt, err := f.remitter.Remit(context.Background(), RemitCommand{
		DriverID:            driverID,
		DriverTransactionID: "dt-1",
		NetAmount:           250.75,
		Signature:           []byte("png-bytes"),
		Actor:               shared.Actor{Role: shared.RoleDriver},
	})

	assert.NoError(t, err)
	assert.NotNil(t, receipt)
	assert.Equal(t, "https://cdn.example.com/sig.png", receipt.SignatureURL)
	assert.True(t, strings.HasPrefix(receipt.SignaturePath, "drivers/"+driverID+"/remittances/dt-1/signature-"))

	// No counterpart, so the vendor side is never touched
	f.vendorTxns.AssertNotCalled(t, "ApplyRemittance")
	f.driverTxns.AssertNotCalled(t, "BackfillCounterpart")

	assert.Equal(t, shared.RemittanceStatusCompleted, (*captured).Status)
	outcome, _ := (*captured).StepOutcome(remittance.StepUpdateVendorTransaction)
	assert.Equal(t, shared.StepStatusSkipped, outcome.Status)
	outcome, _ = (*captured).StepOutcome(remittance.StepBackfillLink)
	assert.Equal(t, shared.StepStatusSkipped, outcome.Status)
	f.assertExpectations(t)
}

func TestRemitter_Remit_CounterpartByOrderIDFallback(t *testing.T) {
	f := newRemitterFixture()
	driverID := uuid.NewString()

	f.store.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.store.On("GenerateDownloadURL", mock.Anything, mock.Anything).Return("https://cdn.example.com/sig.png", nil)
	f.vendorTxns.On("FindByDriverTransactionID", mock.Anything, "dt-1").Return(nil, nil)
	f.vendorTxns.On("FindByOrderID", mock.Anything, "order-9").Return(&ledger.VendorTransaction{ID: "vt-7", OrderID: "order-9"}, nil)
	f.driverTxns.On("ApplyRemittance", mock.Anything, "dt-1", mock.MatchedBy(func(u ledger.RemittanceUpdate) bool {
		return u.Status == shared.TransactionStatusRemitted && u.CounterpartID == "vt-7"
	})).Return(nil)
	f.vendorTxns.On("ApplyRemittance", mock.Anything, "vt-7", mock.MatchedBy(func(u ledger.RemittanceUpdate) bool {
		return u.Status == shared.TransactionStatusRemitted && u.CounterpartID == "dt-1"
	})).Return(nil)
	f.driverTxns.On("BackfillCounterpart", mock.Anything, "dt-1", "vt-7").Return(nil)
	f.drivers.On("AdjustCashOnHand", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	captured := f.capturedRecord()

	receipt, err := f.remitter.Remit(context.Background(), RemitCommand{
		DriverID:            driverID,
		DriverTransactionID: "dt-1",
		NetAmount:           50,
		OrderID:             "order-9",
		Signature:           []byte("png-bytes"),
		Actor:               shared.Actor{Role: shared.RoleDriver},
	})

	assert.NoError(t, err)
	assert.NotNil(t, receipt)
	assert.Equal(t, "vt-7", (*captured).VendorTransactionID)
	assert.Equal(t, shared.RemittanceStatusCompleted, (*captured).Status)
	f.assertExpectations(t)
}

func TestRemitter_Remit_ExplicitCounterpartSkipsLookupAndBackfill(t *testing.T) {
	f := newRemitterFixture()
	driverID := uuid.NewString()

	f.store.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.store.On("GenerateDownloadURL", mock.Anything, mock.Anything).Return("https://cdn.example.com/sig.png", nil)
	f.driverTxns.On("ApplyRemittance", mock.Anything, "dt-1", mock.MatchedBy(func(u ledger.RemittanceUpdate) bool {
		return u.CounterpartID == "vt-explicit"
	})).Return(nil)
	f.vendorTxns.On("ApplyRemittance", mock.Anything, "vt-explicit", mock.Anything).Return(nil)
	f.drivers.On("AdjustCashOnHand", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.capturedRecord()

	_, err := f.remitter.Remit(context.Background(), RemitCommand{
		DriverID:            driverID,
		DriverTransactionID: "dt-1",
		NetAmount:           50,
		VendorTransactionID: "vt-explicit",
		Signature:           []byte("png-bytes"),
		Actor:               shared.Actor{Role: shared.RoleDriver},
	})

	assert.NoError(t, err)
	f.vendorTxns.AssertNotCalled(t, "FindByDriverTransactionID")
	f.vendorTxns.AssertNotCalled(t, "FindByOrderID")
	f.driverTxns.AssertNotCalled(t, "BackfillCounterpart")
	f.assertExpectations(t)
}

func TestRemitter_Remit_VendorActor(t *testing.T) {
	f := newRemitterFixture()
	driverID := uuid.NewString()

	f.store.On("Upload", mock.Anything, mock.MatchedBy(signatureKeyMatcher(driverID, "dt-1", "vendor-signature")), mock.Anything, "image/png").Return(nil)
	f.store.On("GenerateDownloadURL", mock.Anything, mock.Anything).Return("https://cdn.example.com/sig.png", nil)
	f.driverTxns.On("ApplyRemittance", mock.Anything, "dt-1", mock.MatchedBy(func(u ledger.RemittanceUpdate) bool {
		return u.Status == shared.TransactionStatusReconciled
	})).Return(nil)
	f.vendorTxns.On("ApplyRemittance", mock.Anything, "vt-1", mock.MatchedBy(func(u ledger.RemittanceUpdate) bool {
		return u.Status == shared.TransactionStatusReconciled
	})).Return(nil)
	f.capturedRecord()

	_, err := f.remitter.Remit(context.Background(), RemitCommand{
		DriverID:            driverID,
		DriverTransactionID: "dt-1",
		NetAmount:           80,
		VendorTransactionID: "vt-1",
		VendorID:            uuid.NewString(),
		Signature:           []byte("png-bytes"),
		Actor:               shared.Actor{Role: shared.RoleVendor},
	})

	assert.NoError(t, err)
	// Vendors confirm reconciliation; they never move driver cash
	f.drivers.AssertNotCalled(t, "AdjustCashOnHand")
	f.assertExpectations(t)
}

func TestRemitter_Remit_DownstreamFailuresAreSwallowed(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(f *remitterFixture)
		failedStep string
	}{
		{
			name: "driver transaction update fails",
			setupMocks: func(f *remitterFixture) {
				f.vendorTxns.On("FindByDriverTransactionID", mock.Anything, "dt-1").Return(nil, nil)
				f.driverTxns.On("ApplyRemittance", mock.Anything, "dt-1", mock.Anything).Return(errors.New("write conflict"))
				f.drivers.On("AdjustCashOnHand", mock.Anything, mock.Anything, mock.Anything).Return(nil)
			},
			failedStep: remittance.StepUpdateDriverTransaction,
		},
		{
			name: "vendor transaction update fails",
			setupMocks: func(f *remitterFixture) {
				f.vendorTxns.On("FindByDriverTransactionID", mock.Anything, "dt-1").Return(&ledger.VendorTransaction{ID: "vt-1"}, nil)
				f.driverTxns.On("ApplyRemittance", mock.Anything, "dt-1", mock.Anything).Return(nil)
				f.vendorTxns.On("ApplyRemittance", mock.Anything, "vt-1", mock.Anything).Return(errors.New("write conflict"))
				f.driverTxns.On("BackfillCounterpart", mock.Anything, "dt-1", "vt-1").Return(nil)
				f.drivers.On("AdjustCashOnHand", mock.Anything, mock.Anything, mock.Anything).Return(nil)
			},
			failedStep: remittance.StepUpdateVendorTransaction,
		},
		{
			name: "cash decrement fails",
			setupMocks: func(f *remitterFixture) {
				f.vendorTxns.On("FindByDriverTransactionID", mock.Anything, "dt-1").Return(nil, nil)
				f.driverTxns.On("ApplyRemittance", mock.Anything, "dt-1", mock.Anything).Return(nil)
				f.drivers.On("AdjustCashOnHand", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("connection reset"))
			},
			failedStep: remittance.StepDecrementCash,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRemitterFixture()
			f.store.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
			f.store.On("GenerateDownloadURL", mock.Anything, mock.Anything).Return("https://cdn.example.com/sig.png", nil)
			tt.setupMocks(f)
			captured := f.capturedRecord()

			receipt, err := f.remitter.Remit(context.Background(), RemitCommand{
				DriverID:            uuid.NewString(),
				DriverTransactionID: "dt-1",
				NetAmount:           30,
				Signature:           []byte("png-bytes"),
				Actor:               shared.Actor{Role: shared.RoleDriver},
			})

			// The receipt survives every downstream failure
			assert.NoError(t, err)
			assert.NotNil(t, receipt)

			assert.Equal(t, shared.RemittanceStatusPartial, (*captured).Status)
			outcome, ok := (*captured).StepOutcome(tt.failedStep)
			assert.True(t, ok)
			assert.Equal(t, shared.StepStatusFailed, outcome.Status)
			f.assertExpectations(t)
		})
	}
}

func TestRemitter_Remit_LookupFailureIsNoMatch(t *testing.T) {
	f := newRemitterFixture()
	driverID := uuid.NewString()

	f.store.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.store.On("GenerateDownloadURL", mock.Anything, mock.Anything).Return("https://cdn.example.com/sig.png", nil)
	f.vendorTxns.On("FindByDriverTransactionID", mock.Anything, "dt-1").Return(nil, errors.New("index timeout"))
	f.vendorTxns.On("FindByOrderID", mock.Anything, "order-3").Return(nil, errors.New("index timeout"))
	f.driverTxns.On("ApplyRemittance", mock.Anything, "dt-1", mock.MatchedBy(func(u ledger.RemittanceUpdate) bool {
		return u.CounterpartID == ""
	})).Return(nil)
	f.drivers.On("AdjustCashOnHand", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	captured := f.capturedRecord()

	receipt, err := f.remitter.Remit(context.Background(), RemitCommand{
		DriverID:            driverID,
		DriverTransactionID: "dt-1",
		NetAmount:           30,
		OrderID:             "order-3",
		Signature:           []byte("png-bytes"),
		Actor:               shared.Actor{Role: shared.RoleDriver},
	})

	assert.NoError(t, err)
	assert.NotNil(t, receipt)
	f.vendorTxns.AssertNotCalled(t, "ApplyRemittance")

	// A failed lookup leaves the record retryable
	assert.Equal(t, shared.RemittanceStatusPartial, (*captured).Status)
	outcome, _ := (*captured).StepOutcome(remittance.StepResolveCounterpart)
	assert.Equal(t, shared.StepStatusFailed, outcome.Status)
	f.assertExpectations(t)
}

func TestRemitter_Remit_CoercesNonFiniteAmounts(t *testing.T) {
	tests := []struct {
		name      string
		netAmount float64
	}{
		{name: "NaN", netAmount: math.NaN()},
		{name: "positive infinity", netAmount: math.Inf(1)},
		{name: "negative infinity", netAmount: math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRemitterFixture()
			driverID := uuid.NewString()

			f.store.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
			f.store.On("GenerateDownloadURL", mock.Anything, mock.Anything).Return("https://cdn.example.com/sig.png", nil)
			f.vendorTxns.On("FindByDriverTransactionID", mock.Anything, "dt-1").Return(nil, nil)
			f.driverTxns.On("ApplyRemittance", mock.Anything, "dt-1", mock.Anything).Return(nil)
			f.drivers.On("AdjustCashOnHand", mock.Anything, mock.Anything, mock.MatchedBy(func(d decimal.Decimal) bool {
				return d.IsZero()
			})).Return(nil)
			captured := f.capturedRecord()

			_, err := f.remitter.Remit(context.Background(), RemitCommand{
				DriverID:            driverID,
				DriverTransactionID: "dt-1",
				NetAmount:           tt.netAmount,
				Signature:           []byte("png-bytes"),
				Actor:               shared.Actor{Role: shared.RoleDriver},
			})

			assert.NoError(t, err)
			assert.Equal(t, float64(0), (*captured).NetAmount)
			f.assertExpectations(t)
		})
	}
}

func TestRemitter_Remit_NegativeAmountDecrementsByMagnitude(t *testing.T) {
	f := newRemitterFixture()
	driverID := uuid.NewString()

	f.store.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.store.On("GenerateDownloadURL", mock.Anything, mock.Anything).Return("https://cdn.example.com/sig.png", nil)
	f.vendorTxns.On("FindByDriverTransactionID", mock.Anything, "dt-1").Return(nil, nil)
	f.driverTxns.On("ApplyRemittance", mock.Anything, "dt-1", mock.Anything).Return(nil)
	f.drivers.On("AdjustCashOnHand", mock.Anything, mock.Anything, mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.NewFromFloat(-75.5))
	})).Return(nil)
	f.capturedRecord()

	_, err := f.remitter.Remit(context.Background(), RemitCommand{
		DriverID:            driverID,
		DriverTransactionID: "dt-1",
		NetAmount:           -75.5,
		Signature:           []byte("png-bytes"),
		Actor:               shared.Actor{Role: shared.RoleDriver},
	})

	assert.NoError(t, err)
	f.assertExpectations(t)
}

func TestRemitter_Remit_RecordPersistenceFailureIsNonFatal(t *testing.T) {
	f := newRemitterFixture()
	driverID := uuid.NewString()

	f.store.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.store.On("GenerateDownloadURL", mock.Anything, mock.Anything).Return("https://cdn.example.com/sig.png", nil)
	f.vendorTxns.On("FindByDriverTransactionID", mock.Anything, "dt-1").Return(nil, nil)
	f.driverTxns.On("ApplyRemittance", mock.Anything, "dt-1", mock.Anything).Return(nil)
	f.drivers.On("AdjustCashOnHand", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.records.On("Create", mock.Anything, mock.Anything).Return(errors.New("insert failed"))

	receipt, err := f.remitter.Remit(context.Background(), RemitCommand{
		DriverID:            driverID,
		DriverTransactionID: "dt-1",
		NetAmount:           30,
		Signature:           []byte("png-bytes"),
		Actor:               shared.Actor{Role: shared.RoleDriver},
	})

	assert.NoError(t, err)
	assert.NotNil(t, receipt)
	f.assertExpectations(t)
}

func TestSignatureKey(t *testing.T) {
	now := time.UnixMilli(1724580000000)

	key := SignatureKey("drv-1", "dt-1", shared.RoleDriver, now)
	assert.Equal(t, "drivers/drv-1/remittances/dt-1/signature-1724580000000.png", key)

	key = SignatureKey("drv-1", "dt-1", shared.RoleVendor, now)
	assert.Equal(t, "drivers/drv-1/remittances/dt-1/vendor-signature-1724580000000.png", key)
}
