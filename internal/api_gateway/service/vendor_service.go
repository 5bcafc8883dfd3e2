package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/courierhub-platform/internal/domain/vendor"
)

// VendorServiceImpl implements the VendorService interface
type VendorServiceImpl struct {
	vendorRepo vendor.Repository
	logger     *slog.Logger
}

// NewVendorService creates a new vendor service
func NewVendorService(logger *slog.Logger, vendorRepo vendor.Repository) VendorService {
	return &VendorServiceImpl{
		vendorRepo: vendorRepo,
		logger:     logger,
	}
}

// RegisterVendor creates a pending vendor, checking for duplicate contact emails
func (s *VendorServiceImpl) RegisterVendor(ctx context.Context, name, contactEmail string, commissionRate decimal.Decimal) (*vendor.Vendor, error) {
	existing, err := s.vendorRepo.GetByEmail(ctx, contactEmail)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, vendor.ErrDuplicateEmail{ContactEmail: contactEmail}
	}

	v, err := vendor.NewVendor(name, contactEmail, commissionRate)
	if err != nil {
		return nil, err
	}

	if err := s.vendorRepo.Create(ctx, v); err != nil {
		return nil, err
	}

	return v, nil
}

// GetVendorByID retrieves a vendor by its ID, returns ErrVendorNotFound if not found
func (s *VendorServiceImpl) GetVendorByID(ctx context.Context, id uuid.UUID) (*vendor.Vendor, error) {
	return s.vendorRepo.GetByID(ctx, id)
}

// ListVendors retrieves a paginated list of vendors together with the total count
func (s *VendorServiceImpl) ListVendors(ctx context.Context, page, perPage int) ([]*vendor.Vendor, int64, error) {
	offset := (page - 1) * perPage

	vendors, err := s.vendorRepo.List(ctx, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.vendorRepo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	return vendors, total, nil
}

// DecideApproval applies an admin approve/reject decision to a pending vendor.
// Returns ErrNotPending when the vendor already left the pending state, so a
// decision can never be overwritten.
func (s *VendorServiceImpl) DecideApproval(ctx context.Context, id uuid.UUID, approve bool, reason string) (*vendor.Vendor, error) {
	v, err := s.vendorRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if approve {
		err = v.Approve()
	} else {
		err = v.Reject(reason)
	}
	if err != nil {
		return nil, err
	}

	if err := s.vendorRepo.UpdateApproval(ctx, id, v.Status, v.RejectReason); err != nil {
		return nil, err
	}

	s.logger.Info("Vendor approval decided",
		"vendor_id", id,
		"status", string(v.Status),
	)

	return v, nil
}
