package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/courierhub-platform/internal/domain/driver"
)

// DriverServiceImpl implements the DriverService interface
type DriverServiceImpl struct {
	driverRepo driver.Repository
}

// NewDriverService creates a new driver service
func NewDriverService(driverRepo driver.Repository) DriverService {
	return &DriverServiceImpl{
		driverRepo: driverRepo,
	}
}

// RegisterDriver creates a new active driver, checking for duplicate phone numbers
func (s *DriverServiceImpl) RegisterDriver(ctx context.Context, name, phone string) (*driver.Driver, error) {
	existing, err := s.driverRepo.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, driver.ErrDuplicatePhone{Phone: phone}
	}

	d, err := driver.NewDriver(name, phone)
	if err != nil {
		return nil, err
	}

	if err := s.driverRepo.Create(ctx, d); err != nil {
		return nil, err
	}

	return d, nil
}

// GetDriverByID retrieves a driver by its ID, returns ErrDriverNotFound if not found
func (s *DriverServiceImpl) GetDriverByID(ctx context.Context, id uuid.UUID) (*driver.Driver, error) {
	return s.driverRepo.GetByID(ctx, id)
}

// ListDrivers retrieves a paginated list of drivers together with the total count
func (s *DriverServiceImpl) ListDrivers(ctx context.Context, page, perPage int) ([]*driver.Driver, int64, error) {
	offset := (page - 1) * perPage

	drivers, err := s.driverRepo.List(ctx, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.driverRepo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	return drivers, total, nil
}
