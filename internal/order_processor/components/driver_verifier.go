package components

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/courierhub-platform/internal/domain/driver"
	"github.com/courierhub-platform/internal/order_processor/service"
)

type DriverVerifierImpl struct {
	driverRepo driver.Repository
	logger     *slog.Logger
}

func NewDriverVerifier(driverRepo driver.Repository, logger *slog.Logger) service.DriverVerifier {
	return &DriverVerifierImpl{
		driverRepo: driverRepo,
		logger:     logger,
	}
}

// VerifyEligible loads the driver and checks it may take assignments. An
// unparseable id is reported as a missing driver; event payloads are not
// trusted to carry well-formed ids.
func (v *DriverVerifierImpl) VerifyEligible(ctx context.Context, driverID string) (*driver.Driver, error) {
	id, err := uuid.Parse(driverID)
	if err != nil {
		v.logger.Warn("Order event carries an unparseable driver id", "driver_id", driverID, "error", err)
		return nil, driver.ErrDriverNotFound{}
	}

	d, err := v.driverRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !d.IsActive() {
		return nil, driver.ErrNotActive
	}

	return d, nil
}
