package driver

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrEmptyName  = errors.New("driver name cannot be empty")
	ErrEmptyPhone = errors.New("driver phone cannot be empty")
	ErrNotActive  = errors.New("driver is not active")
)

// Status defines driver availability states
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// Driver represents a delivery driver and the physical cash they currently hold.
// CashOnHand grows when the driver collects cash on delivery and shrinks when
// the collected cash is remitted; both movements happen as atomic increments
// in the store, never as read-modify-write.
type Driver struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	Phone      string          `json:"phone"`
	Status     Status          `json:"status"`
	CashOnHand decimal.Decimal `json:"cash_on_hand"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// NewDriver creates an active driver with zero cash on hand
func NewDriver(name, phone string) (*Driver, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if phone == "" {
		return nil, ErrEmptyPhone
	}

	return &Driver{
		ID:         uuid.New(),
		Name:       name,
		Phone:      phone,
		Status:     StatusActive,
		CashOnHand: decimal.Zero,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}, nil
}

// IsActive reports whether the driver may take new assignments
func (d *Driver) IsActive() bool {
	return d.Status == StatusActive
}

// Suspend removes the driver from the assignable pool
func (d *Driver) Suspend() {
	d.Status = StatusSuspended
	d.UpdatedAt = time.Now()
}

// Activate returns the driver to the assignable pool
func (d *Driver) Activate() {
	d.Status = StatusActive
	d.UpdatedAt = time.Now()
}
