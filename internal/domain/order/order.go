package order

import (
	"errors"
	"math"

	"github.com/google/uuid"
	"github.com/courierhub-platform/internal/domain/shared"
)

// Common errors
var (
	ErrEmptyVendorID     = errors.New("order vendor id cannot be empty")
	ErrEmptyCustomerName = errors.New("order customer name cannot be empty")
	ErrInvalidCODAmount  = errors.New("cash-on-delivery amount must be positive and finite")
	ErrNotPending        = errors.New("order is not pending")
	ErrNotAssigned       = errors.New("order is not assigned")
	ErrAssignedElsewhere = errors.New("order is assigned to a different driver")
)

// Order is the document describing one cash-on-delivery shipment through its
// lifecycle: created by a vendor, assigned to a driver, delivered against
// cash collection.
type Order struct {
	ID              string             `json:"id" bson:"_id"`
	VendorID        string             `json:"vendor_id" bson:"vendor_id"`
	DriverID        string             `json:"driver_id,omitempty" bson:"driver_id,omitempty"`
	CustomerName    string             `json:"customer_name" bson:"customer_name"`
	CustomerAddress string             `json:"customer_address" bson:"customer_address"`
	CODAmount       float64            `json:"cod_amount" bson:"cod_amount"`
	Status          shared.OrderStatus `json:"status" bson:"status"`
	ProcessingError string             `json:"processing_error,omitempty" bson:"processing_error,omitempty"`
	AssignedAt      shared.Timestamp   `json:"assigned_at" bson:"assigned_at,omitempty"`
	DeliveredAt     shared.Timestamp   `json:"delivered_at" bson:"delivered_at,omitempty"`
	CreatedAt       shared.Timestamp   `json:"created_at" bson:"created_at"`
	UpdatedAt       shared.Timestamp   `json:"updated_at" bson:"updated_at"`
}

// NewOrder creates a pending order for the given vendor
func NewOrder(vendorID, customerName, customerAddress string, codAmount float64) (*Order, error) {
	if vendorID == "" {
		return nil, ErrEmptyVendorID
	}
	if customerName == "" {
		return nil, ErrEmptyCustomerName
	}
	if codAmount <= 0 || math.IsNaN(codAmount) || math.IsInf(codAmount, 0) {
		return nil, ErrInvalidCODAmount
	}

	now := shared.TimestampNow()
	return &Order{
		ID:              uuid.NewString(),
		VendorID:        vendorID,
		CustomerName:    customerName,
		CustomerAddress: customerAddress,
		CODAmount:       codAmount,
		Status:          shared.OrderStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// CanAssign reports whether the order may be handed to a driver
func (o *Order) CanAssign() bool {
	return o.Status == shared.OrderStatusPending
}

// CanDeliverBy reports whether the given driver may complete the order
func (o *Order) CanDeliverBy(driverID string) error {
	if o.Status != shared.OrderStatusAssigned {
		return ErrNotAssigned
	}
	if o.DriverID != driverID {
		return ErrAssignedElsewhere
	}
	return nil
}
