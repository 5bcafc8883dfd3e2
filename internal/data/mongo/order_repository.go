package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/courierhub-platform/internal/domain/order"
	"github.com/courierhub-platform/internal/domain/shared"
)

const (
	// OrderCollectionName is the name of the orders collection in MongoDB
	OrderCollectionName = "orders"
)

// OrderRepository implements the order.Repository interface for MongoDB
type OrderRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewOrderRepository creates a new MongoDB order repository
func NewOrderRepository(logger *slog.Logger, db *mongo.Database) order.Repository {
	return &OrderRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new order after checking for duplicates.
// Returns ErrDuplicateOrder if an order with the same ID exists.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	collection := r.db.Collection(OrderCollectionName)

	// Check if order already exists
	existing, err := r.GetByID(ctx, o.ID)
	if err != nil && !errors.Is(err, order.ErrOrderNotFound{}) {
		r.logger.Error("Failed to check for existing order",
			"id", o.ID,
			"error", err)
		return fmt.Errorf("failed to check for existing order: %w", err)
	}

	if existing != nil {
		return order.ErrDuplicateOrder{OrderID: o.ID}
	}

	// Insert the order
	_, err = collection.InsertOne(ctx, o)
	if err != nil {
		r.logger.Error("Failed to create order",
			"id", o.ID,
			"error", err)
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// GetByID retrieves an order by its ID.
// Returns ErrOrderNotFound if no order exists.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	collection := r.db.Collection(OrderCollectionName)

	filter := bson.M{"_id": id}
	var o order.Order
	err := collection.FindOne(ctx, filter).Decode(&o)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, order.ErrOrderNotFound{OrderID: id}
		}
		r.logger.Error("Failed to get order",
			"id", id,
			"error", err)
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return &o, nil
}

// ListByVendorID retrieves paginated orders for a vendor.
// Results are sorted by creation time in descending order (newest first).
func (r *OrderRepository) ListByVendorID(ctx context.Context, vendorID string, limit, offset int) ([]*order.Order, error) {
	collection := r.db.Collection(OrderCollectionName)

	filter := bson.M{"vendor_id": vendorID}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}). // Sort by created_at in descending order
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list orders",
			"vendor_id", vendorID,
			"error", err)
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []*order.Order
	if err := cursor.All(ctx, &orders); err != nil {
		r.logger.Error("Failed to decode orders",
			"vendor_id", vendorID,
			"error", err)
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}

	return orders, nil
}

// CountByVendorID counts the total number of orders for a vendor
func (r *OrderRepository) CountByVendorID(ctx context.Context, vendorID string) (int64, error) {
	collection := r.db.Collection(OrderCollectionName)

	filter := bson.M{"vendor_id": vendorID}
	count, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to count orders",
			"vendor_id", vendorID,
			"error", err)
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}

	return count, nil
}

// MarkAssigned stamps the driver and assignment time onto the order.
// Returns ErrOrderNotFound if the order doesn't exist.
func (r *OrderRepository) MarkAssigned(ctx context.Context, id, driverID string, at shared.Timestamp) error {
	collection := r.db.Collection(OrderCollectionName)

	filter := bson.M{"_id": id}
	update := bson.M{
		"$set": bson.M{
			"status":      shared.OrderStatusAssigned,
			"driver_id":   driverID,
			"assigned_at": at,
			"updated_at":  shared.TimestampNow(),
		},
	}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		r.logger.Error("Failed to mark order assigned",
			"id", id,
			"driver_id", driverID,
			"error", err)
		return fmt.Errorf("failed to mark order assigned: %w", err)
	}

	if result.MatchedCount == 0 {
		return order.ErrOrderNotFound{OrderID: id}
	}

	return nil
}

// MarkDelivered stamps the delivery time onto the order.
// Returns ErrOrderNotFound if the order doesn't exist.
func (r *OrderRepository) MarkDelivered(ctx context.Context, id string, at shared.Timestamp) error {
	collection := r.db.Collection(OrderCollectionName)

	filter := bson.M{"_id": id}
	update := bson.M{
		"$set": bson.M{
			"status":       shared.OrderStatusDelivered,
			"delivered_at": at,
			"updated_at":   shared.TimestampNow(),
		},
	}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		r.logger.Error("Failed to mark order delivered",
			"id", id,
			"error", err)
		return fmt.Errorf("failed to mark order delivered: %w", err)
	}

	if result.MatchedCount == 0 {
		return order.ErrOrderNotFound{OrderID: id}
	}

	return nil
}

// RecordProcessingError attaches a business failure reason to the order so
// rejected lifecycle events stay visible. Returns ErrOrderNotFound if the
// order doesn't exist.
func (r *OrderRepository) RecordProcessingError(ctx context.Context, id string, reason string) error {
	collection := r.db.Collection(OrderCollectionName)

	filter := bson.M{"_id": id}
	update := bson.M{
		"$set": bson.M{
			"processing_error": reason,
			"updated_at":       shared.TimestampNow(),
		},
	}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		r.logger.Error("Failed to record order processing error",
			"id", id,
			"reason", reason,
			"error", err)
		return fmt.Errorf("failed to record order processing error: %w", err)
	}

	if result.MatchedCount == 0 {
		return order.ErrOrderNotFound{OrderID: id}
	}

	return nil
}
