// Package mongo provides MongoDB implementations of the ledger and order
// repositories, plus the change-stream watcher feeding live snapshots.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/courierhub-platform/internal/domain/ledger"
)

const (
	// DriverTransactionCollectionName is the name of the driver-side ledger collection
	DriverTransactionCollectionName = "driver_transactions"
)

// DriverTransactionRepository implements the ledger.DriverTransactionRepository interface for MongoDB
type DriverTransactionRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewDriverTransactionRepository creates a new MongoDB driver transaction repository
func NewDriverTransactionRepository(logger *slog.Logger, db *mongo.Database) ledger.DriverTransactionRepository {
	return &DriverTransactionRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new driver transaction after checking for duplicates.
// Returns ErrDuplicateTransaction if an entry with the same ID exists.
func (r *DriverTransactionRepository) Create(ctx context.Context, txn *ledger.DriverTransaction) error {
	collection := r.db.Collection(DriverTransactionCollectionName)

	// Check if entry already exists
	existing, err := r.GetByID(ctx, txn.ID)
	if err != nil && !errors.Is(err, ledger.ErrTransactionNotFound{}) {
		r.logger.Error("Failed to check for existing driver transaction",
			"id", txn.ID,
			"error", err)
		return fmt.Errorf("failed to check for existing driver transaction: %w", err)
	}

	if existing != nil {
		return ledger.ErrDuplicateTransaction{TransactionID: txn.ID}
	}

	// Insert the entry
	_, err = collection.InsertOne(ctx, txn)
	if err != nil {
		r.logger.Error("Failed to create driver transaction",
			"id", txn.ID,
			"error", err)
		return fmt.Errorf("failed to create driver transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a driver transaction by its ID.
// Returns ErrTransactionNotFound if no entry exists.
func (r *DriverTransactionRepository) GetByID(ctx context.Context, id string) (*ledger.DriverTransaction, error) {
	collection := r.db.Collection(DriverTransactionCollectionName)

	filter := bson.M{"_id": id}
	var txn ledger.DriverTransaction
	err := collection.FindOne(ctx, filter).Decode(&txn)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ledger.ErrTransactionNotFound{TransactionID: id}
		}
		r.logger.Error("Failed to get driver transaction",
			"id", id,
			"error", err)
		return nil, fmt.Errorf("failed to get driver transaction: %w", err)
	}

	return &txn, nil
}

// GetByOrderID retrieves the driver transaction for an order.
// Returns nil if no entry exists, enabling idempotent settlement processing.
func (r *DriverTransactionRepository) GetByOrderID(ctx context.Context, orderID string) (*ledger.DriverTransaction, error) {
	collection := r.db.Collection(DriverTransactionCollectionName)

	filter := bson.M{"order_id": orderID}
	var txn ledger.DriverTransaction
	err := collection.FindOne(ctx, filter).Decode(&txn)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil // No entry found for this order
		}
		r.logger.Error("Failed to get driver transaction by order ID",
			"order_id", orderID,
			"error", err)
		return nil, fmt.Errorf("failed to get driver transaction by order ID: %w", err)
	}

	return &txn, nil
}

// ListByDriverID retrieves paginated driver transactions for a driver.
// Results are sorted by creation time in descending order (newest first).
func (r *DriverTransactionRepository) ListByDriverID(ctx context.Context, driverID string, limit, offset int) ([]*ledger.DriverTransaction, error) {
	collection := r.db.Collection(DriverTransactionCollectionName)

	filter := bson.M{"driver_id": driverID}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}). // Sort by created_at in descending order
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list driver transactions",
			"driver_id", driverID,
			"error", err)
		return nil, fmt.Errorf("failed to list driver transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var txns []*ledger.DriverTransaction
	if err := cursor.All(ctx, &txns); err != nil {
		r.logger.Error("Failed to decode driver transactions",
			"driver_id", driverID,
			"error", err)
		return nil, fmt.Errorf("failed to decode driver transactions: %w", err)
	}

	return txns, nil
}

// CountByDriverID counts the total number of driver transactions for a driver
func (r *DriverTransactionRepository) CountByDriverID(ctx context.Context, driverID string) (int64, error) {
	collection := r.db.Collection(DriverTransactionCollectionName)

	filter := bson.M{"driver_id": driverID}
	count, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to count driver transactions",
			"driver_id", driverID,
			"error", err)
		return 0, fmt.Errorf("failed to count driver transactions: %w", err)
	}

	return count, nil
}

// ApplyRemittance stamps the remittance outcome onto the entry: status,
// remitted timestamp, signature references, and the vendor counterpart link.
// Empty fields are left untouched so a partial update never clears prior data.
// Returns ErrTransactionNotFound if the entry doesn't exist.
func (r *DriverTransactionRepository) ApplyRemittance(ctx context.Context, id string, update ledger.RemittanceUpdate) error {
	collection := r.db.Collection(DriverTransactionCollectionName)

	set := bson.M{
		"status":      update.Status,
		"remitted_at": update.RemittedAt,
	}
	if update.SignatureURL != "" {
		set["signature_url"] = update.SignatureURL
	}
	if update.SignaturePath != "" {
		set["signature_path"] = update.SignaturePath
	}
	if update.CounterpartID != "" {
		set["vendor_transaction_id"] = update.CounterpartID
	}

	filter := bson.M{"_id": id}
	result, err := collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		r.logger.Error("Failed to apply remittance to driver transaction",
			"id", id,
			"status", string(update.Status),
			"error", err)
		return fmt.Errorf("failed to apply remittance to driver transaction: %w", err)
	}

	if result.MatchedCount == 0 {
		return ledger.ErrTransactionNotFound{TransactionID: id}
	}

	return nil
}

// BackfillCounterpart sets only the vendor transaction link. Used when the
// counterpart was discovered by order lookup after the main update was written.
func (r *DriverTransactionRepository) BackfillCounterpart(ctx context.Context, id, vendorTransactionID string) error {
	collection := r.db.Collection(DriverTransactionCollectionName)

	filter := bson.M{"_id": id}
	update := bson.M{
		"$set": bson.M{
			"vendor_transaction_id": vendorTransactionID,
		},
	}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		r.logger.Error("Failed to backfill counterpart on driver transaction",
			"id", id,
			"vendor_transaction_id", vendorTransactionID,
			"error", err)
		return fmt.Errorf("failed to backfill counterpart on driver transaction: %w", err)
	}

	if result.MatchedCount == 0 {
		return ledger.ErrTransactionNotFound{TransactionID: id}
	}

	return nil
}

// Query retrieves driver transactions matching the given filter.
// Zero-valued query fields are ignored; VendorID is not a dimension of this
// collection, so vendor-scoped callers must skip the driver side themselves.
// Results are newest first.
func (r *DriverTransactionRepository) Query(ctx context.Context, query ledger.TransactionQuery) ([]*ledger.DriverTransaction, error) {
	collection := r.db.Collection(DriverTransactionCollectionName)

	filter := bson.M{}
	if query.DriverID != "" {
		filter["driver_id"] = query.DriverID
	}
	if query.Status != "" {
		filter["status"] = query.Status
	}

	opts := options.Find().SetSort(bson.M{"created_at": -1})
	if query.Limit > 0 {
		opts = opts.SetLimit(query.Limit)
	}

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to query driver transactions", "error", err)
		return nil, fmt.Errorf("failed to query driver transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var txns []*ledger.DriverTransaction
	if err := cursor.All(ctx, &txns); err != nil {
		r.logger.Error("Failed to decode driver transactions", "error", err)
		return nil, fmt.Errorf("failed to decode driver transactions: %w", err)
	}

	return txns, nil
}
