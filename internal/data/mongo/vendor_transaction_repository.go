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
	// VendorTransactionCollectionName is the name of the vendor-side ledger collection
	VendorTransactionCollectionName = "vendor_transactions"
)

// VendorTransactionRepository implements the ledger.VendorTransactionRepository interface for MongoDB
type VendorTransactionRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewVendorTransactionRepository creates a new MongoDB vendor transaction repository
func NewVendorTransactionRepository(logger *slog.Logger, db *mongo.Database) ledger.VendorTransactionRepository {
	return &VendorTransactionRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new vendor transaction after checking for duplicates.
// Returns ErrDuplicateTransaction if an entry with the same ID exists.
func (r *VendorTransactionRepository) Create(ctx context.Context, txn *ledger.VendorTransaction) error {
	collection := r.db.Collection(VendorTransactionCollectionName)

	// Check if entry already exists
	existing, err := r.GetByID(ctx, txn.ID)
	if err != nil && !errors.Is(err, ledger.ErrTransactionNotFound{}) {
		r.logger.Error("Failed to check for existing vendor transaction",
			"id", txn.ID,
			"error", err)
		return fmt.Errorf("failed to check for existing vendor transaction: %w", err)
	}

	if existing != nil {
		return ledger.ErrDuplicateTransaction{TransactionID: txn.ID}
	}

	// Insert the entry
	_, err = collection.InsertOne(ctx, txn)
	if err != nil {
		r.logger.Error("Failed to create vendor transaction",
			"id", txn.ID,
			"error", err)
		return fmt.Errorf("failed to create vendor transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a vendor transaction by its ID.
// Returns ErrTransactionNotFound if no entry exists.
func (r *VendorTransactionRepository) GetByID(ctx context.Context, id string) (*ledger.VendorTransaction, error) {
	collection := r.db.Collection(VendorTransactionCollectionName)

	filter := bson.M{"_id": id}
	var txn ledger.VendorTransaction
	err := collection.FindOne(ctx, filter).Decode(&txn)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ledger.ErrTransactionNotFound{TransactionID: id}
		}
		r.logger.Error("Failed to get vendor transaction",
			"id", id,
			"error", err)
		return nil, fmt.Errorf("failed to get vendor transaction: %w", err)
	}

	return &txn, nil
}

// FindByDriverTransactionID retrieves the first vendor transaction linked to
// the given driver transaction. Returns nil if none matches, letting the
// caller fall through to the next resolution strategy.
func (r *VendorTransactionRepository) FindByDriverTransactionID(ctx context.Context, driverTransactionID string) (*ledger.VendorTransaction, error) {
	collection := r.db.Collection(VendorTransactionCollectionName)

	filter := bson.M{"driver_transaction_id": driverTransactionID}
	var txn ledger.VendorTransaction
	err := collection.FindOne(ctx, filter).Decode(&txn)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil // No counterpart linked to this driver transaction
		}
		r.logger.Error("Failed to find vendor transaction by driver transaction ID",
			"driver_transaction_id", driverTransactionID,
			"error", err)
		return nil, fmt.Errorf("failed to find vendor transaction by driver transaction ID: %w", err)
	}

	return &txn, nil
}

// FindByOrderID retrieves the first vendor transaction for the given order.
// Returns nil if none matches.
func (r *VendorTransactionRepository) FindByOrderID(ctx context.Context, orderID string) (*ledger.VendorTransaction, error) {
	collection := r.db.Collection(VendorTransactionCollectionName)

	filter := bson.M{"order_id": orderID}
	var txn ledger.VendorTransaction
	err := collection.FindOne(ctx, filter).Decode(&txn)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil // No counterpart for this order
		}
		r.logger.Error("Failed to find vendor transaction by order ID",
			"order_id", orderID,
			"error", err)
		return nil, fmt.Errorf("failed to find vendor transaction by order ID: %w", err)
	}

	return &txn, nil
}

// ListByVendorID retrieves paginated vendor transactions for a vendor.
// Results are sorted by creation time in descending order (newest first).
func (r *VendorTransactionRepository) ListByVendorID(ctx context.Context, vendorID string, limit, offset int) ([]*ledger.VendorTransaction, error) {
	collection := r.db.Collection(VendorTransactionCollectionName)

	filter := bson.M{"vendor_id": vendorID}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}). // Sort by created_at in descending order
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list vendor transactions",
			"vendor_id", vendorID,
			"error", err)
		return nil, fmt.Errorf("failed to list vendor transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var txns []*ledger.VendorTransaction
	if err := cursor.All(ctx, &txns); err != nil {
		r.logger.Error("Failed to decode vendor transactions",
			"vendor_id", vendorID,
			"error", err)
		return nil, fmt.Errorf("failed to decode vendor transactions: %w", err)
	}

	return txns, nil
}

// CountByVendorID counts the total number of vendor transactions for a vendor
func (r *VendorTransactionRepository) CountByVendorID(ctx context.Context, vendorID string) (int64, error) {
	collection := r.db.Collection(VendorTransactionCollectionName)

	filter := bson.M{"vendor_id": vendorID}
	count, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to count vendor transactions",
			"vendor_id", vendorID,
			"error", err)
		return 0, fmt.Errorf("failed to count vendor transactions: %w", err)
	}

	return count, nil
}

// ApplyRemittance stamps the remittance outcome onto the entry: status,
// remitted timestamp, signature references, and the driver counterpart link.
// Empty fields are left untouched so a partial update never clears prior data.
// Returns ErrTransactionNotFound if the entry doesn't exist.
func (r *VendorTransactionRepository) ApplyRemittance(ctx context.Context, id string, update ledger.RemittanceUpdate) error {
	collection := r.db.Collection(VendorTransactionCollectionName)

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
		set["driver_transaction_id"] = update.CounterpartID
	}

	filter := bson.M{"_id": id}
	result, err := collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		r.logger.Error("Failed to apply remittance to vendor transaction",
			"id", id,
			"status", string(update.Status),
			"error", err)
		return fmt.Errorf("failed to apply remittance to vendor transaction: %w", err)
	}

	if result.MatchedCount == 0 {
		return ledger.ErrTransactionNotFound{TransactionID: id}
	}

	return nil
}

// Query retrieves vendor transactions matching the given filter.
// Zero-valued query fields are ignored; results are newest first.
func (r *VendorTransactionRepository) Query(ctx context.Context, query ledger.TransactionQuery) ([]*ledger.VendorTransaction, error) {
	collection := r.db.Collection(VendorTransactionCollectionName)

	filter := bson.M{}
	if query.VendorID != "" {
		filter["vendor_id"] = query.VendorID
	}
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
		r.logger.Error("Failed to query vendor transactions", "error", err)
		return nil, fmt.Errorf("failed to query vendor transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var txns []*ledger.VendorTransaction
	if err := cursor.All(ctx, &txns); err != nil {
		r.logger.Error("Failed to decode vendor transactions", "error", err)
		return nil, fmt.Errorf("failed to decode vendor transactions: %w", err)
	}

	return txns, nil
}
