package mongo

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/courierhub-platform/internal/domain/ledger"
	"github.com/courierhub-platform/internal/domain/shared"
)

// ChangeStreamWatcher implements the ledger.Watcher interface on top of
// MongoDB change streams. One stream is opened per transaction collection;
// every change pings all subscribers, and each subscriber re-runs its own
// query after a debounce window so bursts of writes collapse into one
// snapshot. Delivery is conflating: an undelivered snapshot is dropped when
// a newer one arrives.
type ChangeStreamWatcher struct {
	logger     *slog.Logger
	db         *mongo.Database
	driverTxns ledger.DriverTransactionRepository
	vendorTxns ledger.VendorTransactionRepository
	debounce   time.Duration

	mu     sync.Mutex
	subs   map[int64]chan struct{}
	nextID int64
}

// NewChangeStreamWatcher creates a watcher over both transaction collections
func NewChangeStreamWatcher(
	logger *slog.Logger,
	db *mongo.Database,
	driverTxns ledger.DriverTransactionRepository,
	vendorTxns ledger.VendorTransactionRepository,
	debounce time.Duration,
) *ChangeStreamWatcher {
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	return &ChangeStreamWatcher{
		logger:     logger,
		db:         db,
		driverTxns: driverTxns,
		vendorTxns: vendorTxns,
		debounce:   debounce,
		subs:       make(map[int64]chan struct{}),
	}
}

// Start opens the change streams and keeps them open until the context is
// canceled. Change streams require a replica set; on failure the watcher
// retries, and subscribers still receive their initial snapshot.
func (w *ChangeStreamWatcher) Start(ctx context.Context) {
	w.logger.Info("Starting transaction change stream watcher",
		"debounce", w.debounce.String(),
	)
	go w.watchCollection(ctx, DriverTransactionCollectionName)
	go w.watchCollection(ctx, VendorTransactionCollectionName)
}

func (w *ChangeStreamWatcher) watchCollection(ctx context.Context, name string) {
	for {
		if ctx.Err() != nil {
			return
		}

		stream, err := w.db.Collection(name).Watch(ctx, mongo.Pipeline{})
		if err != nil {
			w.logger.Error("Failed to open change stream, retrying...",
				"collection", name,
				"error", err,
			)
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}

		w.logger.Info("Change stream opened", "collection", name)

		for stream.Next(ctx) {
			w.notifyAll()
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			w.logger.Error("Change stream closed, reopening",
				"collection", name,
				"error", err,
			)
		}
		stream.Close(context.Background())
	}
}

// notifyAll pings every subscriber without blocking. The per-subscriber
// signal channel has capacity one, so pings during an in-flight re-query
// coalesce into a single pending signal.
func (w *ChangeStreamWatcher) notifyAll() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, sig := range w.subs {
		select {
		case sig <- struct{}{}:
		default:
		}
	}
}

// Subscribe registers a live snapshot feed for the given query. The initial
// snapshot is queried immediately; later snapshots follow collection changes.
// The feed ends when the subscription is canceled or the context is done.
func (w *ChangeStreamWatcher) Subscribe(ctx context.Context, query ledger.TransactionQuery) (*ledger.Subscription, error) {
	initial, err := w.snapshot(ctx, query)
	if err != nil {
		return nil, err
	}

	sig := make(chan struct{}, 1)
	out := make(chan ledger.Snapshot, 1)
	subCtx, cancel := context.WithCancel(ctx)

	w.mu.Lock()
	w.nextID++
	id := w.nextID
	w.subs[id] = sig
	w.mu.Unlock()

	go w.run(subCtx, id, query, sig, out, initial)

	return ledger.NewSubscription(out, cancel), nil
}

func (w *ChangeStreamWatcher) run(ctx context.Context, id int64, query ledger.TransactionQuery, sig chan struct{}, out chan ledger.Snapshot, initial ledger.Snapshot) {
	defer func() {
		w.mu.Lock()
		delete(w.subs, id)
		w.mu.Unlock()
		close(out)
	}()

	deliver(out, initial)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sig:
		}

		// Absorb further change signals for one debounce window, then
		// re-query once for the whole burst.
		timer := time.NewTimer(w.debounce)
		absorbing := true
		for absorbing {
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-sig:
			case <-timer.C:
				absorbing = false
			}
		}

		snap, err := w.snapshot(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("Failed to build watch snapshot", "error", err)
			continue
		}
		deliver(out, snap)
	}
}

// deliver pushes a snapshot into the 1-buffered channel, dropping an
// undelivered older snapshot so the consumer always sees the latest state.
func deliver(out chan ledger.Snapshot, snap ledger.Snapshot) {
	for {
		select {
		case out <- snap:
			return
		default:
			select {
			case <-out: // drop the stale snapshot
			default:
			}
		}
	}
}

// snapshot runs the subscription query against both collections. Driver
// transactions carry no vendor dimension, so vendor-scoped queries skip the
// driver side.
func (w *ChangeStreamWatcher) snapshot(ctx context.Context, query ledger.TransactionQuery) (ledger.Snapshot, error) {
	snap := ledger.Snapshot{Taken: shared.TimestampNow()}

	if query.VendorID == "" {
		driverTxns, err := w.driverTxns.Query(ctx, query)
		if err != nil {
			return ledger.Snapshot{}, err
		}
		snap.DriverTransactions = driverTxns
	}

	vendorTxns, err := w.vendorTxns.Query(ctx, query)
	if err != nil {
		return ledger.Snapshot{}, err
	}
	snap.VendorTransactions = vendorTxns

	return snap, nil
}
