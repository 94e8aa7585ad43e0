package services

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/bimakw/dex-gateway/internal/domain/entities"
	"github.com/bimakw/dex-gateway/internal/infrastructure/store"
)

// DefaultEvictionGrace is how long a terminal record stays visible before
// it is removed, so the user can observe the outcome.
const DefaultEvictionGrace = 10 * time.Second

// ReceiptReader queries a transaction's receipt without waiting; a
// pending transaction returns ethereum.NotFound.
type ReceiptReader interface {
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// TrackerService owns the tracked transaction set. It is the only writer
// of record status; the UI and other services read snapshots. Records
// persist through the store so an in-flight transaction survives a
// restart.
type TrackerService struct {
	store  store.TxStore
	logger *zap.Logger
	grace  time.Duration

	mu      sync.Mutex
	records map[common.Hash]entities.TxRecord
	order   []common.Hash
	timers  map[common.Hash]*time.Timer
}

// NewTrackerService creates a new tracker service. grace <= 0 falls back
// to DefaultEvictionGrace.
func NewTrackerService(txStore store.TxStore, grace time.Duration, logger *zap.Logger) *TrackerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if grace <= 0 {
		grace = DefaultEvictionGrace
	}
	return &TrackerService{
		store:   txStore,
		logger:  logger,
		grace:   grace,
		records: make(map[common.Hash]entities.TxRecord),
		timers:  make(map[common.Hash]*time.Timer),
	}
}

// Load restores the persisted record set. Call once at startup, before
// Reconcile.
func (t *TrackerService) Load(ctx context.Context) error {
	records, err := t.store.Load(ctx)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, rec := range records {
		if _, ok := t.records[rec.Hash]; ok {
			continue
		}
		t.records[rec.Hash] = rec
		t.order = append(t.order, rec.Hash)
		if rec.Status.Terminal() {
			t.scheduleEvictionLocked(rec.Hash)
		}
	}

	t.logger.Info("transaction records restored", zap.Int("count", len(records)))
	return nil
}

// Reconcile re-verifies every non-terminal record against the chain. A
// transaction that confirmed or reverted while the process was down must
// not be displayed as pending forever; a receipt that is still missing
// leaves the record pending.
func (t *TrackerService) Reconcile(ctx context.Context, reader ReceiptReader) {
	for _, rec := range t.Records() {
		if rec.Status.Terminal() {
			continue
		}

		receipt, err := reader.TransactionReceipt(ctx, rec.Hash)
		if err != nil {
			t.logger.Debug("receipt not yet available",
				zap.String("hash", rec.Hash.Hex()),
				zap.Error(err),
			)
			continue
		}

		status := entities.TxReverted
		if receipt.Status == types.ReceiptStatusSuccessful {
			status = entities.TxSuccess
		}
		t.UpdateStatus(ctx, rec.Hash, status)
	}
}

// Add inserts a pending record, or updates the status in place when the
// hash is already tracked. The set never holds two records per hash.
func (t *TrackerService) Add(ctx context.Context, rec entities.TxRecord) {
	t.mu.Lock()

	if existing, ok := t.records[rec.Hash]; ok {
		existing.Status = rec.Status
		t.applyLocked(existing)
	} else {
		t.records[rec.Hash] = rec
		t.order = append(t.order, rec.Hash)
		if rec.Status.Terminal() {
			t.scheduleEvictionLocked(rec.Hash)
		}
	}

	t.persistLocked(ctx)
	t.mu.Unlock()
}

// UpdateStatus transitions an existing record. Unknown hashes are a
// no-op, not an error: an update may race a reload that cleared local
// state. A terminal transition schedules eviction after the grace
// period, measured from the transition.
func (t *TrackerService) UpdateStatus(ctx context.Context, hash common.Hash, status entities.TxStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[hash]
	if !ok {
		return
	}

	rec.Status = status
	t.applyLocked(rec)
	t.persistLocked(ctx)
}

// Clear removes a record immediately, independent of delayed eviction.
func (t *TrackerService) Clear(ctx context.Context, hash common.Hash) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.removeLocked(hash)
	t.persistLocked(ctx)
}

// Records returns a snapshot of the tracked set in insertion order.
func (t *TrackerService) Records() []entities.TxRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]entities.TxRecord, 0, len(t.order))
	for _, hash := range t.order {
		if rec, ok := t.records[hash]; ok {
			out = append(out, rec)
		}
	}
	return out
}

// Close stops all pending eviction timers.
func (t *TrackerService) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for hash, timer := range t.timers {
		timer.Stop()
		delete(t.timers, hash)
	}
}

func (t *TrackerService) applyLocked(rec entities.TxRecord) {
	t.records[rec.Hash] = rec
	if rec.Status.Terminal() {
		t.scheduleEvictionLocked(rec.Hash)
	}
}

func (t *TrackerService) scheduleEvictionLocked(hash common.Hash) {
	if _, ok := t.timers[hash]; ok {
		return
	}
	t.timers[hash] = time.AfterFunc(t.grace, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.removeLocked(hash)
		t.persistLocked(context.Background())
	})
}

func (t *TrackerService) removeLocked(hash common.Hash) {
	if timer, ok := t.timers[hash]; ok {
		timer.Stop()
		delete(t.timers, hash)
	}
	if _, ok := t.records[hash]; !ok {
		return
	}
	delete(t.records, hash)
	for i, h := range t.order {
		if h == hash {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// persistLocked writes the full set through the store. Persistence is
// best-effort bookkeeping: a failed save is logged, never fatal.
func (t *TrackerService) persistLocked(ctx context.Context) {
	out := make([]entities.TxRecord, 0, len(t.order))
	for _, hash := range t.order {
		if rec, ok := t.records[hash]; ok {
			out = append(out, rec)
		}
	}
	if err := t.store.Save(ctx, out); err != nil {
		t.logger.Warn("persist transaction records", zap.Error(err))
	}
}
