// Package queue holds transactions that could not be saved remotely and
// replays them when connectivity returns.
package queue

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rumor-ml/commons.systems/smsledger/internal/domain"
	"github.com/rumor-ml/commons.systems/smsledger/internal/observability"
	"github.com/rumor-ml/commons.systems/smsledger/internal/remote"
)

// Store is the durable backing for queued transactions. List returns
// records in enqueue order.
type Store interface {
	Put(txn *domain.PersistedTransaction) error
	List() ([]*domain.PersistedTransaction, error)
	Delete(id string) error
	Count() (int, error)
}

// Queue drains queued transactions to a remote store. At most one sync
// pass runs at a time; SyncNow calls that arrive while a pass is in
// flight return immediately without touching the queue.
type Queue struct {
	store   Store
	remote  remote.Store
	logger  *zap.Logger
	metrics *observability.Metrics

	mu      sync.Mutex
	syncing bool

	monitorOnce sync.Once
	done        chan struct{}
	stopOnce    sync.Once
}

// New creates a queue draining to the given remote store. logger and
// metrics may be nil.
func New(store Store, rs remote.Store, logger *zap.Logger, metrics *observability.Metrics) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{
		store:   store,
		remote:  rs,
		logger:  logger,
		metrics: metrics,
		done:    make(chan struct{}),
	}
}

// Enqueue stores a transaction for a later sync pass.
func (q *Queue) Enqueue(txn *domain.PersistedTransaction) error {
	if err := q.store.Put(txn); err != nil {
		return err
	}
	q.logger.Info("transaction queued for sync",
		zap.String("transactionId", txn.ID))
	q.updateGauge()
	return nil
}

// Size returns the number of records waiting to sync.
func (q *Queue) Size() (int, error) {
	return q.store.Count()
}

// SyncNow drains the queue to the remote store and returns the number
// of records delivered. A failing record is logged and left in place;
// the pass continues with the rest. If a pass is already running, the
// call returns 0 immediately with no side effects.
func (q *Queue) SyncNow(ctx context.Context) (int, error) {
	q.mu.Lock()
	if q.syncing {
		q.mu.Unlock()
		return 0, nil
	}
	q.syncing = true
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.syncing = false
		q.mu.Unlock()
	}()

	start := time.Now()

	pending, err := q.store.List()
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	q.logger.Info("starting sync pass", zap.Int("pending", len(pending)))

	synced := 0
	for _, txn := range pending {
		if err := ctx.Err(); err != nil {
			break
		}

		txn.Synced = true
		if err := q.remote.Save(ctx, txn); err != nil {
			txn.Synced = false
			q.logger.Warn("sync failed for record, keeping in queue",
				zap.String("transactionId", txn.ID),
				zap.Error(err))
			continue
		}

		if err := q.store.Delete(txn.ID); err != nil {
			q.logger.Error("failed to remove synced record from queue",
				zap.String("transactionId", txn.ID),
				zap.Error(err))
			continue
		}
		synced++
	}

	if q.metrics != nil {
		q.metrics.RecordSync(time.Since(start), synced)
	}
	q.updateGauge()

	q.logger.Info("sync pass finished",
		zap.Int("synced", synced),
		zap.Int("remaining", len(pending)-synced))

	return synced, nil
}

// StartMonitoring triggers a sync pass whenever connectivity comes back.
// Each true value received on signal starts a pass; false values are
// ignored. Only the first call starts the monitor.
func (q *Queue) StartMonitoring(ctx context.Context, signal <-chan bool) {
	q.monitorOnce.Do(func() {
		go func() {
			for {
				select {
				case <-q.done:
					return
				case <-ctx.Done():
					return
				case online, ok := <-signal:
					if !ok {
						return
					}
					if !online {
						continue
					}
					if _, err := q.SyncNow(ctx); err != nil {
						q.logger.Error("connectivity-triggered sync failed", zap.Error(err))
					}
				}
			}
		}()
	})
}

// StopMonitoring stops the connectivity monitor. A sync pass already in
// flight runs to completion. Safe to call more than once.
func (q *Queue) StopMonitoring() {
	q.stopOnce.Do(func() { close(q.done) })
}

func (q *Queue) updateGauge() {
	if q.metrics == nil {
		return
	}
	if n, err := q.store.Count(); err == nil {
		q.metrics.SetQueueSize(n)
	}
}
