// Package pipeline wires extraction, validation, deduplication, and
// persistence into the end-to-end message flow.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rumor-ml/commons.systems/smsledger/internal/dedup"
	"github.com/rumor-ml/commons.systems/smsledger/internal/domain"
	"github.com/rumor-ml/commons.systems/smsledger/internal/observability"
	"github.com/rumor-ml/commons.systems/smsledger/internal/parse"
	"github.com/rumor-ml/commons.systems/smsledger/internal/queue"
	"github.com/rumor-ml/commons.systems/smsledger/internal/remote"
	"github.com/rumor-ml/commons.systems/smsledger/internal/validate"
)

// Outcome classifies what the pipeline did with a message.
type Outcome string

const (
	OutcomeAccepted  Outcome = "accepted"
	OutcomeRejected  Outcome = "rejected"
	OutcomeDuplicate Outcome = "duplicate"
)

// Result describes the disposition of one message.
type Result struct {
	Outcome Outcome
	// Reason is set for rejected messages (not_financial,
	// extraction_failed, validation_failed).
	Reason string
	// Queued is true when the record was accepted but parked in the
	// offline queue instead of saved remotely.
	Queued      bool
	Transaction *domain.PersistedTransaction
}

// Statistics are cumulative counters since the pipeline was created.
type Statistics struct {
	TotalReceived     int `json:"totalReceived"`
	FinancialMessages int `json:"financialMessages"`
	Parsed            int `json:"parsed"`
	Validated         int `json:"validated"`
	Saved             int `json:"saved"`
	Queued            int `json:"queued"`
	Duplicates        int `json:"duplicates"`
	Errors            int `json:"errors"`
}

// Pipeline processes incoming messages for a single owner.
type Pipeline struct {
	ownerID   string
	parser    *parse.Parser
	validator *validate.Validator
	detector  *dedup.Detector
	remote    remote.Store
	queue     *queue.Queue
	logger    *zap.Logger
	metrics   *observability.Metrics

	mu    sync.Mutex
	stats Statistics
}

// New assembles a pipeline. logger and metrics may be nil.
func New(ownerID string, parser *parse.Parser, validator *validate.Validator, detector *dedup.Detector, rs remote.Store, q *queue.Queue, logger *zap.Logger, metrics *observability.Metrics) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		ownerID:   ownerID,
		parser:    parser,
		validator: validator,
		detector:  detector,
		remote:    rs,
		queue:     q,
		logger:    logger,
		metrics:   metrics,
	}
}

// ProcessIncoming runs one message through the full pipeline: parse,
// dedup check, validation, remote save with offline fallback. Rejection
// and duplicate outcomes are normal flow, not errors; the error return
// covers storage faults only.
func (p *Pipeline) ProcessIncoming(ctx context.Context, msg domain.RawMessage) (*Result, error) {
	return p.process(ctx, msg, false)
}

// ManualEntry runs user-entered text through the identical parse and
// validation path as ProcessIncoming, so automatic and manual entries
// are indistinguishable beyond the ManualEntry flag on the record.
func (p *Pipeline) ManualEntry(ctx context.Context, text, sender string, receivedAt time.Time) (*Result, error) {
	if sender == "" {
		sender = "manual"
	}
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}
	msg := domain.RawMessage{Sender: sender, Content: text, ReceivedAt: receivedAt}
	return p.process(ctx, msg, true)
}

func (p *Pipeline) process(ctx context.Context, msg domain.RawMessage, manual bool) (*Result, error) {
	p.count(func(s *Statistics) { s.TotalReceived++ })

	parsed, parseErr := p.parser.Parse(msg)
	if errors.Is(parseErr, parse.ErrNotFinancial) {
		p.recordOutcome(OutcomeRejected)
		return &Result{Outcome: OutcomeRejected, Reason: "not_financial"}, nil
	}
	// The message passed the financial gate even if no amount was found.
	p.count(func(s *Statistics) { s.FinancialMessages++ })

	hash := dedup.Hash(msg)

	isDup, err := p.detector.IsDuplicate(msg)
	if err != nil {
		p.count(func(s *Statistics) { s.Errors++ })
		return nil, fmt.Errorf("dedup lookup failed: %w", err)
	}
	if isDup {
		p.recordOutcome(OutcomeDuplicate)
		p.count(func(s *Statistics) { s.Duplicates++ })
		p.logger.Info("duplicate message skipped",
			zap.String("sender", msg.Sender),
			zap.String("hash", hash))
		return &Result{Outcome: OutcomeDuplicate}, nil
	}

	if parseErr != nil {
		p.recordOutcome(OutcomeRejected)
		return &Result{Outcome: OutcomeRejected, Reason: "extraction_failed"}, nil
	}
	p.count(func(s *Statistics) { s.Parsed++ })

	return p.persist(ctx, *parsed, msg, hash, manual)
}

// persist promotes, validates, and saves a parsed transaction. The
// dedup record is written only after the transaction is safely stored
// or queued, so a storage fault leaves the message retryable.
func (p *Pipeline) persist(ctx context.Context, parsed domain.ParsedTransaction, msg domain.RawMessage, hash string, manual bool) (*Result, error) {
	txn, err := domain.NewPersistedTransaction(parsed, p.ownerID, hash, manual)
	if err != nil {
		p.recordOutcome(OutcomeRejected)
		return &Result{Outcome: OutcomeRejected, Reason: "extraction_failed"}, nil
	}

	outcome := p.validator.Validate(txn)
	for _, w := range outcome.Warnings {
		p.logger.Warn("validation warning",
			zap.String("transactionId", txn.ID),
			zap.String("warning", w))
	}
	if !outcome.Valid {
		p.recordOutcome(OutcomeRejected)
		p.logger.Info("transaction rejected by validation",
			zap.String("sender", msg.Sender),
			zap.Strings("errors", outcome.Errors))
		return &Result{Outcome: OutcomeRejected, Reason: "validation_failed"}, nil
	}
	p.count(func(s *Statistics) { s.Validated++ })

	queued := false
	txn.Synced = true
	if err := p.remote.Save(ctx, txn); err != nil {
		txn.Synced = false
		p.recordRemoteError(err)
		p.logger.Warn("remote save failed, queueing locally",
			zap.String("transactionId", txn.ID),
			zap.Error(err))
		if qErr := p.queue.Enqueue(txn); qErr != nil {
			p.count(func(s *Statistics) { s.Errors++ })
			return nil, fmt.Errorf("remote save failed and local queue rejected record: %w", qErr)
		}
		queued = true
		p.count(func(s *Statistics) { s.Queued++ })
	} else {
		p.count(func(s *Statistics) { s.Saved++ })
	}

	if err := p.detector.MarkProcessed(msg); err != nil {
		p.count(func(s *Statistics) { s.Errors++ })
		return nil, fmt.Errorf("failed to record dedup entry: %w", err)
	}

	p.recordOutcome(OutcomeAccepted)
	if p.metrics != nil {
		p.metrics.RecordConfidence(txn.Confidence)
	}
	p.logger.Info("transaction accepted",
		zap.String("transactionId", txn.ID),
		zap.Float64("amount", txn.Amount),
		zap.String("type", string(txn.Type)),
		zap.Bool("queued", queued),
		zap.Bool("manual", manual))

	return &Result{Outcome: OutcomeAccepted, Queued: queued, Transaction: txn}, nil
}

// TriggerSync drains the offline queue and returns the number of
// records delivered. The queue may hold records enqueued by an earlier
// run, so the queued counter never goes below zero.
func (p *Pipeline) TriggerSync(ctx context.Context) (int, error) {
	synced, err := p.queue.SyncNow(ctx)
	if synced > 0 {
		p.count(func(s *Statistics) {
			s.Saved += synced
			s.Queued -= synced
			if s.Queued < 0 {
				s.Queued = 0
			}
		})
	}
	return synced, err
}

// QueueSize returns the number of records waiting in the offline queue.
func (p *Pipeline) QueueSize() (int, error) {
	return p.queue.Size()
}

// Statistics returns a snapshot of the cumulative counters.
func (p *Pipeline) Statistics() Statistics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

func (p *Pipeline) count(fn func(*Statistics)) {
	p.mu.Lock()
	fn(&p.stats)
	p.mu.Unlock()
}

func (p *Pipeline) recordOutcome(o Outcome) {
	if p.metrics != nil {
		p.metrics.IncrMessage(string(o))
	}
}

func (p *Pipeline) recordRemoteError(err error) {
	if p.metrics == nil {
		return
	}
	switch {
	case errors.Is(err, remote.ErrAuthFailure):
		p.metrics.IncrRemoteError("auth")
	case errors.Is(err, remote.ErrQuotaExceeded):
		p.metrics.IncrRemoteError("quota")
	case errors.Is(err, remote.ErrUnavailable):
		p.metrics.IncrRemoteError("unavailable")
	default:
		p.metrics.IncrRemoteError("other")
	}
}
