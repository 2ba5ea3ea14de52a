// Package parse composes the leaf extractors into a single
// RawMessage → ParsedTransaction function with an aggregate confidence
// score.
package parse

import (
	"errors"

	"go.uber.org/zap"

	"github.com/rumor-ml/commons.systems/smsledger/internal/domain"
	"github.com/rumor-ml/commons.systems/smsledger/internal/extract"
)

var (
	// ErrNotFinancial means the financial-context gate rejected the message.
	ErrNotFinancial = errors.New("message is not financial")
	// ErrNoAmount means the message passed the gate but no amount could be
	// extracted. Amount is the only hard-required field.
	ErrNoAmount = errors.New("no amount found in message")
)

// Parser orchestrates context detection and field extraction.
type Parser struct {
	detector *extract.ContextDetector
	amounts  *extract.AmountParser
	types    *extract.TypeClassifier
	accounts *extract.AccountExtractor
	dates    *extract.DateTimeParser
	logger   *zap.Logger
}

// New creates a parser over the given keyword sets. A nil logger is
// replaced with a no-op logger.
func New(kw *extract.Keywords, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{
		detector: extract.NewContextDetector(kw),
		amounts:  extract.NewAmountParser(kw),
		types:    extract.NewTypeClassifier(kw),
		accounts: extract.NewAccountExtractor(kw),
		dates:    extract.NewDateTimeParser(),
		logger:   logger,
	}
}

// Parse extracts a transaction from one message. It short-circuits on the
// financial-context gate and on a missing amount; type, account, and
// date/time extraction never reject. Every rejection is logged with its
// reason.
func (p *Parser) Parse(msg domain.RawMessage) (*domain.ParsedTransaction, error) {
	detection := p.detector.Classify(msg.Content)
	if !detection.IsFinancial {
		p.logger.Debug("message rejected",
			zap.String("reason", "not_financial"),
			zap.String("sender", msg.Sender),
			zap.Float64("confidence", detection.Confidence))
		return nil, ErrNotFinancial
	}

	amount, ok := p.amounts.Extract(msg.Content)
	if !ok {
		// Logged with raw content so the message can be reviewed manually
		p.logger.Warn("message rejected",
			zap.String("reason", "extraction_failed"),
			zap.String("sender", msg.Sender),
			zap.String("content", msg.Content))
		return nil, ErrNoAmount
	}

	txnType := p.types.Classify(msg.Content)
	typeConfidence := p.types.Confidence(msg.Content, txnType)

	var account *string
	if acc, ok := p.accounts.Extract(msg.Content); ok {
		account = &acc
	}

	date, clock := p.dates.Extract(msg.Content, msg.ReceivedAt)

	return &domain.ParsedTransaction{
		Amount:        amount.Value,
		Type:          txnType,
		Account:       account,
		Date:          date,
		Time:          clock,
		SourceContent: msg.Content,
		SourceSender:  msg.Sender,
		Confidence:    aggregateConfidence(detection.Confidence, amount.HasCurrencyCue, txnType, typeConfidence, account != nil),
	}, nil
}

// aggregateConfidence combines the per-extractor signals:
//
//	0.4 × financial-context confidence
//	0.3 when the amount had an adjacent currency cue, else 0.2
//	0.2 × type-classifier confidence when the type is known
//	0.1 when an account was found
func aggregateConfidence(ctxConf float64, currencyCue bool, txnType domain.TransactionType, typeConf float64, hasAccount bool) float64 {
	confidence := 0.4 * ctxConf

	if currencyCue {
		confidence += 0.3
	} else {
		confidence += 0.2
	}

	if txnType != domain.TypeUnknown {
		confidence += 0.2 * typeConf
	}

	if hasAccount {
		confidence += 0.1
	}

	if confidence > 1.0 {
		confidence = 1.0
	}
	if confidence < 0.0 {
		confidence = 0.0
	}
	return confidence
}

// ParseAll parses a batch, silently dropping messages that fail.
func (p *Parser) ParseAll(msgs []domain.RawMessage) []domain.ParsedTransaction {
	parsed, _ := p.ParseAllStats(msgs)
	return parsed
}

// BatchStats summarizes a ParseAllStats run.
type BatchStats struct {
	Total        int
	Parsed       int
	Failed       int
	NotFinancial int
}

// ParseAllStats parses a batch and reports per-outcome counts alongside the
// successfully parsed transactions.
func (p *Parser) ParseAllStats(msgs []domain.RawMessage) ([]domain.ParsedTransaction, BatchStats) {
	stats := BatchStats{Total: len(msgs)}
	var parsed []domain.ParsedTransaction

	for _, msg := range msgs {
		txn, err := p.Parse(msg)
		switch {
		case errors.Is(err, ErrNotFinancial):
			stats.NotFinancial++
		case err != nil:
			stats.Failed++
		default:
			parsed = append(parsed, *txn)
			stats.Parsed++
		}
	}

	return parsed, stats
}
