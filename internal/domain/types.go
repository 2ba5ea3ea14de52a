// Package domain defines the core value types flowing through the message
// pipeline: raw messages, parsed transactions, and persisted records.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TransactionType represents the direction of a transaction.
// Use ValidateTransactionType to ensure validity before use.
type TransactionType string

const (
	TypeDebit   TransactionType = "debit"
	TypeCredit  TransactionType = "credit"
	TypeUnknown TransactionType = "unknown"
)

var validTransactionTypes = map[TransactionType]struct{}{
	TypeDebit: {}, TypeCredit: {}, TypeUnknown: {},
}

// ValidateTransactionType checks if the transaction type is valid
func ValidateTransactionType(t TransactionType) bool {
	_, ok := validTransactionTypes[t]
	return ok
}

// RawMessage is one message exactly as delivered by the ingestion
// collaborator. It is never persisted directly.
type RawMessage struct {
	Sender     string    `json:"sender"`
	Content    string    `json:"content"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// ParsedTransaction is the structured result of extracting a transaction
// from a RawMessage. It is a pure value derived from the message text and
// receipt time; it carries no identity or ownership.
type ParsedTransaction struct {
	Amount        float64         `json:"amount"`
	Type          TransactionType `json:"type"`
	Account       *string         `json:"account,omitempty"`
	Date          string          `json:"date"` // ISO format YYYY-MM-DD
	Time          string          `json:"time"` // 24-hour HH:MM:SS
	SourceContent string          `json:"sourceContent"`
	SourceSender  string          `json:"sourceSender"`
	Confidence    float64         `json:"confidence"`
}

// PersistedTransaction is a ParsedTransaction promoted to a durable record.
// DedupHash is a deterministic function of (sender, content, receivedAt) and
// is stable across retries. Synced flips to true only after a confirmed
// remote save; no other field is ever mutated.
type PersistedTransaction struct {
	ParsedTransaction

	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
	Synced      bool      `json:"synced"`
	DedupHash   string    `json:"dedupHash"`
	ManualEntry bool      `json:"manualEntry"`
}

// NewPersistedTransaction promotes a parsed transaction to a persisted
// record with a fresh ID. The dedup hash must already be computed from the
// originating message so it stays stable if the record is re-created.
func NewPersistedTransaction(parsed ParsedTransaction, ownerID, dedupHash string, manualEntry bool) (*PersistedTransaction, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("owner ID cannot be empty")
	}
	if dedupHash == "" {
		return nil, fmt.Errorf("dedup hash cannot be empty")
	}
	if parsed.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %f", parsed.Amount)
	}
	if !ValidateTransactionType(parsed.Type) {
		return nil, fmt.Errorf("invalid transaction type: %s", parsed.Type)
	}

	return &PersistedTransaction{
		ParsedTransaction: parsed,
		ID:                uuid.New().String(),
		OwnerID:           ownerID,
		CreatedAt:         time.Now(),
		Synced:            false,
		DedupHash:         dedupHash,
		ManualEntry:       manualEntry,
	}, nil
}
