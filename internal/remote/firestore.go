package remote

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/rumor-ml/commons.systems/smsledger/internal/domain"
)

const transactionCollection = "sms-transactions"

// FirestoreStore persists transactions in a Firestore collection, one
// document per transaction keyed by its ID.
type FirestoreStore struct {
	client    *firestore.Client
	projectID string
}

// NewFirestoreStore initializes the Firebase app and connects to
// Firestore. credentialsFile may be empty to use Application Default
// Credentials.
func NewFirestoreStore(ctx context.Context, projectID, credentialsFile string) (*FirestoreStore, error) {
	conf := &firebase.Config{ProjectID: projectID}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return &FirestoreStore{client: client, projectID: projectID}, nil
}

// Close closes the Firestore client.
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

// transactionDoc is the Firestore document shape for a transaction.
type transactionDoc struct {
	ID            string    `firestore:"id"`
	OwnerID       string    `firestore:"ownerId"`
	Amount        float64   `firestore:"amount"`
	Type          string    `firestore:"type"`
	Account       *string   `firestore:"account,omitempty"`
	Date          string    `firestore:"date"`
	Time          string    `firestore:"time"`
	SourceContent string    `firestore:"sourceContent"`
	SourceSender  string    `firestore:"sourceSender"`
	Confidence    float64   `firestore:"confidence"`
	DedupHash     string    `firestore:"dedupHash"`
	ManualEntry   bool      `firestore:"manualEntry"`
	CreatedAt     time.Time `firestore:"createdAt"`
}

func toDoc(txn *domain.PersistedTransaction) *transactionDoc {
	return &transactionDoc{
		ID:            txn.ID,
		OwnerID:       txn.OwnerID,
		Amount:        txn.Amount,
		Type:          string(txn.Type),
		Account:       txn.Account,
		Date:          txn.Date,
		Time:          txn.Time,
		SourceContent: txn.SourceContent,
		SourceSender:  txn.SourceSender,
		Confidence:    txn.Confidence,
		DedupHash:     txn.DedupHash,
		ManualEntry:   txn.ManualEntry,
		CreatedAt:     txn.CreatedAt,
	}
}

func fromDoc(doc *transactionDoc) *domain.PersistedTransaction {
	return &domain.PersistedTransaction{
		ParsedTransaction: domain.ParsedTransaction{
			Amount:        doc.Amount,
			Type:          domain.TransactionType(doc.Type),
			Account:       doc.Account,
			Date:          doc.Date,
			Time:          doc.Time,
			SourceContent: doc.SourceContent,
			SourceSender:  doc.SourceSender,
			Confidence:    doc.Confidence,
		},
		ID:          doc.ID,
		OwnerID:     doc.OwnerID,
		CreatedAt:   doc.CreatedAt,
		Synced:      true,
		DedupHash:   doc.DedupHash,
		ManualEntry: doc.ManualEntry,
	}
}

// Save writes the transaction, overwriting any document with the same ID.
func (s *FirestoreStore) Save(ctx context.Context, txn *domain.PersistedTransaction) error {
	if txn.ID == "" {
		return fmt.Errorf("transaction ID is required")
	}
	_, err := s.client.Collection(transactionCollection).Doc(txn.ID).Set(ctx, toDoc(txn))
	if err != nil {
		return classifyError(err)
	}
	return nil
}

// List retrieves all transactions for an owner, newest first.
func (s *FirestoreStore) List(ctx context.Context, ownerID string) ([]*domain.PersistedTransaction, error) {
	iter := s.client.Collection(transactionCollection).
		Where("ownerId", "==", ownerID).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)

	var transactions []*domain.PersistedTransaction
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, classifyError(fmt.Errorf("failed to iterate transactions for owner %s: %w", ownerID, err))
		}

		var doc transactionDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("failed to parse transaction document: %w", err)
		}
		transactions = append(transactions, fromDoc(&doc))
	}

	return transactions, nil
}
