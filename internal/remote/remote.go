// Package remote persists transactions to the cloud backend. The
// concrete implementation targets Firestore; the Store interface keeps
// the pipeline and queue testable without network access.
package remote

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rumor-ml/commons.systems/smsledger/internal/domain"
)

var (
	// ErrUnavailable indicates a transient backend failure. Callers
	// should retry or queue the record for a later sync.
	ErrUnavailable = errors.New("remote store unavailable")

	// ErrAuthFailure indicates rejected credentials. Retrying will not
	// help until the configuration is fixed.
	ErrAuthFailure = errors.New("remote store authentication failed")

	// ErrQuotaExceeded indicates the backend refused the write due to
	// quota limits.
	ErrQuotaExceeded = errors.New("remote store quota exceeded")
)

// Store writes and reads persisted transactions for a single owner.
type Store interface {
	// Save writes the transaction, overwriting any document with the
	// same ID. Implementations return one of the package sentinel
	// errors (possibly wrapped) for classifiable failures.
	Save(ctx context.Context, txn *domain.PersistedTransaction) error

	// List returns the owner's transactions, newest first.
	List(ctx context.Context, ownerID string) ([]*domain.PersistedTransaction, error)

	// Close releases backend resources.
	Close() error
}

// classifyError maps gRPC status codes onto the package sentinels so
// callers can decide between retrying and giving up.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	s, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch s.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted, codes.Internal:
		return errors.Join(ErrUnavailable, err)
	case codes.Unauthenticated, codes.PermissionDenied:
		return errors.Join(ErrAuthFailure, err)
	case codes.ResourceExhausted:
		return errors.Join(ErrQuotaExceeded, err)
	default:
		return err
	}
}
