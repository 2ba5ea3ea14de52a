package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/rumor-ml/commons.systems/smsledger/internal/domain"
	"github.com/rumor-ml/commons.systems/smsledger/internal/resilience"
)

// ResilientStore wraps a Store with retry and a circuit breaker. Saves
// that fail with ErrAuthFailure or ErrQuotaExceeded are not retried;
// everything else gets backed-off attempts until the retry budget runs
// out or the breaker opens.
type ResilientStore struct {
	inner   Store
	breaker *gobreaker.CircuitBreaker
	retry   resilience.Config
	logger  *zap.Logger
}

// NewResilientStore wraps inner with the default retry policy.
func NewResilientStore(inner Store, logger *zap.Logger) *ResilientStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResilientStore{
		inner:   inner,
		breaker: resilience.NewCircuitBreaker("remote-store"),
		retry:   resilience.DefaultConfig(),
		logger:  logger,
	}
}

// Save attempts the write through the breaker, retrying transient
// failures. A gobreaker open-state rejection is surfaced as
// ErrUnavailable so callers queue the record instead of dropping it.
func (s *ResilientStore) Save(ctx context.Context, txn *domain.PersistedTransaction) error {
	attempt := 0
	err := resilience.RetryWithBackoff(ctx, s.retry, func() error {
		attempt++
		_, err := s.breaker.Execute(func() (interface{}, error) {
			return nil, s.inner.Save(ctx, txn)
		})
		if err == nil {
			return nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return resilience.Permanent(fmt.Errorf("%w: circuit breaker open", ErrUnavailable))
		}
		if errors.Is(err, ErrAuthFailure) || errors.Is(err, ErrQuotaExceeded) {
			return resilience.Permanent(err)
		}
		s.logger.Warn("remote save failed, will retry",
			zap.String("transactionId", txn.ID),
			zap.Int("attempt", attempt),
			zap.Error(err))
		return err
	})
	if err != nil {
		s.logger.Error("remote save failed",
			zap.String("transactionId", txn.ID),
			zap.Int("attempts", attempt),
			zap.Error(err))
	}
	return err
}

// List passes through the breaker without retries; reads are cheap to
// repeat at the call site.
func (s *ResilientStore) List(ctx context.Context, ownerID string) ([]*domain.PersistedTransaction, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.inner.List(ctx, ownerID)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit breaker open", ErrUnavailable)
		}
		return nil, err
	}
	return result.([]*domain.PersistedTransaction), nil
}

// Close closes the wrapped store.
func (s *ResilientStore) Close() error {
	return s.inner.Close()
}
