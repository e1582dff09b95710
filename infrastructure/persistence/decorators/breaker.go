package decorators

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"graph-engine/application/ports"
	"graph-engine/domain/core/entities"
	pkgerrors "graph-engine/pkg/errors"
)

// BreakerSettings configures the circuit breaker around an entity store.
type BreakerSettings struct {
	Name         string
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

// BreakerStore fails fast while the wrapped store keeps failing.
type BreakerStore struct {
	inner   ports.EntityStore
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

var _ ports.EntityStore = (*BreakerStore)(nil)

// NewBreakerStore wraps inner with a gobreaker circuit breaker.
func NewBreakerStore(inner ports.EntityStore, settings BreakerSettings, logger *zap.Logger) *BreakerStore {
	s := &BreakerStore{inner: inner, logger: logger}

	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= settings.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// A caller giving up is not a store failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return s
}

// State reports the current breaker state.
func (s *BreakerStore) State() gobreaker.State {
	return s.breaker.State()
}

// ListNodes implements ports.EntityStore
func (s *BreakerStore) ListNodes(ctx context.Context) ([]*entities.Node, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.inner.ListNodes(ctx)
	})
	if err != nil {
		return nil, s.mapError(err)
	}
	return result.([]*entities.Node), nil
}

// ListRelationships implements ports.EntityStore
func (s *BreakerStore) ListRelationships(ctx context.Context) ([]*entities.Relationship, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.inner.ListRelationships(ctx)
	})
	if err != nil {
		return nil, s.mapError(err)
	}
	return result.([]*entities.Relationship), nil
}

func (s *BreakerStore) mapError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return pkgerrors.NewUnavailableError("entity store").
			WithCause(err).
			WithDetail("breaker", s.breaker.Name()).
			WithDetail("state", s.breaker.State().String())
	}
	return err
}
