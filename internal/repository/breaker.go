package repository

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"mindmap-backend/internal/domain"
	appErrors "mindmap-backend/pkg/errors"
	"mindmap-backend/pkg/observability"
)

// BreakerConfig holds circuit breaker tuning for the storage layer.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns the default breaker tuning.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "graph-store",
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// breakerRepository decorates a Repository with a circuit breaker so a
// failing store sheds load fast instead of stacking up timeouts. Only
// transient and internal errors count as failures; NotFound and Validation
// are business outcomes. Nothing is retried here: a rejected mutation is
// simply not applied and the client resubmits.
type breakerRepository struct {
	inner   Repository
	cb      *gobreaker.CircuitBreaker
	logger  *zap.Logger
	metrics *observability.Metrics
}

// WithBreaker wraps a Repository with a circuit breaker and storage-latency
// instrumentation. metrics may be nil.
func WithBreaker(inner Repository, config BreakerConfig, logger *zap.Logger, metrics *observability.Metrics) Repository {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("storage circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			return appErrors.IsNotFound(err) || appErrors.IsValidation(err)
		},
	})

	return &breakerRepository{inner: inner, cb: cb, logger: logger, metrics: metrics}
}

// execute runs fn through the breaker, mapping breaker rejections to
// transient errors so callers see the usual taxonomy.
func (r *breakerRepository) execute(op string, fn func() (any, error)) (any, error) {
	start := time.Now()
	result, err := r.cb.Execute(fn)
	r.metrics.ObserveStorageOp(op, start, err)
	switch err {
	case gobreaker.ErrOpenState, gobreaker.ErrTooManyRequests:
		return nil, appErrors.NewTransient("storage temporarily unavailable", err)
	}
	return result, err
}

func (r *breakerRepository) CreateSession(ctx context.Context, session *domain.Session) error {
	_, err := r.execute("CreateSession", func() (any, error) {
		return nil, r.inner.CreateSession(ctx, session)
	})
	return err
}

func (r *breakerRepository) FindSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	result, err := r.execute("FindSession", func() (any, error) {
		return r.inner.FindSession(ctx, sessionID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Session), nil
}

func (r *breakerRepository) ListSessions(ctx context.Context) ([]*domain.Session, error) {
	result, err := r.execute("ListSessions", func() (any, error) {
		return r.inner.ListSessions(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.([]*domain.Session), nil
}

func (r *breakerRepository) UpdateSessionTitle(ctx context.Context, sessionID, title string) (*domain.Session, error) {
	result, err := r.execute("UpdateSessionTitle", func() (any, error) {
		return r.inner.UpdateSessionTitle(ctx, sessionID, title)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Session), nil
}

func (r *breakerRepository) DeleteSession(ctx context.Context, sessionID string) (bool, error) {
	result, err := r.execute("DeleteSession", func() (any, error) {
		return r.inner.DeleteSession(ctx, sessionID)
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

func (r *breakerRepository) CreateNode(ctx context.Context, node *domain.Node) error {
	_, err := r.execute("CreateNode", func() (any, error) {
		return nil, r.inner.CreateNode(ctx, node)
	})
	return err
}

func (r *breakerRepository) FindNode(ctx context.Context, nodeID string) (*domain.Node, error) {
	result, err := r.execute("FindNode", func() (any, error) {
		return r.inner.FindNode(ctx, nodeID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Node), nil
}

func (r *breakerRepository) UpdateNode(ctx context.Context, nodeID string, patch domain.NodePatch) (*domain.Node, error) {
	result, err := r.execute("UpdateNode", func() (any, error) {
		return r.inner.UpdateNode(ctx, nodeID, patch)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Node), nil
}

func (r *breakerRepository) DeleteNode(ctx context.Context, nodeID string) (bool, error) {
	result, err := r.execute("DeleteNode", func() (any, error) {
		return r.inner.DeleteNode(ctx, nodeID)
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

func (r *breakerRepository) CreateEdge(ctx context.Context, edge *domain.Edge) error {
	_, err := r.execute("CreateEdge", func() (any, error) {
		return nil, r.inner.CreateEdge(ctx, edge)
	})
	return err
}

func (r *breakerRepository) FindEdge(ctx context.Context, edgeID string) (*domain.Edge, error) {
	result, err := r.execute("FindEdge", func() (any, error) {
		return r.inner.FindEdge(ctx, edgeID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Edge), nil
}

func (r *breakerRepository) DeleteEdge(ctx context.Context, edgeID string) (bool, error) {
	result, err := r.execute("DeleteEdge", func() (any, error) {
		return r.inner.DeleteEdge(ctx, edgeID)
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

func (r *breakerRepository) GetSessionState(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	result, err := r.execute("GetSessionState", func() (any, error) {
		return r.inner.GetSessionState(ctx, sessionID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.SessionState), nil
}
