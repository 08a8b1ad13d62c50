package core

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"opscore/internal/config"
	"opscore/internal/infra/persistence/memory"
	"opscore/internal/views"
)

// Completer is the text-completion collaborator consulted by AskAssistant.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CodeDecoder extracts a coupon code from a captured scan frame.
type CodeDecoder interface {
	Decode(frame []byte) (string, error)
}

const defaultCodeAttempts = 10

// Service exposes higher-level transactional operations for all verticals.
type Service struct {
	store        PersistentStore
	logger       *zap.Logger
	metrics      MetricsRecorder
	tracer       Tracer
	audit        AuditRecorder
	clock        func() time.Time
	ladder       []views.Tier
	codeAttempts int
	assistant    Completer
	decoder      CodeDecoder
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsRecorder sets the metrics sink.
func WithMetricsRecorder(rec MetricsRecorder) Option {
	return func(s *Service) { s.metrics = rec }
}

// WithTracer sets the span tracer.
func WithTracer(tracer Tracer) Option {
	return func(s *Service) { s.tracer = tracer }
}

// WithAuditRecorder sets the audit sink.
func WithAuditRecorder(rec AuditRecorder) Option {
	return func(s *Service) { s.audit = rec }
}

// WithClock overrides the time source. Intended for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLoyaltyLadder replaces the default reward ladder.
func WithLoyaltyLadder(ladder []views.Tier) Option {
	return func(s *Service) { s.ladder = ladder }
}

// WithCodeAttempts bounds the coupon code collision retry budget.
func WithCodeAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.codeAttempts = n
		}
	}
}

// WithAssistant sets the text-completion collaborator.
func WithAssistant(c Completer) Option {
	return func(s *Service) { s.assistant = c }
}

// WithCodeDecoder sets the scan frame decoder.
func WithCodeDecoder(d CodeDecoder) Option {
	return func(s *Service) { s.decoder = d }
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...Option) *Service {
	s := &Service{
		store:        store,
		logger:       zap.NewNop(),
		clock:        time.Now,
		ladder:       LadderFromConfig(config.Default().Loyalty),
		codeAttempts: defaultCodeAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInMemoryService creates a service and in-memory store with the given
// rules engine.
func NewInMemoryService(engine *RulesEngine, opts ...Option) *Service {
	return NewService(memory.NewStore(engine), opts...)
}

// LadderFromConfig converts the configured loyalty ladder to view tiers.
func LadderFromConfig(cfg config.Loyalty) []views.Tier {
	out := make([]views.Tier, 0, len(cfg.Ladder))
	for _, tier := range cfg.Ladder {
		out = append(out, views.Tier{
			ThresholdPoints:  tier.ThresholdPoints,
			PercentOff:       tier.PercentOff,
			MinPurchaseCents: tier.MinPurchaseCents,
			ExpiryDays:       tier.ExpiryDays,
		})
	}
	return out
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// run executes fn inside a store transaction with tracing, metrics, and audit
// around it. fn returns the primary entity id for the audit entry.
func (s *Service) run(ctx context.Context, op string, entity EntityType, fn func(tx Tx) (string, error)) (Result, error) {
	start := s.clock()
	var span TraceSpan
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, op)
	}
	var entityID string
	res, err := s.store.RunInTransaction(ctx, func(tx Tx) error {
		id, ferr := fn(tx)
		if id != "" {
			entityID = id
		}
		return ferr
	})
	duration := s.clock().Sub(start)
	if span != nil {
		span.End(err)
	}
	if s.metrics != nil {
		s.metrics.Observe(ctx, op, err == nil, duration)
	}
	if s.audit != nil {
		entry := AuditEntry{
			Operation:  op,
			Status:     AuditStatusSuccess,
			Entity:     entity,
			EntityID:   entityID,
			OccurredAt: s.clock().UTC(),
		}
		var blocked RuleViolationError
		switch {
		case errors.As(err, &blocked):
			entry.Status = AuditStatusBlocked
			entry.Violations = blocked.Result.Violations
		case err != nil:
			entry.Status = AuditStatusError
			entry.Error = err.Error()
		}
		s.audit.Record(ctx, entry)
	}
	if err != nil {
		s.logger.Debug("operation failed",
			zap.String("operation", op), zap.Error(err))
	}
	return res, err
}

// view runs fn against committed state.
func (s *Service) view(ctx context.Context, fn func(view TransactionView) error) error {
	return s.store.View(ctx, fn)
}
