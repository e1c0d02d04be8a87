// Package observability records the lifecycle of workspace operations.
// It integrates structured logging, Prometheus metrics, distributed tracing
// and the operation journal behind the workspace Observer interface.
package observability

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jbctechsolutions/deskflip/internal/application/ports"
	"github.com/jbctechsolutions/deskflip/internal/application/workspace"
	"github.com/jbctechsolutions/deskflip/internal/domain/history"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/logging"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/metrics"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/tracing"
)

// Service implements workspace.Observer.
type Service struct {
	logger  *logging.Logger
	tracer  *tracing.Tracer
	metrics *metrics.Metrics
	journal ports.HistoryRepository
	now     func() time.Time
}

// ServiceConfig holds configuration for the observability service.
// Metrics and Journal are optional.
type ServiceConfig struct {
	Logger  *logging.Logger
	Tracer  *tracing.Tracer
	Metrics *metrics.Metrics
	Journal ports.HistoryRepository
}

// NewService creates a new observability service.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	tracer := cfg.Tracer
	if tracer == nil {
		tracer = tracing.Default()
	}

	return &Service{
		logger:  logger,
		tracer:  tracer,
		metrics: cfg.Metrics,
		journal: cfg.Journal,
		now:     time.Now,
	}
}

// OperationObserver follows a single workspace operation.
type OperationObserver struct {
	service       *Service
	recordID      string
	op            string
	fromID        int
	toID          int
	correlationID string
	startTime     time.Time
	span          *tracing.OperationSpan
}

// StartOperation begins observing an operation. A correlation id is added
// to ctx when the caller did not supply one.
func (s *Service) StartOperation(ctx context.Context, op string, fromID, toID int) (context.Context, workspace.OperationObserver) {
	correlationID := logging.CorrelationID(ctx)
	if correlationID == "" {
		correlationID = uuid.New().String()
		ctx = logging.WithCorrelationID(ctx, correlationID)
	}
	if logging.Source(ctx) == "" {
		ctx = logging.WithSource(ctx, "internal")
	}

	logging.LogOperationStart(ctx, s.logger, op, fromID, toID)
	ctx, span := s.tracer.StartOperationSpan(ctx, op, fromID, toID)

	return ctx, &OperationObserver{
		service:       s,
		recordID:      uuid.New().String(),
		op:            op,
		fromID:        fromID,
		toID:          toID,
		correlationID: correlationID,
		startTime:     s.now(),
		span:          span,
	}
}

// StartStep opens a step span. The returned func closes it and counts the
// failure, if any.
func (oo *OperationObserver) StartStep(ctx context.Context, step string, bestEffort bool) func(error) {
	_, span := oo.service.tracer.StartStepSpan(ctx, step, bestEffort)
	return func(err error) {
		span.Finish(err)
		if err == nil {
			return
		}
		if bestEffort {
			logging.LogStepSkipped(ctx, oo.service.logger, step, err)
		}
		if oo.service.metrics != nil {
			oo.service.metrics.RecordStepFailure(step, bestEffort)
		}
	}
}

// Finish ends the operation: logs the outcome, closes the span, updates
// metrics and appends a journal record. Journal failures are logged only.
func (oo *OperationObserver) Finish(ctx context.Context, status string, warnings []string, err error) {
	duration := oo.service.now().Sub(oo.startTime)

	if err != nil {
		logging.LogOperationFailed(ctx, oo.service.logger, oo.op, err, duration)
	} else {
		logging.LogOperationComplete(ctx, oo.service.logger, oo.op, duration, len(warnings))
	}
	oo.span.Finish(status, len(warnings), err)

	if oo.service.metrics != nil {
		oo.service.metrics.RecordOperation(oo.op, status, duration)
	}

	if oo.service.journal == nil {
		return
	}
	rec := &history.Record{
		ID:        oo.recordID,
		Operation: oo.op,
		FromID:    oo.fromID,
		ToID:      oo.toID,
		Status:    status,
		Warnings:  warnings,
		StartedAt: oo.startTime,
		Duration:  duration,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	if saveErr := oo.service.journal.Save(context.WithoutCancel(ctx), rec); saveErr != nil {
		oo.service.logger.Error("failed to save history record",
			"error", saveErr,
			"record_id", oo.recordID,
			"correlation_id", oo.correlationID,
		)
	}
}

// RecordID returns the journal record id of the operation.
func (oo *OperationObserver) RecordID() string {
	return oo.recordID
}

// CorrelationID returns the correlation ID for the operation.
func (oo *OperationObserver) CorrelationID() string {
	return oo.correlationID
}

var _ workspace.Observer = (*Service)(nil)
