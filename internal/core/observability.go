package core

import (
	"context"
	"time"

	"colonyledger/pkg/domain"
)

// Logger captures the minimal structured logging surface used by the service.
// Arguments follow the key/value convention of slog-style loggers.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// AuditStatus marks the outcome recorded in an audit entry.
type AuditStatus string

// Audit entry outcomes.
const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusError   AuditStatus = "error"
)

// AuditEntry describes one completed service operation for compliance trails.
type AuditEntry struct {
	Operation string
	Entity    EntityType
	Action    Action
	EntityID  string
	Actor     string
	Status    AuditStatus
	Error     string
	Duration  time.Duration
	Timestamp time.Time
}

// AuditRecorder receives audit entries emitted by the service.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

type noopAuditRecorder struct{}

func (noopAuditRecorder) Record(context.Context, AuditEntry) {}

// MetricsRecorder aggregates operation timing and outcome counters.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

type noopMetricsRecorder struct{}

func (noopMetricsRecorder) Observe(context.Context, string, bool, time.Duration) {}

// TraceSpan terminates a span started by a Tracer.
type TraceSpan interface {
	End(err error)
}

// Tracer starts spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

type noopTracer struct{}

type noopSpan struct{}

func (noopSpan) End(error) {}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now returns the function's current time.
func (f ClockFunc) Now() time.Time { return f() }

type serviceOptions struct {
	logger  Logger
	audit   AuditRecorder
	metrics MetricsRecorder
	tracer  Tracer
	clock   Clock
}

func defaultServiceOptions() serviceOptions {
	return serviceOptions{
		logger:  noopLogger{},
		audit:   noopAuditRecorder{},
		metrics: noopMetricsRecorder{},
		tracer:  noopTracer{},
		clock:   ClockFunc(func() time.Time { return time.Now().UTC() }),
	}
}

// ServiceOption customizes service construction.
type ServiceOption func(*serviceOptions)

// WithLogger wires a structured logger into the service.
func WithLogger(logger Logger) ServiceOption {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithAuditRecorder wires an audit sink into the service.
func WithAuditRecorder(recorder AuditRecorder) ServiceOption {
	return func(o *serviceOptions) {
		if recorder != nil {
			o.audit = recorder
		}
	}
}

// WithMetricsRecorder wires a metrics sink into the service.
func WithMetricsRecorder(recorder MetricsRecorder) ServiceOption {
	return func(o *serviceOptions) {
		if recorder != nil {
			o.metrics = recorder
		}
	}
}

// WithTracer wires a tracer into the service.
func WithTracer(tracer Tracer) ServiceOption {
	return func(o *serviceOptions) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithClock overrides the service clock.
func WithClock(clock Clock) ServiceOption {
	return func(o *serviceOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

type operationInfo struct {
	entity EntityType
	action Action
}

// operationMetadata maps service operation names to the entity and action
// recorded in audit entries. Operations absent from the map produce no audit
// record.
var operationMetadata = map[string]operationInfo{
	"create_strain":           {entity: domain.EntityStrain, action: domain.ActionCreate},
	"update_strain":           {entity: domain.EntityStrain, action: domain.ActionUpdate},
	"delete_strain":           {entity: domain.EntityStrain, action: domain.ActionDelete},
	"create_animal":           {entity: domain.EntityAnimal, action: domain.ActionCreate},
	"update_animal":           {entity: domain.EntityAnimal, action: domain.ActionUpdate},
	"delete_animal":           {entity: domain.EntityAnimal, action: domain.ActionDelete},
	"mark_animal_for_culling": {entity: domain.EntityAnimal, action: domain.ActionUpdate},
	"create_cage":             {entity: domain.EntityCage, action: domain.ActionCreate},
	"update_cage":             {entity: domain.EntityCage, action: domain.ActionUpdate},
	"delete_cage":             {entity: domain.EntityCage, action: domain.ActionDelete},
	"place_animal":            {entity: domain.EntityOccupancyInterval, action: domain.ActionCreate},
	"add_weight_record":       {entity: domain.EntityWeightRecord, action: domain.ActionCreate},
	"submit_transfer_request": {entity: domain.EntityTransferRequest, action: domain.ActionCreate},
	"submit_breeding_request": {entity: domain.EntityBreedingRequest, action: domain.ActionCreate},
	"submit_culling_request":  {entity: domain.EntityCullingRequest, action: domain.ActionCreate},
	"approve_request":         {entity: domain.EntityTransferRequest, action: domain.ActionUpdate},
	"reject_request":          {entity: domain.EntityTransferRequest, action: domain.ActionUpdate},
	"cancel_request":          {entity: domain.EntityTransferRequest, action: domain.ActionDelete},
	"end_breeding_pair":       {entity: domain.EntityBreedingPair, action: domain.ActionUpdate},
	"mark_notification_read":  {entity: domain.EntityNotification, action: domain.ActionUpdate},
}

func (s *Service) recordAuditSuccess(ctx context.Context, operation, entityID string, duration time.Duration) {
	info, ok := operationMetadata[operation]
	if !ok {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		Operation: operation,
		Entity:    info.entity,
		Action:    info.action,
		EntityID:  entityID,
		Status:    AuditStatusSuccess,
		Duration:  duration,
		Timestamp: s.clock.Now(),
	})
}

func (s *Service) recordAuditError(ctx context.Context, operation, entityID string, duration time.Duration, err error) {
	info, ok := operationMetadata[operation]
	if !ok {
		return
	}
	entry := AuditEntry{
		Operation: operation,
		Entity:    info.entity,
		Action:    info.action,
		EntityID:  entityID,
		Status:    AuditStatusError,
		Duration:  duration,
		Timestamp: s.clock.Now(),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	s.audit.Record(ctx, entry)
}

// instrument wraps a service operation with tracing, metrics, audit, and
// structured logging. fn returns the primary entity ID for the audit trail,
// which may be empty when the operation failed before resolving one.
func (s *Service) instrument(ctx context.Context, operation string, fn func(ctx context.Context) (string, error)) error {
	ctx, span := s.tracer.Start(ctx, operation)
	start := s.clock.Now()

	entityID, err := fn(ctx)
	duration := s.clock.Now().Sub(start)

	span.End(err)
	s.metrics.Observe(ctx, operation, err == nil, duration)
	if err != nil {
		s.recordAuditError(ctx, operation, entityID, duration, err)
		s.logger.Error("operation failed", "operation", operation, "entity_id", entityID, "error", err)
		return err
	}
	s.recordAuditSuccess(ctx, operation, entityID, duration)
	s.logger.Debug("operation completed", "operation", operation, "entity_id", entityID, "duration_ms", float64(duration)/float64(time.Millisecond))
	return nil
}
