// Package core implements the transactional colony service: registry CRUD,
// the occupancy ledger, the animal lifecycle, and the request workflow.
package core

import (
	"colonyledger/internal/infra/persistence/memory"
)

// Service exposes higher-level transactional operations over the colony
// schema. All mutations run inside store transactions evaluated by the rules
// engine; reads come from committed state.
type Service struct {
	store   PersistentStore
	logger  Logger
	audit   AuditRecorder
	metrics MetricsRecorder
	tracer  Tracer
	clock   Clock
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...ServiceOption) *Service {
	options := defaultServiceOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &Service{
		store:   store,
		logger:  options.logger,
		audit:   options.audit,
		metrics: options.metrics,
		tracer:  options.tracer,
		clock:   options.clock,
	}
}

// NewInMemoryService creates a service and in-memory store with the given
// rules engine. A nil engine gets the default rule set.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	if engine == nil {
		engine = NewDefaultRulesEngine()
	}
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}
