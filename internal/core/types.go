package core

import (
	"colonyledger/pkg/domain"
)

// Type aliases keep service code terse while the canonical definitions live in
// pkg/domain.
type (
	// EntityType aliases domain.EntityType.
	EntityType = domain.EntityType
	// AnimalState aliases domain.AnimalState.
	AnimalState = domain.AnimalState
	// Sex aliases domain.Sex.
	Sex = domain.Sex
	// Genotype aliases domain.Genotype.
	Genotype = domain.Genotype
	// RequestStatus aliases domain.RequestStatus.
	RequestStatus = domain.RequestStatus
	// RequestKind aliases domain.RequestKind.
	RequestKind = domain.RequestKind
	// Strain aliases domain.Strain.
	Strain = domain.Strain
	// Animal aliases domain.Animal.
	Animal = domain.Animal
	// Cage aliases domain.Cage.
	Cage = domain.Cage
	// OccupancyInterval aliases domain.OccupancyInterval.
	OccupancyInterval = domain.OccupancyInterval
	// BreedingPair aliases domain.BreedingPair.
	BreedingPair = domain.BreedingPair
	// TransferRequest aliases domain.TransferRequest.
	TransferRequest = domain.TransferRequest
	// BreedingRequest aliases domain.BreedingRequest.
	BreedingRequest = domain.BreedingRequest
	// CullingRequest aliases domain.CullingRequest.
	CullingRequest = domain.CullingRequest
	// Request aliases the read surface shared by request kinds.
	Request = domain.Request
	// Notification aliases domain.Notification.
	Notification = domain.Notification
	// WeightRecord aliases domain.WeightRecord.
	WeightRecord = domain.WeightRecord
	// Change aliases domain.Change.
	Change = domain.Change
	// Action aliases domain.Action.
	Action = domain.Action
	// Severity aliases domain.Severity.
	Severity = domain.Severity
	// Violation aliases domain.Violation.
	Violation = domain.Violation
	// Result aliases domain.Result.
	Result = domain.Result
	// Rule aliases domain.Rule.
	Rule = domain.Rule
	// RulesEngine aliases domain.RulesEngine.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView.
	TransactionView = domain.TransactionView
	// PersistentStore aliases domain.PersistentStore.
	PersistentStore = domain.PersistentStore
)

// Re-exported constants commonly used by service callers.
const (
	StateAlive       = domain.StateAlive
	StateBreeding    = domain.StateBreeding
	StatePendingCull = domain.StatePendingCull
	StateDeceased    = domain.StateDeceased

	StatusPending   = domain.StatusPending
	StatusCompleted = domain.StatusCompleted
	StatusRejected  = domain.StatusRejected

	KindTransfer = domain.KindTransfer
	KindBreeding = domain.KindBreeding
	KindCulling  = domain.KindCulling

	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
)

// NewRulesEngine constructs an engine and registers the supplied rules.
func NewRulesEngine(rules ...Rule) *RulesEngine {
	engine := domain.NewRulesEngine()
	for _, rule := range rules {
		engine.Register(rule)
	}
	return engine
}
