// Package domain defines the core persistent entities, value types, typed
// errors, and rule evaluation primitives used by colonyledger.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityAnimal identifies an individual animal record.
	EntityAnimal EntityType = "animal"
	// EntityCage identifies a physical housing unit record.
	EntityCage EntityType = "cage"
	// EntityStrain identifies a species-strain record.
	EntityStrain EntityType = "strain"
	// EntityOccupancyInterval identifies an occupancy ledger entry.
	EntityOccupancyInterval EntityType = "occupancy_interval"
	// EntityBreedingPair identifies an active or ended breeding pairing.
	EntityBreedingPair EntityType = "breeding_pair"
	// EntityTransferRequest identifies a cage transfer request.
	EntityTransferRequest EntityType = "transfer_request"
	// EntityBreedingRequest identifies a breeding pairing request.
	EntityBreedingRequest EntityType = "breeding_request"
	// EntityCullingRequest identifies a culling request.
	EntityCullingRequest EntityType = "culling_request"
	// EntityNotification identifies a workflow notification record.
	EntityNotification EntityType = "notification"
	// EntityWeightRecord identifies a weight measurement record.
	EntityWeightRecord EntityType = "weight_record"
)

// AnimalState represents the canonical biological states of an animal.
type AnimalState string

// Canonical animal states. StateDeceased is terminal.
const (
	// StateAlive is the initial state of every animal.
	StateAlive AnimalState = "alive"
	// StateBreeding marks an animal participating in an active pairing.
	StateBreeding AnimalState = "breeding"
	// StatePendingCull marks an animal flagged for culling by colony management.
	StatePendingCull AnimalState = "pending_cull"
	// StateDeceased is terminal; a deceased animal holds no cage.
	StateDeceased AnimalState = "deceased"
)

// Sex is the binary breeding sex of an animal, immutable after creation.
type Sex string

// Animal sexes as recorded at creation.
const (
	SexMale   Sex = "M"
	SexFemale Sex = "F"
)

// Earmark is a physical identification clip position.
type Earmark string

// Recognised earmark clip positions.
const (
	EarmarkTopLeft     Earmark = "TL"
	EarmarkTopRight    Earmark = "TR"
	EarmarkBottomLeft  Earmark = "BL"
	EarmarkBottomRight Earmark = "BR"
)

// Genotype classifies an animal's genetic makeup for the tracked strain.
type Genotype string

// Recognised genotype classifications.
const (
	GenotypeWildType     Genotype = "wt"
	GenotypeHeterozygous Genotype = "ht"
	GenotypeKnockOut     Genotype = "ko"
	GenotypeUnknown      Genotype = "na"
)

// RequestStatus enumerates workflow states of a lifecycle-changing request.
// The approved outcome of the original system is collapsed into the single
// terminal StatusCompleted, reached atomically on approval.
type RequestStatus string

// Request workflow statuses. StatusCompleted and StatusRejected are terminal.
const (
	StatusPending   RequestStatus = "pending"
	StatusCompleted RequestStatus = "completed"
	StatusRejected  RequestStatus = "rejected"
)

// RequestKind discriminates the three fixed request kinds.
type RequestKind string

// Fixed request kinds handled by the workflow.
const (
	KindTransfer RequestKind = "transfer"
	KindBreeding RequestKind = "breeding"
	KindCulling  RequestKind = "culling"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Strain represents a species-strain with a unique name. Tube numbers are
// unique within a strain.
type Strain struct {
	Base
	Name string `json:"name"`
}

// Animal represents an individual animal tracked by the colony.
type Animal struct {
	Base
	StrainID    string      `json:"strain_id"`
	TubeID      int         `json:"tube_id"`
	DateOfBirth time.Time   `json:"date_of_birth"`
	Sex         Sex         `json:"sex"`
	MotherID    *string     `json:"mother_id"`
	FatherID    *string     `json:"father_id"`
	Earmarks    []Earmark   `json:"earmarks"`
	ClippedDate *time.Time  `json:"clipped_date"`
	State       AnimalState `json:"state"`
	CullDate    *time.Time  `json:"cull_date"`
	Weaned      bool        `json:"weaned"`
	WeanedDate  *time.Time  `json:"weaned_date"`
	Genotype    Genotype    `json:"genotype"`
}

// Cage captures the identity and static attributes of a housing unit.
type Cage struct {
	Base
	Number   string `json:"number"`
	Type     string `json:"type"`
	Location string `json:"location"`
}

// OccupancyInterval is one entry of the append-mostly occupancy ledger. An
// interval with a nil End is open: the animal is currently housed in the
// cage. For a given animal at most one open interval exists at any time, and
// End, when set, is strictly after Start.
type OccupancyInterval struct {
	Base
	CageID   string     `json:"cage_id"`
	AnimalID string     `json:"animal_id"`
	Start    time.Time  `json:"start"`
	End      *time.Time `json:"end"`
}

// Open reports whether the interval has no end timestamp.
func (i OccupancyInterval) Open() bool { return i.End == nil }

// BreedingPair records an active or ended breeding union of two animals in a
// shared cage, tracked independently of the request that created it.
type BreedingPair struct {
	Base
	MaleID   string     `json:"male_id"`
	FemaleID string     `json:"female_id"`
	CageID   string     `json:"cage_id"`
	Start    time.Time  `json:"start"`
	End      *time.Time `json:"end"`
}

// Active reports whether the pairing has not been ended.
func (p BreedingPair) Active() bool { return p.End == nil }

// WeightRecord stores one weight measurement for an animal.
type WeightRecord struct {
	Base
	AnimalID   string    `json:"animal_id"`
	Grams      float64   `json:"grams"`
	MeasuredAt time.Time `json:"measured_at"`
}

// RequestBase holds the shared shape of the three request kinds. Requests
// are owned by their requester until terminal and mutated only by the
// workflow service.
type RequestBase struct {
	Base
	RequesterID string        `json:"requester_id"`
	Status      RequestStatus `json:"status"`
	RequestedAt time.Time     `json:"requested_at"`
	ApprovedAt  *time.Time    `json:"approved_at"`
	Comments    string        `json:"comments"`
}

// RequestID returns the request identity.
func (r RequestBase) RequestID() string { return r.ID }

// CurrentStatus returns the workflow status.
func (r RequestBase) CurrentStatus() RequestStatus { return r.Status }

// Requester returns the owning requester identity.
func (r RequestBase) Requester() string { return r.RequesterID }

// IsPending reports whether the request is still awaiting a decision.
func (r RequestBase) IsPending() bool { return r.Status == StatusPending }

// IsTerminal reports whether no further workflow transition is defined.
func (r RequestBase) IsTerminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusRejected
}

// TransferRequest asks to move an animal from a source cage to a different
// destination cage.
type TransferRequest struct {
	RequestBase
	AnimalID          string `json:"animal_id"`
	SourceCageID      string `json:"source_cage_id"`
	DestinationCageID string `json:"destination_cage_id"`
}

// Kind identifies the request kind.
func (TransferRequest) Kind() RequestKind { return KindTransfer }

// Subjects returns the animals affected by approval.
func (r TransferRequest) Subjects() []string { return []string{r.AnimalID} }

// BreedingRequest asks to pair a male and a female animal in a target cage.
type BreedingRequest struct {
	RequestBase
	MaleID   string `json:"male_id"`
	FemaleID string `json:"female_id"`
	CageID   string `json:"cage_id"`
}

// Kind identifies the request kind.
func (BreedingRequest) Kind() RequestKind { return KindBreeding }

// Subjects returns the animals affected by approval.
func (r BreedingRequest) Subjects() []string { return []string{r.MaleID, r.FemaleID} }

// CullingRequest asks to end an animal's life-cycle.
type CullingRequest struct {
	RequestBase
	AnimalID string `json:"animal_id"`
}

// Kind identifies the request kind.
func (CullingRequest) Kind() RequestKind { return KindCulling }

// Subjects returns the animals affected by approval.
func (r CullingRequest) Subjects() []string { return []string{r.AnimalID} }

// Request is the read surface shared by the three request kinds.
type Request interface {
	RequestID() string
	Kind() RequestKind
	CurrentStatus() RequestStatus
	Requester() string
	Subjects() []string
}

// Compile-time checks that the concrete kinds satisfy Request.
var (
	_ Request = TransferRequest{}
	_ Request = BreedingRequest{}
	_ Request = CullingRequest{}
)

// Notification records a workflow outcome for later delivery. It is created
// only inside the same atomic unit as the transition it describes and never
// mutates request or animal state.
type Notification struct {
	Base
	RecipientID string      `json:"recipient_id"`
	Message     string      `json:"message"`
	Read        bool        `json:"read"`
	RequestKind RequestKind `json:"request_kind,omitempty"`
	RequestID   string      `json:"request_id,omitempty"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported mutations captured for rule evaluation.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// Warnings returns the subset of violations at warning severity.
func (r Result) Warnings() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == SeverityWarn {
			out = append(out, v)
		}
	}
	return out
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
