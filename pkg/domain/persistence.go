package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView

	CreateStrain(Strain) (Strain, error)
	UpdateStrain(id string, mutator func(*Strain) error) (Strain, error)
	DeleteStrain(id string) error

	CreateAnimal(Animal) (Animal, error)
	UpdateAnimal(id string, mutator func(*Animal) error) (Animal, error)
	DeleteAnimal(id string) error

	CreateCage(Cage) (Cage, error)
	UpdateCage(id string, mutator func(*Cage) error) (Cage, error)
	DeleteCage(id string) error

	CreateOccupancyInterval(OccupancyInterval) (OccupancyInterval, error)
	UpdateOccupancyInterval(id string, mutator func(*OccupancyInterval) error) (OccupancyInterval, error)

	CreateBreedingPair(BreedingPair) (BreedingPair, error)
	UpdateBreedingPair(id string, mutator func(*BreedingPair) error) (BreedingPair, error)

	CreateTransferRequest(TransferRequest) (TransferRequest, error)
	UpdateTransferRequest(id string, mutator func(*TransferRequest) error) (TransferRequest, error)
	DeleteTransferRequest(id string) error

	CreateBreedingRequest(BreedingRequest) (BreedingRequest, error)
	UpdateBreedingRequest(id string, mutator func(*BreedingRequest) error) (BreedingRequest, error)
	DeleteBreedingRequest(id string) error

	CreateCullingRequest(CullingRequest) (CullingRequest, error)
	UpdateCullingRequest(id string, mutator func(*CullingRequest) error) (CullingRequest, error)
	DeleteCullingRequest(id string) error

	CreateNotification(Notification) (Notification, error)
	UpdateNotification(id string, mutator func(*Notification) error) (Notification, error)

	CreateWeightRecord(WeightRecord) (WeightRecord, error)

	FindStrain(id string) (Strain, bool)
	FindAnimal(id string) (Animal, bool)
	FindCage(id string) (Cage, bool)
	FindBreedingPair(id string) (BreedingPair, bool)
	// FindOpenInterval is an indexed lookup keyed by animal so the
	// concurrency-check path never scans the full ledger.
	FindOpenInterval(animalID string) (OccupancyInterval, bool)
	FindRequest(id string) (Request, bool)
	FindNotification(id string) (Notification, bool)
}

// TransactionView provides read-only access to snapshot data for rules and
// lineage traversals.
type TransactionView interface {
	ListAnimals() []Animal
	ListCages() []Cage
	ListStrains() []Strain
	ListOccupancyIntervals() []OccupancyInterval
	ListBreedingPairs() []BreedingPair
	ListRequests() []Request
	FindAnimal(id string) (Animal, bool)
	FindCage(id string) (Cage, bool)
	FindStrain(id string) (Strain, bool)
	FindOpenInterval(animalID string) (OccupancyInterval, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetAnimal(id string) (Animal, bool)
	ListAnimals() []Animal
	GetCage(id string) (Cage, bool)
	ListCages() []Cage
	ListStrains() []Strain
	GetBreedingPair(id string) (BreedingPair, bool)
	ListBreedingPairs() []BreedingPair
	GetRequest(id string) (Request, bool)
	ListRequests() []Request
	// OpenInterval returns the animal's open occupancy interval, if any.
	OpenInterval(animalID string) (OccupancyInterval, bool)
	// OccupancyHistory lists an animal's intervals ordered by start time.
	OccupancyHistory(animalID string) []OccupancyInterval
	ListNotifications(recipientID string) []Notification
	ListWeightRecords(animalID string) []WeightRecord
}
