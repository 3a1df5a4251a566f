// Package memory provides an in-memory implementation of the core persistence
// store used for tests and ephemeral environments.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"colonyledger/pkg/domain"

	"github.com/google/uuid"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Animal aliases domain.Animal for in-memory persistence operations.
	Animal = domain.Animal
	// Cage aliases domain.Cage.
	Cage = domain.Cage
	// Strain aliases domain.Strain.
	Strain = domain.Strain
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
	// Notification aliases domain.Notification.
	Notification = domain.Notification
	// WeightRecord aliases domain.WeightRecord.
	WeightRecord = domain.WeightRecord
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
	// PersistentStore aliases domain.PersistentStore abstraction.
	PersistentStore = domain.PersistentStore
)

type memoryState struct {
	strains       map[string]Strain
	animals       map[string]Animal
	cages         map[string]Cage
	intervals     map[string]OccupancyInterval
	pairs         map[string]BreedingPair
	transfers     map[string]TransferRequest
	breedings     map[string]BreedingRequest
	cullings      map[string]CullingRequest
	notifications map[string]Notification
	weights       map[string]WeightRecord
	// openByAnimal indexes the open occupancy interval per animal so the
	// approval precondition path stays a map lookup.
	openByAnimal map[string]string
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Strains       map[string]Strain            `json:"strains"`
	Animals       map[string]Animal            `json:"animals"`
	Cages         map[string]Cage              `json:"cages"`
	Intervals     map[string]OccupancyInterval `json:"intervals"`
	Pairs         map[string]BreedingPair      `json:"pairs"`
	Transfers     map[string]TransferRequest   `json:"transfer_requests"`
	Breedings     map[string]BreedingRequest   `json:"breeding_requests"`
	Cullings      map[string]CullingRequest    `json:"culling_requests"`
	Notifications map[string]Notification      `json:"notifications"`
	Weights       map[string]WeightRecord      `json:"weight_records"`
}

func newMemoryState() memoryState {
	return memoryState{
		strains:       make(map[string]Strain),
		animals:       make(map[string]Animal),
		cages:         make(map[string]Cage),
		intervals:     make(map[string]OccupancyInterval),
		pairs:         make(map[string]BreedingPair),
		transfers:     make(map[string]TransferRequest),
		breedings:     make(map[string]BreedingRequest),
		cullings:      make(map[string]CullingRequest),
		notifications: make(map[string]Notification),
		weights:       make(map[string]WeightRecord),
		openByAnimal:  make(map[string]string),
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	snap := Snapshot{
		Strains:       make(map[string]Strain, len(state.strains)),
		Animals:       make(map[string]Animal, len(state.animals)),
		Cages:         make(map[string]Cage, len(state.cages)),
		Intervals:     make(map[string]OccupancyInterval, len(state.intervals)),
		Pairs:         make(map[string]BreedingPair, len(state.pairs)),
		Transfers:     make(map[string]TransferRequest, len(state.transfers)),
		Breedings:     make(map[string]BreedingRequest, len(state.breedings)),
		Cullings:      make(map[string]CullingRequest, len(state.cullings)),
		Notifications: make(map[string]Notification, len(state.notifications)),
		Weights:       make(map[string]WeightRecord, len(state.weights)),
	}
	for k, v := range state.strains {
		snap.Strains[k] = v
	}
	for k, v := range state.animals {
		snap.Animals[k] = cloneAnimal(v)
	}
	for k, v := range state.cages {
		snap.Cages[k] = v
	}
	for k, v := range state.intervals {
		snap.Intervals[k] = cloneInterval(v)
	}
	for k, v := range state.pairs {
		snap.Pairs[k] = clonePair(v)
	}
	for k, v := range state.transfers {
		snap.Transfers[k] = cloneTransfer(v)
	}
	for k, v := range state.breedings {
		snap.Breedings[k] = cloneBreedingRequest(v)
	}
	for k, v := range state.cullings {
		snap.Cullings[k] = cloneCulling(v)
	}
	for k, v := range state.notifications {
		snap.Notifications[k] = v
	}
	for k, v := range state.weights {
		snap.Weights[k] = v
	}
	return snap
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Strains {
		state.strains[k] = v
	}
	for k, v := range s.Animals {
		state.animals[k] = cloneAnimal(v)
	}
	for k, v := range s.Cages {
		state.cages[k] = v
	}
	for k, v := range s.Intervals {
		state.intervals[k] = cloneInterval(v)
		if v.End == nil {
			state.openByAnimal[v.AnimalID] = v.ID
		}
	}
	for k, v := range s.Pairs {
		state.pairs[k] = clonePair(v)
	}
	for k, v := range s.Transfers {
		state.transfers[k] = cloneTransfer(v)
	}
	for k, v := range s.Breedings {
		state.breedings[k] = cloneBreedingRequest(v)
	}
	for k, v := range s.Cullings {
		state.cullings[k] = cloneCulling(v)
	}
	for k, v := range s.Notifications {
		state.notifications[k] = v
	}
	for k, v := range s.Weights {
		state.weights[k] = v
	}
	return state
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.strains {
		cloned.strains[k] = v
	}
	for k, v := range s.animals {
		cloned.animals[k] = cloneAnimal(v)
	}
	for k, v := range s.cages {
		cloned.cages[k] = v
	}
	for k, v := range s.intervals {
		cloned.intervals[k] = cloneInterval(v)
	}
	for k, v := range s.pairs {
		cloned.pairs[k] = clonePair(v)
	}
	for k, v := range s.transfers {
		cloned.transfers[k] = cloneTransfer(v)
	}
	for k, v := range s.breedings {
		cloned.breedings[k] = cloneBreedingRequest(v)
	}
	for k, v := range s.cullings {
		cloned.cullings[k] = cloneCulling(v)
	}
	for k, v := range s.notifications {
		cloned.notifications[k] = v
	}
	for k, v := range s.weights {
		cloned.weights[k] = v
	}
	for k, v := range s.openByAnimal {
		cloned.openByAnimal[k] = v
	}
	return cloned
}

func timePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}

func stringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

func cloneAnimal(a Animal) Animal {
	cp := a
	cp.MotherID = stringPtr(a.MotherID)
	cp.FatherID = stringPtr(a.FatherID)
	cp.ClippedDate = timePtr(a.ClippedDate)
	cp.CullDate = timePtr(a.CullDate)
	cp.WeanedDate = timePtr(a.WeanedDate)
	cp.Earmarks = append([]domain.Earmark(nil), a.Earmarks...)
	return cp
}

func cloneInterval(i OccupancyInterval) OccupancyInterval {
	cp := i
	cp.End = timePtr(i.End)
	return cp
}

func clonePair(p BreedingPair) BreedingPair {
	cp := p
	cp.End = timePtr(p.End)
	return cp
}

func cloneTransfer(r TransferRequest) TransferRequest {
	cp := r
	cp.ApprovedAt = timePtr(r.ApprovedAt)
	return cp
}

func cloneBreedingRequest(r BreedingRequest) BreedingRequest {
	cp := r
	cp.ApprovedAt = timePtr(r.ApprovedAt)
	return cp
}

func cloneCulling(r CullingRequest) CullingRequest {
	cp := r
	cp.ApprovedAt = timePtr(r.ApprovedAt)
	return cp
}

// Store provides a transactional in-memory store for the colony domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	return uuid.NewString()
}

// ExportState returns a deep copy of the committed state for snapshotting.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the committed state with the supplied snapshot,
// rebuilding the open-interval index.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(snapshot)
}

// RulesEngine exposes the configured engine for wrapping stores.
func (s *Store) RulesEngine() *RulesEngine {
	return s.engine
}

// SetNowFunc overrides the transaction clock; intended for tests.
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		s.nowFn = fn
	}
}

type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// RunInTransaction executes fn against a clone of the committed state,
// evaluates the rules engine, and swaps the clone in only on full success.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot exposes the transactional state read-only.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// --- transaction finders ---

func (tx *transaction) FindStrain(id string) (Strain, bool) {
	st, ok := tx.state.strains[id]
	return st, ok
}

func (tx *transaction) FindAnimal(id string) (Animal, bool) {
	a, ok := tx.state.animals[id]
	if !ok {
		return Animal{}, false
	}
	return cloneAnimal(a), true
}

func (tx *transaction) FindCage(id string) (Cage, bool) {
	c, ok := tx.state.cages[id]
	return c, ok
}

func (tx *transaction) FindBreedingPair(id string) (BreedingPair, bool) {
	p, ok := tx.state.pairs[id]
	if !ok {
		return BreedingPair{}, false
	}
	return clonePair(p), true
}

func (tx *transaction) FindOpenInterval(animalID string) (OccupancyInterval, bool) {
	intervalID, ok := tx.state.openByAnimal[animalID]
	if !ok {
		return OccupancyInterval{}, false
	}
	interval, ok := tx.state.intervals[intervalID]
	if !ok {
		return OccupancyInterval{}, false
	}
	return cloneInterval(interval), true
}

func (tx *transaction) FindRequest(id string) (domain.Request, bool) {
	if r, ok := tx.state.transfers[id]; ok {
		return cloneTransfer(r), true
	}
	if r, ok := tx.state.breedings[id]; ok {
		return cloneBreedingRequest(r), true
	}
	if r, ok := tx.state.cullings[id]; ok {
		return cloneCulling(r), true
	}
	return nil, false
}

func (tx *transaction) FindNotification(id string) (Notification, bool) {
	n, ok := tx.state.notifications[id]
	return n, ok
}

// --- strain CRUD ---

func (tx *transaction) CreateStrain(st Strain) (Strain, error) {
	if st.ID == "" {
		st.ID = tx.store.newID()
	}
	if _, exists := tx.state.strains[st.ID]; exists {
		return Strain{}, fmt.Errorf("strain %q already exists", st.ID)
	}
	st.CreatedAt = tx.now
	st.UpdatedAt = tx.now
	tx.state.strains[st.ID] = st
	tx.recordChange(Change{Entity: domain.EntityStrain, Action: domain.ActionCreate, After: st})
	return st, nil
}

func (tx *transaction) UpdateStrain(id string, mutator func(*Strain) error) (Strain, error) {
	current, ok := tx.state.strains[id]
	if !ok {
		return Strain{}, fmt.Errorf("strain %q not found", id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return Strain{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.strains[id] = current
	tx.recordChange(Change{Entity: domain.EntityStrain, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

func (tx *transaction) DeleteStrain(id string) error {
	current, ok := tx.state.strains[id]
	if !ok {
		return fmt.Errorf("strain %q not found", id)
	}
	delete(tx.state.strains, id)
	tx.recordChange(Change{Entity: domain.EntityStrain, Action: domain.ActionDelete, Before: current})
	return nil
}

// --- animal CRUD ---

func (tx *transaction) CreateAnimal(a Animal) (Animal, error) {
	if a.ID == "" {
		a.ID = tx.store.newID()
	}
	if _, exists := tx.state.animals[a.ID]; exists {
		return Animal{}, fmt.Errorf("animal %q already exists", a.ID)
	}
	a.CreatedAt = tx.now
	a.UpdatedAt = tx.now
	tx.state.animals[a.ID] = cloneAnimal(a)
	tx.recordChange(Change{Entity: domain.EntityAnimal, Action: domain.ActionCreate, After: cloneAnimal(a)})
	return cloneAnimal(a), nil
}

func (tx *transaction) UpdateAnimal(id string, mutator func(*Animal) error) (Animal, error) {
	current, ok := tx.state.animals[id]
	if !ok {
		return Animal{}, fmt.Errorf("animal %q not found", id)
	}
	before := cloneAnimal(current)
	working := cloneAnimal(current)
	if err := mutator(&working); err != nil {
		return Animal{}, err
	}
	working.ID = id
	working.UpdatedAt = tx.now
	tx.state.animals[id] = cloneAnimal(working)
	tx.recordChange(Change{Entity: domain.EntityAnimal, Action: domain.ActionUpdate, Before: before, After: cloneAnimal(working)})
	return cloneAnimal(working), nil
}

func (tx *transaction) DeleteAnimal(id string) error {
	current, ok := tx.state.animals[id]
	if !ok {
		return fmt.Errorf("animal %q not found", id)
	}
	delete(tx.state.animals, id)
	tx.recordChange(Change{Entity: domain.EntityAnimal, Action: domain.ActionDelete, Before: cloneAnimal(current)})
	return nil
}

// --- cage CRUD ---

func (tx *transaction) CreateCage(c Cage) (Cage, error) {
	if c.ID == "" {
		c.ID = tx.store.newID()
	}
	if _, exists := tx.state.cages[c.ID]; exists {
		return Cage{}, fmt.Errorf("cage %q already exists", c.ID)
	}
	c.CreatedAt = tx.now
	c.UpdatedAt = tx.now
	tx.state.cages[c.ID] = c
	tx.recordChange(Change{Entity: domain.EntityCage, Action: domain.ActionCreate, After: c})
	return c, nil
}

func (tx *transaction) UpdateCage(id string, mutator func(*Cage) error) (Cage, error) {
	current, ok := tx.state.cages[id]
	if !ok {
		return Cage{}, fmt.Errorf("cage %q not found", id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return Cage{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.cages[id] = current
	tx.recordChange(Change{Entity: domain.EntityCage, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

func (tx *transaction) DeleteCage(id string) error {
	current, ok := tx.state.cages[id]
	if !ok {
		return fmt.Errorf("cage %q not found", id)
	}
	delete(tx.state.cages, id)
	tx.recordChange(Change{Entity: domain.EntityCage, Action: domain.ActionDelete, Before: current})
	return nil
}

// --- occupancy ledger ---

func (tx *transaction) CreateOccupancyInterval(i OccupancyInterval) (OccupancyInterval, error) {
	if i.ID == "" {
		i.ID = tx.store.newID()
	}
	if _, exists := tx.state.intervals[i.ID]; exists {
		return OccupancyInterval{}, fmt.Errorf("occupancy interval %q already exists", i.ID)
	}
	i.CreatedAt = tx.now
	i.UpdatedAt = tx.now
	tx.state.intervals[i.ID] = cloneInterval(i)
	if i.End == nil {
		tx.state.openByAnimal[i.AnimalID] = i.ID
	}
	tx.recordChange(Change{Entity: domain.EntityOccupancyInterval, Action: domain.ActionCreate, After: cloneInterval(i)})
	return cloneInterval(i), nil
}

func (tx *transaction) UpdateOccupancyInterval(id string, mutator func(*OccupancyInterval) error) (OccupancyInterval, error) {
	current, ok := tx.state.intervals[id]
	if !ok {
		return OccupancyInterval{}, fmt.Errorf("occupancy interval %q not found", id)
	}
	before := cloneInterval(current)
	working := cloneInterval(current)
	if err := mutator(&working); err != nil {
		return OccupancyInterval{}, err
	}
	working.ID = id
	working.UpdatedAt = tx.now
	tx.state.intervals[id] = cloneInterval(working)
	if before.End == nil && working.End != nil {
		if tx.state.openByAnimal[working.AnimalID] == id {
			delete(tx.state.openByAnimal, working.AnimalID)
		}
	}
	if working.End == nil {
		tx.state.openByAnimal[working.AnimalID] = id
	}
	tx.recordChange(Change{Entity: domain.EntityOccupancyInterval, Action: domain.ActionUpdate, Before: before, After: cloneInterval(working)})
	return cloneInterval(working), nil
}

// --- breeding pairs ---

func (tx *transaction) CreateBreedingPair(p BreedingPair) (BreedingPair, error) {
	if p.ID == "" {
		p.ID = tx.store.newID()
	}
	if _, exists := tx.state.pairs[p.ID]; exists {
		return BreedingPair{}, fmt.Errorf("breeding pair %q already exists", p.ID)
	}
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	tx.state.pairs[p.ID] = clonePair(p)
	tx.recordChange(Change{Entity: domain.EntityBreedingPair, Action: domain.ActionCreate, After: clonePair(p)})
	return clonePair(p), nil
}

func (tx *transaction) UpdateBreedingPair(id string, mutator func(*BreedingPair) error) (BreedingPair, error) {
	current, ok := tx.state.pairs[id]
	if !ok {
		return BreedingPair{}, fmt.Errorf("breeding pair %q not found", id)
	}
	before := clonePair(current)
	working := clonePair(current)
	if err := mutator(&working); err != nil {
		return BreedingPair{}, err
	}
	working.ID = id
	working.UpdatedAt = tx.now
	tx.state.pairs[id] = clonePair(working)
	tx.recordChange(Change{Entity: domain.EntityBreedingPair, Action: domain.ActionUpdate, Before: before, After: clonePair(working)})
	return clonePair(working), nil
}

// --- requests ---

func (tx *transaction) CreateTransferRequest(r TransferRequest) (TransferRequest, error) {
	if r.ID == "" {
		r.ID = tx.store.newID()
	}
	if _, exists := tx.findRequestBucket(r.ID); exists {
		return TransferRequest{}, fmt.Errorf("request %q already exists", r.ID)
	}
	r.CreatedAt = tx.now
	r.UpdatedAt = tx.now
	tx.state.transfers[r.ID] = cloneTransfer(r)
	tx.recordChange(Change{Entity: domain.EntityTransferRequest, Action: domain.ActionCreate, After: cloneTransfer(r)})
	return cloneTransfer(r), nil
}

func (tx *transaction) UpdateTransferRequest(id string, mutator func(*TransferRequest) error) (TransferRequest, error) {
	current, ok := tx.state.transfers[id]
	if !ok {
		return TransferRequest{}, fmt.Errorf("transfer request %q not found", id)
	}
	before := cloneTransfer(current)
	working := cloneTransfer(current)
	if err := mutator(&working); err != nil {
		return TransferRequest{}, err
	}
	working.ID = id
	working.UpdatedAt = tx.now
	tx.state.transfers[id] = cloneTransfer(working)
	tx.recordChange(Change{Entity: domain.EntityTransferRequest, Action: domain.ActionUpdate, Before: before, After: cloneTransfer(working)})
	return cloneTransfer(working), nil
}

func (tx *transaction) DeleteTransferRequest(id string) error {
	current, ok := tx.state.transfers[id]
	if !ok {
		return fmt.Errorf("transfer request %q not found", id)
	}
	delete(tx.state.transfers, id)
	tx.recordChange(Change{Entity: domain.EntityTransferRequest, Action: domain.ActionDelete, Before: cloneTransfer(current)})
	return nil
}

func (tx *transaction) CreateBreedingRequest(r BreedingRequest) (BreedingRequest, error) {
	if r.ID == "" {
		r.ID = tx.store.newID()
	}
	if _, exists := tx.findRequestBucket(r.ID); exists {
		return BreedingRequest{}, fmt.Errorf("request %q already exists", r.ID)
	}
	r.CreatedAt = tx.now
	r.UpdatedAt = tx.now
	tx.state.breedings[r.ID] = cloneBreedingRequest(r)
	tx.recordChange(Change{Entity: domain.EntityBreedingRequest, Action: domain.ActionCreate, After: cloneBreedingRequest(r)})
	return cloneBreedingRequest(r), nil
}

func (tx *transaction) UpdateBreedingRequest(id string, mutator func(*BreedingRequest) error) (BreedingRequest, error) {
	current, ok := tx.state.breedings[id]
	if !ok {
		return BreedingRequest{}, fmt.Errorf("breeding request %q not found", id)
	}
	before := cloneBreedingRequest(current)
	working := cloneBreedingRequest(current)
	if err := mutator(&working); err != nil {
		return BreedingRequest{}, err
	}
	working.ID = id
	working.UpdatedAt = tx.now
	tx.state.breedings[id] = cloneBreedingRequest(working)
	tx.recordChange(Change{Entity: domain.EntityBreedingRequest, Action: domain.ActionUpdate, Before: before, After: cloneBreedingRequest(working)})
	return cloneBreedingRequest(working), nil
}

func (tx *transaction) DeleteBreedingRequest(id string) error {
	current, ok := tx.state.breedings[id]
	if !ok {
		return fmt.Errorf("breeding request %q not found", id)
	}
	delete(tx.state.breedings, id)
	tx.recordChange(Change{Entity: domain.EntityBreedingRequest, Action: domain.ActionDelete, Before: cloneBreedingRequest(current)})
	return nil
}

func (tx *transaction) CreateCullingRequest(r CullingRequest) (CullingRequest, error) {
	if r.ID == "" {
		r.ID = tx.store.newID()
	}
	if _, exists := tx.findRequestBucket(r.ID); exists {
		return CullingRequest{}, fmt.Errorf("request %q already exists", r.ID)
	}
	r.CreatedAt = tx.now
	r.UpdatedAt = tx.now
	tx.state.cullings[r.ID] = cloneCulling(r)
	tx.recordChange(Change{Entity: domain.EntityCullingRequest, Action: domain.ActionCreate, After: cloneCulling(r)})
	return cloneCulling(r), nil
}

func (tx *transaction) UpdateCullingRequest(id string, mutator func(*CullingRequest) error) (CullingRequest, error) {
	current, ok := tx.state.cullings[id]
	if !ok {
		return CullingRequest{}, fmt.Errorf("culling request %q not found", id)
	}
	before := cloneCulling(current)
	working := cloneCulling(current)
	if err := mutator(&working); err != nil {
		return CullingRequest{}, err
	}
	working.ID = id
	working.UpdatedAt = tx.now
	tx.state.cullings[id] = cloneCulling(working)
	tx.recordChange(Change{Entity: domain.EntityCullingRequest, Action: domain.ActionUpdate, Before: before, After: cloneCulling(working)})
	return cloneCulling(working), nil
}

func (tx *transaction) DeleteCullingRequest(id string) error {
	current, ok := tx.state.cullings[id]
	if !ok {
		return fmt.Errorf("culling request %q not found", id)
	}
	delete(tx.state.cullings, id)
	tx.recordChange(Change{Entity: domain.EntityCullingRequest, Action: domain.ActionDelete, Before: cloneCulling(current)})
	return nil
}

func (tx *transaction) findRequestBucket(id string) (domain.RequestKind, bool) {
	if _, ok := tx.state.transfers[id]; ok {
		return domain.KindTransfer, true
	}
	if _, ok := tx.state.breedings[id]; ok {
		return domain.KindBreeding, true
	}
	if _, ok := tx.state.cullings[id]; ok {
		return domain.KindCulling, true
	}
	return "", false
}

// --- notifications and weights ---

func (tx *transaction) CreateNotification(n Notification) (Notification, error) {
	if n.ID == "" {
		n.ID = tx.store.newID()
	}
	if _, exists := tx.state.notifications[n.ID]; exists {
		return Notification{}, fmt.Errorf("notification %q already exists", n.ID)
	}
	n.CreatedAt = tx.now
	n.UpdatedAt = tx.now
	tx.state.notifications[n.ID] = n
	tx.recordChange(Change{Entity: domain.EntityNotification, Action: domain.ActionCreate, After: n})
	return n, nil
}

func (tx *transaction) UpdateNotification(id string, mutator func(*Notification) error) (Notification, error) {
	current, ok := tx.state.notifications[id]
	if !ok {
		return Notification{}, fmt.Errorf("notification %q not found", id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return Notification{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.notifications[id] = current
	tx.recordChange(Change{Entity: domain.EntityNotification, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

func (tx *transaction) CreateWeightRecord(w WeightRecord) (WeightRecord, error) {
	if w.ID == "" {
		w.ID = tx.store.newID()
	}
	if _, exists := tx.state.weights[w.ID]; exists {
		return WeightRecord{}, fmt.Errorf("weight record %q already exists", w.ID)
	}
	w.CreatedAt = tx.now
	w.UpdatedAt = tx.now
	tx.state.weights[w.ID] = w
	tx.recordChange(Change{Entity: domain.EntityWeightRecord, Action: domain.ActionCreate, After: w})
	return w, nil
}

// --- view implementation ---

func (v transactionView) ListAnimals() []Animal {
	out := make([]Animal, 0, len(v.state.animals))
	for _, a := range v.state.animals {
		out = append(out, cloneAnimal(a))
	}
	return out
}

func (v transactionView) ListCages() []Cage {
	out := make([]Cage, 0, len(v.state.cages))
	for _, c := range v.state.cages {
		out = append(out, c)
	}
	return out
}

func (v transactionView) ListStrains() []Strain {
	out := make([]Strain, 0, len(v.state.strains))
	for _, st := range v.state.strains {
		out = append(out, st)
	}
	return out
}

func (v transactionView) ListOccupancyIntervals() []OccupancyInterval {
	out := make([]OccupancyInterval, 0, len(v.state.intervals))
	for _, i := range v.state.intervals {
		out = append(out, cloneInterval(i))
	}
	return out
}

func (v transactionView) ListBreedingPairs() []BreedingPair {
	out := make([]BreedingPair, 0, len(v.state.pairs))
	for _, p := range v.state.pairs {
		out = append(out, clonePair(p))
	}
	return out
}

func (v transactionView) ListRequests() []domain.Request {
	out := make([]domain.Request, 0, len(v.state.transfers)+len(v.state.breedings)+len(v.state.cullings))
	for _, r := range v.state.transfers {
		out = append(out, cloneTransfer(r))
	}
	for _, r := range v.state.breedings {
		out = append(out, cloneBreedingRequest(r))
	}
	for _, r := range v.state.cullings {
		out = append(out, cloneCulling(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestID() < out[j].RequestID() })
	return out
}

func (v transactionView) FindAnimal(id string) (Animal, bool) {
	a, ok := v.state.animals[id]
	if !ok {
		return Animal{}, false
	}
	return cloneAnimal(a), true
}

func (v transactionView) FindCage(id string) (Cage, bool) {
	c, ok := v.state.cages[id]
	return c, ok
}

func (v transactionView) FindStrain(id string) (Strain, bool) {
	st, ok := v.state.strains[id]
	return st, ok
}

func (v transactionView) FindOpenInterval(animalID string) (OccupancyInterval, bool) {
	intervalID, ok := v.state.openByAnimal[animalID]
	if !ok {
		return OccupancyInterval{}, false
	}
	interval, ok := v.state.intervals[intervalID]
	if !ok {
		return OccupancyInterval{}, false
	}
	return cloneInterval(interval), true
}

// --- committed-state read helpers ---

// GetAnimal retrieves an animal by ID from committed state.
func (s *Store) GetAnimal(id string) (Animal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.state.animals[id]
	if !ok {
		return Animal{}, false
	}
	return cloneAnimal(a), true
}

// ListAnimals returns all animals from committed state.
func (s *Store) ListAnimals() []Animal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Animal, 0, len(s.state.animals))
	for _, a := range s.state.animals {
		out = append(out, cloneAnimal(a))
	}
	return out
}

// GetCage retrieves a cage by ID.
func (s *Store) GetCage(id string) (Cage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.state.cages[id]
	return c, ok
}

// ListCages returns all cages.
func (s *Store) ListCages() []Cage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Cage, 0, len(s.state.cages))
	for _, c := range s.state.cages {
		out = append(out, c)
	}
	return out
}

// ListStrains returns all strains.
func (s *Store) ListStrains() []Strain {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Strain, 0, len(s.state.strains))
	for _, st := range s.state.strains {
		out = append(out, st)
	}
	return out
}

// GetBreedingPair retrieves a breeding pair by ID.
func (s *Store) GetBreedingPair(id string) (BreedingPair, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.pairs[id]
	if !ok {
		return BreedingPair{}, false
	}
	return clonePair(p), true
}

// ListBreedingPairs returns all breeding pairs.
func (s *Store) ListBreedingPairs() []BreedingPair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]BreedingPair, 0, len(s.state.pairs))
	for _, p := range s.state.pairs {
		out = append(out, clonePair(p))
	}
	return out
}

// GetRequest retrieves a request of any kind by ID.
func (s *Store) GetRequest(id string) (domain.Request, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.state.transfers[id]; ok {
		return cloneTransfer(r), true
	}
	if r, ok := s.state.breedings[id]; ok {
		return cloneBreedingRequest(r), true
	}
	if r, ok := s.state.cullings[id]; ok {
		return cloneCulling(r), true
	}
	return nil, false
}

// ListRequests returns every request of every kind, ordered by ID.
func (s *Store) ListRequests() []domain.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Request, 0, len(s.state.transfers)+len(s.state.breedings)+len(s.state.cullings))
	for _, r := range s.state.transfers {
		out = append(out, cloneTransfer(r))
	}
	for _, r := range s.state.breedings {
		out = append(out, cloneBreedingRequest(r))
	}
	for _, r := range s.state.cullings {
		out = append(out, cloneCulling(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestID() < out[j].RequestID() })
	return out
}

// OpenInterval returns an animal's open occupancy interval, if any.
func (s *Store) OpenInterval(animalID string) (OccupancyInterval, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	intervalID, ok := s.state.openByAnimal[animalID]
	if !ok {
		return OccupancyInterval{}, false
	}
	interval, ok := s.state.intervals[intervalID]
	if !ok {
		return OccupancyInterval{}, false
	}
	return cloneInterval(interval), true
}

// OccupancyHistory lists an animal's intervals ordered by start time.
func (s *Store) OccupancyHistory(animalID string) []OccupancyInterval {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []OccupancyInterval
	for _, i := range s.state.intervals {
		if i.AnimalID == animalID {
			out = append(out, cloneInterval(i))
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Start.Equal(out[b].Start) {
			return out[a].ID < out[b].ID
		}
		return out[a].Start.Before(out[b].Start)
	})
	return out
}

// ListNotifications returns notifications for a recipient, newest first.
func (s *Store) ListNotifications(recipientID string) []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Notification
	for _, n := range s.state.notifications {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// ListWeightRecords returns an animal's weight records ordered by measurement time.
func (s *Store) ListWeightRecords(animalID string) []WeightRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []WeightRecord
	for _, w := range s.state.weights {
		if w.AnimalID == animalID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MeasuredAt.Before(out[j].MeasuredAt) })
	return out
}
