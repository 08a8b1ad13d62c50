// Package memory provides the authoritative in-memory implementation of the
// core persistence store. Durable backends embed it and mirror its state.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"opscore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Todo aliases domain.Todo for in-memory persistence operations.
	Todo = domain.Todo
	// Product aliases domain.Product.
	Product = domain.Product
	// Customer aliases domain.Customer.
	Customer = domain.Customer
	// Purchase aliases domain.Transaction, the purchase record. The name
	// avoids clashing with the unit-of-work interface aliased as Tx below.
	Purchase = domain.Transaction
	// Coupon aliases domain.Coupon.
	Coupon = domain.Coupon
	// Lead aliases domain.Lead.
	Lead = domain.Lead
	// FollowUp aliases domain.FollowUp.
	FollowUp = domain.FollowUp
	// Note aliases domain.Note.
	Note = domain.Note
	// Activity aliases domain.Activity.
	Activity = domain.Activity
	// Client aliases domain.Client.
	Client = domain.Client
	// Appointment aliases domain.Appointment.
	Appointment = domain.Appointment
	// Reminder aliases domain.Reminder.
	Reminder = domain.Reminder
	// Parcel aliases domain.Parcel.
	Parcel = domain.Parcel
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Tx aliases domain.Tx representing a mutable unit of work.
	Tx = domain.Tx
	// TxView aliases domain.TransactionView providing read-only state.
	TxView = domain.TransactionView
)

type memoryState struct {
	todos        map[string]Todo
	products     map[string]Product
	customers    map[string]Customer
	transactions map[string]Purchase
	coupons      map[string]Coupon
	leads        map[string]Lead
	followups    map[string]FollowUp
	notes        map[string]Note
	activities   map[string]Activity
	clients      map[string]Client
	appointments map[string]Appointment
	reminders    map[string]Reminder
	parcels      map[string]Parcel
}

// Snapshot captures a point-in-time clone of the store state. It is the unit
// of exchange with durable backends and the export adapter.
type Snapshot struct {
	Todos        map[string]Todo        `json:"todos"`
	Products     map[string]Product     `json:"products"`
	Customers    map[string]Customer    `json:"customers"`
	Transactions map[string]Purchase    `json:"transactions"`
	Coupons      map[string]Coupon      `json:"coupons"`
	Leads        map[string]Lead        `json:"leads"`
	FollowUps    map[string]FollowUp    `json:"followups"`
	Notes        map[string]Note        `json:"notes"`
	Activities   map[string]Activity    `json:"activities"`
	Clients      map[string]Client      `json:"clients"`
	Appointments map[string]Appointment `json:"appointments"`
	Reminders    map[string]Reminder    `json:"reminders"`
	Parcels      map[string]Parcel      `json:"parcels"`
}

func newMemoryState() memoryState {
	return memoryState{
		todos:        make(map[string]Todo),
		products:     make(map[string]Product),
		customers:    make(map[string]Customer),
		transactions: make(map[string]Purchase),
		coupons:      make(map[string]Coupon),
		leads:        make(map[string]Lead),
		followups:    make(map[string]FollowUp),
		notes:        make(map[string]Note),
		activities:   make(map[string]Activity),
		clients:      make(map[string]Client),
		appointments: make(map[string]Appointment),
		reminders:    make(map[string]Reminder),
		parcels:      make(map[string]Parcel),
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	snap := Snapshot{
		Todos:        make(map[string]Todo, len(state.todos)),
		Products:     make(map[string]Product, len(state.products)),
		Customers:    make(map[string]Customer, len(state.customers)),
		Transactions: make(map[string]Purchase, len(state.transactions)),
		Coupons:      make(map[string]Coupon, len(state.coupons)),
		Leads:        make(map[string]Lead, len(state.leads)),
		FollowUps:    make(map[string]FollowUp, len(state.followups)),
		Notes:        make(map[string]Note, len(state.notes)),
		Activities:   make(map[string]Activity, len(state.activities)),
		Clients:      make(map[string]Client, len(state.clients)),
		Appointments: make(map[string]Appointment, len(state.appointments)),
		Reminders:    make(map[string]Reminder, len(state.reminders)),
		Parcels:      make(map[string]Parcel, len(state.parcels)),
	}
	for k, v := range state.todos {
		snap.Todos[k] = cloneTodo(v)
	}
	for k, v := range state.products {
		snap.Products[k] = cloneProduct(v)
	}
	for k, v := range state.customers {
		snap.Customers[k] = cloneCustomer(v)
	}
	for k, v := range state.transactions {
		snap.Transactions[k] = v
	}
	for k, v := range state.coupons {
		snap.Coupons[k] = cloneCoupon(v)
	}
	for k, v := range state.leads {
		snap.Leads[k] = cloneLead(v)
	}
	for k, v := range state.followups {
		snap.FollowUps[k] = cloneFollowUp(v)
	}
	for k, v := range state.notes {
		snap.Notes[k] = v
	}
	for k, v := range state.activities {
		snap.Activities[k] = v
	}
	for k, v := range state.clients {
		snap.Clients[k] = cloneClient(v)
	}
	for k, v := range state.appointments {
		snap.Appointments[k] = cloneAppointment(v)
	}
	for k, v := range state.reminders {
		snap.Reminders[k] = v
	}
	for k, v := range state.parcels {
		snap.Parcels[k] = cloneParcel(v)
	}
	return snap
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Todos {
		state.todos[k] = cloneTodo(v)
	}
	for k, v := range s.Products {
		state.products[k] = cloneProduct(v)
	}
	for k, v := range s.Customers {
		state.customers[k] = cloneCustomer(v)
	}
	for k, v := range s.Transactions {
		state.transactions[k] = v
	}
	for k, v := range s.Coupons {
		state.coupons[k] = cloneCoupon(v)
	}
	for k, v := range s.Leads {
		state.leads[k] = cloneLead(v)
	}
	for k, v := range s.FollowUps {
		state.followups[k] = cloneFollowUp(v)
	}
	for k, v := range s.Notes {
		state.notes[k] = v
	}
	for k, v := range s.Activities {
		state.activities[k] = v
	}
	for k, v := range s.Clients {
		state.clients[k] = cloneClient(v)
	}
	for k, v := range s.Appointments {
		state.appointments[k] = cloneAppointment(v)
	}
	for k, v := range s.Reminders {
		state.reminders[k] = v
	}
	for k, v := range s.Parcels {
		state.parcels[k] = cloneParcel(v)
	}
	return state
}

func (s memoryState) clone() memoryState {
	return memoryStateFromSnapshot(snapshotFromMemoryState(s))
}

// clonePtr copies an optional field so clones never alias committed state.
func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTodo(t Todo) Todo {
	cp := t
	cp.Tags = append([]string(nil), t.Tags...)
	cp.DueAt = clonePtr(t.DueAt)
	return cp
}

func cloneProduct(p Product) Product {
	cp := p
	cp.Description = clonePtr(p.Description)
	return cp
}

func cloneCustomer(c Customer) Customer {
	cp := c
	cp.Interests = append([]string(nil), c.Interests...)
	cp.Phone = clonePtr(c.Phone)
	return cp
}

func cloneCoupon(c Coupon) Coupon {
	cp := c
	cp.ExpiresAt = clonePtr(c.ExpiresAt)
	cp.RedeemedAt = clonePtr(c.RedeemedAt)
	return cp
}

func cloneLead(l Lead) Lead {
	cp := l
	cp.Interests = append([]string(nil), l.Interests...)
	cp.Company = clonePtr(l.Company)
	cp.LastContactedAt = clonePtr(l.LastContactedAt)
	return cp
}

func cloneFollowUp(f FollowUp) FollowUp {
	cp := f
	cp.DueAt = clonePtr(f.DueAt)
	return cp
}

func cloneClient(c Client) Client {
	cp := c
	cp.Email = clonePtr(c.Email)
	return cp
}

func cloneAppointment(a Appointment) Appointment {
	cp := a
	cp.Notes = clonePtr(a.Notes)
	return cp
}

func cloneParcel(p Parcel) Parcel {
	cp := p
	cp.EstimatedDelivery = clonePtr(p.EstimatedDelivery)
	cp.DeliveredAt = clonePtr(p.DeliveredAt)
	return cp
}

func dedupeStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Store provides an in-memory transactional store for the core domain.
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

// ExportState returns a deep-cloned snapshot of committed state.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces committed state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(snapshot)
}

// RulesEngine exposes the engine for service-level rule registration.
func (s *Store) RulesEngine() *RulesEngine {
	return s.engine
}

// SetNowFunc overrides the clock used for timestamps. Intended for tests.
func (s *Store) SetNowFunc(fn func() time.Time) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = fn
}

// RunInTransaction executes fn within a transactional copy of the store state.
// The copy is swapped in only when fn succeeds and no blocking rule fires.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Tx) error) (Result, error) {
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
		view := transactionView{state: &tx.state}
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
func (s *Store) View(_ context.Context, fn func(TxView) error) error {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()
	return fn(transactionView{state: &snapshot})
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

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot exposes a read-only view of the transactional state.
func (tx *transaction) Snapshot() TxView {
	return transactionView{state: &tx.state}
}

func (tx *transaction) FindCustomer(id string) (Customer, bool) {
	c, ok := tx.state.customers[id]
	if !ok {
		return Customer{}, false
	}
	return cloneCustomer(c), true
}

func (tx *transaction) FindLead(id string) (Lead, bool) {
	l, ok := tx.state.leads[id]
	if !ok {
		return Lead{}, false
	}
	return cloneLead(l), true
}

func (tx *transaction) FindClient(id string) (Client, bool) {
	c, ok := tx.state.clients[id]
	if !ok {
		return Client{}, false
	}
	return cloneClient(c), true
}

// CreateTodo stores a new todo within the transaction.
func (tx *transaction) CreateTodo(t Todo) (Todo, error) {
	if t.ID == "" {
		t.ID = tx.store.newID()
	}
	if _, exists := tx.state.todos[t.ID]; exists {
		return Todo{}, duplicateErr(domain.EntityTodo, t.ID)
	}
	if t.Priority == "" {
		t.Priority = domain.PriorityMedium
	}
	t.Tags = dedupeStrings(t.Tags)
	t.CreatedAt = tx.now
	t.UpdatedAt = tx.now
	tx.state.todos[t.ID] = cloneTodo(t)
	tx.recordChange(Change{Entity: domain.EntityTodo, Action: domain.ActionCreate, After: cloneTodo(t)})
	return cloneTodo(t), nil
}

// UpdateTodo mutates a todo using the provided mutator function.
func (tx *transaction) UpdateTodo(id string, mutator func(*Todo) error) (Todo, error) {
	current, ok := tx.state.todos[id]
	if !ok {
		return Todo{}, domain.NotFoundError{Entity: domain.EntityTodo, ID: id}
	}
	before := cloneTodo(current)
	if err := mutator(&current); err != nil {
		return Todo{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	current.Tags = dedupeStrings(current.Tags)
	tx.state.todos[id] = cloneTodo(current)
	tx.recordChange(Change{Entity: domain.EntityTodo, Action: domain.ActionUpdate, Before: before, After: cloneTodo(current)})
	return cloneTodo(current), nil
}

// DeleteTodo removes a todo from the transaction state.
func (tx *transaction) DeleteTodo(id string) error {
	current, ok := tx.state.todos[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityTodo, ID: id}
	}
	delete(tx.state.todos, id)
	tx.recordChange(Change{Entity: domain.EntityTodo, Action: domain.ActionDelete, Before: cloneTodo(current)})
	return nil
}

// CreateProduct stores a new product.
func (tx *transaction) CreateProduct(p Product) (Product, error) {
	if p.ID == "" {
		p.ID = tx.store.newID()
	}
	if _, exists := tx.state.products[p.ID]; exists {
		return Product{}, duplicateErr(domain.EntityProduct, p.ID)
	}
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	tx.state.products[p.ID] = cloneProduct(p)
	tx.recordChange(Change{Entity: domain.EntityProduct, Action: domain.ActionCreate, After: cloneProduct(p)})
	return cloneProduct(p), nil
}

// UpdateProduct mutates an existing product.
func (tx *transaction) UpdateProduct(id string, mutator func(*Product) error) (Product, error) {
	current, ok := tx.state.products[id]
	if !ok {
		return Product{}, domain.NotFoundError{Entity: domain.EntityProduct, ID: id}
	}
	before := cloneProduct(current)
	if err := mutator(&current); err != nil {
		return Product{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.products[id] = cloneProduct(current)
	tx.recordChange(Change{Entity: domain.EntityProduct, Action: domain.ActionUpdate, Before: before, After: cloneProduct(current)})
	return cloneProduct(current), nil
}

// DeleteProduct removes a product.
func (tx *transaction) DeleteProduct(id string) error {
	current, ok := tx.state.products[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityProduct, ID: id}
	}
	delete(tx.state.products, id)
	tx.recordChange(Change{Entity: domain.EntityProduct, Action: domain.ActionDelete, Before: cloneProduct(current)})
	return nil
}

// CreateCustomer stores a new loyalty customer.
func (tx *transaction) CreateCustomer(c Customer) (Customer, error) {
	if c.ID == "" {
		c.ID = tx.store.newID()
	}
	if _, exists := tx.state.customers[c.ID]; exists {
		return Customer{}, duplicateErr(domain.EntityCustomer, c.ID)
	}
	c.Interests = dedupeStrings(c.Interests)
	c.CreatedAt = tx.now
	c.UpdatedAt = tx.now
	tx.state.customers[c.ID] = cloneCustomer(c)
	tx.recordChange(Change{Entity: domain.EntityCustomer, Action: domain.ActionCreate, After: cloneCustomer(c)})
	return cloneCustomer(c), nil
}

// UpdateCustomer mutates an existing customer.
func (tx *transaction) UpdateCustomer(id string, mutator func(*Customer) error) (Customer, error) {
	current, ok := tx.state.customers[id]
	if !ok {
		return Customer{}, domain.NotFoundError{Entity: domain.EntityCustomer, ID: id}
	}
	before := cloneCustomer(current)
	if err := mutator(&current); err != nil {
		return Customer{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	current.Interests = dedupeStrings(current.Interests)
	tx.state.customers[id] = cloneCustomer(current)
	tx.recordChange(Change{Entity: domain.EntityCustomer, Action: domain.ActionUpdate, Before: before, After: cloneCustomer(current)})
	return cloneCustomer(current), nil
}

// DeleteCustomer removes a customer and cascades to its transactions and coupons.
func (tx *transaction) DeleteCustomer(id string) error {
	current, ok := tx.state.customers[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityCustomer, ID: id}
	}
	delete(tx.state.customers, id)
	tx.recordChange(Change{Entity: domain.EntityCustomer, Action: domain.ActionDelete, Before: cloneCustomer(current)})
	for txnID, txn := range tx.state.transactions {
		if txn.CustomerID != id {
			continue
		}
		delete(tx.state.transactions, txnID)
		tx.recordChange(Change{Entity: domain.EntityTransaction, Action: domain.ActionDelete, Before: txn})
	}
	for couponID, coupon := range tx.state.coupons {
		if coupon.CustomerID != id {
			continue
		}
		delete(tx.state.coupons, couponID)
		tx.recordChange(Change{Entity: domain.EntityCoupon, Action: domain.ActionDelete, Before: cloneCoupon(coupon)})
	}
	return nil
}

// CreateTransaction stores a purchase record. The referenced customer must exist.
func (tx *transaction) CreateTransaction(p Purchase) (Purchase, error) {
	if _, ok := tx.state.customers[p.CustomerID]; !ok {
		return Purchase{}, domain.NotFoundError{Entity: domain.EntityCustomer, ID: p.CustomerID}
	}
	if p.ID == "" {
		p.ID = tx.store.newID()
	}
	if _, exists := tx.state.transactions[p.ID]; exists {
		return Purchase{}, duplicateErr(domain.EntityTransaction, p.ID)
	}
	if p.OccurredAt.IsZero() {
		p.OccurredAt = tx.now
	}
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	tx.state.transactions[p.ID] = p
	tx.recordChange(Change{Entity: domain.EntityTransaction, Action: domain.ActionCreate, After: p})
	return p, nil
}

// CreateCoupon stores an issued coupon. The referenced customer must exist.
func (tx *transaction) CreateCoupon(c Coupon) (Coupon, error) {
	if _, ok := tx.state.customers[c.CustomerID]; !ok {
		return Coupon{}, domain.NotFoundError{Entity: domain.EntityCustomer, ID: c.CustomerID}
	}
	if c.ID == "" {
		c.ID = tx.store.newID()
	}
	if _, exists := tx.state.coupons[c.ID]; exists {
		return Coupon{}, duplicateErr(domain.EntityCoupon, c.ID)
	}
	c.CreatedAt = tx.now
	c.UpdatedAt = tx.now
	tx.state.coupons[c.ID] = cloneCoupon(c)
	tx.recordChange(Change{Entity: domain.EntityCoupon, Action: domain.ActionCreate, After: cloneCoupon(c)})
	return cloneCoupon(c), nil
}

// UpdateCoupon mutates an existing coupon.
func (tx *transaction) UpdateCoupon(id string, mutator func(*Coupon) error) (Coupon, error) {
	current, ok := tx.state.coupons[id]
	if !ok {
		return Coupon{}, domain.NotFoundError{Entity: domain.EntityCoupon, ID: id}
	}
	before := cloneCoupon(current)
	if err := mutator(&current); err != nil {
		return Coupon{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.coupons[id] = cloneCoupon(current)
	tx.recordChange(Change{Entity: domain.EntityCoupon, Action: domain.ActionUpdate, Before: before, After: cloneCoupon(current)})
	return cloneCoupon(current), nil
}

// DeleteCoupon removes a coupon.
func (tx *transaction) DeleteCoupon(id string) error {
	current, ok := tx.state.coupons[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityCoupon, ID: id}
	}
	delete(tx.state.coupons, id)
	tx.recordChange(Change{Entity: domain.EntityCoupon, Action: domain.ActionDelete, Before: cloneCoupon(current)})
	return nil
}

// CreateLead stores a new CRM lead.
func (tx *transaction) CreateLead(l Lead) (Lead, error) {
	if l.ID == "" {
		l.ID = tx.store.newID()
	}
	if _, exists := tx.state.leads[l.ID]; exists {
		return Lead{}, duplicateErr(domain.EntityLead, l.ID)
	}
	if l.Status == "" {
		l.Status = domain.LeadStatusNew
	}
	l.Interests = dedupeStrings(l.Interests)
	l.CreatedAt = tx.now
	l.UpdatedAt = tx.now
	tx.state.leads[l.ID] = cloneLead(l)
	tx.recordChange(Change{Entity: domain.EntityLead, Action: domain.ActionCreate, After: cloneLead(l)})
	return cloneLead(l), nil
}

// UpdateLead mutates an existing lead.
func (tx *transaction) UpdateLead(id string, mutator func(*Lead) error) (Lead, error) {
	current, ok := tx.state.leads[id]
	if !ok {
		return Lead{}, domain.NotFoundError{Entity: domain.EntityLead, ID: id}
	}
	before := cloneLead(current)
	if err := mutator(&current); err != nil {
		return Lead{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	current.Interests = dedupeStrings(current.Interests)
	tx.state.leads[id] = cloneLead(current)
	tx.recordChange(Change{Entity: domain.EntityLead, Action: domain.ActionUpdate, Before: before, After: cloneLead(current)})
	return cloneLead(current), nil
}

// DeleteLead removes a lead and cascades to its follow-ups, notes, and activities.
func (tx *transaction) DeleteLead(id string) error {
	current, ok := tx.state.leads[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityLead, ID: id}
	}
	delete(tx.state.leads, id)
	tx.recordChange(Change{Entity: domain.EntityLead, Action: domain.ActionDelete, Before: cloneLead(current)})
	for fuID, fu := range tx.state.followups {
		if fu.LeadID != id {
			continue
		}
		delete(tx.state.followups, fuID)
		tx.recordChange(Change{Entity: domain.EntityFollowUp, Action: domain.ActionDelete, Before: cloneFollowUp(fu)})
	}
	for noteID, note := range tx.state.notes {
		if note.LeadID != id {
			continue
		}
		delete(tx.state.notes, noteID)
		tx.recordChange(Change{Entity: domain.EntityNote, Action: domain.ActionDelete, Before: note})
	}
	for actID, act := range tx.state.activities {
		if act.LeadID != id {
			continue
		}
		delete(tx.state.activities, actID)
		tx.recordChange(Change{Entity: domain.EntityActivity, Action: domain.ActionDelete, Before: act})
	}
	return nil
}

// CreateFollowUp stores a follow-up task. The referenced lead must exist.
func (tx *transaction) CreateFollowUp(f FollowUp) (FollowUp, error) {
	if _, ok := tx.state.leads[f.LeadID]; !ok {
		return FollowUp{}, domain.NotFoundError{Entity: domain.EntityLead, ID: f.LeadID}
	}
	if f.ID == "" {
		f.ID = tx.store.newID()
	}
	if _, exists := tx.state.followups[f.ID]; exists {
		return FollowUp{}, duplicateErr(domain.EntityFollowUp, f.ID)
	}
	f.CreatedAt = tx.now
	f.UpdatedAt = tx.now
	tx.state.followups[f.ID] = cloneFollowUp(f)
	tx.recordChange(Change{Entity: domain.EntityFollowUp, Action: domain.ActionCreate, After: cloneFollowUp(f)})
	return cloneFollowUp(f), nil
}

// UpdateFollowUp mutates a follow-up task.
func (tx *transaction) UpdateFollowUp(id string, mutator func(*FollowUp) error) (FollowUp, error) {
	current, ok := tx.state.followups[id]
	if !ok {
		return FollowUp{}, domain.NotFoundError{Entity: domain.EntityFollowUp, ID: id}
	}
	before := cloneFollowUp(current)
	if err := mutator(&current); err != nil {
		return FollowUp{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.followups[id] = cloneFollowUp(current)
	tx.recordChange(Change{Entity: domain.EntityFollowUp, Action: domain.ActionUpdate, Before: before, After: cloneFollowUp(current)})
	return cloneFollowUp(current), nil
}

// DeleteFollowUp removes a follow-up task.
func (tx *transaction) DeleteFollowUp(id string) error {
	current, ok := tx.state.followups[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityFollowUp, ID: id}
	}
	delete(tx.state.followups, id)
	tx.recordChange(Change{Entity: domain.EntityFollowUp, Action: domain.ActionDelete, Before: cloneFollowUp(current)})
	return nil
}

// CreateNote stores a note. The referenced lead must exist.
func (tx *transaction) CreateNote(n Note) (Note, error) {
	if _, ok := tx.state.leads[n.LeadID]; !ok {
		return Note{}, domain.NotFoundError{Entity: domain.EntityLead, ID: n.LeadID}
	}
	if n.ID == "" {
		n.ID = tx.store.newID()
	}
	if _, exists := tx.state.notes[n.ID]; exists {
		return Note{}, duplicateErr(domain.EntityNote, n.ID)
	}
	n.CreatedAt = tx.now
	n.UpdatedAt = tx.now
	tx.state.notes[n.ID] = n
	tx.recordChange(Change{Entity: domain.EntityNote, Action: domain.ActionCreate, After: n})
	return n, nil
}

// DeleteNote removes a note.
func (tx *transaction) DeleteNote(id string) error {
	current, ok := tx.state.notes[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityNote, ID: id}
	}
	delete(tx.state.notes, id)
	tx.recordChange(Change{Entity: domain.EntityNote, Action: domain.ActionDelete, Before: current})
	return nil
}

// CreateActivity appends an audit entry. The referenced lead must exist.
// Activities have no update or standalone delete; they live and die with
// their lead.
func (tx *transaction) CreateActivity(a Activity) (Activity, error) {
	if _, ok := tx.state.leads[a.LeadID]; !ok {
		return Activity{}, domain.NotFoundError{Entity: domain.EntityLead, ID: a.LeadID}
	}
	if a.ID == "" {
		a.ID = tx.store.newID()
	}
	if _, exists := tx.state.activities[a.ID]; exists {
		return Activity{}, duplicateErr(domain.EntityActivity, a.ID)
	}
	if a.OccurredAt.IsZero() {
		a.OccurredAt = tx.now
	}
	a.CreatedAt = tx.now
	a.UpdatedAt = tx.now
	tx.state.activities[a.ID] = a
	tx.recordChange(Change{Entity: domain.EntityActivity, Action: domain.ActionCreate, After: a})
	return a, nil
}

// CreateClient stores a service-shop client.
func (tx *transaction) CreateClient(c Client) (Client, error) {
	if c.ID == "" {
		c.ID = tx.store.newID()
	}
	if _, exists := tx.state.clients[c.ID]; exists {
		return Client{}, duplicateErr(domain.EntityClient, c.ID)
	}
	c.CreatedAt = tx.now
	c.UpdatedAt = tx.now
	tx.state.clients[c.ID] = cloneClient(c)
	tx.recordChange(Change{Entity: domain.EntityClient, Action: domain.ActionCreate, After: cloneClient(c)})
	return cloneClient(c), nil
}

// UpdateClient mutates an existing client.
func (tx *transaction) UpdateClient(id string, mutator func(*Client) error) (Client, error) {
	current, ok := tx.state.clients[id]
	if !ok {
		return Client{}, domain.NotFoundError{Entity: domain.EntityClient, ID: id}
	}
	before := cloneClient(current)
	if err := mutator(&current); err != nil {
		return Client{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.clients[id] = cloneClient(current)
	tx.recordChange(Change{Entity: domain.EntityClient, Action: domain.ActionUpdate, Before: before, After: cloneClient(current)})
	return cloneClient(current), nil
}

// DeleteClient removes a client and cascades to its appointments and reminders.
func (tx *transaction) DeleteClient(id string) error {
	current, ok := tx.state.clients[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityClient, ID: id}
	}
	delete(tx.state.clients, id)
	tx.recordChange(Change{Entity: domain.EntityClient, Action: domain.ActionDelete, Before: cloneClient(current)})
	for apptID, appt := range tx.state.appointments {
		if appt.ClientID != id {
			continue
		}
		delete(tx.state.appointments, apptID)
		tx.recordChange(Change{Entity: domain.EntityAppointment, Action: domain.ActionDelete, Before: cloneAppointment(appt)})
	}
	for remID, rem := range tx.state.reminders {
		if rem.ClientID != id {
			continue
		}
		delete(tx.state.reminders, remID)
		tx.recordChange(Change{Entity: domain.EntityReminder, Action: domain.ActionDelete, Before: rem})
	}
	return nil
}

// CreateAppointment stores an appointment. The referenced client must exist.
func (tx *transaction) CreateAppointment(a Appointment) (Appointment, error) {
	if _, ok := tx.state.clients[a.ClientID]; !ok {
		return Appointment{}, domain.NotFoundError{Entity: domain.EntityClient, ID: a.ClientID}
	}
	if a.ID == "" {
		a.ID = tx.store.newID()
	}
	if _, exists := tx.state.appointments[a.ID]; exists {
		return Appointment{}, duplicateErr(domain.EntityAppointment, a.ID)
	}
	if a.Status == "" {
		a.Status = domain.AppointmentScheduled
	}
	a.CreatedAt = tx.now
	a.UpdatedAt = tx.now
	tx.state.appointments[a.ID] = cloneAppointment(a)
	tx.recordChange(Change{Entity: domain.EntityAppointment, Action: domain.ActionCreate, After: cloneAppointment(a)})
	return cloneAppointment(a), nil
}

// UpdateAppointment mutates an appointment.
func (tx *transaction) UpdateAppointment(id string, mutator func(*Appointment) error) (Appointment, error) {
	current, ok := tx.state.appointments[id]
	if !ok {
		return Appointment{}, domain.NotFoundError{Entity: domain.EntityAppointment, ID: id}
	}
	before := cloneAppointment(current)
	if err := mutator(&current); err != nil {
		return Appointment{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.appointments[id] = cloneAppointment(current)
	tx.recordChange(Change{Entity: domain.EntityAppointment, Action: domain.ActionUpdate, Before: before, After: cloneAppointment(current)})
	return cloneAppointment(current), nil
}

// DeleteAppointment removes an appointment.
func (tx *transaction) DeleteAppointment(id string) error {
	current, ok := tx.state.appointments[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityAppointment, ID: id}
	}
	delete(tx.state.appointments, id)
	tx.recordChange(Change{Entity: domain.EntityAppointment, Action: domain.ActionDelete, Before: cloneAppointment(current)})
	return nil
}

// CreateReminder stores a reminder. The referenced client must exist.
func (tx *transaction) CreateReminder(r Reminder) (Reminder, error) {
	if _, ok := tx.state.clients[r.ClientID]; !ok {
		return Reminder{}, domain.NotFoundError{Entity: domain.EntityClient, ID: r.ClientID}
	}
	if r.ID == "" {
		r.ID = tx.store.newID()
	}
	if _, exists := tx.state.reminders[r.ID]; exists {
		return Reminder{}, duplicateErr(domain.EntityReminder, r.ID)
	}
	r.CreatedAt = tx.now
	r.UpdatedAt = tx.now
	tx.state.reminders[r.ID] = r
	tx.recordChange(Change{Entity: domain.EntityReminder, Action: domain.ActionCreate, After: r})
	return r, nil
}

// UpdateReminder mutates a reminder.
func (tx *transaction) UpdateReminder(id string, mutator func(*Reminder) error) (Reminder, error) {
	current, ok := tx.state.reminders[id]
	if !ok {
		return Reminder{}, domain.NotFoundError{Entity: domain.EntityReminder, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return Reminder{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.reminders[id] = current
	tx.recordChange(Change{Entity: domain.EntityReminder, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteReminder removes a reminder.
func (tx *transaction) DeleteReminder(id string) error {
	current, ok := tx.state.reminders[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityReminder, ID: id}
	}
	delete(tx.state.reminders, id)
	tx.recordChange(Change{Entity: domain.EntityReminder, Action: domain.ActionDelete, Before: current})
	return nil
}

// CreateParcel stores a tracked parcel.
func (tx *transaction) CreateParcel(p Parcel) (Parcel, error) {
	if p.ID == "" {
		p.ID = tx.store.newID()
	}
	if _, exists := tx.state.parcels[p.ID]; exists {
		return Parcel{}, duplicateErr(domain.EntityParcel, p.ID)
	}
	if p.Status == "" {
		p.Status = domain.ParcelRegistered
	}
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	tx.state.parcels[p.ID] = cloneParcel(p)
	tx.recordChange(Change{Entity: domain.EntityParcel, Action: domain.ActionCreate, After: cloneParcel(p)})
	return cloneParcel(p), nil
}

// UpdateParcel mutates a parcel.
func (tx *transaction) UpdateParcel(id string, mutator func(*Parcel) error) (Parcel, error) {
	current, ok := tx.state.parcels[id]
	if !ok {
		return Parcel{}, domain.NotFoundError{Entity: domain.EntityParcel, ID: id}
	}
	before := cloneParcel(current)
	if err := mutator(&current); err != nil {
		return Parcel{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.parcels[id] = cloneParcel(current)
	tx.recordChange(Change{Entity: domain.EntityParcel, Action: domain.ActionUpdate, Before: before, After: cloneParcel(current)})
	return cloneParcel(current), nil
}

// DeleteParcel removes a parcel.
func (tx *transaction) DeleteParcel(id string) error {
	current, ok := tx.state.parcels[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityParcel, ID: id}
	}
	delete(tx.state.parcels, id)
	tx.recordChange(Change{Entity: domain.EntityParcel, Action: domain.ActionDelete, Before: cloneParcel(current)})
	return nil
}

func duplicateErr(entity domain.EntityType, id string) error {
	return domain.NewValidationError(entity, "id", "identifier "+id+" already exists")
}
