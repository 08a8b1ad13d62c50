package memory

// Read-only access for rules, derived views, and committed-state queries.

import (
	"sort"

	"opscore/pkg/domain"
)

// byInsertion orders records by creation time, then ID, so list reads are
// deterministic and reflect insertion order for display and export.
func byInsertion[T any](items []T, base func(T) domain.Base) []T {
	sort.Slice(items, func(i, j int) bool {
		bi, bj := base(items[i]), base(items[j])
		if !bi.CreatedAt.Equal(bj.CreatedAt) {
			return bi.CreatedAt.Before(bj.CreatedAt)
		}
		return bi.ID < bj.ID
	})
	return items
}

func (v transactionView) ListTodos() []Todo {
	out := make([]Todo, 0, len(v.state.todos))
	for _, t := range v.state.todos {
		out = append(out, cloneTodo(t))
	}
	return byInsertion(out, func(t Todo) domain.Base { return t.Base })
}

func (v transactionView) ListProducts() []Product {
	out := make([]Product, 0, len(v.state.products))
	for _, p := range v.state.products {
		out = append(out, cloneProduct(p))
	}
	return byInsertion(out, func(p Product) domain.Base { return p.Base })
}

func (v transactionView) ListCustomers() []Customer {
	out := make([]Customer, 0, len(v.state.customers))
	for _, c := range v.state.customers {
		out = append(out, cloneCustomer(c))
	}
	return byInsertion(out, func(c Customer) domain.Base { return c.Base })
}

func (v transactionView) ListTransactions() []Purchase {
	out := make([]Purchase, 0, len(v.state.transactions))
	for _, t := range v.state.transactions {
		out = append(out, t)
	}
	return byInsertion(out, func(p Purchase) domain.Base { return p.Base })
}

func (v transactionView) ListCoupons() []Coupon {
	out := make([]Coupon, 0, len(v.state.coupons))
	for _, c := range v.state.coupons {
		out = append(out, cloneCoupon(c))
	}
	return byInsertion(out, func(c Coupon) domain.Base { return c.Base })
}

func (v transactionView) ListLeads() []Lead {
	out := make([]Lead, 0, len(v.state.leads))
	for _, l := range v.state.leads {
		out = append(out, cloneLead(l))
	}
	return byInsertion(out, func(l Lead) domain.Base { return l.Base })
}

func (v transactionView) ListFollowUps() []FollowUp {
	out := make([]FollowUp, 0, len(v.state.followups))
	for _, f := range v.state.followups {
		out = append(out, cloneFollowUp(f))
	}
	return byInsertion(out, func(f FollowUp) domain.Base { return f.Base })
}

func (v transactionView) ListNotes() []Note {
	out := make([]Note, 0, len(v.state.notes))
	for _, n := range v.state.notes {
		out = append(out, n)
	}
	return byInsertion(out, func(n Note) domain.Base { return n.Base })
}

func (v transactionView) ListActivities() []Activity {
	out := make([]Activity, 0, len(v.state.activities))
	for _, a := range v.state.activities {
		out = append(out, a)
	}
	return byInsertion(out, func(a Activity) domain.Base { return a.Base })
}

func (v transactionView) ListClients() []Client {
	out := make([]Client, 0, len(v.state.clients))
	for _, c := range v.state.clients {
		out = append(out, cloneClient(c))
	}
	return byInsertion(out, func(c Client) domain.Base { return c.Base })
}

func (v transactionView) ListAppointments() []Appointment {
	out := make([]Appointment, 0, len(v.state.appointments))
	for _, a := range v.state.appointments {
		out = append(out, cloneAppointment(a))
	}
	return byInsertion(out, func(a Appointment) domain.Base { return a.Base })
}

func (v transactionView) ListReminders() []Reminder {
	out := make([]Reminder, 0, len(v.state.reminders))
	for _, r := range v.state.reminders {
		out = append(out, r)
	}
	return byInsertion(out, func(r Reminder) domain.Base { return r.Base })
}

func (v transactionView) ListParcels() []Parcel {
	out := make([]Parcel, 0, len(v.state.parcels))
	for _, p := range v.state.parcels {
		out = append(out, cloneParcel(p))
	}
	return byInsertion(out, func(p Parcel) domain.Base { return p.Base })
}

func (v transactionView) FindCustomer(id string) (Customer, bool) {
	c, ok := v.state.customers[id]
	if !ok {
		return Customer{}, false
	}
	return cloneCustomer(c), true
}

func (v transactionView) FindLead(id string) (Lead, bool) {
	l, ok := v.state.leads[id]
	if !ok {
		return Lead{}, false
	}
	return cloneLead(l), true
}

func (v transactionView) FindClient(id string) (Client, bool) {
	c, ok := v.state.clients[id]
	if !ok {
		return Client{}, false
	}
	return cloneClient(c), true
}

func (v transactionView) FindCoupon(id string) (Coupon, bool) {
	c, ok := v.state.coupons[id]
	if !ok {
		return Coupon{}, false
	}
	return cloneCoupon(c), true
}

func (v transactionView) FindParcel(id string) (Parcel, bool) {
	p, ok := v.state.parcels[id]
	if !ok {
		return Parcel{}, false
	}
	return cloneParcel(p), true
}

// Committed-state read helpers -----------------------------------------------

// GetTodo retrieves a todo by ID from committed state.
func (s *Store) GetTodo(id string) (Todo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.state.todos[id]
	if !ok {
		return Todo{}, false
	}
	return cloneTodo(t), true
}

// GetProduct retrieves a product by ID from committed state.
func (s *Store) GetProduct(id string) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.products[id]
	if !ok {
		return Product{}, false
	}
	return cloneProduct(p), true
}

// GetCustomer retrieves a customer by ID from committed state.
func (s *Store) GetCustomer(id string) (Customer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.state.customers[id]
	if !ok {
		return Customer{}, false
	}
	return cloneCustomer(c), true
}

// GetLead retrieves a lead by ID from committed state.
func (s *Store) GetLead(id string) (Lead, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.state.leads[id]
	if !ok {
		return Lead{}, false
	}
	return cloneLead(l), true
}

// GetClient retrieves a client by ID from committed state.
func (s *Store) GetClient(id string) (Client, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.state.clients[id]
	if !ok {
		return Client{}, false
	}
	return cloneClient(c), true
}

// GetParcel retrieves a parcel by ID from committed state.
func (s *Store) GetParcel(id string) (Parcel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.parcels[id]
	if !ok {
		return Parcel{}, false
	}
	return cloneParcel(p), true
}

// ListTodos returns all todos from committed state in insertion order.
func (s *Store) ListTodos() []Todo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transactionView{state: &s.state}.ListTodos()
}

// ListProducts returns all products.
func (s *Store) ListProducts() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transactionView{state: &s.state}.ListProducts()
}

// ListCustomers returns all customers.
func (s *Store) ListCustomers() []Customer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transactionView{state: &s.state}.ListCustomers()
}

// ListTransactions returns all purchase records.
func (s *Store) ListTransactions() []Purchase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transactionView{state: &s.state}.ListTransactions()
}

// ListCoupons returns all coupons.
func (s *Store) ListCoupons() []Coupon {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transactionView{state: &s.state}.ListCoupons()
}

// ListLeads returns all leads.
func (s *Store) ListLeads() []Lead {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transactionView{state: &s.state}.ListLeads()
}

// ListFollowUps returns all follow-up tasks.
func (s *Store) ListFollowUps() []FollowUp {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transactionView{state: &s.state}.ListFollowUps()
}

// ListNotes returns all notes.
func (s *Store) ListNotes() []Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transactionView{state: &s.state}.ListNotes()
}

// ListActivities returns all activity-log entries.
func (s *Store) ListActivities() []Activity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transactionView{state: &s.state}.ListActivities()
}

// ListClients returns all clients.
func (s *Store) ListClients() []Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transactionView{state: &s.state}.ListClients()
}

// ListAppointments returns all appointments.
func (s *Store) ListAppointments() []Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transactionView{state: &s.state}.ListAppointments()
}

// ListReminders returns all reminders.
func (s *Store) ListReminders() []Reminder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transactionView{state: &s.state}.ListReminders()
}

// ListParcels returns all parcels.
func (s *Store) ListParcels() []Parcel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transactionView{state: &s.state}.ListParcels()
}
