package domain

import "context"

// Tx exposes the domain operations that a persistence implementation must
// support within an atomic scope. Delete operations cascade to dependent
// records keyed by the deleted entity's identifier. The name avoids clashing
// with the Transaction purchase record.
type Tx interface {
	Snapshot() TransactionView
	CreateTodo(Todo) (Todo, error)
	UpdateTodo(id string, mutator func(*Todo) error) (Todo, error)
	DeleteTodo(id string) error
	CreateProduct(Product) (Product, error)
	UpdateProduct(id string, mutator func(*Product) error) (Product, error)
	DeleteProduct(id string) error
	CreateCustomer(Customer) (Customer, error)
	UpdateCustomer(id string, mutator func(*Customer) error) (Customer, error)
	DeleteCustomer(id string) error
	CreateTransaction(Transaction) (Transaction, error)
	CreateCoupon(Coupon) (Coupon, error)
	UpdateCoupon(id string, mutator func(*Coupon) error) (Coupon, error)
	DeleteCoupon(id string) error
	CreateLead(Lead) (Lead, error)
	UpdateLead(id string, mutator func(*Lead) error) (Lead, error)
	DeleteLead(id string) error
	CreateFollowUp(FollowUp) (FollowUp, error)
	UpdateFollowUp(id string, mutator func(*FollowUp) error) (FollowUp, error)
	DeleteFollowUp(id string) error
	CreateNote(Note) (Note, error)
	DeleteNote(id string) error
	CreateActivity(Activity) (Activity, error)
	CreateClient(Client) (Client, error)
	UpdateClient(id string, mutator func(*Client) error) (Client, error)
	DeleteClient(id string) error
	CreateAppointment(Appointment) (Appointment, error)
	UpdateAppointment(id string, mutator func(*Appointment) error) (Appointment, error)
	DeleteAppointment(id string) error
	CreateReminder(Reminder) (Reminder, error)
	UpdateReminder(id string, mutator func(*Reminder) error) (Reminder, error)
	DeleteReminder(id string) error
	CreateParcel(Parcel) (Parcel, error)
	UpdateParcel(id string, mutator func(*Parcel) error) (Parcel, error)
	DeleteParcel(id string) error
	FindCustomer(id string) (Customer, bool)
	FindLead(id string) (Lead, bool)
	FindClient(id string) (Client, bool)
}

// TransactionView provides read-only access to snapshot data for rules and
// derived views.
type TransactionView = RuleView

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Tx) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetTodo(id string) (Todo, bool)
	GetProduct(id string) (Product, bool)
	GetCustomer(id string) (Customer, bool)
	GetLead(id string) (Lead, bool)
	GetClient(id string) (Client, bool)
	GetParcel(id string) (Parcel, bool)
	ListTodos() []Todo
	ListProducts() []Product
	ListCustomers() []Customer
	ListTransactions() []Transaction
	ListCoupons() []Coupon
	ListLeads() []Lead
	ListFollowUps() []FollowUp
	ListNotes() []Note
	ListActivities() []Activity
	ListClients() []Client
	ListAppointments() []Appointment
	ListReminders() []Reminder
	ListParcels() []Parcel
}
