package domain

import "context"

// RuleView provides read-only access to domain entities for rule evaluation.
type RuleView interface {
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
	FindCustomer(id string) (Customer, bool)
	FindLead(id string) (Lead, bool)
	FindClient(id string) (Client, bool)
	FindCoupon(id string) (Coupon, bool)
	FindParcel(id string) (Parcel, bool)
}

// Rule defines an evaluation executed within a transaction boundary.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error)
}

// RulesEngine orchestrates rule evaluation.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine constructs an engine instance.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// Register appends a rule to the engine.
func (e *RulesEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Evaluate executes all registered rules and aggregates their results.
func (e *RulesEngine) Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error) {
	var combined Result
	for _, rule := range e.rules {
		res, err := rule.Evaluate(ctx, view, changes)
		if err != nil {
			return Result{}, err
		}
		combined.Merge(res)
	}
	return combined, nil
}
