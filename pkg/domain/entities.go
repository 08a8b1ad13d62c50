// Package domain defines the persistent entities, value types, error
// taxonomy, and rule evaluation primitives shared by all opscore verticals.
package domain

import "time"

// EntityType identifies the type of record stored in the core.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityTodo identifies a todo item record.
	EntityTodo EntityType = "todo"
	// EntityProduct identifies a storefront product record.
	EntityProduct EntityType = "product"
	// EntityCustomer identifies a loyalty customer record.
	EntityCustomer EntityType = "customer"
	// EntityTransaction identifies a purchase transaction record.
	EntityTransaction EntityType = "transaction"
	// EntityCoupon identifies an issued coupon record.
	EntityCoupon EntityType = "coupon"
	// EntityLead identifies a CRM lead record.
	EntityLead EntityType = "lead"
	// EntityFollowUp identifies a follow-up task attached to a lead.
	EntityFollowUp EntityType = "follow_up"
	// EntityNote identifies a free-form note attached to a lead.
	EntityNote EntityType = "note"
	// EntityActivity identifies an activity-log entry attached to a lead.
	EntityActivity EntityType = "activity"
	// EntityClient identifies a service-shop client record.
	EntityClient EntityType = "client"
	// EntityAppointment identifies a service appointment record.
	EntityAppointment EntityType = "appointment"
	// EntityReminder identifies a client reminder record.
	EntityReminder EntityType = "reminder"
	// EntityParcel identifies a tracked parcel record.
	EntityParcel EntityType = "parcel"
)

// TodoPriority enumerates todo urgency levels.
type TodoPriority string

// Canonical todo priorities.
const (
	PriorityLow    TodoPriority = "low"
	PriorityMedium TodoPriority = "medium"
	PriorityHigh   TodoPriority = "high"
)

// ProductCategory enumerates storefront product groupings.
type ProductCategory string

// Canonical product categories.
const (
	CategoryEspresso ProductCategory = "espresso"
	CategoryBrewed   ProductCategory = "brewed"
	CategoryCold     ProductCategory = "cold"
	CategoryPastry   ProductCategory = "pastry"
	CategoryMerch    ProductCategory = "merch"
)

// LeadStatus enumerates the CRM pipeline states.
type LeadStatus string

// Canonical lead statuses, ordered by pipeline progression.
const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusConverted LeadStatus = "converted"
	LeadStatusLost      LeadStatus = "lost"
)

// LeadSource enumerates how a lead entered the pipeline.
type LeadSource string

// Canonical lead sources.
const (
	SourceWebsite  LeadSource = "website"
	SourceReferral LeadSource = "referral"
	SourceWalkIn   LeadSource = "walk_in"
	SourceEvent    LeadSource = "event"
	SourceColdCall LeadSource = "cold_call"
)

// ServiceType enumerates shop service offerings.
type ServiceType string

// Canonical service types.
const (
	ServiceOilChange   ServiceType = "oil_change"
	ServiceBrakes      ServiceType = "brakes"
	ServiceTires       ServiceType = "tires"
	ServiceInspection  ServiceType = "inspection"
	ServiceDiagnostics ServiceType = "diagnostics"
	ServiceRepair      ServiceType = "repair"
)

// AppointmentStatus enumerates appointment workflow states.
type AppointmentStatus string

// Canonical appointment statuses.
const (
	AppointmentScheduled  AppointmentStatus = "scheduled"
	AppointmentInProgress AppointmentStatus = "in_progress"
	AppointmentCompleted  AppointmentStatus = "completed"
	AppointmentCancelled  AppointmentStatus = "cancelled"
)

// ParcelStatus enumerates parcel tracking states.
type ParcelStatus string

// Canonical parcel statuses.
const (
	ParcelRegistered     ParcelStatus = "registered"
	ParcelInTransit      ParcelStatus = "in_transit"
	ParcelOutForDelivery ParcelStatus = "out_for_delivery"
	ParcelDelivered      ParcelStatus = "delivered"
	ParcelDelayed        ParcelStatus = "delayed"
	ParcelCancelled      ParcelStatus = "cancelled"
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

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Todo is a single checklist item.
type Todo struct {
	Base
	Text      string       `json:"text"`
	Priority  TodoPriority `json:"priority"`
	DueAt     *time.Time   `json:"due_at"`
	Tags      []string     `json:"tags"`
	Completed bool         `json:"completed"`
}

// Product is a storefront catalog entry. Prices are integral cents.
type Product struct {
	Base
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	PriceCents  int64           `json:"price_cents"`
	Category    ProductCategory `json:"category"`
	Stock       int             `json:"stock"`
}

// Customer is a loyalty program member. Points accrue from purchases and are
// deducted when a reward tier fires.
type Customer struct {
	Base
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Phone     *string  `json:"phone,omitempty"`
	Points    int64    `json:"points"`
	Interests []string `json:"interests"`
}

// Transaction records one purchase against a customer account.
type Transaction struct {
	Base
	CustomerID   string    `json:"customer_id"`
	AmountCents  int64     `json:"amount_cents"`
	PointsEarned int64     `json:"points_earned"`
	PointsSpent  int64     `json:"points_spent"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Coupon is a discount voucher issued to a customer by the loyalty ladder.
type Coupon struct {
	Base
	CustomerID       string     `json:"customer_id"`
	Code             string     `json:"code"`
	PercentOff       int        `json:"percent_off"`
	MinPurchaseCents int64      `json:"min_purchase_cents"`
	ExpiresAt        *time.Time `json:"expires_at"`
	Redeemed         bool       `json:"redeemed"`
	RedeemedAt       *time.Time `json:"redeemed_at"`
}

// Lead is a CRM pipeline entry.
type Lead struct {
	Base
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Company         *string    `json:"company,omitempty"`
	Status          LeadStatus `json:"status"`
	Source          LeadSource `json:"source"`
	BudgetCents     int64      `json:"budget_cents"`
	Interests       []string   `json:"interests"`
	LastContactedAt *time.Time `json:"last_contacted_at"`
}

// FollowUp is a dated task attached to a lead.
type FollowUp struct {
	Base
	LeadID string     `json:"lead_id"`
	Title  string     `json:"title"`
	DueAt  *time.Time `json:"due_at"`
	Done   bool       `json:"done"`
}

// Note is a free-form annotation attached to a lead.
type Note struct {
	Base
	LeadID string `json:"lead_id"`
	Body   string `json:"body"`
	Author string `json:"author"`
}

// Activity is an append-only audit entry describing something that happened
// to a lead, such as a status transition.
type Activity struct {
	Base
	LeadID      string    `json:"lead_id"`
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Client is a service-shop customer.
type Client struct {
	Base
	Name    string  `json:"name"`
	Phone   string  `json:"phone"`
	Email   *string `json:"email,omitempty"`
	Vehicle string  `json:"vehicle"`
}

// Appointment is a scheduled service visit for a client.
type Appointment struct {
	Base
	ClientID    string            `json:"client_id"`
	Service     ServiceType       `json:"service"`
	ScheduledAt time.Time         `json:"scheduled_at"`
	CostCents   int64             `json:"cost_cents"`
	Status      AppointmentStatus `json:"status"`
	Notes       *string           `json:"notes,omitempty"`
}

// Reminder is a dated message queued for a client.
type Reminder struct {
	Base
	ClientID string    `json:"client_id"`
	Message  string    `json:"message"`
	RemindAt time.Time `json:"remind_at"`
	Sent     bool      `json:"sent"`
}

// Parcel is a tracked shipment. DelayNotified records that the delay sweep
// already produced a notification for this parcel, so it fires at most once.
type Parcel struct {
	Base
	Code              string       `json:"code"`
	Carrier           string       `json:"carrier"`
	Origin            string       `json:"origin"`
	Destination       string       `json:"destination"`
	Status            ParcelStatus `json:"status"`
	EstimatedDelivery *time.Time   `json:"estimated_delivery"`
	DeliveredAt       *time.Time   `json:"delivered_at"`
	DelayNotified     bool         `json:"delay_notified"`
}

// Valid reports whether the priority is a member of the closed set.
func (p TodoPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Valid reports whether the category is a member of the closed set.
func (c ProductCategory) Valid() bool {
	switch c {
	case CategoryEspresso, CategoryBrewed, CategoryCold, CategoryPastry, CategoryMerch:
		return true
	}
	return false
}

// Valid reports whether the status is a member of the closed set.
func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusConverted, LeadStatusLost:
		return true
	}
	return false
}

// Valid reports whether the source is a member of the closed set.
func (s LeadSource) Valid() bool {
	switch s {
	case SourceWebsite, SourceReferral, SourceWalkIn, SourceEvent, SourceColdCall:
		return true
	}
	return false
}

// Valid reports whether the service type is a member of the closed set.
func (s ServiceType) Valid() bool {
	switch s {
	case ServiceOilChange, ServiceBrakes, ServiceTires, ServiceInspection, ServiceDiagnostics, ServiceRepair:
		return true
	}
	return false
}

// Valid reports whether the status is a member of the closed set.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentScheduled, AppointmentInProgress, AppointmentCompleted, AppointmentCancelled:
		return true
	}
	return false
}

// Valid reports whether the status is a member of the closed set.
func (s ParcelStatus) Valid() bool {
	switch s {
	case ParcelRegistered, ParcelInTransit, ParcelOutForDelivery, ParcelDelivered, ParcelDelayed, ParcelCancelled:
		return true
	}
	return false
}

// Terminal reports whether the parcel can no longer become delayed.
func (s ParcelStatus) Terminal() bool {
	return s == ParcelDelivered || s == ParcelCancelled
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

// Change actions enumerate supported CRUD operations captured in the audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
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

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
