package core

import "opscore/pkg/domain"

type (
	EntityType         = domain.EntityType
	Severity           = domain.Severity
	Base               = domain.Base
	Todo               = domain.Todo
	Product            = domain.Product
	Customer           = domain.Customer
	Purchase           = domain.Transaction
	Coupon             = domain.Coupon
	Lead               = domain.Lead
	FollowUp           = domain.FollowUp
	Note               = domain.Note
	Activity           = domain.Activity
	Client             = domain.Client
	Appointment        = domain.Appointment
	Reminder           = domain.Reminder
	Parcel             = domain.Parcel
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	RuleViolationError = domain.RuleViolationError
)

const (
	EntityTodo        = domain.EntityTodo
	EntityProduct     = domain.EntityProduct
	EntityCustomer    = domain.EntityCustomer
	EntityTransaction = domain.EntityTransaction
	EntityCoupon      = domain.EntityCoupon
	EntityLead        = domain.EntityLead
	EntityFollowUp    = domain.EntityFollowUp
	EntityNote        = domain.EntityNote
	EntityActivity    = domain.EntityActivity
	EntityClient      = domain.EntityClient
	EntityAppointment = domain.EntityAppointment
	EntityReminder    = domain.EntityReminder
	EntityParcel      = domain.EntityParcel
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)
