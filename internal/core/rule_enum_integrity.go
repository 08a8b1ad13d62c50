package core

import (
	"context"
	"fmt"

	"opscore/pkg/domain"
)

// NewEnumIntegrityRule returns the rule blocking commits whose records hold
// values outside their closed enum sets.
func NewEnumIntegrityRule() domain.Rule {
	return enumIntegrityRule{}
}

type enumIntegrityRule struct{}

func (enumIntegrityRule) Name() string { return "enum_integrity" }

func (enumIntegrityRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	add := func(entity domain.EntityType, id, field string, value any) {
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "enum_integrity",
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("%s %s: %s %q is not a recognized value", entity, id, field, value),
			Entity:   entity,
			EntityID: id,
		})
	}

	for _, t := range view.ListTodos() {
		if !t.Priority.Valid() {
			add(domain.EntityTodo, t.ID, "priority", t.Priority)
		}
	}
	for _, p := range view.ListProducts() {
		if !p.Category.Valid() {
			add(domain.EntityProduct, p.ID, "category", p.Category)
		}
	}
	for _, l := range view.ListLeads() {
		if !l.Status.Valid() {
			add(domain.EntityLead, l.ID, "status", l.Status)
		}
		if !l.Source.Valid() {
			add(domain.EntityLead, l.ID, "source", l.Source)
		}
	}
	for _, a := range view.ListAppointments() {
		if !a.Service.Valid() {
			add(domain.EntityAppointment, a.ID, "service", a.Service)
		}
		if !a.Status.Valid() {
			add(domain.EntityAppointment, a.ID, "status", a.Status)
		}
	}
	for _, p := range view.ListParcels() {
		if !p.Status.Valid() {
			add(domain.EntityParcel, p.ID, "status", p.Status)
		}
	}
	return res, nil
}
