package core

import (
	"context"
	"fmt"

	"opscore/pkg/domain"
)

// NewReferenceIntegrityRule returns the rule blocking commits that leave a
// dependent record pointing at a missing parent. Cascade deletion keeps
// committed state clean; this catches snapshot imports and direct mutations
// that bypass the create-time checks.
func NewReferenceIntegrityRule() domain.Rule {
	return referenceIntegrityRule{}
}

type referenceIntegrityRule struct{}

func (referenceIntegrityRule) Name() string { return "reference_integrity" }

func (referenceIntegrityRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	add := func(entity domain.EntityType, id string, parent domain.EntityType, parentID string) {
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "reference_integrity",
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("%s %s references missing %s %s", entity, id, parent, parentID),
			Entity:   entity,
			EntityID: id,
		})
	}

	for _, t := range view.ListTransactions() {
		if _, ok := view.FindCustomer(t.CustomerID); !ok {
			add(domain.EntityTransaction, t.ID, domain.EntityCustomer, t.CustomerID)
		}
	}
	for _, c := range view.ListCoupons() {
		if _, ok := view.FindCustomer(c.CustomerID); !ok {
			add(domain.EntityCoupon, c.ID, domain.EntityCustomer, c.CustomerID)
		}
	}
	for _, f := range view.ListFollowUps() {
		if _, ok := view.FindLead(f.LeadID); !ok {
			add(domain.EntityFollowUp, f.ID, domain.EntityLead, f.LeadID)
		}
	}
	for _, n := range view.ListNotes() {
		if _, ok := view.FindLead(n.LeadID); !ok {
			add(domain.EntityNote, n.ID, domain.EntityLead, n.LeadID)
		}
	}
	for _, a := range view.ListActivities() {
		if _, ok := view.FindLead(a.LeadID); !ok {
			add(domain.EntityActivity, a.ID, domain.EntityLead, a.LeadID)
		}
	}
	for _, a := range view.ListAppointments() {
		if _, ok := view.FindClient(a.ClientID); !ok {
			add(domain.EntityAppointment, a.ID, domain.EntityClient, a.ClientID)
		}
	}
	for _, r := range view.ListReminders() {
		if _, ok := view.FindClient(r.ClientID); !ok {
			add(domain.EntityReminder, r.ID, domain.EntityClient, r.ClientID)
		}
	}
	return res, nil
}
