package core

import (
	"context"
	"fmt"

	"opscore/pkg/domain"
)

// NewNonNegativeAmountsRule returns the rule blocking commits that leave any
// money or points field below zero.
func NewNonNegativeAmountsRule() domain.Rule {
	return nonNegativeAmountsRule{}
}

type nonNegativeAmountsRule struct{}

func (nonNegativeAmountsRule) Name() string { return "non_negative_amounts" }

func (nonNegativeAmountsRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	add := func(entity domain.EntityType, id, field string, value int64) {
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "non_negative_amounts",
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("%s %s: %s is negative (%d)", entity, id, field, value),
			Entity:   entity,
			EntityID: id,
		})
	}

	for _, p := range view.ListProducts() {
		if p.PriceCents < 0 {
			add(domain.EntityProduct, p.ID, "price_cents", p.PriceCents)
		}
		if p.Stock < 0 {
			add(domain.EntityProduct, p.ID, "stock", int64(p.Stock))
		}
	}
	for _, c := range view.ListCustomers() {
		if c.Points < 0 {
			add(domain.EntityCustomer, c.ID, "points", c.Points)
		}
	}
	for _, t := range view.ListTransactions() {
		if t.AmountCents < 0 {
			add(domain.EntityTransaction, t.ID, "amount_cents", t.AmountCents)
		}
		if t.PointsEarned < 0 {
			add(domain.EntityTransaction, t.ID, "points_earned", t.PointsEarned)
		}
		if t.PointsSpent < 0 {
			add(domain.EntityTransaction, t.ID, "points_spent", t.PointsSpent)
		}
	}
	for _, c := range view.ListCoupons() {
		if c.MinPurchaseCents < 0 {
			add(domain.EntityCoupon, c.ID, "min_purchase_cents", c.MinPurchaseCents)
		}
	}
	for _, l := range view.ListLeads() {
		if l.BudgetCents < 0 {
			add(domain.EntityLead, l.ID, "budget_cents", l.BudgetCents)
		}
	}
	for _, a := range view.ListAppointments() {
		if a.CostCents < 0 {
			add(domain.EntityAppointment, a.ID, "cost_cents", a.CostCents)
		}
	}
	return res, nil
}
