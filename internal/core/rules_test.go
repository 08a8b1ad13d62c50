package core

import (
	"context"
	"errors"
	"testing"

	"opscore/pkg/domain"
)

func TestEnumIntegrityRuleBlocksInvalidValues(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService(NewDefaultRulesEngine())

	_, _, err := svc.CreateTodo(ctx, Todo{Text: "bad", Priority: domain.TodoPriority("urgent")})
	var blocked RuleViolationError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected rule violation, got %v", err)
	}
	if n := len(svc.ListTodos(ctx)); n != 0 {
		t.Fatalf("blocked create must not commit, got %d todos", n)
	}

	lead := seedLead(t, svc)
	_, _, err = svc.UpdateLead(ctx, lead.ID, func(l *Lead) error {
		l.Source = domain.LeadSource("smoke_signal")
		return nil
	})
	if !errors.As(err, &blocked) {
		t.Fatalf("expected rule violation for lead source, got %v", err)
	}
	current, gerr := svc.GetLead(ctx, lead.ID)
	if gerr != nil {
		t.Fatalf("get lead: %v", gerr)
	}
	if current.Source != domain.SourceWebsite {
		t.Fatalf("blocked update must not commit, got %q", current.Source)
	}
}

func TestNonNegativeAmountsRule(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService(NewDefaultRulesEngine())

	cases := []struct {
		name string
		run  func() error
	}{
		{"negative product price", func() error {
			_, _, err := svc.CreateProduct(ctx, Product{Name: "Bad", PriceCents: -50, Category: domain.CategoryMerch})
			return err
		}},
		{"negative customer points", func() error {
			_, _, err := svc.CreateCustomer(ctx, Customer{Name: "Bad", Email: "bad@example.com", Points: -1})
			return err
		}},
		{"negative lead budget", func() error {
			_, _, err := svc.CreateLead(ctx, Lead{Name: "Bad", Email: "bad@example.com", Source: domain.SourceEvent, BudgetCents: -200})
			return err
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.run()
			var blocked RuleViolationError
			if !errors.As(err, &blocked) {
				t.Fatalf("expected rule violation, got %v", err)
			}
			if !blocked.Result.HasBlocking() {
				t.Fatalf("expected blocking violations, got %+v", blocked.Result)
			}
		})
	}
}

func TestReferenceIntegrityRuleCatchesRewrittenKeys(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService(NewDefaultRulesEngine())
	client := seedClient(t, svc)

	appointment, _, err := svc.CreateAppointment(ctx, Appointment{
		ClientID: client.ID,
		Service:  domain.ServiceRepair,
	})
	if err != nil {
		t.Fatalf("create appointment: %v", err)
	}

	_, _, err = svc.UpdateAppointment(ctx, appointment.ID, func(a *Appointment) error {
		a.ClientID = "rewritten-to-nothing"
		return nil
	})
	var blocked RuleViolationError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected rule violation for dangling client, got %v", err)
	}

	appointments := svc.ListAppointments(ctx)
	if len(appointments) != 1 || appointments[0].ClientID != client.ID {
		t.Fatalf("blocked rewrite must not commit, got %+v", appointments)
	}
}

func TestRulesEngineEvaluateAggregates(t *testing.T) {
	engine := NewDefaultRulesEngine()
	store := NewInMemoryService(engine).Store()

	err := store.View(context.Background(), func(view TransactionView) error {
		result, err := engine.Evaluate(context.Background(), view, nil)
		if err != nil {
			return err
		}
		if result.HasBlocking() {
			t.Fatalf("empty state must not violate any rule: %+v", result)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}
