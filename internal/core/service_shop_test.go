package core

import (
	"context"
	"testing"
	"time"

	"opscore/pkg/domain"
)

func seedClient(t *testing.T, svc *Service) Client {
	t.Helper()
	client, _, err := svc.CreateClient(context.Background(), Client{
		Name:    "Pat",
		Phone:   "555-0100",
		Vehicle: "2014 Outback",
	})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	return client
}

func TestAppointmentWorkflow(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService(NewDefaultRulesEngine())
	client := seedClient(t, svc)

	appointment, _, err := svc.CreateAppointment(ctx, Appointment{
		ClientID:    client.ID,
		Service:     domain.ServiceBrakes,
		ScheduledAt: time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC),
		CostCents:   24000,
	})
	if err != nil {
		t.Fatalf("create appointment: %v", err)
	}
	if appointment.Status != domain.AppointmentScheduled {
		t.Fatalf("expected scheduled default, got %q", appointment.Status)
	}

	inProgress, _, err := svc.SetAppointmentStatus(ctx, appointment.ID, domain.AppointmentInProgress)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if inProgress.Status != domain.AppointmentInProgress {
		t.Fatalf("expected in_progress, got %q", inProgress.Status)
	}

	if _, _, err := svc.SetAppointmentStatus(ctx, appointment.ID, domain.AppointmentStatus("bogus")); err == nil {
		t.Fatalf("expected unknown status to be blocked")
	}
	appointments := svc.ListAppointments(ctx)
	if len(appointments) != 1 || appointments[0].Status != domain.AppointmentInProgress {
		t.Fatalf("blocked transition must not commit, got %+v", appointments)
	}
}

func TestMarkReminderSent(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService(NewDefaultRulesEngine())
	client := seedClient(t, svc)

	reminder, _, err := svc.CreateReminder(ctx, Reminder{
		ClientID: client.ID,
		Message:  "inspection due",
		RemindAt: time.Date(2026, 7, 15, 9, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create reminder: %v", err)
	}
	if reminder.Sent {
		t.Fatalf("new reminder must start unsent")
	}

	sent, _, err := svc.MarkReminderSent(ctx, reminder.ID)
	if err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	if !sent.Sent {
		t.Fatalf("expected sent flag set")
	}
}

func TestDeleteClientCascadesThroughService(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService(NewDefaultRulesEngine())
	client := seedClient(t, svc)

	if _, _, err := svc.CreateAppointment(ctx, Appointment{
		ClientID:    client.ID,
		Service:     domain.ServiceInspection,
		ScheduledAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("create appointment: %v", err)
	}
	if _, _, err := svc.CreateReminder(ctx, Reminder{
		ClientID: client.ID,
		Message:  "pickup ready",
		RemindAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("create reminder: %v", err)
	}

	if _, err := svc.DeleteClient(ctx, client.ID); err != nil {
		t.Fatalf("delete client: %v", err)
	}
	if n := len(svc.ListAppointments(ctx)); n != 0 {
		t.Fatalf("expected appointments removed, got %d", n)
	}
	if n := len(svc.ListReminders(ctx)); n != 0 {
		t.Fatalf("expected reminders removed, got %d", n)
	}
}
