package core

import (
	"context"

	"opscore/pkg/domain"
)

// CreateClient persists a new shop client.
func (s *Service) CreateClient(ctx context.Context, client Client) (Client, Result, error) {
	var created Client
	res, err := s.run(ctx, "create_client", EntityClient, func(tx Tx) (string, error) {
		var err error
		created, err = tx.CreateClient(client)
		return created.ID, err
	})
	return created, res, err
}

// UpdateClient mutates a shop client.
func (s *Service) UpdateClient(ctx context.Context, id string, mutator func(*Client) error) (Client, Result, error) {
	var updated Client
	res, err := s.run(ctx, "update_client", EntityClient, func(tx Tx) (string, error) {
		var err error
		updated, err = tx.UpdateClient(id, mutator)
		return id, err
	})
	return updated, res, err
}

// DeleteClient removes a shop client along with their appointments and
// reminders.
func (s *Service) DeleteClient(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_client", EntityClient, func(tx Tx) (string, error) {
		return id, tx.DeleteClient(id)
	})
}

// GetClient fetches a shop client from committed state.
func (s *Service) GetClient(ctx context.Context, id string) (Client, error) {
	client, ok := s.store.GetClient(id)
	if !ok {
		return Client{}, domain.NotFoundError{Entity: EntityClient, ID: id}
	}
	return client, nil
}

// ListClients returns all committed shop clients.
func (s *Service) ListClients(ctx context.Context) []Client {
	return s.store.ListClients()
}

// CreateAppointment persists a scheduled service visit.
func (s *Service) CreateAppointment(ctx context.Context, appointment Appointment) (Appointment, Result, error) {
	var created Appointment
	res, err := s.run(ctx, "create_appointment", EntityAppointment, func(tx Tx) (string, error) {
		var err error
		created, err = tx.CreateAppointment(appointment)
		return created.ID, err
	})
	return created, res, err
}

// UpdateAppointment mutates a service visit.
func (s *Service) UpdateAppointment(ctx context.Context, id string, mutator func(*Appointment) error) (Appointment, Result, error) {
	var updated Appointment
	res, err := s.run(ctx, "update_appointment", EntityAppointment, func(tx Tx) (string, error) {
		var err error
		updated, err = tx.UpdateAppointment(id, mutator)
		return id, err
	})
	return updated, res, err
}

// DeleteAppointment removes a service visit.
func (s *Service) DeleteAppointment(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_appointment", EntityAppointment, func(tx Tx) (string, error) {
		return id, tx.DeleteAppointment(id)
	})
}

// SetAppointmentStatus moves an appointment through its workflow.
func (s *Service) SetAppointmentStatus(ctx context.Context, id string, status domain.AppointmentStatus) (Appointment, Result, error) {
	return s.UpdateAppointment(ctx, id, func(a *Appointment) error {
		a.Status = status
		return nil
	})
}

// ListAppointments returns all committed service visits.
func (s *Service) ListAppointments(ctx context.Context) []Appointment {
	return s.store.ListAppointments()
}

// CreateReminder queues a dated message for a client.
func (s *Service) CreateReminder(ctx context.Context, reminder Reminder) (Reminder, Result, error) {
	var created Reminder
	res, err := s.run(ctx, "create_reminder", EntityReminder, func(tx Tx) (string, error) {
		var err error
		created, err = tx.CreateReminder(reminder)
		return created.ID, err
	})
	return created, res, err
}

// UpdateReminder mutates a reminder.
func (s *Service) UpdateReminder(ctx context.Context, id string, mutator func(*Reminder) error) (Reminder, Result, error) {
	var updated Reminder
	res, err := s.run(ctx, "update_reminder", EntityReminder, func(tx Tx) (string, error) {
		var err error
		updated, err = tx.UpdateReminder(id, mutator)
		return id, err
	})
	return updated, res, err
}

// DeleteReminder removes a reminder.
func (s *Service) DeleteReminder(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_reminder", EntityReminder, func(tx Tx) (string, error) {
		return id, tx.DeleteReminder(id)
	})
}

// MarkReminderSent flags a reminder as delivered.
func (s *Service) MarkReminderSent(ctx context.Context, id string) (Reminder, Result, error) {
	return s.UpdateReminder(ctx, id, func(r *Reminder) error {
		r.Sent = true
		return nil
	})
}

// ListReminders returns all committed reminders.
func (s *Service) ListReminders(ctx context.Context) []Reminder {
	return s.store.ListReminders()
}
