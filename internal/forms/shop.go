package forms

import (
	"time"

	"opscore/pkg/domain"
)

// ClientForm buffers input for a shop client.
type ClientForm struct {
	Name    string `validate:"required"`
	Phone   string `validate:"required"`
	Email   string `validate:"omitempty,email"`
	Vehicle string `validate:"required"`
}

// Submit validates the buffer and yields the record to persist.
func (f ClientForm) Submit() (domain.Client, error) {
	if err := fieldErrors(domain.EntityClient, validate.Struct(f)); err != nil {
		return domain.Client{}, err
	}
	client := domain.Client{Name: f.Name, Phone: f.Phone, Vehicle: f.Vehicle}
	if f.Email != "" {
		email := f.Email
		client.Email = &email
	}
	return client, nil
}

// AppointmentForm buffers input for a scheduled service visit.
type AppointmentForm struct {
	ClientID    string    `validate:"required"`
	Service     string    `validate:"required,oneof=oil_change brakes tires inspection diagnostics repair"`
	ScheduledAt time.Time `validate:"required"`
	CostCents   int64     `validate:"gte=0"`
	Notes       string
}

// Submit validates the buffer and yields the record to persist. New visits
// start in the scheduled state.
func (f AppointmentForm) Submit() (domain.Appointment, error) {
	if err := fieldErrors(domain.EntityAppointment, validate.Struct(f)); err != nil {
		return domain.Appointment{}, err
	}
	appointment := domain.Appointment{
		ClientID:    f.ClientID,
		Service:     domain.ServiceType(f.Service),
		ScheduledAt: f.ScheduledAt,
		CostCents:   f.CostCents,
		Status:      domain.AppointmentScheduled,
	}
	if f.Notes != "" {
		notes := f.Notes
		appointment.Notes = &notes
	}
	return appointment, nil
}

// ReminderForm buffers input for a dated client message.
type ReminderForm struct {
	ClientID string    `validate:"required"`
	Message  string    `validate:"required"`
	RemindAt time.Time `validate:"required"`
}

// Submit validates the buffer and yields the record to persist.
func (f ReminderForm) Submit() (domain.Reminder, error) {
	if err := fieldErrors(domain.EntityReminder, validate.Struct(f)); err != nil {
		return domain.Reminder{}, err
	}
	return domain.Reminder{ClientID: f.ClientID, Message: f.Message, RemindAt: f.RemindAt}, nil
}
