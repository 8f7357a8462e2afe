// Package notify publishes appointment lifecycle events for downstream
// channels (email, SMS, reminders). Publishing is fire-and-forget: a broker
// outage never fails the booking that triggered the event.
package notify

import (
	"context"
	"time"

	"slotbook/pkg/model"
)

const (
	EventAppointmentCreated     = "appointment.created"
	EventAppointmentRescheduled = "appointment.rescheduled"
	EventAppointmentCancelled   = "appointment.cancelled"
	EventAppointmentStatus      = "appointment.status_changed"
)

// AppointmentEvent is the payload published for every lifecycle change.
type AppointmentEvent struct {
	AppointmentID string    `json:"appointment_id"`
	EmployeeID    string    `json:"employee_id"`
	ServiceID     string    `json:"service_id"`
	ClientID      string    `json:"client_id,omitempty"`
	GuestEmail    string    `json:"guest_email,omitempty"`
	GuestPhone    string    `json:"guest_phone,omitempty"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Status        string    `json:"status"`
	ActorID       string    `json:"actor_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type Notifier interface {
	AppointmentChanged(ctx context.Context, eventType string, appt *model.Appointment, actor model.Actor)
}

// Noop discards every event. Used in tests and when no broker is configured.
type Noop struct{}

func (Noop) AppointmentChanged(context.Context, string, *model.Appointment, model.Actor) {}
