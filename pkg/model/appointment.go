package model

import (
	"time"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// ActiveStatuses are the appointment statuses that occupy an employee's time.
// Cancelled and completed appointments never block a slot.
var ActiveStatuses = []string{StatusPending, StatusConfirmed}

type Appointment struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	EmployeeID string    `json:"employee_id" bson:"employee_id" validate:"required,mongodb"`
	ServiceID  string    `json:"service_id" bson:"service_id" validate:"required,mongodb"`
	ClientID   string    `json:"client_id,omitempty" bson:"client_id,omitempty" validate:"omitempty,mongodb"`
	GuestName  string    `json:"guest_name,omitempty" bson:"guest_name,omitempty" validate:"omitempty,min=2,max=100"`
	GuestEmail string    `json:"guest_email,omitempty" bson:"guest_email,omitempty" validate:"omitempty,email"`
	GuestPhone string    `json:"guest_phone,omitempty" bson:"guest_phone,omitempty" validate:"omitempty,e164"`
	StartTime  time.Time `json:"start_time" bson:"start_time" validate:"required"`
	EndTime    time.Time `json:"end_time" bson:"end_time" validate:"required,gtfield=StartTime"`
	Status     string    `json:"status" bson:"status" validate:"required,oneof=pending confirmed cancelled completed"`
	Notes      string    `json:"notes,omitempty" bson:"notes,omitempty" validate:"omitempty,max=1000"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`

	// ManageToken is issued once on guest bookings and never persisted. It
	// lets a guest without an account look up or cancel the appointment.
	ManageToken string `json:"manage_token,omitempty" bson:"-"`
}

// IsActive reports whether the appointment counts toward conflicts.
func (a *Appointment) IsActive() bool {
	return a.Status == StatusPending || a.Status == StatusConfirmed
}

// OwnedBy reports whether the appointment belongs to the given client account.
// Guest appointments have no owner and can only be managed by staff.
func (a *Appointment) OwnedBy(clientID string) bool {
	return a.ClientID != "" && a.ClientID == clientID
}
