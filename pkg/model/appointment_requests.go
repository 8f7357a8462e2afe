package model

// AppointmentRequest is a client booking: the client books one of the offered
// slots for themselves. End time is derived from the service duration.
type AppointmentRequest struct {
	EmployeeID string `json:"employee_id" validate:"required,mongodb"`
	ServiceID  string `json:"service_id" validate:"required,mongodb"`
	Date       string `json:"date" validate:"required,calendar_date"`
	Start      string `json:"start" validate:"required,time_of_day"`
	Notes      string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// ManualAppointmentRequest is a staff booking on behalf of a walk-in or
// phone-in guest. At least one guest contact field must be present.
type ManualAppointmentRequest struct {
	EmployeeID string `json:"employee_id" validate:"required,mongodb"`
	ServiceID  string `json:"service_id" validate:"required,mongodb"`
	Date       string `json:"date" validate:"required,calendar_date"`
	Start      string `json:"start" validate:"required,time_of_day"`
	GuestName  string `json:"guest_name" validate:"required,min=2,max=100"`
	GuestEmail string `json:"guest_email,omitempty" validate:"omitempty,email"`
	GuestPhone string `json:"guest_phone,omitempty" validate:"omitempty"`
	ClientID   string `json:"client_id,omitempty" validate:"omitempty,mongodb"`
	Notes      string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// RescheduleRequest moves an existing appointment to a new slot with the same
// employee and service.
type RescheduleRequest struct {
	Date  string `json:"date" validate:"required,calendar_date"`
	Start string `json:"start" validate:"required,time_of_day"`
}

// StatusUpdateRequest transitions an appointment through its lifecycle.
type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed cancelled completed"`
}
